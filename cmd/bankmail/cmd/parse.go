package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"bulbank-notification-parser/cmd/bankmail/config"
	"bulbank-notification-parser/internal/processor"
	"bulbank-notification-parser/internal/reporter"
	"bulbank-notification-parser/internal/store"
	"bulbank-notification-parser/pkg/errors"
	"bulbank-notification-parser/pkg/logger"
)

// parseCmd represents the parse command
var parseCmd = &cobra.Command{
	Use:   "parse",
	Short: "Parse every notification document in a directory",
	Long: `Parse reads each .html/.htm notification in a directory, extracts the
transaction record, resolves the payment details for its transaction type and
writes a batch report. A document that cannot be parsed is reported and
skipped; the rest of the batch continues.

Examples:
  # Console report
  bankmail parse --dir ./notifications

  # JSON report to a file, records stored in SQLite
  bankmail parse --dir ./notifications --db notifications.db \
    --output-format json --output-file report.json

  # Windows-1251 mailbox export, throttled and cached
  bankmail parse --dir ./export --charset windows-1251 --rate-limit 20 --cache-ttl 10m`,

	PreRunE: validateParseFlags,
	RunE:    runParse,
}

func init() {
	rootCmd.AddCommand(parseCmd)

	parseCmd.Flags().StringP("dir", "d", "", "directory with notification documents (required)")
	parseCmd.Flags().String("db", "", "SQLite database to store results in (optional)")
	parseCmd.Flags().StringP("output-format", "f", "console", "output format: console, json, csv")
	parseCmd.Flags().StringP("output-file", "o", "", "output file path (default: stdout)")
	parseCmd.Flags().IntP("concurrency", "c", config.DefaultConcurrency(), "documents processed in parallel")
	parseCmd.Flags().Bool("resolve-details", true, "resolve typed payment details for every record")
	parseCmd.Flags().Int("max-errors", 0, "stop after this many failed documents (0: never)")
	parseCmd.Flags().Float64("rate-limit", 0, "maximum documents fetched per second (0: unlimited)")
	parseCmd.Flags().Int("rate-burst", 1, "burst size for --rate-limit")
	parseCmd.Flags().Duration("cache-ttl", 0, "cache fetched documents for this long (0: no cache)")
}

func validateParseFlags(cmd *cobra.Command, args []string) error {
	if viper.GetString("dir") == "" {
		return errors.ConfigurationError(errors.CodeMissingConfig, "dir", nil, nil).
			WithSuggestion("pass --dir with the directory holding the notification documents")
	}
	if err := validateDirExists(viper.GetString("dir")); err != nil {
		return err
	}

	// Validate output file directory exists if specified
	if outputFile := viper.GetString("output-file"); outputFile != "" {
		if err := validateDirExists(filepath.Dir(outputFile)); err != nil {
			return err
		}
	}
	if db := viper.GetString("db"); db != "" && db != ":memory:" {
		if err := validateDirExists(filepath.Dir(db)); err != nil {
			return err
		}
	}

	return nil
}

func validateDirExists(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return errors.ConfigurationError(errors.CodeInvalidConfig, "dir", path, err).
			WithSuggestion("check that the directory exists and is readable")
	}
	if !info.IsDir() {
		return errors.ConfigurationError(errors.CodeInvalidConfig, "dir", path, fmt.Errorf("not a directory"))
	}
	return nil
}

func runParse(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	appConfig, err := loadConfig()
	if err != nil {
		return err
	}

	output := cmd.OutOrStdout()
	if appConfig.OutputFile != "" {
		file, err := os.Create(appConfig.OutputFile)
		if err != nil {
			return errors.ConfigurationError(errors.CodeInvalidConfig, "output-file", appConfig.OutputFile, err)
		}
		defer file.Close()
		output = file
	}

	batch, err := parseDirectory(ctx, appConfig, output)
	if err != nil {
		return err
	}

	if viper.GetBool("verbose") {
		s := batch.Summary
		fmt.Fprintf(os.Stderr, "\nProcessed %d documents: %d parsed, %d partial, %d failed, %d skipped.\n",
			s.Total, s.Parsed, s.Partial, s.Failed, s.Skipped)
		fmt.Fprintf(os.Stderr, "Processing time: %v\n", batch.Duration())
	}

	// An aborted batch exits with the code of its worst failure
	if batch.Aborted && batch.Errors != nil {
		return batch.Errors
	}
	return nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// parseDirectory runs one batch and writes its report
func parseDirectory(ctx context.Context, appConfig *config.AppConfig, output io.Writer) (*processor.BatchResult, error) {
	log := logger.GetGlobalLogger().WithComponent("cli")

	proc, err := config.CreateProcessor(appConfig)
	if err != nil {
		return nil, err
	}
	provider, err := config.CreateProvider(appConfig)
	if err != nil {
		return nil, err
	}

	batch, err := proc.Run(ctx, provider)
	if err != nil {
		return nil, err
	}

	if appConfig.DB != "" {
		st, err := store.Open(appConfig.DB)
		if err != nil {
			return nil, err
		}
		defer st.Close()
		if err := st.SaveBatch(ctx, batch); err != nil {
			return nil, err
		}
	}

	generator, err := reporter.NewSafeReportGenerator(config.CreateReportConfig(appConfig.OutputFormat), log)
	if err != nil {
		return nil, err
	}
	if err := generator.GenerateReportSafely(batch, output); err != nil {
		return nil, err
	}

	return batch, nil
}
