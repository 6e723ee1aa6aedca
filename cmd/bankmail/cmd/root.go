package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"bulbank-notification-parser/cmd/bankmail/config"
	"bulbank-notification-parser/pkg/errors"
	"bulbank-notification-parser/pkg/logger"
)

var (
	cfgFile string
	envFile string
	verbose bool
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "bankmail",
	Short: "Bank notification parser",
	Long: `Bankmail turns Bulbank transaction notification e-mails (HTML) into
structured transaction records and typed payment details.

Examples:
  bankmail parse --dir ./notifications
  bankmail parse --dir ./notifications --db notifications.db --output-format json
  bankmail serve --listen :8080
  bankmail vocabulary --yaml`,
	Version:           getVersionString(),
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setupLogging,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)
	config.SetDefaults(viper.GetViper())

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (optional, YAML)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading BANKMAIL_* variables")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().String("log-level", "info", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-format", "text", "log format: text, json")
	rootCmd.PersistentFlags().String("log-file", "", "write logs to this file instead of stderr")
	rootCmd.PersistentFlags().String("timezone", "UTC", "IANA zone the notification dates are in")
	rootCmd.PersistentFlags().String("charset", "auto", "document charset: auto, utf-8, windows-1251")
	rootCmd.PersistentFlags().String("vocabulary-file", "", "YAML label vocabulary replacing the built-in one")

	// Bind flags to viper
	for _, name := range []string{"verbose", "log-level", "log-format", "log-file", "timezone", "charset", "vocabulary-file"} {
		viper.BindPFlag(name, rootCmd.PersistentFlags().Lookup(name))
	}
}

// initConfig reads in the dotenv file, config file and ENV variables.
func initConfig() {
	if err := config.LoadDotEnv(envFile, rootCmd.PersistentFlags().Changed("env-file")); err != nil {
		os.Exit(NewCLIErrorHandler().HandleError(err))
	}

	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)

		// If a config file is specified, read it in.
		if err := viper.ReadInConfig(); err != nil {
			fmt.Fprintf(os.Stderr, "Error reading config file: %s\n", err)
			os.Exit(4)
		}

		if viper.GetBool("verbose") {
			fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
		}
	}

	// Read environment variables that match
	config.ConfigureEnv(viper.GetViper())
}

// setupLogging binds the running command's flags and installs the global
// logger before any command runs
func setupLogging(cmd *cobra.Command, args []string) error {
	bindFlags(cmd)

	appConfig, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}

	log, err := logger.NewLogger(appConfig.LoggerConfig())
	if err != nil {
		return errors.ConfigurationError(errors.CodeInvalidConfig, "log-level", appConfig.LogLevel, err)
	}
	logger.SetGlobalLogger(log)
	return nil
}

// bindFlags binds a subcommand's local flags to viper. Binding happens when
// the command runs so that commands sharing a flag name do not override each
// other's bindings.
func bindFlags(cmd *cobra.Command) {
	cmd.LocalNonPersistentFlags().VisitAll(func(f *pflag.Flag) {
		viper.BindPFlag(f.Name, f)
	})
}

// loadConfig returns the validated configuration for a subcommand
func loadConfig() (*config.AppConfig, error) {
	appConfig, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, err
	}
	if viper.GetBool("verbose") {
		fmt.Fprintf(os.Stderr, "Configuration: %s\n", appConfig)
	}
	return appConfig, nil
}

// SetVersionInfo sets the version information for the CLI
func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
	rootCmd.Version = getVersionString()
}

func getVersionString() string {
	if version == "dev" {
		return fmt.Sprintf("%s (commit %s, built %s)", version, commit, date)
	}
	return version
}
