package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"bulbank-notification-parser/cmd/bankmail/config"
	"bulbank-notification-parser/internal/api"
	"bulbank-notification-parser/internal/store"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the notification parser over HTTP",
	Long: `Serve exposes the parser as an HTTP API:

  GET  /api/health              liveness, schema and vocabulary versions
  POST /api/parse[?id=name]     parse one document (raw body or form field "file")
  GET  /api/notifications/:id   stored result (only with --db)

Examples:
  bankmail serve --listen :8080
  bankmail serve --listen 127.0.0.1:9000 --db notifications.db --log-format json`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("listen", "l", ":8080", "address to listen on")
	serveCmd.Flags().String("db", "", "SQLite database to store parsed documents in (optional)")
	serveCmd.Flags().Bool("resolve-details", true, "resolve typed payment details for every record")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	appConfig, err := loadConfig()
	if err != nil {
		return err
	}

	proc, err := config.CreateProcessor(appConfig)
	if err != nil {
		return err
	}

	var st *store.Store
	if appConfig.DB != "" {
		if st, err = store.Open(appConfig.DB); err != nil {
			return err
		}
		defer st.Close()
	}

	return api.NewServer(proc, st, version).Listen(ctx, appConfig.Listen)
}
