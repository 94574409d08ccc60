package cmd

import (
	"fmt"
	"os"

	"github.com/Togather-Foundation/events-api/internal/config"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	configPath string
	logLevel   string
	logFormat  string
)

func newRootCommand() *cobra.Command {
	serve := newServeCommand()

	root := &cobra.Command{
		Use:   "server",
		Short: "Events API server - REST storage for event records",
		Long: `Events API server stores free-form event records in PostgreSQL and
serves them over a small REST interface:

  GET    /events        list every event
  POST   /events        create an event (201 + Location)
  GET    /events/{id}   fetch one event
  DELETE /events/{id}   delete one event

Running without a subcommand starts the HTTP server.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve.RunE(cmd, args)
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "config file path (optional, uses env vars by default)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error) (default: info)")
	root.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format (json, console) (default: json)")

	root.AddCommand(serve)
	root.AddCommand(newMigrateCommand())
	root.AddCommand(newVersionCommand())
	root.AddCommand(newHealthcheckCommand())
	root.AddCommand(newEventsCommand())
	return root
}

// Execute runs the command tree. It is called by main.main().
func Execute() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads --config (when set) and the environment, then applies the
// logging flag overrides.
func loadConfig() (config.Config, error) {
	cfg, err := config.LoadFile(configPath)
	if err != nil {
		return config.Config{}, err
	}

	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if logFormat != "" {
		cfg.Logging.Format = logFormat
	}
	return cfg, nil
}
