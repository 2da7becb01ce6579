package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"gwi.com/prompt-history/internal/logging"
)

func newRootCommand() *cobra.Command {
	var logLevel string

	root := &cobra.Command{
		Use:           "prompt-history",
		Short:         "Single-user chat backend that keeps a history of prompts and replies",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// .env is read again by the config loader; loading it here lets it
			// set LOG_LEVEL too.
			_ = godotenv.Load()
			if !cmd.Flags().Changed("log-level") {
				if v, ok := os.LookupEnv("LOG_LEVEL"); ok {
					logLevel = v
				}
			}
			logging.Setup(logLevel)
		},
		// Running the binary without a subcommand starts the server.
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (trace, debug, info, warn, error)")

	root.AddCommand(newServeCommand())
	root.AddCommand(newMigrateCommand())
	root.AddCommand(newHistoryCommand())
	return root
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		log.Fatal().Err(err).Msg("command failed")
	}
}
