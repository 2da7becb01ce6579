package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"gwi.com/prompt-history/internal/config"
	"gwi.com/prompt-history/internal/store"
)

func openStore(cmd *cobra.Command) (*store.SQLiteStore, error) {
	cfg, err := config.LoadStorageConfig()
	if err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	return store.NewSQLiteStore(cmd.Context(), cfg.DatabaseURL)
}

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadStorageConfig()
			if err != nil {
				return errors.Wrap(err, "load config")
			}
			// NewSQLiteStore already migrates, so this second run only
			// confirms nothing is left.
			s, err := store.NewSQLiteStore(cmd.Context(), cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer s.Close()

			n, err := s.Migrate(cmd.Context())
			if err != nil {
				return err
			}
			log.Info().Str("database", cfg.DatabaseURL).Int("remaining", n).Msg("database schema is up to date")
			return nil
		},
	}
}

func newHistoryCommand() *cobra.Command {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect and prune the stored chat history",
	}

	var asJSON bool
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "Print every stored prompt and reply, oldest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			records, err := s.ListAll(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(records)
			}
			for _, r := range records {
				fmt.Fprintf(out, "%d\t%s\t%s\t%s\n", r.ID, r.Timestamp.Format(time.RFC3339), oneLine(r.Prompt), oneLine(r.Response))
			}
			return nil
		},
	}
	listCmd.Flags().BoolVar(&asJSON, "json", false, "print records as JSON")

	deleteCmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete one history entry by id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return errors.Errorf("invalid id %q", args[0])
			}

			s, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.DeleteByID(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted entry %d\n", id)
			return nil
		},
	}

	historyCmd.AddCommand(listCmd, deleteCmd)
	return historyCmd
}

const maxColumn = 60

func oneLine(s string) string {
	r := []rune(s)
	for i, c := range r {
		if c == '\n' || c == '\r' || c == '\t' {
			r[i] = ' '
		}
	}
	if len(r) > maxColumn {
		return string(r[:maxColumn-3]) + "..."
	}
	return string(r)
}
