package main

import (
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"sieve/internal/config"
	"sieve/internal/contentdb"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent apply runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(_ *config.Config, store *contentdb.Store, _ *slog.Logger) error {
				runs, err := store.ApplyHistory(cmd.Context(), limit)
				if err != nil {
					return err
				}
				if jsonOut {
					return writeJSON(cmd, runs)
				}
				if len(runs) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No apply runs recorded.")
					return nil
				}
				t := newTable(col("Run"), col("Operation"), num("Applied"), num("Skipped"), num("Failed"), col("When"))
				for _, run := range runs {
					t.row(run.RunID, run.Operation,
						strconv.Itoa(run.Applied), strconv.Itoa(run.Skipped), strconv.Itoa(run.Failed),
						formatWhen(run.StartedAt))
				}
				fmt.Fprintln(cmd.OutOrStdout(), t)
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of runs to show")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

func formatWhen(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return humanize.Time(t)
}
