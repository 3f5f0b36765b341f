package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"sieve/internal/analysis"
	"sieve/internal/apply"
	"sieve/internal/preflight"
)

type applyFunc func(*analysis.Facade, context.Context, analysis.ApplyOptions) (*apply.Manifest, error)

func newRegroupCommand(ctx *commandContext) *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "regroup",
		Short: "Move mis-owned entities to their owner's group and orphans to the catch-all group",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApply(cmd, ctx, (*analysis.Facade).Regroup, dryRun)
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show the planned moves without writing")
	return cmd
}

func newDedupCommand(ctx *commandContext) *cobra.Command {
	var applyChanges bool
	cmd := &cobra.Command{
		Use:   "dedup",
		Short: "Find duplicate audio clips and optionally merge them into their keeper",
		RunE: func(cmd *cobra.Command, args []string) error {
			if applyChanges {
				return runApply(cmd, ctx, (*analysis.Facade).RemoveDuplicates, false)
			}
			return ctx.withFacade(cmd, func(facade *analysis.Facade) error {
				report, err := facade.Duplicates(cmd.Context(), true)
				if err != nil {
					return err
				}
				fmt.Fprint(cmd.OutOrStdout(), renderResult(analysis.AudioDuplicates, report))
				if len(report.Groups) > 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Run `sieve dedup --apply` to merge duplicates into their keepers.")
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&applyChanges, "apply", false, "Retarget references to keepers and delete duplicates")
	return cmd
}

func newFixAudioCommand(ctx *commandContext) *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "fix-audio",
		Short: "Set the expected load type and compression format on audio clips",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApply(cmd, ctx, (*analysis.Facade).FixAudioCompression, dryRun)
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show the planned changes without writing")
	return cmd
}

func runApply(cmd *cobra.Command, ctx *commandContext, run applyFunc, dryRun bool) error {
	if !dryRun {
		cfg, err := ctx.ensureConfig()
		if err != nil {
			return err
		}
		if failed := preflight.Failed(preflight.RunAll(cmd.Context(), cfg)); len(failed) > 0 {
			details := make([]string, len(failed))
			for i, r := range failed {
				details[i] = r.Name + ": " + r.Detail
			}
			return fmt.Errorf("preflight failed: %s", strings.Join(details, "; "))
		}
	}

	return ctx.withFacade(cmd, func(facade *analysis.Facade) error {
		manifest, err := run(facade, cmd.Context(), analysis.ApplyOptions{DryRun: dryRun})
		if manifest != nil {
			renderManifest(cmd.OutOrStdout(), manifest)
		}
		return err
	})
}

func renderManifest(w io.Writer, m *apply.Manifest) {
	if len(m.Items) == 0 {
		fmt.Fprintf(w, "%s: nothing to do\n", m.Operation)
		return
	}

	t := newTable(col("Entity"), col("Action"), col("Detail"), col("Outcome"), col("Error"))
	for _, item := range m.Items {
		errText := ""
		if item.Err != nil {
			errText = item.Err.Error()
		}
		t.row(string(item.EntityID), item.Action, item.Detail, string(item.Outcome), errText)
	}
	fmt.Fprintln(w, t)

	counts := m.Counts()
	switch {
	case m.DryRun:
		fmt.Fprintf(w, "%s (dry run): %d planned, %d skipped\n", m.Operation, counts.Planned, counts.Skipped)
	default:
		fmt.Fprintf(w, "%s %s: %d applied, %d skipped, %d failed\n", m.Operation, m.RunID, counts.Applied, counts.Skipped, counts.Failed)
	}
	if m.Cancelled {
		fmt.Fprintln(w, "Cancelled before all items were processed.")
	}
}
