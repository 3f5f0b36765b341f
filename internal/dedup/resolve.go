package dedup

import (
	"context"
	"fmt"
	"log/slog"

	"sieve/internal/apply"
	"sieve/internal/asset"
	"sieve/internal/logging"
	"sieve/internal/progress"
)

// OperationDedup names dedup runs in manifests and the apply journal.
const OperationDedup = "dedup"

// Writer is the write surface merging duplicates needs.
type Writer interface {
	RetargetReferences(ctx context.Context, from, to asset.ID) (int, error)
	DeleteEntity(ctx context.Context, id asset.ID) error
}

// ResolveOptions tunes a merge run.
type ResolveOptions struct {
	DryRun   bool
	Logger   *slog.Logger
	Progress progress.Reporter
}

// Resolve merges every removable into its group's keeper: references are
// retargeted first, then the removable is deleted. A removable whose
// references could not be retargeted is not deleted. Failures do not stop the
// run; cancellation stops before the next removable.
func Resolve(ctx context.Context, w Writer, groups []DuplicateGroup, opts ResolveOptions) *apply.Manifest {
	manifest := apply.NewManifest(OperationDedup, opts.DryRun)
	defer manifest.Finish()

	logger := logging.WithContext(ctx, logging.NewComponentLogger(opts.Logger, "dedup"))
	reporter := progress.OrNop(opts.Progress)

	total := 0
	for _, g := range groups {
		total += len(g.Removable)
	}

	step := 0
	for _, g := range groups {
		for _, removable := range g.Removable {
			if ctx.Err() != nil {
				manifest.Cancelled = true
				logger.Info("dedup cancelled", logging.Int("remaining", total-step))
				return finish(logger, manifest)
			}
			reporter.Step(step, total, "merging "+removable.Label())
			manifest.Record(merge(ctx, logger, w, g.Keeper, removable, opts.DryRun))
			step++
		}
	}
	reporter.Step(total, total, "dedup complete")
	return finish(logger, manifest)
}

func merge(ctx context.Context, logger *slog.Logger, w Writer, keeper, removable asset.Entity, dryRun bool) apply.Item {
	item := apply.Item{
		EntityID: removable.ID,
		Label:    removable.Label(),
		Action:   "merge",
		Detail:   fmt.Sprintf("%s -> %s", removable.ID, keeper.ID),
	}
	if dryRun {
		item.Outcome = apply.OutcomePlanned
		return item
	}

	retargeted, err := w.RetargetReferences(ctx, removable.ID, keeper.ID)
	if err != nil {
		return failMerge(logger, item, err, "duplicate kept with its references")
	}
	item.Detail = fmt.Sprintf("%s -> %s (%d references)", removable.ID, keeper.ID, retargeted)
	if err := w.DeleteEntity(ctx, removable.ID); err != nil {
		return failMerge(logger, item, err, "references moved but duplicate not deleted")
	}
	item.Outcome = apply.OutcomeApplied
	return item
}

func failMerge(logger *slog.Logger, item apply.Item, err error, impact string) apply.Item {
	item.Outcome = apply.OutcomeFailed
	item.Err = err
	logging.WarnWithContext(logger, "duplicate merge failed", "dedup_merge_failed",
		logging.EntityID(item.EntityID),
		logging.String("merge", item.Detail),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "rerun dedup after resolving the error"),
		logging.String(logging.FieldImpact, impact),
	)
	return item
}

func finish(logger *slog.Logger, manifest *apply.Manifest) *apply.Manifest {
	counts := manifest.Counts()
	logger.Info("dedup finished",
		logging.RunID(manifest.RunID),
		logging.Bool("dry_run", manifest.DryRun),
		logging.Int("applied", counts.Applied),
		logging.Int("failed", counts.Failed),
		logging.Int("planned", counts.Planned),
	)
	return manifest
}
