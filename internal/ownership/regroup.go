package ownership

import (
	"context"
	"fmt"
	"log/slog"

	"sieve/internal/apply"
	"sieve/internal/asset"
	"sieve/internal/logging"
	"sieve/internal/progress"
)

// OperationRegroup names regroup runs in manifests and the apply journal.
const OperationRegroup = "regroup"

// Mover is the write surface regrouping needs.
type Mover interface {
	CurrentGroup(ctx context.Context, id asset.ID) (asset.GroupID, error)
	MoveToGroup(ctx context.Context, id asset.ID, group asset.GroupID) error
}

// RegroupOptions tunes a regroup run.
type RegroupOptions struct {
	CatchAllGroup asset.GroupID
	DryRun        bool
	Logger        *slog.Logger
	Progress      progress.Reporter
}

type move struct {
	entity asset.Entity
	target asset.GroupID
}

// plan lists the moves a classification implies: mis-owned entities first in
// anchor order, then orphans.
func plan(c *Classification, catchAll asset.GroupID) []move {
	var moves []move
	for _, r := range c.Anchors {
		for _, e := range r.MisOwned {
			moves = append(moves, move{entity: e, target: r.Group})
		}
	}
	if catchAll != "" {
		for _, e := range c.Orphans {
			moves = append(moves, move{entity: e, target: catchAll})
		}
	}
	return moves
}

// Regroup moves mis-owned entities into their owner's canonical group and
// orphans into the catch-all group. Each move re-reads the entity's current
// group first; entities already in place are skipped. Failures are recorded
// and do not stop the run. Cancellation stops before the next move and marks
// the manifest cancelled.
func Regroup(ctx context.Context, mover Mover, c *Classification, opts RegroupOptions) *apply.Manifest {
	manifest := apply.NewManifest(OperationRegroup, opts.DryRun)
	defer manifest.Finish()

	logger := logging.WithContext(ctx, logging.NewComponentLogger(opts.Logger, "regroup"))
	reporter := progress.OrNop(opts.Progress)
	if c == nil {
		return manifest
	}

	moves := plan(c, opts.CatchAllGroup)
	for i, m := range moves {
		if ctx.Err() != nil {
			manifest.Cancelled = true
			logger.Info("regroup cancelled", logging.Int("remaining", len(moves)-i))
			break
		}
		reporter.Step(i, len(moves), "moving "+m.entity.Label())
		manifest.Record(applyMove(ctx, logger, mover, m, opts.DryRun))
	}
	if !manifest.Cancelled {
		reporter.Step(len(moves), len(moves), "regroup complete")
	}

	counts := manifest.Counts()
	logger.Info("regroup finished",
		logging.RunID(manifest.RunID),
		logging.Bool("dry_run", opts.DryRun),
		logging.Int("applied", counts.Applied),
		logging.Int("skipped", counts.Skipped),
		logging.Int("failed", counts.Failed),
		logging.Int("planned", counts.Planned),
	)
	return manifest
}

func applyMove(ctx context.Context, logger *slog.Logger, mover Mover, m move, dryRun bool) apply.Item {
	item := apply.Item{
		EntityID: m.entity.ID,
		Label:    m.entity.Label(),
		Action:   "move",
	}

	current, err := mover.CurrentGroup(ctx, m.entity.ID)
	if err != nil {
		item.Detail = fmt.Sprintf("%s -> %s", m.entity.Group, m.target)
		return failMove(logger, item, err)
	}
	item.Detail = fmt.Sprintf("%s -> %s", current, m.target)
	if current == m.target {
		item.Outcome = apply.OutcomeSkipped
		return item
	}
	if dryRun {
		item.Outcome = apply.OutcomePlanned
		return item
	}
	if err := mover.MoveToGroup(ctx, m.entity.ID, m.target); err != nil {
		return failMove(logger, item, err)
	}
	item.Outcome = apply.OutcomeApplied
	logger.Debug("entity moved",
		logging.EntityID(m.entity.ID),
		logging.Group(m.target),
	)
	return item
}

func failMove(logger *slog.Logger, item apply.Item, err error) apply.Item {
	item.Outcome = apply.OutcomeFailed
	item.Err = err
	logging.WarnWithContext(logger, "group move failed", "regroup_move_failed",
		logging.EntityID(item.EntityID),
		logging.String("move", item.Detail),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "rerun regroup after resolving the error"),
		logging.String(logging.FieldImpact, "entity stays in its current group"),
	)
	return item
}
