package ownership

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"sieve/internal/asset"
	"sieve/internal/depgraph"
	"sieve/internal/logging"
	"sieve/internal/progress"
)

// Graph is the slice of the content database classification reads.
type Graph interface {
	Dependencies(ctx context.Context, e asset.Entity) ([]asset.Entity, error)
	GroupMembers(ctx context.Context, group asset.GroupID) ([]asset.Entity, error)
}

// AnchorResult is the share of dependencies one anchor owns.
type AnchorResult struct {
	Anchor   asset.Entity
	Group    asset.GroupID
	Claimed  []asset.Entity
	MisOwned []asset.Entity
}

// Failure stages.
const (
	StageDependencies = "dependencies"
	StageMembers      = "members"
)

// AnchorFailure records a host call that failed for one anchor.
type AnchorFailure struct {
	Anchor asset.Entity
	Stage  string
	Err    error
}

// Classification is the ordered result of a classification pass.
type Classification struct {
	Anchors  []AnchorResult
	Orphans  []asset.Entity
	Failures []AnchorFailure
	// Partial is set when the pass was cancelled. Anchors then holds the
	// anchors fully processed before cancellation and Orphans is empty.
	Partial bool
}

// Summary holds classification totals.
type Summary struct {
	Anchors  int
	Claimed  int
	MisOwned int
	Orphans  int
	Failures int
}

// Summary returns totals for reporting.
func (c *Classification) Summary() Summary {
	s := Summary{
		Anchors:  len(c.Anchors),
		Orphans:  len(c.Orphans),
		Failures: len(c.Failures),
	}
	for _, r := range c.Anchors {
		s.Claimed += len(r.Claimed)
		s.MisOwned += len(r.MisOwned)
	}
	return s
}

// Owner returns the anchor that claimed id.
func (c *Classification) Owner(id asset.ID) (asset.Entity, bool) {
	for _, r := range c.Anchors {
		for _, e := range r.Claimed {
			if e.ID == id {
				return r.Anchor, true
			}
		}
	}
	return asset.Entity{}, false
}

// Classifier computes classifications against a Graph.
type Classifier struct {
	graph    Graph
	prefix   string
	logger   *slog.Logger
	progress progress.Reporter
}

// Option customizes a Classifier.
type Option func(*Classifier)

// WithGroupPrefix overrides the canonical group prefix.
func WithGroupPrefix(prefix string) Option {
	return func(c *Classifier) { c.prefix = prefix }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Classifier) { c.logger = logging.NewComponentLogger(logger, "ownership") }
}

// WithProgress sets the progress reporter.
func WithProgress(r progress.Reporter) Option {
	return func(c *Classifier) { c.progress = progress.OrNop(r) }
}

// NewClassifier constructs a Classifier.
func NewClassifier(graph Graph, opts ...Option) *Classifier {
	c := &Classifier{
		graph:    graph,
		prefix:   asset.DefaultGroupPrefix,
		logger:   logging.NewComponentLogger(nil, "ownership"),
		progress: progress.Nop,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Classify assigns every dependency of anchors to the first anchor that
// reaches it and collects orphans. Host failures are recorded per anchor;
// cancellation yields a partial result rather than an error.
func (c *Classifier) Classify(ctx context.Context, anchors []asset.Entity) (*Classification, error) {
	if c.graph == nil {
		return nil, errors.New("classify: graph is nil")
	}
	logger := logging.WithContext(ctx, c.logger)
	result := &Classification{}

	anchorIDs := make(map[asset.ID]struct{}, len(anchors))
	for _, a := range anchors {
		anchorIDs[a.ID] = struct{}{}
	}

	claimed := make(map[asset.ID]struct{})
	failedGroups := make(map[asset.GroupID]struct{})
	total := len(anchors) + 1

	for i, anchor := range anchors {
		if ctx.Err() != nil {
			return c.partial(logger, result), nil
		}
		group := asset.CanonicalGroup(c.prefix, anchor)
		c.progress.Step(i, total, "classifying "+anchor.Label())

		deps, err := c.graph.Dependencies(ctx, anchor)
		if err != nil {
			if ctx.Err() != nil {
				return c.partial(logger, result), nil
			}
			result.Failures = append(result.Failures, AnchorFailure{Anchor: anchor, Stage: StageDependencies, Err: err})
			failedGroups[group] = struct{}{}
			logging.WarnWithContext(logger, "anchor dependencies unavailable", "ownership_dependencies_failed",
				logging.EntityID(anchor.ID),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check the content database for this anchor"),
				logging.String(logging.FieldImpact, "anchor claims nothing and its group is excluded from orphan detection"),
			)
			continue
		}

		entry := AnchorResult{Anchor: anchor, Group: group}
		cancelled := false
		for _, dep := range sanitize(anchor, deps) {
			if ctx.Err() != nil {
				cancelled = true
				break
			}
			if _, isAnchor := anchorIDs[dep.ID]; isAnchor {
				continue
			}
			if _, taken := claimed[dep.ID]; taken {
				continue
			}
			entry.Claimed = append(entry.Claimed, dep)
			if dep.Group != group {
				entry.MisOwned = append(entry.MisOwned, dep)
			}
		}
		if cancelled {
			return c.partial(logger, result), nil
		}

		for _, dep := range entry.Claimed {
			claimed[dep.ID] = struct{}{}
		}
		result.Anchors = append(result.Anchors, entry)
		logger.Debug("anchor classified",
			logging.EntityID(anchor.ID),
			logging.Group(group),
			logging.Int("claimed", len(entry.Claimed)),
			logging.Int("mis_owned", len(entry.MisOwned)),
		)
	}

	c.progress.Step(len(anchors), total, "collecting orphans")
	if !c.collectOrphans(ctx, logger, result, anchors, anchorIDs, claimed, failedGroups) {
		return c.partial(logger, result), nil
	}
	c.progress.Step(total, total, "classification complete")

	summary := result.Summary()
	logger.Info("classification complete",
		logging.Int("anchors", summary.Anchors),
		logging.Int("claimed", summary.Claimed),
		logging.Int("mis_owned", summary.MisOwned),
		logging.Int("orphans", summary.Orphans),
		logging.Int("failures", summary.Failures),
	)
	return result, nil
}

func (c *Classifier) collectOrphans(
	ctx context.Context,
	logger *slog.Logger,
	result *Classification,
	anchors []asset.Entity,
	anchorIDs map[asset.ID]struct{},
	claimed map[asset.ID]struct{},
	failedGroups map[asset.GroupID]struct{},
) bool {
	visitedGroups := make(map[asset.GroupID]struct{}, len(anchors))
	seen := make(map[asset.ID]struct{})
	for _, anchor := range anchors {
		if ctx.Err() != nil {
			return false
		}
		group := asset.CanonicalGroup(c.prefix, anchor)
		if _, done := visitedGroups[group]; done {
			continue
		}
		visitedGroups[group] = struct{}{}
		if _, failed := failedGroups[group]; failed {
			continue
		}

		members, err := c.graph.GroupMembers(ctx, group)
		if err != nil {
			if ctx.Err() != nil {
				return false
			}
			result.Failures = append(result.Failures, AnchorFailure{Anchor: anchor, Stage: StageMembers, Err: err})
			logging.WarnWithContext(logger, "group members unavailable", "ownership_members_failed",
				logging.Group(group),
				logging.Error(err),
				logging.String(logging.FieldImpact, "orphans in this group are not reported"),
			)
			continue
		}
		for _, member := range members {
			if _, ok := claimed[member.ID]; ok {
				continue
			}
			if _, ok := anchorIDs[member.ID]; ok {
				continue
			}
			if _, ok := seen[member.ID]; ok {
				continue
			}
			seen[member.ID] = struct{}{}
			result.Orphans = append(result.Orphans, member)
		}
	}
	return true
}

func (c *Classifier) partial(logger *slog.Logger, result *Classification) *Classification {
	result.Partial = true
	result.Orphans = nil
	logger.Info("classification cancelled",
		logging.Int("anchors_completed", len(result.Anchors)),
	)
	return result
}

func sanitize(anchor asset.Entity, deps []asset.Entity) []asset.Entity {
	byID := make(map[asset.ID]asset.Entity, len(deps))
	for _, d := range deps {
		if _, ok := byID[d.ID]; !ok {
			byID[d.ID] = d
		}
	}
	ids := depgraph.Sanitize(anchor.ID, asset.IDs(deps))
	out := make([]asset.Entity, len(ids))
	for i, id := range ids {
		out[i] = byID[id]
	}
	return out
}

// String renders a failure for reports.
func (f AnchorFailure) String() string {
	return fmt.Sprintf("%s (%s): %v", f.Anchor.Label(), f.Stage, f.Err)
}
