package dedup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/sync/errgroup"

	"sieve/internal/asset"
	"sieve/internal/logging"
	"sieve/internal/progress"
)

// ErrContentRead marks an entity whose content could not be loaded or decoded.
var ErrContentRead = errors.New("content read failed")

// Defaults used when Settings leaves a field unset.
const (
	DefaultEpsilon             = 1e-4
	DefaultBucketWarnThreshold = 64
	DefaultLoadConcurrency     = 4
)

// DefaultMetadataFields are the attributes that must match before content is compared.
var DefaultMetadataFields = []string{asset.AttrSampleCount, asset.AttrChannels, asset.AttrSampleRate}

// Settings tunes duplicate detection.
type Settings struct {
	Epsilon             float64
	MetadataFields      []string
	BucketWarnThreshold int
	LoadConcurrency     int
}

func (s Settings) withDefaults() Settings {
	if s.Epsilon <= 0 {
		s.Epsilon = DefaultEpsilon
	}
	if len(s.MetadataFields) == 0 {
		s.MetadataFields = DefaultMetadataFields
	}
	if s.BucketWarnThreshold <= 0 {
		s.BucketWarnThreshold = DefaultBucketWarnThreshold
	}
	if s.LoadConcurrency <= 0 {
		s.LoadConcurrency = DefaultLoadConcurrency
	}
	return s
}

// Loader supplies raw entity content.
type Loader interface {
	LoadContent(ctx context.Context, e asset.Entity) ([]byte, error)
}

// DuplicateGroup is one equivalence class of content-equal entities.
type DuplicateGroup struct {
	Keeper    asset.Entity
	Removable []asset.Entity

	keeperIndex int
}

// Members returns the keeper followed by the removables.
func (g DuplicateGroup) Members() []asset.Entity {
	out := make([]asset.Entity, 0, len(g.Removable)+1)
	out = append(out, g.Keeper)
	return append(out, g.Removable...)
}

// ReclaimableBytes sums the size of the removable entities.
func (g DuplicateGroup) ReclaimableBytes() int64 {
	var total int64
	for _, e := range g.Removable {
		total += e.SizeBytes
	}
	return total
}

// ReadFailure records an entity excluded from comparison.
type ReadFailure struct {
	Entity asset.Entity
	Err    error
}

// BucketWarning flags a metadata bucket large enough to make pairwise
// comparison expensive.
type BucketWarning struct {
	Kind asset.Kind
	Key  string
	Size int
}

// Report is the outcome of a duplicate scan.
type Report struct {
	Groups         []DuplicateGroup
	ReadFailures   []ReadFailure
	BucketWarnings []BucketWarning
	// Compared counts content comparisons actually performed.
	Compared int
	// Partial is set when the scan was cancelled. Groups then holds the
	// buckets finished before cancellation.
	Partial bool
}

// ReclaimableBytes sums ReclaimableBytes over every group.
func (r *Report) ReclaimableBytes() int64 {
	var total int64
	for _, g := range r.Groups {
		total += g.ReclaimableBytes()
	}
	return total
}

// Detector finds duplicate groups.
type Detector struct {
	loader   Loader
	settings Settings
	logger   *slog.Logger
	progress progress.Reporter
}

// Option customizes a Detector.
type Option func(*Detector)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Detector) { d.logger = logging.NewComponentLogger(logger, "dedup") }
}

// WithProgress sets the progress reporter.
func WithProgress(r progress.Reporter) Option {
	return func(d *Detector) { d.progress = progress.OrNop(r) }
}

// NewDetector constructs a Detector.
func NewDetector(loader Loader, settings Settings, opts ...Option) *Detector {
	d := &Detector{
		loader:   loader,
		settings: settings.withDefaults(),
		logger:   logging.NewComponentLogger(nil, "dedup"),
		progress: progress.Nop,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Settings returns the effective settings.
func (d *Detector) Settings() Settings {
	return d.settings
}

type candidate struct {
	entity asset.Entity
	index  int
}

type bucket struct {
	kind    asset.Kind
	key     string
	members []candidate
}

// FindDuplicates groups content-equal entities of pool. Per-entity read
// failures are reported and never abort the scan; cancellation yields a
// partial report rather than an error.
func (d *Detector) FindDuplicates(ctx context.Context, pool []asset.Entity) (*Report, error) {
	if d.loader == nil {
		return nil, errors.New("find duplicates: loader is nil")
	}
	logger := logging.WithContext(ctx, d.logger)
	report := &Report{}

	buckets := d.bucketize(pool)
	for i, b := range buckets {
		if ctx.Err() != nil {
			report.Partial = true
			break
		}
		d.progress.Step(i, len(buckets), fmt.Sprintf("comparing %s bucket %d/%d", b.kind, i+1, len(buckets)))
		if len(b.members) > d.settings.BucketWarnThreshold {
			warning := BucketWarning{Kind: b.kind, Key: b.key, Size: len(b.members)}
			report.BucketWarnings = append(report.BucketWarnings, warning)
			logging.WarnWithContext(logger, "duplicate bucket exceeds comparison threshold", "dedup_bucket_large",
				logging.String("kind", string(b.kind)),
				logging.String("bucket", b.key),
				logging.Int("size", warning.Size),
				logging.Int("threshold", d.settings.BucketWarnThreshold),
				logging.String(logging.FieldErrorHint, "add metadata fields to narrow buckets"),
				logging.String(logging.FieldImpact, "comparison cost grows quadratically with bucket size"),
			)
		}

		groups, compared, ok := d.scanBucket(ctx, logger, b, report)
		report.Compared += compared
		if !ok {
			report.Partial = true
			break
		}
		report.Groups = append(report.Groups, groups...)
	}
	if !report.Partial {
		d.progress.Step(len(buckets), len(buckets), "duplicate scan complete")
	}

	sort.SliceStable(report.Groups, func(i, j int) bool {
		return report.Groups[i].keeperIndex < report.Groups[j].keeperIndex
	})

	logger.Info("duplicate scan complete",
		logging.Int("pool", len(pool)),
		logging.Int("buckets", len(buckets)),
		logging.Int("groups", len(report.Groups)),
		logging.Int("compared", report.Compared),
		logging.Int("read_failures", len(report.ReadFailures)),
		logging.Bool("partial", report.Partial),
	)
	return report, nil
}

// bucketize groups the pool by kind and metadata. Entities missing any
// metadata field and buckets with a single member are dropped. Buckets are
// ordered by their first member's pool position. An ID listed twice keeps
// its first position; an entity is never its own duplicate.
func (d *Detector) bucketize(pool []asset.Entity) []*bucket {
	byKey := make(map[string]*bucket)
	seen := make(map[asset.ID]struct{}, len(pool))
	var ordered []*bucket
	for i, e := range pool {
		if _, dup := seen[e.ID]; dup {
			continue
		}
		seen[e.ID] = struct{}{}
		key, ok := metadataKey(e, d.settings.MetadataFields)
		if !ok {
			continue
		}
		full := string(e.Kind) + "|" + key
		b, exists := byKey[full]
		if !exists {
			b = &bucket{kind: e.Kind, key: key}
			byKey[full] = b
			ordered = append(ordered, b)
		}
		b.members = append(b.members, candidate{entity: e, index: i})
	}

	out := ordered[:0]
	for _, b := range ordered {
		if len(b.members) > 1 {
			out = append(out, b)
		}
	}
	return out
}

func metadataKey(e asset.Entity, fields []string) (string, bool) {
	parts := make([]string, len(fields))
	for i, field := range fields {
		value, ok := e.Attributes.String(field)
		if !ok || value == "" {
			return "", false
		}
		parts[i] = field + "=" + value
	}
	return strings.Join(parts, ","), true
}

type loaded struct {
	raw     []byte
	sum     uint64
	samples []float32
	err     error
}

// scanBucket loads and compares one bucket. It returns false when the
// bucket was abandoned because ctx was cancelled.
func (d *Detector) scanBucket(ctx context.Context, logger *slog.Logger, b *bucket, report *Report) ([]DuplicateGroup, int, bool) {
	contents := make([]loaded, len(b.members))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.settings.LoadConcurrency)
	for i, m := range b.members {
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			contents[i] = load(gctx, d.loader, m.entity)
			return nil
		})
	}
	if err := g.Wait(); err != nil || ctx.Err() != nil {
		return nil, 0, false
	}

	var usable []int
	for i, c := range contents {
		if c.err != nil {
			m := b.members[i].entity
			report.ReadFailures = append(report.ReadFailures, ReadFailure{Entity: m, Err: c.err})
			logging.WarnWithContext(logger, "content unreadable", "dedup_content_read_failed",
				logging.EntityID(m.ID),
				logging.Error(c.err),
				logging.String(logging.FieldErrorHint, "reimport the entity content"),
				logging.String(logging.FieldImpact, "entity excluded from duplicate detection"),
			)
			continue
		}
		usable = append(usable, i)
	}

	sets := newUnionFind(len(b.members))
	compared := 0
	for x := 0; x < len(usable); x++ {
		for y := x + 1; y < len(usable); y++ {
			if ctx.Err() != nil {
				return nil, compared, false
			}
			i, j := usable[x], usable[y]
			if sets.find(i) == sets.find(j) {
				continue
			}
			compared++
			if contentEqual(contents[i], contents[j], d.settings.Epsilon) {
				sets.union(i, j)
			}
		}
	}

	return collectGroups(b, usable, sets), compared, true
}

func load(ctx context.Context, loader Loader, e asset.Entity) loaded {
	raw, err := loader.LoadContent(ctx, e)
	if err != nil {
		return loaded{err: fmt.Errorf("%w: %s: %w", ErrContentRead, e.ID, err)}
	}
	samples, err := asset.DecodeSamples(raw)
	if err != nil {
		return loaded{err: fmt.Errorf("%w: %s: %w", ErrContentRead, e.ID, err)}
	}
	return loaded{raw: raw, sum: xxhash.Sum64(raw), samples: samples}
}

// collectGroups turns union-find sets into groups. usable is in pool order,
// so the first member seen for a root is the keeper.
func collectGroups(b *bucket, usable []int, sets *unionFind) []DuplicateGroup {
	byRoot := make(map[int]int)
	var groups []DuplicateGroup
	for _, i := range usable {
		root := sets.find(i)
		m := b.members[i]
		pos, ok := byRoot[root]
		if !ok {
			byRoot[root] = len(groups)
			groups = append(groups, DuplicateGroup{Keeper: m.entity, keeperIndex: m.index})
			continue
		}
		groups[pos].Removable = append(groups[pos].Removable, m.entity)
	}

	out := groups[:0]
	for _, g := range groups {
		if len(g.Removable) > 0 {
			out = append(out, g)
		}
	}
	return out
}
