package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"sieve/internal/apply"
	"sieve/internal/asset"
	"sieve/internal/contentdb"
	"sieve/internal/dedup"
	"sieve/internal/logging"
	"sieve/internal/ownership"
	"sieve/internal/policy"
	"sieve/internal/progress"
	"sieve/internal/ttlcache"
)

// Store is the content database surface the analyses read and write.
type Store interface {
	FindEntities(ctx context.Context, kinds ...asset.Kind) ([]asset.Entity, error)
	Anchors(ctx context.Context) ([]asset.Entity, error)
	Dependencies(ctx context.Context, e asset.Entity) ([]asset.Entity, error)
	GroupMembers(ctx context.Context, group asset.GroupID) ([]asset.Entity, error)
	CurrentGroup(ctx context.Context, id asset.ID) (asset.GroupID, error)
	MoveToGroup(ctx context.Context, id asset.ID, group asset.GroupID) error
	LoadContent(ctx context.Context, e asset.Entity) ([]byte, error)
	RetargetReferences(ctx context.Context, from, to asset.ID) (int, error)
	DeleteEntity(ctx context.Context, id asset.ID) error
	SetAttributes(ctx context.Context, id asset.ID, attrs asset.Attributes) error
	RecordApply(ctx context.Context, records []contentdb.ApplyRecord) error
}

// Facade runs named analyses behind a TTL cache.
//
// Every invalidation bumps a generation counter under cacheMu. A computation
// only stores its result when the generation it started under is still
// current, so a result read while an apply was writing never reaches the
// cache.
type Facade struct {
	db       Store
	settings Settings
	cache    *ttlcache.Cache
	flight   singleflight.Group
	writeMu  sync.Mutex
	lock     *apply.Lock
	logger   *slog.Logger
	progress progress.Reporter

	cacheMu    sync.Mutex
	generation uint64
}

// Option customizes a Facade.
type Option func(*facadeOptions)

type facadeOptions struct {
	now      func() time.Time
	logger   *slog.Logger
	progress progress.Reporter
	lock     *apply.Lock
}

// WithClock replaces the wall clock used for cache expiry.
func WithClock(now func() time.Time) Option {
	return func(o *facadeOptions) { o.now = now }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *facadeOptions) { o.logger = logger }
}

// WithProgress sets the reporter used by long-running analyses and applies.
func WithProgress(r progress.Reporter) Option {
	return func(o *facadeOptions) { o.progress = r }
}

// WithLock guards apply operations with a cross-process lock.
func WithLock(lock *apply.Lock) Option {
	return func(o *facadeOptions) { o.lock = lock }
}

// New constructs a Facade over db.
func New(db Store, settings Settings, opts ...Option) *Facade {
	var o facadeOptions
	for _, opt := range opts {
		opt(&o)
	}
	var cacheOpts []ttlcache.Option
	if o.now != nil {
		cacheOpts = append(cacheOpts, ttlcache.WithClock(o.now))
	}
	return &Facade{
		db:       db,
		settings: settings,
		cache:    ttlcache.New(cacheOpts...),
		lock:     o.lock,
		logger:   logging.NewComponentLogger(o.logger, "analysis"),
		progress: progress.OrNop(o.progress),
	}
}

// Settings returns the facade's settings.
func (f *Facade) Settings() Settings {
	return f.settings
}

// Get returns the named analysis. Without forceRefresh a valid cached value
// is returned as is; otherwise the analysis is recomputed and cached.
// Results cut short by cancellation are returned but not cached.
func (f *Facade) Get(ctx context.Context, name string, forceRefresh bool) (any, error) {
	if err := CheckName(name); err != nil {
		return nil, err
	}
	if !forceRefresh {
		if value, ok := f.cache.Lookup(name); ok {
			f.logger.Debug("analysis cache hit", logging.Analysis(name))
			return value, nil
		}
	}

	gen := f.currentGeneration()
	key := name + "@" + strconv.FormatUint(gen, 10)
	value, err, shared := f.flight.Do(key, func() (any, error) {
		return f.refresh(ctx, name, gen)
	})
	if shared && ctx.Err() == nil && (isPartial(value) || isCancellation(err)) {
		// The run was cut short by another caller's cancellation.
		return f.refresh(ctx, name, gen)
	}
	return value, err
}

func (f *Facade) currentGeneration() uint64 {
	f.cacheMu.Lock()
	defer f.cacheMu.Unlock()
	return f.generation
}

// store caches value unless the cache was invalidated since gen was read.
func (f *Facade) store(name string, value any, ttl time.Duration, gen uint64) bool {
	f.cacheMu.Lock()
	defer f.cacheMu.Unlock()
	if f.generation != gen {
		return false
	}
	f.cache.Set(name, value, ttl)
	return true
}

func isPartial(value any) bool {
	switch v := value.(type) {
	case *ownership.Classification:
		return v.Partial
	case *dedup.Report:
		return v.Partial
	case *policy.AtlasCoverage:
		return v.Partial
	}
	return false
}

func isCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func (f *Facade) refresh(ctx context.Context, name string, gen uint64) (any, error) {
	ctx = logging.WithAnalysis(ctx, name)
	logger := logging.WithContext(ctx, f.logger)

	started := time.Now()
	value, partial, err := f.compute(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("compute %s: %w", name, err)
	}
	if partial {
		logger.Info("analysis cancelled, result not cached", logging.Duration("elapsed", time.Since(started)))
		return value, nil
	}

	ttl := f.settings.TTLFor(name)
	if !f.store(name, value, ttl, gen) {
		logger.Info("content changed during analysis, result not cached",
			logging.Duration("elapsed", time.Since(started)))
		return value, nil
	}
	logger.Info("analysis computed",
		logging.Duration("elapsed", time.Since(started)),
		logging.Duration("ttl", ttl),
	)
	return value, nil
}

func (f *Facade) compute(ctx context.Context, name string) (any, bool, error) {
	switch name {
	case Ownership:
		anchors, err := f.db.Anchors(ctx)
		if err != nil {
			return nil, false, err
		}
		asset.SortAnchors(anchors)
		classifier := ownership.NewClassifier(f.db,
			ownership.WithGroupPrefix(f.groupPrefix()),
			ownership.WithLogger(f.logger),
			ownership.WithProgress(f.progress),
		)
		result, err := classifier.Classify(ctx, anchors)
		if err != nil {
			return nil, false, err
		}
		return result, result.Partial, nil

	case AudioDuplicates:
		clips, err := f.db.FindEntities(ctx, asset.KindAudio)
		if err != nil {
			return nil, false, err
		}
		detector := dedup.NewDetector(f.db, f.settings.Dedup,
			dedup.WithLogger(f.logger),
			dedup.WithProgress(f.progress),
		)
		report, err := detector.FindDuplicates(ctx, clips)
		if err != nil {
			return nil, false, err
		}
		return report, report.Partial, nil

	case TexturesNotInAtlas:
		textures, err := f.db.FindEntities(ctx, asset.KindTexture)
		if err != nil {
			return nil, false, err
		}
		atlases, err := f.db.FindEntities(ctx, asset.KindAtlas)
		if err != nil {
			return nil, false, err
		}
		coverage, err := policy.TexturesNotInAtlas(ctx, textures, atlases, f.db)
		if err != nil {
			return nil, false, err
		}
		return coverage, coverage.Partial, nil

	case AudioWrongCompression:
		clips, err := f.db.FindEntities(ctx, asset.KindAudio)
		if err != nil {
			return nil, false, err
		}
		return policy.AudioWrongCompression(clips, f.settings.Audio), false, nil

	case OversizedTextures:
		textures, err := f.db.FindEntities(ctx, asset.KindTexture)
		if err != nil {
			return nil, false, err
		}
		return policy.OversizedTextures(textures, f.settings.MaxTextureSize), false, nil
	}
	return nil, false, fmt.Errorf("%w %q", ErrUnknownAnalysis, name)
}

func (f *Facade) groupPrefix() string {
	if f.settings.GroupPrefix == "" {
		return asset.DefaultGroupPrefix
	}
	return f.settings.GroupPrefix
}

func getAs[T any](ctx context.Context, f *Facade, name string, forceRefresh bool) (T, error) {
	var zero T
	value, err := f.Get(ctx, name, forceRefresh)
	if err != nil {
		return zero, err
	}
	typed, ok := value.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %s holds %T", ttlcache.ErrTypeMismatch, name, value)
	}
	return typed, nil
}

// OwnershipClassification returns the ownership analysis.
func (f *Facade) OwnershipClassification(ctx context.Context, forceRefresh bool) (*ownership.Classification, error) {
	return getAs[*ownership.Classification](ctx, f, Ownership, forceRefresh)
}

// Duplicates returns the audio duplicate analysis.
func (f *Facade) Duplicates(ctx context.Context, forceRefresh bool) (*dedup.Report, error) {
	return getAs[*dedup.Report](ctx, f, AudioDuplicates, forceRefresh)
}

// LooseTextures returns the sprites no atlas packs.
func (f *Facade) LooseTextures(ctx context.Context, forceRefresh bool) (*policy.AtlasCoverage, error) {
	return getAs[*policy.AtlasCoverage](ctx, f, TexturesNotInAtlas, forceRefresh)
}

// AudioFindings returns the audio compression findings.
func (f *Facade) AudioFindings(ctx context.Context, forceRefresh bool) ([]policy.Finding, error) {
	return getAs[[]policy.Finding](ctx, f, AudioWrongCompression, forceRefresh)
}

// OversizedFindings returns the oversized texture findings.
func (f *Facade) OversizedFindings(ctx context.Context, forceRefresh bool) ([]policy.Finding, error) {
	return getAs[[]policy.Finding](ctx, f, OversizedTextures, forceRefresh)
}

// Peek returns the cached value for name without computing.
func (f *Facade) Peek(name string) (any, bool) {
	return f.cache.Lookup(name)
}

// ExpiresAt reports when the cached value for name expires.
func (f *Facade) ExpiresAt(name string) (time.Time, bool) {
	return f.cache.ExpiresAt(name)
}

// Cached returns the names with a valid cached value.
func (f *Facade) Cached() []string {
	return f.cache.Keys()
}

// ClearCache drops every cached analysis. Computations already running
// will not cache their results.
func (f *Facade) ClearCache() {
	f.cacheMu.Lock()
	defer f.cacheMu.Unlock()
	f.generation++
	f.cache.Clear()
}

// Invalidate drops the cached values for names. Computations already
// running will not cache their results.
func (f *Facade) Invalidate(names ...string) {
	f.cacheMu.Lock()
	defer f.cacheMu.Unlock()
	f.generation++
	for _, name := range names {
		f.cache.Remove(name)
	}
}
