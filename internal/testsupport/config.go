package testsupport

import (
	"path/filepath"
	"testing"

	"sieve/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp paths per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.ContentDB = filepath.Join(base, "content.db")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.LockPath = filepath.Join(base, "apply.lock")
	cfgVal.Dedup.LoadConcurrency = 2

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}
	for _, opt := range opts {
		opt(builder)
	}
	return builder.cfg
}

// WithTTLSeconds overrides the default analysis TTL.
func WithTTLSeconds(seconds int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Cache.TTLSeconds = seconds
	}
}

// WithCatchAllGroup overrides the orphan catch-all group.
func WithCatchAllGroup(group string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Ownership.CatchAllGroup = group
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.ContentDB)
}
