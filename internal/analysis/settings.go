package analysis

import (
	"time"

	"sieve/internal/asset"
	"sieve/internal/config"
	"sieve/internal/dedup"
	"sieve/internal/policy"
)

// DefaultTTL is the cache lifetime when settings leave it unset.
const DefaultTTL = 5 * time.Minute

// Settings is the immutable policy passed to a Facade.
type Settings struct {
	TTL          time.Duration
	TTLOverrides map[string]time.Duration

	GroupPrefix   string
	CatchAllGroup asset.GroupID

	Dedup          dedup.Settings
	Audio          policy.AudioRules
	MaxTextureSize int64
}

// DefaultSettings mirrors the configuration defaults.
func DefaultSettings() Settings {
	return SettingsFromConfig(nil)
}

// SettingsFromConfig builds Settings from a loaded configuration. A nil cfg
// yields the defaults.
func SettingsFromConfig(cfg *config.Config) Settings {
	if cfg == nil {
		defaults := config.Default()
		cfg = &defaults
	}
	overrides := make(map[string]time.Duration, len(cfg.Cache.AnalysisTTLSeconds))
	for name := range cfg.Cache.AnalysisTTLSeconds {
		overrides[name] = cfg.TTL(name)
	}
	return Settings{
		TTL:           time.Duration(cfg.Cache.TTLSeconds) * time.Second,
		TTLOverrides:  overrides,
		GroupPrefix:   cfg.Ownership.GroupPrefix,
		CatchAllGroup: asset.GroupID(cfg.Ownership.CatchAllGroup),
		Dedup: dedup.Settings{
			Epsilon:             cfg.Dedup.Epsilon,
			MetadataFields:      append([]string(nil), cfg.Dedup.MetadataFields...),
			BucketWarnThreshold: cfg.Dedup.BucketWarnThreshold,
			LoadConcurrency:     cfg.Dedup.LoadConcurrency,
		},
		Audio: policy.AudioRules{
			ShortClipSeconds: cfg.Policy.ShortClipSeconds,
			LongClipSeconds:  cfg.Policy.LongClipSeconds,
		},
		MaxTextureSize: int64(cfg.Policy.MaxTextureSize),
	}
}

// TTLFor returns the cache lifetime for name.
func (s Settings) TTLFor(name string) time.Duration {
	if ttl, ok := s.TTLOverrides[name]; ok {
		return ttl
	}
	if s.TTL <= 0 {
		return DefaultTTL
	}
	return s.TTL
}
