package config

const (
	defaultContentDB           = "~/.local/share/sieve/content.db"
	defaultLogDir              = "~/.local/share/sieve/logs"
	defaultLockPath            = "~/.local/share/sieve/apply.lock"
	defaultCacheTTLSeconds     = 300
	defaultGroupPrefix         = "Group_"
	defaultCatchAllGroup       = "Default"
	defaultDedupEpsilon        = 1e-4
	defaultBucketWarnThreshold = 64
	defaultLoadConcurrency     = 4
	defaultShortClipSeconds    = 1.0
	defaultLongClipSeconds     = 60.0
	defaultMaxTextureSize      = 2048
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
)

var defaultMetadataFields = []string{"sample_count", "channels", "sample_rate"}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			ContentDB: defaultContentDB,
			LogDir:    defaultLogDir,
			LockPath:  defaultLockPath,
		},
		Cache: Cache{
			TTLSeconds: defaultCacheTTLSeconds,
		},
		Ownership: Ownership{
			GroupPrefix:   defaultGroupPrefix,
			CatchAllGroup: defaultCatchAllGroup,
		},
		Dedup: Dedup{
			Epsilon:             defaultDedupEpsilon,
			MetadataFields:      append([]string(nil), defaultMetadataFields...),
			BucketWarnThreshold: defaultBucketWarnThreshold,
			LoadConcurrency:     defaultLoadConcurrency,
		},
		Policy: Policy{
			ShortClipSeconds: defaultShortClipSeconds,
			LongClipSeconds:  defaultLongClipSeconds,
			MaxTextureSize:   defaultMaxTextureSize,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
