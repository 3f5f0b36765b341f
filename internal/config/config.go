package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains file locations used by the CLI.
type Paths struct {
	ContentDB string `toml:"content_db"`
	LogDir    string `toml:"log_dir"`
	LockPath  string `toml:"lock_path"`
}

// Cache contains analysis result lifetimes.
type Cache struct {
	TTLSeconds int `toml:"ttl_seconds"`
	// AnalysisTTLSeconds overrides TTLSeconds for individual analyses, keyed by analysis name.
	AnalysisTTLSeconds map[string]int `toml:"analysis_ttl_seconds"`
}

// Ownership contains group naming used by classification and regrouping.
type Ownership struct {
	GroupPrefix   string `toml:"group_prefix"`
	CatchAllGroup string `toml:"catch_all_group"`
}

// Dedup contains duplicate audio detection tolerances.
type Dedup struct {
	Epsilon             float64  `toml:"epsilon"`
	MetadataFields      []string `toml:"metadata_fields"`
	BucketWarnThreshold int      `toml:"bucket_warn_threshold"`
	LoadConcurrency     int      `toml:"load_concurrency"`
}

// Policy contains thresholds for the per-asset policy checks.
type Policy struct {
	ShortClipSeconds float64 `toml:"short_clip_seconds"`
	LongClipSeconds  float64 `toml:"long_clip_seconds"`
	MaxTextureSize   int     `toml:"max_texture_size"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for sieve.
//
// Configuration sections by subsystem:
//   - Paths: content database, logs, and the apply lock file
//   - Cache: default and per-analysis result lifetimes
//   - Ownership: canonical group prefix and the orphan catch-all group
//   - Dedup: metadata bucketing and sample tolerance
//   - Policy: audio load type and texture size thresholds
//   - Logging: log format and level
type Config struct {
	Paths     Paths     `toml:"paths"`
	Cache     Cache     `toml:"cache"`
	Ownership Ownership `toml:"ownership"`
	Dedup     Dedup     `toml:"dedup"`
	Policy    Policy    `toml:"policy"`
	Logging   Logging   `toml:"logging"`
}

// ProjectConfigName is looked up in the working directory when no user
// config exists.
const ProjectConfigName = "sieve.toml"

// ErrConfigExists is returned by WriteSample when the target is present and
// overwriting was not requested.
var ErrConfigExists = errors.New("config file already exists")

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return ExpandPath("~/.config/sieve/config.toml")
}

// Load reads the configuration at path, or the first existing default
// location when path is empty. A missing file yields defaults; exists reports
// whether a file was read. Paths in the result are absolute.
func Load(path string) (cfg *Config, resolved string, exists bool, err error) {
	resolved, exists, err = locate(path)
	if err != nil {
		return nil, "", false, err
	}

	loaded := Default()
	if exists {
		if err := decodeFile(resolved, &loaded); err != nil {
			return nil, "", false, err
		}
	}
	if err := loaded.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := loaded.Validate(); err != nil {
		return nil, "", false, err
	}
	return &loaded, resolved, exists, nil
}

func decodeFile(path string, into *Config) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	dec := toml.NewDecoder(f)
	dec.DisallowUnknownFields()
	if err := dec.Decode(into); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// locate resolves an explicit path as-is. Without one it tries the user
// config, then ProjectConfigName in the working directory, and falls back to
// the user config path when neither exists.
func locate(path string) (string, bool, error) {
	var candidates []string
	if path != "" {
		candidates = []string{path}
	} else {
		candidates = []string{"~/.config/sieve/config.toml", ProjectConfigName}
	}

	var first string
	for _, c := range candidates {
		abs, err := ExpandPath(c)
		if err != nil {
			return "", false, err
		}
		if first == "" {
			first = abs
		}
		info, err := os.Stat(abs)
		switch {
		case err == nil && !info.IsDir():
			return abs, true, nil
		case err == nil, errors.Is(err, fs.ErrNotExist):
			continue
		case path != "":
			return "", false, fmt.Errorf("stat config: %w", err)
		}
	}
	return first, false, nil
}

// EnsureDirectories creates the parent directories of every configured path.
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		filepath.Dir(c.Paths.ContentDB),
		c.Paths.LogDir,
		filepath.Dir(c.Paths.LockPath),
	}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" || dir == "." {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// TTL returns the cache lifetime for the named analysis.
func (c *Config) TTL(analysis string) time.Duration {
	if seconds, ok := c.Cache.AnalysisTTLSeconds[analysis]; ok {
		return time.Duration(seconds) * time.Second
	}
	return time.Duration(c.Cache.TTLSeconds) * time.Second
}

// ExpandPath resolves a leading "~" to the home directory and returns an
// absolute, cleaned path. The empty string is returned unchanged.
func ExpandPath(p string) (string, error) {
	if p == "" {
		return "", nil
	}
	if p == "~" || strings.HasPrefix(p, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		p = filepath.Join(home, strings.TrimPrefix(p[1:], "/"))
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", p, err)
	}
	return abs, nil
}

// WriteSample writes the annotated sample configuration to path, creating
// parent directories. It refuses to replace an existing file unless
// overwrite is set.
func WriteSample(path string, overwrite bool) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if !overwrite {
		flags |= os.O_EXCL
	}
	f, err := os.OpenFile(path, flags, 0o644)
	if errors.Is(err, fs.ErrExist) {
		return fmt.Errorf("%w: %s", ErrConfigExists, path)
	}
	if err != nil {
		return fmt.Errorf("open sample config: %w", err)
	}
	if _, err := f.WriteString(sampleConfig); err != nil {
		f.Close()
		return fmt.Errorf("write sample config: %w", err)
	}
	return f.Close()
}
