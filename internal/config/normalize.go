package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	c.applyEnvOverrides()
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeOwnership()
	c.normalizeDedup()
	c.normalizeLogging()
	return nil
}

func (c *Config) applyEnvOverrides() {
	if value, ok := os.LookupEnv("SIEVE_CONTENT_DB"); ok && strings.TrimSpace(value) != "" {
		c.Paths.ContentDB = strings.TrimSpace(value)
	}
	if value, ok := os.LookupEnv("SIEVE_LOG_LEVEL"); ok && strings.TrimSpace(value) != "" {
		c.Logging.Level = strings.TrimSpace(value)
	}
}

func (c *Config) normalizePaths() error {
	if strings.TrimSpace(c.Paths.ContentDB) == "" {
		c.Paths.ContentDB = defaultContentDB
	}
	if strings.TrimSpace(c.Paths.LockPath) == "" {
		c.Paths.LockPath = defaultLockPath
	}
	var err error
	if c.Paths.ContentDB, err = ExpandPath(c.Paths.ContentDB); err != nil {
		return fmt.Errorf("paths.content_db: %w", err)
	}
	if c.Paths.LogDir, err = ExpandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if c.Paths.LockPath, err = ExpandPath(c.Paths.LockPath); err != nil {
		return fmt.Errorf("paths.lock_path: %w", err)
	}
	return nil
}

func (c *Config) normalizeOwnership() {
	c.Ownership.GroupPrefix = strings.TrimSpace(c.Ownership.GroupPrefix)
	c.Ownership.CatchAllGroup = strings.TrimSpace(c.Ownership.CatchAllGroup)
	if c.Ownership.CatchAllGroup == "" {
		c.Ownership.CatchAllGroup = defaultCatchAllGroup
	}
}

func (c *Config) normalizeDedup() {
	fields := make([]string, 0, len(c.Dedup.MetadataFields))
	seen := make(map[string]struct{}, len(c.Dedup.MetadataFields))
	for _, field := range c.Dedup.MetadataFields {
		field = strings.ToLower(strings.TrimSpace(field))
		if field == "" {
			continue
		}
		if _, ok := seen[field]; ok {
			continue
		}
		seen[field] = struct{}{}
		fields = append(fields, field)
	}
	c.Dedup.MetadataFields = fields
	if c.Dedup.LoadConcurrency <= 0 {
		c.Dedup.LoadConcurrency = 1
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
