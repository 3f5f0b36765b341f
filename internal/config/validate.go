package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateCache(); err != nil {
		return err
	}
	if err := c.validateOwnership(); err != nil {
		return err
	}
	if err := c.validateDedup(); err != nil {
		return err
	}
	if err := c.validatePolicy(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateCache() error {
	if c.Cache.TTLSeconds < 0 {
		return errors.New("cache.ttl_seconds must be zero or positive")
	}
	names := make([]string, 0, len(c.Cache.AnalysisTTLSeconds))
	for name := range c.Cache.AnalysisTTLSeconds {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if c.Cache.AnalysisTTLSeconds[name] < 0 {
			return fmt.Errorf("cache.analysis_ttl_seconds.%s must be zero or positive", name)
		}
	}
	return nil
}

func (c *Config) validateOwnership() error {
	if c.Ownership.GroupPrefix == "" {
		return errors.New("ownership.group_prefix must be set")
	}
	if strings.HasPrefix(c.Ownership.CatchAllGroup, c.Ownership.GroupPrefix) {
		return fmt.Errorf("ownership.catch_all_group %q must not use the anchor group prefix %q",
			c.Ownership.CatchAllGroup, c.Ownership.GroupPrefix)
	}
	return nil
}

func (c *Config) validateDedup() error {
	if c.Dedup.Epsilon <= 0 {
		return errors.New("dedup.epsilon must be positive")
	}
	if len(c.Dedup.MetadataFields) == 0 {
		return errors.New("dedup.metadata_fields must list at least one field")
	}
	if c.Dedup.BucketWarnThreshold < 2 {
		return errors.New("dedup.bucket_warn_threshold must be at least 2")
	}
	return nil
}

func (c *Config) validatePolicy() error {
	if c.Policy.ShortClipSeconds < 0 {
		return errors.New("policy.short_clip_seconds must be zero or positive")
	}
	if c.Policy.LongClipSeconds <= c.Policy.ShortClipSeconds {
		return errors.New("policy.long_clip_seconds must be greater than policy.short_clip_seconds")
	}
	if c.Policy.MaxTextureSize <= 0 {
		return errors.New("policy.max_texture_size must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
