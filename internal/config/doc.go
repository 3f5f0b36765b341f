// Package config loads, normalizes, and validates sieve configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment overrides such as
// SIEVE_CONTENT_DB. The Config type centralizes the cache lifetimes, ownership
// group naming, duplicate detection tolerances, and asset policy thresholds
// that the analyses consume.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
