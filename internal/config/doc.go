// Package config loads, normalizes, and validates minepost configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// MINEPOST_INPUT. The Config type centralizes every threshold the filter and
// deduplication passes need together with output, history, and logging
// locations.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical enum values, and clear validation errors.
package config
