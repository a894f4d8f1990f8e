// Package config loads, normalizes, and validates mediakit configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// MEDIAKIT_PYTHON and MEDIAKIT_YTDLP_PATH. Both command line tools read the
// same file, so the data directory holding the run history and lock files is
// shared between them.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
