// Package config loads, normalizes, and validates docmatch configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours the DOCMATCH_API_TOKEN environment
// fallback. Validation includes the variance policy, so an invalid tolerance
// is rejected here and never reaches the matcher.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and a validated policy.
package config
