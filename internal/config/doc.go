// Package config loads, normalizes, and validates Folio configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and applies FOLIO_* environment overrides on
// top of file values. The Config type centralizes every knob the CLI and the
// viewer API need, so the library database, cover thumbnails, bundled comics
// and access-token secret are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
