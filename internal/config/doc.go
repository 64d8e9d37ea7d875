// Package config loads, normalizes, and validates mcexport configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// MCEXPORT_BLENDER. The Config type centralizes every knob the daemon and CLI
// need, so the watched input directory, job output directory, Blender binary
// and add-on archive are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
