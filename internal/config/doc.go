// Package config loads, normalizes, and validates the TOML configuration
// file. Defaults live in Default; Load layers the file on top, expands paths,
// and enforces the encoder parameter sets so later stages can trust the
// values they receive.
package config
