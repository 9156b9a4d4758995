// Package config loads, normalizes, and validates mediasort configuration.
//
// Configuration is read from a TOML file (~/.config/mediasort/config.toml by
// default, or mediasort.toml in the working directory). Load applies defaults
// first, then file values, then normalizes paths and extension lists before
// validating. Path-safety checks (source exists, source and destination do
// not coincide or nest) run here so a misconfigured run aborts before any
// file is touched.
package config
