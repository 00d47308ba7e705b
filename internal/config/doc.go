// Package config loads roadsnap settings.
//
// Sources, later overriding earlier:
//  1. Built-in defaults
//  2. YAML file (--config)
//  3. Environment variables with the ROADSNAP_ prefix
//  4. Command-line flags, passed in as overrides
//
// Environment names map to keys by lowercasing and replacing the first
// underscore after the prefix with a dot: ROADSNAP_SNAP_MIN_LENGTH sets
// snap.min_length.
//
// The decoded Config is checked against an embedded CUE schema before use.
package config
