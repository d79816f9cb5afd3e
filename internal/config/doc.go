/*
Package config loads and validates hivefs runtime configuration.

Configuration comes from three layers applied in order: built-in
defaults, an optional YAML file, and HIVEFS_* environment variables.
The effective cached-I/O-unit limit is either the configured override
or a value derived from system memory, clamped to a sane range.
*/
package config
