// Package config loads the quorum configuration by merging defaults, the
// YAML config file, environment variables, and CLI flag overrides, in that
// order of increasing precedence.
package config
