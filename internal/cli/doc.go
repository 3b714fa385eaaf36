// Package cli wires together the Cobra command tree for the quorum binary.
//
// It defines the root command and all subcommands (review, agents, backends,
// config, version), binds flags, reads configuration, drives the review
// cycle, and returns deterministic exit codes for CI gating.
package cli
