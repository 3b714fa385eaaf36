// Quorum is a CLI for reviewing code with a panel of specialized AI agents.
//
// It dispatches a file, diff, or stdin payload to security, performance,
// style, architecture, readability, and testability reviewers in parallel,
// consolidates their findings into one prioritized report, and emits
// line-anchored review comments with deterministic exit codes suitable for
// CI gating.
//
// Usage:
//
//	quorum review file main.go        # review a source file
//	git diff | quorum review diff     # review a unified diff from stdin
//	quorum review code < snippet.go   # review code from stdin
//	quorum agents                     # list the review agents
//	quorum backends                   # show completion backend status
//
// See https://github.com/quorumhq/quorum for full documentation.
package main
