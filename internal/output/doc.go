// Package output formats consolidated reviews for display or machine
// consumption.
//
// Four formats are supported:
//   - text     — human-readable terminal output (default)
//   - markdown — PR-comment-friendly with collapsible sections per severity
//   - json     — full structured consolidated review
//   - comments — only the line-anchored comment array for downstream tooling
//
// Use [GetWriter] to obtain a [Writer] for a given format string, then call
// [Writer.Write] with an [io.Writer] and a [*Report]. [WriteReport] handles
// destination selection between a file path and stdout.
package output
