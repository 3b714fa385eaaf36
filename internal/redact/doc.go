// Package redact removes secrets from review payloads before they are sent
// to any completion backend.
//
// Detection uses regex heuristics covering common secret shapes: API keys,
// JWTs, private keys, AWS access key IDs and secret access keys, bearer
// tokens, and provider-specific tokens (Anthropic, OpenAI, GitHub, Slack).
// Redaction preserves line numbers so findings stay anchored.
package redact
