// Package backend provides the text-generation clients used by the review
// agents.
//
// Two implementations share the Client contract: Local talks to an
// unauthenticated Ollama-style server, and Azure talks to a hosted deployment
// using a bearer token obtained through an OAuth2 client-credentials
// exchange, refreshing the token once on a 401 before failing the request.
//
// The Registry hands out one shared Client per (consumer, kind, temperature)
// key so repeated agent invocations amortize connection and credential setup.
package backend
