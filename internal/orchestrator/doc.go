// Package orchestrator fans a review payload out to the enabled specialized
// agents, collects whatever subset of them succeeds, and drives the full
// review cycle through consolidation and comment rendering.
//
// The cycle is modeled as a forward-only state machine; failures push it
// into a degraded state from which it still runs to completion with partial
// results. The only hard failures are configuration problems surfaced before
// any backend call.
package orchestrator
