// Package consolidate merges the structured reviews from all agents into a
// single prioritized result and renders it as line-anchored review comments.
//
// Aggregation (scores, histograms, critical subsequence, executive summary)
// is deterministic; the long-form narrative and the final comment list each
// take one more backend call. Both degrade rather than fail: the narrative
// falls back to a placeholder string, and comment generation falls back
// through an ordered chain of JSON extraction strategies before returning an
// empty list.
package consolidate
