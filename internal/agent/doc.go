// Package agent contains the specialized review agents and the structured
// finding model they produce.
//
// Each Category maps to a prompt profile (full-payload and diff-only
// variants) through a closed static table, so the category set is
// exhaustively checkable. Raw backend replies are parsed by an independent
// keyword-heuristic stage (parse.go) with a documented keyword table; the
// parser is deliberately decoupled from request dispatch so it can be swapped
// for a structured-output contract later.
package agent
