// Package diffutil extracts ground-truth facts from unified diff text.
package diffutil

import (
	"regexp"
	"strings"
)

var (
	gitHeaderPattern  = regexp.MustCompile(`(?m)^diff --git a/.+? b/(.+)$`)
	newFilePattern    = regexp.MustCompile(`(?m)^\+\+\+ b/(.+)$`)
	hunkHeaderPattern = regexp.MustCompile(`(?m)^@@ -\d+(?:,\d+)? \+(\d+)(?:,\d+)? @@`)
)

// Paths returns the post-image file paths named by a unified diff, in
// first-seen order with duplicates dropped. Both the git header line and the
// +++ line are consulted so truncated diffs still yield paths. Returns nil
// when the text contains no diff headers.
func Paths(diff string) []string {
	var out []string
	seen := make(map[string]bool)

	add := func(p string) {
		p = strings.TrimSpace(p)
		if p == "" || p == "/dev/null" || seen[p] {
			return
		}
		seen[p] = true
		out = append(out, p)
	}

	for _, m := range gitHeaderPattern.FindAllStringSubmatch(diff, -1) {
		add(m[1])
	}
	for _, m := range newFilePattern.FindAllStringSubmatch(diff, -1) {
		add(m[1])
	}
	return out
}

// IsDiff reports whether the text looks like a unified diff rather than
// plain source code.
func IsDiff(text string) bool {
	return gitHeaderPattern.MatchString(text) ||
		newFilePattern.MatchString(text) ||
		hunkHeaderPattern.MatchString(text)
}
