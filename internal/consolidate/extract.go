package consolidate

import (
	"encoding/json"
	"regexp"
	"strings"
)

// Comment is the final externally consumed review unit: one comment per
// distinct unresolved issue, anchored to a file and optionally a line.
type Comment struct {
	FilePath      string `json:"file_path"`
	LineNumber    *int   `json:"line_number"`
	ReviewComment string `json:"review_comment"`
}

var (
	fencedBlockPattern = regexp.MustCompile("(?s)```(?:json)?\\s*\\n(.*?)\\n```")
	bracketSpanPattern = regexp.MustCompile(`(?s)\[.*?\]`)
)

// extractComments recovers a comment array from a raw backend reply by
// trying an ordered chain of strategies: direct JSON parse, fenced code
// block, then the first bracket span. Each strategy is total and
// side-effect-free. Returns ok=false only when every strategy fails.
func extractComments(reply string) ([]Comment, bool) {
	if comments, ok := parseDirect(reply); ok {
		return comments, true
	}
	if comments, ok := parseFenced(reply); ok {
		return comments, true
	}
	if comments, ok := parseBracketSpan(reply); ok {
		return comments, true
	}
	return nil, false
}

func parseDirect(reply string) ([]Comment, bool) {
	return parseArray(strings.TrimSpace(reply))
}

func parseFenced(reply string) ([]Comment, bool) {
	m := fencedBlockPattern.FindStringSubmatch(reply)
	if m == nil {
		return nil, false
	}
	return parseArray(strings.TrimSpace(m[1]))
}

func parseBracketSpan(reply string) ([]Comment, bool) {
	span := bracketSpanPattern.FindString(reply)
	if span == "" {
		return nil, false
	}
	return parseArray(span)
}

func parseArray(s string) ([]Comment, bool) {
	var comments []Comment
	if err := json.Unmarshal([]byte(s), &comments); err != nil {
		return nil, false
	}
	return comments, true
}

// FormatComments renders a comment list as the canonical two-space indented
// JSON array. Formatting is idempotent: parsing the output and formatting it
// again yields byte-identical text.
func FormatComments(comments []Comment) string {
	if comments == nil {
		comments = []Comment{}
	}
	data, err := json.MarshalIndent(comments, "", "  ")
	if err != nil {
		return "[]"
	}
	return string(data)
}

// ParseComments parses a canonical comment array, tolerating the same
// markdown wrapping the extraction chain handles.
func ParseComments(s string) ([]Comment, bool) {
	return extractComments(s)
}
