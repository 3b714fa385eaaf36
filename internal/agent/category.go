package agent

import (
	"fmt"
	"strings"
)

// Category identifies a specialized review perspective. The set is closed;
// dispatch goes through the static profile table in prompts.go rather than
// string-keyed lookups.
type Category string

const (
	CategorySecurity     Category = "security"
	CategoryPerformance  Category = "performance"
	CategoryStyle        Category = "style"
	CategoryArchitecture Category = "architecture"
	CategoryReadability  Category = "readability"
	CategoryTestability  Category = "testability"
)

// AllCategories returns every category in canonical order.
func AllCategories() []Category {
	return []Category{
		CategorySecurity,
		CategoryPerformance,
		CategoryStyle,
		CategoryArchitecture,
		CategoryReadability,
		CategoryTestability,
	}
}

// ParseCategory validates a category name.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := profiles[c]; !ok {
		return "", fmt.Errorf("unknown agent category: %q", s)
	}
	return c, nil
}

// ParseCategories validates a list of category names, preserving order and
// dropping duplicates.
func ParseCategories(names []string) ([]Category, error) {
	seen := make(map[Category]bool, len(names))
	out := make([]Category, 0, len(names))
	for _, n := range names {
		c, err := ParseCategory(n)
		if err != nil {
			return nil, err
		}
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	return out, nil
}

// Title returns the human-readable form of the category.
func (c Category) Title() string {
	words := strings.Split(string(c), "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}
