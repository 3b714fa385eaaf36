package agent

import (
	"strings"
	"testing"
)

func TestNumberLines(t *testing.T) {
	got := numberLines("a\nb\nc")
	want := "  1: a\n  2: b\n  3: c"
	if got != want {
		t.Errorf("numberLines = %q, want %q", got, want)
	}
}

func TestNumberLines_SingleLine(t *testing.T) {
	if got := numberLines("only"); got != "  1: only" {
		t.Errorf("numberLines = %q", got)
	}
}

func TestBuildFullPrompt(t *testing.T) {
	prompt := buildPrompt(CategorySecurity, "x := input()", false)

	for _, want := range []string{
		"cybersecurity expert",
		"  1: x := input()",
		`Start with "Line X:"`,
		"Input Validation",
		"OWASP Top 10",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("full prompt missing %q", want)
		}
	}
	if strings.Contains(prompt, "DIFF TO REVIEW") {
		t.Error("full prompt contains diff-mode language")
	}
}

func TestBuildDiffPrompt(t *testing.T) {
	prompt := buildPrompt(CategoryPerformance, "+ added line", true)

	for _, want := range []string{
		"performance optimization expert",
		"DIFF TO REVIEW",
		"FULL FILE CONTEXT",
		"CHANGED LINES ONLY",
		"+ added line",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("diff prompt missing %q", want)
		}
	}
	// Diff payloads are never renumbered; the diff's own line info rules.
	if strings.Contains(prompt, "  1: + added line") {
		t.Error("diff prompt renumbered the payload")
	}
}

func TestSystemPrompt_CitationFormat(t *testing.T) {
	for _, c := range AllCategories() {
		p := systemPrompt(c)
		if !strings.Contains(p, "'Line 15: Issue description'") {
			t.Errorf("systemPrompt(%s) missing citation format example", c)
		}
		if !strings.Contains(p, string(c)) {
			t.Errorf("systemPrompt(%s) missing category name", c)
		}
	}
}

func TestProfiles_CoverAllCategories(t *testing.T) {
	for _, c := range AllCategories() {
		p, ok := profiles[c]
		if !ok {
			t.Fatalf("no profile for %s", c)
		}
		if p.role == "" || len(p.focus) == 0 || len(p.diffFocus) == 0 || p.example == "" {
			t.Errorf("profile for %s is incomplete", c)
		}
	}
}

func TestParseCategories(t *testing.T) {
	got, err := ParseCategories([]string{"Security", " style ", "security"})
	if err != nil {
		t.Fatalf("ParseCategories error: %v", err)
	}
	if len(got) != 2 || got[0] != CategorySecurity || got[1] != CategoryStyle {
		t.Errorf("ParseCategories = %v", got)
	}

	if _, err := ParseCategories([]string{"quality"}); err == nil {
		t.Error("expected error for unknown category")
	}
}

func TestCategoryTitle(t *testing.T) {
	if got := CategorySecurity.Title(); got != "Security" {
		t.Errorf("Title = %q, want Security", got)
	}
}
