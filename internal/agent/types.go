package agent

import (
	"strconv"
	"strings"
)

// Severity represents the severity level of a finding, ordered by decreasing
// urgency.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
	SeverityInfo     Severity = "info"
)

// Severities lists all severity levels, most urgent first.
func Severities() []Severity {
	return []Severity{SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow, SeverityInfo}
}

// Title returns the capitalized form of the severity.
func (s Severity) Title() string {
	if s == "" {
		return ""
	}
	return strings.ToUpper(string(s)[:1]) + string(s)[1:]
}

// SeverityRank returns a numeric rank for sorting (higher = more severe).
func SeverityRank(s Severity) int {
	switch s {
	case SeverityCritical:
		return 5
	case SeverityHigh:
		return 4
	case SeverityMedium:
		return 3
	case SeverityLow:
		return 2
	case SeverityInfo:
		return 1
	default:
		return 0
	}
}

// Finding represents a single issue identified by a review agent. Findings
// are immutable once created.
type Finding struct {
	Category    Category `json:"agent_type"`
	Severity    Severity `json:"severity"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Line        int      `json:"line_number,omitempty"`
	Snippet     string   `json:"code_snippet,omitempty"`
	Suggestion  string   `json:"suggestion,omitempty"`
}

// DedupKey returns the structural identity of a finding: category + line +
// normalized title. Two findings with the same key describe the same issue.
func (f Finding) DedupKey() string {
	title := strings.Join(strings.Fields(strings.ToLower(f.Title)), " ")
	return string(f.Category) + "\x00" + strconv.Itoa(f.Line) + "\x00" + title
}

// Result is the complete review produced by one agent invocation. It is
// never mutated after creation.
type Result struct {
	AgentName       string    `json:"agent_name"`
	Category        Category  `json:"agent_type"`
	Score           int       `json:"overall_score"`
	Summary         string    `json:"summary"`
	Findings        []Finding `json:"findings"`
	Recommendations []string  `json:"recommendations"`
}
