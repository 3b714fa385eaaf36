package agent

import (
	"regexp"
	"strconv"
	"strings"
)

// Keyword tables for the reply heuristics. Severity is classified by the
// first matching group; unmatched lines default to info.
var (
	criticalKeywords = []string{"critical", "severe", "vulnerability"}
	highKeywords     = []string{"high", "important", "major"}
	mediumKeywords   = []string{"medium", "moderate"}
	lowKeywords      = []string{"low", "minor"}

	findingMarkers        = []string{"issue:", "problem:", "vulnerability:", "warning:"}
	recommendationMarkers = []string{"recommend:", "suggest:", "should:", "fix:"}
)

var lineRefPattern = regexp.MustCompile(`(?i)line\s*(\d+)`)

// classifySeverity maps a reply line to a severity by keyword match.
func classifySeverity(line string) Severity {
	lower := strings.ToLower(line)
	for _, kw := range criticalKeywords {
		if strings.Contains(lower, kw) {
			return SeverityCritical
		}
	}
	for _, kw := range highKeywords {
		if strings.Contains(lower, kw) {
			return SeverityHigh
		}
	}
	for _, kw := range mediumKeywords {
		if strings.Contains(lower, kw) {
			return SeverityMedium
		}
	}
	for _, kw := range lowKeywords {
		if strings.Contains(lower, kw) {
			return SeverityLow
		}
	}
	return SeverityInfo
}

func containsAny(lower string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}

// lineRef extracts the first "Line N" citation from a reply line, or 0.
func lineRef(line string) int {
	m := lineRefPattern.FindStringSubmatch(line)
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return n
}

// parseReply scans a raw backend reply line by line, extracting findings and
// recommendations per the keyword tables above.
func parseReply(category Category, reply string) ([]Finding, []string) {
	var findings []Finding
	var recommendations []string

	for _, line := range strings.Split(reply, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lower := strings.ToLower(line)

		if containsAny(lower, findingMarkers) {
			findings = append(findings, Finding{
				Category:    category,
				Severity:    classifySeverity(line),
				Title:       line,
				Description: line,
				Line:        lineRef(line),
			})
		}
		if containsAny(lower, recommendationMarkers) {
			recommendations = append(recommendations, line)
		}
	}

	return findings, recommendations
}

// scoreFindings derives a 1-10 score: start at 10, subtract 3 per critical,
// 2 per high, 1 per medium, floored at 1. Given policy; intentionally no cap
// distinguishing one bad finding from ten beyond the floor.
func scoreFindings(findings []Finding) int {
	score := 10
	for _, f := range findings {
		switch f.Severity {
		case SeverityCritical:
			score -= 3
		case SeverityHigh:
			score -= 2
		case SeverityMedium:
			score -= 1
		}
	}
	if score < 1 {
		score = 1
	}
	return score
}
