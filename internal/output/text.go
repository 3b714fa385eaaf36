package output

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/quorumhq/quorum/internal/agent"
)

// TextWriter outputs a human-readable text report.
type TextWriter struct{}

func (t *TextWriter) Write(w io.Writer, report *Report) error {
	ew := &errWriter{w: w}
	review := report.Review

	ew.printf("Quorum Code Review\n")
	ew.println(strings.Repeat("─", 60))
	ew.printf("Overall score: %d/10\n", review.OverallScore)
	ew.printf("Agents: %d\n", len(review.AgentReviews))
	if report.Degraded {
		ew.println("Note: partial results — one or more stages degraded")
	}
	ew.println(strings.Repeat("─", 60))

	ew.printf("\n%s\n", review.Summary)

	total := 0
	for _, n := range review.SeverityDistribution {
		total += n
	}
	if total == 0 {
		ew.println("\nNo issues found. Looks good!")
		return ew.err
	}

	ew.printf("\nFindings: %d total (", total)
	parts := make([]string, 0, len(agent.Severities()))
	for _, sev := range agent.Severities() {
		if n := review.SeverityDistribution[sev]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, sev))
		}
	}
	ew.printf("%s)\n", strings.Join(parts, ", "))

	// Findings grouped by severity, most severe first, stable by file order
	// within a band.
	grouped := groupBySeverity(review.AgentReviews)
	for _, sev := range agent.Severities() {
		findings := grouped[sev]
		if len(findings) == 0 {
			continue
		}

		ew.printf("\n%s %s\n", severityIcon(sev), strings.ToUpper(string(sev)))
		ew.println(strings.Repeat("─", 40))

		sort.SliceStable(findings, func(i, j int) bool {
			return findings[i].Line < findings[j].Line
		})

		for _, f := range findings {
			ew.printf("\n  line %d  %s [%s]\n", f.Line, f.Title, f.Category)
			for _, line := range wrapText(f.Description, 70) {
				ew.printf("    %s\n", line)
			}
			if f.Suggestion != "" {
				ew.println("  Suggestion:")
				for _, line := range wrapText(f.Suggestion, 70) {
					ew.printf("    %s\n", line)
				}
			}
		}
	}

	if len(review.HighPriorityRecommendations) > 0 {
		ew.printf("\n%s\n", strings.Repeat("─", 60))
		ew.println("High priority recommendations:")
		for i, rec := range review.HighPriorityRecommendations {
			ew.printf("  %d. %s\n", i+1, rec)
		}
	}

	if review.DetailedAnalysis != "" {
		ew.printf("\n%s\n", strings.Repeat("─", 60))
		ew.println("Detailed analysis:")
		ew.printf("\n%s\n", review.DetailedAnalysis)
	}

	return ew.err
}

// errWriter wraps an io.Writer and captures the first error.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...interface{}) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}

func (ew *errWriter) println(s string) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintln(ew.w, s)
}

func groupBySeverity(reviews []agent.Result) map[agent.Severity][]agent.Finding {
	m := make(map[agent.Severity][]agent.Finding)
	for _, r := range reviews {
		for _, f := range r.Findings {
			m[f.Severity] = append(m[f.Severity], f)
		}
	}
	return m
}

func severityIcon(s agent.Severity) string {
	switch s {
	case agent.SeverityCritical:
		return "[!!!]"
	case agent.SeverityHigh:
		return "[!!]"
	case agent.SeverityMedium:
		return "[!]"
	case agent.SeverityLow:
		return "[-]"
	default:
		return "[i]"
	}
}

func wrapText(text string, width int) []string {
	if len(text) <= width {
		return []string{text}
	}
	var lines []string
	words := strings.Fields(text)
	var current strings.Builder
	for _, word := range words {
		if current.Len()+len(word)+1 > width && current.Len() > 0 {
			lines = append(lines, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(word)
	}
	if current.Len() > 0 {
		lines = append(lines, current.String())
	}
	return lines
}
