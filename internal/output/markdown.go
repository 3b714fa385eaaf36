package output

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/quorumhq/quorum/internal/agent"
)

// MarkdownWriter outputs a PR-comment-friendly markdown report.
type MarkdownWriter struct{}

func (m *MarkdownWriter) Write(w io.Writer, report *Report) error {
	review := report.Review

	fmt.Fprintf(w, "## Quorum Code Review\n\n")
	fmt.Fprintf(w, "**Overall score: %d/10**\n\n", review.OverallScore)
	if report.Degraded {
		fmt.Fprintf(w, "> Partial results: one or more review stages degraded.\n\n")
	}
	fmt.Fprintf(w, "%s\n\n", review.Summary)

	total := 0
	fmt.Fprintf(w, "| Severity | Count |\n")
	fmt.Fprintf(w, "|----------|-------|\n")
	for _, sev := range agent.Severities() {
		n := review.SeverityDistribution[sev]
		total += n
		fmt.Fprintf(w, "| %s | %d |\n", sev.Title(), n)
	}
	fmt.Fprintf(w, "| **Total** | **%d** |\n\n", total)

	if total == 0 {
		fmt.Fprintln(w, "No issues found. :white_check_mark:")
		return nil
	}

	grouped := groupBySeverity(review.AgentReviews)
	for _, sev := range agent.Severities() {
		findings := grouped[sev]
		if len(findings) == 0 {
			continue
		}

		fmt.Fprintf(w, "<details>\n<summary>%s %s (%d)</summary>\n\n",
			mdSeverityIcon(sev), strings.ToUpper(string(sev)), len(findings))

		sort.SliceStable(findings, func(i, j int) bool {
			return findings[i].Line < findings[j].Line
		})

		for _, f := range findings {
			fmt.Fprintf(w, "### %s\n\n", f.Title)
			fmt.Fprintf(w, "**Line %d** | %s\n\n", f.Line, f.Category)
			fmt.Fprintf(w, "%s\n\n", f.Description)
			if f.Snippet != "" {
				fmt.Fprintf(w, "```\n%s\n```\n\n", f.Snippet)
			}
			if f.Suggestion != "" {
				fmt.Fprintf(w, "**Suggestion:**\n\n> %s\n\n",
					strings.ReplaceAll(f.Suggestion, "\n", "\n> "))
			}
			fmt.Fprintf(w, "---\n\n")
		}

		fmt.Fprintf(w, "</details>\n\n")
	}

	if len(review.HighPriorityRecommendations) > 0 {
		fmt.Fprintf(w, "### High priority recommendations\n\n")
		for _, rec := range review.HighPriorityRecommendations {
			fmt.Fprintf(w, "- %s\n", rec)
		}
		fmt.Fprintln(w)
	}

	if review.DetailedAnalysis != "" {
		fmt.Fprintf(w, "<details>\n<summary>Detailed analysis</summary>\n\n%s\n\n</details>\n", review.DetailedAnalysis)
	}

	return nil
}

func mdSeverityIcon(s agent.Severity) string {
	switch s {
	case agent.SeverityCritical:
		return ":red_circle:"
	case agent.SeverityHigh:
		return ":orange_circle:"
	case agent.SeverityMedium:
		return ":yellow_circle:"
	case agent.SeverityLow:
		return ":white_circle:"
	default:
		return ":information_source:"
	}
}
