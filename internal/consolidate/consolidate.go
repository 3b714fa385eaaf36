package consolidate

import (
	"context"
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"

	"github.com/quorumhq/quorum/internal/agent"
	"github.com/quorumhq/quorum/internal/backend"
)

// Score with no successful reviewers: a deliberate degenerate-input policy,
// not an error.
const defaultScore = 5

// maxHighPriority bounds the prioritized recommendation list.
const maxHighPriority = 10

// narrativePlaceholder replaces the long-form analysis when the backend is
// unavailable; consolidation itself never fails on it.
const narrativePlaceholder = "Unable to generate detailed analysis due to AI service unavailability."

// payloadExcerptLimit bounds the original payload excerpt sent with the
// narrative prompt.
const payloadExcerptLimit = 1000

// Consolidated is the final merged review built exactly once per review
// cycle. It is read-only downstream.
type Consolidated struct {
	OverallScore                int                               `json:"overall_score"`
	Summary                     string                            `json:"summary"`
	AgentReviews                []agent.Result                    `json:"agent_reviews"`
	CriticalIssues              []agent.Finding                   `json:"critical_issues"`
	HighPriorityRecommendations []string                          `json:"high_priority_recommendations"`
	FindingsByCategory          map[agent.Category][]agent.Finding `json:"findings_by_category"`
	SeverityDistribution        map[agent.Severity]int            `json:"severity_distribution"`
	DetailedAnalysis            string                            `json:"detailed_analysis"`
}

// Engine consolidates agent reviews using one shared backend client for the
// narrative and comment-generation calls.
type Engine struct {
	client      backend.Client
	temperature float64
	maxRetries  int
	logger      *zap.Logger
}

// NewEngine creates a consolidation engine. maxRetries bounds the
// comment-generation attempts and is clamped to at least 1.
func NewEngine(client backend.Client, temperature float64, maxRetries int, logger *zap.Logger) *Engine {
	if maxRetries < 1 {
		maxRetries = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		client:      client,
		temperature: temperature,
		maxRetries:  maxRetries,
		logger:      logger.With(zap.String("agent", "consolidation")),
	}
}

// Consolidate merges the completed agent reviews into one result.
// Consolidation is commutative over reviewer order.
func (e *Engine) Consolidate(ctx context.Context, reviews []agent.Result, payload string) *Consolidated {
	var allFindings []agent.Finding
	var allRecommendations []string
	var critical []agent.Finding
	byCategory := make(map[agent.Category][]agent.Finding)
	bySeverity := make(map[agent.Severity]int)

	for _, review := range reviews {
		allFindings = append(allFindings, review.Findings...)
		allRecommendations = append(allRecommendations, review.Recommendations...)

		for _, f := range review.Findings {
			if f.Severity == agent.SeverityCritical {
				critical = append(critical, f)
			}
			byCategory[f.Category] = append(byCategory[f.Category], f)
			bySeverity[f.Severity]++
		}
	}

	score := overallScore(reviews)

	return &Consolidated{
		OverallScore:                score,
		Summary:                     executiveSummary(reviews, score, len(critical)),
		AgentReviews:                reviews,
		CriticalIssues:              critical,
		HighPriorityRecommendations: highPriorityRecommendations(allRecommendations, critical),
		FindingsByCategory:          byCategory,
		SeverityDistribution:        bySeverity,
		DetailedAnalysis:            e.narrative(ctx, reviews, allFindings, payload),
	}
}

// overallScore is the rounded mean of per-reviewer scores clamped to [1,10],
// or defaultScore when no reviewer succeeded.
func overallScore(reviews []agent.Result) int {
	if len(reviews) == 0 {
		return defaultScore
	}
	total := 0
	for _, r := range reviews {
		total += r.Score
	}
	// Half-way means round to even, so [8,9] yields 8 and [7,8] yields 8.
	score := int(math.RoundToEven(float64(total) / float64(len(reviews))))
	if score < 1 {
		score = 1
	}
	if score > 10 {
		score = 10
	}
	return score
}

// executiveSummary is synthesized deterministically from category names,
// score banding, and the critical count.
func executiveSummary(reviews []agent.Result, score, criticalCount int) string {
	names := make([]string, len(reviews))
	for i, r := range reviews {
		names[i] = r.Category.Title()
	}

	var quality string
	switch {
	case score >= 8:
		quality = "excellent"
	case score >= 6:
		quality = "good"
	case score >= 4:
		quality = "acceptable"
	default:
		quality = "needs improvement"
	}

	criticalText := ""
	if criticalCount > 0 {
		plural := ""
		if criticalCount != 1 {
			plural = "s"
		}
		criticalText = fmt.Sprintf(" However, %d critical issue%s require immediate attention.", criticalCount, plural)
	}

	return fmt.Sprintf("Code review completed by %d specialized agents: %s. "+
		"Overall code quality is %s with a score of %d/10.%s "+
		"Review covers security, performance, coding practices, architecture, readability, and testability aspects.",
		len(reviews), strings.Join(names, ", "), quality, score, criticalText)
}

// priorityKeywords promote recommendations into the high-priority list.
var priorityKeywords = []string{
	"security", "vulnerability", "critical", "fix immediately",
	"performance", "bottleneck", "memory leak", "sql injection",
	"xss", "authentication", "authorization",
}

func highPriorityRecommendations(all []string, critical []agent.Finding) []string {
	var out []string
	seen := make(map[string]bool)

	for _, issue := range critical {
		if issue.Suggestion != "" {
			rec := "CRITICAL: " + issue.Suggestion
			if !seen[rec] {
				seen[rec] = true
				out = append(out, rec)
			}
		}
	}

	for _, rec := range all {
		lower := strings.ToLower(rec)
		for _, kw := range priorityKeywords {
			if strings.Contains(lower, kw) {
				if !seen[rec] {
					seen[rec] = true
					out = append(out, rec)
				}
				break
			}
		}
	}

	if len(out) > maxHighPriority {
		out = out[:maxHighPriority]
	}
	return out
}

// narrative asks the backend for a long-form cross-agent analysis. On any
// failure it returns the fixed placeholder rather than failing consolidation.
func (e *Engine) narrative(ctx context.Context, reviews []agent.Result, findings []agent.Finding, payload string) string {
	if len(reviews) == 0 {
		return narrativePlaceholder
	}

	resp, err := e.client.Complete(ctx, backend.CompletionRequest{
		SystemPrompt: "You are a senior technical lead specializing in consolidating multiple code review reports. " +
			"Provide comprehensive analysis and actionable recommendations.",
		UserPrompt:  narrativePrompt(reviews, findings, payload),
		Temperature: e.temperature,
		MaxTokens:   3000,
	})
	if err != nil {
		e.logger.Warn("narrative generation failed", zap.Error(err))
		return narrativePlaceholder
	}
	if strings.TrimSpace(resp.Content) == "" {
		return narrativePlaceholder
	}
	return resp.Content
}

func narrativePrompt(reviews []agent.Result, findings []agent.Finding, payload string) string {
	var b strings.Builder

	b.WriteString("You are a senior technical lead consolidating multiple specialized code review reports.\n\n")

	excerpt := payload
	suffix := ""
	if len(excerpt) > payloadExcerptLimit {
		excerpt = excerpt[:payloadExcerptLimit]
		suffix = "..."
	}
	fmt.Fprintf(&b, "Original Code:\n```\n%s%s\n```\n\n", excerpt, suffix)

	b.WriteString("Agent Review Summary:\n")
	for _, r := range reviews {
		findingsSummary := "no major issues"
		if len(r.Findings) > 0 {
			findingsSummary = fmt.Sprintf("%d findings", len(r.Findings))
		}
		fmt.Fprintf(&b, "- %s: Score %d/10, %s\n", r.AgentName, r.Score, findingsSummary)
	}

	b.WriteString("\nKey Findings:\n")
	for i, f := range findings {
		if i >= 10 {
			break
		}
		fmt.Fprintf(&b, "- [%s] %s\n", strings.ToUpper(string(f.Severity)), f.Title)
	}

	b.WriteString(`
Provide a comprehensive consolidated analysis that:

1. **Cross-Agent Correlation**: Identify patterns and connections between different agents' findings
2. **Priority Assessment**: Rank issues by business impact and technical risk
3. **Root Cause Analysis**: Identify underlying causes that contribute to multiple issues
4. **Implementation Roadmap**: Suggest a logical order for addressing issues
5. **Trade-off Analysis**: Highlight any conflicts between different recommendations
6. **Quality Gates**: Recommend what must be fixed before code can be deployed

Be specific, actionable, and focus on helping the development team make informed decisions.`)

	return b.String()
}
