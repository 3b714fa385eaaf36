package consolidate

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quorumhq/quorum/internal/agent"
	"github.com/quorumhq/quorum/internal/backend"
)

type stubClient struct {
	replies []string
	err     error

	calls int
}

func (s *stubClient) Name() string { return "stub" }
func (s *stubClient) Complete(ctx context.Context, req backend.CompletionRequest) (backend.CompletionResponse, error) {
	s.calls++
	if s.err != nil {
		return backend.CompletionResponse{}, s.err
	}
	reply := s.replies[0]
	if len(s.replies) > 1 {
		s.replies = s.replies[1:]
	}
	return backend.CompletionResponse{Content: reply}, nil
}

func newTestEngine(client backend.Client, retries int) *Engine {
	return NewEngine(client, 0.2, retries, nil)
}

func review(cat agent.Category, score int, findings ...agent.Finding) agent.Result {
	return agent.Result{
		AgentName: cat.Title() + " Agent",
		Category:  cat,
		Score:     score,
		Summary:   "summary for " + string(cat),
		Findings:  findings,
	}
}

func TestOverallScore(t *testing.T) {
	tests := []struct {
		name   string
		scores []int
		want   int
	}{
		{"no reviews", nil, 5},
		{"single", []int{7}, 7},
		{"mean rounds half to even", []int{7, 8}, 8},
		{"mean rounds half to even downward", []int{8, 9}, 8},
		{"mean rounds nearest", []int{7, 8, 8}, 8},
		{"all low", []int{1, 1}, 1},
		{"all high", []int{10, 10}, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var reviews []agent.Result
			for _, s := range tt.scores {
				reviews = append(reviews, review(agent.CategoryStyle, s))
			}
			assert.Equal(t, tt.want, overallScore(reviews))
		})
	}
}

func TestConsolidate_Aggregation(t *testing.T) {
	crit1 := agent.Finding{Category: agent.CategorySecurity, Severity: agent.SeverityCritical, Title: "sql injection", Line: 3}
	crit2 := agent.Finding{Category: agent.CategoryPerformance, Severity: agent.SeverityCritical, Title: "unbounded alloc", Line: 9}
	high := agent.Finding{Category: agent.CategorySecurity, Severity: agent.SeverityHigh, Title: "weak hash", Line: 5}

	reviews := []agent.Result{
		review(agent.CategorySecurity, 5, crit1, high),
		review(agent.CategoryPerformance, 7, crit2),
	}

	eng := newTestEngine(&stubClient{replies: []string{"analysis text"}}, 1)
	res := eng.Consolidate(context.Background(), reviews, "code")

	assert.Equal(t, 6, res.OverallScore)
	require.Len(t, res.CriticalIssues, 2)
	// Critical issues keep the reviewer-order subsequence.
	assert.Equal(t, "sql injection", res.CriticalIssues[0].Title)
	assert.Equal(t, "unbounded alloc", res.CriticalIssues[1].Title)

	assert.Equal(t, 2, res.SeverityDistribution[agent.SeverityCritical])
	assert.Equal(t, 1, res.SeverityDistribution[agent.SeverityHigh])
	assert.Len(t, res.FindingsByCategory[agent.CategorySecurity], 2)
	assert.Len(t, res.FindingsByCategory[agent.CategoryPerformance], 1)
	assert.Equal(t, "analysis text", res.DetailedAnalysis)
}

func TestConsolidate_NoReviews(t *testing.T) {
	eng := newTestEngine(&stubClient{replies: []string{"unused"}}, 1)
	res := eng.Consolidate(context.Background(), nil, "code")

	assert.Equal(t, defaultScore, res.OverallScore)
	assert.Empty(t, res.CriticalIssues)
	assert.Equal(t, narrativePlaceholder, res.DetailedAnalysis)
}

func TestConsolidate_NarrativeDegradation(t *testing.T) {
	eng := newTestEngine(&stubClient{err: errors.New("service down")}, 1)
	res := eng.Consolidate(context.Background(), []agent.Result{review(agent.CategoryStyle, 8)}, "code")

	assert.Equal(t, narrativePlaceholder, res.DetailedAnalysis)
	assert.Equal(t, 8, res.OverallScore, "aggregation must survive narrative failure")
}

func TestExecutiveSummary_Bands(t *testing.T) {
	tests := []struct {
		score int
		want  string
	}{
		{9, "excellent"},
		{8, "excellent"},
		{7, "good"},
		{6, "good"},
		{5, "acceptable"},
		{4, "acceptable"},
		{3, "needs improvement"},
		{1, "needs improvement"},
	}

	reviews := []agent.Result{review(agent.CategorySecurity, 5)}
	for _, tt := range tests {
		got := executiveSummary(reviews, tt.score, 0)
		assert.Contains(t, got, tt.want, "score %d", tt.score)
		assert.NotContains(t, got, "critical issue")
	}
}

func TestExecutiveSummary_CriticalCount(t *testing.T) {
	reviews := []agent.Result{review(agent.CategorySecurity, 5)}

	one := executiveSummary(reviews, 5, 1)
	assert.Contains(t, one, "1 critical issue require immediate attention")
	assert.NotContains(t, one, "issues")

	many := executiveSummary(reviews, 5, 3)
	assert.Contains(t, many, "3 critical issues require immediate attention")
}

func TestHighPriorityRecommendations(t *testing.T) {
	critical := []agent.Finding{
		{Severity: agent.SeverityCritical, Suggestion: "use parameterized queries"},
		{Severity: agent.SeverityCritical, Suggestion: "use parameterized queries"}, // dup
		{Severity: agent.SeverityCritical},                                          // no suggestion
	}
	all := []string{
		"fix the security hole in login",
		"rename this variable",
		"cache the database results to avoid the bottleneck",
		"fix the security hole in login", // dup
	}

	out := highPriorityRecommendations(all, critical)

	require.Len(t, out, 3)
	assert.Equal(t, "CRITICAL: use parameterized queries", out[0])
	assert.Contains(t, out, "fix the security hole in login")
	assert.Contains(t, out, "cache the database results to avoid the bottleneck")
	assert.NotContains(t, out, "rename this variable")
}

func TestHighPriorityRecommendations_Cap(t *testing.T) {
	var all []string
	for i := 0; i < 20; i++ {
		all = append(all, "security concern number "+strings.Repeat("x", i+1))
	}
	out := highPriorityRecommendations(all, nil)
	assert.Len(t, out, maxHighPriority)
}

func TestNarrativePrompt_PayloadExcerpt(t *testing.T) {
	long := strings.Repeat("a", payloadExcerptLimit+500)
	prompt := narrativePrompt([]agent.Result{review(agent.CategoryStyle, 7)}, nil, long)

	assert.Contains(t, prompt, strings.Repeat("a", payloadExcerptLimit)+"...")
	assert.NotContains(t, prompt, strings.Repeat("a", payloadExcerptLimit+1))
}
