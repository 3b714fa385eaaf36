package agent

import (
	"context"

	"go.uber.org/zap"

	"github.com/quorumhq/quorum/internal/backend"
)

const summaryLimit = 200

// minTemperature keeps agent replies consistent even when the configured
// creativity level is lower.
const minTemperature = 0.2

// Reviewer performs one specialized review perspective against a backend
// client.
type Reviewer struct {
	category    Category
	client      backend.Client
	temperature float64
	logger      *zap.Logger
}

// NewReviewer creates a reviewer for the given category. The client is
// typically a shared instance acquired from the backend registry.
func NewReviewer(category Category, client backend.Client, temperature float64, logger *zap.Logger) *Reviewer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reviewer{
		category:    category,
		client:      client,
		temperature: temperature,
		logger:      logger.With(zap.String("agent", string(category))),
	}
}

// Category returns the reviewer's category.
func (r *Reviewer) Category() Category { return r.category }

// Name returns the reviewer's display name.
func (r *Reviewer) Name() string { return r.category.Title() + " Agent" }

// Review maps one payload to a structured result. A backend failure is a
// soft failure: it returns nil so the orchestrator can exclude this reviewer
// without aborting its siblings.
func (r *Reviewer) Review(ctx context.Context, payload string, diffOnly bool) *Result {
	prompt := buildPrompt(r.category, payload, diffOnly)

	temp := r.temperature
	if temp < minTemperature {
		temp = minTemperature
	}

	resp, err := r.client.Complete(ctx, backend.CompletionRequest{
		SystemPrompt: systemPrompt(r.category),
		UserPrompt:   prompt,
		Temperature:  temp,
	})
	if err != nil {
		r.logger.Warn("review request failed", zap.Error(err))
		return nil
	}
	if resp.Content == "" {
		r.logger.Warn("review returned empty response")
		return nil
	}

	findings, recommendations := parseReply(r.category, resp.Content)

	summary := resp.Content
	if len(summary) > summaryLimit {
		summary = summary[:summaryLimit] + "..."
	}

	r.logger.Debug("review completed",
		zap.Int("findings", len(findings)),
		zap.Int("recommendations", len(recommendations)))

	return &Result{
		AgentName:       r.Name(),
		Category:        r.category,
		Score:           scoreFindings(findings),
		Summary:         summary,
		Findings:        findings,
		Recommendations: recommendations,
	}
}
