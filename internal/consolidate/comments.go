package consolidate

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/quorumhq/quorum/internal/backend"
)

// commentTemperature is fixed slightly above zero for more diverse replies.
const commentTemperature = 0.2

const reviewGoal = `**Goal:**
Review each hunk of diff and agent feedback
    - If there is any feedback for that hunk: Provide crisp feedback with line numbers and suggest the change to be made.
    - If there is no feedback for that hunk: Ignore and move on to the next hunk.
    - Do not provide a highly verbose review, so that its not overwhelming for the user to read.
`

const outputFormat = `
CRITICAL: Your response must be ONLY a valid JSON array. Do not include any other text, explanations, or markdown formatting.

Output format (return ONLY this JSON, nothing else):
[
    {
        "file_path": "filename.js",
        "line_number": 10,
        "review_comment": "Specific issue description and suggested fix"
    }
]

If no issues found, return: []
`

// GenerateComments converts the consolidated review into a strict
// machine-readable comment list. It retries the backend call up to the
// engine's configured attempts, accepting the first non-empty reply, and
// recovers malformed output through the extraction chain. It never returns
// an error: degraded reports whether the backend failed or the reply stayed
// unparseable after all fallbacks, in which case the comment list is empty.
func (e *Engine) GenerateComments(ctx context.Context, review *Consolidated, primaryPath string, knownPaths []string) (comments []Comment, degraded bool) {
	prompt := commentPrompt(review, primaryPath, knownPaths)

	var reply string
	for attempt := 1; attempt <= e.maxRetries; attempt++ {
		resp, err := e.client.Complete(ctx, backend.CompletionRequest{
			SystemPrompt: fmt.Sprintf("You are a senior technical lead consolidating code review reports. %s\n\n%s", reviewGoal, outputFormat),
			UserPrompt:   prompt,
			Temperature:  commentTemperature,
			MaxTokens:    4000,
		})
		if err != nil {
			e.logger.Warn("comment generation attempt failed",
				zap.Int("attempt", attempt), zap.Error(err))
			continue
		}
		if strings.TrimSpace(resp.Content) != "" {
			reply = resp.Content
			break
		}
	}
	if reply == "" {
		e.logger.Error("comment generation failed after all attempts",
			zap.Int("attempts", e.maxRetries))
		return []Comment{}, true
	}

	parsed, ok := extractComments(reply)
	if !ok {
		e.logger.Warn("comment reply not parseable, returning empty list")
		return []Comment{}, true
	}

	return normalizeComments(parsed, primaryPath, knownPaths), false
}

// commentPrompt assembles every agent's summary and recommendations with
// explicit deduplication and completeness instructions.
func commentPrompt(review *Consolidated, primaryPath string, knownPaths []string) string {
	var b strings.Builder

	b.WriteString(reviewGoal)
	b.WriteString("\n")
	b.WriteString(outputFormat)
	b.WriteString("\nAgent Reviews to Consolidate:\n")

	for _, r := range review.AgentReviews {
		fmt.Fprintf(&b, "\n**%s Agent Review:**\n%s\n\n**Recommendations:**\n", r.Category.Title(), r.Summary)
		for _, rec := range r.Recommendations {
			fmt.Fprintf(&b, "- %s\n", rec)
		}
	}

	if len(knownPaths) > 0 {
		fmt.Fprintf(&b, "\nFiles in this diff: %s\n", strings.Join(knownPaths, ", "))
	} else {
		fmt.Fprintf(&b, "\nFile being reviewed: %s\n", primaryPath)
	}

	b.WriteString(`
CRITICAL CONSOLIDATION INSTRUCTIONS:
1. ANALYZE ALL AGENT FEEDBACK thoroughly - do not miss any issues mentioned by any agent
2. DEDUPLICATE similar findings: If multiple agents mention the same issue on the same line or similar lines, consolidate them into ONE comprehensive review comment
3. PRIORITIZE the most actionable and specific feedback
4. COMBINE related issues: If agents mention related problems, merge them into one comprehensive comment
5. FOCUS on unique, distinct issues - ensure ALL different types of issues are captured
6. Extract specific line numbers where mentioned and create crisp, actionable review comments
7. BE COMPREHENSIVE: If agents found multiple different issues, ensure ALL are included in the final output

QUALITY REQUIREMENTS:
- NEVER ignore or skip issues mentioned by agents
- ALWAYS provide COMPLETE review comments with specific code suggestions
- NEVER use placeholder text or truncate responses
- Each review_comment must be fully detailed and actionable with specific fix suggestions
- If multiple agents found different issues on different lines, include ALL of them

Please consolidate these agent reviews into the JSON format specified above, ensuring NO DUPLICATE issues for the same line but INCLUDING ALL DISTINCT ISSUES found by any agent.`)

	return b.String()
}

// normalizeComments stamps every comment with a path from the closed,
// caller-supplied set, decoupling the backend's unreliable path guesses from
// ground truth. With known paths, a claimed path that matches one of them is
// kept; everything else is assigned round-robin by array index. With no
// known paths, every comment gets the primary path. The round-robin
// assignment is a documented approximation, not a correctness guarantee.
func normalizeComments(comments []Comment, primaryPath string, knownPaths []string) []Comment {
	out := make([]Comment, len(comments))
	for i, c := range comments {
		if len(knownPaths) == 0 {
			c.FilePath = primaryPath
		} else if !matchesKnown(c.FilePath, knownPaths) {
			c.FilePath = knownPaths[i%len(knownPaths)]
		}
		out[i] = c
	}
	return out
}

func matchesKnown(claimed string, knownPaths []string) bool {
	if claimed == "" || claimed == "unknown" {
		return false
	}
	for _, known := range knownPaths {
		if claimed == known || strings.Contains(claimed, known) {
			return true
		}
	}
	return false
}
