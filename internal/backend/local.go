package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultLocalURL   = "http://localhost:11434"
	defaultLocalModel = "llama3.2"
)

// Local implements Client for a locally hosted Ollama server. No
// authentication is required.
type Local struct {
	model   string
	baseURL string
	client  *http.Client
}

// NewLocal creates a local backend client. Empty arguments fall back to the
// default Ollama address and model.
func NewLocal(baseURL, model string) *Local {
	if baseURL == "" {
		baseURL = defaultLocalURL
	}
	if model == "" {
		model = defaultLocalModel
	}
	baseURL = strings.TrimRight(baseURL, "/")
	baseURL = strings.TrimSuffix(baseURL, "/api/generate")

	return &Local{
		model:   model,
		baseURL: baseURL + "/api/generate",
		client:  &http.Client{Timeout: 300 * time.Second},
	}
}

func (l *Local) Name() string { return "local" }

type localRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type localResponse struct {
	Response string `json:"response"`
}

// Complete sends the request to the generate endpoint. The generate API takes
// a single prompt, so the system and user prompts are flattened into one.
func (l *Local) Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error) {
	body := localRequest{
		Model:  l.model,
		Prompt: flattenPrompt(req.SystemPrompt, req.UserPrompt),
		Stream: false,
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return CompletionResponse{}, fmt.Errorf("marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", l.baseURL, bytes.NewReader(payload))
	if err != nil {
		return CompletionResponse{}, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := l.client.Do(httpReq)
	if err != nil {
		return CompletionResponse{}, fmt.Errorf("sending request: %w", err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return CompletionResponse{}, fmt.Errorf("reading response: %w", err)
	}

	if httpResp.StatusCode == 429 {
		return CompletionResponse{}, &rateLimitError{}
	}
	if httpResp.StatusCode >= 500 {
		return CompletionResponse{}, &serverError{statusCode: httpResp.StatusCode, body: string(respBody)}
	}
	if httpResp.StatusCode != 200 {
		return CompletionResponse{}, fmt.Errorf("API error (status %d): %s", httpResp.StatusCode, string(respBody))
	}

	var result localResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return CompletionResponse{}, fmt.Errorf("parsing response: %w", err)
	}

	content := strings.TrimSpace(result.Response)
	if content == "" {
		return CompletionResponse{}, fmt.Errorf("empty text content in API response")
	}

	return CompletionResponse{Content: content}, nil
}

func flattenPrompt(system, user string) string {
	var parts []string
	if system != "" {
		parts = append(parts, "System: "+system)
	}
	if user != "" {
		parts = append(parts, "User: "+user)
	}
	return strings.Join(parts, "\n\n")
}
