package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/quorumhq/quorum/internal/config"
)

const (
	defaultAzureScope      = "https://cognitiveservices.azure.com/.default"
	defaultAzureAPIVersion = "2023-05-15"
)

// Azure implements Client for a hosted Azure OpenAI deployment. It holds a
// bearer token obtained through the OAuth2 client-credentials flow; a 401
// triggers one transparent token refresh and a single retry of the request.
type Azure struct {
	cfg    config.AzureConfig
	client *http.Client

	mu    sync.Mutex
	token string
}

// NewAzure creates an Azure backend client and performs the initial token
// exchange. Missing credentials are reported as a *ConfigError immediately.
func NewAzure(cfg config.AzureConfig) (*Azure, error) {
	switch {
	case cfg.ClientID == "":
		return nil, &ConfigError{Field: "azure client id"}
	case cfg.ClientSecret == "":
		return nil, &ConfigError{Field: "azure client secret"}
	case cfg.TenantID == "" && cfg.TokenURL == "":
		return nil, &ConfigError{Field: "azure tenant id"}
	case cfg.Endpoint == "" && cfg.CompletionsURL == "":
		return nil, &ConfigError{Field: "azure endpoint"}
	}

	if cfg.TokenURL == "" {
		cfg.TokenURL = fmt.Sprintf("https://login.microsoftonline.com/%s/oauth2/v2.0/token", cfg.TenantID)
	}
	if cfg.Scope == "" {
		cfg.Scope = defaultAzureScope
	}
	if cfg.APIVersion == "" {
		cfg.APIVersion = defaultAzureAPIVersion
	}

	a := &Azure{
		cfg:    cfg,
		client: &http.Client{Timeout: 300 * time.Second},
	}
	if err := a.refreshToken(context.Background()); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *Azure) Name() string { return "azure" }

type tokenResponse struct {
	AccessToken string `json:"access_token"`
}

func (a *Azure) refreshToken(ctx context.Context) error {
	form := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {a.cfg.ClientID},
		"client_secret": {a.cfg.ClientSecret},
		"scope":         {a.cfg.Scope},
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", a.cfg.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("creating token request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	httpResp, err := a.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("requesting token: %w", err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return fmt.Errorf("reading token response: %w", err)
	}
	if httpResp.StatusCode != 200 {
		return &authError{message: fmt.Sprintf("token exchange failed (status %d): %s", httpResp.StatusCode, respBody)}
	}

	var tok tokenResponse
	if err := json.Unmarshal(respBody, &tok); err != nil {
		return fmt.Errorf("parsing token response: %w", err)
	}
	if tok.AccessToken == "" {
		return &authError{message: "no access token in token response"}
	}

	a.mu.Lock()
	a.token = tok.AccessToken
	a.mu.Unlock()
	return nil
}

func (a *Azure) bearer() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.token
}

func (a *Azure) completionsURL() string {
	if a.cfg.CompletionsURL != "" {
		return a.cfg.CompletionsURL
	}
	return fmt.Sprintf("%s/openai/deployments/%s/chat/completions?api-version=%s",
		strings.TrimRight(a.cfg.Endpoint, "/"), a.cfg.Deployment, a.cfg.APIVersion)
}

type azureMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type azureRequest struct {
	Messages    []azureMessage `json:"messages"`
	MaxTokens   int            `json:"max_tokens"`
	Temperature float64        `json:"temperature"`
	TopP        float64        `json:"top_p"`
}

type azureResponse struct {
	Choices []struct {
		Message azureMessage `json:"message"`
	} `json:"choices"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
}

func (a *Azure) Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error) {
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = 2000
	}

	body := azureRequest{
		Messages: []azureMessage{
			{Role: "system", Content: req.SystemPrompt},
			{Role: "user", Content: req.UserPrompt},
		},
		MaxTokens:   maxTokens,
		Temperature: req.Temperature,
		TopP:        0.9,
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return CompletionResponse{}, fmt.Errorf("marshaling request: %w", err)
	}

	httpResp, respBody, err := a.post(ctx, payload)
	if err != nil {
		return CompletionResponse{}, err
	}

	// One transparent refresh on an expired token, then a single retry.
	if httpResp.StatusCode == 401 {
		if err := a.refreshToken(ctx); err != nil {
			return CompletionResponse{}, err
		}
		httpResp, respBody, err = a.post(ctx, payload)
		if err != nil {
			return CompletionResponse{}, err
		}
	}

	switch {
	case httpResp.StatusCode == 401 || httpResp.StatusCode == 403:
		return CompletionResponse{}, &authError{message: string(respBody)}
	case httpResp.StatusCode == 429:
		return CompletionResponse{}, &rateLimitError{}
	case httpResp.StatusCode >= 500:
		return CompletionResponse{}, &serverError{statusCode: httpResp.StatusCode, body: string(respBody)}
	case httpResp.StatusCode != 200:
		return CompletionResponse{}, fmt.Errorf("API error (status %d): %s", httpResp.StatusCode, string(respBody))
	}

	var result azureResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return CompletionResponse{}, fmt.Errorf("parsing response: %w", err)
	}
	if len(result.Choices) == 0 {
		return CompletionResponse{}, fmt.Errorf("no choices in response")
	}

	content := strings.TrimSpace(result.Choices[0].Message.Content)
	if content == "" {
		return CompletionResponse{}, fmt.Errorf("empty text content in API response")
	}

	return CompletionResponse{
		Content:    content,
		TokensUsed: result.Usage.TotalTokens,
	}, nil
}

func (a *Azure) post(ctx context.Context, payload []byte) (*http.Response, []byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, "POST", a.completionsURL(), bytes.NewReader(payload))
	if err != nil {
		return nil, nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+a.bearer())

	httpResp, err := a.client.Do(httpReq)
	if err != nil {
		return nil, nil, fmt.Errorf("sending request: %w", err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("reading response: %w", err)
	}
	return httpResp, respBody, nil
}
