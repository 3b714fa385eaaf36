package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/quorumhq/quorum/internal/config"
)

func newTokenServer(t *testing.T, tokens *atomic.Int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parsing token form: %v", err)
		}
		if r.Form.Get("grant_type") != "client_credentials" {
			t.Errorf("grant_type = %q, want client_credentials", r.Form.Get("grant_type"))
		}
		if r.Form.Get("client_id") != "id" || r.Form.Get("client_secret") != "secret" {
			t.Error("missing client credentials in token request")
		}
		n := tokens.Add(1)
		json.NewEncoder(w).Encode(map[string]string{
			"access_token": "tok-" + string(rune('0'+n)),
		})
	}))
}

func azureTestConfig(tokenURL, completionsURL string) config.AzureConfig {
	return config.AzureConfig{
		ClientID:       "id",
		ClientSecret:   "secret",
		TokenURL:       tokenURL,
		CompletionsURL: completionsURL,
	}
}

func TestNewAzure_ConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.AzureConfig
	}{
		{"missing client id", config.AzureConfig{ClientSecret: "s", TenantID: "t", Endpoint: "e"}},
		{"missing client secret", config.AzureConfig{ClientID: "c", TenantID: "t", Endpoint: "e"}},
		{"missing tenant and token url", config.AzureConfig{ClientID: "c", ClientSecret: "s", Endpoint: "e"}},
		{"missing endpoint and completions url", config.AzureConfig{ClientID: "c", ClientSecret: "s", TenantID: "t"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewAzure(tt.cfg)
			if err == nil {
				t.Fatal("expected error")
			}
			if !IsConfigError(err) {
				t.Errorf("IsConfigError = false for %v", err)
			}
		})
	}
}

func TestAzure_Complete(t *testing.T) {
	var tokens atomic.Int32
	tokenServer := newTokenServer(t, &tokens)
	defer tokenServer.Close()

	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok-1" {
			t.Errorf("Authorization = %q, want Bearer tok-1", r.Header.Get("Authorization"))
		}

		var req azureRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decoding request: %v", err)
		}
		if len(req.Messages) != 2 || req.Messages[0].Role != "system" || req.Messages[1].Role != "user" {
			t.Errorf("Messages = %+v", req.Messages)
		}
		if req.MaxTokens != 2000 {
			t.Errorf("MaxTokens = %d, want default 2000", req.MaxTokens)
		}

		resp := azureResponse{}
		resp.Choices = []struct {
			Message azureMessage `json:"message"`
		}{{Message: azureMessage{Role: "assistant", Content: "the review"}}}
		resp.Usage.TotalTokens = 42
		json.NewEncoder(w).Encode(resp)
	}))
	defer api.Close()

	a, err := NewAzure(azureTestConfig(tokenServer.URL, api.URL))
	if err != nil {
		t.Fatalf("NewAzure error: %v", err)
	}

	resp, err := a.Complete(context.Background(), CompletionRequest{
		SystemPrompt: "sys",
		UserPrompt:   "usr",
	})
	if err != nil {
		t.Fatalf("Complete error: %v", err)
	}
	if resp.Content != "the review" {
		t.Errorf("Content = %q", resp.Content)
	}
	if resp.TokensUsed != 42 {
		t.Errorf("TokensUsed = %d, want 42", resp.TokensUsed)
	}
}

func TestAzure_RefreshOn401(t *testing.T) {
	var tokens atomic.Int32
	tokenServer := newTokenServer(t, &tokens)
	defer tokenServer.Close()

	var calls atomic.Int32
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(401)
			w.Write([]byte("token expired"))
			return
		}
		if r.Header.Get("Authorization") != "Bearer tok-2" {
			t.Errorf("retry Authorization = %q, want refreshed token", r.Header.Get("Authorization"))
		}
		resp := azureResponse{}
		resp.Choices = []struct {
			Message azureMessage `json:"message"`
		}{{Message: azureMessage{Content: "ok"}}}
		json.NewEncoder(w).Encode(resp)
	}))
	defer api.Close()

	a, err := NewAzure(azureTestConfig(tokenServer.URL, api.URL))
	if err != nil {
		t.Fatalf("NewAzure error: %v", err)
	}

	resp, err := a.Complete(context.Background(), CompletionRequest{UserPrompt: "x"})
	if err != nil {
		t.Fatalf("Complete error: %v", err)
	}
	if resp.Content != "ok" {
		t.Errorf("Content = %q, want ok", resp.Content)
	}
	if got := tokens.Load(); got != 2 {
		t.Errorf("token exchanges = %d, want 2 (initial + refresh)", got)
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("completion calls = %d, want 2 (original + retry)", got)
	}
}

func TestAzure_AuthErrorAfterRefresh(t *testing.T) {
	var tokens atomic.Int32
	tokenServer := newTokenServer(t, &tokens)
	defer tokenServer.Close()

	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(401)
		w.Write([]byte("still unauthorized"))
	}))
	defer api.Close()

	a, err := NewAzure(azureTestConfig(tokenServer.URL, api.URL))
	if err != nil {
		t.Fatalf("NewAzure error: %v", err)
	}

	_, err = a.Complete(context.Background(), CompletionRequest{UserPrompt: "x"})
	if err == nil {
		t.Fatal("expected error")
	}
	if !IsAuthError(err) {
		t.Errorf("IsAuthError = false for %v", err)
	}
	// Exactly one refresh, not a refresh loop.
	if got := tokens.Load(); got != 2 {
		t.Errorf("token exchanges = %d, want 2", got)
	}
}

func TestAzure_TokenExchangeFailure(t *testing.T) {
	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(400)
		w.Write([]byte("bad credentials"))
	}))
	defer tokenServer.Close()

	_, err := NewAzure(azureTestConfig(tokenServer.URL, "http://unused"))
	if err == nil {
		t.Fatal("expected error")
	}
	if !IsAuthError(err) {
		t.Errorf("IsAuthError = false for %v", err)
	}
}
