package backend

import (
	"context"
	"fmt"

	"github.com/quorumhq/quorum/internal/config"
)

// Kind selects a backend implementation.
type Kind string

const (
	KindLocal Kind = "local"
	KindAzure Kind = "azure"
)

// CompletionRequest contains the data sent to a backend for one completion.
type CompletionRequest struct {
	SystemPrompt string
	UserPrompt   string
	Temperature  float64
	MaxTokens    int
}

// CompletionResponse contains the raw reply from a backend.
type CompletionResponse struct {
	Content    string
	TokensUsed int
}

// Client is the backend abstraction shared by all review agents.
type Client interface {
	Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error)
	Name() string
}

// ParseKind validates a backend name.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindLocal, KindAzure:
		return Kind(s), nil
	}
	return "", fmt.Errorf("unknown backend: %q (valid backends: local, azure)", s)
}

// New creates a client for the given kind from configuration. Missing
// credentials surface as a *ConfigError and are fatal at construction time.
func New(kind Kind, cfg config.Config) (Client, error) {
	switch kind {
	case KindLocal:
		return NewLocal(cfg.Local.URL, cfg.Local.Model), nil
	case KindAzure:
		return NewAzure(cfg.Azure)
	default:
		return nil, fmt.Errorf("unknown backend kind: %s", kind)
	}
}
