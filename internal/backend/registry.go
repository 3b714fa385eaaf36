package backend

import (
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/quorumhq/quorum/internal/config"
)

// registryKey identifies one shared client instance.
type registryKey struct {
	Consumer    string
	Kind        Kind
	Temperature float64
}

func (k registryKey) String() string {
	return fmt.Sprintf("%s_%s_%.2f", k.Consumer, k.Kind, k.Temperature)
}

// Registry hands out shared Client instances keyed by (consumer, kind,
// temperature). Clients are constructed lazily on first use and reused
// thereafter; concurrent first use of the same key yields a single instance.
// There is no eviction beyond an explicit Clear — stale tokens are the
// client's problem, not the registry's.
type Registry struct {
	cfg    config.Config
	logger *zap.Logger

	// construct is swappable for tests.
	construct func(kind Kind, cfg config.Config) (Client, error)

	mu      sync.Mutex
	clients map[registryKey]Client
}

// NewRegistry creates an empty registry bound to the given configuration.
func NewRegistry(cfg config.Config, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		cfg:       cfg,
		logger:    logger,
		construct: New,
		clients:   make(map[registryKey]Client),
	}
}

// Acquire returns the shared client for (consumer, kind, temperature),
// constructing it on first use. Lookup-or-create is atomic per registry.
func (r *Registry) Acquire(consumer string, kind Kind, temperature float64) (Client, error) {
	key := registryKey{Consumer: consumer, Kind: kind, Temperature: temperature}

	r.mu.Lock()
	defer r.mu.Unlock()

	if c, ok := r.clients[key]; ok {
		r.logger.Debug("reusing cached backend client", zap.String("key", key.String()))
		return c, nil
	}

	c, err := r.construct(kind, r.cfg)
	if err != nil {
		return nil, err
	}
	r.logger.Info("created backend client", zap.String("key", key.String()))
	r.clients[key] = c
	return c, nil
}

// Clear drops every cached client. Subsequent Acquire calls reconstruct.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients = make(map[registryKey]Client)
	r.logger.Info("backend client registry cleared")
}

// Keys returns the cached client keys in sorted order.
func (r *Registry) Keys() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	keys := make([]string, 0, len(r.clients))
	for k := range r.clients {
		keys = append(keys, k.String())
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of cached clients.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.clients)
}
