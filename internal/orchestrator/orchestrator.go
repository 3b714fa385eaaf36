package orchestrator

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/quorumhq/quorum/internal/agent"
	"github.com/quorumhq/quorum/internal/backend"
	"github.com/quorumhq/quorum/internal/config"
)

// Orchestrator fans one payload out to the enabled reviewers and collects
// their results. Reviewer failures are absorbed, not propagated: a run
// returns the results of whoever succeeded.
type Orchestrator struct {
	registry    *backend.Registry
	kind        backend.Kind
	temperature float64
	enabled     []agent.Category
	timeout     time.Duration
	retries     int
	logger      *zap.Logger
}

// New builds an orchestrator from the effective configuration. Unknown
// backend or agent names are fatal here, before any backend call is made.
func New(registry *backend.Registry, cfg config.Config, logger *zap.Logger) (*Orchestrator, error) {
	kind, err := backend.ParseKind(cfg.Backend)
	if err != nil {
		return nil, err
	}

	enabled := agent.AllCategories()
	if len(cfg.Agents) > 0 {
		enabled, err = agent.ParseCategories(cfg.Agents)
		if err != nil {
			return nil, err
		}
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	return &Orchestrator{
		registry:    registry,
		kind:        kind,
		temperature: cfg.Temperature,
		enabled:     enabled,
		timeout:     time.Duration(cfg.TimeoutSeconds) * time.Second,
		retries:     cfg.CommentRetries,
		logger:      logger,
	}, nil
}

// Enabled returns the enabled categories in dispatch order.
func (o *Orchestrator) Enabled() []agent.Category {
	out := make([]agent.Category, len(o.enabled))
	copy(out, o.enabled)
	return out
}

// reviewers acquires a shared backend client per category and wraps each in
// a reviewer. Client construction failure is fatal: it means credentials or
// configuration are wrong, not that the service is down.
func (o *Orchestrator) reviewers() ([]*agent.Reviewer, error) {
	out := make([]*agent.Reviewer, 0, len(o.enabled))
	for _, c := range o.enabled {
		client, err := o.registry.Acquire(string(c)+"_agent", o.kind, o.temperature)
		if err != nil {
			return nil, err
		}
		resilient := backend.NewResilient(client, o.timeout, 1)
		out = append(out, agent.NewReviewer(c, resilient, o.temperature, o.logger))
	}
	return out, nil
}

// Run reviews the payload with every enabled reviewer. In parallel mode all
// reviewers run concurrently, each under its own deadline; results arrive in
// completion order. A reviewer that fails or times out is logged and
// excluded without affecting its siblings.
func (o *Orchestrator) Run(ctx context.Context, payload string, diffOnly, parallel bool) ([]agent.Result, error) {
	// No enabled reviewers means no review is possible, which is an empty
	// outcome rather than a failure.
	if len(o.enabled) == 0 {
		o.logger.Warn("no review agents enabled, no review possible")
		return nil, nil
	}

	reviewers, err := o.reviewers()
	if err != nil {
		return nil, err
	}

	if !parallel {
		return o.runSequential(ctx, reviewers, payload, diffOnly), nil
	}
	return o.runParallel(ctx, reviewers, payload, diffOnly), nil
}

func (o *Orchestrator) runSequential(ctx context.Context, reviewers []*agent.Reviewer, payload string, diffOnly bool) []agent.Result {
	var results []agent.Result
	for _, r := range reviewers {
		if res := o.runOne(ctx, r, payload, diffOnly); res != nil {
			results = append(results, *res)
		}
	}
	return results
}

func (o *Orchestrator) runParallel(ctx context.Context, reviewers []*agent.Reviewer, payload string, diffOnly bool) []agent.Result {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(len(reviewers))

	resultCh := make(chan agent.Result, len(reviewers))
	for _, r := range reviewers {
		r := r
		g.Go(func() error {
			if res := o.runOne(gctx, r, payload, diffOnly); res != nil {
				resultCh <- *res
			}
			return nil
		})
	}

	// Workers never return errors; Wait only synchronizes completion.
	_ = g.Wait()
	close(resultCh)

	var results []agent.Result
	for res := range resultCh {
		results = append(results, res)
	}
	return results
}

// runOne applies the per-reviewer deadline and turns every failure mode into
// a nil result.
func (o *Orchestrator) runOne(ctx context.Context, r *agent.Reviewer, payload string, diffOnly bool) *agent.Result {
	rctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	start := time.Now()
	res := r.Review(rctx, payload, diffOnly)
	elapsed := time.Since(start)

	if res == nil {
		o.logger.Warn("reviewer excluded from consolidation",
			zap.String("agent", string(r.Category())),
			zap.Duration("elapsed", elapsed))
		return nil
	}

	o.logger.Info("reviewer completed",
		zap.String("agent", string(r.Category())),
		zap.Int("score", res.Score),
		zap.Int("findings", len(res.Findings)),
		zap.Duration("elapsed", elapsed))
	return res
}
