package orchestrator

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/statekit"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/quorumhq/quorum/internal/backend"
	"github.com/quorumhq/quorum/internal/consolidate"
	"github.com/quorumhq/quorum/internal/diffutil"
)

// Review cycle states. Degraded is reachable from any working state and the
// cycle still runs to completion from it with whatever it has.
const (
	StateIdle          = "idle"
	StateDispatching   = "dispatching"
	StateCollecting    = "collecting"
	StateConsolidating = "consolidating"
	StateRendering     = "rendering"
	StateDegraded      = "degraded"
	StateDone          = "done"
)

const (
	eventDispatch    = "dispatch"
	eventCollect     = "collect"
	eventConsolidate = "consolidate"
	eventRender      = "render"
	eventComplete    = "complete"
	eventDegrade     = "degrade"
)

// cycleContext travels with the state machine for observability.
type cycleContext struct {
	CycleID string
}

// CycleResult is the outcome of one full review cycle.
type CycleResult struct {
	ID       string
	Review   *consolidate.Consolidated
	Comments []consolidate.Comment
	State    string
	Degraded bool
}

// CycleRequest describes one review cycle.
type CycleRequest struct {
	Payload  string
	DiffOnly bool
	Parallel bool
	// PrimaryPath anchors comments when the payload is a single file.
	PrimaryPath string
}

// newCycleMachine builds the review cycle state machine and returns a
// started interpreter for it. Transitions only move forward; there is no
// retry edge because retries happen inside the stages, not between them.
func newCycleMachine(id string) (*statekit.Interpreter[cycleContext], error) {
	builder := statekit.NewMachine[cycleContext]("review-cycle").
		WithInitial(statekit.StateID(StateIdle)).
		WithContext(cycleContext{CycleID: id})

	builder.State(statekit.StateID(StateIdle)).
		On(eventDispatch).Target(statekit.StateID(StateDispatching)).Done()
	builder.State(statekit.StateID(StateDispatching)).
		On(eventCollect).Target(statekit.StateID(StateCollecting)).
		On(eventDegrade).Target(statekit.StateID(StateDegraded)).Done()
	builder.State(statekit.StateID(StateCollecting)).
		On(eventConsolidate).Target(statekit.StateID(StateConsolidating)).
		On(eventDegrade).Target(statekit.StateID(StateDegraded)).Done()
	builder.State(statekit.StateID(StateConsolidating)).
		On(eventRender).Target(statekit.StateID(StateRendering)).
		On(eventDegrade).Target(statekit.StateID(StateDegraded)).Done()
	builder.State(statekit.StateID(StateRendering)).
		On(eventComplete).Target(statekit.StateID(StateDone)).
		On(eventDegrade).Target(statekit.StateID(StateDegraded)).Done()
	builder.State(statekit.StateID(StateDegraded)).
		On(eventComplete).Target(statekit.StateID(StateDone)).Done()
	builder.State(statekit.StateID(StateDone)).Done()

	machine, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("building review cycle machine: %w", err)
	}

	interp := statekit.NewInterpreter(machine)
	interp.Start()
	return interp, nil
}

// engine acquires the consolidation backend client. Consolidation runs
// hotter than the reviewers, at double the configured temperature capped at
// 1.0, to favor synthesis over repetition.
func (o *Orchestrator) engine() (*consolidate.Engine, error) {
	temp := o.temperature * 2
	if temp > 1.0 {
		temp = 1.0
	}
	client, err := o.registry.Acquire("consolidation_agent", o.kind, temp)
	if err != nil {
		return nil, err
	}
	resilient := backend.NewResilient(client, o.timeout, 1)
	return consolidate.NewEngine(resilient, temp, o.retries, o.logger), nil
}

// RunCycle drives one full review cycle: dispatch, collect, consolidate,
// render. Degradation (no reviewer succeeded, or comment generation fell
// back to empty) is recorded in the result and on the state machine but does
// not abort the cycle; whatever was produced is still returned.
func (o *Orchestrator) RunCycle(ctx context.Context, req CycleRequest) (*CycleResult, error) {
	id := uuid.NewString()
	logger := o.logger.With(zap.String("cycle", id))

	interp, err := newCycleMachine(id)
	if err != nil {
		return nil, err
	}

	send := func(event string) {
		interp.Send(statekit.Event{Type: statekit.EventType(event)})
	}

	send(eventDispatch)
	logger.Info("review cycle started",
		zap.Int("agents", len(o.enabled)),
		zap.Bool("parallel", req.Parallel))

	results, err := o.Run(ctx, req.Payload, req.DiffOnly, req.Parallel)
	if err != nil {
		return nil, err
	}

	degraded := false
	if len(results) == 0 {
		// All reviewers failed; consolidation still produces the
		// default-score result.
		send(eventDegrade)
		degraded = true
		logger.Warn("all reviewers failed, continuing with empty review set")
	} else {
		send(eventCollect)
		send(eventConsolidate)
	}

	eng, err := o.engine()
	if err != nil {
		return nil, err
	}

	review := eng.Consolidate(ctx, results, req.Payload)

	if !degraded {
		send(eventRender)
	}

	knownPaths := diffutil.Paths(req.Payload)
	primaryPath := req.PrimaryPath
	if primaryPath == "" {
		primaryPath = "unknown"
	}

	comments, commentsDegraded := eng.GenerateComments(ctx, review, primaryPath, knownPaths)
	if commentsDegraded && !degraded {
		send(eventDegrade)
		degraded = true
	}

	send(eventComplete)
	state := string(interp.State().Value)

	logger.Info("review cycle finished",
		zap.String("state", state),
		zap.Int("score", review.OverallScore),
		zap.Int("comments", len(comments)),
		zap.Bool("degraded", degraded))

	return &CycleResult{
		ID:       id,
		Review:   review,
		Comments: comments,
		State:    state,
		Degraded: degraded,
	}, nil
}
