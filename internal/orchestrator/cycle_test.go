package orchestrator

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/felixgeelhaar/statekit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quorumhq/quorum/internal/backend"
)

func newInterp(t *testing.T) *statekit.Interpreter[cycleContext] {
	t.Helper()
	interp, err := newCycleMachine("test")
	require.NoError(t, err)
	return interp
}

func sendEvent(i *statekit.Interpreter[cycleContext], event string) {
	i.Send(statekit.Event{Type: statekit.EventType(event)})
}

func interpState(i *statekit.Interpreter[cycleContext]) string {
	return string(i.State().Value)
}

func TestRunCycle_FullPipeline(t *testing.T) {
	server := reviewServer(t)
	defer server.Close()

	cfg := testConfig(server.URL)
	cfg.Agents = []string{"security", "style"}
	orch := newTestOrchestrator(t, cfg)

	res, err := orch.RunCycle(context.Background(), CycleRequest{
		Payload:     "x := 1",
		Parallel:    true,
		PrimaryPath: "main.go",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, res.ID)
	assert.Equal(t, StateDone, res.State)
	assert.False(t, res.Degraded)

	require.NotNil(t, res.Review)
	assert.Len(t, res.Review.AgentReviews, 2)
	assert.NotEmpty(t, res.Review.Summary)

	// Comment paths are normalized onto the primary path since the payload
	// carries no diff headers.
	require.Len(t, res.Comments, 1)
	assert.Equal(t, "main.go", res.Comments[0].FilePath)
}

func TestRunCycle_DiffPathsAnchorComments(t *testing.T) {
	server := reviewServer(t)
	defer server.Close()

	cfg := testConfig(server.URL)
	cfg.Agents = []string{"style"}
	orch := newTestOrchestrator(t, cfg)

	diff := "diff --git a/pkg/a.go b/pkg/a.go\n--- a/pkg/a.go\n+++ b/pkg/a.go\n@@ -1 +1 @@\n+x := 1\n"
	res, err := orch.RunCycle(context.Background(), CycleRequest{
		Payload:  diff,
		DiffOnly: true,
		Parallel: false,
	})
	require.NoError(t, err)

	require.Len(t, res.Comments, 1)
	assert.Equal(t, "pkg/a.go", res.Comments[0].FilePath)
}

func TestRunCycle_DegradedWhenAllReviewersFail(t *testing.T) {
	var reviewsServed bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Prompt string `json:"prompt"`
		}
		json.NewDecoder(r.Body).Decode(&req)

		// Consolidation prompts still succeed; reviewer prompts fail.
		if strings.Contains(req.Prompt, "return ONLY this JSON") {
			json.NewEncoder(w).Encode(map[string]string{"response": "[]"})
			return
		}
		if strings.Contains(req.Prompt, "senior technical lead") {
			json.NewEncoder(w).Encode(map[string]string{"response": "analysis"})
			return
		}
		reviewsServed = true
		w.WriteHeader(500)
	}))
	defer server.Close()

	cfg := testConfig(server.URL)
	cfg.Agents = []string{"security"}
	orch := newTestOrchestrator(t, cfg)

	res, err := orch.RunCycle(context.Background(), CycleRequest{
		Payload:     "x := 1",
		Parallel:    true,
		PrimaryPath: "main.go",
	})
	require.NoError(t, err)
	assert.True(t, reviewsServed)

	assert.True(t, res.Degraded)
	assert.Equal(t, StateDone, res.State, "a degraded cycle still runs to completion")
	assert.Equal(t, 5, res.Review.OverallScore, "default score with no reviewers")
	assert.Empty(t, res.Comments)
}

func TestRunCycle_CommentFailureIsDegradedNotFatal(t *testing.T) {
	server := reviewServer(t, func(prompt string) (string, bool) {
		if strings.Contains(prompt, "return ONLY this JSON") {
			return "no json for you", true
		}
		return "", false
	})
	defer server.Close()

	cfg := testConfig(server.URL)
	cfg.Agents = []string{"style"}
	orch := newTestOrchestrator(t, cfg)

	res, err := orch.RunCycle(context.Background(), CycleRequest{
		Payload:     "x := 1",
		Parallel:    true,
		PrimaryPath: "main.go",
	})
	require.NoError(t, err)

	assert.True(t, res.Degraded)
	assert.NotNil(t, res.Review, "consolidated review survives comment failure")
	assert.Len(t, res.Review.AgentReviews, 1)
	assert.Empty(t, res.Comments)
}

func TestEngine_DoublesTemperatureCapped(t *testing.T) {
	server := reviewServer(t)
	defer server.Close()

	cfg := testConfig(server.URL)
	cfg.Temperature = 0.7
	registry := backend.NewRegistry(cfg, nil)
	orch, err := New(registry, cfg, nil)
	require.NoError(t, err)

	_, err = orch.engine()
	require.NoError(t, err)

	keys := registry.Keys()
	require.Len(t, keys, 1)
	assert.Equal(t, "consolidation_agent_local_1.00", keys[0], "temperature doubles but caps at 1.0")
}

func TestCycleMachine_Transitions(t *testing.T) {
	interp := newInterp(t)

	assert.Equal(t, StateIdle, interpState(interp))

	for _, step := range []struct {
		event string
		want  string
	}{
		{eventDispatch, StateDispatching},
		{eventCollect, StateCollecting},
		{eventConsolidate, StateConsolidating},
		{eventRender, StateRendering},
		{eventComplete, StateDone},
	} {
		sendEvent(interp, step.event)
		assert.Equal(t, step.want, interpState(interp), "after %s", step.event)
	}
}

func TestCycleMachine_DegradedStillCompletes(t *testing.T) {
	interp := newInterp(t)

	sendEvent(interp, eventDispatch)
	sendEvent(interp, eventDegrade)
	assert.Equal(t, StateDegraded, interpState(interp))

	// Backward transitions are rejected; completion is the only way out.
	sendEvent(interp, eventCollect)
	assert.Equal(t, StateDegraded, interpState(interp))

	sendEvent(interp, eventComplete)
	assert.Equal(t, StateDone, interpState(interp))
}
