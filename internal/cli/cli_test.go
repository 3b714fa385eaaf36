package cli

import (
	"testing"

	"github.com/quorumhq/quorum/internal/agent"
	"github.com/quorumhq/quorum/internal/consolidate"
	"github.com/quorumhq/quorum/internal/orchestrator"
)

func resetFlags() {
	flagBackend = ""
	flagLocal = false
	flagAgents = ""
	flagTemperature = -1
	flagSequential = false
	flagFormat = ""
	flagCommentsJSON = false
	flagTimeout = 0
}

func TestBuildOverrides(t *testing.T) {
	resetFlags()
	defer resetFlags()

	flagBackend = "azure"
	flagAgents = "security,style"
	flagTemperature = 0.5
	flagSequential = true
	flagFormat = "json"
	flagTimeout = 60

	m := buildOverrides()
	want := map[string]string{
		"backend":        "azure",
		"agents":         "security,style",
		"temperature":    "0.5",
		"parallel":       "false",
		"format":         "json",
		"timeoutSeconds": "60",
	}
	for k, v := range want {
		if m[k] != v {
			t.Errorf("overrides[%q] = %q, want %q", k, m[k], v)
		}
	}
}

func TestBuildOverrides_EmptyByDefault(t *testing.T) {
	resetFlags()
	if m := buildOverrides(); len(m) != 0 {
		t.Errorf("overrides = %v, want empty", m)
	}
}

func TestBuildOverrides_Shorthands(t *testing.T) {
	resetFlags()
	defer resetFlags()

	flagLocal = true
	flagCommentsJSON = true

	m := buildOverrides()
	if m["backend"] != "local" {
		t.Errorf("overrides[backend] = %q, want local", m["backend"])
	}
	if m["format"] != "comments" {
		t.Errorf("overrides[format] = %q, want comments", m["format"])
	}

	// Explicit flags beat shorthands.
	flagBackend = "azure"
	flagFormat = "json"
	m = buildOverrides()
	if m["backend"] != "azure" || m["format"] != "json" {
		t.Errorf("explicit flags should win: %v", m)
	}
}

func TestMeetsFailThreshold(t *testing.T) {
	res := &orchestrator.CycleResult{
		Review: &consolidate.Consolidated{
			SeverityDistribution: map[agent.Severity]int{
				agent.SeverityHigh: 2,
				agent.SeverityLow:  1,
			},
		},
	}

	tests := []struct {
		failOn string
		want   bool
	}{
		{"", false},
		{"none", false},
		{"critical", false},
		{"high", true},
		{"medium", true},
		{"low", true},
		{"HIGH", true},
		{"bogus", false},
	}

	for _, tt := range tests {
		if got := meetsFailThreshold(res, tt.failOn); got != tt.want {
			t.Errorf("meetsFailThreshold(%q) = %v, want %v", tt.failOn, got, tt.want)
		}
	}
}

func TestMaskSecret(t *testing.T) {
	if maskSecret("") != "" {
		t.Error("empty secret should stay empty")
	}
	if maskSecret("hunter2") != "********" {
		t.Error("secret should be masked")
	}
}
