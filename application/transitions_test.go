package application

import (
	"errors"
	"testing"

	"github.com/gkosnia163/ollama-agent/domain/agent"
	"github.com/gkosnia163/ollama-agent/domain/world"
)

func TestNextFixed(t *testing.T) {
	t.Parallel()

	pump := world.ImpactReport{NodeID: "pump", Type: "Water", PopulationAffected: 500, Criticality: "High"}

	tests := []struct {
		name    string
		phase   agent.Phase
		setup   func(m *agent.Memory)
		want    agent.Phase
		wantErr error
	}{
		{
			name:  "detect without failures",
			phase: agent.PhaseDetect,
			want:  agent.PhaseFinal,
		},
		{
			name:  "detect with failures",
			phase: agent.PhaseDetect,
			setup: func(m *agent.Memory) { m.SetFailures([]string{"pump"}) },
			want:  agent.PhaseAnalyze,
		},
		{
			name:  "analyze with pending failures",
			phase: agent.PhaseAnalyze,
			setup: func(m *agent.Memory) { m.SetFailures([]string{"pump", "relay"}); m.RecordImpact(pump) },
			want:  agent.PhaseAnalyze,
		},
		{
			name:  "analyze done",
			phase: agent.PhaseAnalyze,
			setup: func(m *agent.Memory) { m.SetFailures([]string{"pump"}); m.RecordImpact(pump) },
			want:  agent.PhasePlan,
		},
		{
			name:    "empty plan",
			phase:   agent.PhasePlan,
			want:    agent.PhaseFinal,
			wantErr: agent.ErrNoCompatibleCrew,
		},
		{
			name:  "plan ready",
			phase: agent.PhasePlan,
			setup: func(m *agent.Memory) { m.SetPlan([]world.Assignment{{NodeID: "pump", CrewID: "alpha"}}) },
			want:  agent.PhaseAct,
		},
		{
			name:  "act",
			phase: agent.PhaseAct,
			want:  agent.PhaseFinal,
		},
		{
			name:  "wait with free crew and undispatched failure",
			phase: agent.PhaseWait,
			setup: func(m *agent.Memory) { m.SetFailures([]string{"pump"}); m.RecordImpact(pump) },
			want:  agent.PhasePlan,
		},
		{
			name:  "wait with nothing to dispatch",
			phase: agent.PhaseWait,
			want:  agent.PhaseFinal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			w := world.New()
			if err := w.AddCrew(world.Crew{ID: "alpha", Status: world.CrewAvailable, Specialty: "General"}); err != nil {
				t.Fatal(err)
			}
			mem := agent.NewMemory()
			if tt.setup != nil {
				tt.setup(mem)
			}

			got, _, err := nextFixed(tt.phase, mem, w)
			if got != tt.want {
				t.Errorf("nextFixed() = %s, want %s", got, tt.want)
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("nextFixed() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestNextModel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		decision agent.Decision
		want     agent.Phase
		wantOK   bool
	}{
		{"declared phase", agent.NewDecision(agent.ActionPlanRepairs, "").WithNextPhase(agent.PhaseAct), agent.PhaseAct, true},
		{"no phase stays", agent.NewDecision(agent.ActionCheckCrews, ""), agent.PhasePlan, true},
		{"finalize without phase", agent.NewDecision(agent.ActionFinalize, ""), agent.PhaseFinal, true},
		{"unrecognized phase", agent.NewDecision(agent.ActionPlanRepairs, "").WithNextPhase(agent.Phase("LATER")), agent.PhasePlan, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, ok := nextModel(agent.PhasePlan, tt.decision)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("nextModel() = %s, %v; want %s, %v", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestPlanCameUpEmpty(t *testing.T) {
	t.Parallel()

	empty := agent.NewMemory()
	empty.SetPlan(nil)
	planned := agent.NewMemory()
	planned.SetPlan([]world.Assignment{{NodeID: "N1", CrewID: "C1"}})

	tests := []struct {
		name   string
		action agent.Action
		failed bool
		mem    *agent.Memory
		want   bool
	}{
		{"empty plan", agent.ActionPlanRepairs, false, empty, true},
		{"plan with assignments", agent.ActionPlanRepairs, false, planned, false},
		{"failed call", agent.ActionPlanRepairs, true, empty, false},
		{"other action", agent.ActionCheckCrews, false, empty, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := planCameUpEmpty(tt.action, tt.failed, tt.mem); got != tt.want {
				t.Errorf("planCameUpEmpty() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFixedArguments(t *testing.T) {
	t.Parallel()

	mem := agent.NewMemory()
	mem.SetFailures([]string{"pump", "relay"})

	t.Run("estimate keeps a pending provider target", func(t *testing.T) {
		t.Parallel()
		d := agent.NewDecision(agent.ActionEstimateImpact, "").WithArgument("node_id", "relay")
		args := fixedArguments(agent.ActionEstimateImpact, d, mem)
		if args["node_id"] != "relay" {
			t.Errorf("node_id = %v, want relay", args["node_id"])
		}
	})

	t.Run("estimate replaces an unknown target", func(t *testing.T) {
		t.Parallel()
		d := agent.NewDecision(agent.ActionEstimateImpact, "").WithArgument("node_id", "ghost")
		args := fixedArguments(agent.ActionEstimateImpact, d, mem)
		if args["node_id"] != "pump" {
			t.Errorf("node_id = %v, want pump", args["node_id"])
		}
	})

	t.Run("assign splits the plan", func(t *testing.T) {
		t.Parallel()
		planned := agent.NewMemory()
		planned.SetPlan([]world.Assignment{{NodeID: "pump", CrewID: "alpha"}})
		args := fixedArguments(agent.ActionAssignRepairCrew, agent.Decision{}, planned)
		nodes, _ := args["node_ids"].([]string)
		crews, _ := args["crew_ids"].([]string)
		if len(nodes) != 1 || nodes[0] != "pump" || len(crews) != 1 || crews[0] != "alpha" {
			t.Errorf("args = %v", args)
		}
	})
}
