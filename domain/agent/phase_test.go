package agent

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParsePhase(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    Phase
		wantErr bool
	}{
		{"DETECT", PhaseDetect, false},
		{"analyze", PhaseAnalyze, false},
		{" Plan ", PhasePlan, false},
		{"act", PhaseAct, false},
		{"WAIT", PhaseWait, false},
		{"final", PhaseFinal, false},
		{"REPAIR", "", true},
		{"", "", true},
		{"3", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()

			got, err := ParsePhase(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidPhase) {
					t.Errorf("ParsePhase(%q) error = %v, want ErrInvalidPhase", tt.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParsePhase(%q) error = %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParsePhase(%q) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
}

func TestPhase_IsTerminal(t *testing.T) {
	t.Parallel()

	for _, p := range AllPhases() {
		if got := p.IsTerminal(); got != (p == PhaseFinal) {
			t.Errorf("%s.IsTerminal() = %v", p, got)
		}
	}
	if len(NonTerminalPhases()) != len(AllPhases())-1 {
		t.Error("NonTerminalPhases() should exclude exactly FINAL")
	}
}

func TestPhase_JSONByName(t *testing.T) {
	t.Parallel()

	data, err := json.Marshal(struct {
		P Phase `json:"p"`
	}{PhaseAnalyze})
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if string(data) != `{"p":"ANALYZE"}` {
		t.Errorf("Marshal() = %s", data)
	}

	var v struct {
		P Phase `json:"p"`
	}
	if err := json.Unmarshal([]byte(`{"p":"nowhere"}`), &v); err == nil {
		t.Error("Unmarshal() accepted an unknown phase")
	}
}

func TestParseAction(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want Action
	}{
		{"detect_failure_nodes", ActionDetectFailures},
		{"Estimate_Impact", ActionEstimateImpact},
		{" check_crew_availability", ActionCheckCrews},
		{"plan_repairs", ActionPlanRepairs},
		{"assign_repair_crew", ActionAssignRepairCrew},
		{"finalize", ActionFinalize},
		{"rm -rf /", ActionUnknown},
		{"", ActionUnknown},
	}

	for _, tt := range tests {
		if got := ParseAction(tt.in); got != tt.want {
			t.Errorf("ParseAction(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestParseStrategy(t *testing.T) {
	t.Parallel()

	if s, err := ParseStrategy("Model"); err != nil || s != StrategyModel {
		t.Errorf("ParseStrategy(Model) = %s, %v", s, err)
	}
	if _, err := ParseStrategy("random"); !errors.Is(err, ErrInvalidStrategy) {
		t.Errorf("ParseStrategy(random) error = %v, want ErrInvalidStrategy", err)
	}
}
