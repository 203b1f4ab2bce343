package world

import (
	"reflect"
	"testing"
)

func TestCriticality_Rank(t *testing.T) {
	t.Parallel()

	tests := []struct {
		c    Criticality
		want int
	}{
		{CriticalityCritical, 4},
		{CriticalityHigh, 3},
		{CriticalityMedium, 2},
		{CriticalityLow, 1},
		{"Unknown", 0},
	}

	for _, tt := range tests {
		if got := tt.c.Rank(); got != tt.want {
			t.Errorf("%s.Rank() = %d, want %d", tt.c, got, tt.want)
		}
	}
}

func TestSortByPriority_CriticalityBeforePopulation(t *testing.T) {
	t.Parallel()

	reports := []ImpactReport{
		{NodeID: "high", Criticality: CriticalityHigh, PopulationAffected: 15000},
		{NodeID: "critical", Criticality: CriticalityCritical, PopulationAffected: 5000},
	}

	got := SortByPriority(reports)
	if got[0].NodeID != "critical" {
		t.Errorf("first = %s, want critical", got[0].NodeID)
	}
	if reports[0].NodeID != "high" {
		t.Error("SortByPriority() modified its input")
	}
}

func TestSortByPriority_Ties(t *testing.T) {
	t.Parallel()

	reports := []ImpactReport{
		{NodeID: "b", Criticality: CriticalityHigh, PopulationAffected: 100},
		{NodeID: "c", Criticality: CriticalityHigh, PopulationAffected: 900},
		{NodeID: "a", Criticality: CriticalityHigh, PopulationAffected: 100},
	}

	var ids []string
	for _, r := range SortByPriority(reports) {
		ids = append(ids, r.NodeID)
	}
	if want := []string{"c", "a", "b"}; !reflect.DeepEqual(ids, want) {
		t.Errorf("order = %v, want %v", ids, want)
	}
}

func TestMatcher(t *testing.T) {
	t.Parallel()

	m := DefaultMatcher()

	tests := []struct {
		specialty string
		nodeType  string
		score     int
		ok        bool
	}{
		{"Water", "Water", 0, true},
		{"water", "Water", 0, true},
		{"Electrical", "Power", 0, true},
		{"Network", "Telecom", 0, true},
		{"General", "Power", 1, true},
		{"Water", "Power", 0, false},
	}

	for _, tt := range tests {
		score, ok := m.Score(tt.specialty, tt.nodeType)
		if ok != tt.ok || (ok && score != tt.score) {
			t.Errorf("Score(%s, %s) = %d, %v, want %d, %v", tt.specialty, tt.nodeType, score, ok, tt.score, tt.ok)
		}
	}
}

func TestPlanRepairs_PrefersSpecialist(t *testing.T) {
	t.Parallel()

	w := New()
	mustAddNode(t, w, Node{ID: "power", Status: NodeBroken, Type: "Power", PopulationAffected: 100, Criticality: CriticalityHigh})
	mustAddCrew(t, w, Crew{ID: "general", Status: CrewAvailable, Specialty: "General"})
	mustAddCrew(t, w, Crew{ID: "electrical", Status: CrewAvailable, Specialty: "Electrical"})

	report, _ := w.EstimateImpact("power")
	plan := w.PlanRepairs([]ImpactReport{report}, DefaultMatcher())

	want := []Assignment{{NodeID: "power", CrewID: "electrical"}}
	if !reflect.DeepEqual(plan, want) {
		t.Errorf("PlanRepairs() = %v, want %v", plan, want)
	}
}

func TestPlanRepairs_SampleScenario(t *testing.T) {
	t.Parallel()

	w := sampleWorld(t)

	var reports []ImpactReport
	for _, id := range w.DetectFailures() {
		r, err := w.EstimateImpact(id)
		if err != nil {
			t.Fatalf("EstimateImpact(%s) error = %v", id, err)
		}
		reports = append(reports, r)
	}

	plan := w.PlanRepairs(reports, DefaultMatcher())

	// Power (Critical) takes the electrician; Water (High) takes the generalist;
	// the Telecom relay has nobody left.
	want := []Assignment{
		{NodeID: "Node_Power_Substation_C", CrewID: "Crew_Beta"},
		{NodeID: "Node_Water_Pump_A", CrewID: "Crew_Alpha"},
	}
	if !reflect.DeepEqual(plan, want) {
		t.Errorf("PlanRepairs() = %v, want %v", plan, want)
	}

	for _, c := range w.Crews() {
		if c.ID != "Crew_Gamma" && c.Status != CrewAvailable {
			t.Errorf("PlanRepairs() mutated crew %s", c.ID)
		}
	}
}

func TestPlanRepairs_NoCompatibleCrew(t *testing.T) {
	t.Parallel()

	w := New()
	mustAddNode(t, w, Node{ID: "pump", Status: NodeBroken, Type: "Water", PopulationAffected: 10, Criticality: CriticalityLow})
	mustAddCrew(t, w, Crew{ID: "sparky", Status: CrewAvailable, Specialty: "Electrical"})
	mustAddCrew(t, w, Crew{ID: "busy", Status: CrewBusy, Specialty: "General"})

	report, _ := w.EstimateImpact("pump")
	plan := w.PlanRepairs([]ImpactReport{report}, DefaultMatcher())
	if len(plan) != 0 {
		t.Errorf("PlanRepairs() = %v, want empty", plan)
	}
}

func TestPlanRepairs_IgnoresDuplicateReports(t *testing.T) {
	t.Parallel()

	w := New()
	mustAddNode(t, w, Node{ID: "pump", Status: NodeBroken, Type: "Water", PopulationAffected: 10, Criticality: CriticalityLow})
	mustAddCrew(t, w, Crew{ID: "g1", Status: CrewAvailable, Specialty: "General"})
	mustAddCrew(t, w, Crew{ID: "g2", Status: CrewAvailable, Specialty: "General"})

	report, _ := w.EstimateImpact("pump")
	plan := w.PlanRepairs([]ImpactReport{report, report}, DefaultMatcher())
	if len(plan) != 1 {
		t.Errorf("PlanRepairs() = %v, want one assignment", plan)
	}
}

func TestSplitPlan(t *testing.T) {
	t.Parallel()

	nodes, crews := SplitPlan([]Assignment{{NodeID: "n1", CrewID: "c1"}, {NodeID: "n2", CrewID: "c2"}})
	if !reflect.DeepEqual(nodes, []string{"n1", "n2"}) || !reflect.DeepEqual(crews, []string{"c1", "c2"}) {
		t.Errorf("SplitPlan() = %v, %v", nodes, crews)
	}
}

func mustAddNode(t *testing.T, w *World, n Node) {
	t.Helper()
	if err := w.AddNode(n); err != nil {
		t.Fatalf("AddNode(%s) error = %v", n.ID, err)
	}
}

func mustAddCrew(t *testing.T, w *World, c Crew) {
	t.Helper()
	if err := w.AddCrew(c); err != nil {
		t.Fatalf("AddCrew(%s) error = %v", c.ID, err)
	}
}
