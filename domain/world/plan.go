package world

import (
	"sort"
	"strings"
)

// Match scores used by the planner. Lower is better.
const (
	scoreExact   = 0
	scoreGeneral = 1
)

// Matcher decides which node types a crew specialty covers.
//
// A specialty always covers the node type with the same name (case-insensitive).
// Aliases extend that, e.g. "Electrical" covering "Power".
type Matcher struct {
	aliases map[string]map[string]bool
}

// DefaultAliases maps specialties to the node types they cover beyond their own name.
func DefaultAliases() map[string][]string {
	return map[string][]string{
		"Electrical": {"Power"},
		"Plumbing":   {"Water"},
		"Network":    {"Internet", "Telecom"},
	}
}

// NewMatcher creates a matcher with the given alias table.
func NewMatcher(aliases map[string][]string) Matcher {
	m := Matcher{aliases: make(map[string]map[string]bool, len(aliases))}
	for specialty, types := range aliases {
		key := strings.ToLower(specialty)
		if m.aliases[key] == nil {
			m.aliases[key] = make(map[string]bool, len(types))
		}
		for _, t := range types {
			m.aliases[key][strings.ToLower(t)] = true
		}
	}
	return m
}

// DefaultMatcher returns a matcher using DefaultAliases.
func DefaultMatcher() Matcher {
	return NewMatcher(DefaultAliases())
}

// Covers reports whether the specialty is an exact fit for the node type.
func (m Matcher) Covers(specialty, nodeType string) bool {
	if strings.EqualFold(specialty, nodeType) {
		return true
	}
	return m.aliases[strings.ToLower(specialty)][strings.ToLower(nodeType)]
}

// Score returns the match score of a specialty for a node type and whether the
// crew is eligible at all.
func (m Matcher) Score(specialty, nodeType string) (int, bool) {
	if m.Covers(specialty, nodeType) {
		return scoreExact, true
	}
	if strings.EqualFold(specialty, SpecialtyGeneral) {
		return scoreGeneral, true
	}
	return 0, false
}

// SortByPriority orders reports by criticality rank, then population, both
// descending, then node id ascending so that the order is total.
func SortByPriority(reports []ImpactReport) []ImpactReport {
	sorted := make([]ImpactReport, len(reports))
	copy(sorted, reports)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if ra, rb := a.Criticality.Rank(), b.Criticality.Rank(); ra != rb {
			return ra > rb
		}
		if a.PopulationAffected != b.PopulationAffected {
			return a.PopulationAffected > b.PopulationAffected
		}
		return a.NodeID < b.NodeID
	})
	return sorted
}

// PlanRepairs matches Available crews to the reported nodes.
//
// Reports are visited in priority order. Each node takes the best unclaimed
// crew: one whose specialty covers the node type, else a General crew, first
// in world order on ties. A claimed crew is not offered to later nodes in the
// same pass. Nodes without a candidate are left out. The world is not mutated.
func (w *World) PlanRepairs(reports []ImpactReport, m Matcher) []Assignment {
	claimed := make(map[string]bool)
	seen := make(map[string]bool)
	plan := make([]Assignment, 0)

	for _, r := range SortByPriority(reports) {
		if seen[r.NodeID] {
			continue
		}
		seen[r.NodeID] = true

		best, bestScore := "", -1
		for _, id := range w.crewOrder {
			crew := w.crews[id]
			if claimed[id] || crew.Status != CrewAvailable {
				continue
			}
			score, ok := m.Score(crew.Specialty, r.Type)
			if !ok {
				continue
			}
			if bestScore < 0 || score < bestScore {
				best, bestScore = id, score
			}
		}
		if best == "" {
			continue
		}

		claimed[best] = true
		plan = append(plan, Assignment{NodeID: r.NodeID, CrewID: best})
	}

	return plan
}

// SplitPlan returns the node and crew id lists for an assignment call.
func SplitPlan(plan []Assignment) (nodeIDs, crewIDs []string) {
	nodeIDs = make([]string, len(plan))
	crewIDs = make([]string, len(plan))
	for i, a := range plan {
		nodeIDs[i] = a.NodeID
		crewIDs[i] = a.CrewID
	}
	return nodeIDs, crewIDs
}
