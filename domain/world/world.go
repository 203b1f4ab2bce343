package world

import (
	"fmt"
	"math/rand/v2"
)

// World is the mutable record of nodes and crews for a single run.
//
// Enumeration always follows insertion order. A World is not safe for
// concurrent use; give each run its own instance (see Clone).
type World struct {
	nodes     map[string]*Node
	nodeOrder []string
	crews     map[string]*Crew
	crewOrder []string

	seed uint64
	rng  *rand.Rand
}

// New creates an empty world.
func New() *World {
	w := &World{
		nodes: make(map[string]*Node),
		crews: make(map[string]*Crew),
	}
	w.Reseed(0)
	return w
}

// Reseed resets the random source used for repair duration estimates.
func (w *World) Reseed(seed uint64) {
	w.seed = seed
	w.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Seed returns the seed of the random source.
func (w *World) Seed() uint64 {
	return w.seed
}

// AddNode validates and appends a node.
func (w *World) AddNode(n Node) error {
	if n.ID == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidNode)
	}
	if _, exists := w.nodes[n.ID]; exists {
		return fmt.Errorf("%w: node %s", ErrDuplicateID, n.ID)
	}
	if !n.Status.IsValid() {
		return fmt.Errorf("%w: %s has status %q", ErrInvalidNode, n.ID, n.Status)
	}
	if !n.Criticality.IsValid() {
		return fmt.Errorf("%w: %s has criticality %q", ErrInvalidNode, n.ID, n.Criticality)
	}
	if n.PopulationAffected < 0 {
		return fmt.Errorf("%w: %s has negative population", ErrInvalidNode, n.ID)
	}

	node := n
	w.nodes[n.ID] = &node
	w.nodeOrder = append(w.nodeOrder, n.ID)
	return nil
}

// AddCrew validates and appends a crew.
func (w *World) AddCrew(c Crew) error {
	if c.ID == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidCrew)
	}
	if _, exists := w.crews[c.ID]; exists {
		return fmt.Errorf("%w: crew %s", ErrDuplicateID, c.ID)
	}
	if !c.Status.IsValid() {
		return fmt.Errorf("%w: %s has status %q", ErrInvalidCrew, c.ID, c.Status)
	}
	if c.Specialty == "" {
		return fmt.Errorf("%w: %s has no specialty", ErrInvalidCrew, c.ID)
	}

	crew := c
	w.crews[c.ID] = &crew
	w.crewOrder = append(w.crewOrder, c.ID)
	return nil
}

// Node returns a copy of the node with the given id.
func (w *World) Node(id string) (Node, bool) {
	n, ok := w.nodes[id]
	if !ok {
		return Node{}, false
	}
	return *n, true
}

// Crew returns a copy of the crew with the given id.
func (w *World) Crew(id string) (Crew, bool) {
	c, ok := w.crews[id]
	if !ok {
		return Crew{}, false
	}
	return *c, true
}

// Nodes returns copies of all nodes in insertion order.
func (w *World) Nodes() []Node {
	out := make([]Node, 0, len(w.nodeOrder))
	for _, id := range w.nodeOrder {
		out = append(out, *w.nodes[id])
	}
	return out
}

// Crews returns copies of all crews in insertion order.
func (w *World) Crews() []Crew {
	out := make([]Crew, 0, len(w.crewOrder))
	for _, id := range w.crewOrder {
		out = append(out, *w.crews[id])
	}
	return out
}

// DetectFailures returns the ids of nodes whose status is exactly Broken.
func (w *World) DetectFailures() []string {
	failures := make([]string, 0)
	for _, id := range w.nodeOrder {
		if w.nodes[id].Status == NodeBroken {
			failures = append(failures, id)
		}
	}
	return failures
}

// EstimateImpact returns the impact report for a node.
// An unknown id yields an *UnknownEntityError.
func (w *World) EstimateImpact(nodeID string) (ImpactReport, error) {
	n, ok := w.nodes[nodeID]
	if !ok {
		return ImpactReport{}, &UnknownEntityError{Kind: KindNode, ID: nodeID}
	}
	return ImpactReport{
		NodeID:             n.ID,
		Type:               n.Type,
		PopulationAffected: n.PopulationAffected,
		Criticality:        n.Criticality,
	}, nil
}

// CrewAvailability returns each crew's status in insertion order.
func (w *World) CrewAvailability() []CrewState {
	states := make([]CrewState, 0, len(w.crewOrder))
	for _, id := range w.crewOrder {
		states = append(states, CrewState{CrewID: id, Status: w.crews[id].Status})
	}
	return states
}

// AvailableCrews returns the ids of crews currently Available.
func (w *World) AvailableCrews() []string {
	ids := make([]string, 0)
	for _, id := range w.crewOrder {
		if w.crews[id].Status == CrewAvailable {
			ids = append(ids, id)
		}
	}
	return ids
}

// BusyCrews returns the ids of crews currently Busy.
func (w *World) BusyCrews() []string {
	ids := make([]string, 0)
	for _, id := range w.crewOrder {
		if w.crews[id].Status == CrewBusy {
			ids = append(ids, id)
		}
	}
	return ids
}

// Clone returns an independent deep copy, including the random seed.
func (w *World) Clone() *World {
	c := New()
	for _, id := range w.nodeOrder {
		n := *w.nodes[id]
		c.nodes[id] = &n
	}
	for _, id := range w.crewOrder {
		cr := *w.crews[id]
		c.crews[id] = &cr
	}
	c.nodeOrder = append(c.nodeOrder, w.nodeOrder...)
	c.crewOrder = append(c.crewOrder, w.crewOrder...)
	c.Reseed(w.seed)
	return c
}
