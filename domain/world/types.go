// Package world provides the mock infrastructure network the agent operates on.
//
// A World holds infrastructure nodes and repair crews. It is mutated only by
// crew assignment; everything else is a read. Repair completion is not
// modelled: a node moved to Repairing never returns to Operational and a crew
// moved to Busy never returns to Available within a run, so crews are
// effectively single-use.
package world

import "strings"

// NodeStatus is the operational status of an infrastructure node.
type NodeStatus string

const (
	NodeOperational NodeStatus = "Operational"
	NodeBroken      NodeStatus = "Broken"
	NodeRepairing   NodeStatus = "Repairing"
)

// IsValid returns true if the status is a recognized node status.
func (s NodeStatus) IsValid() bool {
	switch s {
	case NodeOperational, NodeBroken, NodeRepairing:
		return true
	default:
		return false
	}
}

// CrewStatus is the availability of a repair crew.
type CrewStatus string

const (
	CrewAvailable CrewStatus = "Available"
	CrewBusy      CrewStatus = "Busy"
)

// IsValid returns true if the status is a recognized crew status.
func (s CrewStatus) IsValid() bool {
	return s == CrewAvailable || s == CrewBusy
}

// Criticality ranks how important a node is to the population it serves.
type Criticality string

const (
	CriticalityLow      Criticality = "Low"
	CriticalityMedium   Criticality = "Medium"
	CriticalityHigh     Criticality = "High"
	CriticalityCritical Criticality = "Critical"
)

// Rank returns the ordering weight of the criticality (Critical=4 ... Low=1).
// Unknown values rank 0.
func (c Criticality) Rank() int {
	switch c {
	case CriticalityCritical:
		return 4
	case CriticalityHigh:
		return 3
	case CriticalityMedium:
		return 2
	case CriticalityLow:
		return 1
	default:
		return 0
	}
}

// IsValid returns true if the criticality is recognized.
func (c Criticality) IsValid() bool {
	return c.Rank() > 0
}

// SpecialtyGeneral is the fallback specialty able to work on any node type.
const SpecialtyGeneral = "General"

// Node is a unit of infrastructure.
type Node struct {
	ID                 string      `json:"-" yaml:"-"`
	Status             NodeStatus  `json:"status" yaml:"status"`
	Type               string      `json:"type" yaml:"type"`
	PopulationAffected int         `json:"population_affected" yaml:"population_affected"`
	Criticality        Criticality `json:"criticality" yaml:"criticality"`
}

// Crew is a repair resource.
type Crew struct {
	ID        string     `json:"-" yaml:"-"`
	Status    CrewStatus `json:"status" yaml:"status"`
	Specialty string     `json:"specialty" yaml:"specialty"`
}

// IsGeneral reports whether the crew carries the fallback specialty.
func (c Crew) IsGeneral() bool {
	return strings.EqualFold(c.Specialty, SpecialtyGeneral)
}

// ImpactReport is a read-only snapshot of a node's social impact.
type ImpactReport struct {
	NodeID             string      `json:"node_id"`
	Type               string      `json:"type"`
	PopulationAffected int         `json:"population_affected"`
	Criticality        Criticality `json:"criticality"`
}

// Assignment pairs a node with the crew planned to repair it.
type Assignment struct {
	NodeID string `json:"node"`
	CrewID string `json:"crew"`
}

// CrewState is a crew id with its current status.
type CrewState struct {
	CrewID string     `json:"crew_id"`
	Status CrewStatus `json:"status"`
}
