package world

import (
	"encoding/json"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Document is the serialized form of a world. Nodes and crews are keyed by
// id in insertion order. Seed is optional on input.
type Document struct {
	Nodes *orderedmap.OrderedMap[string, Node] `json:"nodes" yaml:"nodes"`
	Crews *orderedmap.OrderedMap[string, Crew] `json:"crews" yaml:"crews"`
	Seed  *uint64                              `json:"seed,omitempty" yaml:"seed,omitempty"`
}

// Document returns the serialized form of the world, seed included.
func (w *World) Document() Document {
	nodes := orderedmap.New[string, Node]()
	for _, id := range w.nodeOrder {
		nodes.Set(id, *w.nodes[id])
	}
	crews := orderedmap.New[string, Crew]()
	for _, id := range w.crewOrder {
		crews.Set(id, *w.crews[id])
	}
	seed := w.seed
	return Document{Nodes: nodes, Crews: crews, Seed: &seed}
}

// FromDocument builds a world from its serialized form. A seed carried by
// the document takes precedence over seed.
func FromDocument(doc Document, seed uint64) (*World, error) {
	if doc.Seed != nil {
		seed = *doc.Seed
	}
	w := New()
	w.Reseed(seed)

	if doc.Nodes != nil {
		for pair := doc.Nodes.Oldest(); pair != nil; pair = pair.Next() {
			n := pair.Value
			n.ID = pair.Key
			if err := w.AddNode(n); err != nil {
				return nil, err
			}
		}
	}
	if doc.Crews != nil {
		for pair := doc.Crews.Oldest(); pair != nil; pair = pair.Next() {
			c := pair.Value
			c.ID = pair.Key
			if err := w.AddCrew(c); err != nil {
				return nil, err
			}
		}
	}
	return w, nil
}

// MarshalJSON encodes the world as {"nodes": {...}, "crews": {...}, "seed": n}
// keeping insertion order.
func (w *World) MarshalJSON() ([]byte, error) {
	return json.Marshal(w.Document())
}

// UnmarshalJSON decodes a world document. Without a seed in the document the
// receiver's seed is kept.
func (w *World) UnmarshalJSON(data []byte) error {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	fresh, err := FromDocument(doc, w.seed)
	if err != nil {
		return err
	}
	*w = *fresh
	return nil
}

// AvailabilityJSON encodes crew states as an ordered {"crew": "status"} object.
func AvailabilityJSON(states []CrewState) ([]byte, error) {
	m := orderedmap.New[string, CrewStatus]()
	for _, s := range states {
		m.Set(s.CrewID, s.Status)
	}
	return json.Marshal(m)
}
