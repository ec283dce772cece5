package domain

import (
	"fmt"
	"time"
)

// Snapshot is the flat, serialisable form of a Topology used for caching
// and export.
type Snapshot struct {
	Name        string    `json:"name" msgpack:"name"`
	CreatedAt   time.Time `json:"created_at" msgpack:"created_at"`
	CreatedWith string    `json:"created_with" msgpack:"created_with"`
	Nodes       []*Node   `json:"nodes" msgpack:"nodes"`
	Edges       []*Edge   `json:"edges" msgpack:"edges"`
	Signals     []*Signal `json:"signals" msgpack:"signals"`
	Routes      []*Route  `json:"routes" msgpack:"routes"`
}

func (t *Topology) Snapshot() *Snapshot {
	return &Snapshot{
		Name:        t.Name,
		CreatedAt:   t.CreatedAt,
		CreatedWith: t.CreatedWith,
		Nodes:       t.Nodes(),
		Edges:       t.Edges(),
		Signals:     t.Signals(),
		Routes:      t.Routes(),
	}
}

// Restore rebuilds a Topology from a snapshot. Edge signal lists are taken
// from the snapshot as they are.
func (s *Snapshot) Restore() (*Topology, error) {
	t := NewTopology(s.Name)
	t.CreatedAt = s.CreatedAt
	t.CreatedWith = s.CreatedWith

	for _, n := range s.Nodes {
		if err := t.AddNode(n); err != nil {
			return nil, fmt.Errorf("restore: %w", err)
		}
	}
	for _, e := range s.Edges {
		if err := t.AddEdge(e); err != nil {
			return nil, fmt.Errorf("restore: %w", err)
		}
	}
	for _, sig := range s.Signals {
		if _, ok := t.signals[sig.ID]; ok {
			return nil, fmt.Errorf("restore: add signal %s: %w", sig.ID, ErrDuplicate)
		}
		if _, ok := t.edges[sig.EdgeID]; !ok {
			return nil, fmt.Errorf("restore: signal %s: edge %s: %w", sig.ID, sig.EdgeID, ErrMissingReference)
		}
		t.signals[sig.ID] = sig
	}
	for _, r := range s.Routes {
		if err := t.AddRoute(r); err != nil {
			return nil, fmt.Errorf("restore: %w", err)
		}
	}
	return t, nil
}
