package domain

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/paulmach/orb"
)

var (
	ErrDuplicate        = errors.New("duplicate identity")
	ErrMissingReference = errors.New("missing reference")
)

// Topology owns every node, edge, signal and route of one import. Entities
// refer to each other by ID; all navigation goes through the maps here.
type Topology struct {
	Name        string
	CreatedAt   time.Time
	CreatedWith string

	nodes   map[string]*Node
	edges   map[string]*Edge
	signals map[string]*Signal
	routes  map[string]*Route
}

func NewTopology(name string) *Topology {
	return &Topology{
		Name:    name,
		nodes:   make(map[string]*Node),
		edges:   make(map[string]*Edge),
		signals: make(map[string]*Signal),
		routes:  make(map[string]*Route),
	}
}

func (t *Topology) AddNode(n *Node) error {
	if _, ok := t.nodes[n.ID]; ok {
		return fmt.Errorf("add node %s: %w", n.ID, ErrDuplicate)
	}
	t.nodes[n.ID] = n
	return nil
}

// AddEdge requires both endpoints to be present already.
func (t *Topology) AddEdge(e *Edge) error {
	if _, ok := t.edges[e.ID]; ok {
		return fmt.Errorf("add edge %s: %w", e.ID, ErrDuplicate)
	}
	for _, id := range []string{e.NodeA, e.NodeB} {
		if _, ok := t.nodes[id]; !ok {
			return fmt.Errorf("add edge %s: node %s: %w", e.ID, id, ErrMissingReference)
		}
	}
	t.edges[e.ID] = e
	return nil
}

// AddSignal registers s and appends it to its edge's signal list.
func (t *Topology) AddSignal(s *Signal) error {
	if _, ok := t.signals[s.ID]; ok {
		return fmt.Errorf("add signal %s: %w", s.ID, ErrDuplicate)
	}
	edge, ok := t.edges[s.EdgeID]
	if !ok {
		return fmt.Errorf("add signal %s: edge %s: %w", s.ID, s.EdgeID, ErrMissingReference)
	}
	t.signals[s.ID] = s
	edge.Signals = append(edge.Signals, s.ID)
	return nil
}

func (t *Topology) AddRoute(r *Route) error {
	if _, ok := t.routes[r.ID]; ok {
		return fmt.Errorf("add route %s: %w", r.ID, ErrDuplicate)
	}
	for _, id := range []string{r.StartSignalID, r.EndSignalID} {
		if _, ok := t.signals[id]; !ok {
			return fmt.Errorf("add route %s: signal %s: %w", r.ID, id, ErrMissingReference)
		}
	}
	for _, id := range r.EdgeIDs {
		if _, ok := t.edges[id]; !ok {
			return fmt.Errorf("add route %s: edge %s: %w", r.ID, id, ErrMissingReference)
		}
	}
	t.routes[r.ID] = r
	return nil
}

func (t *Topology) Node(id string) (*Node, bool) {
	n, ok := t.nodes[id]
	return n, ok
}

func (t *Topology) Edge(id string) (*Edge, bool) {
	e, ok := t.edges[id]
	return e, ok
}

func (t *Topology) Signal(id string) (*Signal, bool) {
	s, ok := t.signals[id]
	return s, ok
}

func (t *Topology) Route(id string) (*Route, bool) {
	r, ok := t.routes[id]
	return r, ok
}

// Nodes returns all nodes ordered by ID. The same holds for Edges, Signals
// and Routes.
func (t *Topology) Nodes() []*Node {
	return sortedValues(t.nodes)
}

func (t *Topology) Edges() []*Edge {
	return sortedValues(t.edges)
}

func (t *Topology) Signals() []*Signal {
	return sortedValues(t.signals)
}

func (t *Topology) Routes() []*Route {
	return sortedValues(t.routes)
}

// Counts holds the sizes of the four mappings
type Counts struct {
	Nodes   int `json:"nodes"`
	Edges   int `json:"edges"`
	Signals int `json:"signals"`
	Routes  int `json:"routes"`
}

func (t *Topology) Counts() Counts {
	return Counts{
		Nodes:   len(t.nodes),
		Edges:   len(t.edges),
		Signals: len(t.signals),
		Routes:  len(t.routes),
	}
}

// LineString returns the polyline of an edge from NodeA to NodeB. Endpoints
// without a position are left out.
func (t *Topology) LineString(edgeID string) (orb.LineString, bool) {
	e, ok := t.edges[edgeID]
	if !ok {
		return nil, false
	}
	ls := make(orb.LineString, 0, len(e.IntermediateGeoPoints)+2)
	if a, ok := t.nodes[e.NodeA]; ok && a.Geo != nil {
		ls = append(ls, a.Geo.Point())
	}
	for _, p := range e.IntermediateGeoPoints {
		ls = append(ls, p.Point())
	}
	if b, ok := t.nodes[e.NodeB]; ok && b.Geo != nil {
		ls = append(ls, b.Geo.Point())
	}
	return ls, true
}

func sortedValues[T Entity](m map[string]T) []T {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]T, len(keys))
	for i, k := range keys {
		out[i] = m[k]
	}
	return out
}
