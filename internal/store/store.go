package store

import (
	"sort"
	"sync"
	"time"

	"planpro/internal/domain"
	"planpro/internal/importer"
	"planpro/pkg/planpro"
)

const maxQueryCells = 4096

type NodeListOptions struct {
	BBox       *domain.BoundingBox
	PointsOnly bool
}

type SignalListOptions struct {
	EdgeID   string
	Function *domain.SignalFunction
}

// Meta describes where the current topology came from.
type Meta struct {
	RunID       string          `json:"run_id"`
	Source      string          `json:"source"`
	Fingerprint string          `json:"fingerprint"`
	Version     planpro.Version `json:"version"`
	ImportedAt  time.Time       `json:"imported_at"`
	Duration    time.Duration   `json:"duration"`
}

// Store holds the most recent sealed topology. The topology itself is never
// mutated after Update; readers get copies of the entities.
type Store struct {
	mu          sync.RWMutex
	topology    *domain.Topology
	meta        Meta
	diagnostics []importer.Diagnostic

	byCell        map[string]map[string]struct{}
	signalsByFn   map[domain.SignalFunction]map[string]struct{}
	signalsByEdge map[string]map[string]struct{}

	cellSize   float64
	lastUpdate time.Time
}

func New(cellSize float64) *Store {
	return &Store{
		byCell:        make(map[string]map[string]struct{}),
		signalsByFn:   make(map[domain.SignalFunction]map[string]struct{}),
		signalsByEdge: make(map[string]map[string]struct{}),
		cellSize:      cellSize,
	}
}

// Update replaces the topology with the one of result.
func (s *Store) Update(result *importer.Result) {
	byCell := make(map[string]map[string]struct{})
	for _, n := range result.Topology.Nodes() {
		if n.Geo == nil {
			continue
		}
		addToIndex(byCell, CellID(n.Geo.X, n.Geo.Y, s.cellSize), n.ID)
	}
	byFn := make(map[domain.SignalFunction]map[string]struct{})
	byEdge := make(map[string]map[string]struct{})
	for _, sig := range result.Topology.Signals() {
		addToIndex(byFn, sig.Function, sig.ID)
		addToIndex(byEdge, sig.EdgeID, sig.ID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.topology = result.Topology
	s.diagnostics = result.Diagnostics
	s.meta = Meta{
		RunID:       result.RunID,
		Source:      result.Source,
		Fingerprint: result.Fingerprint,
		Version:     result.Version,
		ImportedAt:  result.ImportedAt,
		Duration:    result.Duration,
	}
	s.byCell = byCell
	s.signalsByFn = byFn
	s.signalsByEdge = byEdge
	s.lastUpdate = time.Now()
}

// Topology returns the current sealed topology or nil before the first
// import. Callers must not modify it.
func (s *Store) Topology() *domain.Topology {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.topology
}

func (s *Store) Meta() Meta {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.meta
}

func (s *Store) Fingerprint() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.meta.Fingerprint
}

func (s *Store) Node(id string) (*domain.Node, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.topology == nil {
		return nil, false
	}
	n, ok := s.topology.Node(id)
	if !ok {
		return nil, false
	}
	out := *n
	return &out, true
}

func (s *Store) Nodes(opts NodeListOptions) []*domain.Node {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.topology == nil {
		return []*domain.Node{}
	}

	var candidates []*domain.Node
	if opts.BBox != nil {
		candidates = s.nodesInBBox(*opts.BBox)
	} else {
		candidates = s.topology.Nodes()
	}

	result := make([]*domain.Node, 0, len(candidates))
	for _, n := range candidates {
		if opts.BBox != nil && (n.Geo == nil || !opts.BBox.Contains(*n.Geo)) {
			continue
		}
		if opts.PointsOnly && !n.IsPoint() {
			continue
		}
		out := *n
		result = append(result, &out)
	}
	return result
}

// nodesInBBox uses the cell index when the box is small enough and falls
// back to a full scan otherwise.
func (s *Store) nodesInBBox(bb domain.BoundingBox) []*domain.Node {
	cells := CellsInBBox(bb, s.cellSize, maxQueryCells)
	if cells == nil {
		return s.topology.Nodes()
	}

	ids := make([]string, 0)
	for _, cell := range cells {
		for id := range s.byCell[cell] {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	nodes := make([]*domain.Node, 0, len(ids))
	for _, id := range ids {
		if n, ok := s.topology.Node(id); ok {
			nodes = append(nodes, n)
		}
	}
	return nodes
}

func (s *Store) Edge(id string) (*domain.Edge, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.topology == nil {
		return nil, false
	}
	e, ok := s.topology.Edge(id)
	if !ok {
		return nil, false
	}
	out := *e
	return &out, true
}

func (s *Store) Edges() []*domain.Edge {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.topology == nil {
		return []*domain.Edge{}
	}

	edges := s.topology.Edges()
	result := make([]*domain.Edge, len(edges))
	for i, e := range edges {
		out := *e
		result[i] = &out
	}
	return result
}

func (s *Store) Signal(id string) (*domain.Signal, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.topology == nil {
		return nil, false
	}
	sig, ok := s.topology.Signal(id)
	if !ok {
		return nil, false
	}
	out := *sig
	return &out, true
}

func (s *Store) Signals(opts SignalListOptions) []*domain.Signal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.topology == nil {
		return []*domain.Signal{}
	}

	candidates := s.signalCandidates(opts)
	ids := make([]string, 0, len(candidates))
	for id := range candidates {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	result := make([]*domain.Signal, 0, len(ids))
	for _, id := range ids {
		if sig, ok := s.topology.Signal(id); ok {
			out := *sig
			result = append(result, &out)
		}
	}
	return result
}

func (s *Store) signalCandidates(opts SignalListOptions) map[string]struct{} {
	if opts.Function != nil && opts.EdgeID != "" {
		return intersect(s.signalsByFn[*opts.Function], s.signalsByEdge[opts.EdgeID])
	}
	if opts.Function != nil {
		return copySet(s.signalsByFn[*opts.Function])
	}
	if opts.EdgeID != "" {
		return copySet(s.signalsByEdge[opts.EdgeID])
	}

	signals := s.topology.Signals()
	result := make(map[string]struct{}, len(signals))
	for _, sig := range signals {
		result[sig.ID] = struct{}{}
	}
	return result
}

func (s *Store) Route(id string) (*domain.Route, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.topology == nil {
		return nil, false
	}
	r, ok := s.topology.Route(id)
	if !ok {
		return nil, false
	}
	out := *r
	return &out, true
}

func (s *Store) Routes() []*domain.Route {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.topology == nil {
		return []*domain.Route{}
	}

	routes := s.topology.Routes()
	result := make([]*domain.Route, len(routes))
	for i, r := range routes {
		out := *r
		result[i] = &out
	}
	return result
}

// Diagnostics returns the diagnostics of the current import, optionally
// restricted to one severity.
func (s *Store) Diagnostics(severity importer.Severity) []importer.Diagnostic {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]importer.Diagnostic, 0, len(s.diagnostics))
	for _, d := range s.diagnostics {
		if severity != "" && d.Severity != severity {
			continue
		}
		result = append(result, d)
	}
	return result
}

type Stats struct {
	Name        string        `json:"name"`
	Counts      domain.Counts `json:"counts"`
	Cells       int           `json:"cells"`
	Warnings    int           `json:"warnings"`
	Errors      int           `json:"errors"`
	Fingerprint string        `json:"fingerprint"`
	LastUpdate  time.Time     `json:"last_update"`
	IsLoaded    bool          `json:"is_loaded"`
}

func (s *Store) GetStats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := Stats{
		Cells:       len(s.byCell),
		Fingerprint: s.meta.Fingerprint,
		LastUpdate:  s.lastUpdate,
		IsLoaded:    s.topology != nil,
	}
	if s.topology != nil {
		stats.Name = s.topology.Name
		stats.Counts = s.topology.Counts()
	}
	for _, d := range s.diagnostics {
		switch d.Severity {
		case importer.SeverityWarning:
			stats.Warnings++
		case importer.SeverityError:
			stats.Errors++
		}
	}
	return stats
}

func addToIndex[K comparable](index map[K]map[string]struct{}, key K, id string) {
	if index[key] == nil {
		index[key] = make(map[string]struct{})
	}
	index[key][id] = struct{}{}
}

func intersect(a, b map[string]struct{}) map[string]struct{} {
	if a == nil || b == nil {
		return make(map[string]struct{})
	}

	smaller, larger := a, b
	if len(a) > len(b) {
		smaller, larger = b, a
	}

	result := make(map[string]struct{})
	for key := range smaller {
		if _, ok := larger[key]; ok {
			result[key] = struct{}{}
		}
	}
	return result
}

func copySet(src map[string]struct{}) map[string]struct{} {
	if src == nil {
		return make(map[string]struct{})
	}
	result := make(map[string]struct{}, len(src))
	for key := range src {
		result[key] = struct{}{}
	}
	return result
}
