package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"planpro/internal/domain"
	"planpro/internal/importer"
)

func testResult(t *testing.T) *importer.Result {
	t.Helper()
	topo := domain.NewTopology("station")
	for _, n := range []*domain.Node{
		{ID: "a", Geo: &domain.GeoPoint{X: 10, Y: 10}},
		{ID: "b", Geo: &domain.GeoPoint{X: 1500, Y: 20}},
		{ID: "c", Geo: &domain.GeoPoint{X: 3000, Y: 2500}},
		{ID: "d", Geo: &domain.GeoPoint{X: 3100, Y: 2400}},
	} {
		require.NoError(t, topo.AddNode(n))
	}
	require.NoError(t, topo.AddEdge(&domain.Edge{ID: "ab", NodeA: "a", NodeB: "b", Signals: []string{}}))
	require.NoError(t, topo.AddEdge(&domain.Edge{ID: "bc", NodeA: "b", NodeB: "c", Signals: []string{}}))
	require.NoError(t, topo.AddEdge(&domain.Edge{ID: "bd", NodeA: "b", NodeB: "d", Signals: []string{}}))
	b, _ := topo.Node("b")
	b.SetConnection(domain.Connection{Side: domain.SideHead, NodeID: "a", EdgeID: "ab"})
	b.SetConnection(domain.Connection{Side: domain.SideLeft, NodeID: "c", EdgeID: "bc"})
	b.SetConnection(domain.Connection{Side: domain.SideRight, NodeID: "d", EdgeID: "bd"})

	require.NoError(t, topo.AddSignal(&domain.Signal{ID: "s1", Name: "A", Function: domain.SignalFunctionEntry, EdgeID: "ab"}))
	require.NoError(t, topo.AddSignal(&domain.Signal{ID: "s2", Name: "N1", Function: domain.SignalFunctionExit, EdgeID: "bc"}))
	require.NoError(t, topo.AddSignal(&domain.Signal{ID: "s3", Name: "N2", Function: domain.SignalFunctionExit, EdgeID: "bd"}))
	require.NoError(t, topo.AddRoute(&domain.Route{ID: "r1", Name: "A-N1", StartSignalID: "s1", EndSignalID: "s2", EdgeIDs: []string{"ab", "bc"}}))

	return &importer.Result{
		RunID:       "run-1",
		Source:      "station.ppxml",
		Fingerprint: "abc",
		Topology:    topo,
		Counts:      topo.Counts(),
		ImportedAt:  time.Now(),
		Diagnostics: []importer.Diagnostic{
			{Severity: importer.SeverityWarning, Kind: importer.KindIncompleteChain, ObjectID: "x"},
			{Severity: importer.SeverityError, Kind: importer.KindUnsupported, ObjectID: "y"},
			{Severity: importer.SeverityError, Kind: importer.KindMissingField, ObjectID: "z"},
		},
	}
}

func TestStoreEmpty(t *testing.T) {
	s := New(1000)

	assert.Nil(t, s.Topology())
	assert.Empty(t, s.Nodes(NodeListOptions{}))
	assert.Empty(t, s.Signals(SignalListOptions{}))
	_, ok := s.Edge("ab")
	assert.False(t, ok)
	assert.False(t, s.GetStats().IsLoaded)
}

func TestStoreUpdate(t *testing.T) {
	s := New(1000)
	s.Update(testResult(t))

	stats := s.GetStats()
	assert.True(t, stats.IsLoaded)
	assert.Equal(t, "station", stats.Name)
	assert.Equal(t, domain.Counts{Nodes: 4, Edges: 3, Signals: 3, Routes: 1}, stats.Counts)
	assert.Equal(t, 1, stats.Warnings)
	assert.Equal(t, 2, stats.Errors)
	assert.Equal(t, 3, stats.Cells)
	assert.Equal(t, "abc", s.Fingerprint())
	assert.Equal(t, "run-1", s.Meta().RunID)
}

func TestStoreReturnsCopies(t *testing.T) {
	s := New(1000)
	s.Update(testResult(t))

	n, ok := s.Node("a")
	require.True(t, ok)
	n.Name = "changed"

	again, _ := s.Node("a")
	assert.Empty(t, again.Name)
}

func TestStoreNodesBBox(t *testing.T) {
	s := New(1000)
	s.Update(testResult(t))

	nodes := s.Nodes(NodeListOptions{BBox: &domain.BoundingBox{MinX: 0, MinY: 0, MaxX: 2000, MaxY: 100}})
	require.Len(t, nodes, 2)
	assert.Equal(t, "a", nodes[0].ID)
	assert.Equal(t, "b", nodes[1].ID)

	// large boxes fall back to a full scan
	nodes = s.Nodes(NodeListOptions{BBox: &domain.BoundingBox{MinX: -1e9, MinY: -1e9, MaxX: 1e9, MaxY: 1e9}})
	assert.Len(t, nodes, 4)

	points := s.Nodes(NodeListOptions{PointsOnly: true})
	require.Len(t, points, 1)
	assert.Equal(t, "b", points[0].ID)
}

func TestStoreSignals(t *testing.T) {
	s := New(1000)
	s.Update(testResult(t))

	exit := domain.SignalFunctionExit
	tests := []struct {
		name string
		opts SignalListOptions
		want []string
	}{
		{"all", SignalListOptions{}, []string{"s1", "s2", "s3"}},
		{"by function", SignalListOptions{Function: &exit}, []string{"s2", "s3"}},
		{"by edge", SignalListOptions{EdgeID: "ab"}, []string{"s1"}},
		{"both", SignalListOptions{Function: &exit, EdgeID: "bd"}, []string{"s3"}},
		{"none", SignalListOptions{Function: &exit, EdgeID: "ab"}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := []string{}
			for _, sig := range s.Signals(tt.opts) {
				got = append(got, sig.ID)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStoreDiagnostics(t *testing.T) {
	s := New(1000)
	s.Update(testResult(t))

	assert.Len(t, s.Diagnostics(""), 3)
	assert.Len(t, s.Diagnostics(importer.SeverityError), 2)
	assert.Empty(t, s.Diagnostics(importer.SeverityInfo))
}

func TestCells(t *testing.T) {
	assert.Equal(t, "0/0", CellID(10, 10, 1000))
	assert.Equal(t, "-1/2", CellID(-1, 2500, 1000))

	cx, cy, ok := ParseCellID("-1/2")
	require.True(t, ok)
	assert.Equal(t, int64(-1), cx)
	assert.Equal(t, int64(2), cy)
	_, _, ok = ParseCellID("nope")
	assert.False(t, ok)

	assert.Equal(t, domain.BoundingBox{MinX: -1000, MinY: 2000, MaxX: 0, MaxY: 3000}, CellBounds(-1, 2, 1000))

	cells := CellsInBBox(domain.BoundingBox{MinX: 0, MinY: 0, MaxX: 1999, MaxY: 999}, 1000, 10)
	assert.Equal(t, []string{"0/0", "1/0"}, cells)
	assert.Nil(t, CellsInBBox(domain.BoundingBox{MinX: 0, MinY: 0, MaxX: 1e6, MaxY: 1e6}, 1000, 10))
	assert.Nil(t, CellsInBBox(domain.BoundingBox{MinX: 10, MinY: 0, MaxX: 0, MaxY: 0}, 1000, 10))
	assert.Nil(t, CellsInBBox(domain.BoundingBox{MinX: 0, MinY: 500, MaxX: 10, MaxY: 400}, 1000, 10))
}
