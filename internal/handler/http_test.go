package handler

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	"planpro/internal/domain"
	"planpro/internal/importer"
	"planpro/internal/store"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func loadedStore(t *testing.T) *store.Store {
	t.Helper()
	topo := domain.NewTopology("station")
	topo.CreatedWith = "ProPlan 2.4.1"
	drives := 2
	for _, n := range []*domain.Node{
		{ID: "a", Name: "a", Geo: &domain.GeoPoint{X: 0, Y: 0}},
		{ID: "p", Name: "W1", DriveAmount: &drives, Geo: &domain.GeoPoint{X: 100, Y: 0}},
		{ID: "b", Name: "b", Geo: &domain.GeoPoint{X: 200, Y: 20}},
		{ID: "c", Name: "c", Geo: &domain.GeoPoint{X: 200, Y: -20}},
	} {
		require.NoError(t, topo.AddNode(n))
	}
	require.NoError(t, topo.AddEdge(&domain.Edge{ID: "e1", NodeA: "a", NodeB: "p", Length: 100, Signals: []string{}}))
	require.NoError(t, topo.AddEdge(&domain.Edge{
		ID: "e2", NodeA: "p", NodeB: "b", Length: 102,
		IntermediateGeoPoints: []domain.GeoPoint{{X: 150, Y: 10}},
		Signals:               []string{},
	}))
	require.NoError(t, topo.AddEdge(&domain.Edge{ID: "e3", NodeA: "p", NodeB: "c", Length: 102, Signals: []string{}}))
	p, _ := topo.Node("p")
	p.SetConnection(domain.Connection{Side: domain.SideHead, NodeID: "a", EdgeID: "e1"})
	p.SetConnection(domain.Connection{Side: domain.SideLeft, NodeID: "b", EdgeID: "e2"})
	p.SetConnection(domain.Connection{Side: domain.SideRight, NodeID: "c", EdgeID: "e3"})

	require.NoError(t, topo.AddSignal(&domain.Signal{ID: "s1", Name: "A", Function: domain.SignalFunctionEntry, EdgeID: "e1"}))
	require.NoError(t, topo.AddSignal(&domain.Signal{ID: "s2", Name: "N1", Function: domain.SignalFunctionExit, EdgeID: "e2"}))
	require.NoError(t, topo.AddRoute(&domain.Route{ID: "r1", Name: "A-N1", StartSignalID: "s1", EndSignalID: "s2", EdgeIDs: []string{"e1", "e2"}}))

	s := store.New(1000)
	s.Update(&importer.Result{
		RunID:       "run-1",
		Source:      "station.ppxml",
		Fingerprint: "f00d",
		Topology:    topo,
		Counts:      topo.Counts(),
		ImportedAt:  time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		Diagnostics: []importer.Diagnostic{
			{Severity: importer.SeverityWarning, Kind: importer.KindIncompleteChain, ObjectID: "e4"},
			{Severity: importer.SeverityError, Kind: importer.KindUnsupported, ObjectID: "s9"},
		},
	})
	return s
}

func newMux(h *HTTPHandler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/topology", h.GetTopology)
	mux.HandleFunc("GET /v1/nodes", h.ListNodes)
	mux.HandleFunc("GET /v1/nodes/{id}", h.GetNode)
	mux.HandleFunc("GET /v1/edges", h.ListEdges)
	mux.HandleFunc("GET /v1/edges/{id}", h.GetEdge)
	mux.HandleFunc("GET /v1/signals", h.ListSignals)
	mux.HandleFunc("GET /v1/signals/{id}", h.GetSignal)
	mux.HandleFunc("GET /v1/routes", h.ListRoutes)
	mux.HandleFunc("GET /v1/routes/{id}", h.GetRoute)
	mux.HandleFunc("GET /v1/diagnostics", h.ListDiagnostics)
	mux.HandleFunc("GET /v1/export.geojson", h.ExportGeoJSON)
	mux.HandleFunc("GET /v1/export.msgpack", h.ExportMsgpack)
	return mux
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestGetTopology(t *testing.T) {
	mux := newMux(NewHTTPHandler(loadedStore(t)))

	rec := get(t, mux, "/v1/topology")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	resp := decode[TopologyResponse](t, rec)
	assert.Equal(t, "station", resp.Name)
	assert.Equal(t, "ProPlan 2.4.1", resp.CreatedWith)
	assert.Equal(t, domain.Counts{Nodes: 4, Edges: 3, Signals: 2, Routes: 1}, resp.Counts)
	assert.Equal(t, "f00d", resp.Import.Fingerprint)
	assert.Equal(t, 1, resp.Summary[importer.SeverityWarning])
	assert.Equal(t, 1, resp.Summary[importer.SeverityError])
}

func TestNotLoaded(t *testing.T) {
	mux := newMux(NewHTTPHandler(store.New(1000)))

	for _, path := range []string{"/v1/topology", "/v1/nodes", "/v1/edges", "/v1/signals", "/v1/routes", "/v1/diagnostics", "/v1/export.geojson", "/v1/export.msgpack"} {
		rec := get(t, mux, path)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code, path)
	}
	assert.Equal(t, http.StatusNotFound, get(t, mux, "/v1/nodes/a").Code)
}

func TestListNodes(t *testing.T) {
	mux := newMux(NewHTTPHandler(loadedStore(t)))

	tests := []struct {
		name   string
		query  string
		status int
		ids    []string
	}{
		{name: "all", query: "", status: http.StatusOK, ids: []string{"a", "b", "c", "p"}},
		{name: "bbox", query: "?bbox=50,-5,150,5", status: http.StatusOK, ids: []string{"p"}},
		{name: "points", query: "?points=true", status: http.StatusOK, ids: []string{"p"}},
		{name: "bad bbox arity", query: "?bbox=1,2,3", status: http.StatusBadRequest},
		{name: "bad bbox value", query: "?bbox=1,x,3,4", status: http.StatusBadRequest},
		{name: "inverted bbox", query: "?bbox=10,0,0,10", status: http.StatusBadRequest},
		{name: "bad points", query: "?points=maybe", status: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, mux, "/v1/nodes"+tt.query)
			require.Equal(t, tt.status, rec.Code)
			if tt.status != http.StatusOK {
				assert.NotEmpty(t, decode[errorResponse](t, rec).Error)
				return
			}
			resp := decode[NodesResponse](t, rec)
			ids := make([]string, 0, len(resp.Nodes))
			for _, n := range resp.Nodes {
				ids = append(ids, n.ID)
			}
			assert.ElementsMatch(t, tt.ids, ids)
			assert.Equal(t, len(tt.ids), resp.Count)
		})
	}
}

func TestGetEntities(t *testing.T) {
	mux := newMux(NewHTTPHandler(loadedStore(t)))

	rec := get(t, mux, "/v1/nodes/p")
	require.Equal(t, http.StatusOK, rec.Code)
	node := decode[domain.Node](t, rec)
	assert.Equal(t, "W1", node.Name)
	require.NotNil(t, node.DriveAmount)
	assert.Equal(t, 2, *node.DriveAmount)
	assert.True(t, node.IsPoint())

	rec = get(t, mux, "/v1/edges/e2")
	require.Equal(t, http.StatusOK, rec.Code)
	edge := decode[domain.Edge](t, rec)
	assert.Equal(t, []string{"s2"}, edge.Signals)
	assert.Len(t, edge.IntermediateGeoPoints, 1)

	rec = get(t, mux, "/v1/signals/s1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "A", decode[domain.Signal](t, rec).Name)

	rec = get(t, mux, "/v1/routes/r1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"e1", "e2"}, decode[domain.Route](t, rec).EdgeIDs)

	for _, path := range []string{"/v1/nodes/x", "/v1/edges/x", "/v1/signals/x", "/v1/routes/x"} {
		assert.Equal(t, http.StatusNotFound, get(t, mux, path).Code, path)
	}
}

func TestListEdgesAndRoutes(t *testing.T) {
	mux := newMux(NewHTTPHandler(loadedStore(t)))

	edges := decode[EdgesResponse](t, get(t, mux, "/v1/edges"))
	assert.Equal(t, 3, edges.Count)
	assert.Equal(t, "e1", edges.Edges[0].ID)

	routes := decode[RoutesResponse](t, get(t, mux, "/v1/routes"))
	assert.Equal(t, 1, routes.Count)
	assert.Equal(t, "A-N1", routes.Routes[0].Name)
}

func TestListSignals(t *testing.T) {
	mux := newMux(NewHTTPHandler(loadedStore(t)))

	resp := decode[SignalsResponse](t, get(t, mux, "/v1/signals"))
	assert.Equal(t, 2, resp.Count)

	resp = decode[SignalsResponse](t, get(t, mux, "/v1/signals?function=Ausfahr_Signal"))
	require.Equal(t, 1, resp.Count)
	assert.Equal(t, "s2", resp.Signals[0].ID)

	resp = decode[SignalsResponse](t, get(t, mux, "/v1/signals?edge=e1&function=Ausfahr_Signal"))
	assert.Zero(t, resp.Count)

	resp = decode[SignalsResponse](t, get(t, mux, "/v1/signals?edge=e1"))
	require.Equal(t, 1, resp.Count)
	assert.Equal(t, "s1", resp.Signals[0].ID)

	assert.Equal(t, http.StatusBadRequest, get(t, mux, "/v1/signals?function=Vorsignal").Code)
}

func TestListDiagnostics(t *testing.T) {
	mux := newMux(NewHTTPHandler(loadedStore(t)))

	resp := decode[DiagnosticsResponse](t, get(t, mux, "/v1/diagnostics"))
	assert.Equal(t, 2, resp.Count)

	resp = decode[DiagnosticsResponse](t, get(t, mux, "/v1/diagnostics?severity=error"))
	require.Equal(t, 1, resp.Count)
	assert.Equal(t, "s9", resp.Diagnostics[0].ObjectID)

	assert.Equal(t, http.StatusBadRequest, get(t, mux, "/v1/diagnostics?severity=fatal").Code)
}

func TestExportGeoJSON(t *testing.T) {
	mux := newMux(NewHTTPHandler(loadedStore(t)))

	rec := get(t, mux, "/v1/export.geojson")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/geo+json", rec.Header().Get("Content-Type"))
	assert.Equal(t, `"f00d"`, rec.Header().Get("ETag"))

	fc, err := geojson.UnmarshalFeatureCollection(rec.Body.Bytes())
	require.NoError(t, err)
	require.Len(t, fc.Features, 7)

	var line orb.LineString
	for _, f := range fc.Features {
		if f.ID == "e2" {
			line = f.Geometry.(orb.LineString)
			assert.Equal(t, "edge", f.Properties.MustString("type"))
			assert.Equal(t, "p", f.Properties.MustString("node_a"))
		}
		if f.ID == "p" {
			assert.Equal(t, orb.Point{100, 0}, f.Geometry)
			assert.True(t, f.Properties.MustBool("point"))
		}
	}
	assert.Equal(t, orb.LineString{{100, 0}, {150, 10}, {200, 20}}, line)
}

func TestExportMsgpack(t *testing.T) {
	s := loadedStore(t)
	mux := newMux(NewHTTPHandler(s))

	rec := get(t, mux, "/v1/export.msgpack")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/msgpack", rec.Header().Get("Content-Type"))

	var snap domain.Snapshot
	require.NoError(t, msgpack.Unmarshal(rec.Body.Bytes(), &snap))
	restored, err := snap.Restore()
	require.NoError(t, err)
	assert.Equal(t, s.Topology().Counts(), restored.Counts())
	assert.Equal(t, "ProPlan 2.4.1", restored.CreatedWith)
}
