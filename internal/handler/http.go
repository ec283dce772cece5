package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"planpro/internal/domain"
	"planpro/internal/importer"
	"planpro/internal/store"
)

var errNotLoaded = errors.New("topology not loaded")

type HTTPHandler struct {
	store *store.Store
}

func NewHTTPHandler(store *store.Store) *HTTPHandler {
	return &HTTPHandler{store: store}
}

type TopologyResponse struct {
	Name        string                    `json:"name"`
	CreatedAt   time.Time                 `json:"created_at"`
	CreatedWith string                    `json:"created_with"`
	Counts      domain.Counts             `json:"counts"`
	Import      store.Meta                `json:"import"`
	Summary     map[importer.Severity]int `json:"diagnostics"`
	ServerTime  time.Time                 `json:"serverTime"`
}

type NodesResponse struct {
	Nodes []*domain.Node `json:"nodes"`
	Count int            `json:"count"`
}

type EdgesResponse struct {
	Edges []*domain.Edge `json:"edges"`
	Count int            `json:"count"`
}

type SignalsResponse struct {
	Signals []*domain.Signal `json:"signals"`
	Count   int              `json:"count"`
}

type RoutesResponse struct {
	Routes []*domain.Route `json:"routes"`
	Count  int             `json:"count"`
}

type DiagnosticsResponse struct {
	Diagnostics []importer.Diagnostic `json:"diagnostics"`
	Count       int                   `json:"count"`
}

func (h *HTTPHandler) GetTopology(w http.ResponseWriter, r *http.Request) {
	t := h.store.Topology()
	if t == nil {
		respondError(w, http.StatusServiceUnavailable, errNotLoaded.Error())
		return
	}

	stats := h.store.GetStats()
	respondJSON(w, http.StatusOK, TopologyResponse{
		Name:        t.Name,
		CreatedAt:   t.CreatedAt,
		CreatedWith: t.CreatedWith,
		Counts:      stats.Counts,
		Import:      h.store.Meta(),
		Summary: map[importer.Severity]int{
			importer.SeverityWarning: stats.Warnings,
			importer.SeverityError:   stats.Errors,
		},
		ServerTime: time.Now(),
	})
}

func (h *HTTPHandler) ListNodes(w http.ResponseWriter, r *http.Request) {
	if !h.loaded(w) {
		return
	}
	opts := store.NodeListOptions{}

	if bboxStr := r.URL.Query().Get("bbox"); bboxStr != "" {
		parts := strings.Split(bboxStr, ",")
		if len(parts) != 4 {
			respondError(w, http.StatusBadRequest, "invalid bbox format: expected minX,minY,maxX,maxY")
			return
		}
		bbox, err := parseBBox(parts)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid bbox values: "+err.Error())
			return
		}
		opts.BBox = bbox
	}

	if pointsStr := r.URL.Query().Get("points"); pointsStr != "" {
		points, err := strconv.ParseBool(pointsStr)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid points parameter: must be true or false")
			return
		}
		opts.PointsOnly = points
	}

	nodes := h.store.Nodes(opts)
	respondJSON(w, http.StatusOK, NodesResponse{Nodes: nodes, Count: len(nodes)})
}

func (h *HTTPHandler) GetNode(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	node, ok := h.store.Node(id)
	if !ok {
		respondError(w, http.StatusNotFound, "node not found")
		return
	}
	respondJSON(w, http.StatusOK, node)
}

func (h *HTTPHandler) ListEdges(w http.ResponseWriter, r *http.Request) {
	if !h.loaded(w) {
		return
	}
	edges := h.store.Edges()
	respondJSON(w, http.StatusOK, EdgesResponse{Edges: edges, Count: len(edges)})
}

func (h *HTTPHandler) GetEdge(w http.ResponseWriter, r *http.Request) {
	edge, ok := h.store.Edge(r.PathValue("id"))
	if !ok {
		respondError(w, http.StatusNotFound, "edge not found")
		return
	}
	respondJSON(w, http.StatusOK, edge)
}

func (h *HTTPHandler) ListSignals(w http.ResponseWriter, r *http.Request) {
	if !h.loaded(w) {
		return
	}
	opts := store.SignalListOptions{EdgeID: r.URL.Query().Get("edge")}

	if fnStr := r.URL.Query().Get("function"); fnStr != "" {
		fn := domain.SignalFunction(fnStr)
		if !fn.Supported() {
			respondError(w, http.StatusBadRequest, "invalid function parameter: "+fnStr)
			return
		}
		opts.Function = &fn
	}

	signals := h.store.Signals(opts)
	respondJSON(w, http.StatusOK, SignalsResponse{Signals: signals, Count: len(signals)})
}

func (h *HTTPHandler) GetSignal(w http.ResponseWriter, r *http.Request) {
	signal, ok := h.store.Signal(r.PathValue("id"))
	if !ok {
		respondError(w, http.StatusNotFound, "signal not found")
		return
	}
	respondJSON(w, http.StatusOK, signal)
}

func (h *HTTPHandler) ListRoutes(w http.ResponseWriter, r *http.Request) {
	if !h.loaded(w) {
		return
	}
	routes := h.store.Routes()
	respondJSON(w, http.StatusOK, RoutesResponse{Routes: routes, Count: len(routes)})
}

func (h *HTTPHandler) GetRoute(w http.ResponseWriter, r *http.Request) {
	route, ok := h.store.Route(r.PathValue("id"))
	if !ok {
		respondError(w, http.StatusNotFound, "route not found")
		return
	}
	respondJSON(w, http.StatusOK, route)
}

func (h *HTTPHandler) ListDiagnostics(w http.ResponseWriter, r *http.Request) {
	if !h.loaded(w) {
		return
	}
	severity := importer.Severity(r.URL.Query().Get("severity"))
	switch severity {
	case "", importer.SeverityInfo, importer.SeverityWarning, importer.SeverityError:
	default:
		respondError(w, http.StatusBadRequest, "invalid severity parameter: must be info, warning or error")
		return
	}

	diagnostics := h.store.Diagnostics(severity)
	respondJSON(w, http.StatusOK, DiagnosticsResponse{Diagnostics: diagnostics, Count: len(diagnostics)})
}

func (h *HTTPHandler) loaded(w http.ResponseWriter) bool {
	if h.store.Topology() == nil {
		respondError(w, http.StatusServiceUnavailable, errNotLoaded.Error())
		return false
	}
	return true
}

func parseBBox(parts []string) (*domain.BoundingBox, error) {
	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, err
		}
		v[i] = f
	}
	if v[0] > v[2] || v[1] > v[3] {
		return nil, errors.New("min must not exceed max")
	}
	return &domain.BoundingBox{
		MinX: v[0], MinY: v[1],
		MaxX: v[2], MaxY: v[3],
	}, nil
}

type errorResponse struct {
	Error string `json:"error"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, errorResponse{Error: message})
}
