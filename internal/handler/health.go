package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"planpro/internal/domain"
	"planpro/internal/store"
)

type ReadinessChecker interface {
	IsReady() bool
}

type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	ingestor ReadinessChecker
	store    *store.Store
	cache    Pinger
}

func NewHealthHandler(ing ReadinessChecker, s *store.Store) *HealthHandler {
	return &HealthHandler{
		ingestor: ing,
		store:    s,
	}
}

// SetCache adds a cache probe to readiness. A failing cache is reported
// but does not make the service unready.
func (h *HealthHandler) SetCache(p Pinger) {
	h.cache = p
}

func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

type ReadyResponse struct {
	Ready       bool          `json:"ready"`
	Counts      domain.Counts `json:"counts"`
	Fingerprint string        `json:"fingerprint,omitempty"`
	Cache       string        `json:"cache,omitempty"`
	ServerTime  time.Time     `json:"serverTime"`
}

func (h *HealthHandler) Readyz(w http.ResponseWriter, r *http.Request) {
	stats := h.store.GetStats()
	ready := h.ingestor.IsReady() && stats.IsLoaded
	status := http.StatusOK
	if !ready {
		status = http.StatusServiceUnavailable
	}

	resp := ReadyResponse{
		Ready:       ready,
		Counts:      stats.Counts,
		Fingerprint: stats.Fingerprint,
		ServerTime:  time.Now(),
	}

	if h.cache != nil {
		ctx, cancel := context.WithTimeout(r.Context(), time.Second)
		defer cancel()
		if err := h.cache.Ping(ctx); err != nil {
			resp.Cache = "unavailable"
		} else {
			resp.Cache = "ok"
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}
