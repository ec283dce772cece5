package handler

import (
	"encoding/json"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"planpro/internal/domain"
	"planpro/internal/hub"
	"planpro/internal/middleware"
	"planpro/internal/store"
)

// Stats tracks server-wide counters
type Stats struct {
	startTime     time.Time
	requestCount  atomic.Int64
	wsConnections atomic.Int64
	wsMessagesIn  atomic.Int64
	wsMessagesOut atomic.Int64
	cacheHits     atomic.Int64
	cacheMisses   atomic.Int64
}

var ServerStats = &Stats{
	startTime: time.Now(),
}

func (s *Stats) IncRequests()      { s.requestCount.Add(1) }
func (s *Stats) IncWSConnections() { s.wsConnections.Add(1) }
func (s *Stats) DecWSConnections() { s.wsConnections.Add(-1) }
func (s *Stats) IncWSMessagesIn()  { s.wsMessagesIn.Add(1) }
func (s *Stats) IncWSMessagesOut() { s.wsMessagesOut.Add(1) }
func (s *Stats) IncCacheHits()     { s.cacheHits.Add(1) }
func (s *Stats) IncCacheMisses()   { s.cacheMisses.Add(1) }

type StatsHandler struct {
	store   *store.Store
	hub     *hub.Hub
	limiter *middleware.RateLimiter
}

func NewStatsHandler(s *store.Store, h *hub.Hub, limiter *middleware.RateLimiter) *StatsHandler {
	return &StatsHandler{
		store:   s,
		hub:     h,
		limiter: limiter,
	}
}

type StatsResponse struct {
	Server    ServerStatsResponse    `json:"server"`
	Topology  TopologyStatsResponse  `json:"topology"`
	WebSocket WebSocketStatsResponse `json:"websocket"`
	Cache     CacheStatsResponse     `json:"cache"`
	RateLimit *middleware.Stats      `json:"rate_limit,omitempty"`
	Go        GoStatsResponse        `json:"go"`
}

type ServerStatsResponse struct {
	Uptime        string    `json:"uptime"`
	UptimeSeconds float64   `json:"uptime_seconds"`
	StartTime     time.Time `json:"start_time"`
	RequestCount  int64     `json:"request_count"`
}

type TopologyStatsResponse struct {
	Name        string        `json:"name"`
	Counts      domain.Counts `json:"counts"`
	Cells       int           `json:"cells"`
	Warnings    int           `json:"warnings"`
	Errors      int           `json:"errors"`
	Fingerprint string        `json:"fingerprint"`
	IsLoaded    bool          `json:"is_loaded"`
	LastUpdate  time.Time     `json:"last_update"`
}

type WebSocketStatsResponse struct {
	Clients     int            `json:"clients"`
	Subscribers map[string]int `json:"subscribers"`
	Connections int64          `json:"connections"`
	MessagesIn  int64          `json:"messages_in"`
	MessagesOut int64          `json:"messages_out"`
}

type CacheStatsResponse struct {
	Hits   int64   `json:"hits"`
	Misses int64   `json:"misses"`
	Ratio  float64 `json:"hit_ratio"`
}

type GoStatsResponse struct {
	Goroutines  int     `json:"goroutines"`
	HeapAlloc   uint64  `json:"heap_alloc_bytes"`
	HeapAllocMB float64 `json:"heap_alloc_mb"`
	NumGC       uint32  `json:"num_gc"`
	GoVersion   string  `json:"go_version"`
}

func (h *StatsHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	uptime := time.Since(ServerStats.startTime)
	st := h.store.GetStats()

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	hits := ServerStats.cacheHits.Load()
	misses := ServerStats.cacheMisses.Load()
	var ratio float64
	if total := hits + misses; total > 0 {
		ratio = float64(hits) / float64(total)
	}

	response := StatsResponse{
		Server: ServerStatsResponse{
			Uptime:        uptime.Round(time.Second).String(),
			UptimeSeconds: uptime.Seconds(),
			StartTime:     ServerStats.startTime,
			RequestCount:  ServerStats.requestCount.Load(),
		},
		Topology: TopologyStatsResponse{
			Name:        st.Name,
			Counts:      st.Counts,
			Cells:       st.Cells,
			Warnings:    st.Warnings,
			Errors:      st.Errors,
			Fingerprint: st.Fingerprint,
			IsLoaded:    st.IsLoaded,
			LastUpdate:  st.LastUpdate,
		},
		WebSocket: WebSocketStatsResponse{
			Subscribers: make(map[string]int),
			Connections: ServerStats.wsConnections.Load(),
			MessagesIn:  ServerStats.wsMessagesIn.Load(),
			MessagesOut: ServerStats.wsMessagesOut.Load(),
		},
		Cache: CacheStatsResponse{
			Hits:   hits,
			Misses: misses,
			Ratio:  ratio,
		},
		Go: GoStatsResponse{
			Goroutines:  runtime.NumGoroutine(),
			HeapAlloc:   mem.HeapAlloc,
			HeapAllocMB: float64(mem.HeapAlloc) / 1024 / 1024,
			NumGC:       mem.NumGC,
			GoVersion:   runtime.Version(),
		},
	}

	if h.hub != nil {
		response.WebSocket.Clients = h.hub.ClientCount()
		for _, topic := range []hub.Topic{hub.TopicImports, hub.TopicDiagnostics} {
			response.WebSocket.Subscribers[string(topic)] = h.hub.SubscriberCount(topic)
		}
	}
	if h.limiter != nil {
		rl := h.limiter.Stats()
		response.RateLimit = &rl
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	json.NewEncoder(w).Encode(response)
}
