package ingestor

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"planpro/internal/domain"
	"planpro/internal/hub"
	"planpro/internal/importer"
	"planpro/internal/store"
	"planpro/pkg/planpro"
)

type Loader interface {
	Load(ctx context.Context, location string) (*planpro.Source, error)
}

type Builder interface {
	ImportSource(ctx context.Context, src *planpro.Source) (*importer.Result, error)
}

type SnapshotCache interface {
	Load(ctx context.Context, fingerprint string) (*importer.Result, bool, error)
	Latest(ctx context.Context) (*importer.Result, bool, error)
	Save(ctx context.Context, result *importer.Result) error
}

type Publisher interface {
	Publish(event hub.Event)
}

// ImportEvent is published on the imports topic after every run.
type ImportEvent struct {
	RunID       string                    `json:"run_id,omitempty"`
	Source      string                    `json:"source"`
	Fingerprint string                    `json:"fingerprint,omitempty"`
	Version     planpro.Version           `json:"version,omitempty"`
	Counts      domain.Counts             `json:"counts"`
	Summary     map[importer.Severity]int `json:"summary,omitempty"`
	DurationMS  int64                     `json:"duration_ms"`
	ImportedAt  time.Time                 `json:"imported_at"`
	Cached      bool                      `json:"cached"`
	Error       string                    `json:"error,omitempty"`
}

// Ingestor reloads the PlanPro source periodically and publishes every new
// topology to the store.
type Ingestor struct {
	location  string
	loader    Loader
	builder   Builder
	store     *store.Store
	cache     SnapshotCache
	publisher Publisher
	interval  time.Duration
	logger    *slog.Logger
	onUpdate  func(*importer.Result)

	ready   bool
	readyMu sync.RWMutex
}

func New(location string, loader Loader, builder Builder, store *store.Store, interval time.Duration, logger *slog.Logger) *Ingestor {
	return &Ingestor{
		location: location,
		loader:   loader,
		builder:  builder,
		store:    store,
		interval: interval,
		logger:   logger.With("component", "ingestor"),
	}
}

func (i *Ingestor) SetCache(cache SnapshotCache) {
	i.cache = cache
}

func (i *Ingestor) SetPublisher(p Publisher) {
	i.publisher = p
}

func (i *Ingestor) SetOnUpdate(fn func(*importer.Result)) {
	i.onUpdate = fn
}

// Start restores the latest cached topology, imports once and then reloads
// every interval until ctx is done. A non-positive interval imports once.
func (i *Ingestor) Start(ctx context.Context) {
	i.restore(ctx)
	i.update(ctx)

	if i.interval <= 0 {
		return
	}

	ticker := time.NewTicker(i.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			i.update(ctx)
		}
	}
}

func (i *Ingestor) restore(ctx context.Context) {
	if i.cache == nil {
		return
	}
	result, ok, err := i.cache.Latest(ctx)
	if err != nil {
		i.logger.Warn("failed to read latest snapshot", "error", err)
		return
	}
	if !ok {
		return
	}
	i.store.Update(result)
	i.setReady(true)
	i.logger.Info("restored topology from cache", "fingerprint", result.Fingerprint, "nodes", result.Counts.Nodes)
}

func (i *Ingestor) update(ctx context.Context) {
	start := time.Now()

	src, err := i.loader.Load(ctx, i.location)
	if err != nil {
		i.fail(err)
		return
	}
	if src.Fingerprint == i.store.Fingerprint() {
		i.logger.Debug("source unchanged, skipping import", "fingerprint", src.Fingerprint)
		return
	}

	result, cached := i.fromCache(ctx, src.Fingerprint)
	if !cached {
		result, err = i.builder.ImportSource(ctx, src)
		if err != nil {
			i.fail(err)
			return
		}
		if i.cache != nil {
			if err := i.cache.Save(ctx, result); err != nil {
				i.logger.Warn("failed to cache snapshot", "error", err)
			}
		}
	}

	i.store.Update(result)
	if !i.IsReady() {
		i.setReady(true)
		i.logger.Info("ingestor ready", "nodes", result.Counts.Nodes, "edges", result.Counts.Edges)
	}

	i.publish(result, cached)
	if i.onUpdate != nil {
		i.onUpdate(result)
	}

	i.logger.Info("topology update completed",
		"cached", cached,
		"fingerprint", result.Fingerprint,
		"total_duration", time.Since(start),
	)
}

func (i *Ingestor) fromCache(ctx context.Context, fingerprint string) (*importer.Result, bool) {
	if i.cache == nil {
		return nil, false
	}
	result, ok, err := i.cache.Load(ctx, fingerprint)
	if err != nil {
		i.logger.Warn("snapshot cache lookup failed", "error", err)
		return nil, false
	}
	if ok {
		i.logger.Info("loaded topology from cache", "fingerprint", fingerprint)
	}
	return result, ok
}

func (i *Ingestor) fail(err error) {
	i.logger.Error("topology import failed", "source", i.location, "error", err)
	if i.publisher != nil {
		i.publisher.Publish(hub.Event{
			Topic: hub.TopicImports,
			Type:  "import_failed",
			Payload: ImportEvent{
				Source:     i.location,
				ImportedAt: time.Now(),
				Error:      err.Error(),
			},
		})
	}
}

func (i *Ingestor) publish(result *importer.Result, cached bool) {
	if i.publisher == nil {
		return
	}
	i.publisher.Publish(hub.Event{
		Topic: hub.TopicImports,
		Type:  "import",
		Payload: ImportEvent{
			RunID:       result.RunID,
			Source:      result.Source,
			Fingerprint: result.Fingerprint,
			Version:     result.Version,
			Counts:      result.Counts,
			Summary:     result.Summary,
			DurationMS:  result.Duration.Milliseconds(),
			ImportedAt:  result.ImportedAt,
			Cached:      cached,
		},
	})
	if len(result.Diagnostics) > 0 {
		i.publisher.Publish(hub.Event{
			Topic:   hub.TopicDiagnostics,
			Type:    "diagnostics",
			Payload: result.Diagnostics,
		})
	}
}

func (i *Ingestor) IsReady() bool {
	i.readyMu.RLock()
	defer i.readyMu.RUnlock()
	return i.ready
}

func (i *Ingestor) setReady(ready bool) {
	i.readyMu.Lock()
	defer i.readyMu.Unlock()
	i.ready = ready
}
