package cache

import (
	"context"
	"log/slog"
	"time"

	"planpro/internal/importer"
)

// SnapshotCache keeps encoded import results in Redis keyed by the source
// fingerprint so an unchanged document is not rebuilt after a restart.
type SnapshotCache struct {
	cache  *RedisCache
	ttl    time.Duration
	logger *slog.Logger
}

func NewSnapshotCache(cache *RedisCache, ttl time.Duration, logger *slog.Logger) *SnapshotCache {
	return &SnapshotCache{
		cache:  cache,
		ttl:    ttl,
		logger: logger.With("component", "snapshot_cache"),
	}
}

// Save stores result and marks it as the latest snapshot.
func (w *SnapshotCache) Save(ctx context.Context, result *importer.Result) error {
	start := time.Now()

	data, err := Encode(result)
	if err != nil {
		return err
	}
	if err := w.cache.Set(ctx, KeySnapshot(result.Fingerprint), data, w.ttl); err != nil {
		return err
	}
	if err := w.cache.Set(ctx, KeyLatest, []byte(result.Fingerprint), w.ttl); err != nil {
		return err
	}

	w.logger.Info("cached topology snapshot",
		"fingerprint", result.Fingerprint,
		"size_kb", len(data)/1024,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

// Load returns the cached result for fingerprint. A miss is (nil, false, nil).
func (w *SnapshotCache) Load(ctx context.Context, fingerprint string) (*importer.Result, bool, error) {
	data, err := w.cache.Get(ctx, KeySnapshot(fingerprint))
	if err != nil || data == nil {
		return nil, false, err
	}

	result, err := Decode(data)
	if err != nil {
		w.logger.Warn("dropping unreadable snapshot", "fingerprint", fingerprint, "error", err)
		_ = w.cache.Delete(ctx, KeySnapshot(fingerprint))
		return nil, false, nil
	}
	return result, true, nil
}

// Latest loads the most recently saved snapshot.
func (w *SnapshotCache) Latest(ctx context.Context) (*importer.Result, bool, error) {
	fingerprint, err := w.cache.Get(ctx, KeyLatest)
	if err != nil || fingerprint == nil {
		return nil, false, err
	}
	return w.Load(ctx, string(fingerprint))
}
