package cache

import (
	"fmt"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"planpro/internal/domain"
	"planpro/internal/importer"
	"planpro/pkg/planpro"
)

// entry is the cached form of an import result.
type entry struct {
	RunID       string                `msgpack:"run_id"`
	Source      string                `msgpack:"source"`
	Fingerprint string                `msgpack:"fingerprint"`
	Version     planpro.Version       `msgpack:"version"`
	Duration    time.Duration         `msgpack:"duration"`
	ImportedAt  time.Time             `msgpack:"imported_at"`
	Diagnostics []importer.Diagnostic `msgpack:"diagnostics"`
	Snapshot    *domain.Snapshot      `msgpack:"snapshot"`
}

// Encode serialises an import result as zstd-compressed msgpack.
func Encode(result *importer.Result) ([]byte, error) {
	e := entry{
		RunID:       result.RunID,
		Source:      result.Source,
		Fingerprint: result.Fingerprint,
		Version:     result.Version,
		Duration:    result.Duration,
		ImportedAt:  result.ImportedAt,
		Diagnostics: result.Diagnostics,
		Snapshot:    result.Topology.Snapshot(),
	}
	data, err := msgpack.Marshal(&e)
	if err != nil {
		return nil, fmt.Errorf("msgpack marshal: %w", err)
	}
	return compress(data), nil
}

// Decode is the inverse of Encode.
func Decode(data []byte) (*importer.Result, error) {
	raw, err := decompress(data)
	if err != nil {
		return nil, err
	}

	var e entry
	if err := msgpack.Unmarshal(raw, &e); err != nil {
		return nil, fmt.Errorf("msgpack unmarshal: %w", err)
	}
	if e.Snapshot == nil {
		return nil, fmt.Errorf("cached entry %s has no snapshot", e.Fingerprint)
	}

	topology, err := e.Snapshot.Restore()
	if err != nil {
		return nil, err
	}

	result := &importer.Result{
		RunID:       e.RunID,
		Source:      e.Source,
		Fingerprint: e.Fingerprint,
		Version:     e.Version,
		Topology:    topology,
		Counts:      topology.Counts(),
		Diagnostics: e.Diagnostics,
		Duration:    e.Duration,
		ImportedAt:  e.ImportedAt,
		Summary:     make(map[importer.Severity]int),
	}
	for _, d := range e.Diagnostics {
		result.Summary[d.Severity]++
	}
	return result, nil
}
