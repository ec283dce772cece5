package importer

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"planpro/internal/domain"
	"planpro/pkg/planpro"
)

// Result is the outcome of one import run.
type Result struct {
	RunID       string           `json:"run_id"`
	Source      string           `json:"source"`
	Fingerprint string           `json:"fingerprint"`
	Version     planpro.Version  `json:"version"`
	Topology    *domain.Topology `json:"-"`
	Counts      domain.Counts    `json:"counts"`
	Diagnostics []Diagnostic     `json:"diagnostics"`
	Duration    time.Duration    `json:"duration"`
	ImportedAt  time.Time        `json:"imported_at"`
	Summary     map[Severity]int `json:"summary"`
}

// Importer runs load, decode and the three build phases.
type Importer struct {
	loader  *planpro.Loader
	opts    Options
	metrics *Metrics
	logger  *slog.Logger
}

func New(loader *planpro.Loader, opts Options, metrics *Metrics, logger *slog.Logger) *Importer {
	return &Importer{
		loader:  loader,
		opts:    opts,
		metrics: metrics,
		logger:  logger.With("component", "importer"),
	}
}

// Import loads location and builds its topology.
func (imp *Importer) Import(ctx context.Context, location string) (*Result, error) {
	src, err := imp.loader.Load(ctx, location)
	if err != nil {
		imp.record("load_error", 0)
		return nil, err
	}
	return imp.ImportSource(ctx, src)
}

// ImportSource builds the topology of an already loaded document.
func (imp *Importer) ImportSource(ctx context.Context, src *planpro.Source) (*Result, error) {
	start := time.Now()
	runID := uuid.New().String()
	logger := imp.logger.With("run_id", runID, "source", src.Location)

	doc, err := planpro.Decode(bytes.NewReader(src.Data), imp.opts.Version)
	if err != nil {
		imp.record("decode_error", time.Since(start))
		return nil, fmt.Errorf("import %s: %w", src.Location, err)
	}

	diag := NewDiagnostics(logger)
	if imp.metrics != nil {
		diag.OnReport(imp.metrics.RecordDiagnostic)
	}

	topology, err := Build(ctx, doc, src.Name, imp.opts, diag)
	if err != nil {
		imp.record("build_error", time.Since(start))
		return nil, fmt.Errorf("import %s: %w", src.Location, err)
	}

	duration := time.Since(start)
	result := &Result{
		RunID:       runID,
		Source:      src.Location,
		Fingerprint: src.Fingerprint,
		Version:     doc.Version,
		Topology:    topology,
		Counts:      topology.Counts(),
		Diagnostics: diag.Items(),
		Duration:    duration,
		ImportedAt:  time.Now(),
		Summary: map[Severity]int{
			SeverityInfo:    diag.Count(SeverityInfo),
			SeverityWarning: diag.Count(SeverityWarning),
			SeverityError:   diag.Count(SeverityError),
		},
	}

	imp.record("ok", duration)
	if imp.metrics != nil {
		imp.metrics.SetTopology(result.Counts, result.ImportedAt)
	}

	logger.Info("import complete",
		"nodes", result.Counts.Nodes,
		"edges", result.Counts.Edges,
		"signals", result.Counts.Signals,
		"routes", result.Counts.Routes,
		"warnings", result.Summary[SeverityWarning],
		"errors", result.Summary[SeverityError],
		"duration", duration,
	)
	return result, nil
}

// Build runs the three phases over a decoded document. ctx is checked
// between phases only.
func Build(ctx context.Context, doc *planpro.Document, name string, opts Options, diag *Diagnostics) (*domain.Topology, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	track, err := BuildTopology(doc, name, opts, diag)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	signalled, err := AttachSignals(track)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return BuildRoutes(signalled)
}

func (imp *Importer) record(status string, d time.Duration) {
	if imp.metrics != nil {
		imp.metrics.RecordImport(status, d)
	}
}
