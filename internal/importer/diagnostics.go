package importer

import (
	"context"
	"fmt"
	"log/slog"
)

type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// DiagnosticKind classifies a non-fatal import condition
type DiagnosticKind string

const (
	KindUnresolvedReference DiagnosticKind = "unresolved_reference"
	KindInconsistency       DiagnosticKind = "inconsistency"
	KindIncompleteChain     DiagnosticKind = "incomplete_chain"
	KindUnsupported         DiagnosticKind = "unsupported"
	KindDuplicate           DiagnosticKind = "duplicate"
	KindMissingField        DiagnosticKind = "missing_field"
)

// Diagnostic is one reported, non-fatal condition
type Diagnostic struct {
	Severity  Severity       `json:"severity"`
	Kind      DiagnosticKind `json:"kind"`
	Message   string         `json:"message"`
	ObjectID  string         `json:"object_id,omitempty"`
	Container int            `json:"container"`
}

// Diagnostics collects the conditions of one import run and mirrors each
// one to the logger.
type Diagnostics struct {
	logger    *slog.Logger
	items     []Diagnostic
	container int
	observer  func(Diagnostic)
}

func NewDiagnostics(logger *slog.Logger) *Diagnostics {
	return &Diagnostics{logger: logger}
}

// OnReport registers fn to be called for every diagnostic.
func (d *Diagnostics) OnReport(fn func(Diagnostic)) {
	d.observer = fn
}

func (d *Diagnostics) setContainer(i int) {
	d.container = i
}

func (d *Diagnostics) Report(sev Severity, kind DiagnosticKind, objectID, format string, args ...any) {
	diag := Diagnostic{
		Severity:  sev,
		Kind:      kind,
		Message:   fmt.Sprintf(format, args...),
		ObjectID:  objectID,
		Container: d.container,
	}
	d.items = append(d.items, diag)

	if d.logger != nil {
		d.logger.Log(context.Background(), sev.level(), diag.Message,
			"kind", diag.Kind,
			"object_id", diag.ObjectID,
			"container", diag.Container,
		)
	}
	if d.observer != nil {
		d.observer(diag)
	}
}

func (d *Diagnostics) Warn(kind DiagnosticKind, objectID, format string, args ...any) {
	d.Report(SeverityWarning, kind, objectID, format, args...)
}

func (d *Diagnostics) Error(kind DiagnosticKind, objectID, format string, args ...any) {
	d.Report(SeverityError, kind, objectID, format, args...)
}

// Items returns a copy of everything reported so far.
func (d *Diagnostics) Items() []Diagnostic {
	out := make([]Diagnostic, len(d.items))
	copy(out, d.items)
	return out
}

func (d *Diagnostics) Count(sev Severity) int {
	n := 0
	for _, item := range d.items {
		if item.Severity == sev {
			n++
		}
	}
	return n
}

func (d *Diagnostics) debug(msg string, args ...any) {
	if d.logger != nil {
		d.logger.Debug(msg, args...)
	}
}

func (s Severity) level() slog.Level {
	switch s {
	case SeverityError:
		return slog.LevelError
	case SeverityWarning:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}
