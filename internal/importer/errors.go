package importer

import (
	"errors"
	"fmt"

	"planpro/internal/domain"
)

var (
	ErrNotFound             = errors.New("not found")
	ErrIncompleteChain      = errors.New("geo chain incomplete")
	ErrAmbiguousOrientation = errors.New("intermediate geo points have the same distance from the last point")
	ErrPhaseReused          = errors.New("import phase already completed")
)

// ReferenceError is returned by the resolver for a dangling identifier.
type ReferenceError struct {
	Kind domain.EntityKind
	ID   string
}

func (e *ReferenceError) Error() string {
	return fmt.Sprintf("%s %q: %v", e.Kind, e.ID, ErrNotFound)
}

func (e *ReferenceError) Unwrap() error {
	return ErrNotFound
}

// InvariantError means an edge references a node that is not in the
// topology. It aborts the import unless dangling edges are skipped.
type InvariantError struct {
	EdgeID string
	Cause  error
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("edge %s: endpoint missing: %v", e.EdgeID, e.Cause)
}

func (e *InvariantError) Unwrap() error {
	return e.Cause
}
