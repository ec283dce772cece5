package importer

import (
	"planpro/internal/domain"
	"planpro/pkg/planpro"
)

// importState is shared by the three phases of one run.
type importState struct {
	topology *domain.Topology
	resolver Resolver
	indexes  []*containerIndex
	version  planpro.Version
	opts     Options
	diag     *Diagnostics
	done     bool
}

// TrackTopology is the outcome of the first phase: every node and edge of
// every container is in place. Only AttachSignals accepts it.
type TrackTopology struct {
	state *importState
}

// Topology gives read access to the partial result, for inspection.
func (t *TrackTopology) Topology() *domain.Topology {
	return t.state.topology
}

// SignalledTopology is the outcome of the second phase. Only BuildRoutes
// accepts it.
type SignalledTopology struct {
	state *importState
}

func (t *SignalledTopology) Topology() *domain.Topology {
	return t.state.topology
}

func (s *importState) consume() error {
	if s.done {
		return ErrPhaseReused
	}
	s.done = true
	return nil
}

func (s *importState) forward() *importState {
	next := *s
	next.done = false
	return &next
}
