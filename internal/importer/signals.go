package importer

import (
	"planpro/internal/domain"
	"planpro/pkg/planpro"
)

// AttachSignals is the second phase: signals of every container are
// attached to the edges built in the first phase.
func AttachSignals(tt *TrackTopology) (*SignalledTopology, error) {
	if err := tt.state.consume(); err != nil {
		return nil, err
	}
	state := tt.state.forward()
	for _, idx := range state.indexes {
		state.diag.setContainer(idx.position)
		state.readSignals(idx)
	}
	return &SignalledTopology{state: state}, nil
}

func (s *importState) readSignals(idx *containerIndex) {
	for i := range idx.container.Signals {
		rec := &idx.container.Signals[i]
		id := rec.Identity()

		name, ok := rec.Identifier()
		if !ok {
			s.diag.Error(KindMissingField, id, "no identifier found for signal, skip this signal")
			continue
		}

		function, ok := s.signalFunction(rec, name)
		if !ok || !function.Supported() {
			s.diag.Error(KindUnsupported, id, "signal function %q of signal %s not supported, skip signal", function, name)
			continue
		}

		if len(rec.Placements) == 0 {
			s.diag.Error(KindMissingField, id, "signal %s has no Punkt_Objekt_TOP_Kante, skip signal", name)
			continue
		}
		if len(rec.Placements) > 1 {
			s.diag.Warn(KindInconsistency, id,
				"signal %s has %d related TOP_Kanten, associated to the first", name, len(rec.Placements))
		}
		placement := rec.Placements[0]

		edge, err := s.resolver.Edge(placement.EdgeID.Or(""))
		if err != nil {
			s.diag.Error(KindUnresolvedReference, id, "TOP_Kante of signal %s not found, skip this signal: %v", name, err)
			continue
		}

		signal := &domain.Signal{
			ID:              id,
			Name:            name,
			Function:        function,
			Kind:            signalKind(rec),
			System:          signalSystem(rec),
			EdgeID:          edge.ID,
			Direction:       domain.SignalDirection(placement.Direction.Or("")),
			SideDistance:    placement.SideDistance.Or(0),
			DistanceEdge:    placement.Distance.Or(0),
			SupportedStates: supportedStates(idx, id),
		}
		if err := s.topology.AddSignal(signal); err != nil {
			s.diag.Error(KindDuplicate, id, "signal %s skipped: %v", name, err)
		}
	}
}

func (s *importState) signalFunction(rec *planpro.Signal, name string) (domain.SignalFunction, bool) {
	if rec.Real != nil {
		f, _ := rec.RealFunction(s.version)
		if f == "" {
			return domain.SignalFunctionUndefined, true
		}
		return domain.SignalFunction(f), true
	}
	if rec.Fictional != nil && len(rec.Fictional.Functions) > 0 {
		if len(rec.Fictional.Functions) > 1 {
			s.diag.Warn(KindUnsupported, rec.Identity(),
				"multiple fictional functions of signal %s are not supported, use first one", name)
		}
		return domain.SignalFunction(rec.Fictional.Functions[0].Wert), true
	}
	return "", false
}

func signalKind(rec *planpro.Signal) domain.SignalKind {
	if rec.Real == nil {
		return domain.SignalKindFictional
	}
	if kind, ok := rec.Screen().KindValue(); ok {
		return domain.SignalKind(kind)
	}
	return domain.SignalKindOther
}

func signalSystem(rec *planpro.Signal) domain.SignalSystem {
	if system, ok := rec.Screen().SystemValue(); ok {
		return domain.SignalSystem(system)
	}
	return domain.SignalSystemOther
}

// supportedStates unions the states of all terms of all frames of a signal.
// Terms that name no known state are dropped.
func supportedStates(idx *containerIndex, signalID string) []domain.SignalState {
	seen := make(map[domain.SignalState]struct{})
	states := []domain.SignalState{}
	for _, frame := range idx.framesBySignal[signalID] {
		for _, term := range idx.termsByFrame[frame.Identity()] {
			state, ok := domain.ParseSignalState(term.Term.Text())
			if !ok {
				continue
			}
			if _, dup := seen[state]; dup {
				continue
			}
			seen[state] = struct{}{}
			states = append(states, state)
		}
	}
	domain.SortStates(states)
	return states
}
