package importer

import "planpro/internal/domain"

// BuildRoutes is the third phase and returns the finished topology.
func BuildRoutes(st *SignalledTopology) (*domain.Topology, error) {
	if err := st.state.consume(); err != nil {
		return nil, err
	}
	for _, idx := range st.state.indexes {
		st.state.diag.setContainer(idx.position)
		st.state.readRoutes(idx)
	}
	return st.state.topology, nil
}

func (s *importState) readRoutes(idx *containerIndex) {
	for i := range idx.container.Routes {
		rec := &idx.container.Routes[i]
		id := rec.Identity()

		start, errStart := s.resolver.Signal(rec.StartID.Or(""))
		end, errEnd := s.resolver.Signal(rec.TargetID.Or(""))
		if errStart != nil || errEnd != nil {
			s.diag.debug("route without materialised start or end signal dropped", "route_id", id)
			continue
		}

		var maxSpeed *float64
		if v, ok := rec.MaxSpeed.Get(); ok {
			maxSpeed = &v
		}

		edgeIDs := []string{}
		seen := make(map[string]struct{})
		for _, section := range rec.Sections {
			edge, err := s.resolver.Edge(section.EdgeID.Or(""))
			if err != nil {
				continue
			}
			if _, dup := seen[edge.ID]; dup {
				continue
			}
			seen[edge.ID] = struct{}{}
			edgeIDs = append(edgeIDs, edge.ID)
		}

		route := &domain.Route{
			ID:            id,
			Name:          domain.RouteName(start, end),
			StartSignalID: start.ID,
			EndSignalID:   end.ID,
			MaximumSpeed:  maxSpeed,
			EdgeIDs:       edgeIDs,
		}
		if err := s.topology.AddRoute(route); err != nil {
			s.diag.Error(KindDuplicate, id, "route %s skipped: %v", route.Name, err)
		}
	}
}
