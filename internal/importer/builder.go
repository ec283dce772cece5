package importer

import (
	"errors"

	"planpro/internal/domain"
	"planpro/pkg/planpro"
)

// BuildTopology is the first phase. For each container it reads nodes,
// then edges with their geo chains, then switch names.
func BuildTopology(doc *planpro.Document, name string, opts Options, diag *Diagnostics) (*TrackTopology, error) {
	containers, err := doc.Containers()
	if err != nil {
		return nil, err
	}

	topology := domain.NewTopology(name)
	if createdAt, ok := doc.CreatedAt(); ok {
		topology.CreatedAt = createdAt
	}
	topology.CreatedWith = doc.CreatedWith()

	version := doc.Version
	if opts.Version != planpro.VersionUnknown {
		version = opts.Version
	}

	state := &importState{
		topology: topology,
		resolver: NewResolver(topology),
		version:  version,
		opts:     opts,
		diag:     diag,
	}

	for i, c := range containers {
		idx := newContainerIndex(i, c)
		state.indexes = append(state.indexes, idx)
		diag.setContainer(i)

		state.readNodes(idx)
		if err := state.readEdges(idx); err != nil {
			return nil, err
		}
		state.addPointNames(idx)
	}

	return &TrackTopology{state: state}, nil
}

func (s *importState) readNodes(idx *containerIndex) {
	for i := range idx.container.TopNodes {
		rec := &idx.container.TopNodes[i]
		id := rec.Identity()

		geoNodeID, ok := rec.GeoNodeID.Get()
		if !ok {
			s.diag.debug("node without geo node skipped", "node_id", id)
			continue
		}
		gp, ok := idx.geoPoint(geoNodeID, s.opts.CoordinateSystem)
		if !ok {
			s.diag.debug("node without coordinates skipped", "node_id", id, "geo_node_id", geoNodeID)
			continue
		}

		position := toDomainGeo(gp, geoNodeID)
		if err := s.topology.AddNode(&domain.Node{ID: id, Geo: &position}); err != nil {
			s.diag.Error(KindDuplicate, id, "TOP_Knoten skipped: %v", err)
		}
	}
}

func (s *importState) readEdges(idx *containerIndex) error {
	lookup := idx.geoLookup(s.opts.CoordinateSystem)

	for i := range idx.container.TopEdges {
		rec := &idx.container.TopEdges[i]
		id := rec.Identity()

		nodeA, errA := s.resolver.Node(rec.NodeAID.Wert)
		nodeB, errB := s.resolver.Node(rec.NodeBID.Wert)
		if err := errors.Join(errA, errB); err != nil {
			invariant := &InvariantError{EdgeID: id, Cause: err}
			if !s.opts.SkipDanglingEdges {
				return invariant
			}
			s.diag.Error(KindUnresolvedReference, id, "TOP_Kante skipped: %v", invariant)
			continue
		}

		points, err := ReconstructChain(ChainRequest{
			EdgeID:    id,
			Start:     *nodeA.Geo,
			End:       *nodeB.Geo,
			Segments:  idx.geoEdgesByTopEdge[id],
			Lookup:    lookup,
			Converter: s.opts.Converter,
		})
		if err != nil {
			if errors.Is(err, ErrAmbiguousOrientation) {
				s.diag.Error(KindInconsistency, id, "TOP_Kante excluded: %v", err)
			} else {
				s.diag.Warn(KindIncompleteChain, id, "TOP_Kante excluded, topology around it is broken: %v", err)
			}
			continue
		}

		edge := &domain.Edge{
			ID:                    id,
			NodeA:                 nodeA.ID,
			NodeB:                 nodeB.ID,
			Length:                rec.Length(),
			IntermediateGeoPoints: points,
			Signals:               []string{},
		}
		if err := s.topology.AddEdge(edge); err != nil {
			s.diag.Error(KindDuplicate, id, "TOP_Kante skipped: %v", err)
			continue
		}

		// connections are only wired for edges that made it into the topology
		nodeA.SetConnection(domain.Connection{
			Side:   domain.SideFromAnschluss(rec.ConnectionA()),
			NodeID: nodeB.ID,
			EdgeID: id,
		})
		nodeB.SetConnection(domain.Connection{
			Side:   domain.SideFromAnschluss(rec.ConnectionB()),
			NodeID: nodeA.ID,
			EdgeID: id,
		})
	}
	return nil
}
