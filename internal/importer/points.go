package importer

import (
	"math"

	"planpro/internal/domain"
	"planpro/pkg/planpro"
)

const distanceTolerance = 1e-6

// DefaultNodeName is the name of a node no switch element names.
func DefaultNodeName(id string) string {
	if len(id) <= 5 {
		return id
	}
	return id[len(id)-5:]
}

func (s *importState) addPointNames(idx *containerIndex) {
	for i := range idx.container.PointElements {
		element := &idx.container.PointElements[i]
		id := element.Identity()

		component, ok := idx.componentByElement[id]
		if !ok {
			s.diag.Warn(KindUnresolvedReference, id, "no W_Kr_Gsp_Komponente for W_Kr_Gsp_Element")
			continue
		}
		point, ok := s.pointOfComponent(component)
		if !ok {
			continue
		}

		if name, ok := element.Name(); ok {
			point.Name = name
		}
		if drives, ok := component.DriveAmount(); ok {
			point.DriveAmount = &drives
		}
	}

	for _, node := range s.topology.Nodes() {
		if node.Name == "" {
			node.Name = DefaultNodeName(node.ID)
		}
	}
}

// pointOfComponent finds the TOP node a switch component sits on. A
// component placed inside an edge is a lock object and has no point.
func (s *importState) pointOfComponent(component *planpro.PointComponent) (*domain.Node, bool) {
	componentID := component.Identity()
	var point *domain.Node

	for _, placement := range component.Placements {
		edgeID := placement.EdgeID.Or("")
		edge, err := s.resolver.Edge(edgeID)
		if err != nil {
			s.diag.Error(KindUnresolvedReference, componentID, "TOP_Kante of point component not found: %v", err)
			return nil, false
		}
		distance, ok := placement.Distance.Get()
		if !ok {
			s.diag.Warn(KindMissingField, componentID, "point component placement on %s has no distance", edgeID)
			return nil, false
		}

		var nodeID string
		switch {
		case math.Abs(distance) < distanceTolerance:
			nodeID = edge.NodeA
		case math.Abs(distance-edge.Length) < distanceTolerance:
			nodeID = edge.NodeB
		default:
			return nil, false
		}

		node, err := s.resolver.Node(nodeID)
		if err != nil {
			s.diag.Error(KindUnresolvedReference, componentID, "point node not found: %v", err)
			return nil, false
		}
		if point == nil {
			point = node
		} else if point.ID != node.ID {
			s.diag.Error(KindInconsistency, componentID,
				"point component refers to different TOP_Knoten %s and %s", point.ID, node.ID)
			return nil, false
		}
	}
	return point, point != nil
}
