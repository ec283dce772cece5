package importer

import (
	"planpro/internal/domain"
	"planpro/pkg/planpro"
)

// containerIndex holds the reverse lookups the phases need over one
// container, built once so record searches are map hits.
type containerIndex struct {
	position  int
	container *planpro.Container

	geoPointsByNode    map[string][]*planpro.GeoPoint
	geoEdgesByTopEdge  map[string][]*planpro.GeoEdge
	componentByElement map[string]*planpro.PointComponent
	framesBySignal     map[string][]*planpro.SignalFrame
	termsByFrame       map[string][]*planpro.SignalTerm
}

func newContainerIndex(position int, c *planpro.Container) *containerIndex {
	idx := &containerIndex{
		position:           position,
		container:          c,
		geoPointsByNode:    make(map[string][]*planpro.GeoPoint),
		geoEdgesByTopEdge:  make(map[string][]*planpro.GeoEdge),
		componentByElement: make(map[string]*planpro.PointComponent),
		framesBySignal:     make(map[string][]*planpro.SignalFrame),
		termsByFrame:       make(map[string][]*planpro.SignalTerm),
	}

	for i := range c.GeoPoints {
		p := &c.GeoPoints[i]
		if id, ok := p.GeoNodeID.Get(); ok {
			idx.geoPointsByNode[id] = append(idx.geoPointsByNode[id], p)
		}
	}
	for i := range c.GeoEdges {
		e := &c.GeoEdges[i]
		if id, ok := e.KindID.Get(); ok {
			idx.geoEdgesByTopEdge[id] = append(idx.geoEdgesByTopEdge[id], e)
		}
	}
	for i := range c.PointComponents {
		comp := &c.PointComponents[i]
		id, ok := comp.ElementID.Get()
		if !ok {
			continue
		}
		if _, seen := idx.componentByElement[id]; !seen {
			idx.componentByElement[id] = comp
		}
	}
	for i := range c.SignalFrames {
		f := &c.SignalFrames[i]
		if id, ok := f.SignalID.Get(); ok {
			idx.framesBySignal[id] = append(idx.framesBySignal[id], f)
		}
	}
	for i := range c.SignalTerms {
		t := &c.SignalTerms[i]
		if id, ok := t.FrameID.Get(); ok {
			idx.termsByFrame[id] = append(idx.termsByFrame[id], t)
		}
	}
	return idx
}

// geoPoint returns the point of a GEO_Knoten that has coordinates,
// preferring the given coordinate system when several exist.
func (idx *containerIndex) geoPoint(geoNodeID, preferredCRS string) (*planpro.GeoPoint, bool) {
	var fallback *planpro.GeoPoint
	for _, p := range idx.geoPointsByNode[geoNodeID] {
		if _, _, ok := p.Coordinates(); !ok {
			continue
		}
		if preferredCRS == "" || p.CoordinateSystem() == preferredCRS {
			return p, true
		}
		if fallback == nil {
			fallback = p
		}
	}
	return fallback, fallback != nil
}

func (idx *containerIndex) geoLookup(preferredCRS string) func(string) (*planpro.GeoPoint, bool) {
	return func(geoNodeID string) (*planpro.GeoPoint, bool) {
		return idx.geoPoint(geoNodeID, preferredCRS)
	}
}

func toDomainGeo(p *planpro.GeoPoint, geoNodeID string) domain.GeoPoint {
	x, y, _ := p.Coordinates()
	return domain.GeoPoint{
		ID:               geoNodeID,
		X:                x,
		Y:                y,
		CoordinateSystem: p.CoordinateSystem(),
		DataSource:       p.Source(),
	}
}
