package importer

import (
	"fmt"
	"io"
	"log/slog"

	"planpro/pkg/planpro"
)

// fixture assembles a container in code. Every TOP node n gets the GEO node
// "g-n" with one point.
type fixture struct {
	c planpro.Container
}

func id(s string) planpro.Value[string] {
	return planpro.Value[string]{Wert: s}
}

func geoID(node string) string {
	return "g-" + node
}

func (f *fixture) geoNode(geoNodeID string, x, y float64) {
	f.c.GeoPoints = append(f.c.GeoPoints, planpro.GeoPoint{
		ID:        id("p-" + geoNodeID),
		GeoNodeID: planpro.Val(geoNodeID),
		General: &planpro.GeoPointGeneral{
			X:                    planpro.Val(x),
			Y:                    planpro.Val(y),
			Source:               planpro.Val("Ivl"),
			CoordinateSystemLSys: planpro.Val("DR0"),
		},
	})
}

func (f *fixture) node(nodeID string, x, y float64) {
	f.c.TopNodes = append(f.c.TopNodes, planpro.TopNode{
		ID:        id(nodeID),
		GeoNodeID: planpro.Val(geoID(nodeID)),
	})
	f.geoNode(geoID(nodeID), x, y)
}

func (f *fixture) edge(edgeID, a, b string, length float64, connA, connB string) {
	f.c.TopEdges = append(f.c.TopEdges, planpro.TopEdge{
		ID:      id(edgeID),
		NodeAID: id(a),
		NodeBID: id(b),
		General: &planpro.TopEdgeGeneral{
			ConnectionA: planpro.Val(connA),
			ConnectionB: planpro.Val(connB),
			Length:      planpro.Val(length),
		},
	})
}

func (f *fixture) segment(segID, topEdge, geoA, geoB string) {
	f.c.GeoEdges = append(f.c.GeoEdges, planpro.GeoEdge{
		ID:      id(segID),
		NodeAID: id(geoA),
		NodeBID: id(geoB),
		KindID:  planpro.Val(topEdge),
		General: &planpro.GeoEdgeGeneral{Form: planpro.Val("Gerade")},
	})
}

// chain adds n straight segments along the x axis between the TOP nodes a
// at (0,0) and b at (n,0), with interior GEO nodes i1..i(n-1).
func (f *fixture) chain(topEdge, a, b string, n int) {
	prev := geoID(a)
	for i := 1; i < n; i++ {
		interior := fmt.Sprintf("%s-i%d", topEdge, i)
		f.geoNode(interior, float64(i), 0)
		f.segment(fmt.Sprintf("%s-s%d", topEdge, i), topEdge, prev, interior)
		prev = interior
	}
	f.segment(fmt.Sprintf("%s-s%d", topEdge, n), topEdge, prev, geoID(b))
}

func (f *fixture) signal(signalID, name, function, edgeID string, distance float64) *planpro.Signal {
	s := planpro.Signal{
		ID: id(signalID),
		Placements: []planpro.EdgePlacement{{
			EdgeID:    planpro.Val(edgeID),
			Distance:  planpro.Val(distance),
			Direction: planpro.Val("in"),
		}},
		Real: &planpro.SignalReal{
			Function: planpro.Val(function),
			Screen: &planpro.SignalScreen{
				Kind:   planpro.Val("Hauptsignal"),
				System: planpro.Val("Ks"),
			},
		},
	}
	if name != "" {
		s.Designation = &planpro.Designation{Outdoor: planpro.Val(name)}
	}
	f.c.Signals = append(f.c.Signals, s)
	return &f.c.Signals[len(f.c.Signals)-1]
}

// states adds one frame per call with the given term short names.
func (f *fixture) states(signalID string, terms ...string) {
	frameID := fmt.Sprintf("frame-%s-%d", signalID, len(f.c.SignalFrames))
	f.c.SignalFrames = append(f.c.SignalFrames, planpro.SignalFrame{
		ID:       id(frameID),
		SignalID: planpro.Val(signalID),
	})
	for i, term := range terms {
		f.c.SignalTerms = append(f.c.SignalTerms, planpro.SignalTerm{
			ID:      id(fmt.Sprintf("%s-t%d", frameID, i)),
			FrameID: planpro.Val(frameID),
			Term:    &planpro.SignalTermID{ShortName: term},
		})
	}
}

func (f *fixture) route(routeID, start, end string, edges ...string) {
	r := planpro.Route{
		ID:       id(routeID),
		StartID:  planpro.Val(start),
		TargetID: planpro.Val(end),
		MaxSpeed: planpro.Val(60.0),
	}
	for _, e := range edges {
		r.Sections = append(r.Sections, planpro.RouteSection{EdgeID: planpro.Val(e)})
	}
	f.c.Routes = append(f.c.Routes, r)
}

func (f *fixture) point(elementID, name, nodeEdge string, distance float64, drives int) {
	f.c.PointElements = append(f.c.PointElements, planpro.PointElement{
		ID:          id(elementID),
		Designation: &planpro.Designation{Outdoor: planpro.Val(name)},
	})
	f.c.PointComponents = append(f.c.PointComponents, planpro.PointComponent{
		ID:        id(elementID + "-k"),
		ElementID: planpro.Val(elementID),
		Placements: []planpro.EdgePlacement{{
			EdgeID:   planpro.Val(nodeEdge),
			Distance: planpro.Val(distance),
		}},
		TonguePair: &planpro.TonguePair{DriveAmount: planpro.Val(drives)},
	})
}

func (f *fixture) document() *planpro.Document {
	c := f.c
	return &planpro.Document{
		General: &planpro.InterfaceGeneral{
			CreatedAt:   planpro.Val("2023-03-01T10:00:00"),
			ToolName:    planpro.Val("ProPlan"),
			ToolVersion: planpro.Val("2.1"),
		},
		State:   &planpro.State{Container: &c},
		Version: planpro.Version110,
	}
}

func quietDiagnostics() *Diagnostics {
	return NewDiagnostics(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// station is a small layout: a switch at p1 with branches to b1 and b2 and a
// straight approach from a1.
//
//	a1 --e1-- p1 --e2-- b1
//	            \--e3-- b2
func station() *fixture {
	f := &fixture{}
	f.node("a1", 0, 0)
	f.node("p1", 100, 0)
	f.node("b1", 200, 0)
	f.node("b2", 200, 50)
	f.edge("e1", "a1", "p1", 100, "Ende", "Spitze")
	f.edge("e2", "p1", "b1", 100, "Links", "Ende")
	f.edge("e3", "p1", "b2", 112, "Rechts", "Ende")
	f.segment("s1", "e1", geoID("a1"), geoID("p1"))
	f.chain("e2", "p1", "b1", 4)
	f.segment("s3", "e3", geoID("p1"), geoID("b2"))
	return f
}
