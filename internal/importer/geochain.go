package importer

import (
	"fmt"
	"sort"

	"planpro/internal/domain"
	"planpro/internal/geo"
	"planpro/pkg/planpro"
)

// ChainRequest describes one TOP edge whose geo segments are to be ordered.
// Start and End carry the GEO_Knoten IDs of the two TOP nodes.
type ChainRequest struct {
	EdgeID    string
	Start     domain.GeoPoint
	End       domain.GeoPoint
	Segments  []*planpro.GeoEdge
	Lookup    func(geoNodeID string) (*planpro.GeoPoint, bool)
	Converter geo.Converter
}

// ReconstructChain walks the segments from Start to End and returns the
// interior points in walking order. An edge without segments has no interior
// points. Segments are visited in ID order at every node so the result does
// not depend on the order of req.Segments.
func ReconstructChain(req ChainRequest) ([]domain.GeoPoint, error) {
	points := []domain.GeoPoint{}
	if len(req.Segments) == 0 {
		return points, nil
	}

	adjacency := make(map[string][]*planpro.GeoEdge)
	for _, seg := range req.Segments {
		a, b := seg.NodeAID.Wert, seg.NodeBID.Wert
		adjacency[a] = append(adjacency[a], seg)
		if b != a {
			adjacency[b] = append(adjacency[b], seg)
		}
	}
	for _, segs := range adjacency {
		sort.Slice(segs, func(i, j int) bool {
			if segs[i].Identity() != segs[j].Identity() {
				return segs[i].Identity() < segs[j].Identity()
			}
			return segs[i].NodeAID.Wert+segs[i].NodeBID.Wert < segs[j].NodeAID.Wert+segs[j].NodeBID.Wert
		})
	}

	current := req.Start.ID
	last := req.Start
	visited := map[string]struct{}{current: {}}
	var prev string

	for current != req.End.ID {
		next := nextSegment(adjacency[current], prev)
		if next == nil {
			return nil, fmt.Errorf("%w: no continuation after geo node %s", ErrIncompleteChain, current)
		}

		if req.Converter != nil {
			extra, err := convertedPoints(req, next, last)
			if err != nil {
				return nil, err
			}
			points = append(points, extra...)
		}

		other := next.Other(current)
		if other == req.End.ID {
			break
		}
		if _, seen := visited[other]; seen {
			return nil, fmt.Errorf("%w: geo node %s reached twice", ErrIncompleteChain, other)
		}
		gp, ok := req.Lookup(other)
		if !ok {
			return nil, fmt.Errorf("%w: geo node %s has no coordinates", ErrIncompleteChain, other)
		}

		last = toDomainGeo(gp, other)
		points = append(points, last)
		visited[other] = struct{}{}
		prev = current
		current = other
	}
	return points, nil
}

// nextSegment returns the first segment leading away from prev. Parallel
// segments back to prev are skipped too.
func nextSegment(candidates []*planpro.GeoEdge, prev string) *planpro.GeoEdge {
	for _, seg := range candidates {
		if prev == "" || !seg.Touches(prev) {
			return seg
		}
	}
	return nil
}

func convertedPoints(req ChainRequest, seg *planpro.GeoEdge, last domain.GeoPoint) ([]domain.GeoPoint, error) {
	a, _ := req.Lookup(seg.NodeAID.Wert)
	b, _ := req.Lookup(seg.NodeBID.Wert)
	run, err := req.Converter.IntermediatePoints(seg, a, b)
	if err != nil {
		return nil, fmt.Errorf("convert geo segment %s: %w", seg.Identity(), err)
	}
	return orientRun(run, last)
}

// orientRun returns run starting at the end nearer to last.
func orientRun(run []domain.GeoPoint, last domain.GeoPoint) ([]domain.GeoPoint, error) {
	if len(run) <= 1 {
		return run, nil
	}
	toFirst := last.DistanceTo(run[0])
	toLast := last.DistanceTo(run[len(run)-1])
	switch {
	case toFirst < toLast:
		return run, nil
	case toFirst > toLast:
		reversed := make([]domain.GeoPoint, len(run))
		for i, p := range run {
			reversed[len(run)-1-i] = p
		}
		return reversed, nil
	default:
		return nil, fmt.Errorf("%w (geo node %s)", ErrAmbiguousOrientation, last.ID)
	}
}
