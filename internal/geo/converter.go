// Package geo holds coordinate converters that add interior points to a
// GEO_Kante beyond its two surveyed endpoints.
package geo

import (
	"math"

	"planpro/internal/domain"
	"planpro/pkg/planpro"
)

// Converter produces additional interior points for one geo segment. The
// returned run may be in either direction; callers orient it.
type Converter interface {
	IntermediatePoints(seg *planpro.GeoEdge, a, b *planpro.GeoPoint) ([]domain.GeoPoint, error)
}

const formArc = "Bogen"

// ArcDensifier interpolates arc segments (GEO_Form "Bogen") with a point
// every Spacing units. A positive GEO_Radius_A puts the centre to the left of
// the A->B chord. Other forms yield no points.
type ArcDensifier struct {
	Spacing float64
}

func NewArcDensifier(spacing float64) *ArcDensifier {
	return &ArcDensifier{Spacing: spacing}
}

func (d *ArcDensifier) IntermediatePoints(seg *planpro.GeoEdge, a, b *planpro.GeoPoint) ([]domain.GeoPoint, error) {
	if seg == nil || seg.Form() != formArc || d.Spacing <= 0 {
		return nil, nil
	}
	radius := seg.RadiusA()
	if radius == 0 {
		return nil, nil
	}
	ax, ay, okA := a.Coordinates()
	bx, by, okB := b.Coordinates()
	if !okA || !okB {
		return nil, nil
	}

	r := math.Abs(radius)
	dx, dy := bx-ax, by-ay
	chord := math.Hypot(dx, dy)
	if chord == 0 || chord > 2*r {
		return nil, nil
	}

	// unit normal to the left of A->B
	nx, ny := -dy/chord, dx/chord
	h := math.Sqrt(r*r - chord*chord/4)
	sign := 1.0
	if radius < 0 {
		sign = -1.0
	}
	cx := (ax+bx)/2 + sign*h*nx
	cy := (ay+by)/2 + sign*h*ny

	startAngle := math.Atan2(ay-cy, ax-cx)
	sweep := math.Atan2(by-cy, bx-cx) - startAngle
	if sign > 0 {
		for sweep <= 0 {
			sweep += 2 * math.Pi
		}
	} else {
		for sweep >= 0 {
			sweep -= 2 * math.Pi
		}
	}

	steps := int(math.Ceil(r * math.Abs(sweep) / d.Spacing))
	if steps < 2 {
		return nil, nil
	}

	crs := a.CoordinateSystem()
	source := a.Source()
	points := make([]domain.GeoPoint, 0, steps-1)
	for i := 1; i < steps; i++ {
		angle := startAngle + sweep*float64(i)/float64(steps)
		points = append(points, domain.GeoPoint{
			X:                cx + r*math.Cos(angle),
			Y:                cy + r*math.Sin(angle),
			CoordinateSystem: crs,
			DataSource:       source,
		})
	}
	return points, nil
}
