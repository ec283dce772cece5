package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"planpro/pkg/planpro"
)

func geoPoint(id string, x, y float64) *planpro.GeoPoint {
	return &planpro.GeoPoint{
		ID:        planpro.Value[string]{Wert: id + "-p"},
		GeoNodeID: planpro.Val(id),
		General: &planpro.GeoPointGeneral{
			X:                planpro.Val(x),
			Y:                planpro.Val(y),
			CoordinateSystem: planpro.Val("DR0"),
		},
	}
}

func arc(radius float64) *planpro.GeoEdge {
	return &planpro.GeoEdge{
		ID:      planpro.Value[string]{Wert: "seg"},
		NodeAID: planpro.Value[string]{Wert: "a"},
		NodeBID: planpro.Value[string]{Wert: "b"},
		General: &planpro.GeoEdgeGeneral{
			Form:    planpro.Val("Bogen"),
			RadiusA: planpro.Val(radius),
		},
	}
}

func TestArcDensifierQuarterCircle(t *testing.T) {
	d := NewArcDensifier(0.1)
	points, err := d.IntermediatePoints(arc(1), geoPoint("a", 1, 0), geoPoint("b", 0, 1))
	require.NoError(t, err)

	// arc length pi/2 at spacing 0.1 gives 16 steps
	require.Len(t, points, 15)
	for _, p := range points {
		assert.InDelta(t, 1.0, math.Hypot(p.X, p.Y), 1e-9)
		assert.Greater(t, p.X, 0.0)
		assert.Greater(t, p.Y, 0.0)
		assert.Equal(t, "DR0", p.CoordinateSystem)
		assert.Empty(t, p.ID)
	}
	assert.Greater(t, points[0].X, points[len(points)-1].X, "points run from A towards B")
}

func TestArcDensifierNegativeRadiusBendsRight(t *testing.T) {
	d := NewArcDensifier(0.1)
	points, err := d.IntermediatePoints(arc(-1), geoPoint("a", 1, 0), geoPoint("b", 0, 1))
	require.NoError(t, err)
	require.NotEmpty(t, points)

	// centre at (1,1): every point lies on the unit circle around it
	for _, p := range points {
		assert.InDelta(t, 1.0, math.Hypot(p.X-1, p.Y-1), 1e-9)
	}
}

func TestArcDensifierIgnoresOtherSegments(t *testing.T) {
	d := NewArcDensifier(0.1)

	straight := arc(1)
	straight.General.Form = planpro.Val("Gerade")

	tests := []struct {
		name string
		seg  *planpro.GeoEdge
		b    *planpro.GeoPoint
	}{
		{"straight", straight, geoPoint("b", 0, 1)},
		{"zero radius", arc(0), geoPoint("b", 0, 1)},
		{"chord longer than diameter", arc(1), geoPoint("b", 5, 5)},
		{"missing coordinates", arc(1), &planpro.GeoPoint{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			points, err := d.IntermediatePoints(tt.seg, geoPoint("a", 1, 0), tt.b)
			require.NoError(t, err)
			assert.Empty(t, points)
		})
	}
}
