package domain

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// GeoPoint is a surveyed coordinate. ID is the GEO_Knoten the point belongs
// to and may be empty for points produced by a densifier.
type GeoPoint struct {
	ID               string  `json:"id,omitempty" msgpack:"id,omitempty"`
	X                float64 `json:"x" msgpack:"x"`
	Y                float64 `json:"y" msgpack:"y"`
	CoordinateSystem string  `json:"coordinate_system,omitempty" msgpack:"crs,omitempty"`
	DataSource       string  `json:"data_source,omitempty" msgpack:"src,omitempty"`
}

func (p GeoPoint) Point() orb.Point {
	return orb.Point{p.X, p.Y}
}

// DistanceTo returns the planar distance in coordinate units.
func (p GeoPoint) DistanceTo(other GeoPoint) float64 {
	return planar.Distance(p.Point(), other.Point())
}

// BoundingBox is an axis-aligned rectangle in plan coordinates
type BoundingBox struct {
	MinX float64 `json:"min_x"`
	MinY float64 `json:"min_y"`
	MaxX float64 `json:"max_x"`
	MaxY float64 `json:"max_y"`
}

// Contains checks if a point is within the bounding box
func (bb *BoundingBox) Contains(p GeoPoint) bool {
	return p.X >= bb.MinX && p.X <= bb.MaxX &&
		p.Y >= bb.MinY && p.Y <= bb.MaxY
}
