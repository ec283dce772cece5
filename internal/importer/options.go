package importer

import (
	"planpro/internal/geo"
	"planpro/pkg/planpro"
)

// Options tune an import run. The zero value imports with auto-detected
// version, no densification and fatal dangling edges.
type Options struct {
	Version planpro.Version
	// CoordinateSystem is preferred when a GEO_Knoten has several points.
	CoordinateSystem string
	Converter        geo.Converter
	// SkipDanglingEdges reports edges with a missing endpoint instead of
	// aborting the import.
	SkipDanglingEdges bool
}
