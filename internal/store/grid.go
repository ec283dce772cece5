package store

import (
	"fmt"
	"math"

	"planpro/internal/domain"
)

// CellID returns the grid cell containing (x, y) for square cells of the
// given size. Coordinates are planar (Gauss-Krüger metres).
func CellID(x, y, size float64) string {
	cx, cy := cellIndex(x, y, size)
	return fmt.Sprintf("%d/%d", cx, cy)
}

// ParseCellID extracts the cell indices from a cell ID string
func ParseCellID(cellID string) (cx, cy int64, ok bool) {
	n, err := fmt.Sscanf(cellID, "%d/%d", &cx, &cy)
	if err != nil || n != 2 {
		return 0, 0, false
	}
	return cx, cy, true
}

// CellBounds returns the extent of a cell
func CellBounds(cx, cy int64, size float64) domain.BoundingBox {
	return domain.BoundingBox{
		MinX: float64(cx) * size,
		MinY: float64(cy) * size,
		MaxX: float64(cx+1) * size,
		MaxY: float64(cy+1) * size,
	}
}

// CellsInBBox returns all cell IDs that intersect the bounding box. It
// returns nil when the box would span more than maxCells cells.
func CellsInBBox(bb domain.BoundingBox, size float64, maxCells int) []string {
	if bb.MinX > bb.MaxX || bb.MinY > bb.MaxY {
		return nil
	}
	x1, y1 := cellIndex(bb.MinX, bb.MinY, size)
	x2, y2 := cellIndex(bb.MaxX, bb.MaxY, size)
	if (x2-x1+1)*(y2-y1+1) > int64(maxCells) {
		return nil
	}

	cells := make([]string, 0, (x2-x1+1)*(y2-y1+1))
	for x := x1; x <= x2; x++ {
		for y := y1; y <= y2; y++ {
			cells = append(cells, fmt.Sprintf("%d/%d", x, y))
		}
	}
	return cells
}

func cellIndex(x, y, size float64) (int64, int64) {
	return int64(math.Floor(x / size)), int64(math.Floor(y / size))
}
