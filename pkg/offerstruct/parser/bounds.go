package parser

import (
	"github.com/ukaji3/offerstruct-go/pkg/offerstruct/models"
)

// Rect is an inclusive 1-based cell rectangle.
type Rect struct {
	MinRow int
	MaxRow int
	MinCol int
	MaxCol int
}

// DataBounds finds the bounding box of non-blank cells. ok is false for an
// empty grid.
func DataBounds(g *models.CellGrid) (rect Rect, ok bool) {
	for row := 1; row <= g.MaxRow(); row++ {
		for col := 1; col <= g.MaxCol(); col++ {
			if g.Raw(row, col).IsBlank() {
				continue
			}
			if !ok {
				rect = Rect{MinRow: row, MaxRow: row, MinCol: col, MaxCol: col}
				ok = true
				continue
			}
			if row > rect.MaxRow {
				rect.MaxRow = row
			}
			if col < rect.MinCol {
				rect.MinCol = col
			}
			if col > rect.MaxCol {
				rect.MaxCol = col
			}
		}
	}
	return rect, ok
}

// CountNonEmpty counts non-blank cells within rect, ignoring merges.
func CountNonEmpty(g *models.CellGrid, rect Rect) int {
	count := 0
	for row := rect.MinRow; row <= rect.MaxRow; row++ {
		for col := rect.MinCol; col <= rect.MaxCol; col++ {
			if !g.Raw(row, col).IsBlank() {
				count++
			}
		}
	}
	return count
}
