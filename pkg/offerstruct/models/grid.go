// Package models defines data structures for commercial-proposal extraction.
package models

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Pos is a 1-based (row, column) cell position.
type Pos struct {
	// Row is the row index (1-based).
	Row int `json:"row"`
	// Col is the column index (1-based).
	Col int `json:"col"`
}

// Cell holds a normalised cell value: a string, a float64 or nil.
type Cell struct {
	Value interface{} `json:"v"`
}

// IsBlank reports whether the cell has no value or only whitespace.
func (c Cell) IsBlank() bool {
	switch v := c.Value.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	}
	return false
}

// Number returns the numeric value when the cell holds a float64.
func (c Cell) Number() (float64, bool) {
	n, ok := c.Value.(float64)
	return n, ok
}

// String renders the cell as text. Numbers use the shortest exact form.
func (c Cell) String() string {
	switch v := c.Value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return fmt.Sprint(c.Value)
}

// MergeRange is an inclusive merged-cell rectangle.
type MergeRange struct {
	StartRow int `json:"start_row"`
	StartCol int `json:"start_col"`
	EndRow   int `json:"end_row"`
	EndCol   int `json:"end_col"`
}

// Contains reports whether (row, col) lies inside the range.
func (m MergeRange) Contains(row, col int) bool {
	return row >= m.StartRow && row <= m.EndRow && col >= m.StartCol && col <= m.EndCol
}

// CellGrid is an immutable sparse view of one worksheet.
type CellGrid struct {
	sheet  string
	cells  map[Pos]Cell
	merges []MergeRange
	maxRow int
	maxCol int
}

// NewCellGrid builds a grid from raw values. Accepted value types are string,
// float64, int, int64 and nil; anything else is stored as its fmt.Sprint form.
// Blank strings are dropped, so MaxRow is the last row holding data.
func NewCellGrid(sheet string, values map[Pos]interface{}, merges []MergeRange) *CellGrid {
	g := &CellGrid{
		sheet: sheet,
		cells: make(map[Pos]Cell, len(values)),
	}
	for p, v := range values {
		if p.Row < 1 || p.Col < 1 {
			continue
		}
		cell := Cell{Value: normalizeValue(v)}
		if cell.IsBlank() {
			continue
		}
		g.cells[p] = cell
		if p.Row > g.maxRow {
			g.maxRow = p.Row
		}
		if p.Col > g.maxCol {
			g.maxCol = p.Col
		}
	}

	g.merges = append([]MergeRange(nil), merges...)
	sort.Slice(g.merges, func(i, j int) bool {
		if g.merges[i].StartRow != g.merges[j].StartRow {
			return g.merges[i].StartRow < g.merges[j].StartRow
		}
		return g.merges[i].StartCol < g.merges[j].StartCol
	})

	return g
}

func normalizeValue(v interface{}) interface{} {
	switch t := v.(type) {
	case nil:
		return nil
	case string:
		return t
	case float64:
		return t
	case float32:
		return float64(t)
	case int:
		return float64(t)
	case int64:
		return float64(t)
	}
	return fmt.Sprint(v)
}

// Sheet returns the worksheet name the grid was read from.
func (g *CellGrid) Sheet() string { return g.sheet }

// MaxRow returns the last populated row, 0 for an empty grid.
func (g *CellGrid) MaxRow() int { return g.maxRow }

// MaxCol returns the last populated column, 0 for an empty grid.
func (g *CellGrid) MaxCol() int { return g.maxCol }

// Len returns the number of non-blank cells.
func (g *CellGrid) Len() int { return len(g.cells) }

// Raw returns the value physically stored at (row, col), ignoring merges.
func (g *CellGrid) Raw(row, col int) Cell {
	return g.cells[Pos{Row: row, Col: col}]
}

// Value returns the value at (row, col); a cell covered by a merged range
// yields the range's top-left value.
func (g *CellGrid) Value(row, col int) Cell {
	if c, ok := g.cells[Pos{Row: row, Col: col}]; ok {
		return c
	}
	if m, ok := g.MergeAt(row, col); ok {
		return g.cells[Pos{Row: m.StartRow, Col: m.StartCol}]
	}
	return Cell{}
}

// Text returns the merge-aware value as trimmed text.
func (g *CellGrid) Text(row, col int) string {
	return strings.TrimSpace(g.Value(row, col).String())
}

// MergeAt returns the merged range covering (row, col), if any.
func (g *CellGrid) MergeAt(row, col int) (MergeRange, bool) {
	for _, m := range g.merges {
		if m.StartRow > row {
			break
		}
		if m.Contains(row, col) {
			return m, true
		}
	}
	return MergeRange{}, false
}

// Merges returns a copy of the merged ranges ordered by top-left cell.
func (g *CellGrid) Merges() []MergeRange {
	return append([]MergeRange(nil), g.merges...)
}

// IsBlankRow reports whether no cell in the row holds data.
func (g *CellGrid) IsBlankRow(row int) bool {
	for col := 1; col <= g.maxCol; col++ {
		if _, ok := g.cells[Pos{Row: row, Col: col}]; ok {
			return false
		}
	}
	return true
}
