// Package template infers the column layout of a commercial-proposal sheet.
//
// The Analyzer scans the first populated rows for the header, classifies
// every column against a locale keyword table and groups route-scoped
// columns (quantity, prices, delivery, totals, samples) by shipping route.
// Named presets describe fixed layouts for suppliers whose sheets defeat
// inference.
package template

import (
	"strings"

	"github.com/ukaji3/offerstruct-go/pkg/offerstruct/models"
	"github.com/ukaji3/offerstruct-go/pkg/offerstruct/numparse"
	"github.com/ukaji3/offerstruct-go/pkg/offerstruct/parser"
)

const (
	// AutoName is the profile name of inferred layouts.
	AutoName = "auto"
	// DefaultHeaderScanRows is how many populated rows are searched for the header.
	DefaultHeaderScanRows = 5
)

// Analyzer infers TemplateProfiles. It holds no mutable state and is safe
// for concurrent use.
type Analyzer struct {
	keywords *KeywordTable
	scanRows int
}

// NewAnalyzer returns an Analyzer using kw; scanRows <= 0 selects
// DefaultHeaderScanRows.
func NewAnalyzer(kw *KeywordTable, scanRows int) *Analyzer {
	if scanRows <= 0 {
		scanRows = DefaultHeaderScanRows
	}
	return &Analyzer{keywords: kw, scanRows: scanRows}
}

type headerCandidate struct {
	top     int
	bottom  int
	columns []columnSpec
}

// Analyze locates the header rows and classifies every column.
// Identical grids always yield identical profiles.
func (a *Analyzer) Analyze(grid *models.CellGrid) *models.TemplateProfile {
	rect, ok := parser.DataBounds(grid)
	if !ok {
		return newProfileBuilder(AutoName, 0, 0).finish()
	}

	last := rect.MinRow + a.scanRows - 1
	if last > rect.MaxRow {
		last = rect.MaxRow
	}

	var best headerCandidate
	for r := rect.MinRow; r <= last; r++ {
		bottom := r
		if a.twoRowHeader(grid, r, rect) {
			bottom = r + 1
		}
		c := a.classifyRows(grid, r, bottom, rect)
		if len(c.columns) > len(best.columns) {
			best = c
		}
	}
	if len(best.columns) == 0 {
		return newProfileBuilder(AutoName, 0, 0).finish()
	}

	b := newProfileBuilder(AutoName, best.top, best.bottom)
	for _, c := range best.columns {
		b.add(c)
	}
	return b.finish()
}

// classifyRows assigns a role to every column of the header spanning
// rows top..bottom.
func (a *Analyzer) classifyRows(grid *models.CellGrid, top, bottom int, rect parser.Rect) headerCandidate {
	c := headerCandidate{top: top, bottom: bottom}
	for col := rect.MinCol; col <= rect.MaxCol; col++ {
		upper := grid.Text(top, col)
		lower := ""
		if bottom > top {
			lower = a.lowerText(grid, top, bottom, col)
		}
		text := joinHeader(upper, lower)
		if text == "" {
			continue
		}

		role, score := a.keywords.Classify(text)
		if role == models.RoleUnknown {
			continue
		}

		spec := columnSpec{col: col, role: role, score: score, header: text}
		if role.RouteScoped() {
			spec.route = a.routeLabel(upper, lower, text)
		}
		switch role {
		case models.RoleTotal, models.RoleSamplePrice:
			spec.currency = a.keywords.Currency(text)
		case models.RoleQuantity:
			spec.unit = a.keywords.Unit(text)
		}
		c.columns = append(c.columns, spec)
	}
	return c
}

// routeLabel names the route of a route-scoped column: a known route word,
// else the upper text of a two-row header when it is not itself a metric.
func (a *Analyzer) routeLabel(upper, lower, text string) string {
	if r := a.keywords.Route(text); r != "" {
		return r
	}
	if lower != "" && upper != "" {
		if role, _ := a.keywords.Classify(upper); role == models.RoleUnknown {
			return upper
		}
	}
	return DefaultRoute
}

// twoRowHeader reports whether row r+1 continues the header started on r:
// r spans at least two cells, r+1 holds keywords, and r+1 looks like no data
// row. A cell reading as a number, or text under a column r already names
// as the product name, marks r+1 as data.
func (a *Analyzer) twoRowHeader(grid *models.CellGrid, r int, rect parser.Rect) bool {
	if r+1 > rect.MaxRow {
		return false
	}
	upper := parser.Rect{MinRow: r, MaxRow: r, MinCol: rect.MinCol, MaxCol: rect.MaxCol}
	if parser.CountNonEmpty(grid, upper) < 2 {
		return false
	}

	matches := 0
	for col := rect.MinCol; col <= rect.MaxCol; col++ {
		if _, ok := numparse.Cell(grid.Raw(r+1, col), a.keywords.DecimalComma); ok {
			return false
		}
		lower := a.lowerText(grid, r, r+1, col)
		if lower == "" {
			continue
		}
		if role, _ := a.keywords.Classify(grid.Text(r, col)); role == models.RoleName {
			return false
		}
		if role, _ := a.keywords.Classify(lower); role != models.RoleUnknown {
			matches++
		}
	}
	return matches > 0
}

// lowerText returns the header text of the lower row, ignoring cells that
// are only the continuation of a merge starting at or above top.
func (a *Analyzer) lowerText(grid *models.CellGrid, top, bottom, col int) string {
	if m, ok := grid.MergeAt(bottom, col); ok && m.StartRow <= top {
		return ""
	}
	return grid.Text(bottom, col)
}

func joinHeader(upper, lower string) string {
	switch {
	case upper == "":
		return lower
	case lower == "":
		return upper
	}
	return strings.TrimSpace(upper + " " + lower)
}
