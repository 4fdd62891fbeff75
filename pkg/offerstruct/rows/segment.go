// Package rows turns the data area of a profiled sheet into product blocks
// and their price offers.
package rows

import (
	"fmt"
	"strings"

	"github.com/samber/lo"

	"github.com/ukaji3/offerstruct-go/pkg/offerstruct/models"
	"github.com/ukaji3/offerstruct-go/pkg/offerstruct/numparse"
)

// Segment partitions the rows below the header into product blocks. A row
// opens a block iff its name cell physically holds text; every following
// row belongs to that block until the next name. Rows before the first
// name are reported as gaps, and trailing blocks without numeric data in
// any route column are dropped as footers.
func Segment(grid *models.CellGrid, profile *models.TemplateProfile) ([]models.ProductBlock, []models.Diagnostic) {
	if profile.NameColumn == 0 {
		return nil, nil
	}

	var (
		blocks []models.ProductBlock
		diags  []models.Diagnostic
	)
	first := profile.HeaderRow + 1
	last := grid.MaxRow()

	for row := first; row <= last; row++ {
		name := strings.TrimSpace(grid.Raw(row, profile.NameColumn).String())
		if name != "" {
			if n := len(blocks); n > 0 {
				blocks[n-1].EndRow = row - 1
			}
			blocks = append(blocks, models.ProductBlock{StartRow: row, EndRow: row, Name: name})
			continue
		}
		if len(blocks) == 0 && !grid.IsBlankRow(row) {
			diags = append(diags, models.Diagnostic{
				Code:     models.CodeRowSegmentGap,
				Severity: models.SeverityWarning,
				Row:      row,
				Message:  fmt.Sprintf("row %d has data but no product name above it", row),
			})
		}
	}
	if n := len(blocks); n > 0 {
		blocks[n-1].EndRow = last
	}

	routeCols := profile.RouteColumns()
	for len(blocks) > 0 {
		tail := blocks[len(blocks)-1]
		if hasNumericData(grid, tail, routeCols) {
			break
		}
		diags = append(diags, models.Diagnostic{
			Code:     models.CodeFooterDropped,
			Severity: models.SeverityInfo,
			Row:      tail.StartRow,
			Message:  fmt.Sprintf("rows %d-%d (%q) hold no numeric data; dropped as footer", tail.StartRow, tail.EndRow, tail.Name),
		})
		blocks = blocks[:len(blocks)-1]
	}

	for i := range blocks {
		b := &blocks[i]
		b.Index = i
		b.Description = blockText(grid, *b, profile.DescriptionColumn)
		b.CustomDesign = blockText(grid, *b, profile.CustomDesignColumn)
	}
	return blocks, diags
}

// hasNumericData reports whether any route column of the block holds a number.
func hasNumericData(grid *models.CellGrid, b models.ProductBlock, cols []int) bool {
	for row := b.StartRow; row <= b.EndRow; row++ {
		for _, col := range cols {
			if _, ok := numparse.Cell(grid.Raw(row, col), true); ok {
				return true
			}
		}
	}
	return false
}

// blockText joins the distinct non-blank texts of one column over the block.
func blockText(grid *models.CellGrid, b models.ProductBlock, col int) string {
	if col == 0 {
		return ""
	}
	var parts []string
	for row := b.StartRow; row <= b.EndRow; row++ {
		if s := grid.Text(row, col); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(lo.Uniq(parts), "\n")
}
