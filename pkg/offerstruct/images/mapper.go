// Package images binds embedded pictures to product blocks by anchor
// position and prepares them for the storage collaborator.
package images

import (
	"fmt"
	"sort"

	"github.com/xuri/excelize/v2"

	"github.com/ukaji3/offerstruct-go/pkg/offerstruct/models"
)

// DefaultRowTolerance is how far outside every block an anchor may sit and
// still bind to the nearest one.
const DefaultRowTolerance = 2

// MapOptions tunes MapImages.
type MapOptions struct {
	// MainColumn is the column whose pictures are main images.
	MainColumn int
	// Tolerance is the nearest-block fallback distance in rows; negative
	// disables the fallback.
	Tolerance int
}

// MainColumn picks the designated image column: the override when set,
// else the profile's first image column, else the leftmost anchor column.
func MainColumn(profile *models.TemplateProfile, anchors []models.ImageAnchor, override int) int {
	if override > 0 {
		return override
	}
	if profile != nil && len(profile.ImageColumns) > 0 {
		return profile.ImageColumns[0]
	}
	col := 0
	for _, a := range anchors {
		if col == 0 || a.Anchor.Col < col {
			col = a.Anchor.Col
		}
	}
	if col == 0 {
		col = 1
	}
	return col
}

// MapImages binds every anchor to the block whose row range contains it,
// falling back to the nearest block within the tolerance. Anchors in the
// main column become main images; only the first per block keeps that role.
// Unbound anchors are returned as orphans. Blocks must be ordered and
// non-overlapping.
func MapImages(anchors []models.ImageAnchor, blocks []models.ProductBlock, opts MapOptions) ([]models.ProductImage, []models.ImageAnchor, []models.Diagnostic) {
	ordered := append([]models.ImageAnchor(nil), anchors...)
	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		if a.Anchor.Row != b.Anchor.Row {
			return a.Anchor.Row < b.Anchor.Row
		}
		if a.Anchor.Col != b.Anchor.Col {
			return a.Anchor.Col < b.Anchor.Col
		}
		return a.Seq < b.Seq
	})

	var (
		bound   []models.ProductImage
		orphans []models.ImageAnchor
		diags   []models.Diagnostic
	)
	hasMain := make(map[int]bool, len(blocks))

	for _, a := range ordered {
		idx, ok := findBlock(blocks, a.Anchor.Row, opts.Tolerance)
		if !ok {
			orphans = append(orphans, a)
			diags = append(diags, models.Diagnostic{
				Code:     models.CodeOrphanAnchor,
				Severity: models.SeverityWarning,
				Row:      a.Anchor.Row,
				Column:   a.Anchor.Col,
				Message:  fmt.Sprintf("image at %s lies outside every product block", cellRef(a.Anchor)),
			})
			continue
		}

		b := blocks[idx]
		role := models.ImageAdditional
		if a.Anchor.Col == opts.MainColumn {
			if !hasMain[idx] {
				role = models.ImageMain
				hasMain[idx] = true
			} else {
				diags = append(diags, models.Diagnostic{
					Code:     models.CodeMainImageDemoted,
					Severity: models.SeverityInfo,
					Row:      a.Anchor.Row,
					Column:   a.Anchor.Col,
					Message:  fmt.Sprintf("second main-column image at %s for %q demoted to additional", cellRef(a.Anchor), b.Name),
				})
			}
		}

		bound = append(bound, models.ProductImage{
			ProductRef: b.Ref,
			Block:      b.Index,
			BytesRef:   a.Digest,
			Role:       role,
			Anchor:     a.Anchor,
			CellRef:    cellRef(a.Anchor),
			Extension:  a.Extension,
			Data:       a.Data,
		})
	}
	return bound, orphans, diags
}

// findBlock returns the index of the block containing row, or of the
// nearest block within tolerance rows. Ties go to the earlier block.
func findBlock(blocks []models.ProductBlock, row, tolerance int) (int, bool) {
	i := sort.Search(len(blocks), func(i int) bool { return blocks[i].EndRow >= row })
	if i < len(blocks) && blocks[i].StartRow <= row {
		return i, true
	}
	if tolerance < 0 {
		return 0, false
	}

	best, bestDist := -1, tolerance+1
	if i > 0 {
		if d := row - blocks[i-1].EndRow; d < bestDist {
			best, bestDist = i-1, d
		}
	}
	if i < len(blocks) {
		if d := blocks[i].StartRow - row; d < bestDist {
			best = i
		}
	}
	return best, best >= 0
}

func cellRef(p models.Pos) string {
	ref, err := excelize.CoordinatesToCellName(p.Col, p.Row)
	if err != nil {
		return fmt.Sprintf("R%dC%d", p.Row, p.Col)
	}
	return ref
}
