package parser

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/ukaji3/offerstruct-go/pkg/offerstruct/models"
)

// readPictures collects every picture anchored on the sheet. Top-level
// pictures come from excelize; pictures nested in group shapes come from the
// drawing walk. The result is ordered by row, column, then discovery order.
func readPictures(ctx context.Context, f *excelize.File, data []byte, sheet string) ([]models.ImageAnchor, error) {
	cells, err := f.GetPictureCells(sheet)
	if err != nil {
		return nil, err
	}

	seenCell := make(map[string]bool, len(cells))
	seen := make(map[string]bool)
	var anchors []models.ImageAnchor
	add := func(a models.ImageAnchor) {
		key := fmt.Sprintf("%s@%d:%d", a.Digest, a.Anchor.Row, a.Anchor.Col)
		if seen[key] {
			return
		}
		seen[key] = true
		a.Seq = len(anchors)
		anchors = append(anchors, a)
	}

	for _, cell := range cells {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if seenCell[cell] {
			continue
		}
		seenCell[cell] = true

		col, row, err := excelize.CellNameToCoordinates(cell)
		if err != nil {
			continue
		}
		pics, err := f.GetPictures(sheet, cell)
		if err != nil {
			return nil, err
		}
		for _, pic := range pics {
			if len(pic.File) == 0 {
				continue
			}
			add(newAnchor(row, col, pic.File, pic.Extension, false))
		}
	}

	grouped, err := readGroupedPictures(ctx, data, sheet)
	if err != nil {
		return nil, err
	}
	for _, g := range grouped {
		add(newAnchor(g.row, g.col, g.data, path.Ext(g.target), true))
	}

	sort.SliceStable(anchors, func(i, j int) bool {
		a, b := anchors[i], anchors[j]
		if a.Anchor.Row != b.Anchor.Row {
			return a.Anchor.Row < b.Anchor.Row
		}
		if a.Anchor.Col != b.Anchor.Col {
			return a.Anchor.Col < b.Anchor.Col
		}
		return a.Seq < b.Seq
	})
	for i := range anchors {
		anchors[i].Seq = i
	}

	return anchors, nil
}

func newAnchor(row, col int, data []byte, ext string, grouped bool) models.ImageAnchor {
	sum := sha256.Sum256(data)
	return models.ImageAnchor{
		Anchor:    models.Pos{Row: row, Col: col},
		Data:      data,
		Extension: strings.ToLower(strings.TrimPrefix(ext, ".")),
		Digest:    hex.EncodeToString(sum[:]),
		Size:      len(data),
		Grouped:   grouped,
	}
}
