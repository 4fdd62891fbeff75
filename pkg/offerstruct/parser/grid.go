// Package parser provides the Grid Loader: it opens an xlsx container held in
// memory and exposes one worksheet as a CellGrid plus its image anchors.
package parser

import (
	"bytes"
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/xuri/excelize/v2"

	"github.com/ukaji3/offerstruct-go/pkg/offerstruct/models"
)

var (
	// ErrCorruptArchive indicates the xlsx container could not be opened.
	ErrCorruptArchive = eris.New("corrupt archive")
	// ErrEmptySheet indicates no worksheet holds any data.
	ErrEmptySheet = eris.New("empty sheet")
	// ErrSheetNotFound indicates a requested worksheet does not exist.
	ErrSheetNotFound = eris.New("sheet not found")
)

// LoadOptions selects the worksheet to read.
type LoadOptions struct {
	// Sheet names the worksheet; empty means the active sheet, falling back
	// to the first sheet with data.
	Sheet string
}

// Load opens an xlsx file and returns the chosen sheet's grid and anchors.
// ctx is checked once per row and once per picture; cancellation returns
// ctx.Err() unwrapped.
func Load(ctx context.Context, data []byte, opts LoadOptions) (*models.CellGrid, []models.ImageAnchor, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, nil, eris.Wrapf(ErrCorruptArchive, "loader: open workbook: %v", err)
	}
	defer f.Close()

	sheet, err := pickSheet(f, opts.Sheet)
	if err != nil {
		return nil, nil, err
	}

	values, err := readCells(ctx, f, sheet)
	if err != nil {
		if cerr := ctx.Err(); cerr != nil {
			return nil, nil, cerr
		}
		return nil, nil, eris.Wrapf(ErrCorruptArchive, "loader: read cells of %q: %v", sheet, err)
	}
	if len(values) == 0 {
		return nil, nil, eris.Wrapf(ErrEmptySheet, "loader: sheet %q", sheet)
	}

	merges, err := readMerges(f, sheet)
	if err != nil {
		return nil, nil, eris.Wrapf(ErrCorruptArchive, "loader: read merged cells of %q: %v", sheet, err)
	}

	anchors, err := readPictures(ctx, f, data, sheet)
	if err != nil {
		if cerr := ctx.Err(); cerr != nil {
			return nil, nil, cerr
		}
		return nil, nil, eris.Wrapf(ErrCorruptArchive, "loader: read pictures of %q: %v", sheet, err)
	}

	return models.NewCellGrid(sheet, values, merges), anchors, nil
}

// pickSheet resolves the worksheet to parse.
func pickSheet(f *excelize.File, want string) (string, error) {
	sheets := f.GetSheetList()
	if want != "" {
		for _, s := range sheets {
			if s == want {
				return s, nil
			}
		}
		return "", eris.Wrapf(ErrSheetNotFound, "loader: sheet %q", want)
	}

	// Active sheet first, then the rest in workbook order.
	active := f.GetSheetName(f.GetActiveSheetIndex())
	candidates := make([]string, 0, len(sheets))
	if active != "" {
		candidates = append(candidates, active)
	}
	for _, s := range sheets {
		if s != active {
			candidates = append(candidates, s)
		}
	}

	for _, s := range candidates {
		rows, err := f.GetRows(s)
		if err != nil {
			continue
		}
		if hasData(rows) {
			return s, nil
		}
	}
	return "", eris.Wrap(ErrEmptySheet, "loader: no worksheet has data")
}

func hasData(rows [][]string) bool {
	for _, row := range rows {
		for _, cell := range row {
			if strings.TrimSpace(cell) != "" {
				return true
			}
		}
	}
	return false
}

// readCells reads every non-blank cell of the sheet as string or float64.
func readCells(ctx context.Context, f *excelize.File, sheet string) (map[models.Pos]interface{}, error) {
	display, err := f.GetRows(sheet)
	if err != nil {
		return nil, err
	}
	raw, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, err
	}

	values := make(map[models.Pos]interface{})
	for rowIdx, row := range raw {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for colIdx, rawValue := range row {
			if strings.TrimSpace(rawValue) == "" {
				continue
			}
			text := rawValue
			if rowIdx < len(display) && colIdx < len(display[rowIdx]) {
				text = display[rowIdx][colIdx]
			}

			cellName, err := excelize.CoordinatesToCellName(colIdx+1, rowIdx+1)
			if err != nil {
				return nil, err
			}
			cellType, err := f.GetCellType(sheet, cellName)
			if err != nil {
				return nil, err
			}

			values[models.Pos{Row: rowIdx + 1, Col: colIdx + 1}] = parseValue(cellType, rawValue, text)
		}
	}
	return values, nil
}

var datePattern = regexp.MustCompile(`^\d{1,4}[./-]\d{1,2}[./-]\d{1,4}(\s|$)`)

// parseValue normalises a cell to string or float64. Numeric cells whose
// display text is a date stay opaque strings.
func parseValue(cellType excelize.CellType, raw, text string) interface{} {
	text = strings.TrimSpace(text)
	switch cellType {
	case excelize.CellTypeSharedString, excelize.CellTypeInlineString,
		excelize.CellTypeBool, excelize.CellTypeError, excelize.CellTypeDate:
		return text
	}

	n, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return text
	}
	if text != strings.TrimSpace(raw) && datePattern.MatchString(text) {
		return text
	}
	return n
}

// readMerges returns the sheet's merged ranges in 1-based coordinates.
func readMerges(f *excelize.File, sheet string) ([]models.MergeRange, error) {
	mcs, err := f.GetMergeCells(sheet)
	if err != nil {
		return nil, err
	}

	merges := make([]models.MergeRange, 0, len(mcs))
	for _, mc := range mcs {
		startCol, startRow, err := excelize.CellNameToCoordinates(mc.GetStartAxis())
		if err != nil {
			continue
		}
		endCol, endRow, err := excelize.CellNameToCoordinates(mc.GetEndAxis())
		if err != nil {
			continue
		}
		merges = append(merges, models.MergeRange{
			StartRow: startRow,
			StartCol: startCol,
			EndRow:   endRow,
			EndCol:   endCol,
		})
	}
	return merges, nil
}
