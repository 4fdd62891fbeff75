// Package testutil builds in-memory xlsx and image fixtures for tests.
package testutil

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// PNG encodes a solid w x h image.
func PNG(t testing.TB, w, h int, c color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// Workbook runs build against a fresh workbook whose first sheet is
// "Sheet1" and returns the serialized file.
func Workbook(t testing.TB, build func(f *excelize.File, sheet string)) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	build(f, "Sheet1")

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

// SetRows writes rows starting at startRow; nil entries are skipped.
func SetRows(t testing.TB, f *excelize.File, sheet string, startRow int, rows [][]interface{}) {
	t.Helper()
	for i, row := range rows {
		for j, v := range row {
			if v == nil {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(j+1, startRow+i)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue(sheet, cell, v))
		}
	}
}

// AddPNG anchors a PNG picture at cell.
func AddPNG(t testing.TB, f *excelize.File, sheet, cell string, data []byte) {
	t.Helper()
	require.NoError(t, f.AddPictureFromBytes(sheet, cell, &excelize.Picture{
		Extension: ".png",
		File:      data,
	}))
}

// Red, Green and Blue are distinct fixture colors, so their PNGs differ.
var (
	Red   = color.RGBA{R: 255, A: 255}
	Green = color.RGBA{G: 255, A: 255}
	Blue  = color.RGBA{B: 255, A: 255}
)

// Proposal writes the canonical commercial-proposal fixture:
//
//	row 1: title
//	row 2: header (photo, name, description, quantity, USD, RUB, delivery)
//	row 3: blank
//	rows 4-5: "Кружка" with two quantities, row 6: "Ручка"
//	row 8: footer text
//
// Pictures: A4 (mug main), A5 (mug second), A6 (pen).
func Proposal(t testing.TB) []byte {
	t.Helper()
	return Workbook(t, func(f *excelize.File, sheet string) {
		SetRows(t, f, sheet, 1, [][]interface{}{
			{"Коммерческое предложение"},
			{"Фото", "Наименование", "Описание", "Тираж, шт", "Цена за шт., $", "Цена за шт., руб", "Срок, дн"},
			{},
			{nil, "Кружка", "Керамика 350 мл", 500, 2.5, 230, 35},
			{nil, nil, nil, "2 130", "2,1", 195, "35-40"},
			{nil, "Ручка", "Пластик", 1000, 0.35, 32, 30},
			{},
			{nil, "Итого без НДС"},
		})
		AddPNG(t, f, sheet, "A4", PNG(t, 4, 4, Red))
		AddPNG(t, f, sheet, "A5", PNG(t, 4, 4, Green))
		AddPNG(t, f, sheet, "A6", PNG(t, 4, 4, Blue))
	})
}
