package parser

import (
	"context"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ukaji3/offerstruct-go/internal/testutil"
)

func TestLoad_Proposal(t *testing.T) {
	grid, anchors, err := Load(context.Background(), testutil.Proposal(t), LoadOptions{})
	require.NoError(t, err)

	assert.Equal(t, "Sheet1", grid.Sheet())
	assert.Equal(t, 8, grid.MaxRow())
	assert.Equal(t, 7, grid.MaxCol())

	assert.Equal(t, "Наименование", grid.Text(2, 2))
	n, ok := grid.Raw(4, 4).Number()
	require.True(t, ok)
	assert.Equal(t, 500.0, n)
	n, ok = grid.Raw(4, 5).Number()
	require.True(t, ok)
	assert.Equal(t, 2.5, n)

	// Text that looks numeric stays text; normalisation is the extractor's job.
	assert.Equal(t, "2 130", grid.Raw(5, 4).Value)
	assert.Equal(t, "2,1", grid.Raw(5, 5).Value)
	assert.True(t, grid.IsBlankRow(3))

	require.Len(t, anchors, 3)
	for i, a := range anchors {
		assert.Equal(t, i, a.Seq)
		assert.Equal(t, 1, a.Anchor.Col)
		assert.Equal(t, "png", a.Extension)
		assert.Len(t, a.Digest, 64)
		assert.Equal(t, len(a.Data), a.Size)
		assert.False(t, a.Grouped)
	}
	assert.Equal(t, 4, anchors[0].Anchor.Row)
	assert.Equal(t, 5, anchors[1].Anchor.Row)
	assert.Equal(t, 6, anchors[2].Anchor.Row)
	assert.NotEqual(t, anchors[0].Digest, anchors[1].Digest)
}

func TestLoad_Merges(t *testing.T) {
	data := testutil.Workbook(t, func(f *excelize.File, sheet string) {
		testutil.SetRows(t, f, sheet, 1, [][]interface{}{
			{"Наименование", "Тираж"},
			{"Кружка", 100},
			{nil, 200},
		})
		require.NoError(t, f.MergeCell(sheet, "A2", "A3"))
	})

	grid, _, err := Load(context.Background(), data, LoadOptions{})
	require.NoError(t, err)

	assert.Equal(t, "Кружка", grid.Text(3, 1))
	assert.True(t, grid.Raw(3, 1).IsBlank())

	m, ok := grid.MergeAt(3, 1)
	require.True(t, ok)
	assert.Equal(t, 2, m.StartRow)
	assert.Equal(t, 3, m.EndRow)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("corrupt archive", func(t *testing.T) {
		_, _, err := Load(context.Background(), []byte("not a zip"), LoadOptions{})
		require.Error(t, err)
		assert.True(t, eris.Is(err, ErrCorruptArchive))
	})

	t.Run("empty workbook", func(t *testing.T) {
		data := testutil.Workbook(t, func(*excelize.File, string) {})
		_, _, err := Load(context.Background(), data, LoadOptions{})
		require.Error(t, err)
		assert.True(t, eris.Is(err, ErrEmptySheet))
	})

	t.Run("missing sheet", func(t *testing.T) {
		_, _, err := Load(context.Background(), testutil.Proposal(t), LoadOptions{Sheet: "Nope"})
		require.Error(t, err)
		assert.True(t, eris.Is(err, ErrSheetNotFound))
	})
}

func TestLoad_SheetSelection(t *testing.T) {
	data := testutil.Workbook(t, func(f *excelize.File, sheet string) {
		_, err := f.NewSheet("Prices")
		require.NoError(t, err)
		require.NoError(t, f.SetCellValue("Prices", "A1", "Наименование"))
	})

	// Sheet1 is active but blank, so the first sheet with data wins.
	grid, _, err := Load(context.Background(), data, LoadOptions{})
	require.NoError(t, err)
	assert.Equal(t, "Prices", grid.Sheet())

	grid, _, err = Load(context.Background(), data, LoadOptions{Sheet: "Prices"})
	require.NoError(t, err)
	assert.Equal(t, "Наименование", grid.Text(1, 1))
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		name     string
		cellType excelize.CellType
		raw      string
		text     string
		expected interface{}
	}{
		{"number", excelize.CellTypeNumber, "123", "123", 123.0},
		{"decimal", excelize.CellTypeUnset, "2.5", "2.5", 2.5},
		{"formatted number", excelize.CellTypeNumber, "1234.5", "1,234.50", 1234.5},
		{"two decimals", excelize.CellTypeNumber, "12.5", "12.50", 12.5},
		{"shared string", excelize.CellTypeSharedString, "2 130", "2 130", "2 130"},
		{"date serial", excelize.CellTypeNumber, "45000", "15.03.2023", "15.03.2023"},
		{"date type", excelize.CellTypeDate, "2023-03-15T00:00:00Z", "03-15-23", "03-15-23"},
		{"bool", excelize.CellTypeBool, "1", "TRUE", "TRUE"},
		{"text in numeric cell", excelize.CellTypeUnset, "abc", "abc", "abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseValue(tt.cellType, tt.raw, tt.text))
		})
	}
}

func TestDataBounds(t *testing.T) {
	grid, _, err := Load(context.Background(), testutil.Proposal(t), LoadOptions{})
	require.NoError(t, err)

	rect, ok := DataBounds(grid)
	require.True(t, ok)
	assert.Equal(t, Rect{MinRow: 1, MaxRow: 8, MinCol: 1, MaxCol: 7}, rect)

	assert.Equal(t, 1, CountNonEmpty(grid, Rect{MinRow: 1, MaxRow: 1, MinCol: 1, MaxCol: 7}))
	assert.Equal(t, 7, CountNonEmpty(grid, Rect{MinRow: 2, MaxRow: 2, MinCol: 1, MaxCol: 7}))
	assert.Zero(t, CountNonEmpty(grid, Rect{MinRow: 3, MaxRow: 3, MinCol: 1, MaxCol: 7}))
}

// expiringContext reports cancellation once Err has been polled n times.
type expiringContext struct {
	context.Context
	n int
}

func (c *expiringContext) Err() error {
	if c.n <= 0 {
		return context.Canceled
	}
	c.n--
	return nil
}

func TestLoad_CancelledMidway(t *testing.T) {
	data := testutil.Workbook(t, func(f *excelize.File, sheet string) {
		rows := make([][]interface{}, 500)
		for i := range rows {
			rows[i] = []interface{}{"Кружка", i + 1, 2.5}
		}
		testutil.SetRows(t, f, sheet, 1, rows)
	})

	ctx := &expiringContext{Context: context.Background(), n: 10}
	grid, anchors, err := Load(ctx, data, LoadOptions{})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, eris.Is(err, ErrCorruptArchive))
	assert.Nil(t, grid)
	assert.Nil(t, anchors)

	ctx = &expiringContext{Context: context.Background(), n: 1000}
	grid, _, err = Load(ctx, data, LoadOptions{})
	require.NoError(t, err)
	assert.Equal(t, 500, grid.MaxRow())
}
