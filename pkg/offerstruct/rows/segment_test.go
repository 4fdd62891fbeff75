package rows

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ukaji3/offerstruct-go/pkg/offerstruct/models"
	"github.com/ukaji3/offerstruct-go/pkg/offerstruct/template"
)

func gridOf(startRow int, rows [][]interface{}, merges ...models.MergeRange) *models.CellGrid {
	values := make(map[models.Pos]interface{})
	for i, row := range rows {
		for j, v := range row {
			if v != nil {
				values[models.Pos{Row: startRow + i, Col: j + 1}] = v
			}
		}
	}
	return models.NewCellGrid("Sheet1", values, merges)
}

func analyze(t *testing.T, grid *models.CellGrid) *models.TemplateProfile {
	t.Helper()
	p := template.NewAnalyzer(template.MustBuiltinKeywords("ru"), 0).Analyze(grid)
	require.NotZero(t, p.HeaderRow)
	return p
}

// scenarioGrid is the mug/pen sheet: header on row 2, mug on rows 4-5,
// pen on row 6.
func scenarioGrid() *models.CellGrid {
	return gridOf(2, [][]interface{}{
		{"Наименование", "Тираж, шт", "Цена за шт., $", "Цена за шт., руб"},
		{},
		{"Кружка", 500.0, "2,5", 230.0},
		{nil, "2 130", 2.1, 195.0},
		{"Ручка", 1000.0, 0.35, 32.0},
	})
}

func TestSegment_Scenario(t *testing.T) {
	grid := scenarioGrid()
	blocks, diags := Segment(grid, analyze(t, grid))

	require.Len(t, blocks, 2)
	assert.Equal(t, models.ProductBlock{Index: 0, StartRow: 4, EndRow: 5, Name: "Кружка"}, blocks[0])
	assert.Equal(t, models.ProductBlock{Index: 1, StartRow: 6, EndRow: 6, Name: "Ручка"}, blocks[1])
	assert.Empty(t, diags)
}

func TestSegment_MergedNameAndDescription(t *testing.T) {
	grid := gridOf(1, [][]interface{}{
		{"Наименование", "Описание", "Тираж", "Цена, $"},
		{"Кружка", "Керамика", 100.0, 1.5},
		{nil, nil, 200.0, 1.4},
		{nil, "Подарочная коробка", 300.0, 1.3},
		{"Ручка", "Пластик", 100.0, 0.4},
	},
		models.MergeRange{StartRow: 2, StartCol: 1, EndRow: 4, EndCol: 1},
		models.MergeRange{StartRow: 2, StartCol: 2, EndRow: 3, EndCol: 2},
	)

	blocks, _ := Segment(grid, analyze(t, grid))

	require.Len(t, blocks, 2)
	assert.Equal(t, 2, blocks[0].StartRow)
	assert.Equal(t, 4, blocks[0].EndRow)
	assert.Equal(t, "Керамика\nПодарочная коробка", blocks[0].Description)
	assert.Equal(t, "Пластик", blocks[1].Description)
}

func TestSegment_GapsAndFooters(t *testing.T) {
	grid := gridOf(1, [][]interface{}{
		{"Наименование", "Тираж", "Цена, $"},
		{nil, "Курс 95"},
		{"Кружка", 100.0, 1.5},
		{},
		{"Итого без НДС"},
		{"Менеджер: Иванов"},
	})

	blocks, diags := Segment(grid, analyze(t, grid))

	require.Len(t, blocks, 1)
	assert.Equal(t, 3, blocks[0].StartRow)
	assert.Equal(t, 4, blocks[0].EndRow)

	require.Len(t, diags, 3)
	assert.Equal(t, models.CodeRowSegmentGap, diags[0].Code)
	assert.Equal(t, 2, diags[0].Row)
	assert.Equal(t, models.CodeFooterDropped, diags[1].Code)
	assert.Equal(t, 6, diags[1].Row)
	assert.Equal(t, models.CodeFooterDropped, diags[2].Code)
	assert.Equal(t, 5, diags[2].Row)
}

func TestSegment_NoNameColumn(t *testing.T) {
	grid := gridOf(1, [][]interface{}{{"Тираж"}, {100.0}})
	blocks, diags := Segment(grid, &models.TemplateProfile{HeaderRow: 1})
	assert.Nil(t, blocks)
	assert.Nil(t, diags)
}

// Blocks are contiguous, ordered and cover every row from the first name
// to the last non-footer row.
func TestSegment_Contiguity(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for iter := 0; iter < 200; iter++ {
		rows := [][]interface{}{{"Наименование", "Тираж", "Цена, $"}}
		n := 1 + rng.Intn(30)
		for i := 0; i < n; i++ {
			row := []interface{}{nil, nil, nil}
			if rng.Intn(3) == 0 {
				row[0] = "Товар"
			}
			switch rng.Intn(4) {
			case 0:
			case 1:
				row[1] = "примечание"
			default:
				row[1] = float64(100 * (1 + rng.Intn(50)))
				row[2] = 1.5
			}
			rows = append(rows, row)
		}
		grid := gridOf(1, rows)
		profile := &models.TemplateProfile{
			HeaderRow:  1,
			NameColumn: 1,
			Routes:     []models.Route{{Name: "default", QuantityCol: 2, PriceUSDCol: 3}},
		}

		blocks, _ := Segment(grid, profile)
		for i, b := range blocks {
			require.Equal(t, i, b.Index)
			require.LessOrEqual(t, b.StartRow, b.EndRow)
			require.False(t, grid.Raw(b.StartRow, 1).IsBlank(), "block must start on a name")
			if i > 0 {
				require.Equal(t, blocks[i-1].EndRow+1, b.StartRow, "blocks must be contiguous")
			}
			for row := b.StartRow + 1; row <= b.EndRow; row++ {
				require.True(t, grid.Raw(row, 1).IsBlank(), "name rows open new blocks")
			}
		}
		if len(blocks) > 0 {
			for row := 2; row < blocks[0].StartRow; row++ {
				require.True(t, grid.Raw(row, 1).IsBlank())
			}
			last := blocks[len(blocks)-1]
			require.True(t, hasNumericData(grid, last, profile.RouteColumns()))
		}
	}
}
