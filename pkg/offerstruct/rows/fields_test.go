package rows

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ukaji3/offerstruct-go/pkg/offerstruct/models"
	"github.com/ukaji3/offerstruct-go/pkg/offerstruct/template"
)

func newTestExtractor(correct bool) *Extractor {
	return NewExtractor(template.MustBuiltinKeywords("ru"), MagnitudePolicy{Correct: correct})
}

func ptr[T any](v T) *T { return &v }

func extractAll(t *testing.T, e *Extractor, grid *models.CellGrid) ([]models.ProductBlock, [][]models.PriceOffer, []models.Diagnostic) {
	t.Helper()
	profile := analyze(t, grid)
	blocks, diags := Segment(grid, profile)
	offers := make([][]models.PriceOffer, len(blocks))
	for i, b := range blocks {
		var d []models.Diagnostic
		offers[i], d = e.Extract(grid, profile, b)
		diags = append(diags, d...)
	}
	return blocks, offers, diags
}

func TestExtract_Scenario(t *testing.T) {
	_, offers, diags := extractAll(t, newTestExtractor(true), scenarioGrid())
	require.Empty(t, diags)
	require.Len(t, offers, 2)

	mug := offers[0]
	require.Len(t, mug, 2)
	assert.Equal(t, models.PriceOffer{
		Block: 0, Row: 4, RouteName: "default",
		Quantity: ptr(500.0), QuantityUnit: "шт",
		PriceUSD: ptr(2.5), PriceRUB: ptr(230.0),
	}, mug[0])
	assert.Equal(t, 2130.0, *mug[1].Quantity)
	assert.Equal(t, 2.1, *mug[1].PriceUSD)

	pen := offers[1]
	require.Len(t, pen, 1)
	assert.Equal(t, 1, pen[0].Block)
	assert.Equal(t, 0.35, *pen[0].PriceUSD)
}

func TestExtract_MagnitudeCorrection(t *testing.T) {
	grid := gridOf(1, [][]interface{}{
		{"Наименование", "Тираж", "Цена, $", "Итого, $"},
		{"Блокнот", 213.0, 3.67, 7816.71},
	})

	t.Run("corrected", func(t *testing.T) {
		_, offers, diags := extractAll(t, newTestExtractor(true), grid)
		require.Len(t, offers[0], 1)
		o := offers[0][0]
		assert.Equal(t, 2130.0, *o.Quantity)
		assert.Equal(t, []string{models.FlagMagnitudeSuspect, models.FlagMagnitudeCorrected}, o.Flags)

		require.Len(t, diags, 1)
		assert.Equal(t, models.CodeMagnitudeSuspect, diags[0].Code)
		assert.Equal(t, 2, diags[0].Row)
		assert.Equal(t, 2, diags[0].Column)
		assert.Equal(t, "default", diags[0].Route)
	})

	t.Run("flagged only", func(t *testing.T) {
		_, offers, diags := extractAll(t, newTestExtractor(false), grid)
		o := offers[0][0]
		assert.Equal(t, 213.0, *o.Quantity)
		assert.Equal(t, []string{models.FlagMagnitudeSuspect}, o.Flags)
		require.Len(t, diags, 1)
		assert.Equal(t, models.CodeMagnitudeSuspect, diags[0].Code)
	})
}

func TestExtract_RoutesSamplesAndMerges(t *testing.T) {
	grid := gridOf(1, [][]interface{}{
		{"Наименование", "ЖД", nil, nil, "Авиа", nil, nil},
		{nil, "Тираж", "Цена, руб", "Срок, дн", "Тираж", "Цена, руб", "Срок, дн"},
		{"Кружка", 500.0, 230.0, "35-40", 500.0, 290.0, 14.0},
		{nil, 1000.0, 210.0, nil, 1000.0, 270.0, nil},
		{nil, "Образец", 900.0, 10.0, nil, nil, nil},
	},
		models.MergeRange{StartRow: 1, StartCol: 1, EndRow: 2, EndCol: 1},
		models.MergeRange{StartRow: 1, StartCol: 2, EndRow: 1, EndCol: 4},
		models.MergeRange{StartRow: 1, StartCol: 5, EndRow: 1, EndCol: 7},
		models.MergeRange{StartRow: 3, StartCol: 4, EndRow: 4, EndCol: 4},
		models.MergeRange{StartRow: 3, StartCol: 7, EndRow: 4, EndCol: 7},
	)

	_, offers, diags := extractAll(t, newTestExtractor(true), grid)
	require.Empty(t, diags)
	require.Len(t, offers, 1)
	got := offers[0]
	require.Len(t, got, 5)

	rail := got[:3]
	for _, o := range rail {
		assert.Equal(t, "rail", o.RouteName)
	}
	assert.Equal(t, 40, *rail[0].DeliveryDays)
	assert.Equal(t, 40, *rail[1].DeliveryDays, "merged delivery cell applies to every sub-row")
	assert.Equal(t, 230.0, *rail[0].PriceRUB)
	assert.Nil(t, rail[0].PriceUSD)

	sample := rail[2]
	assert.True(t, sample.IsSample)
	assert.Nil(t, sample.Quantity)
	assert.Equal(t, 900.0, *sample.SamplePrice)
	assert.Equal(t, models.CurrencyRUB, sample.SampleCurrency)
	assert.Equal(t, 10, *sample.SampleDeliveryDays)
	assert.Nil(t, sample.PriceRUB)

	air := got[3:]
	for _, o := range air {
		assert.Equal(t, "air", o.RouteName)
		assert.False(t, o.IsSample)
		assert.Equal(t, 14, *o.DeliveryDays)
	}
}

func TestExtract_SampleColumns(t *testing.T) {
	grid := gridOf(1, [][]interface{}{
		{"Наименование", "Тираж", "Цена, $", "Цена образца, $", "Срок образца, дней"},
		{"Кружка", 500.0, 2.5, 15.0, 7.0},
		{nil, 1000.0, 2.2, nil, nil},
	})

	_, offers, _ := extractAll(t, newTestExtractor(true), grid)
	got := offers[0]
	require.Len(t, got, 3)
	assert.False(t, got[0].IsSample)
	assert.False(t, got[1].IsSample)

	sample := got[2]
	assert.True(t, sample.IsSample)
	assert.Nil(t, sample.Quantity)
	assert.Equal(t, 2, sample.Row)
	assert.Equal(t, 15.0, *sample.SamplePrice)
	assert.Equal(t, models.CurrencyUSD, sample.SampleCurrency)
	assert.Equal(t, 7, *sample.SampleDeliveryDays)
}

func TestExtract_DegradedCells(t *testing.T) {
	grid := gridOf(1, [][]interface{}{
		{"Наименование", "Тираж", "Цена, $", "Срок, дн"},
		{"Кружка", 500.0, "по запросу", "15.03.2024"},
		{nil, 0.5, 1.0, 10.0},
		{nil, "много", 1.0, 10.0},
		{nil, 500.0, 1.1, 10.0},
		{nil, 1000.0, 250000.0, 900.0},
	})

	_, offers, diags := extractAll(t, newTestExtractor(true), grid)
	got := offers[0]
	require.Len(t, got, 2)

	assert.Equal(t, 500.0, *got[0].Quantity)
	assert.Nil(t, got[0].PriceUSD, "unparseable price degrades to missing")
	assert.Nil(t, got[0].DeliveryDays, "dates are not day counts")
	assert.Equal(t, 1000.0, *got[1].Quantity)
	assert.Nil(t, got[1].PriceUSD)
	assert.Nil(t, got[1].DeliveryDays)

	codes := make(map[models.DiagnosticCode]int)
	for _, d := range diags {
		codes[d.Code]++
	}
	assert.Equal(t, 3, codes[models.CodeUnparseableValue])
	assert.Equal(t, 3, codes[models.CodeImplausibleValue])
	assert.Equal(t, 1, codes[models.CodeDuplicateOffer])
}

func TestExtract_CorrectedDuplicateKeepsRawQuantityFree(t *testing.T) {
	grid := gridOf(1, [][]interface{}{
		{"Наименование", "Тираж", "Цена, $", "Итого, $"},
		{"Блокнот", 2130.0, 3.67, 7817.1},
		{nil, 213.0, 3.67, 7817.1},
		{nil, 213.0, 3.67, 781.71},
	})

	_, offers, diags := extractAll(t, newTestExtractor(true), grid)
	got := offers[0]
	require.Len(t, got, 2)
	assert.Equal(t, 2130.0, *got[0].Quantity)
	assert.Equal(t, 2, got[0].Row)
	assert.Equal(t, 213.0, *got[1].Quantity)
	assert.Equal(t, 4, got[1].Row)
	assert.Empty(t, got[1].Flags)

	codes := make(map[models.DiagnosticCode]int)
	for _, d := range diags {
		codes[d.Code]++
	}
	assert.Equal(t, 1, codes[models.CodeMagnitudeSuspect])
	assert.Equal(t, 1, codes[models.CodeDuplicateOffer])
}

// Regular offers always carry a quantity; sample offers never do.
func TestExtract_SampleOffersHaveNoQuantity(t *testing.T) {
	grid := gridOf(1, [][]interface{}{
		{"Наименование", "Тираж", "Цена, $", "Цена образца, $"},
		{"Кружка", 500.0, 2.5, 12.0},
		{nil, "образец", 11.0, nil},
		{"Ручка", 100.0, 0.5, nil},
		{nil, "sample", 3.0, nil},
	})

	_, offers, _ := extractAll(t, newTestExtractor(true), grid)
	total := 0
	for _, block := range offers {
		samples := 0
		for _, o := range block {
			total++
			if o.IsSample {
				samples++
				assert.Nil(t, o.Quantity)
			} else {
				assert.NotNil(t, o.Quantity)
			}
		}
		assert.Equal(t, 1, samples)
	}
	assert.Equal(t, 4, total)
}
