package output

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ukaji3/offerstruct-go/pkg/offerstruct/models"
)

func sampleResult() *models.Result {
	qty, usd := 500.0, 2.5
	return &models.Result{
		SourceID: "offer-17",
		Sheet:    "Sheet1",
		Products: []models.Product{{
			Ref:    "ref",
			Name:   "Кружка <350 мл> & блюдце",
			Offers: []models.PriceOffer{{RouteName: "default", Quantity: &qty, PriceUSD: &usd}},
			Images: []models.ProductImage{{CellRef: "A4", Role: models.ImageMain, Data: []byte{1, 2, 3}}},
		}},
		Report: models.ExtractionReport{SourceID: "offer-17", Products: 1, Offers: 1},
	}
}

func TestResultToJSON(t *testing.T) {
	data, err := ResultToJSON(sampleResult(), false)
	require.NoError(t, err)

	s := string(data)
	assert.Contains(t, s, `"name":"Кружка <350 мл> & блюдце"`)
	assert.NotContains(t, s, "\n")
	assert.NotContains(t, s, `"data"`, "image bytes are never serialized")
	assert.Contains(t, s, `"price_rub":null`)

	var back models.Result
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, 500.0, *back.Products[0].Offers[0].Quantity)
}

func TestToJSON_Pretty(t *testing.T) {
	data, err := ToJSON(map[string]int{"a": 1}, true)
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"a\": 1\n}", string(data))
}

func TestReportToJSON(t *testing.T) {
	rep := &models.ExtractionReport{
		SourceID:    "offer-17",
		Quarantined: true,
		Diagnostics: []models.Diagnostic{{Code: models.CodeLowConfidenceTemplate, Severity: models.SeverityError, Message: "low"}},
	}
	data, err := ReportToJSON(rep, false)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), `{"source_id":"offer-17"`))
	assert.Contains(t, string(data), `"quarantined":true`)
	assert.Contains(t, string(data), `"code":"LowConfidenceTemplate"`)
}

func TestResultSchema(t *testing.T) {
	s := ResultSchema()
	require.NotNil(t, s.Properties)

	products, ok := s.Properties.Get("products")
	require.True(t, ok)
	assert.Equal(t, "array", products.Type)

	_, ok = s.Properties.Get("report")
	assert.True(t, ok)

	data, err := SchemaJSON(false)
	require.NoError(t, err)
	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, false, doc["additionalProperties"])
	assert.NotContains(t, string(data), `"$ref"`)
}
