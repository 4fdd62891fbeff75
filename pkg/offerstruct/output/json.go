// Package output renders extraction results as JSON.
package output

import (
	"bytes"
	"encoding/json"

	"github.com/ukaji3/offerstruct-go/pkg/offerstruct/models"
)

// ToJSON serializes v. HTML characters are left unescaped so header text
// and product names round-trip verbatim.
func ToJSON(v interface{}, pretty bool) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// ResultToJSON serializes a full extraction result.
func ResultToJSON(res *models.Result, pretty bool) ([]byte, error) {
	return ToJSON(res, pretty)
}

// ReportToJSON serializes only the extraction report, as printed by dry runs.
func ReportToJSON(rep *models.ExtractionReport, pretty bool) ([]byte, error) {
	return ToJSON(rep, pretty)
}
