// Package offerstruct extracts products, price offers and product images
// from commercial-proposal spreadsheets.
package offerstruct

import (
	"go.uber.org/zap"

	"github.com/ukaji3/offerstruct-go/pkg/offerstruct/rows"
	"github.com/ukaji3/offerstruct-go/pkg/offerstruct/template"
)

// Options configures extraction behavior. The zero value is usable but
// DefaultOptions gives the documented defaults.
type Options struct {
	// Sheet names the worksheet to parse. Empty selects the active sheet,
	// or the first sheet with data when the active one is blank.
	Sheet string
	// Template is "auto" (or empty) to detect the header, a 1-based preset
	// index, or a preset name.
	Template string
	// Presets are the named template profiles Template may select.
	Presets []template.Preset
	// Keywords overrides the built-in keyword table for Locale.
	Keywords *template.KeywordTable
	// Locale picks the built-in keyword table ("ru", "en").
	Locale string
	// HeaderScanRows bounds the header search from the top of the data.
	HeaderScanRows int
	// ConfidenceThreshold quarantines files whose template scores lower.
	ConfidenceThreshold float64
	// MagnitudeCorrection specifies whether ×10 / ÷10 slips are corrected.
	// If nil, defaults to true. Suspect offers are flagged either way.
	MagnitudeCorrection *bool
	// MagnitudeTarget is the field corrected first.
	MagnitudeTarget rows.MagnitudeTarget
	// RowTolerance is how many rows outside a block an image anchor may
	// sit and still bind to the nearest block. Negative disables it.
	RowTolerance int
	// ImageColumn forces the main-image column (1-based). Zero detects it.
	ImageColumn int
	// VerifyWorkers bounds image decoding. Zero uses the CPU count.
	VerifyWorkers int
	// Logger receives stage logs. If nil, nothing is logged.
	Logger *zap.Logger
}

// DefaultOptions returns the default extraction options.
func DefaultOptions() Options {
	return Options{
		Template:            template.AutoName,
		Locale:              template.DefaultLocale,
		HeaderScanRows:      template.DefaultHeaderScanRows,
		ConfidenceThreshold: 0.5,
		MagnitudeTarget:     rows.TargetQuantity,
		RowTolerance:        2,
	}
}

// ShouldCorrectMagnitude returns whether magnitude slips are rewritten.
func (o Options) ShouldCorrectMagnitude() bool {
	if o.MagnitudeCorrection != nil {
		return *o.MagnitudeCorrection
	}
	return true
}

func (o Options) logger() *zap.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return zap.NewNop()
}

func (o Options) keywords() (*template.KeywordTable, error) {
	if o.Keywords != nil {
		return o.Keywords, nil
	}
	locale := o.Locale
	if locale == "" {
		locale = template.DefaultLocale
	}
	return template.BuiltinKeywords(locale)
}

func (o Options) magnitudePolicy() rows.MagnitudePolicy {
	return rows.MagnitudePolicy{
		Correct: o.ShouldCorrectMagnitude(),
		Target:  o.MagnitudeTarget,
	}
}
