package models

// Severity grades a diagnostic.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// DiagnosticCode identifies an anomaly class.
type DiagnosticCode string

const (
	CodeLowConfidenceTemplate DiagnosticCode = "LowConfidenceTemplate"
	CodeMagnitudeSuspect      DiagnosticCode = "MagnitudeSuspect"
	CodeRowSegmentGap         DiagnosticCode = "RowSegmentGap"
	CodeOrphanAnchor          DiagnosticCode = "OrphanAnchor"
	CodeNoPricing             DiagnosticCode = "NoPricing"
	CodeImplausibleValue      DiagnosticCode = "ImplausibleValue"
	CodeUnparseableValue      DiagnosticCode = "UnparseableValue"
	CodeDuplicateOffer        DiagnosticCode = "DuplicateOffer"
	CodeFooterDropped         DiagnosticCode = "FooterDropped"
	CodeMainImageDemoted      DiagnosticCode = "MainImageDemoted"
	CodeUnreadableImage       DiagnosticCode = "UnreadableImage"
	CodeDuplicateRole         DiagnosticCode = "DuplicateRole"
	CodeNoNameColumn          DiagnosticCode = "NoNameColumn"
)

// Diagnostic is one non-fatal anomaly surfaced to operators.
type Diagnostic struct {
	Code     DiagnosticCode `json:"code"`
	Severity Severity       `json:"severity"`
	Row      int            `json:"row,omitempty"`
	Column   int            `json:"column,omitempty"`
	Route    string         `json:"route,omitempty"`
	Message  string         `json:"message"`
}

// ExtractionReport summarises one file's extraction for manual review.
type ExtractionReport struct {
	SourceID       string       `json:"source_id"`
	Sheet          string       `json:"sheet"`
	Template       string       `json:"template"`
	Confidence     float64      `json:"confidence"`
	HeaderRow      int          `json:"header_row"`
	Quarantined    bool         `json:"quarantined"`
	RowsTotal      int          `json:"rows_total"`
	RowsResolved   int          `json:"rows_resolved"`
	RowsUnresolved int          `json:"rows_unresolved"`
	Products       int          `json:"products"`
	Offers         int          `json:"offers"`
	ImagesTotal    int          `json:"images_total"`
	ImagesResolved int          `json:"images_resolved"`
	ImagesOrphaned int          `json:"images_orphaned"`
	Diagnostics    []Diagnostic `json:"diagnostics"`
}

// Add appends diagnostics in order.
func (r *ExtractionReport) Add(d ...Diagnostic) {
	r.Diagnostics = append(r.Diagnostics, d...)
}

// Count returns how many diagnostics carry code.
func (r *ExtractionReport) Count(code DiagnosticCode) int {
	n := 0
	for _, d := range r.Diagnostics {
		if d.Code == code {
			n++
		}
	}
	return n
}
