package models

// Result is the per-file output of the extraction pipeline.
type Result struct {
	// SourceID identifies the input file to downstream collaborators.
	SourceID string `json:"source_id"`
	// Sheet is the worksheet that was parsed.
	Sheet string `json:"sheet"`
	// Profile is the template profile used; nil if analysis never ran.
	Profile *TemplateProfile `json:"profile,omitempty"`
	// Products is ordered by block start row.
	Products []Product `json:"products"`
	// Orphans are anchors that could not be bound to any product.
	Orphans []ImageAnchor `json:"orphans,omitempty"`
	// Report is the extraction report.
	Report ExtractionReport `json:"report"`
}
