package offerstruct

import (
	"fmt"

	"github.com/rotisserie/eris"

	"github.com/ukaji3/offerstruct-go/pkg/offerstruct/parser"
	"github.com/ukaji3/offerstruct-go/pkg/offerstruct/template"
)

var (
	// ErrCorruptArchive indicates the input is not a readable xlsx container.
	ErrCorruptArchive = parser.ErrCorruptArchive
	// ErrEmptySheet indicates the selected worksheet holds no data.
	ErrEmptySheet = parser.ErrEmptySheet
	// ErrSheetNotFound indicates a requested worksheet does not exist.
	ErrSheetNotFound = parser.ErrSheetNotFound
	// ErrUnknownTemplate indicates the template selector matched no preset.
	ErrUnknownTemplate = template.ErrUnknownTemplate
	// ErrLowConfidenceTemplate indicates the file was quarantined because its
	// layout could not be recognised reliably. The partial result is still
	// returned alongside this error.
	ErrLowConfidenceTemplate = eris.New("low confidence template")
	// ErrFileNotFound indicates the input file does not exist.
	ErrFileNotFound = eris.New("file not found")
)

// Pipeline stages, as reported by StageError.
const (
	StageRead    = "read"
	StageLoad    = "load"
	StageAnalyze = "analyze"
)

// StageError represents a fatal error in one stage of a file's pipeline.
type StageError struct {
	SourceID string
	Stage    string
	Err      error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("extraction error in %q (%s): %v", e.SourceID, e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// NewStageError creates a new StageError.
func NewStageError(sourceID, stage string, err error) *StageError {
	return &StageError{
		SourceID: sourceID,
		Stage:    stage,
		Err:      err,
	}
}

// IsQuarantined reports whether err only signals a low-confidence template,
// in which case the accompanying result is still meaningful.
func IsQuarantined(err error) bool {
	return err != nil && eris.Is(err, ErrLowConfidenceTemplate)
}
