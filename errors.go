package doctex

import (
	"fmt"

	"github.com/tsawler/doctex/model"
)

// Warning is a non-fatal issue reported during conversion.
type Warning = model.Warning

// FormatWarnings joins warnings into a single human-readable string.
func FormatWarnings(warnings []Warning) string {
	var s string
	for i, w := range warnings {
		if i > 0 {
			s += "; "
		}
		s += w.String()
	}
	return s
}

// InvalidFormatError reports an input file that is not a supported
// document: an unrecognized extension or a corrupt container.
type InvalidFormatError struct {
	Path   string
	Reason string
}

func (e *InvalidFormatError) Error() string {
	return fmt.Sprintf("invalid file format: %s: %s", e.Path, e.Reason)
}

// ConversionError reports a failure in a specific conversion stage.
type ConversionError struct {
	Stage string // "parse", "generate", or "write"
	Err   error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("conversion failed during %s: %v", e.Stage, e.Err)
}

func (e *ConversionError) Unwrap() error {
	return e.Err
}
