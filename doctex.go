// Package doctex converts documents between DOCX and LaTeX. The
// conversion direction is inferred from the input file extension.
//
// Basic usage:
//
//	result, warnings, err := doctex.Convert("paper.docx").Run()
//	if err != nil {
//	    // handle error
//	}
//	if len(warnings) > 0 {
//	    log.Println("Warnings:", doctex.FormatWarnings(warnings))
//	}
//
// With options:
//
//	result, _, err := doctex.Convert("paper.docx").
//	    DocType("report").
//	    FontSize(11).
//	    ExtractBib().
//	    RunTo("out/paper.tex")
//
// For lower-level access, the docx and latex packages expose the
// parsers and generators directly.
package doctex

// Must is a helper that wraps a call to a function returning (T, error)
// and panics if the error is non-nil. It is intended for use in scripts
// or tests where error handling would be cumbersome.
func Must[T any](val T, err error) T {
	if err != nil {
		panic(err)
	}
	return val
}

// MustRun is a helper that wraps a terminal operation like Run() and
// panics if the error is non-nil, discarding warnings.
//
// Example:
//
//	result := doctex.MustRun(doctex.Convert("paper.docx").Run())
func MustRun(result Result, _ []Warning, err error) Result {
	if err != nil {
		panic(err)
	}
	return result
}
