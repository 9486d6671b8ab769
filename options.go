package doctex

import "fmt"

// ConversionOptions holds configuration for a conversion.
type ConversionOptions struct {
	docType     string
	fontSize    int
	margins     string
	lineSpacing float64
	imageWidth  float64
	extractBib  bool
	unicode     bool
	standalone  bool
}

// defaultOptions returns the default conversion options.
func defaultOptions() ConversionOptions {
	return ConversionOptions{
		docType:     "article",
		fontSize:    12,
		margins:     "margin=1in",
		lineSpacing: 1.0,
		imageWidth:  0.8,
		standalone:  true,
	}
}

// clone creates a copy of ConversionOptions.
func (o ConversionOptions) clone() ConversionOptions {
	return o
}

var validDocTypes = map[string]bool{
	"article": true,
	"report":  true,
	"book":    true,
}

// validate checks option values against their permitted ranges.
func (o ConversionOptions) validate() error {
	if !validDocTypes[o.docType] {
		return fmt.Errorf("invalid document type %q (want article, report, or book)", o.docType)
	}
	if o.fontSize < 10 || o.fontSize > 14 {
		return fmt.Errorf("font size %d out of range [10, 14]", o.fontSize)
	}
	if o.lineSpacing < 0.5 || o.lineSpacing > 3.0 {
		return fmt.Errorf("line spacing %.2f out of range [0.5, 3.0]", o.lineSpacing)
	}
	if o.imageWidth <= 0 || o.imageWidth > 1.0 {
		return fmt.Errorf("image width %.2f out of range (0, 1]", o.imageWidth)
	}
	return nil
}
