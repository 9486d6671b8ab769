package doctex

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/tsawler/doctex/bib"
	"github.com/tsawler/doctex/docx"
	"github.com/tsawler/doctex/format"
	"github.com/tsawler/doctex/internal/imaging"
	"github.com/tsawler/doctex/internal/workspace"
	"github.com/tsawler/doctex/latex"
	"github.com/tsawler/doctex/model"
)

// Result describes a finished conversion.
type Result struct {
	OutputPath string
	Size       int64
	Direction  format.Direction
}

// Converter provides a fluent interface for configuring and running a
// conversion. Each configuration method returns a new Converter
// instance, making chains safe to share and reuse.
type Converter struct {
	filename string
	options  ConversionOptions
	logger   *slog.Logger

	// Accumulated error (fail-fast)
	err error
}

// Convert opens a source document and returns a Converter for fluent
// configuration. The conversion runs when a terminal operation (Run or
// RunTo) is called.
//
// Example:
//
//	result, warnings, err := doctex.Convert("paper.docx").ExtractBib().Run()
func Convert(filename string) *Converter {
	return &Converter{
		filename: filename,
		options:  defaultOptions(),
		logger:   slog.Default(),
	}
}

// clone creates a copy of the Converter with copied options, so chain
// methods never mutate their receiver.
func (c *Converter) clone() *Converter {
	return &Converter{
		filename: c.filename,
		options:  c.options.clone(),
		logger:   c.logger,
		err:      c.err,
	}
}

// DocType sets the LaTeX document class: article, report, or book.
func (c *Converter) DocType(docType string) *Converter {
	n := c.clone()
	n.options.docType = docType
	return n
}

// FontSize sets the base font size in points (10 to 14).
func (c *Converter) FontSize(points int) *Converter {
	n := c.clone()
	n.options.fontSize = points
	return n
}

// Margins sets the geometry package options, e.g. "margin=1in".
func (c *Converter) Margins(margins string) *Converter {
	n := c.clone()
	n.options.margins = margins
	return n
}

// LineSpacing sets the line spacing multiplier (0.5 to 3.0).
func (c *Converter) LineSpacing(spacing float64) *Converter {
	n := c.clone()
	n.options.lineSpacing = spacing
	return n
}

// ImageWidth sets the width of included images as a fraction of the
// line width (0 to 1].
func (c *Converter) ImageWidth(fraction float64) *Converter {
	n := c.clone()
	n.options.imageWidth = fraction
	return n
}

// ExtractBib enables bibliography extraction: a References section in
// the source is lifted into structured bibliography entries.
func (c *Converter) ExtractBib() *Converter {
	n := c.clone()
	n.options.extractBib = true
	return n
}

// Unicode enables Unicode support in generated LaTeX: inputenc and
// fontenc in the preamble and NFC normalization of text.
func (c *Converter) Unicode() *Converter {
	n := c.clone()
	n.options.unicode = true
	return n
}

// FragmentOnly disables the LaTeX preamble and document environment,
// emitting body markup only.
func (c *Converter) FragmentOnly() *Converter {
	n := c.clone()
	n.options.standalone = false
	return n
}

// Logger sets the logger used for progress reporting.
func (c *Converter) Logger(logger *slog.Logger) *Converter {
	n := c.clone()
	n.logger = logger
	return n
}

// Run converts the source document, deriving the output path from the
// input by swapping the extension.
func (c *Converter) Run() (Result, []Warning, error) {
	if c.err != nil {
		return Result{}, nil, c.err
	}

	dir := format.DirectionFor(format.Detect(c.filename))
	if dir == format.DirectionUnknown {
		return Result{}, nil, &InvalidFormatError{
			Path:   c.filename,
			Reason: "unsupported extension",
		}
	}

	ext := filepath.Ext(c.filename)
	output := strings.TrimSuffix(c.filename, ext) + dir.OutputExtension()
	return c.RunTo(output)
}

// RunTo converts the source document and writes the result to output.
// Images referenced by the document are staged into a directory beside
// the output file, named after the output so conversions sharing a
// directory stay independent.
func (c *Converter) RunTo(output string) (Result, []Warning, error) {
	if c.err != nil {
		return Result{}, nil, c.err
	}
	if err := c.options.validate(); err != nil {
		return Result{}, nil, err
	}

	dir := format.DirectionFor(format.Detect(c.filename))
	if dir == format.DirectionUnknown {
		return Result{}, nil, &InvalidFormatError{
			Path:   c.filename,
			Reason: "unsupported extension",
		}
	}

	c.logger.Debug("starting conversion",
		"input", c.filename, "output", output, "direction", dir.String())

	var warnings []Warning
	var err error
	switch dir {
	case format.DocxToLaTeX:
		warnings, err = c.toLaTeX(output)
	case format.LaTeXToDocx:
		warnings, err = c.toDocx(output)
	}
	if err != nil {
		return Result{}, warnings, err
	}

	info, err := os.Stat(output)
	if err != nil {
		return Result{}, warnings, &ConversionError{Stage: "write", Err: err}
	}

	c.logger.Info("conversion complete",
		"output", output, "size", info.Size(), "warnings", len(warnings))

	return Result{
		OutputPath: output,
		Size:       info.Size(),
		Direction:  dir,
	}, warnings, nil
}

// toLaTeX converts a DOCX source to a LaTeX file at output.
func (c *Converter) toLaTeX(output string) ([]Warning, error) {
	ws, err := workspace.New()
	if err != nil {
		return nil, &ConversionError{Stage: "parse", Err: err}
	}
	defer ws.Close()

	r, err := docx.Open(c.filename)
	if err != nil {
		return nil, &InvalidFormatError{Path: c.filename, Reason: err.Error()}
	}
	defer r.Close()

	doc, err := r.Document(ws)
	if err != nil {
		return r.Warnings(), &ConversionError{Stage: "parse", Err: err}
	}
	warnings := r.Warnings()

	if c.options.extractBib {
		warnings = append(warnings, bib.Extract(doc)...)
	}

	// The staging directory is keyed to the output name so conversions
	// sharing a directory never overwrite each other's images.
	stem := strings.TrimSuffix(filepath.Base(output), filepath.Ext(output))
	imageDir := stem + "-images"
	imagesDir := filepath.Join(filepath.Dir(output), imageDir)
	staged, err := c.stageImages(doc, imagesDir)
	if err != nil {
		return warnings, &ConversionError{Stage: "generate", Err: err}
	}
	warnings = append(warnings, staged...)

	assetRoot := ""
	if len(doc.Images()) > 0 {
		assetRoot = imagesDir
	}
	src, genWarnings, err := latex.Generate(doc, latex.Options{
		DocType:      c.options.docType,
		FontSize:     c.options.fontSize,
		Margins:      c.options.margins,
		LineSpacing:  spacingName(c.options.lineSpacing),
		ImageWidth:   c.options.imageWidth,
		Unicode:      c.options.unicode,
		Standalone:   c.options.standalone,
		Bibliography: len(doc.Bibliography) > 0,
		AssetRoot:    assetRoot,
		ImageDir:     imageDir,
	})
	warnings = append(warnings, genWarnings...)
	if err != nil {
		return warnings, &ConversionError{Stage: "generate", Err: err}
	}

	if err := os.WriteFile(output, []byte(src), 0o644); err != nil {
		return warnings, &ConversionError{Stage: "write", Err: err}
	}
	return warnings, nil
}

// stageImages copies extracted images into imagesDir and rewrites
// their paths to match \graphicspath. BMP and TIFF files are converted
// to PNG on the way. An image that fails to stage has its path
// cleared so the generator emits a placeholder instead of a reference
// into the soon-to-be-removed workspace.
func (c *Converter) stageImages(doc *model.Document, imagesDir string) ([]Warning, error) {
	images := doc.Images()
	if len(images) == 0 {
		return nil, nil
	}

	if err := os.MkdirAll(imagesDir, 0o755); err != nil {
		return nil, err
	}

	var warnings []Warning
	for _, img := range images {
		name, err := imaging.Stage(img.Path, imagesDir, img.ID)
		if err != nil {
			warnings = append(warnings,
				model.Warnf("missing-image", "staging image %s: %v", img.ID, err))
			img.Path = ""
			continue
		}
		img.Path = name
	}
	return warnings, nil
}

// toDocx converts a LaTeX source to a DOCX file at output.
func (c *Converter) toDocx(output string) ([]Warning, error) {
	data, err := os.ReadFile(c.filename)
	if err != nil {
		return nil, &InvalidFormatError{Path: c.filename, Reason: err.Error()}
	}

	doc, warnings, err := latex.Parse(string(data))
	if err != nil {
		// Broken markup structure means the input itself is bad, not
		// that a conversion stage failed.
		var serr *latex.StructureError
		if errors.As(err, &serr) {
			return warnings, &InvalidFormatError{Path: c.filename, Reason: serr.Msg}
		}
		return warnings, &ConversionError{Stage: "parse", Err: err}
	}

	if c.options.extractBib {
		warnings = append(warnings, bib.Extract(doc)...)
	}

	genWarnings, err := docx.Generate(doc, docx.WriterOptions{
		FontSize:  c.options.fontSize,
		AssetRoot: filepath.Dir(c.filename),
	}, output)
	warnings = append(warnings, genWarnings...)
	if err != nil {
		return warnings, &ConversionError{Stage: "generate", Err: err}
	}
	return warnings, nil
}

// spacingName maps a numeric line-spacing multiplier to a setspace
// environment name.
func spacingName(spacing float64) string {
	switch {
	case spacing <= 1.2:
		return "single"
	case spacing <= 1.8:
		return "onehalf"
	default:
		return "double"
	}
}

// BatchResult pairs one batch input with its conversion outcome.
type BatchResult struct {
	Input    string
	Result   Result
	Warnings []Warning
	Err      error
}

// ConvertAll converts inputs concurrently with up to workers parallel
// conversions, writing outputs into outDir with derived names. The
// configure function, if non-nil, customizes the Converter for every
// input. Results are returned in input order.
func ConvertAll(inputs []string, outDir string, workers int, configure func(*Converter) *Converter) []BatchResult {
	if workers < 1 {
		workers = 1
	}

	results := make([]BatchResult, len(inputs))
	sem := make(chan struct{}, workers)
	done := make(chan int)

	for i, input := range inputs {
		go func(i int, input string) {
			sem <- struct{}{}
			defer func() {
				<-sem
				done <- i
			}()

			conv := Convert(input)
			if configure != nil {
				conv = configure(conv)
			}

			dir := format.DirectionFor(format.Detect(input))
			if dir == format.DirectionUnknown {
				results[i] = BatchResult{Input: input, Err: &InvalidFormatError{
					Path:   input,
					Reason: "unsupported extension",
				}}
				return
			}

			base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
			output := filepath.Join(outDir, base+dir.OutputExtension())
			res, warnings, err := conv.RunTo(output)
			results[i] = BatchResult{Input: input, Result: res, Warnings: warnings, Err: err}
		}(i, input)
	}

	for range inputs {
		<-done
	}
	return results
}
