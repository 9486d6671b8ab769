package latex

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/tsawler/doctex/model"
)

// Options configures LaTeX generation. The orchestrator derives it from the
// user-facing conversion options; the zero value produces a body-only
// fragment with defaults.
type Options struct {
	DocType      string  // documentclass: article, report, book
	FontSize     int     // points
	Margins      string  // geometry package options
	LineSpacing  string  // single, onehalf, double
	ImageWidth   float64 // fraction of \linewidth for included images
	Unicode      bool    // emit inputenc/fontenc and normalize text to NFC
	Standalone   bool    // wrap in preamble + document environment
	Bibliography bool    // include natbib in the preamble

	// AssetRoot is the directory image paths are resolved against when
	// checking that a referenced file exists. Empty disables the check.
	AssetRoot string

	// ImageDir is the directory name emitted in \graphicspath when the
	// document embeds images. Empty defaults to "images".
	ImageDir string
}

func (o Options) withDefaults() Options {
	if o.DocType == "" {
		o.DocType = "article"
	}
	if o.FontSize == 0 {
		o.FontSize = 12
	}
	if o.Margins == "" {
		o.Margins = "margin=1in"
	}
	if o.ImageWidth <= 0 || o.ImageWidth > 1 {
		o.ImageWidth = 0.8
	}
	if o.LineSpacing == "" {
		o.LineSpacing = "single"
	}
	if o.ImageDir == "" {
		o.ImageDir = "images"
	}
	return o
}

// sectionCommands maps heading levels to section commands. Levels beyond the
// deepest defined command fall back to it instead of failing.
var sectionCommands = map[int]string{
	1: `\section`,
	2: `\subsection`,
	3: `\subsubsection`,
}

const deepestSection = `\subsubsection`

// Generator renders a model.Document as LaTeX markup. All state is
// instance-scoped.
type Generator struct {
	opts     Options
	warnings []model.Warning
}

// NewGenerator creates a generator with the given options.
func NewGenerator(opts Options) *Generator {
	return &Generator{opts: opts.withDefaults()}
}

// Generate renders doc as LaTeX markup.
func Generate(doc *model.Document, opts Options) (string, []model.Warning, error) {
	g := NewGenerator(opts)
	out, err := g.Generate(doc)
	return out, g.warnings, err
}

// Generate renders doc as LaTeX markup.
func (g *Generator) Generate(doc *model.Document) (string, error) {
	var sb strings.Builder

	if g.opts.Standalone {
		g.writePreamble(&sb, doc)
		sb.WriteString("\\begin{document}\n")
		if doc.Title != "" {
			sb.WriteString("\\maketitle\n")
		}
		sb.WriteString("\n")
	}

	for i, block := range doc.Blocks {
		rendered := g.renderBlock(block)
		if rendered == "" {
			continue
		}
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(rendered)
		sb.WriteString("\n")
	}

	if len(doc.Bibliography) > 0 {
		sb.WriteString("\n")
		g.writeBibliography(&sb, doc.Bibliography)
	}

	if g.opts.Standalone {
		sb.WriteString("\n\\end{document}\n")
	}
	return sb.String(), nil
}

// Warnings returns the non-fatal degradations collected during generation.
func (g *Generator) Warnings() []model.Warning {
	return g.warnings
}

func (g *Generator) warnf(code, format string, args ...any) {
	g.warnings = append(g.warnings, model.Warnf(code, format, args...))
}

func (g *Generator) writePreamble(sb *strings.Builder, doc *model.Document) {
	fmt.Fprintf(sb, "\\documentclass[%dpt]{%s}\n", g.opts.FontSize, g.opts.DocType)

	if g.opts.Unicode {
		sb.WriteString("\\usepackage[T1]{fontenc}\n")
		sb.WriteString("\\usepackage[utf8]{inputenc}\n")
	}
	fmt.Fprintf(sb, "\\usepackage[%s]{geometry}\n", g.opts.Margins)

	if len(doc.Images()) > 0 {
		sb.WriteString("\\usepackage{graphicx}\n")
		fmt.Fprintf(sb, "\\graphicspath{{./%s/}}\n", g.opts.ImageDir)
	}

	sb.WriteString("\\usepackage{amsmath, amssymb, amsfonts}\n")
	sb.WriteString("\\usepackage{booktabs}\n")
	sb.WriteString("\\usepackage{longtable}\n")
	sb.WriteString("\\usepackage{array}\n")
	sb.WriteString("\\usepackage{hyperref}\n")
	sb.WriteString("\\hypersetup{colorlinks=true, linkcolor=blue, urlcolor=cyan}\n")

	switch g.opts.LineSpacing {
	case "onehalf":
		sb.WriteString("\\usepackage{setspace}\n\\onehalfspacing\n")
	case "double":
		sb.WriteString("\\usepackage{setspace}\n\\doublespacing\n")
	}

	if g.opts.Bibliography || len(doc.Bibliography) > 0 {
		sb.WriteString("\\usepackage{natbib}\n")
	}

	if doc.Title != "" {
		fmt.Fprintf(sb, "\\title{%s}\n", g.escapeText(doc.Title))
	}
}

func (g *Generator) renderBlock(block model.Block) string {
	switch b := block.(type) {
	case *model.Heading:
		return g.renderHeading(b)
	case *model.Paragraph:
		return g.renderParagraph(b)
	case *model.Table:
		return g.renderTable(b)
	case *model.Image:
		return g.renderImage(b)
	case *model.Raw:
		return b.Text
	default:
		return ""
	}
}

func (g *Generator) renderHeading(h *model.Heading) string {
	cmd, ok := sectionCommands[h.Level]
	if !ok {
		cmd = deepestSection
	}
	return cmd + "{" + g.renderRuns(h.Runs) + "}"
}

func (g *Generator) renderParagraph(p *model.Paragraph) string {
	body := g.renderRuns(p.Runs)
	if body == "" {
		return ""
	}
	switch p.Alignment {
	case model.AlignCenter:
		return "\\begin{center}\n" + body + "\n\\end{center}"
	case model.AlignRight:
		return "\\begin{flushright}\n" + body + "\n\\end{flushright}"
	default:
		return body
	}
}

// renderRuns renders formatted runs. Wrapping commands nest in a fixed
// outer-to-inner order (bold, italic, underline) so two runs with the same
// flag set always render identically.
func (g *Generator) renderRuns(runs []model.Run) string {
	var sb strings.Builder
	for _, r := range runs {
		text := g.escapeText(r.Text)
		if text == "" {
			continue
		}
		if r.Underline {
			text = `\underline{` + text + `}`
		}
		if r.Italic {
			text = `\textit{` + text + `}`
		}
		if r.Bold {
			text = `\textbf{` + text + `}`
		}
		sb.WriteString(text)
	}
	return sb.String()
}

func (g *Generator) escapeText(s string) string {
	if g.opts.Unicode {
		s = norm.NFC.String(s)
	}
	return Escape(s)
}

var alignSpecifiers = map[model.Alignment]string{
	model.AlignLeft:    "l",
	model.AlignCenter:  "c",
	model.AlignRight:   "r",
	model.AlignDefault: "l",
}

func (g *Generator) renderTable(t *model.Table) string {
	if len(t.Rows) == 0 {
		return ""
	}
	t.Normalize()

	var spec strings.Builder
	for _, a := range t.ColumnAlignments() {
		spec.WriteString(alignSpecifiers[a])
	}

	var sb strings.Builder
	sb.WriteString("\\begin{table}[h!]\n")
	sb.WriteString("\\centering\n")
	fmt.Fprintf(&sb, "\\begin{tabular}{%s}\n", spec.String())
	sb.WriteString("\\toprule\n")
	for i, row := range t.Rows {
		cells := make([]string, len(row.Cells))
		for j, cell := range row.Cells {
			cells[j] = g.escapeText(cell.Text)
		}
		sb.WriteString(strings.Join(cells, " & "))
		sb.WriteString(" \\\\\n")
		if i == 0 && len(t.Rows) > 1 {
			sb.WriteString("\\midrule\n")
		}
	}
	sb.WriteString("\\bottomrule\n")
	sb.WriteString("\\end{tabular}\n")
	if t.Caption != "" {
		fmt.Fprintf(&sb, "\\caption{%s}\n", g.escapeText(t.Caption))
	}
	sb.WriteString("\\end{table}")
	return sb.String()
}

func (g *Generator) renderImage(img *model.Image) string {
	if img.Path == "" {
		g.warnf("missing-image", "image %s has no backing file", img.ID)
		return fmt.Sprintf("%% image %s unavailable", img.ID)
	}
	if g.opts.AssetRoot != "" {
		full := img.Path
		if !filepath.IsAbs(full) {
			full = filepath.Join(g.opts.AssetRoot, full)
		}
		if _, err := os.Stat(full); err != nil {
			g.warnf("missing-image", "image %s: backing file %s unavailable", img.ID, img.Path)
			return fmt.Sprintf("%% image %s unavailable", img.ID)
		}
	}

	var sb strings.Builder
	sb.WriteString("\\begin{figure}[h!]\n")
	sb.WriteString("\\centering\n")
	fmt.Fprintf(&sb, "\\includegraphics[width=%.2g\\linewidth]{%s}\n",
		g.opts.ImageWidth, filepath.ToSlash(img.Path))
	if img.Caption != "" {
		fmt.Fprintf(&sb, "\\caption{%s}\n", g.escapeText(img.Caption))
	}
	sb.WriteString("\\end{figure}")
	return sb.String()
}

func (g *Generator) writeBibliography(sb *strings.Builder, entries []model.BibEntry) {
	fmt.Fprintf(sb, "\\begin{thebibliography}{%d}\n", len(entries))
	for _, e := range entries {
		fmt.Fprintf(sb, "\\bibitem{%s} %s\n", e.Key, g.escapeText(e.Text))
	}
	sb.WriteString("\\end{thebibliography}\n")
}
