package latex

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tsawler/doctex/model"
)

func TestGenerateHeadingLevels(t *testing.T) {
	tests := []struct {
		level int
		want  string
	}{
		{1, `\section{Title}`},
		{2, `\subsection{Title}`},
		{3, `\subsubsection{Title}`},
		{4, `\subsubsection{Title}`}, // falls back to the deepest command
		{9, `\subsubsection{Title}`},
	}

	for _, tt := range tests {
		doc := model.NewDocument()
		doc.AddBlock(&model.Heading{Level: tt.level, Runs: []model.Run{{Text: "Title"}}})

		out, _, err := Generate(doc, Options{})
		if err != nil {
			t.Fatalf("Generate: %v", err)
		}
		if !strings.Contains(out, tt.want) {
			t.Errorf("level %d: output %q does not contain %q", tt.level, out, tt.want)
		}
	}
}

func TestGenerateFormattingOrderIsDeterministic(t *testing.T) {
	doc := model.NewDocument()
	doc.AddBlock(&model.Paragraph{Runs: []model.Run{
		{Text: "x", Bold: true, Italic: true, Underline: true},
	}})

	out, _, err := Generate(doc, Options{})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	want := `\textbf{\textit{\underline{x}}}`
	if !strings.Contains(out, want) {
		t.Errorf("output %q does not contain fixed-order nesting %q", out, want)
	}

	// Repeated renders are identical.
	again, _, _ := Generate(doc, Options{})
	if out != again {
		t.Error("two renders of the same document differ")
	}
}

func TestGenerateTableShape(t *testing.T) {
	doc := model.NewDocument()
	doc.AddBlock(&model.Table{
		Rows: []model.Row{
			{Cells: []model.Cell{{Text: "Name"}, {Text: "Score"}, {Text: "Rank"}}},
			{Cells: []model.Cell{{Text: "alpha"}, {Text: "12"}, {Text: "1"}}},
			{Cells: []model.Cell{{Text: "beta"}, {Text: "9"}, {Text: "2"}}},
			{Cells: []model.Cell{{Text: "gamma"}, {Text: "3"}, {Text: "3"}}},
		},
		Caption: "Results",
	})

	out, _, err := Generate(doc, Options{})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	// 3 columns: the tabular spec has exactly 3 specifiers.
	start := strings.Index(out, `\begin{tabular}{`)
	if start < 0 {
		t.Fatalf("no tabular in output:\n%s", out)
	}
	specStart := start + len(`\begin{tabular}{`)
	specEnd := strings.Index(out[specStart:], "}")
	spec := out[specStart : specStart+specEnd]
	if len(spec) != 3 {
		t.Errorf("column spec %q has %d specifiers, want 3", spec, len(spec))
	}
	// Numeric-majority columns align right.
	if spec != "lrr" {
		t.Errorf("column spec = %q, want lrr", spec)
	}

	// 4 data rows.
	if got := strings.Count(out, `\\`); got != 4 {
		t.Errorf("found %d row terminators, want 4", got)
	}
	if !strings.Contains(out, `\caption{Results}`) {
		t.Error("caption missing")
	}
}

func TestGenerateTableWithoutCaptionOmitsCaption(t *testing.T) {
	doc := model.NewDocument()
	doc.AddBlock(&model.Table{
		Rows: []model.Row{{Cells: []model.Cell{{Text: "only"}}}},
	})
	out, _, err := Generate(doc, Options{})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if strings.Contains(out, `\caption`) {
		t.Errorf("caption emitted for caption-less table:\n%s", out)
	}
}

func TestGenerateImage(t *testing.T) {
	dir := t.TempDir()
	imgDir := filepath.Join(dir, "images")
	if err := os.MkdirAll(imgDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(imgDir, "image1.png"), []byte("png"), 0o644); err != nil {
		t.Fatal(err)
	}

	doc := model.NewDocument()
	doc.AddBlock(&model.Image{ID: "image1", Path: "images/image1.png", Caption: "A figure"})

	out, warnings, err := Generate(doc, Options{AssetRoot: dir, ImageWidth: 0.5})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(warnings) != 0 {
		t.Errorf("unexpected warnings: %v", warnings)
	}
	if !strings.Contains(out, `\includegraphics[width=0.5\linewidth]{images/image1.png}`) {
		t.Errorf("output:\n%s", out)
	}
	if !strings.Contains(out, `\caption{A figure}`) {
		t.Error("caption missing")
	}
}

func TestGenerateMissingImageIsNonFatal(t *testing.T) {
	doc := model.NewDocument()
	doc.AddBlock(&model.Image{ID: "image1", Path: "images/gone.png"})
	doc.AddBlock(&model.Paragraph{Runs: []model.Run{{Text: "after"}}})

	out, warnings, err := Generate(doc, Options{AssetRoot: t.TempDir()})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !strings.Contains(out, "% image image1 unavailable") {
		t.Errorf("placeholder comment missing:\n%s", out)
	}
	if !strings.Contains(out, "after") {
		t.Error("conversion did not continue past the missing image")
	}
	if len(warnings) != 1 || warnings[0].Code != "missing-image" {
		t.Errorf("warnings = %v", warnings)
	}
}

func TestGeneratePathlessImageIsPlaceholder(t *testing.T) {
	// An image with no backing file must never emit \includegraphics,
	// even when the existence check is disabled.
	doc := model.NewDocument()
	doc.AddBlock(&model.Image{ID: "image1", Path: ""})

	out, warnings, err := Generate(doc, Options{})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if strings.Contains(out, `\includegraphics`) {
		t.Errorf("pathless image included:\n%s", out)
	}
	if !strings.Contains(out, "% image image1 unavailable") {
		t.Errorf("placeholder comment missing:\n%s", out)
	}
	if len(warnings) != 1 || warnings[0].Code != "missing-image" {
		t.Errorf("warnings = %v", warnings)
	}
}

func TestGenerateImageDirInGraphicspath(t *testing.T) {
	doc := model.NewDocument()
	doc.AddBlock(&model.Image{ID: "image1", Path: "image1.png"})

	out, _, err := Generate(doc, Options{Standalone: true, ImageDir: "paper-images"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !strings.Contains(out, `\graphicspath{{./paper-images/}}`) {
		t.Errorf("graphicspath missing custom dir:\n%s", out)
	}
}

func TestGenerateStandalonePreamble(t *testing.T) {
	doc := model.NewDocument()
	doc.Title = "My Report"
	doc.AddBlock(&model.Image{ID: "image1", Path: "images/image1.png"})

	out, _, err := Generate(doc, Options{
		Standalone:  true,
		DocType:     "report",
		FontSize:    11,
		Unicode:     true,
		Margins:     "margin=2cm",
		LineSpacing: "double",
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	for _, want := range []string{
		`\documentclass[11pt]{report}`,
		`\usepackage[utf8]{inputenc}`,
		`\usepackage[margin=2cm]{geometry}`,
		`\usepackage{graphicx}`,
		`\graphicspath{{./images/}}`,
		`\doublespacing`,
		`\title{My Report}`,
		`\begin{document}`,
		`\end{document}`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("preamble missing %q", want)
		}
	}
}

func TestGenerateEscapesRunText(t *testing.T) {
	doc := model.NewDocument()
	doc.AddBlock(&model.Paragraph{Runs: []model.Run{{Text: "50% of A & B"}}})

	out, _, err := Generate(doc, Options{})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !strings.Contains(out, `50\% of A \& B`) {
		t.Errorf("output %q not escaped", out)
	}
}

func TestGenerateBibliography(t *testing.T) {
	doc := model.NewDocument()
	doc.Bibliography = []model.BibEntry{
		{Key: "1", Text: "Smith, J. (2020). A paper."},
		{Key: "2", Text: "Doe, A. (2021). Another."},
	}

	out, _, err := Generate(doc, Options{})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !strings.Contains(out, `\begin{thebibliography}{2}`) {
		t.Errorf("output:\n%s", out)
	}
	if !strings.Contains(out, `\bibitem{1} Smith, J. (2020). A paper.`) {
		t.Errorf("output:\n%s", out)
	}
}

func TestGenerateParseRoundTripHeadingAndBold(t *testing.T) {
	// The scenario from the conversion contract: a level-1 heading
	// "Introduction" and a paragraph with a bold run "important".
	doc := model.NewDocument()
	doc.AddBlock(&model.Heading{Level: 1, Runs: []model.Run{{Text: "Introduction"}}})
	doc.AddBlock(&model.Paragraph{Runs: []model.Run{{Text: "important", Bold: true}}})

	out, _, err := Generate(doc, Options{})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !strings.Contains(out, `\section{Introduction}`) {
		t.Fatalf("output:\n%s", out)
	}
	if !strings.Contains(out, `\textbf{important}`) {
		t.Fatalf("output:\n%s", out)
	}

	back, _, err := Parse(out)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	h := back.Blocks[0].(*model.Heading)
	if h.Level != 1 || h.Text() != "Introduction" {
		t.Errorf("heading did not round-trip: %+v", h)
	}
	p := back.Blocks[1].(*model.Paragraph)
	if len(p.Runs) != 1 || !p.Runs[0].Bold || p.Runs[0].Text != "important" {
		t.Errorf("bold run did not round-trip: %+v", p.Runs)
	}
}

func TestHeadingLevelRoundTrip(t *testing.T) {
	for level := 1; level <= 3; level++ {
		doc := model.NewDocument()
		doc.AddBlock(&model.Heading{Level: level, Runs: []model.Run{{Text: "T"}}})

		out, _, err := Generate(doc, Options{})
		if err != nil {
			t.Fatalf("Generate: %v", err)
		}
		back, _, err := Parse(out)
		if err != nil {
			t.Fatalf("Parse: %v", err)
		}
		h, ok := back.Blocks[0].(*model.Heading)
		if !ok {
			t.Fatalf("level %d: block is %T", level, back.Blocks[0])
		}
		if h.Level != level {
			t.Errorf("level %d round-tripped to %d", level, h.Level)
		}
	}
}
