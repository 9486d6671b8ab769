package latex

import (
	"errors"
	"strings"
	"testing"

	"github.com/tsawler/doctex/model"
)

func TestParseHeadings(t *testing.T) {
	tests := []struct {
		src   string
		level int
		text  string
	}{
		{`\section{Introduction}`, 1, "Introduction"},
		{`\subsection{Methods}`, 2, "Methods"},
		{`\subsubsection{Details}`, 3, "Details"},
		{`\section*{Unnumbered}`, 1, "Unnumbered"},
		{`\paragraph{Deep}`, 4, "Deep"},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			doc, _, err := Parse(tt.src)
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			if len(doc.Blocks) != 1 {
				t.Fatalf("got %d blocks, want 1", len(doc.Blocks))
			}
			h, ok := doc.Blocks[0].(*model.Heading)
			if !ok {
				t.Fatalf("block is %T, want *model.Heading", doc.Blocks[0])
			}
			if h.Level != tt.level {
				t.Errorf("level = %d, want %d", h.Level, tt.level)
			}
			if h.Text() != tt.text {
				t.Errorf("text = %q, want %q", h.Text(), tt.text)
			}
		})
	}
}

func TestParseNestedFormatting(t *testing.T) {
	// The classic case naive pattern matching gets wrong: the argument of
	// \textbf contains a nested command, so the first closing brace must
	// not terminate it.
	doc, _, err := Parse(`\textbf{a \textit{b} c}`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(doc.Blocks) != 1 {
		t.Fatalf("got %d blocks, want 1", len(doc.Blocks))
	}
	p, ok := doc.Blocks[0].(*model.Paragraph)
	if !ok {
		t.Fatalf("block is %T, want *model.Paragraph", doc.Blocks[0])
	}

	want := []model.Run{
		{Text: "a ", Bold: true},
		{Text: "b", Bold: true, Italic: true},
		{Text: " c", Bold: true},
	}
	if len(p.Runs) != len(want) {
		t.Fatalf("got %d runs %+v, want %d", len(p.Runs), p.Runs, len(want))
	}
	for i, w := range want {
		if p.Runs[i] != w {
			t.Errorf("run %d = %+v, want %+v", i, p.Runs[i], w)
		}
	}
}

func TestParseParagraphsSplitOnBlankLines(t *testing.T) {
	src := "First paragraph\nstill first.\n\nSecond paragraph."
	doc, _, err := Parse(src)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(doc.Blocks) != 2 {
		t.Fatalf("got %d blocks, want 2: %+v", len(doc.Blocks), doc.Blocks)
	}
	p1 := doc.Blocks[0].(*model.Paragraph)
	if !strings.Contains(p1.Text(), "still first") {
		t.Errorf("first paragraph = %q", p1.Text())
	}
	p2 := doc.Blocks[1].(*model.Paragraph)
	if p2.Text() != "Second paragraph." {
		t.Errorf("second paragraph = %q", p2.Text())
	}
}

func TestParseUnescapesSpecials(t *testing.T) {
	doc, _, err := Parse(`50\% of A \& B cost \$10`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	p := doc.Blocks[0].(*model.Paragraph)
	if got := p.Text(); got != "50% of A & B cost $10" {
		t.Errorf("text = %q", got)
	}
}

func TestParseTabular(t *testing.T) {
	src := `\begin{table}[h!]
\centering
\begin{tabular}{lr}
\toprule
Name & Score \\
\midrule
alpha & 12 \\
beta & 34 \\
\bottomrule
\end{tabular}
\caption{Results}
\end{table}`

	doc, _, err := Parse(src)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(doc.Blocks) != 1 {
		t.Fatalf("got %d blocks, want 1", len(doc.Blocks))
	}
	tbl, ok := doc.Blocks[0].(*model.Table)
	if !ok {
		t.Fatalf("block is %T, want *model.Table", doc.Blocks[0])
	}
	if len(tbl.Rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(tbl.Rows))
	}
	if tbl.ColCount() != 2 {
		t.Errorf("ColCount = %d, want 2", tbl.ColCount())
	}
	if tbl.Caption != "Results" {
		t.Errorf("caption = %q", tbl.Caption)
	}
	if tbl.Rows[1].Cells[0].Text != "alpha" || tbl.Rows[1].Cells[1].Text != "12" {
		t.Errorf("row 1 = %+v", tbl.Rows[1])
	}
	if tbl.Rows[0].Cells[1].Align != model.AlignRight {
		t.Errorf("column spec alignment hint not applied: %+v", tbl.Rows[0].Cells[1])
	}
}

func TestParseTabularIgnoresWhitespaceLayout(t *testing.T) {
	// Cell and row separators must work independent of newlines.
	src := "\\begin{tabular}{ll}a&b\\\\c\n&\nd\\\\\\end{tabular}"
	doc, _, err := Parse(src)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	tbl := doc.Blocks[0].(*model.Table)
	if len(tbl.Rows) != 2 || tbl.ColCount() != 2 {
		t.Fatalf("got %dx%d table, want 2x2", len(tbl.Rows), tbl.ColCount())
	}
}

func TestParseFigure(t *testing.T) {
	src := `\begin{figure}[h!]
\centering
\includegraphics[width=0.8\linewidth]{images/plot.png}
\caption{A plot}
\end{figure}`

	doc, _, err := Parse(src)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	img, ok := doc.Blocks[0].(*model.Image)
	if !ok {
		t.Fatalf("block is %T, want *model.Image", doc.Blocks[0])
	}
	if img.Path != "images/plot.png" {
		t.Errorf("path = %q", img.Path)
	}
	if img.Caption != "A plot" {
		t.Errorf("caption = %q", img.Caption)
	}
	if img.ID == "" {
		t.Error("image ID not assigned")
	}
}

func TestParseImageIDsAreInstanceScoped(t *testing.T) {
	src := `\includegraphics{a.png}

\includegraphics{b.png}`

	doc1, _, _ := Parse(src)
	doc2, _, _ := Parse(src)

	imgs1 := doc1.Images()
	imgs2 := doc2.Images()
	if len(imgs1) != 2 || len(imgs2) != 2 {
		t.Fatalf("got %d and %d images, want 2 each", len(imgs1), len(imgs2))
	}
	// Two independent parses allocate the same ids: no process-global state.
	if imgs1[0].ID != imgs2[0].ID {
		t.Errorf("first ids differ: %q vs %q", imgs1[0].ID, imgs2[0].ID)
	}
	if imgs1[0].ID == imgs1[1].ID {
		t.Errorf("ids within one document must be unique, both %q", imgs1[0].ID)
	}
}

func TestParseUnknownCommandDegradesToRaw(t *testing.T) {
	doc, warnings, err := Parse(`\fancycommand{arg}`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	raw, ok := doc.Blocks[0].(*model.Raw)
	if !ok {
		t.Fatalf("block is %T, want *model.Raw", doc.Blocks[0])
	}
	if raw.Text != `\fancycommand{arg}` {
		t.Errorf("raw text = %q", raw.Text)
	}
	if len(warnings) == 0 {
		t.Error("expected an unknown-command warning")
	}
}

func TestParseUnknownEnvironmentDegradesToRaw(t *testing.T) {
	src := `\begin{verbatim}
code here
\end{verbatim}`
	doc, warnings, err := Parse(src)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	raw, ok := doc.Blocks[0].(*model.Raw)
	if !ok {
		t.Fatalf("block is %T, want *model.Raw", doc.Blocks[0])
	}
	if !strings.Contains(raw.Text, "code here") {
		t.Errorf("raw text = %q", raw.Text)
	}
	if len(warnings) == 0 {
		t.Error("expected a warning for the unknown environment")
	}
}

func TestParseUnterminatedEnvironmentFails(t *testing.T) {
	_, _, err := Parse(`\begin{tabular}{ll} a & b \\`)
	if err == nil {
		t.Fatal("expected an error for an unterminated environment")
	}
	var se *StructureError
	if !errors.As(err, &se) {
		t.Errorf("error is %T, want *StructureError", err)
	}
}

func TestParseDocumentBodyExtraction(t *testing.T) {
	src := `\documentclass{article}
\title{My Report}
\begin{document}
\section{Intro}
Hello.
\end{document}`

	doc, _, err := Parse(src)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if doc.Title != "My Report" {
		t.Errorf("title = %q", doc.Title)
	}
	if len(doc.Blocks) != 2 {
		t.Fatalf("got %d blocks, want 2: %#v", len(doc.Blocks), doc.Blocks)
	}
	if _, ok := doc.Blocks[0].(*model.Heading); !ok {
		t.Errorf("first block is %T, want heading", doc.Blocks[0])
	}
}

func TestParseCommentsStripped(t *testing.T) {
	doc, _, err := Parse("text before % trailing comment\n\na full 50\\% kept")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(doc.Blocks) != 2 {
		t.Fatalf("got %d blocks: %#v", len(doc.Blocks), doc.Blocks)
	}
	p1 := doc.Blocks[0].(*model.Paragraph)
	if p1.Text() != "text before" {
		t.Errorf("first paragraph = %q", p1.Text())
	}
	p2 := doc.Blocks[1].(*model.Paragraph)
	if p2.Text() != "a full 50% kept" {
		t.Errorf("second paragraph = %q", p2.Text())
	}
}

func TestParseLists(t *testing.T) {
	src := `\begin{itemize}
\item first
\item second
\end{itemize}`
	doc, _, err := Parse(src)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(doc.Blocks) != 2 {
		t.Fatalf("got %d blocks, want 2", len(doc.Blocks))
	}
	p := doc.Blocks[0].(*model.Paragraph)
	if p.Text() != "- first" {
		t.Errorf("first item = %q", p.Text())
	}
}

func TestParseAlignedEnvironments(t *testing.T) {
	doc, _, err := Parse(`\begin{center}
centered text
\end{center}`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	p, ok := doc.Blocks[0].(*model.Paragraph)
	if !ok {
		t.Fatalf("block is %T", doc.Blocks[0])
	}
	if p.Alignment != model.AlignCenter {
		t.Errorf("alignment = %v, want center", p.Alignment)
	}
}

func TestParseBibliographyEnvironment(t *testing.T) {
	src := `\begin{thebibliography}{2}
\bibitem{smith2020} Smith, J. (2020). A paper.
\bibitem{доу2021} Doe, A. (2021). Another paper.
\end{thebibliography}`

	doc, _, err := Parse(src)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(doc.Bibliography) != 2 {
		t.Fatalf("got %d bib entries, want 2", len(doc.Bibliography))
	}
	if doc.Bibliography[0].Key != "smith2020" {
		t.Errorf("key = %q", doc.Bibliography[0].Key)
	}
	if !strings.Contains(doc.Bibliography[0].Text, "Smith") {
		t.Errorf("text = %q", doc.Bibliography[0].Text)
	}
}
