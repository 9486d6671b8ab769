package docx

import (
	"archive/zip"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tsawler/doctex/internal/imaging"
	"github.com/tsawler/doctex/model"
)

// WriterOptions controls DOCX output.
type WriterOptions struct {
	FontSize  int    // base body font size in points
	AssetRoot string // directory relative image paths resolve against
}

func (o WriterOptions) withDefaults() WriterOptions {
	if o.FontSize == 0 {
		o.FontSize = 12
	}
	return o
}

// mediaPart is an image file embedded in the package.
type mediaPart struct {
	name  string // file name under word/media/
	relID string
	data  []byte
}

// Writer assembles a DOCX package from a document model.
type Writer struct {
	opts     WriterOptions
	media    []mediaPart
	relSeq   int
	drawSeq  int
	warnings []model.Warning
}

// NewWriter returns a Writer with the given options applied over
// defaults.
func NewWriter(opts WriterOptions) *Writer {
	return &Writer{opts: opts.withDefaults()}
}

// Generate writes doc as a DOCX file at filename. Images that cannot
// be read are skipped with a warning.
func Generate(doc *model.Document, opts WriterOptions, filename string) ([]model.Warning, error) {
	w := NewWriter(opts)
	err := w.WriteFile(doc, filename)
	return w.warnings, err
}

// WriteFile writes the document package to filename.
func (w *Writer) WriteFile(doc *model.Document, filename string) error {
	// Build the body first so media parts and relationships are known
	// before the package parts are written.
	body := w.renderBody(doc)

	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)

	parts := []struct {
		name string
		data string
	}{
		{"[Content_Types].xml", w.contentTypes()},
		{"_rels/.rels", packageRels},
		{"word/document.xml", documentHeader + body + documentFooter},
		{"word/styles.xml", w.stylesPart()},
		{"word/_rels/document.xml.rels", w.documentRels()},
		{"docProps/core.xml", corePropsPart(doc.Title)},
	}
	for _, p := range parts {
		pw, err := zw.Create(p.name)
		if err != nil {
			zw.Close()
			return err
		}
		if _, err := pw.Write([]byte(p.data)); err != nil {
			zw.Close()
			return err
		}
	}

	for _, m := range w.media {
		pw, err := zw.Create("word/media/" + m.name)
		if err != nil {
			zw.Close()
			return err
		}
		if _, err := pw.Write(m.data); err != nil {
			zw.Close()
			return err
		}
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("finalizing archive: %w", err)
	}
	return nil
}

// Warnings returns the non-fatal issues encountered while writing.
func (w *Writer) Warnings() []model.Warning {
	return w.warnings
}

// renderBody renders all document blocks to body XML.
func (w *Writer) renderBody(doc *model.Document) string {
	var b strings.Builder

	for _, block := range doc.Blocks {
		switch bl := block.(type) {
		case *model.Heading:
			w.renderHeading(&b, bl)
		case *model.Paragraph:
			w.renderParagraph(&b, bl)
		case *model.Table:
			w.renderTable(&b, bl)
		case *model.Image:
			w.renderImage(&b, bl)
		case *model.Raw:
			w.renderPlain(&b, bl.Text, model.AlignDefault)
		}
	}

	if len(doc.Bibliography) > 0 {
		fmt.Fprintf(&b, headingFmt, 1, runXMLString(model.Run{Text: "References"}))
		for _, e := range doc.Bibliography {
			w.renderPlain(&b, fmt.Sprintf("[%s] %s", e.Key, e.Text), model.AlignDefault)
		}
	}

	return b.String()
}

const headingFmt = `<w:p><w:pPr><w:pStyle w:val="Heading%d"/></w:pPr>%s</w:p>`

func (w *Writer) renderHeading(b *strings.Builder, h *model.Heading) {
	level := h.Level
	if level < 1 {
		level = 1
	}
	if level > model.MaxHeadingLevel {
		level = model.MaxHeadingLevel
	}
	fmt.Fprintf(b, headingFmt, level, runsXML(h.Runs))
}

func (w *Writer) renderParagraph(b *strings.Builder, p *model.Paragraph) {
	b.WriteString("<w:p>")
	if jc := jcValue(p.Alignment); jc != "" {
		fmt.Fprintf(b, `<w:pPr><w:jc w:val="%s"/></w:pPr>`, jc)
	}
	b.WriteString(runsXML(p.Runs))
	b.WriteString("</w:p>")
}

// renderPlain writes a paragraph of unformatted text.
func (w *Writer) renderPlain(b *strings.Builder, text string, align model.Alignment) {
	w.renderParagraph(b, &model.Paragraph{
		Runs:      []model.Run{{Text: text}},
		Alignment: align,
	})
}

func (w *Writer) renderTable(b *strings.Builder, t *model.Table) {
	t.Normalize()
	cols := t.ColCount()
	if cols == 0 {
		return
	}
	aligns := t.ColumnAlignments()

	b.WriteString(`<w:tbl><w:tblPr><w:tblW w:w="0" w:type="auto"/>` +
		`<w:tblBorders>` +
		`<w:top w:val="single" w:sz="4"/><w:bottom w:val="single" w:sz="4"/>` +
		`<w:left w:val="single" w:sz="4"/><w:right w:val="single" w:sz="4"/>` +
		`<w:insideH w:val="single" w:sz="4"/><w:insideV w:val="single" w:sz="4"/>` +
		`</w:tblBorders></w:tblPr><w:tblGrid>`)
	for i := 0; i < cols; i++ {
		b.WriteString(`<w:gridCol/>`)
	}
	b.WriteString(`</w:tblGrid>`)

	for _, row := range t.Rows {
		b.WriteString("<w:tr>")
		for c, cell := range row.Cells {
			align := cell.Align
			if align == model.AlignDefault && c < len(aligns) {
				align = aligns[c]
			}
			b.WriteString(`<w:tc><w:tcPr><w:tcW w:w="0" w:type="auto"/></w:tcPr><w:p>`)
			if jc := jcValue(align); jc != "" {
				fmt.Fprintf(b, `<w:pPr><w:jc w:val="%s"/></w:pPr>`, jc)
			}
			b.WriteString(runXMLString(model.Run{Text: cell.Text}))
			b.WriteString("</w:p></w:tc>")
		}
		b.WriteString("</w:tr>")
	}
	b.WriteString("</w:tbl>")

	if t.Caption != "" {
		w.renderPlain(b, t.Caption, model.AlignCenter)
	}
}

// renderImage embeds the image file as an inline drawing. A file that
// cannot be read or decoded is skipped with a warning. Formats Word
// cannot display are converted to PNG first.
func (w *Writer) renderImage(b *strings.Builder, img *model.Image) {
	src := img.Path
	if !filepath.IsAbs(src) && w.opts.AssetRoot != "" {
		src = filepath.Join(w.opts.AssetRoot, src)
	}

	data, err := os.ReadFile(src)
	if err != nil {
		w.warn("missing-image", "image %s unavailable: %v", img.ID, err)
		return
	}

	ext := strings.ToLower(filepath.Ext(src))
	switch ext {
	case ".png", ".jpg", ".jpeg", ".gif":
	default:
		converted, err := imaging.ToPNG(data)
		if err != nil {
			w.warn("missing-image", "image %s undecodable: %v", img.ID, err)
			return
		}
		data = converted
		ext = ".png"
	}

	w.drawSeq++
	w.relSeq++
	part := mediaPart{
		name:  fmt.Sprintf("image%d%s", w.drawSeq, ext),
		relID: fmt.Sprintf("rId%d", w.relSeq+1), // rId1 is styles
		data:  data,
	}
	w.media = append(w.media, part)

	cx, cy := imaging.ExtentEMU(data)
	name := img.ID
	if name == "" {
		name = strings.TrimSuffix(part.name, ext)
	}

	b.WriteString(`<w:p><w:pPr><w:jc w:val="center"/></w:pPr><w:r><w:drawing>`)
	fmt.Fprintf(b, `<wp:inline distT="0" distB="0" distL="0" distR="0">`+
		`<wp:extent cx="%d" cy="%d"/>`+
		`<wp:docPr id="%d" name="%s" descr="%s"/>`, cx, cy, w.drawSeq,
		escapeXML(name), escapeXML(img.Caption))
	fmt.Fprintf(b, `<a:graphic xmlns:a="%s"><a:graphicData uri="%s">`+
		`<pic:pic xmlns:pic="%s">`+
		`<pic:nvPicPr><pic:cNvPr id="%d" name="%s"/><pic:cNvPicPr/></pic:nvPicPr>`+
		`<pic:blipFill><a:blip r:embed="%s"/><a:stretch><a:fillRect/></a:stretch></pic:blipFill>`+
		`<pic:spPr><a:xfrm><a:off x="0" y="0"/><a:ext cx="%d" cy="%d"/></a:xfrm>`+
		`<a:prstGeom prst="rect"><a:avLst/></a:prstGeom></pic:spPr>`+
		`</pic:pic></a:graphicData></a:graphic>`,
		nsA, nsPic, nsPic, w.drawSeq, escapeXML(name), part.relID, cx, cy)
	b.WriteString(`</wp:inline></w:drawing></w:r></w:p>`)

	if img.Caption != "" {
		w.renderParagraph(b, &model.Paragraph{
			Runs:      []model.Run{{Text: img.Caption, Italic: true}},
			Alignment: model.AlignCenter,
		})
	}
}

// runsXML renders a run list.
func runsXML(runs []model.Run) string {
	var b strings.Builder
	for _, r := range runs {
		b.WriteString(runXMLString(r))
	}
	return b.String()
}

// runXMLString renders a single run with its formatting properties.
func runXMLString(r model.Run) string {
	var b strings.Builder
	b.WriteString("<w:r>")
	if r.Bold || r.Italic || r.Underline {
		b.WriteString("<w:rPr>")
		if r.Bold {
			b.WriteString("<w:b/>")
		}
		if r.Italic {
			b.WriteString("<w:i/>")
		}
		if r.Underline {
			b.WriteString(`<w:u w:val="single"/>`)
		}
		b.WriteString("</w:rPr>")
	}
	fmt.Fprintf(&b, `<w:t xml:space="preserve">%s</w:t>`, escapeXML(r.Text))
	b.WriteString("</w:r>")
	return b.String()
}

// jcValue maps a model alignment to a w:jc value; left and default
// need no explicit justification.
func jcValue(a model.Alignment) string {
	switch a {
	case model.AlignCenter:
		return "center"
	case model.AlignRight:
		return "right"
	default:
		return ""
	}
}

var xmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
)

func escapeXML(s string) string {
	return xmlEscaper.Replace(s)
}

func (w *Writer) warn(code, format string, args ...any) {
	w.warnings = append(w.warnings, model.Warnf(code, format, args...))
}

// contentTypes builds [Content_Types].xml including defaults for
// every embedded media extension.
func (w *Writer) contentTypes() string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n")
	b.WriteString(`<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">`)
	b.WriteString(`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>`)
	b.WriteString(`<Default Extension="xml" ContentType="application/xml"/>`)

	seen := map[string]bool{}
	for _, m := range w.media {
		ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(m.name)), ".")
		if ext == "" || seen[ext] {
			continue
		}
		seen[ext] = true
		ct := "image/" + ext
		if ext == "jpg" {
			ct = "image/jpeg"
		}
		fmt.Fprintf(&b, `<Default Extension="%s" ContentType="%s"/>`, ext, ct)
	}

	b.WriteString(`<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>`)
	b.WriteString(`<Override PartName="/word/styles.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.styles+xml"/>`)
	b.WriteString(`<Override PartName="/docProps/core.xml" ContentType="application/vnd.openxmlformats-package.core-properties+xml"/>`)
	b.WriteString(`</Types>`)
	return b.String()
}

const packageRels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>
<Relationship Id="rId2" Type="http://schemas.openxmlformats.org/package/2006/relationships/metadata/core-properties" Target="docProps/core.xml"/>
</Relationships>`

// documentRels builds word/_rels/document.xml.rels with the styles
// relationship and one relationship per embedded image.
func (w *Writer) documentRels() string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n")
	b.WriteString(`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">`)
	b.WriteString(`<Relationship Id="rId1" Type="` + nsR + `/styles" Target="styles.xml"/>`)
	for _, m := range w.media {
		fmt.Fprintf(&b, `<Relationship Id="%s" Type="%s/image" Target="media/%s"/>`,
			m.relID, nsR, m.name)
	}
	b.WriteString(`</Relationships>`)
	return b.String()
}

const documentHeader = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="` + nsW + `" xmlns:r="` + nsR + `" xmlns:wp="` + nsWP + `"><w:body>`

const documentFooter = `<w:sectPr>` +
	`<w:pgSz w:w="12240" w:h="15840"/>` +
	`<w:pgMar w:top="1440" w:right="1440" w:bottom="1440" w:left="1440"/>` +
	`</w:sectPr></w:body></w:document>`

// stylesPart builds word/styles.xml with the Normal style and the
// four heading styles at sizes derived from the base font size.
func (w *Writer) stylesPart() string {
	fs := w.opts.FontSize
	headingSizes := [4]int{fs + 6, fs + 4, fs + 2, fs + 1}

	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n")
	b.WriteString(`<w:styles xmlns:w="` + nsW + `">`)
	fmt.Fprintf(&b, `<w:style w:type="paragraph" w:styleId="Normal" w:default="1">`+
		`<w:name w:val="Normal"/>`+
		`<w:rPr><w:rFonts w:ascii="Times New Roman" w:hAnsi="Times New Roman"/>`+
		`<w:sz w:val="%d"/></w:rPr></w:style>`, fs*2)
	for i, size := range headingSizes {
		fmt.Fprintf(&b, `<w:style w:type="paragraph" w:styleId="Heading%[1]d">`+
			`<w:name w:val="heading %[1]d"/><w:basedOn w:val="Normal"/>`+
			`<w:pPr><w:outlineLvl w:val="%[2]d"/></w:pPr>`+
			`<w:rPr><w:rFonts w:ascii="Times New Roman" w:hAnsi="Times New Roman"/>`+
			`<w:b/><w:sz w:val="%[3]d"/></w:rPr></w:style>`, i+1, i, size*2)
	}
	b.WriteString(`</w:styles>`)
	return b.String()
}

// corePropsPart builds docProps/core.xml carrying the document title.
func corePropsPart(title string) string {
	return `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<cp:coreProperties xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties" xmlns:dc="http://purl.org/dc/elements/1.1/">
<dc:title>` + escapeXML(title) + `</dc:title>
</cp:coreProperties>`
}
