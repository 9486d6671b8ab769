// Package docx provides DOCX (Office Open XML) document reading and
// writing against the shared document model.
package docx

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/tsawler/doctex/model"
)

// MediaStore receives image files extracted from a document. It is
// satisfied by the conversion workspace.
type MediaStore interface {
	// NextImageID returns a fresh sequential image identifier.
	NextImageID() string
	// WriteFile stores data under name and returns the absolute path.
	WriteFile(name string, data []byte) (string, error)
}

// Reader provides access to DOCX document content.
type Reader struct {
	zipReader *zip.ReadCloser
	document  *documentXML
	styles    *stylesXML
	rels      *relationshipsXML
	coreProps *corePropertiesXML
	mapper    *model.StyleMapper
	warnings  []model.Warning
}

// Open opens a DOCX file for reading and parses its required parts.
func Open(filename string) (*Reader, error) {
	zr, err := zip.OpenReader(filename)
	if err != nil {
		return nil, fmt.Errorf("opening ZIP archive: %w", err)
	}

	r := &Reader{
		zipReader: zr,
		mapper:    model.NewStyleMapper(),
	}

	if err := r.validate(); err != nil {
		zr.Close()
		return nil, err
	}

	if err := r.parseRelationships(); err != nil {
		zr.Close()
		return nil, fmt.Errorf("parsing relationships: %w", err)
	}

	if err := r.parseDocument(); err != nil {
		zr.Close()
		return nil, fmt.Errorf("parsing document: %w", err)
	}

	// Styles and core properties are optional parts.
	r.parseStyles()
	r.parseCoreProperties()

	return r, nil
}

// Close releases resources associated with the Reader.
func (r *Reader) Close() error {
	if r.zipReader != nil {
		err := r.zipReader.Close()
		r.zipReader = nil
		return err
	}
	return nil
}

// Parse reads a DOCX file and converts it to a document model.
// Extracted images are written to media; pass nil to skip image
// extraction. Warnings report content that was skipped or degraded.
func Parse(filename string, media MediaStore) (*model.Document, []model.Warning, error) {
	r, err := Open(filename)
	if err != nil {
		return nil, nil, err
	}
	defer r.Close()

	doc, err := r.Document(media)
	if err != nil {
		return nil, r.warnings, err
	}
	return doc, r.warnings, nil
}

// validate checks that required DOCX parts exist.
func (r *Reader) validate() error {
	required := []string{
		"[Content_Types].xml",
		"word/document.xml",
	}

	fileMap := make(map[string]bool)
	for _, f := range r.zipReader.File {
		fileMap[f.Name] = true
	}

	for _, name := range required {
		if !fileMap[name] {
			return fmt.Errorf("missing required file: %s", name)
		}
	}

	return nil
}

// getFileContent reads the content of a file from the ZIP archive.
func (r *Reader) getFileContent(name string) ([]byte, error) {
	for _, f := range r.zipReader.File {
		if f.Name == name {
			rc, err := f.Open()
			if err != nil {
				return nil, err
			}
			defer rc.Close()
			return io.ReadAll(rc)
		}
	}
	return nil, fmt.Errorf("file not found: %s", name)
}

// Warnings returns the non-fatal issues encountered so far.
func (r *Reader) Warnings() []model.Warning {
	return r.warnings
}

// Document converts the parsed DOCX content to a document model,
// preserving the source order of paragraphs and tables.
func (r *Reader) Document(media MediaStore) (*model.Document, error) {
	if r.document == nil || r.document.Body == nil {
		return nil, fmt.Errorf("document not parsed")
	}

	doc := model.NewDocument()
	if r.coreProps != nil {
		doc.Title = r.coreProps.Title
	}

	for _, el := range r.document.Body.Elements {
		switch {
		case el.Paragraph != nil:
			r.addParagraph(doc, *el.Paragraph, media)
		case el.Table != nil:
			doc.AddBlock(r.convertTable(*el.Table))
		}
	}

	return doc, nil
}

// addParagraph converts one paragraph to model blocks. A paragraph
// with a heading style becomes a Heading; embedded drawings become
// Image blocks following the text.
func (r *Reader) addParagraph(doc *model.Document, p paragraphXML, media MediaStore) {
	runs := r.extractRuns(p)
	images := r.extractImages(p, media)

	if level := r.headingLevel(p.Properties.Style.Val); level > 0 {
		if len(runs) > 0 {
			doc.AddBlock(&model.Heading{Level: level, Runs: runs})
		}
	} else if len(runs) > 0 {
		doc.AddBlock(&model.Paragraph{
			Runs:      runs,
			Alignment: alignmentFor(p.Properties.Justification.Val),
		})
	}

	for _, img := range images {
		doc.AddBlock(img)
	}
}

// extractRuns converts the paragraph's runs, merging hyperlink runs
// after the direct ones. Empty runs are dropped.
func (r *Reader) extractRuns(p paragraphXML) []model.Run {
	var runs []model.Run

	appendRun := func(run runXML) {
		text := runText(run)
		if text == "" {
			return
		}
		runs = append(runs, model.Run{
			Text:      text,
			Bold:      run.Properties.Bold.on(),
			Italic:    run.Properties.Italic.on(),
			Underline: run.Properties.Underline.on(),
		})
	}

	for _, run := range p.Runs {
		appendRun(run)
	}
	for _, h := range p.Hyperlinks {
		for _, run := range h.Runs {
			appendRun(run)
		}
	}

	return runs
}

// runText extracts the text of a run in document order, turning tabs
// and breaks into whitespace.
func runText(run runXML) string {
	var sb strings.Builder
	for _, c := range run.Content {
		switch {
		case c.Text != nil:
			sb.WriteString(c.Text.Value)
		case c.Tab:
			sb.WriteByte('\t')
		case c.Break != nil:
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

// extractImages pulls embedded drawings out of the paragraph,
// including ones inside hyperlink runs, and stores their media files.
// Images that cannot be resolved produce a warning rather than an
// error.
func (r *Reader) extractImages(p paragraphXML, media MediaStore) []*model.Image {
	var images []*model.Image

	fromRuns := func(runs []runXML) {
		for _, run := range runs {
			for _, d := range run.Drawing {
				var blip *blipXML
				var caption string
				switch {
				case d.Inline != nil:
					blip = d.Inline.Blip
					caption = d.Inline.DocPr.Descr
				case d.Anchor != nil:
					blip = d.Anchor.Blip
					caption = d.Anchor.DocPr.Descr
				}
				if blip == nil || blip.Embed == "" {
					continue
				}

				img := r.storeImage(blip.Embed, caption, media)
				if img != nil {
					images = append(images, img)
				}
			}
		}
	}

	fromRuns(p.Runs)
	for _, h := range p.Hyperlinks {
		fromRuns(h.Runs)
	}

	return images
}

// storeImage resolves a relationship ID to a media part and writes it
// to the media store under a fresh sequential name.
func (r *Reader) storeImage(relID, caption string, media MediaStore) *model.Image {
	if media == nil {
		return nil
	}

	target := r.relTarget(relID)
	if target == "" {
		r.warn("missing-image", "image relationship %s not found", relID)
		return nil
	}

	data, err := r.getFileContent(path.Join("word", target))
	if err != nil {
		r.warn("missing-image", "image part %s: %v", target, err)
		return nil
	}

	name := media.NextImageID() + strings.ToLower(path.Ext(target))
	stored, err := media.WriteFile(name, data)
	if err != nil {
		r.warn("missing-image", "storing image %s: %v", name, err)
		return nil
	}

	id := strings.TrimSuffix(name, path.Ext(name))
	return &model.Image{ID: id, Path: stored, Caption: caption}
}

// relTarget looks up the target of a document relationship.
func (r *Reader) relTarget(id string) string {
	if r.rels == nil {
		return ""
	}
	for _, rel := range r.rels.Relationships {
		if rel.ID == id {
			return rel.Target
		}
	}
	return ""
}

// headingLevel resolves a paragraph style ID to a heading level, or 0
// for body styles. Styles unknown to the mapper fall back to the
// style definition's name and outline level.
func (r *Reader) headingLevel(styleID string) int {
	if styleID == "" {
		return 0
	}

	if level := r.mapper.LevelFor(styleID); level > 0 {
		return level
	}

	if r.styles != nil {
		for _, s := range r.styles.Styles {
			if !strings.EqualFold(s.StyleID, styleID) {
				continue
			}
			if level := r.mapper.LevelFor(s.Name.Val); level > 0 {
				return level
			}
			if s.PPr.OutlineLvl.Val != "" {
				if lvl := parseOutlineLevel(s.PPr.OutlineLvl.Val); lvl >= 0 {
					return min(lvl+1, model.MaxHeadingLevel)
				}
			}
		}
	}

	return 0
}

// alignmentFor maps OOXML justification values to model alignments.
func alignmentFor(jc string) model.Alignment {
	switch jc {
	case "center":
		return model.AlignCenter
	case "right":
		return model.AlignRight
	default:
		return model.AlignLeft
	}
}

// parseRelationships parses the document relationships file.
func (r *Reader) parseRelationships() error {
	data, err := r.getFileContent("word/_rels/document.xml.rels")
	if err != nil {
		// Relationships part is optional.
		return nil
	}

	r.rels = &relationshipsXML{}
	return xml.Unmarshal(data, r.rels)
}

// parseDocument parses the main document content.
func (r *Reader) parseDocument() error {
	data, err := r.getFileContent("word/document.xml")
	if err != nil {
		return err
	}

	r.document = &documentXML{}
	if err := xml.Unmarshal(data, r.document); err != nil {
		return fmt.Errorf("unmarshaling document.xml: %w", err)
	}

	return nil
}

// parseStyles parses the styles definition file, if present.
func (r *Reader) parseStyles() {
	data, err := r.getFileContent("word/styles.xml")
	if err != nil {
		return
	}

	styles := &stylesXML{}
	if xml.Unmarshal(data, styles) == nil {
		r.styles = styles
	}
}

// parseCoreProperties parses Dublin Core metadata, if present.
func (r *Reader) parseCoreProperties() {
	data, err := r.getFileContent("docProps/core.xml")
	if err != nil {
		return
	}

	props := &corePropertiesXML{}
	if xml.Unmarshal(data, props) == nil {
		r.coreProps = props
	}
}

// parseOutlineLevel parses a 0-based outline level string.
func parseOutlineLevel(s string) int {
	level := 0
	for _, c := range s {
		if c < '0' || c > '9' {
			return -1
		}
		level = level*10 + int(c-'0')
	}
	if level <= 8 {
		return level
	}
	return -1
}

func (r *Reader) warn(code, format string, args ...any) {
	r.warnings = append(r.warnings, model.Warnf(code, format, args...))
}
