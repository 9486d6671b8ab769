package docx

import (
	"encoding/xml"
	"io"
)

// XML namespaces used in DOCX files
const (
	nsW   = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"
	nsR   = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
	nsWP  = "http://schemas.openxmlformats.org/drawingml/2006/wordprocessingDrawing"
	nsA   = "http://schemas.openxmlformats.org/drawingml/2006/main"
	nsPic = "http://schemas.openxmlformats.org/drawingml/2006/picture"
)

// documentXML represents the structure of word/document.xml
type documentXML struct {
	XMLName xml.Name `xml:"document"`
	Body    *bodyXML `xml:"body"`
}

// bodyXML represents the document body. Elements preserves the source
// order of paragraphs and tables, which xml.Unmarshal's per-field
// collection would lose.
type bodyXML struct {
	Elements []bodyElement
}

// bodyElement is a single body-level element: exactly one of
// Paragraph or Table is set.
type bodyElement struct {
	Paragraph *paragraphXML
	Table     *tableXML
}

// UnmarshalXML decodes the body children one token at a time so that
// paragraphs and tables keep their document order.
func (b *bodyXML) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	for {
		tok, err := d.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p":
				var p paragraphXML
				if err := d.DecodeElement(&p, &t); err != nil {
					return err
				}
				b.Elements = append(b.Elements, bodyElement{Paragraph: &p})
			case "tbl":
				var tbl tableXML
				if err := d.DecodeElement(&tbl, &t); err != nil {
					return err
				}
				b.Elements = append(b.Elements, bodyElement{Table: &tbl})
			default:
				if err := d.Skip(); err != nil {
					return err
				}
			}
		case xml.EndElement:
			if t.Name == start.Name {
				return nil
			}
		}
	}
}

// paragraphXML represents a paragraph element (<w:p>).
type paragraphXML struct {
	XMLName    xml.Name          `xml:"p"`
	Properties paragraphPropsXML `xml:"pPr"`
	Runs       []runXML          `xml:"r"`
	Hyperlinks []hyperlinkXML    `xml:"hyperlink"`
}

// paragraphPropsXML represents paragraph properties (<w:pPr>).
type paragraphPropsXML struct {
	Style         styleRefXML      `xml:"pStyle"`
	Justification justificationXML `xml:"jc"`
	OutlineLvl    outlineLvlXML    `xml:"outlineLvl"`
}

// styleRefXML represents a style reference.
type styleRefXML struct {
	Val string `xml:"val,attr"`
}

// justificationXML represents text justification.
type justificationXML struct {
	Val string `xml:"val,attr"` // left, center, right, both
}

// outlineLvlXML represents outline level (0-based).
type outlineLvlXML struct {
	Val string `xml:"val,attr"`
}

// runXML represents a text run (<w:r>). Content keeps the run's text
// fragments, tabs, and breaks in document order.
type runXML struct {
	XMLName    xml.Name
	Properties runPropsXML
	Content    []runContentXML
	Drawing    []drawingXML
}

// runContentXML is one ordered child of a run: exactly one field is
// set.
type runContentXML struct {
	Text  *textXML
	Tab   bool
	Break *breakXML
}

// UnmarshalXML decodes the run children one token at a time so that
// tabs and breaks keep their position between text fragments.
func (r *runXML) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	r.XMLName = start.Name
	for {
		tok, err := d.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "rPr":
				if err := d.DecodeElement(&r.Properties, &t); err != nil {
					return err
				}
			case "t":
				var txt textXML
				if err := d.DecodeElement(&txt, &t); err != nil {
					return err
				}
				r.Content = append(r.Content, runContentXML{Text: &txt})
			case "tab":
				if err := d.Skip(); err != nil {
					return err
				}
				r.Content = append(r.Content, runContentXML{Tab: true})
			case "br":
				var br breakXML
				if err := d.DecodeElement(&br, &t); err != nil {
					return err
				}
				r.Content = append(r.Content, runContentXML{Break: &br})
			case "drawing":
				var dr drawingXML
				if err := d.DecodeElement(&dr, &t); err != nil {
					return err
				}
				r.Drawing = append(r.Drawing, dr)
			default:
				if err := d.Skip(); err != nil {
					return err
				}
			}
		case xml.EndElement:
			if t.Name == start.Name {
				return nil
			}
		}
	}
}

// runPropsXML represents run properties (<w:rPr>).
type runPropsXML struct {
	Bold      boolXML      `xml:"b"`
	Italic    boolXML      `xml:"i"`
	Underline underlineXML `xml:"u"`
}

// boolXML represents a toggleable run property. The property is on
// when the element is present and its val attribute is not an
// explicit "false" or "0".
type boolXML struct {
	XMLName xml.Name
	Val     string `xml:"val,attr"`
}

// on reports whether the property element is present and enabled.
func (b boolXML) on() bool {
	if b.XMLName.Local == "" {
		return false
	}
	return b.Val != "false" && b.Val != "0"
}

// underlineXML represents underline style.
type underlineXML struct {
	Val string `xml:"val,attr"` // single, double, none, ...
}

func (u underlineXML) on() bool {
	return u.Val != "" && u.Val != "none"
}

// textXML represents text content (<w:t>).
type textXML struct {
	XMLName xml.Name `xml:"t"`
	Space   string   `xml:"space,attr"`
	Value   string   `xml:",chardata"`
}

// breakXML represents a break (line or page).
type breakXML struct {
	XMLName xml.Name `xml:"br"`
	Type    string   `xml:"type,attr"`
}

// drawingXML represents an embedded drawing/image.
type drawingXML struct {
	XMLName xml.Name   `xml:"drawing"`
	Inline  *inlineXML `xml:"inline"`
	Anchor  *anchorXML `xml:"anchor"`
}

// inlineXML represents an inline image.
type inlineXML struct {
	Extent extentXML `xml:"extent"`
	DocPr  docPrXML  `xml:"docPr"`
	Blip   *blipXML  `xml:"graphic>graphicData>pic>blipFill>blip"`
}

// anchorXML represents an anchored image.
type anchorXML struct {
	Extent extentXML `xml:"extent"`
	DocPr  docPrXML  `xml:"docPr"`
	Blip   *blipXML  `xml:"graphic>graphicData>pic>blipFill>blip"`
}

// extentXML represents image dimensions in EMUs.
type extentXML struct {
	CX string `xml:"cx,attr"`
	CY string `xml:"cy,attr"`
}

// docPrXML represents document properties of an image.
type docPrXML struct {
	ID    string `xml:"id,attr"`
	Name  string `xml:"name,attr"`
	Descr string `xml:"descr,attr"` // alt text
}

// blipXML represents an image reference.
type blipXML struct {
	Embed string `xml:"embed,attr"` // relationship ID
}

// hyperlinkXML represents a hyperlink.
type hyperlinkXML struct {
	ID   string   `xml:"id,attr"`
	Runs []runXML `xml:"r"`
}

// tableXML represents a table (<w:tbl>).
type tableXML struct {
	XMLName xml.Name      `xml:"tbl"`
	Grid    tableGridXML  `xml:"tblGrid"`
	Rows    []tableRowXML `xml:"tr"`
}

// tableGridXML represents the table grid definition.
type tableGridXML struct {
	Cols []gridColXML `xml:"gridCol"`
}

// gridColXML represents a grid column.
type gridColXML struct {
	W string `xml:"w,attr"` // width in twips
}

// tableRowXML represents a table row (<w:tr>).
type tableRowXML struct {
	XMLName xml.Name       `xml:"tr"`
	Cells   []tableCellXML `xml:"tc"`
}

// tableCellXML represents a table cell (<w:tc>).
type tableCellXML struct {
	XMLName    xml.Name       `xml:"tc"`
	Properties cellPropsXML   `xml:"tcPr"`
	Paragraphs []paragraphXML `xml:"p"`
}

// cellPropsXML represents cell properties.
type cellPropsXML struct {
	GridSpan gridSpanXML `xml:"gridSpan"`
	VMerge   vMergeXML   `xml:"vMerge"`
}

// gridSpanXML represents a horizontal column span.
type gridSpanXML struct {
	Val string `xml:"val,attr"`
}

// vMergeXML represents a vertical merge. Val is "restart" on the
// first cell of a merge region and empty on continuation cells.
type vMergeXML struct {
	XMLName xml.Name `xml:"vMerge"`
	Val     string   `xml:"val,attr"`
}

// stylesXML represents the structure of word/styles.xml
type stylesXML struct {
	XMLName xml.Name      `xml:"styles"`
	Styles  []styleDefXML `xml:"style"`
}

// styleDefXML represents a style definition.
type styleDefXML struct {
	XMLName xml.Name          `xml:"style"`
	Type    string            `xml:"type,attr"`
	StyleID string            `xml:"styleId,attr"`
	Name    styleNameXML      `xml:"name"`
	PPr     paragraphPropsXML `xml:"pPr"`
}

// styleNameXML represents a style name.
type styleNameXML struct {
	Val string `xml:"val,attr"`
}

// relationshipsXML represents _rels/*.rels files
type relationshipsXML struct {
	XMLName       xml.Name          `xml:"Relationships"`
	Relationships []relationshipXML `xml:"Relationship"`
}

// relationshipXML represents a single relationship.
type relationshipXML struct {
	ID         string `xml:"Id,attr"`
	Type       string `xml:"Type,attr"`
	Target     string `xml:"Target,attr"`
	TargetMode string `xml:"TargetMode,attr"`
}

// corePropertiesXML represents docProps/core.xml (Dublin Core metadata)
type corePropertiesXML struct {
	XMLName xml.Name `xml:"coreProperties"`
	Title   string   `xml:"title"`
	Creator string   `xml:"creator"`
	Subject string   `xml:"subject"`
}
