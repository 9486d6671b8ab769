package model

import "strings"

// BlockKind identifies the concrete type of a block.
type BlockKind int

const (
	KindUnknown BlockKind = iota
	KindHeading
	KindParagraph
	KindTable
	KindImage
	KindRaw
)

func (k BlockKind) String() string {
	switch k {
	case KindHeading:
		return "Heading"
	case KindParagraph:
		return "Paragraph"
	case KindTable:
		return "Table"
	case KindImage:
		return "Image"
	case KindRaw:
		return "Raw"
	default:
		return "Unknown"
	}
}

// Block is the interface implemented by all document blocks.
type Block interface {
	Kind() BlockKind
}

// Document represents a complete report as an ordered sequence of blocks.
// A Document is owned by a single conversion invocation and is never shared.
type Document struct {
	Title        string
	Blocks       []Block
	Bibliography []BibEntry
}

// NewDocument creates a new empty document.
func NewDocument() *Document {
	return &Document{
		Blocks: make([]Block, 0),
	}
}

// AddBlock appends a block in source order.
func (d *Document) AddBlock(b Block) {
	d.Blocks = append(d.Blocks, b)
}

// Headings returns all heading blocks in document order.
func (d *Document) Headings() []*Heading {
	var hs []*Heading
	for _, b := range d.Blocks {
		if h, ok := b.(*Heading); ok {
			hs = append(hs, h)
		}
	}
	return hs
}

// Images returns all image blocks in document order.
func (d *Document) Images() []*Image {
	var imgs []*Image
	for _, b := range d.Blocks {
		if img, ok := b.(*Image); ok {
			imgs = append(imgs, img)
		}
	}
	return imgs
}

// Alignment is a per-paragraph or per-cell alignment hint.
type Alignment int

const (
	AlignDefault Alignment = iota
	AlignLeft
	AlignCenter
	AlignRight
)

// Run is a contiguous span of text sharing one formatting-flag set.
type Run struct {
	Text      string
	Bold      bool
	Italic    bool
	Underline bool
}

// Plain returns true if the run carries no formatting flags.
func (r Run) Plain() bool {
	return !r.Bold && !r.Italic && !r.Underline
}

// RunsText concatenates the text of a run sequence.
func RunsText(runs []Run) string {
	var sb strings.Builder
	for _, r := range runs {
		sb.WriteString(r.Text)
	}
	return sb.String()
}

// Heading is a section title. Levels 1-3 are numbered section levels;
// anything deeper is carried as-is and rendered at the deepest level the
// target format defines.
type Heading struct {
	Level int
	Runs  []Run
}

func (h *Heading) Kind() BlockKind { return KindHeading }

// Text returns the concatenated heading text.
func (h *Heading) Text() string { return RunsText(h.Runs) }

// Paragraph is a sequence of formatted runs with an optional alignment hint.
type Paragraph struct {
	Runs      []Run
	Alignment Alignment
}

func (p *Paragraph) Kind() BlockKind { return KindParagraph }

// Text returns the concatenated paragraph text.
func (p *Paragraph) Text() string { return RunsText(p.Runs) }

// Image is an extracted or embedded picture. ID is unique within one
// Document; Path points into the invocation's scoped workspace.
type Image struct {
	ID      string
	Path    string
	Caption string
}

func (i *Image) Kind() BlockKind { return KindImage }

// Raw is markup preserved verbatim because no structured mapping exists.
type Raw struct {
	Text string
}

func (r *Raw) Kind() BlockKind { return KindRaw }

// BibEntry is a single bibliography entry lifted from a references section.
type BibEntry struct {
	Key  string
	Text string
}
