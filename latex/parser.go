package latex

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tsawler/doctex/model"
)

// StructureError reports unrecoverable markup breakage, such as an
// environment that is opened but never closed. The orchestrator maps it to
// the invalid-format error kind.
type StructureError struct {
	Msg string
}

func (e *StructureError) Error() string {
	return "latex structure: " + e.Msg
}

// sectionLevels maps section commands to heading levels.
var sectionLevels = map[string]int{
	"section": 1, "section*": 1,
	"subsection": 2, "subsection*": 2,
	"subsubsection": 3, "subsubsection*": 3,
	"paragraph": 4, "paragraph*": 4,
	"subparagraph": 4, "subparagraph*": 4,
}

// formatCommands maps inline wrapping commands to the run flag they set.
var formatCommands = map[string]string{
	"textbf":    "bold",
	"textit":    "italic",
	"emph":      "italic",
	"underline": "underline",
}

// commands consumed silently at block level: layout directives with no
// structural counterpart in the model.
var ignoredCommands = map[string]bool{
	"maketitle":       true,
	"tableofcontents": true,
	"clearpage":       true,
	"newpage":         true,
	"noindent":        true,
	"centering":       true,
	"label":           true,
	"bigskip":         true,
	"medskip":         true,
	"smallskip":       true,
}

// Parser converts LaTeX markup into a model.Document. All state is
// instance-scoped so concurrent parses stay independent.
type Parser struct {
	warnings []model.Warning
	imageSeq int
}

// NewParser creates a parser.
func NewParser() *Parser {
	return &Parser{}
}

// Parse converts LaTeX source into a Document. Unknown commands degrade to
// Raw blocks with a warning; an unterminated environment is fatal and
// surfaces as a *StructureError.
func Parse(src string) (*model.Document, []model.Warning, error) {
	p := NewParser()
	doc, err := p.Parse(src)
	return doc, p.warnings, err
}

// Parse converts LaTeX source into a Document.
func (p *Parser) Parse(src string) (*model.Document, error) {
	doc := model.NewDocument()

	src = stripComments(src)

	// Pull the title out of the preamble before narrowing to the body.
	if title, ok := preambleTitle(src); ok {
		doc.Title = title
	}

	body, err := documentBody(src)
	if err != nil {
		return nil, err
	}

	if err := p.parseBlocks(newScanner(body), doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// Warnings returns the non-fatal degradations collected during the parse.
func (p *Parser) Warnings() []model.Warning {
	return p.warnings
}

func (p *Parser) warnf(code, format string, args ...any) {
	p.warnings = append(p.warnings, model.Warnf(code, format, args...))
}

// stripComments removes % comments up to end of line, keeping escaped \%.
func stripComments(src string) string {
	var sb strings.Builder
	sb.Grow(len(src))
	rs := []rune(src)
	for i := 0; i < len(rs); i++ {
		switch rs[i] {
		case '\\':
			sb.WriteRune(rs[i])
			if i+1 < len(rs) {
				i++
				sb.WriteRune(rs[i])
			}
		case '%':
			for i+1 < len(rs) && rs[i+1] != '\n' {
				i++
			}
		default:
			sb.WriteRune(rs[i])
		}
	}
	return sb.String()
}

// preambleTitle extracts \title{...} if present.
func preambleTitle(src string) (string, bool) {
	idx := strings.Index(src, `\title`)
	if idx < 0 {
		return "", false
	}
	s := newScanner(src[idx+len(`\title`):])
	arg, err := s.group()
	if err != nil {
		return "", false
	}
	return strings.TrimSpace(Unescape(arg)), true
}

// documentBody narrows to the content between \begin{document} and
// \end{document}. Standalone snippets without the wrapper are taken whole.
func documentBody(src string) (string, error) {
	begin := `\begin{document}`
	idx := strings.Index(src, begin)
	if idx < 0 {
		return src, nil
	}
	s := newScanner(src[idx+len(begin):])
	body, err := s.environment("document")
	if err != nil {
		return "", &StructureError{Msg: err.Error()}
	}
	return body, nil
}

// blockStarters are commands that terminate an open paragraph when they
// appear at the start of a line.
var blockStarters = []string{
	`\section`, `\subsection`, `\subsubsection`,
	`\paragraph`, `\subparagraph`,
	`\begin{`, `\title{`, `\includegraphics`,
}

// inlineStart reports whether a command opens inline content rather than a
// standalone block: formatting wrappers, escape sequences, and the named
// escapes for backslash, tilde and caret.
func inlineStart(name string) bool {
	if formatCommands[name] != "" {
		return true
	}
	switch name {
	case "textbackslash", "textasciitilde", "textasciicircum":
		return true
	}
	return len(name) == 1 && !isLetter([]rune(name)[0])
}

func startsBlock(s *scanner) bool {
	for _, bs := range blockStarters {
		if s.hasPrefix(bs) {
			return true
		}
	}
	return false
}

// parseBlocks is the block-level loop: classify each construct in source
// order and append the resulting blocks to doc.
func (p *Parser) parseBlocks(s *scanner, doc *model.Document) error {
	for {
		s.skipSpace()
		if s.eof() {
			return nil
		}

		if s.peek() == '\\' && !s.hasPrefix(`\\`) {
			mark := s.pos
			s.pos++ // consume backslash
			name := s.commandName()

			switch {
			case name == "begin":
				env, err := s.group()
				if err != nil {
					return &StructureError{Msg: err.Error()}
				}
				if err := p.parseEnvironment(s, env, doc); err != nil {
					return err
				}
				continue

			case name == "end":
				env, _ := s.group()
				return &StructureError{Msg: fmt.Sprintf("unexpected \\end{%s}", env)}

			case sectionLevels[name] != 0:
				arg, err := s.group()
				if err != nil {
					return &StructureError{Msg: fmt.Sprintf("\\%s: %v", name, err)}
				}
				doc.AddBlock(&model.Heading{
					Level: sectionLevels[name],
					Runs:  p.parseRuns(arg, model.Run{}),
				})
				continue

			case name == "title":
				arg, err := s.group()
				if err != nil {
					return &StructureError{Msg: fmt.Sprintf("\\title: %v", err)}
				}
				doc.Title = strings.TrimSpace(Unescape(arg))
				continue

			case name == "includegraphics":
				p.addImage(s, doc, "")
				continue

			case name == "bibitem" || name == "item":
				// Stray list/bib items outside their environment: drop the
				// marker and degrade the content to a paragraph.
				s.optional()
				if name == "bibitem" {
					s.group()
				}
				p.parseParagraph(s, doc, model.AlignDefault)
				continue

			case ignoredCommands[name]:
				p.discardArguments(s)
				continue

			case inlineStart(name):
				// Formatting commands and escape sequences open a
				// paragraph, not a block of their own.
				s.pos = mark
				p.parseParagraph(s, doc, model.AlignDefault)
				continue

			default:
				// Unknown command: preserve the whole invocation verbatim.
				raw := p.rawCommand(s, mark)
				doc.AddBlock(&model.Raw{Text: raw})
				p.warnf("unknown-command", "unsupported command \\%s preserved verbatim", name)
				continue
			}
		}

		p.parseParagraph(s, doc, model.AlignDefault)
	}
}

// discardArguments consumes any optional and mandatory arguments following a
// command that is ignored.
func (p *Parser) discardArguments(s *scanner) {
	for {
		if _, ok := s.optional(); ok {
			continue
		}
		mark := s.pos
		s.skipSpace()
		if !s.eof() && s.peek() == '{' {
			if _, err := s.group(); err == nil {
				continue
			}
		}
		s.pos = mark
		return
	}
}

// rawCommand re-reads from mark and captures the command with all of its
// arguments as verbatim text.
func (p *Parser) rawCommand(s *scanner, mark int) string {
	start := mark
	s.pos = mark + 1 // past the backslash
	s.commandName()
	p.discardArguments(s)
	return strings.TrimSpace(string(s.src[start:s.pos]))
}

// parseParagraph accumulates text until a blank line or the start of the
// next block construct, then parses inline formatting into runs.
func (p *Parser) parseParagraph(s *scanner, doc *model.Document, align model.Alignment) {
	var sb strings.Builder
	for !s.eof() {
		r := s.peek()
		if r == '\n' {
			// Look ahead: blank line or block starter ends the paragraph.
			mark := s.pos
			s.skipSpace()
			if s.eof() || startsBlock(s) || blankBetween(s.src, mark, s.pos) {
				s.pos = mark
				break
			}
			s.pos = mark
			sb.WriteRune(s.next())
			continue
		}
		sb.WriteRune(s.next())
	}

	text := strings.TrimSpace(sb.String())
	if text == "" {
		return
	}
	runs := p.parseRuns(text, model.Run{})
	if len(runs) == 0 {
		return
	}
	doc.AddBlock(&model.Paragraph{Runs: runs, Alignment: align})
}

// blankBetween reports whether src[from:to] contains two newlines, meaning
// the whitespace run spans a blank line.
func blankBetween(src []rune, from, to int) bool {
	count := 0
	for i := from; i < to && i < len(src); i++ {
		if src[i] == '\n' {
			count++
		}
	}
	return count >= 2
}

// parseRuns parses inline content into runs, inheriting the formatting flags
// of base. Nested wrapping commands compose flags.
func (p *Parser) parseRuns(text string, base model.Run) []model.Run {
	s := newScanner(text)
	var runs []model.Run
	var plain strings.Builder

	flush := func() {
		if plain.Len() == 0 {
			return
		}
		r := base
		r.Text = plain.String()
		runs = append(runs, r)
		plain.Reset()
	}

	for !s.eof() {
		r := s.next()
		switch r {
		case '\\':
			name := s.commandName()
			switch {
			case formatCommands[name] != "":
				arg, err := s.group()
				if err != nil {
					// Malformed argument: keep the command text literally.
					plain.WriteString(`\` + name)
					continue
				}
				flush()
				inner := base
				switch formatCommands[name] {
				case "bold":
					inner.Bold = true
				case "italic":
					inner.Italic = true
				case "underline":
					inner.Underline = true
				}
				runs = append(runs, p.parseRuns(arg, inner)...)

			case name == `\`:
				plain.WriteString(" ") // forced line break becomes a space

			case name == "&":
				plain.WriteString("&")
			case name == "%":
				plain.WriteString("%")
			case name == "$":
				plain.WriteString("$")
			case name == "#":
				plain.WriteString("#")
			case name == "_":
				plain.WriteString("_")
			case name == "{":
				plain.WriteString("{")
			case name == "}":
				plain.WriteString("}")
			case name == "textbackslash":
				s.optionalEmptyGroup()
				plain.WriteString(`\`)
			case name == "textasciitilde":
				s.optionalEmptyGroup()
				plain.WriteString("~")
			case name == "textasciicircum":
				s.optionalEmptyGroup()
				plain.WriteString("^")

			default:
				// Unknown inline command: keep it verbatim inside the run.
				start := s.pos
				p.discardArguments(s)
				plain.WriteString(`\` + name + string(s.src[start:s.pos]))
				p.warnf("unknown-command", "unsupported inline command \\%s kept verbatim", name)
			}

		case '$':
			// Inline math: carried as an italic run, content verbatim.
			var math strings.Builder
			for !s.eof() && s.peek() != '$' {
				math.WriteRune(s.next())
			}
			if !s.eof() {
				s.next() // closing $
			}
			flush()
			inner := base
			inner.Italic = true
			inner.Text = math.String()
			runs = append(runs, inner)

		case '{', '}':
			// Bare grouping braces carry no formatting in the supported
			// subset; drop them.

		case '\n':
			plain.WriteString(" ")

		default:
			plain.WriteRune(r)
		}
	}
	flush()
	return runs
}

// optionalEmptyGroup consumes a trailing {} if present (the spacing guard
// emitted after \textbackslash and friends).
func (s *scanner) optionalEmptyGroup() {
	if s.hasPrefix("{}") {
		s.pos += 2
	}
}

// parseEnvironment dispatches a \begin{env} whose name group has been read.
func (p *Parser) parseEnvironment(s *scanner, env string, doc *model.Document) error {
	content, err := s.environment(env)
	if err != nil {
		return &StructureError{Msg: err.Error()}
	}

	switch env {
	case "table", "table*":
		return p.parseTableFloat(content, doc)
	case "tabular", "longtable":
		tbl, err := p.parseTabular(content, "")
		if err != nil {
			return err
		}
		doc.AddBlock(tbl)
		return nil
	case "figure", "figure*":
		return p.parseFigure(content, doc)
	case "center":
		return p.parseAligned(content, doc, model.AlignCenter)
	case "flushright":
		return p.parseAligned(content, doc, model.AlignRight)
	case "itemize", "enumerate":
		p.parseList(content, doc, env == "enumerate")
		return nil
	case "thebibliography":
		p.parseBibliography(content, doc)
		return nil
	case "document":
		return p.parseBlocks(newScanner(content), doc)
	default:
		raw := `\begin{` + env + `}` + content + `\end{` + env + `}`
		doc.AddBlock(&model.Raw{Text: raw})
		p.warnf("unknown-command", "unsupported environment %q preserved verbatim", env)
		return nil
	}
}

// parseTableFloat handles a table float: locate the inner tabular and an
// optional caption.
func (p *Parser) parseTableFloat(content string, doc *model.Document) error {
	caption := ""
	if idx := strings.Index(content, `\caption`); idx >= 0 {
		cs := newScanner(content[idx+len(`\caption`):])
		if arg, err := cs.group(); err == nil {
			caption = strings.TrimSpace(Unescape(arg))
		}
	}

	for _, inner := range []string{"tabular", "longtable"} {
		begin := `\begin{` + inner + `}`
		idx := strings.Index(content, begin)
		if idx < 0 {
			continue
		}
		is := newScanner(content[idx+len(begin):])
		body, err := is.environment(inner)
		if err != nil {
			return &StructureError{Msg: err.Error()}
		}
		tbl, err := p.parseTabular(body, caption)
		if err != nil {
			return err
		}
		doc.AddBlock(tbl)
		return nil
	}

	p.warnf("unknown-command", "table float without tabular content preserved verbatim")
	doc.AddBlock(&model.Raw{Text: `\begin{table}` + content + `\end{table}`})
	return nil
}

// parseTabular converts tabular content (starting with the column spec
// group) into a model.Table. Rows split on \\, cells on &, independent of
// surrounding whitespace; rule commands are dropped.
func (p *Parser) parseTabular(content, caption string) (*model.Table, error) {
	s := newScanner(content)
	spec, err := s.group()
	if err != nil {
		return nil, &StructureError{Msg: "tabular without column specification"}
	}
	aligns := parseColumnSpec(spec)

	tbl := &model.Table{Caption: caption}
	for _, rowText := range splitCells(s.rest(), true) {
		rowText = stripRules(rowText)
		if strings.TrimSpace(rowText) == "" {
			continue
		}
		row := model.Row{}
		for i, cellText := range splitCells(rowText, false) {
			cell := model.Cell{Text: p.cellText(cellText)}
			if i < len(aligns) {
				cell.Align = aligns[i]
			}
			row.Cells = append(row.Cells, cell)
		}
		tbl.Rows = append(tbl.Rows, row)
	}
	tbl.Normalize()
	return tbl, nil
}

// cellText flattens a cell's inline markup to plain text.
func (p *Parser) cellText(raw string) string {
	runs := p.parseRuns(strings.TrimSpace(raw), model.Run{})
	return strings.TrimSpace(model.RunsText(runs))
}

// splitCells splits tabular content on the row separator (\\) or the cell
// separator (&), honoring brace depth so nested groups survive.
func splitCells(content string, rows bool) []string {
	var parts []string
	var sb strings.Builder
	rs := []rune(content)
	depth := 0
	for i := 0; i < len(rs); i++ {
		r := rs[i]
		switch {
		case r == '\\' && i+1 < len(rs):
			if rows && rs[i+1] == '\\' && depth == 0 {
				parts = append(parts, sb.String())
				sb.Reset()
				i++
				continue
			}
			sb.WriteRune(r)
			i++
			sb.WriteRune(rs[i])
		case r == '{':
			depth++
			sb.WriteRune(r)
		case r == '}':
			depth--
			sb.WriteRune(r)
		case !rows && r == '&' && depth == 0:
			parts = append(parts, sb.String())
			sb.Reset()
		default:
			sb.WriteRune(r)
		}
	}
	parts = append(parts, sb.String())
	return parts
}

// stripRules removes horizontal rule commands from a row chunk.
func stripRules(row string) string {
	for _, rule := range []string{`\toprule`, `\midrule`, `\bottomrule`, `\hline`} {
		row = strings.ReplaceAll(row, rule, "")
	}
	return row
}

// parseColumnSpec maps a tabular column specification to alignment hints.
func parseColumnSpec(spec string) []model.Alignment {
	var aligns []model.Alignment
	rs := []rune(spec)
	for i := 0; i < len(rs); i++ {
		switch rs[i] {
		case 'l':
			aligns = append(aligns, model.AlignLeft)
		case 'c':
			aligns = append(aligns, model.AlignCenter)
		case 'r':
			aligns = append(aligns, model.AlignRight)
		case 'p':
			// p{width} column: left-aligned paragraph cell.
			aligns = append(aligns, model.AlignLeft)
			for i+1 < len(rs) && rs[i+1] != '}' {
				i++
			}
			i++
		}
	}
	return aligns
}

// parseFigure extracts the image inclusion and optional caption from a
// figure float.
func (p *Parser) parseFigure(content string, doc *model.Document) error {
	idx := strings.Index(content, `\includegraphics`)
	if idx < 0 {
		p.warnf("missing-image", "figure without \\includegraphics preserved verbatim")
		doc.AddBlock(&model.Raw{Text: `\begin{figure}` + content + `\end{figure}`})
		return nil
	}

	caption := ""
	if cidx := strings.Index(content, `\caption`); cidx >= 0 {
		cs := newScanner(content[cidx+len(`\caption`):])
		if arg, err := cs.group(); err == nil {
			caption = strings.TrimSpace(Unescape(arg))
		}
	}

	s := newScanner(content[idx+len(`\includegraphics`):])
	p.addImage(s, doc, caption)
	return nil
}

// addImage reads the arguments of an \includegraphics whose name has been
// consumed and appends an Image block.
func (p *Parser) addImage(s *scanner, doc *model.Document, caption string) {
	s.optional() // width/height options are regenerated from configuration
	path, err := s.group()
	if err != nil {
		p.warnf("missing-image", "\\includegraphics without a path skipped")
		return
	}
	p.imageSeq++
	doc.AddBlock(&model.Image{
		ID:      "image" + strconv.Itoa(p.imageSeq),
		Path:    strings.TrimSpace(path),
		Caption: caption,
	})
}

// parseAligned parses center/flushright content into aligned paragraphs.
func (p *Parser) parseAligned(content string, doc *model.Document, align model.Alignment) error {
	s := newScanner(content)
	for {
		s.skipSpace()
		if s.eof() {
			return nil
		}
		p.parseParagraph(s, doc, align)
	}
}

// parseList flattens itemize/enumerate items into one paragraph per item.
// The model has no list block; the marker keeps the intent readable.
func (p *Parser) parseList(content string, doc *model.Document, numbered bool) {
	items := strings.Split(content, `\item`)
	n := 0
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		n++
		marker := "- "
		if numbered {
			marker = strconv.Itoa(n) + ". "
		}
		runs := p.parseRuns(item, model.Run{})
		runs = append([]model.Run{{Text: marker}}, runs...)
		doc.AddBlock(&model.Paragraph{Runs: runs})
	}
}

// parseBibliography lifts a thebibliography environment into structured
// entries on the Document. Generators decide how to surface them: the docx
// side writes a References section, the latex side re-emits the environment.
func (p *Parser) parseBibliography(content string, doc *model.Document) {
	parts := strings.Split(content, `\bibitem`)
	if len(parts) < 2 {
		p.warnf("bibliography", "thebibliography without \\bibitem entries ignored")
		return
	}
	for _, chunk := range parts[1:] {
		s := newScanner(chunk)
		key, err := s.group()
		if err != nil {
			continue
		}
		text := p.cellText(s.rest())
		if text == "" {
			continue
		}
		doc.Bibliography = append(doc.Bibliography, model.BibEntry{Key: key, Text: text})
	}
}
