// Package bib lifts a references section out of a document into
// structured bibliography entries.
package bib

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/tsawler/doctex/model"
)

var (
	headingPattern = regexp.MustCompile(`(?i)^(references|bibliography|works\s+cited)$`)
	entryPattern   = regexp.MustCompile(`^\[?(\d+)[\].]?\s+(.+)$`)
)

// Extract scans doc for a heading named References, Bibliography, or
// Works Cited and converts the paragraphs under it into bibliography
// entries, removing them from the block list. Numbered entries keep
// their labels; a paragraph that does not start a new entry is treated
// as a continuation of the previous one. Extraction never fails: when
// no references section exists the document is left untouched.
func Extract(doc *model.Document) []model.Warning {
	start := sectionStart(doc)
	if start < 0 {
		return nil
	}

	// Collect paragraphs up to the next heading or non-text block.
	end := start + 1
	var paras []*model.Paragraph
	for ; end < len(doc.Blocks); end++ {
		p, ok := doc.Blocks[end].(*model.Paragraph)
		if !ok {
			break
		}
		paras = append(paras, p)
	}

	if len(paras) == 0 {
		return []model.Warning{
			model.Warnf("empty-bibliography", "references heading has no entries"),
		}
	}

	entries, warnings := parseEntries(paras)
	doc.Bibliography = append(doc.Bibliography, entries...)
	doc.Blocks = append(doc.Blocks[:start], doc.Blocks[end:]...)
	return warnings
}

// sectionStart returns the index of the references heading, or -1.
// When several candidate headings exist the last one wins, since a
// references section conventionally ends a document.
func sectionStart(doc *model.Document) int {
	start := -1
	for i, b := range doc.Blocks {
		h, ok := b.(*model.Heading)
		if !ok {
			continue
		}
		if headingPattern.MatchString(strings.TrimSpace(h.Text())) {
			start = i
		}
	}
	return start
}

// parseEntries converts reference paragraphs into entries. Leading
// text before the first numbered entry gets a sequential key and a
// warning.
func parseEntries(paras []*model.Paragraph) ([]model.BibEntry, []model.Warning) {
	var entries []model.BibEntry
	var warnings []model.Warning

	for _, p := range paras {
		text := strings.TrimSpace(model.RunsText(p.Runs))
		if text == "" {
			continue
		}

		if m := entryPattern.FindStringSubmatch(text); m != nil {
			entries = append(entries, model.BibEntry{Key: m[1], Text: m[2]})
			continue
		}

		if len(entries) > 0 {
			// Hanging-indent continuation of the previous entry.
			last := &entries[len(entries)-1]
			last.Text += " " + text
			continue
		}

		key := strconv.Itoa(len(entries) + 1)
		entries = append(entries, model.BibEntry{Key: key, Text: text})
		warnings = append(warnings,
			model.Warnf("unnumbered-reference", "reference entry without a label: %.40s", text))
	}

	return entries, warnings
}
