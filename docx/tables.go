package docx

import (
	"strconv"
	"strings"

	"github.com/tsawler/doctex/model"
)

// convertTable converts a <w:tbl> element to a model table. Merged
// cells are materialized: a gridSpan cell repeats its text across the
// spanned columns, and a vMerge continuation cell copies the text of
// the cell above it. The result is always rectangular.
func (r *Reader) convertTable(t tableXML) *model.Table {
	table := &model.Table{}

	for rowIdx, tr := range t.Rows {
		var row model.Row
		for _, tc := range tr.Cells {
			// Cells hold text only; an embedded drawing cannot be
			// carried over, but its loss must be visible.
			if n := cellDrawings(tc); n > 0 {
				r.warn("missing-image", "%d image(s) inside table cell dropped", n)
			}

			cell := model.Cell{
				Text:  cellText(tc),
				Align: cellAlignment(tc),
			}

			if tc.Properties.VMerge.XMLName.Local != "" &&
				tc.Properties.VMerge.Val != "restart" {
				// Continuation of a vertical merge: duplicate the
				// value from the same column in the previous row.
				col := len(row.Cells)
				if rowIdx > 0 && col < len(table.Rows[rowIdx-1].Cells) {
					cell = table.Rows[rowIdx-1].Cells[col]
				}
			}

			span := gridSpan(tc)
			for i := 0; i < span; i++ {
				row.Cells = append(row.Cells, cell)
			}
		}
		table.Rows = append(table.Rows, row)
	}

	table.Normalize()
	return table
}

// cellText joins the text of all paragraphs in a cell.
func cellText(tc tableCellXML) string {
	var parts []string
	for _, p := range tc.Paragraphs {
		var b strings.Builder
		for _, run := range p.Runs {
			b.WriteString(runText(run))
		}
		if s := strings.TrimSpace(b.String()); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}

// cellDrawings counts embedded drawings in a cell, hyperlink runs
// included.
func cellDrawings(tc tableCellXML) int {
	n := 0
	for _, p := range tc.Paragraphs {
		for _, run := range p.Runs {
			n += len(run.Drawing)
		}
		for _, h := range p.Hyperlinks {
			for _, run := range h.Runs {
				n += len(run.Drawing)
			}
		}
	}
	return n
}

// cellAlignment takes the justification of the first paragraph as the
// alignment hint for the whole cell.
func cellAlignment(tc tableCellXML) model.Alignment {
	for _, p := range tc.Paragraphs {
		if p.Properties.Justification.Val != "" {
			return alignmentFor(p.Properties.Justification.Val)
		}
	}
	return model.AlignDefault
}

// gridSpan returns the number of grid columns the cell covers, at
// least 1.
func gridSpan(tc tableCellXML) int {
	n, err := strconv.Atoi(tc.Properties.GridSpan.Val)
	if err != nil || n < 1 {
		return 1
	}
	return n
}
