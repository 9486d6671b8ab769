package model

import (
	"strconv"
	"strings"
)

// Cell is a single table cell: text plus an optional alignment hint.
type Cell struct {
	Text  string
	Align Alignment
}

// Row is an ordered sequence of cells.
type Row struct {
	Cells []Cell
}

// Table is an ordered sequence of rows. After Normalize every row has the
// same cell count (short rows padded with empty cells).
type Table struct {
	Rows    []Row
	Caption string
}

func (t *Table) Kind() BlockKind { return KindTable }

// ColCount returns the maximum cell count observed across all rows.
func (t *Table) ColCount() int {
	max := 0
	for _, row := range t.Rows {
		if len(row.Cells) > max {
			max = len(row.Cells)
		}
	}
	return max
}

// Normalize pads short rows with empty cells so every row has ColCount cells.
func (t *Table) Normalize() {
	cols := t.ColCount()
	for i := range t.Rows {
		for len(t.Rows[i].Cells) < cols {
			t.Rows[i].Cells = append(t.Rows[i].Cells, Cell{})
		}
	}
}

// ColumnAlignments infers one alignment per column from the majority content
// type of that column across all rows: mostly-numeric columns align right,
// everything else aligns left. An explicit per-cell hint wins the vote for
// that cell.
func (t *Table) ColumnAlignments() []Alignment {
	cols := t.ColCount()
	aligns := make([]Alignment, cols)
	for c := 0; c < cols; c++ {
		numeric, total := 0, 0
		var hinted Alignment
		for _, row := range t.Rows {
			if c >= len(row.Cells) {
				continue
			}
			cell := row.Cells[c]
			if cell.Align != AlignDefault {
				hinted = cell.Align
			}
			text := strings.TrimSpace(cell.Text)
			if text == "" {
				continue
			}
			total++
			if isNumeric(text) {
				numeric++
			}
		}
		switch {
		case hinted != AlignDefault:
			aligns[c] = hinted
		case total > 0 && numeric*2 > total:
			aligns[c] = AlignRight
		default:
			aligns[c] = AlignLeft
		}
	}
	return aligns
}

// isNumeric reports whether s parses as a number after stripping common
// thousands separators and unit-free percent signs.
func isNumeric(s string) bool {
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSuffix(s, "%")
	if s == "" {
		return false
	}
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}
