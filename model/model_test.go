package model

import "testing"

func TestTableNormalize(t *testing.T) {
	tbl := &Table{
		Rows: []Row{
			{Cells: []Cell{{Text: "a"}, {Text: "b"}, {Text: "c"}}},
			{Cells: []Cell{{Text: "d"}}},
			{Cells: []Cell{{Text: "e"}, {Text: "f"}}},
		},
	}

	tbl.Normalize()

	if got := tbl.ColCount(); got != 3 {
		t.Fatalf("ColCount = %d, want 3", got)
	}
	for i, row := range tbl.Rows {
		if len(row.Cells) != 3 {
			t.Errorf("row %d has %d cells after Normalize, want 3", i, len(row.Cells))
		}
	}
	if tbl.Rows[1].Cells[1].Text != "" || tbl.Rows[1].Cells[2].Text != "" {
		t.Errorf("padding cells should be empty, got %+v", tbl.Rows[1].Cells)
	}
}

func TestColumnAlignments(t *testing.T) {
	tests := []struct {
		name string
		rows []Row
		want []Alignment
	}{
		{
			name: "numeric column aligns right",
			rows: []Row{
				{Cells: []Cell{{Text: "Name"}, {Text: "Score"}}},
				{Cells: []Cell{{Text: "alpha"}, {Text: "12.5"}}},
				{Cells: []Cell{{Text: "beta"}, {Text: "99"}}},
			},
			want: []Alignment{AlignLeft, AlignRight},
		},
		{
			name: "text column aligns left",
			rows: []Row{
				{Cells: []Cell{{Text: "one"}, {Text: "two"}}},
				{Cells: []Cell{{Text: "three"}, {Text: "four"}}},
			},
			want: []Alignment{AlignLeft, AlignLeft},
		},
		{
			name: "explicit hint wins",
			rows: []Row{
				{Cells: []Cell{{Text: "x", Align: AlignCenter}}},
				{Cells: []Cell{{Text: "y"}}},
			},
			want: []Alignment{AlignCenter},
		},
		{
			name: "thousands separators and percents count as numeric",
			rows: []Row{
				{Cells: []Cell{{Text: "1,250"}}},
				{Cells: []Cell{{Text: "37%"}}},
			},
			want: []Alignment{AlignRight},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tbl := &Table{Rows: tt.rows}
			got := tbl.ColumnAlignments()
			if len(got) != len(tt.want) {
				t.Fatalf("got %d alignments, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("column %d: got %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestStyleMapperRoundTrip(t *testing.T) {
	sm := NewStyleMapper()

	for level := 1; level <= 3; level++ {
		style := sm.StyleFor(level)
		if got := sm.LevelFor(style); got != level {
			t.Errorf("level %d -> style %q -> level %d", level, style, got)
		}
	}

	if got := sm.LevelFor("BodyText"); got != 0 {
		t.Errorf("LevelFor(BodyText) = %d, want 0", got)
	}
	if got := sm.StyleFor(9); got != "Heading4" {
		t.Errorf("StyleFor(9) = %q, want Heading4 (overflow)", got)
	}
	if got := sm.LevelFor("Heading 2"); got != 2 {
		t.Errorf("LevelFor(Heading 2) = %d, want 2", got)
	}
}

func TestRunsText(t *testing.T) {
	runs := []Run{
		{Text: "plain "},
		{Text: "bold", Bold: true},
		{Text: " tail"},
	}
	if got := RunsText(runs); got != "plain bold tail" {
		t.Errorf("RunsText = %q", got)
	}
}
