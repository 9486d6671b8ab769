package model

import "strings"

// StyleMapper is the bidirectional lookup between word-processing heading
// style names and structural heading levels. Levels 1-3 are the numbered
// section levels; level 4 is the overflow bucket for anything deeper.
type StyleMapper struct {
	byStyle map[string]int
	byLevel map[int]string
}

// MaxHeadingLevel is the deepest level the mapper distinguishes. Styles
// deeper than this collapse into it.
const MaxHeadingLevel = 4

// NewStyleMapper returns a mapper covering the standard Word heading styles.
func NewStyleMapper() *StyleMapper {
	sm := &StyleMapper{
		byStyle: map[string]int{
			"heading1": 1, "heading 1": 1, "title": 1,
			"heading2": 2, "heading 2": 2,
			"heading3": 3, "heading 3": 3,
			"heading4": 4, "heading 4": 4,
			"heading5": 4, "heading 5": 4,
			"heading6": 4, "heading 6": 4,
		},
		byLevel: map[int]string{
			1: "Heading1",
			2: "Heading2",
			3: "Heading3",
			4: "Heading4",
		},
	}
	return sm
}

// LevelFor returns the heading level for a style name or ID, or 0 if the
// style is not a recognized heading style (callers treat 0 as Paragraph).
func (sm *StyleMapper) LevelFor(style string) int {
	return sm.byStyle[strings.ToLower(strings.TrimSpace(style))]
}

// StyleFor returns the style ID for a heading level. Levels beyond
// MaxHeadingLevel fall back to the deepest defined style; levels below 1
// clamp to 1.
func (sm *StyleMapper) StyleFor(level int) string {
	if level < 1 {
		level = 1
	}
	if level > MaxHeadingLevel {
		level = MaxHeadingLevel
	}
	return sm.byLevel[level]
}
