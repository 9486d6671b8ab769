// Package format provides file format and conversion direction detection.
package format

import (
	"path/filepath"
	"strings"
)

// Format represents a supported document format.
type Format int

const (
	// Unknown indicates an unrecognized format.
	Unknown Format = iota
	// DOCX indicates a Microsoft Word (.docx) document.
	DOCX
	// TeX indicates a LaTeX (.tex) source file.
	TeX
	// LaTeX indicates a LaTeX (.latex) source file.
	LaTeX
)

// String returns the string representation of the format.
func (f Format) String() string {
	switch f {
	case DOCX:
		return "DOCX"
	case TeX:
		return "TeX"
	case LaTeX:
		return "LaTeX"
	default:
		return "Unknown"
	}
}

// Extension returns the typical file extension for the format.
func (f Format) Extension() string {
	switch f {
	case DOCX:
		return ".docx"
	case TeX:
		return ".tex"
	case LaTeX:
		return ".latex"
	default:
		return ""
	}
}

// Direction is the conversion direction, resolved once at the boundary.
// No runtime type inspection happens downstream of this.
type Direction int

const (
	// DirectionUnknown indicates the input extension is unsupported.
	DirectionUnknown Direction = iota
	// DocxToLaTeX converts a word-processing document to LaTeX markup.
	DocxToLaTeX
	// LaTeXToDocx converts LaTeX markup to a word-processing document.
	LaTeXToDocx
)

// String returns the string representation of the direction.
func (d Direction) String() string {
	switch d {
	case DocxToLaTeX:
		return "docx-to-latex"
	case LaTeXToDocx:
		return "latex-to-docx"
	default:
		return "unknown"
	}
}

// OutputExtension returns the extension of the artifact the direction produces.
func (d Direction) OutputExtension() string {
	switch d {
	case DocxToLaTeX:
		return ".tex"
	case LaTeXToDocx:
		return ".docx"
	default:
		return ""
	}
}

// Detect determines file format from the filename extension, case-insensitively.
func Detect(filename string) Format {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".docx":
		return DOCX
	case ".tex":
		return TeX
	case ".latex":
		return LaTeX
	default:
		return Unknown
	}
}

// DirectionFor maps an input format to its conversion direction.
func DirectionFor(f Format) Direction {
	switch f {
	case DOCX:
		return DocxToLaTeX
	case TeX, LaTeX:
		return LaTeXToDocx
	default:
		return DirectionUnknown
	}
}
