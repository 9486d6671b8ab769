// Package model provides the intermediate representation (IR) shared by every
// parser/generator pair.
//
// This package defines the format-neutral data structures that represent the
// semantic structure of a report. Parsers (DOCX, LaTeX) produce a [Document];
// generators consume one. The model never holds state across conversions:
// a Document is created empty by a parser, populated block-by-block in source
// order, handed to a generator, then discarded.
//
// # Document Structure
//
// The [Document] type is an ordered sequence of blocks plus document-level
// metadata (title, optional bibliography):
//
//	doc := model.NewDocument()
//	doc.AddBlock(&model.Heading{Level: 1, Runs: []model.Run{{Text: "Introduction"}}})
//
// # Blocks
//
// All content implements the [Block] interface. The concrete types are:
//
//   - [Heading] - section titles (levels 1-3, deeper levels unnumbered)
//   - [Paragraph] - text paragraphs made of formatted runs
//   - [Table] - tables with per-cell alignment hints
//   - [Image] - extracted/embedded images with workspace-relative paths
//   - [Raw] - verbatim passthrough for unsupported markup
//
// # Runs
//
// A [Run] is a contiguous span of text sharing one formatting-flag set
// (bold, italic, underline). Flags are composable; generators apply them in a
// fixed outer-to-inner order so repeated renders are stable.
package model
