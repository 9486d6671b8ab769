// Package latex converts between LaTeX markup and the shared document model.
package latex

import (
	"fmt"
	"strings"
)

// scanner walks LaTeX source character by character. Group extraction
// tracks brace depth explicitly: a closing brace only terminates the group
// at depth zero, so nested commands (\textbf{a \textit{b} c}) survive intact.
type scanner struct {
	src []rune
	pos int
}

func newScanner(src string) *scanner {
	return &scanner{src: []rune(src)}
}

func (s *scanner) eof() bool {
	return s.pos >= len(s.src)
}

func (s *scanner) peek() rune {
	if s.eof() {
		return 0
	}
	return s.src[s.pos]
}

func (s *scanner) next() rune {
	r := s.src[s.pos]
	s.pos++
	return r
}

// rest returns the unconsumed input. Used for prefix checks only.
func (s *scanner) rest() string {
	return string(s.src[s.pos:])
}

// hasPrefix reports whether the unconsumed input starts with p.
func (s *scanner) hasPrefix(p string) bool {
	pr := []rune(p)
	if s.pos+len(pr) > len(s.src) {
		return false
	}
	for i, r := range pr {
		if s.src[s.pos+i] != r {
			return false
		}
	}
	return true
}

// skipSpace consumes spaces, tabs and newlines.
func (s *scanner) skipSpace() {
	for !s.eof() {
		switch s.peek() {
		case ' ', '\t', '\r', '\n':
			s.pos++
		default:
			return
		}
	}
}

// skipLine consumes up to and including the next newline.
func (s *scanner) skipLine() {
	for !s.eof() {
		if s.next() == '\n' {
			return
		}
	}
}

// commandName reads a command immediately after the backslash has been
// consumed. Single-character commands (\\, \%, \&, ...) return that one
// character; letter commands read the full letter sequence plus an optional
// trailing star.
func (s *scanner) commandName() string {
	if s.eof() {
		return ""
	}
	if !isLetter(s.peek()) {
		return string(s.next())
	}
	start := s.pos
	for !s.eof() && isLetter(s.peek()) {
		s.pos++
	}
	name := string(s.src[start:s.pos])
	if !s.eof() && s.peek() == '*' {
		s.pos++
		name += "*"
	}
	return name
}

// group extracts the content of a brace-delimited argument, tracking nesting
// depth. The opening brace must be the next character. Escaped braces (\{ and
// \}) do not affect the depth.
func (s *scanner) group() (string, error) {
	s.skipSpace()
	if s.eof() || s.peek() != '{' {
		return "", fmt.Errorf("expected '{' at offset %d", s.pos)
	}
	s.pos++ // consume {

	var sb strings.Builder
	depth := 1
	for !s.eof() {
		r := s.next()
		switch r {
		case '\\':
			sb.WriteRune(r)
			if !s.eof() {
				sb.WriteRune(s.next())
			}
		case '{':
			depth++
			sb.WriteRune(r)
		case '}':
			depth--
			if depth == 0 {
				return sb.String(), nil
			}
			sb.WriteRune(r)
		default:
			sb.WriteRune(r)
		}
	}
	return "", fmt.Errorf("unterminated group starting before offset %d", s.pos)
}

// optional extracts a bracket-delimited optional argument if one is present,
// tracking bracket depth the same way group does.
func (s *scanner) optional() (string, bool) {
	mark := s.pos
	s.skipSpace()
	if s.eof() || s.peek() != '[' {
		s.pos = mark
		return "", false
	}
	s.pos++ // consume [

	var sb strings.Builder
	depth := 1
	for !s.eof() {
		r := s.next()
		switch r {
		case '\\':
			sb.WriteRune(r)
			if !s.eof() {
				sb.WriteRune(s.next())
			}
		case '[':
			depth++
			sb.WriteRune(r)
		case ']':
			depth--
			if depth == 0 {
				return sb.String(), true
			}
			sb.WriteRune(r)
		default:
			sb.WriteRune(r)
		}
	}
	// Unterminated optional argument: treat the bracket as literal text.
	s.pos = mark
	return "", false
}

// environment extracts the raw content between \begin{name} (already
// consumed) and the matching \end{name}, honoring nested environments of the
// same name.
func (s *scanner) environment(name string) (string, error) {
	begin := `\begin{` + name + `}`
	end := `\end{` + name + `}`

	var sb strings.Builder
	depth := 1
	for !s.eof() {
		if s.hasPrefix(begin) {
			depth++
			sb.WriteString(begin)
			s.pos += len([]rune(begin))
			continue
		}
		if s.hasPrefix(end) {
			depth--
			s.pos += len([]rune(end))
			if depth == 0 {
				return sb.String(), nil
			}
			sb.WriteString(end)
			continue
		}
		sb.WriteRune(s.next())
	}
	return "", fmt.Errorf("environment %q opened but never closed", name)
}

func isLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}
