package latex

import "strings"

// The escape table covers the LaTeX special characters & % $ # _ { } ~ ^ \
// with a one-to-one mapping, so Unescape(Escape(s)) == s for any s.

var unescaper = strings.NewReplacer(
	`\textbackslash{}`, `\`,
	`\textasciitilde{}`, "~",
	`\textasciicircum{}`, "^",
	`\&`, "&",
	`\%`, "%",
	`\$`, "$",
	`\#`, "#",
	`\_`, "_",
	`\{`, "{",
	`\}`, "}",
)

// Escape replaces every LaTeX special character in s with its escape
// sequence. The scan is a single pass, so characters introduced by an
// earlier replacement are never escaped again.
func Escape(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	for _, r := range s {
		switch r {
		case '\\':
			sb.WriteString(`\textbackslash{}`)
		case '&':
			sb.WriteString(`\&`)
		case '%':
			sb.WriteString(`\%`)
		case '$':
			sb.WriteString(`\$`)
		case '#':
			sb.WriteString(`\#`)
		case '_':
			sb.WriteString(`\_`)
		case '{':
			sb.WriteString(`\{`)
		case '}':
			sb.WriteString(`\}`)
		case '~':
			sb.WriteString(`\textasciitilde{}`)
		case '^':
			sb.WriteString(`\textasciicircum{}`)
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// Unescape reverses Escape. Longer sequences are listed first in the
// replacer so \textbackslash{} is never misread as \t plus trailing text.
func Unescape(s string) string {
	return unescaper.Replace(s)
}
