package latex

import "testing"

func TestEscapeUnescapeRoundTrip(t *testing.T) {
	tests := []string{
		`plain text`,
		`a & b`,
		`100% sure`,
		`price: $5`,
		`issue #42`,
		`snake_case_name`,
		`{braces}`,
		`~home`,
		`x^2`,
		`C:\Users\report`,
		"all specials & % $ # _ { } ~ ^ \\ together",
		`\textbackslash{} pre-escaped input`,
		``,
	}

	for _, input := range tests {
		t.Run(input, func(t *testing.T) {
			escaped := Escape(input)
			if got := Unescape(escaped); got != input {
				t.Errorf("Unescape(Escape(%q)) = %q", input, got)
			}
		})
	}
}

func TestEscapeTable(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{`&`, `\&`},
		{`%`, `\%`},
		{`$`, `\$`},
		{`#`, `\#`},
		{`_`, `\_`},
		{`{`, `\{`},
		{`}`, `\}`},
		{`~`, `\textasciitilde{}`},
		{`^`, `\textasciicircum{}`},
		{`\`, `\textbackslash{}`},
	}

	for _, tt := range tests {
		if got := Escape(tt.in); got != tt.want {
			t.Errorf("Escape(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestEscapeDoesNotReescapeOutput(t *testing.T) {
	// The replacement for ~ contains both \ and {}; a naive sequential
	// replace would corrupt it.
	if got := Escape("~"); got != `\textasciitilde{}` {
		t.Fatalf("Escape(~) = %q", got)
	}
	if got := Unescape(Escape("~\\~")); got != "~\\~" {
		t.Fatalf("round trip of mixed specials = %q", got)
	}
}
