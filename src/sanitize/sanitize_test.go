package sanitize

import "testing"

func TestStripANSI(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain text", "hello world", "hello world"},
		{"color codes", "\x1b[31mred\x1b[0m text", "red text"},
		{"bold and color", "\x1b[1;32mgreen bold\x1b[0m", "green bold"},
		{"clear screen", "\x1b[2Jgone", "gone"},
		{"cursor move", "a\x1b[10;5Hb", "ab"},
		{"osc title", "\x1b]0;pwned\x07title", "title"},
		{"apc marker", "\x1b_bk;t=1234567890\x07log line", "log line"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripANSI(tt.input); got != tt.want {
				t.Errorf("StripANSI(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestForTerminal(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"newlines flattened", "line one\nline two", "line one line two"},
		{"tabs and CR", "a\tb\r\nc", "a b  c"},
		{"bell and backspace dropped", "ding\x07\x08!", "ding!"},
		{"escape then control", "\x1b[31m<b>\x00</b>", "<b></b>"},
		{"unicode kept", "café ⚽", "café ⚽"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ForTerminal(tt.input); got != tt.want {
				t.Errorf("ForTerminal(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
