package tui

import (
	"strings"
	"testing"
)

func TestWrap_ShortText(t *testing.T) {
	result := Wrap("hello world", 20, "")

	if len(result) != 1 || result[0] != "hello world" {
		t.Errorf("expected ['hello world'], got %q", result)
	}
}

func TestWrap_ExactWidth(t *testing.T) {
	result := Wrap("hello world", 11, "")

	if len(result) != 1 || result[0] != "hello world" {
		t.Errorf("expected ['hello world'], got %q", result)
	}
}

func TestWrap_MultipleLines(t *testing.T) {
	width := 15
	result := Wrap("hello world this is a test", width, "")

	if len(result) < 2 {
		t.Fatalf("expected several lines, got %q", result)
	}
	for i, line := range result {
		if w := VisualWidth(line); w > width {
			t.Errorf("line %d exceeds width %d: width=%d, content='%s'", i, width, w, line)
		}
	}
	if strings.Join(result, " ") != "hello world this is a test" {
		t.Errorf("words lost or reordered: %q", result)
	}
}

func TestWrap_LongWord(t *testing.T) {
	// A pasted URL with no spaces
	text := "https://example.com/some/really/long/path/that/does/not/fit/anywhere"
	width := 20

	result := Wrap(text, width, "")

	if len(result) < 2 {
		t.Errorf("expected long word to be broken into multiple lines, got %d lines", len(result))
	}
	for i, line := range result {
		if w := VisualWidth(line); w > width {
			t.Errorf("line %d exceeds width %d: width=%d, content='%s'", i, width, w, line)
		}
	}
	if strings.Join(result, "") != text {
		t.Errorf("long word not preserved: %q", result)
	}
}

func TestWrap_Indent(t *testing.T) {
	result := Wrap("[12:00] alice: one two three four", 16, "    ")

	if len(result) < 2 {
		t.Fatalf("expected wrapping, got %q", result)
	}
	for i, line := range result[1:] {
		if !strings.HasPrefix(line, "    ") {
			t.Errorf("continuation line %d not indented: %q", i+1, line)
		}
	}
	for i, line := range result {
		if w := VisualWidth(line); w > 16 {
			t.Errorf("line %d exceeds width: %q", i, line)
		}
	}
}

func TestWrap_WideCharacters(t *testing.T) {
	width := 10
	result := Wrap("日本語のテキストです", width, "")

	for i, line := range result {
		if w := VisualWidth(line); w > width {
			t.Errorf("line %d exceeds width %d: width=%d, content='%s'", i, width, w, line)
		}
	}
}

func TestWrap_Empty(t *testing.T) {
	result := Wrap("", 10, "")
	if len(result) != 1 || result[0] != "" {
		t.Errorf("expected one empty line, got %q", result)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		max      int
		ellipsis bool
		want     string
	}{
		{"fits", "hello", 10, true, "hello"},
		{"ellipsis", "hello world", 8, true, "hello..."},
		{"hard cut", "hello world", 5, false, "hello"},
		{"zero", "hello", 0, true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Truncate(tt.input, tt.max, tt.ellipsis); got != tt.want {
				t.Errorf("Truncate(%q, %d) = %q, want %q", tt.input, tt.max, got, tt.want)
			}
		})
	}
}
