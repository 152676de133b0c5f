package render

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"subject-feed/src/contracts"
)

func msg(username, content string) contracts.PublishedMessage {
	return contracts.PublishedMessage{
		ID:        "m-1",
		UserID:    "u-1",
		Username:  username,
		Content:   content,
		Timestamp: "2024-03-01T09:30:00.000Z",
	}
}

func TestFragmentFormat(t *testing.T) {
	got := Fragment(msg("alice", "Great game yesterday!"))
	assert.Equal(t, "<li>[2024-03-01T09:30:00.000Z] <b>alice</b>: Great game yesterday!</li>", got)
}

func TestFragmentEscapesMarkup(t *testing.T) {
	got := Fragment(msg("A & B", `<img src=x onerror='a'>`))

	assert.Contains(t, got, "&lt;img")
	assert.Contains(t, got, "&#39;a&#39;")
	assert.Contains(t, got, "A &amp; B")
	assert.Contains(t, got, "&gt;</li>")

	// Strip the fixed markup; nothing raw may remain in the user-supplied parts.
	inner := strings.TrimPrefix(got, "<li>[2024-03-01T09:30:00.000Z] <b>")
	inner = strings.TrimSuffix(inner, "</li>")
	inner = strings.Replace(inner, "</b>: ", "", 1)
	for _, raw := range []string{"<", ">", `"`, "'"} {
		assert.NotContains(t, inner, raw)
	}
	withoutEntities := strings.NewReplacer("&amp;", "", "&lt;", "", "&gt;", "", "&quot;", "", "&#39;", "").Replace(inner)
	assert.NotContains(t, withoutEntities, "&", "every ampersand must belong to an entity")
}

func TestEscapeHTML(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain", "plain"},
		{"&", "&amp;"},
		{"&lt;", "&amp;lt;"},
		{`"quoted"`, "&quot;quoted&quot;"},
		{"it's", "it&#39;s"},
		{"<a href=\"x\">", "&lt;a href=&quot;x&quot;&gt;"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, EscapeHTML(tt.in))
		})
	}
}

func TestFragmentDeterministic(t *testing.T) {
	m := msg("bob", "same & same")
	assert.Equal(t, Fragment(m), Fragment(m))
}

func TestPlainText(t *testing.T) {
	got := PlainText(msg("carol", "first line\nsecond \x1b[31mred\x1b[0m"))
	assert.Equal(t, "[2024-03-01T09:30:00.000Z] carol: first line second red", got)
}

func TestFuncSignatures(t *testing.T) {
	var fns = []Func{Fragment, PlainText}
	for _, fn := range fns {
		assert.NotEmpty(t, fn(msg("x", "y")))
	}
}
