package strutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitWhitespace(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{"single space", "a b c", []string{"a", "b", "c"}},
		{"multiple spaces", "a   b", []string{"a", "b"}},
		{"leading and trailing", "  a b  ", []string{"a", "b"}},
		{"tabs and newlines", "a\tb\nc", []string{"a", "b", "c"}},
		{"empty", "", nil},
		{"all whitespace", "   \t  ", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SplitWhitespace(tt.input))
		})
	}
}

func TestStrip(t *testing.T) {
	assert.Equal(t, "a b", Strip("  a b\t\n"))
	assert.Equal(t, "", Strip("   "))
	assert.Equal(t, "x", Strip("x"))
}

func TestExtractContent(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		n        int
		expected string
		ok       bool
	}{
		{"skip one field", "option foo bar baz", 1, "foo bar baz", true},
		{"skip two fields", "var name the rest here", 2, "the rest here", true},
		{"skip all fields leaves empty", "a b", 2, "", true},
		{"too few fields", "a", 2, "", false},
		{"zero skip returns whole line", "a b c", 0, "a b c", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractContent(tt.line, tt.n)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.expected, got)
			}
		})
	}
}

func TestMakePrintable(t *testing.T) {
	assert.Equal(t, "abc", MakePrintable("abc"))
	assert.Equal(t, "a<0x01>b", MakePrintable("a\x01b"))
	assert.Equal(t, "tab\tnewline\n", MakePrintable("tab\tnewline\n"))
}

func TestCodepointToUTF8(t *testing.T) {
	s, ok := CodepointToUTF8('A')
	assert.True(t, ok)
	assert.Equal(t, "A", s)

	s, ok = CodepointToUTF8(0x1F600)
	assert.True(t, ok)
	assert.Equal(t, "😀", s)

	_, ok = CodepointToUTF8(0xD800)
	assert.False(t, ok, "surrogate codepoints are not valid")

	_, ok = CodepointToUTF8(0x110000)
	assert.False(t, ok, "out of range codepoint")
}

func TestRegexEscape(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"plain", "plain"},
		{"a.b", `a\.b`},
		{"a b", `a\ b`},
		{"[x]", `\[x\]`},
		{"price: $5", `price:\ \$5`},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, RegexEscape(tt.input))
		})
	}
}
