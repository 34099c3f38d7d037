package sanity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheck_RejectsEmpty(t *testing.T) {
	c := New()
	assert.False(t, c.Check("   "))
	assert.NotEmpty(t, c.ErrorMessage())
}

func TestCheck_RejectsLeadingDot(t *testing.T) {
	c := New()
	assert.False(t, c.Check("../escape"))
	assert.False(t, c.Check(".hidden"))
}

func TestCheck_RejectsBannedChars(t *testing.T) {
	c := New()
	for _, bad := range []string{"a/b", `a\b`, "a:b", "a*b", "a?b", "a<b", "a>b", `a"b`, "a|b"} {
		assert.False(t, c.Check(bad), "%q should be rejected", bad)
	}
}

func TestCheck_AcceptsPlainMultiWordName(t *testing.T) {
	c := New()
	assert.True(t, c.Check("git status prompt"))
	assert.Empty(t, c.ErrorMessage())
}

func TestCheck_EachWhitespacePartCheckedIndependently(t *testing.T) {
	c := New()
	assert.False(t, c.Check("fine .bad"), "a single offending part must fail the whole check")
}

func TestSanitize_ReplacesOnlyBannedChars(t *testing.T) {
	assert.Equal(t, "a_b_c", Sanitize("a/b:c"))
	assert.Equal(t, ".hidden", Sanitize(".hidden"), "a leading dot is untouched by Sanitize")
}
