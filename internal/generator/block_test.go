package generator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleBlockInput_CollectsUntilEndPhrase(t *testing.T) {
	g := New([]string{"first", "second", "end_block", "trailing"})
	lines, endLine, err := g.HandleBlockInput("end_block", false, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second"}, lines)
	assert.Equal(t, "end_block", endLine)
}

func TestHandleBlockInput_UnterminatedIsFatal(t *testing.T) {
	g := New([]string{"first", "second"})
	_, _, err := g.HandleBlockInput("end_block", false, false)
	assert.Error(t, err)
}

func TestHandleBlockInput_PreserveIndentsStripsCommonMinimum(t *testing.T) {
	g := New([]string{"    one", "      two", "end_block"})
	lines, _, err := g.HandleBlockInput("end_block", false, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "  two"}, lines)
}

func TestHandleBlockInput_EscapedEndPhraseIsKeptLiteral(t *testing.T) {
	g := New([]string{`\end_block`, "end_block"})
	lines, _, err := g.HandleBlockInput("end_block", false, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"end_block"}, lines, "a single leading backslash escapes the end phrase on that line")
}

func TestHandleBlockInput_DoubledBackslashKeepsOneLiteralBackslash(t *testing.T) {
	g := New([]string{`\\end_block`, "end_block"})
	lines, _, err := g.HandleBlockInput("end_block", false, false)
	require.NoError(t, err)
	assert.Equal(t, []string{`\end_block`}, lines)
}

func TestUnescapeEndPhrase_NonMatchingLineUntouched(t *testing.T) {
	assert.Equal(t, "plain line", unescapeEndPhrase("plain line", "end_block"))
}

// TestUnescapeEndPhrase_ThreeAndFourBackslashesKeepAllButOne locks in
// the keep=n-1 formula (one literal backslash consumed to escape the
// end phrase, the rest kept), which diverges from the wrong keep=n/2
// formula starting at n=3.
func TestUnescapeEndPhrase_ThreeAndFourBackslashesKeepAllButOne(t *testing.T) {
	assert.Equal(t, `\\end_block`, unescapeEndPhrase(`\\\end_block`, "end_block"))
	assert.Equal(t, `\\\end_block`, unescapeEndPhrase(`\\\\end_block`, "end_block"))
}

func TestLeadingWidth_TabsCountAsEightColumns(t *testing.T) {
	assert.Equal(t, 8, leadingWidth("\tx"))
	assert.Equal(t, 2, leadingWidth("  x"))
	assert.Equal(t, 10, leadingWidth("\t  x"))
}
