package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRuleKeyIgnoresNonDedupFields(t *testing.T) {
	base := Rule{
		MatchPattern:     "foo",
		EffectiveCommand: "git",
		EffectiveLocale:  "en",
		StdoutStderrOnly: StreamBoth,
	}
	withDifferentID := base
	withDifferentID.ID = "some-other-uuid"
	withDifferentID.UniqueID = "another-unique-id"
	withDifferentID.FileID = "another-file-id"
	withDifferentID.SubstitutePattern = "different replacement"
	withDifferentID.ForegroundOnly = true
	withDifferentID.EndMatchHere = true

	assert.Equal(t, base.Key(), withDifferentID.Key(), "dedup key must ignore identity, substitution, and flag fields")
}

func TestRuleKeyDistinguishesDedupFields(t *testing.T) {
	base := Rule{MatchPattern: "foo", EffectiveCommand: "git"}

	variants := []Rule{
		{MatchPattern: "bar", EffectiveCommand: "git"},
		{MatchPattern: "foo", EffectiveCommand: "npm"},
		{MatchPattern: "foo", EffectiveCommand: "git", CommandIsRegex: true},
		{MatchPattern: "foo", EffectiveCommand: "git", EffectiveLocale: "fr"},
		{MatchPattern: "foo", EffectiveCommand: "git", StdoutStderrOnly: StreamStderr},
		{MatchPattern: "foo", EffectiveCommand: "git", IsRegex: true},
	}

	for _, v := range variants {
		assert.NotEqual(t, base.Key(), v.Key())
	}
}
