package generator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clitheme/clitheme/internal/ir"
)

func TestBetaRequirementSatisfied_ReleasedEngineAlwaysSatisfies(t *testing.T) {
	assert.True(t, betaRequirementSatisfied(0, 1))
	assert.True(t, betaRequirementSatisfied(0, 99))
}

func TestBetaRequirementSatisfied_BetaEngineMustReachRequired(t *testing.T) {
	assert.False(t, betaRequirementSatisfied(1, 2), "a beta engine older than the required beta must not satisfy it")
	assert.True(t, betaRequirementSatisfied(2, 2), "an engine at exactly the required beta satisfies it")
	assert.True(t, betaRequirementSatisfied(3, 2), "an engine newer than the required beta satisfies it")
}

func TestCheckRequireVersion_NoDirectiveIsAccepted(t *testing.T) {
	g := New([]string{"{header}"})
	require.True(t, g.GotoNextLine())
	assert.NoError(t, g.CheckRequireVersion())
}

func TestCheckRequireVersion_OlderRequiredVersionIsAlwaysCompatible(t *testing.T) {
	g := New([]string{"!require_version 0.1"})
	require.True(t, g.GotoNextLine())
	assert.NoError(t, g.CheckRequireVersion())
}

func TestCheckRequireVersion_NewerRequiredVersionFails(t *testing.T) {
	g := New([]string{"!require_version 99.0"})
	require.True(t, g.GotoNextLine())
	assert.Error(t, g.CheckRequireVersion())
}

func TestCheckRequireVersion_MatchingVersionNoBetaSucceeds(t *testing.T) {
	g := New([]string{"!require_version 1.0"})
	require.True(t, g.GotoNextLine())
	assert.NoError(t, g.CheckRequireVersion())
}

func TestCheckRequireVersion_BetaRequirementAgainstReleasedEngineAlwaysSucceeds(t *testing.T) {
	// ir.EngineVersion is a released (non-beta) build, so any -betaN
	// requirement at the matching major.minor is satisfied.
	require.Equal(t, "1.0", ir.EngineVersion, "test assumes the released engine version")
	g := New([]string{"!require_version 1.0-beta5"})
	require.True(t, g.GotoNextLine())
	assert.NoError(t, g.CheckRequireVersion())
}
