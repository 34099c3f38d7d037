package store

import (
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clitheme/clitheme/internal/ir"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rules.db")
	s, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func baseRule(pattern, substitute string) ir.Rule {
	return ir.Rule{
		ID:                uuid.New().String(),
		MatchPattern:      pattern,
		SubstitutePattern: substitute,
		UniqueID:          uuid.New().String(),
		FileID:            uuid.New().String(),
	}
}

func TestOpen_FreshDatabaseInitializesSchemaWithoutMismatch(t *testing.T) {
	s := openTestStore(t)
	assert.False(t, s.VersionMismatch)
}

func TestAddSubstEntry_InsertsOneRowPerEffectiveCommand(t *testing.T) {
	s := openTestStore(t)
	r := baseRule("error", "ERROR")

	inserted, err := s.AddSubstEntry(r, []string{"git", "npm"})
	require.NoError(t, err)
	require.Len(t, inserted, 2)
	assert.Equal(t, "git", inserted[0].EffectiveCommand)
	assert.Equal(t, "npm", inserted[1].EffectiveCommand)
}

func TestAddSubstEntry_NoCommandsInsertsOneNullEntry(t *testing.T) {
	s := openTestStore(t)
	r := baseRule("error", "ERROR")

	inserted, err := s.AddSubstEntry(r, nil)
	require.NoError(t, err)
	require.Len(t, inserted, 1)
	assert.Equal(t, "", inserted[0].EffectiveCommand)
}

func TestAddSubstEntry_BadMatchPatternRejected(t *testing.T) {
	s := openTestStore(t)
	r := baseRule("(unclosed", "x")
	r.IsRegex = true

	_, err := s.AddSubstEntry(r, nil)
	var badPattern *BadPatternError
	assert.ErrorAs(t, err, &badPattern)
}

func TestAddSubstEntry_DedupKeyCollisionOverwrites(t *testing.T) {
	s := openTestStore(t)
	r := baseRule("error", "first")

	_, err := s.AddSubstEntry(r, []string{"git"})
	require.NoError(t, err)

	r2 := baseRule("error", "second")
	_, err = s.AddSubstEntry(r2, []string{"git"})
	require.NoError(t, err)

	rows, err := s.FetchSubstrules("git status", nil)
	require.NoError(t, err)
	require.Len(t, rows, 1, "inserting a rule with a matching dedup key must replace, not duplicate")
	assert.Equal(t, "second", rows[0].SubstitutePattern)
}

func TestFetchSubstrules_LocaleFallbackPrefersExactThenDefault(t *testing.T) {
	s := openTestStore(t)

	id := uuid.New().String()
	fileID := uuid.New().String()
	withLocale := ir.Rule{ID: uuid.New().String(), MatchPattern: "hi", SubstitutePattern: "bonjour", EffectiveLocale: "fr", UniqueID: id, FileID: fileID}
	withDefault := ir.Rule{ID: uuid.New().String(), MatchPattern: "hi", SubstitutePattern: "hello", UniqueID: id, FileID: fileID}

	_, err := s.AddSubstEntry(withLocale, nil)
	require.NoError(t, err)
	_, err = s.AddSubstEntry(withDefault, nil)
	require.NoError(t, err)

	rows, err := s.FetchSubstrules("", []string{"fr"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "bonjour", rows[0].SubstitutePattern, "an available locale candidate wins over the default row")

	rows, err = s.FetchSubstrules("", []string{"de"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "hello", rows[0].SubstitutePattern, "no matching locale candidate falls back to the default row")
}

func TestFetchSubstrules_CommandFilterAppliedWhenBothSidesSet(t *testing.T) {
	s := openTestStore(t)
	r := baseRule("error", "ERROR")

	_, err := s.AddSubstEntry(r, []string{"git status"})
	require.NoError(t, err)

	rows, err := s.FetchSubstrules("git status -s", nil)
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	rows, err = s.FetchSubstrules("npm install", nil)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestFetchSubstrules_EmptyCommandSkipsFilter(t *testing.T) {
	s := openTestStore(t)
	r := baseRule("error", "ERROR")

	_, err := s.AddSubstEntry(r, []string{"git status"})
	require.NoError(t, err)

	rows, err := s.FetchSubstrules("", nil)
	require.NoError(t, err)
	assert.Len(t, rows, 1, "an empty live command means the caller isn't filtering by command at all")
}
