package locale

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func env(values map[string]string) Env {
	return func(key string) string { return values[key] }
}

func TestResolve_LanguageColonListTakesPriority(t *testing.T) {
	got := Resolve(env(map[string]string{
		"LANGUAGE": "fr:de",
		"LC_ALL":   "ja_JP.UTF-8",
		"LANG":     "ja_JP.UTF-8",
	}))
	assert.Equal(t, []string{"fr", "de"}, got)
}

func TestResolve_CishLcAllAndLangIgnoresLanguageVar(t *testing.T) {
	got := Resolve(env(map[string]string{
		"LANGUAGE": "fr",
		"LC_ALL":   "C",
		"LANG":     "C",
	}))
	assert.Empty(t, got, "when both LC_ALL and LANG are C-ish, LANGUAGE is ignored per spec")
}

func TestResolve_FallsBackToLcAllThenLang(t *testing.T) {
	got := Resolve(env(map[string]string{"LC_ALL": "de_DE.UTF-8"}))
	assert.Equal(t, []string{"de_DE.UTF-8", "de_DE"}, got, "encoded and stripped forms both appear")

	got = Resolve(env(map[string]string{"LANG": "ja_JP.UTF-8"}))
	assert.Equal(t, []string{"ja_JP.UTF-8", "ja_JP"}, got)
}

func TestResolve_SkipsEnglishDefaults(t *testing.T) {
	got := Resolve(env(map[string]string{"LANGUAGE": "en:en_US:pt", "LANG": "ja_JP.UTF-8"}))
	assert.Equal(t, []string{"pt"}, got)
}

func TestResolve_DeduplicatesCandidates(t *testing.T) {
	got := Resolve(env(map[string]string{"LANGUAGE": "fr:fr", "LANG": "ja_JP.UTF-8"}))
	assert.Equal(t, []string{"fr"}, got)
}

func TestResolve_EmptyEnvironmentYieldsNoCandidates(t *testing.T) {
	got := Resolve(env(map[string]string{}))
	assert.Empty(t, got)
}

func TestResolve_RejectsUnsafeCandidate(t *testing.T) {
	got := Resolve(env(map[string]string{"LANGUAGE": "../escape", "LANG": "ja_JP.UTF-8"}))
	assert.Empty(t, got, "a candidate that fails the path-sanity check must be dropped")
}
