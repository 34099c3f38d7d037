package sections

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func compileSource(t *testing.T, source string) (*Result, string, string) {
	t.Helper()
	root := t.TempDir()
	dataDir := filepath.Join(root, "theme-data")
	infoDir := filepath.Join(root, "theme-info", "default")
	res, _, err := Compile(strings.Split(source, "\n"), root, dataDir, infoDir)
	require.NoError(t, err)
	return res, dataDir, infoDir
}

// TestCompile_ConcreteScenarioOne mirrors the spec's own worked example:
// a minimal header plus one entries block with a default-locale
// content line.
func TestCompile_ConcreteScenarioOne(t *testing.T) {
	source := "!require_version 1.0\n" +
		"{header}\n" +
		"name a\n" +
		"{/header}\n" +
		"{entries}\n" +
		"[entry]\n" +
		"<name> x\n" +
		"default: y\n" +
		"[/entry]\n" +
		"{/entries}\n"

	res, dataDir, _ := compileSource(t, source)
	assert.Equal(t, "a", res.Info.Name)

	content, err := os.ReadFile(filepath.Join(dataDir, "x"))
	require.NoError(t, err)
	assert.Equal(t, "y\n", string(content))
}

func TestCompile_EntriesWithDomainAppAndSubsectionScoping(t *testing.T) {
	source := "{entries}\n" +
		"in_domainapp sys shell\n" +
		"in_subsection prompt\n" +
		"[entry]\n" +
		"<name> greeting\n" +
		"default: hello\n" +
		"[/entry]\n" +
		"unset_subsection\n" +
		"[entry]\n" +
		"<name> farewell\n" +
		"default: bye\n" +
		"[/entry]\n" +
		"{/entries}\n"

	_, dataDir, _ := compileSource(t, source)

	greeting, err := os.ReadFile(filepath.Join(dataDir, "sys", "shell", "prompt", "greeting"))
	require.NoError(t, err)
	assert.Equal(t, "hello\n", string(greeting))

	farewell, err := os.ReadFile(filepath.Join(dataDir, "sys", "shell", "farewell"))
	require.NoError(t, err)
	assert.Equal(t, "bye\n", string(farewell))
}

func TestCompile_SubstrulesWithCommandFilterAndMultipleLocales(t *testing.T) {
	source := "{substrules}\n" +
		"filter_command git status\n" +
		"[subst_string]\n" +
		"<subst_string> error\n" +
		"locale[en fr]: ERROR\n" +
		"[/subst_string]\n" +
		"{/substrules}\n"

	res, _, _ := compileSource(t, source)
	require.Len(t, res.Rules, 2)
	for _, entry := range res.Rules {
		assert.Equal(t, "git status", entry.Rule.EffectiveCommand)
		assert.False(t, entry.Rule.IsRegex)
		assert.Equal(t, "ERROR", entry.Rule.SubstitutePattern)
		assert.NotEmpty(t, entry.Rule.EffectiveLocale)
	}
}

func TestCompile_SubstrulesRegexWithEndMatchHere(t *testing.T) {
	source := "{substrules}\n" +
		"[subst_regex]\n" +
		"<subst_regex> (\\d+)\n" +
		"default: N\n" +
		"[/subst_regex] endmatchhere\n" +
		"{/substrules}\n"

	res, _, _ := compileSource(t, source)
	require.Len(t, res.Rules, 1)
	assert.True(t, res.Rules[0].Rule.IsRegex)
	assert.True(t, res.Rules[0].Rule.EndMatchHere)
}

func TestCompile_DuplicateSectionFails(t *testing.T) {
	source := "{header}\nname a\n{/header}\n{header}\nname b\n{/header}\n"
	_, _, err := Compile(strings.Split(source, "\n"), t.TempDir(), t.TempDir(), t.TempDir())
	require.Error(t, err)
}

func TestCompile_ManpagesIncludeFileWritesSidecar(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "mytool.1"), []byte("MYTOOL(1) manual"), 0o644))

	source := "{manpages}\n" +
		"include_file mytool.1 as mytool\n" +
		"{/manpages}\n"

	dataDir := filepath.Join(root, "out", "theme-data")
	infoDir := filepath.Join(root, "out", "theme-info", "default")
	_, _, err := Compile(strings.Split(source, "\n"), root, dataDir, infoDir)
	require.NoError(t, err)

	installed, err := os.ReadFile(filepath.Join(dataDir, "manpages", "mytool"))
	require.NoError(t, err)
	assert.Equal(t, "MYTOOL(1) manual", string(installed))

	_, err = os.Stat(filepath.Join(dataDir, "manpages", "mytool.gz"))
	assert.NoError(t, err, "include_file must also write a gzip sibling")

	sidecar, err := os.ReadFile(filepath.Join(infoDir, "manpage_data", "mytool"))
	require.NoError(t, err)
	assert.Equal(t, "mytool.1\n", string(sidecar))
}
