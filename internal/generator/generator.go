// Package generator implements the theme-source parser core: the line
// cursor, the version gate, the three-scope option model, the
// variable store and content substitution, block-input collection, and
// the shared entry assembler used by both the {entries} and
// {substrules} sections (spec §4.7).
package generator

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/clitheme/clitheme/internal/ir"
	"github.com/clitheme/clitheme/internal/strutil"
)

// Generator holds all per-compile-pass state: the line cursor, the
// current section, the three option scopes, the variable store, the
// re-parse warning dedup set, and {entries}-section transient state.
type Generator struct {
	Lines   []string
	LineNum int // 1-based index of the current line

	FileID string // stable across this whole compile pass

	CurrentSection string

	options   *OptionScopes
	variables *VariableScopes

	warnSeen map[string]bool

	versionChecked bool

	Errors   []error
	Warnings []*Warning

	// Rules accumulates substrules produced while walking the file;
	// Entries accumulates filesystem entries. Both are filled by the
	// section handlers via the Generator's assembler methods.
	Rules   []CompiledSubstEntry
	Entries []CompiledEntry
}

// CompiledSubstEntry is one name/content/locale combination produced
// by the entry assembler in substrules mode, ready for
// store.AddSubstEntry.
type CompiledSubstEntry struct {
	Rule              ir.Rule
	EffectiveCommands []string
}

// CompiledEntry is one name/content/locale combination produced by the
// entry assembler in entries mode, ready for themefs.AddEntry.
type CompiledEntry struct {
	Name    string
	Content string
	Locale  string // "" for default
}

// New creates a Generator over the given source lines (already split
// on "\n", CR stripped by the caller).
func New(lines []string) *Generator {
	return &Generator{
		Lines:     lines,
		LineNum:   0,
		FileID:    uuid.New().String(),
		options:   newOptionScopes(),
		variables: newVariableScopes(),
		warnSeen:  make(map[string]bool),
	}
}

// Current returns the current line's raw text, or "" past EOF.
func (g *Generator) Current() string {
	if g.LineNum < 1 || g.LineNum > len(g.Lines) {
		return ""
	}
	return g.Lines[g.LineNum-1]
}

// AtEOF reports whether the cursor has moved past the last line.
func (g *Generator) AtEOF() bool {
	return g.LineNum > len(g.Lines)
}

// GotoNextLine advances the cursor to the next line whose stripped
// form is non-empty and does not begin with "#". It returns false at
// EOF.
func (g *Generator) GotoNextLine() bool {
	for {
		g.LineNum++
		if g.LineNum > len(g.Lines) {
			return false
		}
		s := strutil.Strip(g.Lines[g.LineNum-1])
		if s == "" || strings.HasPrefix(s, "#") {
			continue
		}
		return true
	}
}

// Peek returns the stripped text of the line at the given 1-based
// index without moving the cursor, or "" if out of range.
func (g *Generator) Peek(line int) string {
	if line < 1 || line > len(g.Lines) {
		return ""
	}
	return strutil.Strip(g.Lines[line-1])
}

// AddError records a non-fatal compile error; the pass continues.
func (g *Generator) AddError(format string, args ...any) {
	g.Errors = append(g.Errors, &CompileError{Line: g.LineNum, Message: fmt.Sprintf(format, args...)})
}

// Fail returns a fatal SyntaxError at the current line, to be thrown
// to the top-level handler by the caller.
func (g *Generator) Fail(format string, args ...any) *SyntaxError {
	return &SyntaxError{Line: g.LineNum, Message: fmt.Sprintf(format, args...)}
}

// Warn records a warning, deduplicated per (line, message) so repeated
// re-parses (look-ahead then main pass) of the same construct don't
// multiply diagnostics.
func (g *Generator) Warn(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	key := fmt.Sprintf("%d\x00%s", g.LineNum, msg)
	if g.warnSeen[key] {
		return
	}
	g.warnSeen[key] = true
	g.Warnings = append(g.Warnings, &Warning{Line: g.LineNum, Message: msg})
}

var versionLineRe = regexp.MustCompile(`^!require_version\s+(\d+)\.(\d+)(?:-beta(\d+))?\s*$`)

// CheckRequireVersion must be called on the first content line. If
// that line is a !require_version directive, it validates the engine
// version against it and consumes the line (advancing the cursor is
// the caller's job via GotoNextLine); otherwise the file is accepted
// without a version gate (legacy themes predate the directive).
func (g *Generator) CheckRequireVersion() error {
	if g.versionChecked {
		return nil
	}
	g.versionChecked = true

	line := strutil.Strip(g.Current())
	m := versionLineRe.FindStringSubmatch(line)
	if m == nil {
		return nil
	}

	major, _ := strconv.Atoi(m[1])
	minor, _ := strconv.Atoi(m[2])
	engMajor, engMinor, engBeta := parseEngineVersion(ir.EngineVersion)

	if major != engMajor || minor != engMinor {
		if major > engMajor || (major == engMajor && minor > engMinor) {
			return g.Fail("theme requires engine version %d.%d, this engine is %s", major, minor, ir.EngineVersion)
		}
		return nil // theme requires an older version; always compatible
	}

	if m[3] != "" {
		required, _ := strconv.Atoi(m[3])
		if !betaRequirementSatisfied(engBeta, required) {
			return g.Fail("theme requires engine beta %d or newer, this engine is beta %d (%s)", required, engBeta, ir.EngineVersion)
		}
		return nil
	}

	if engBeta != 0 {
		return g.Fail("theme requires a non-beta engine, this engine is a beta build (%s)", ir.EngineVersion)
	}
	return nil
}

// betaRequirementSatisfied reports whether an engine whose beta number
// is engBeta (0 meaning a released, non-beta build) satisfies a
// theme's "-betaN" requirement: a released build always satisfies any
// beta requirement, and a beta build satisfies it only once its own
// beta number has reached required (spec.md:105's "accept equal-version
// with a beta release no greater than the current").
func betaRequirementSatisfied(engBeta, required int) bool {
	return engBeta == 0 || engBeta >= required
}

// parseEngineVersion splits "X.Y" or "X.Y-betaN" into its parts.
func parseEngineVersion(v string) (major, minor, beta int) {
	base := v
	if idx := strings.Index(v, "-beta"); idx >= 0 {
		base = v[:idx]
		beta, _ = strconv.Atoi(v[idx+5:])
	}
	parts := strings.SplitN(base, ".", 2)
	if len(parts) == 2 {
		major, _ = strconv.Atoi(parts[0])
		minor, _ = strconv.Atoi(parts[1])
	}
	return
}
