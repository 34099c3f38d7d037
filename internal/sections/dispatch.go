// Package sections implements the top-level theme-file section
// handlers ({header}, {entries}, {substrules}, {manpages}) that sit on
// top of internal/generator's shared parsing primitives, per spec
// §4.8.
package sections

import (
	"fmt"
	"strings"

	"github.com/clitheme/clitheme/internal/generator"
	"github.com/clitheme/clitheme/internal/ir"
	"github.com/clitheme/clitheme/internal/strutil"
)

// Result accumulates everything a compile pass produced, ready for the
// CLI to write to disk and to the rule store.
type Result struct {
	Info  ir.ThemeInfo
	Rules []generator.CompiledSubstEntry
}

// closeTokens maps the modern "{x}" spelling to both accepted
// close-token spellings: the modern "{/x}" and the legacy "end_x".
func closeTokens(open string) []string {
	name := strings.TrimSuffix(strings.TrimPrefix(open, "{"), "}")
	return []string{"{/" + name + "}", "end_" + name}
}

func isLegacyOpen(token string) (name string, ok bool) {
	if strings.HasPrefix(token, "begin_") {
		return strings.TrimPrefix(token, "begin_"), true
	}
	return "", false
}

func isModernOpen(token string) (name string, ok bool) {
	if strings.HasPrefix(token, "{") && strings.HasSuffix(token, "}") && !strings.HasPrefix(token, "{/") {
		return token[1 : len(token)-1], true
	}
	return "", false
}

// Compile runs a full compile pass over lines (theme root is sourceDir,
// used to resolve manpages' include_file paths), returning the
// collected theme metadata and substrules, plus any filesystem entries
// already written to outBase.
func Compile(lines []string, sourceDir, outBase, infoBase string) (*Result, *generator.Generator, error) {
	g := generator.New(lines)
	res := &Result{}

	seenSections := map[string]bool{}

	if g.GotoNextLine() {
		if err := g.CheckRequireVersion(); err != nil {
			return nil, g, err
		}
		// CheckRequireVersion consumes its line only logically; if it
		// was a !require_version directive we must still advance past
		// it before the dispatch loop below re-reads the cursor.
		if strings.HasPrefix(strutil.Strip(g.Current()), "!require_version") {
			if !g.GotoNextLine() {
				return res, g, nil
			}
		}
	} else {
		return res, g, nil
	}

	for {
		line := strutil.Strip(g.Current())
		fields := strutil.SplitWhitespace(line)
		if len(fields) == 0 {
			if !g.GotoNextLine() {
				break
			}
			continue
		}
		token := fields[0]

		var name string
		var ok bool
		if name, ok = isModernOpen(token); !ok {
			name, ok = isLegacyOpen(token)
		}
		if !ok {
			return nil, g, g.Fail("unexpected top-level statement %q", token)
		}
		if seenSections[name] {
			return nil, g, g.Fail("duplicate section %q", name)
		}
		seenSections[name] = true
		g.ResetSection()
		g.CurrentSection = name

		var err error
		switch name {
		case "header":
			err = handleHeader(g, res)
		case "entries":
			err = handleEntries(g, outBase)
		case "substrules":
			err = handleSubstrules(g, res)
		case "manpages":
			err = handleManpages(g, sourceDir, outBase, infoBase)
		default:
			err = fmt.Errorf("%s", g.Fail("unknown section %q", name).Error())
		}
		if err != nil {
			return nil, g, err
		}

		if g.AtEOF() {
			break
		}
		if !g.GotoNextLine() {
			break
		}
	}

	return res, g, nil
}

// consumeUntilClose advances the cursor line by line, invoking body for
// every non-close line, until a line whose first field is one of
// open's close tokens is found. A non-nil error from body stops the
// walk and is returned. Blank and comment lines never reach body; they
// are already filtered by GotoNextLine.
func consumeUntilClose(g *generator.Generator, open string, body func(line string) error) error {
	closes := closeTokens(open)
	for g.GotoNextLine() {
		stripped := strutil.Strip(g.Current())
		fields := strutil.SplitWhitespace(stripped)
		if len(fields) > 0 {
			for _, c := range closes {
				if fields[0] == c {
					return nil
				}
			}
		}
		if err := body(stripped); err != nil {
			return err
		}
	}
	return g.Fail("unterminated section %q", open)
}

// writeSubstRule turns one (NameSpec, ContentSpec) pair from the entry
// assembler into a ready-to-insert substrule, given the section's
// command scope and the end-phrase flags. uniqueID is shared across
// every locale/command variant of the same source entry (spec.md:53).
func writeSubstRule(g *generator.Generator, ns generator.NameSpec, cs generator.ContentSpec, flags generator.EntryFlags, command string, commandIsRegex bool, uniqueID string) generator.CompiledSubstEntry {
	r := ir.Rule{
		ID:                     newRuleID(),
		MatchPattern:           ns.Pattern,
		MatchIsMultiline:       ns.MatchIsMultiline,
		SubstitutePattern:      cs.Text,
		IsRegex:                ns.IsRegex,
		EffectiveLocale:        cs.Locale,
		EffectiveCommand:       command,
		CommandMatchStrictness: ir.CommandStrictness(g.CommandStrictnessOption()),
		CommandIsRegex:         commandIsRegex,
		ForegroundOnly:         flags.ForegroundOnly,
		EndMatchHere:           flags.EndMatchHere,
		StdoutStderrOnly:       flags.StdoutStderrOnly,
		UniqueID:               uniqueID,
		FileID:                 g.FileID,
	}
	return generator.CompiledSubstEntry{Rule: r, EffectiveCommands: []string{command}}
}
