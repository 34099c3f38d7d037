package generator

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/clitheme/clitheme/internal/strutil"
)

// VariableScopes holds the file-level and section-level variable
// maps; there is no inline variable scope (variables are assigned by
// statement, not by trailing option).
type VariableScopes struct {
	File    map[string]string
	Section map[string]string
}

func newVariableScopes() *VariableScopes {
	return &VariableScopes{File: map[string]string{}, Section: map[string]string{}}
}

var bannedVarChars = "{}[]()"

// SetVar defines each of names to value. Setting in file-level scope
// also sets section scope, matching spec §4.7.
func (g *Generator) SetVar(names []string, value string, fileLevel bool) error {
	for _, n := range names {
		if n == "ESC" {
			return g.Fail("variable name %q is reserved", n)
		}
		if strings.ContainsAny(n, bannedVarChars) {
			return g.Fail("variable name %q contains a reserved character", n)
		}
	}
	for _, n := range names {
		g.variables.Section[n] = value
		if fileLevel {
			g.variables.File[n] = value
		}
	}
	return nil
}

// ResetSectionVars clears section-level variables when a new
// top-level section opens.
func (g *Generator) ResetSectionVars() {
	g.variables.Section = map[string]string{}
	for k, v := range g.variables.File {
		g.variables.Section[k] = v
	}
}

func (g *Generator) lookupVar(name string) (string, bool) {
	v, ok := g.variables.Section[name]
	return v, ok
}

var (
	varRe  = regexp.MustCompile(`\{\{([A-Za-z0-9_]+)\}\}`)
	escRe  = regexp.MustCompile(`\{\{ESC\}\}`)
	charRe = regexp.MustCompile(`\{\{\[([xuU])([0-9A-Fa-f]*)\]\}\}`)
)

// substituteVars replaces every {{name}} with the variable's value.
// Missing variables emit one warning per name (per re-parse, via the
// generator's dedup) and are left literal.
func (g *Generator) substituteVars(s string) string {
	return varRe.ReplaceAllStringFunc(s, func(match string) string {
		name := varRe.FindStringSubmatch(match)[1]
		if name == "ESC" {
			return match // handled by substituteEsc
		}
		if v, ok := g.lookupVar(name); ok {
			return v
		}
		g.Warn("undefined variable %q", name)
		return match
	})
}

// substituteEsc replaces {{ESC}} with the ESC control character.
func (g *Generator) substituteEsc(s string) string {
	return escRe.ReplaceAllString(s, "\x1b")
}

// substituteChar replaces {{[xHH]}}, {{[uHHHH]}}, {{[UHHHHHHHH]}} with
// the UTF-8 encoding of the given codepoint. Patterns that don't match
// the fixed width for their kind are left literal with a warning.
//
// charRe requires the digits to already be valid hex to match at all,
// so a malformed-but-correct-width escape like {{[xZZ]}} never reaches
// this func and falls through as literal text with no warning at all,
// unlike the original's width-only match followed by an explicit
// "Invalid character code" warning on a failed hex parse.
func (g *Generator) substituteChar(s string) string {
	return charRe.ReplaceAllStringFunc(s, func(match string) string {
		m := charRe.FindStringSubmatch(match)
		kind, digits := m[1], m[2]
		want := map[string]int{"x": 2, "u": 4, "U": 8}[kind]
		if len(digits) != want {
			g.Warn("malformed character escape %q", match)
			return match
		}
		n, err := strconv.ParseInt(digits, 16, 64)
		if err != nil {
			g.Warn("malformed character escape %q", match)
			return match
		}
		encoded, ok := strutil.CodepointToUTF8(rune(n))
		if !ok {
			g.Warn("codepoint out of range in %q", match)
			return match
		}
		return encoded
	})
}

// ParseContent runs the content parsing pipeline: linebounds-extract,
// then var/esc/char substitution in that order (each gated by its own
// option), then strip unless preserve_indents.
func (g *Generator) ParseContent(line string, preserveIndents bool) (string, error) {
	content := line
	if g.Bool("linebounds") {
		extracted, opts, err := g.extractLineBounds(line)
		if err != nil {
			return "", err
		}
		if opts != nil {
			g.ApplyInline(opts)
		}
		content = extracted
	}

	if g.Bool("substvar") {
		content = g.substituteVars(content)
	} else if varRe.MatchString(content) {
		g.Warn("{{name}} substitution used without substvar")
	}

	if g.Bool("substesc") {
		content = g.substituteEsc(content)
	} else if escRe.MatchString(content) {
		g.Warn("{{ESC}} substitution used without substesc")
	}

	if g.Bool("substchar") {
		content = g.substituteChar(content)
	} else if charRe.MatchString(content) {
		g.Warn("character substitution used without substchar")
	}

	if !preserveIndents {
		content = strutil.Strip(content)
	}
	return content, nil
}

var lineBoundsRe = regexp.MustCompile(`^\|(.*)\|(?:\s+(.*))?$`)

// extractLineBounds implements the |text|[ options] line-bounds form.
// When linebounds is on and the line doesn't match the pattern, it is
// a fatal syntax error, per spec §4.7.
func (g *Generator) extractLineBounds(line string) (string, *Options, error) {
	m := lineBoundsRe.FindStringSubmatch(strutil.Strip(line))
	if m == nil {
		return "", nil, g.Fail("malformed line-bounds content %q", line)
	}
	text := m[1]
	var opts *Options
	if trailing := strutil.Strip(m[2]); trailing != "" {
		words := strutil.SplitWhitespace(trailing)
		parsed, err := g.ParseOptions(words, MergeNone, nil, nil)
		if err != nil {
			return "", nil, err
		}
		opts = parsed
	}
	return text, opts, nil
}
