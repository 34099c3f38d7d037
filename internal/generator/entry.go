package generator

import (
	"regexp"
	"strings"

	"github.com/clitheme/clitheme/internal/ir"
	"github.com/clitheme/clitheme/internal/pcre"
	"github.com/clitheme/clitheme/internal/sanity"
	"github.com/clitheme/clitheme/internal/strutil"
)

// EntryKind selects whether HandleEntry is collecting filesystem
// entries ({entries}) or substitution rules ({substrules}); the two
// share the same assembler but differ in name validation and in how
// names are eventually persisted.
type EntryKind int

const (
	EntriesMode EntryKind = iota
	SubstrulesMode
)

// EntryFlags are the behavior-affecting options captured from the
// end-phrase line's look-ahead pass.
type EntryFlags struct {
	EndMatchHere     bool
	ForegroundOnly   bool
	StdoutStderrOnly ir.StreamScope
}

// NameSpec is one collected name: either a plain entry name or, in
// substrules mode, a (possibly multi-line) match pattern.
type NameSpec struct {
	Name             string // raw text for entries mode
	Pattern          string // compiled-or-escaped regex source for substrules mode
	IsRegex          bool
	MatchIsMultiline bool
}

// ContentSpec is one locale-scoped content item.
type ContentSpec struct {
	Locale string // "" means default
	Text   string
}

// canonical newline alternatives, tried in this order (spec §4.7).
var newlineAlternatives = []string{"\r\n", "\r", "\n", "\v", "\f", "\x1c", "\x1d", "\x1e"}

func newlineSeparator(nlMatchCurPos bool) string {
	var escaped []string
	for _, alt := range newlineAlternatives {
		escaped = append(escaped, strutil.RegexEscape(alt))
	}
	group := "(?:" + strings.Join(escaped, "|") + ")"
	if nlMatchCurPos {
		return "(?:" + group[3:len(group)-1] + `|\x1b\[\d+;\d+H)`
	}
	return group
}

// HandleEntry assembles one [entry]/[subst_string]/[subst_regex] block
// starting at the current line (already positioned on the first line
// inside the block) through its closing endPhrase line (e.g.
// "[/entry]"). mode selects name validation; literalNames, when true
// (subst_string), regex-escapes collected patterns instead of
// compiling them as regex (subst_regex).
func (g *Generator) HandleEntry(mode EntryKind, endPhrase string, literalNames bool) ([]NameSpec, []ContentSpec, EntryFlags, error) {
	startLine := g.LineNum

	flags, endLineNum, err := g.lookAheadFlags(endPhrase)
	if err != nil {
		return nil, nil, flags, err
	}

	g.LineNum = startLine // rewind to the open-phrase line so the main pass re-walks content from scratch

	var names []NameSpec
	var contents []ContentSpec
	namesLocked := false

	for g.LineNum < endLineNum {
		if !g.GotoNextLine() {
			break
		}
		if g.LineNum >= endLineNum {
			break
		}
		line := g.Current()
		stripped := strutil.Strip(line)
		fields := strutil.SplitWhitespace(stripped)
		if len(fields) == 0 {
			continue
		}

		switch {
		case fields[0] == "<name>" || fields[0] == "<subst_string>" || fields[0] == "<subst_regex>":
			if namesLocked {
				g.Warn("name line after content line is ignored")
				continue
			}
			rest, _ := strutil.ExtractContent(stripped, 1)
			ns, err := g.buildName(mode, literalNames, rest)
			if err != nil {
				return nil, nil, flags, err
			}
			names = append(names, ns)

		case fields[0] == "<name>>" || fields[0] == "<subst_string>>" || fields[0] == "<subst_regex>>":
			// The cursor is left on the <<name] close line; the entry's
			// content lines follow it, up to the block's endPhrase line.
			patternLines, _, err := g.collectMultilinePattern()
			if err != nil {
				return nil, nil, flags, err
			}
			sep := newlineSeparator(g.Bool("nlmatchcurpos"))
			var parts []string
			for _, pl := range patternLines {
				if literalNames {
					parts = append(parts, strutil.RegexEscape(pl))
				} else {
					parts = append(parts, pl)
				}
			}
			pattern := strings.Join(parts, sep)
			if !literalNames {
				if _, err := regexp.Compile(pattern); err != nil {
					return nil, nil, flags, g.Fail("invalid multi-line pattern: %s", err)
				}
			}
			names = append(names, NameSpec{Pattern: pattern, IsRegex: !literalNames, MatchIsMultiline: true})

		default:
			namesLocked = true
			specs, _, err := g.parseLocaleContent(stripped, line, mode)
			if err != nil {
				return nil, nil, flags, err
			}
			contents = append(contents, specs...)
		}
	}

	g.LineNum = endLineNum
	return names, contents, flags, nil
}

// lookAheadFlags scans forward from the current position to the line
// whose first field equals endPhrase, parses its trailing words as
// options (without committing them to any persistent scope), and
// returns the resulting flags plus that line's 1-based index. The
// cursor is left on endLineNum.
func (g *Generator) lookAheadFlags(endPhrase string) (EntryFlags, int, error) {
	var flags EntryFlags
	for g.GotoNextLine() {
		fields := strutil.SplitWhitespace(g.Current())
		if len(fields) > 0 && fields[0] == endPhrase {
			trailing := fields[1:]
			opts, err := g.ParseOptions(trailing, MergeNone, nil, nil)
			if err != nil {
				return flags, 0, err
			}
			flags.EndMatchHere = opts.Bools["endmatchhere"]
			flags.ForegroundOnly = opts.Bools["foregroundonly"]
			if opts.Bools["subststdoutonly"] {
				flags.StdoutStderrOnly = ir.StreamStdout
			} else if opts.Bools["subststderronly"] {
				flags.StdoutStderrOnly = ir.StreamStderr
			}
			return flags, g.LineNum, nil
		}
	}
	return flags, 0, g.Fail("unterminated block, expected %q", endPhrase)
}

func (g *Generator) buildName(mode EntryKind, literal bool, text string) (NameSpec, error) {
	if mode == EntriesMode {
		checker := sanity.New()
		if !checker.Check(text) {
			return NameSpec{}, g.Fail("invalid entry name %q: %s", text, checker.ErrorMessage())
		}
		return NameSpec{Name: text}, nil
	}

	if literal {
		return NameSpec{Pattern: strutil.RegexEscape(text), IsRegex: false}, nil
	}
	if _, err := pcre.Compile(text); err != nil {
		return NameSpec{}, g.Fail("invalid pattern %q: %s", text, err)
	}
	return NameSpec{Pattern: text, IsRegex: true}, nil
}

// collectMultilinePattern reads lines until one whose first field
// starts with "<<" and ends with "]" (e.g. "<<name]"), returning the
// collected pattern-text lines.
func (g *Generator) collectMultilinePattern() ([]string, int, error) {
	var lines []string
	for g.GotoNextLine() {
		stripped := strutil.Strip(g.Current())
		if strings.HasPrefix(stripped, "<<") && strings.HasSuffix(stripped, "]") {
			return lines, g.LineNum - 1, nil
		}
		lines = append(lines, g.Current())
	}
	return nil, 0, g.Fail("unterminated multi-line pattern")
}

// parseLocaleContent implements the accept-clause ordering from spec
// §4.7: modern locale[a b c]: content, then legacy "locale name
// content", "locale:name content", "default: content", and the block
// forms [locale]...[/locale] / [default]...[/default]. This ordering
// is load-bearing (see DESIGN.md) and must not be reordered.
func (g *Generator) parseLocaleContent(stripped, raw string, mode EntryKind) ([]ContentSpec, bool, error) {
	if m := modernLocaleRe.FindStringSubmatch(stripped); m != nil {
		locales := strutil.SplitWhitespace(m[1])
		text, err := g.ParseContent(m[2], false)
		if err != nil {
			return nil, false, err
		}
		var out []ContentSpec
		for _, l := range locales {
			out = append(out, ContentSpec{Locale: normalizeLocaleName(l), Text: text})
		}
		return out, true, nil
	}

	if m := legacyLocaleNameRe.FindStringSubmatch(stripped); m != nil {
		text, err := g.ParseContent(m[2], false)
		if err != nil {
			return nil, false, err
		}
		return []ContentSpec{{Locale: normalizeLocaleName(m[1]), Text: text}}, true, nil
	}

	if m := legacyLocaleColonRe.FindStringSubmatch(stripped); m != nil {
		text, err := g.ParseContent(m[2], false)
		if err != nil {
			return nil, false, err
		}
		return []ContentSpec{{Locale: normalizeLocaleName(m[1]), Text: text}}, true, nil
	}

	if m := defaultColonRe.FindStringSubmatch(stripped); m != nil {
		text, err := g.ParseContent(m[1], false)
		if err != nil {
			return nil, false, err
		}
		return []ContentSpec{{Locale: "", Text: text}}, true, nil
	}

	if strings.HasPrefix(stripped, "[locale]") || strings.HasPrefix(stripped, "[default]") {
		return g.parseLocaleBlock(stripped, mode)
	}

	return nil, false, g.Fail("unrecognized content line %q", raw)
}

var (
	modernLocaleRe      = regexp.MustCompile(`^locale\[([^\]]*)\]:\s*(.*)$`)
	legacyLocaleNameRe  = regexp.MustCompile(`^locale\s+(\S+)\s+(.*)$`)
	legacyLocaleColonRe = regexp.MustCompile(`^locale:(\S+)\s+(.*)$`)
	defaultColonRe      = regexp.MustCompile(`^default:\s*(.*)$`)
)

func normalizeLocaleName(l string) string {
	if l == "default" {
		return ""
	}
	return l
}

// parseLocaleBlock handles [locale] ... [/locale] and [default] ...
// [/default] block forms. Every line until the matching close tag
// belongs to ONE multi-line content value, joined with "\r\n"
// (substrules) or "\n" (entries) per spec §4.7, mirroring the
// original's handle_block_input(..., sep) + string_utils::join. The
// [locale] header's remainder is whitespace-split into one or more
// locale names, each getting its own ContentSpec sharing that same
// joined text.
func (g *Generator) parseLocaleBlock(openLine string, mode EntryKind) ([]ContentSpec, bool, error) {
	isDefault := strings.HasPrefix(openLine, "[default]")
	closeTag := "[/locale]"
	if isDefault {
		closeTag = "[/default]"
	}

	var locales []string
	if isDefault {
		locales = []string{""}
	} else {
		rest, _ := strutil.ExtractContent(openLine, 1)
		for _, l := range strutil.SplitWhitespace(rest) {
			locales = append(locales, normalizeLocaleName(l))
		}
		if len(locales) == 0 {
			return nil, false, g.Fail("missing locale name in %q", openLine)
		}
	}

	sep := "\n"
	if mode == SubstrulesMode {
		sep = "\r\n"
	}

	var lines []string
	for g.GotoNextLine() {
		stripped := strutil.Strip(g.Current())
		if stripped == closeTag {
			text := strings.Join(lines, sep)
			out := make([]ContentSpec, 0, len(locales))
			for _, l := range locales {
				out = append(out, ContentSpec{Locale: l, Text: text})
			}
			return out, true, nil
		}
		line, err := g.ParseContent(g.Current(), false)
		if err != nil {
			return nil, false, err
		}
		lines = append(lines, line)
	}
	return nil, false, g.Fail("unterminated %s block", openLine)
}
