// Package pcre wraps Go's stdlib regexp package behind the match and
// replacement-template semantics the theme engine needs: non-
// overlapping iteration with zero-length-match advancement, and a
// \g<name>/\g<N>/\N/\\/\n/\t replacement template interpreter. Go's
// regexp (RE2) has no PCRE2 equivalent in this codebase's dependency
// pack, so it is the stdlib foundation; see DESIGN.md.
package pcre

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Pattern is a compiled match pattern plus its original source text.
type Pattern struct {
	re     *regexp.Regexp
	source string
}

// Compile compiles pattern with Go's (?m) MULTILINE-equivalent flag
// applied, matching PCRE2_MULTILINE semantics (^/$ match at internal
// line boundaries as well as string bounds).
func Compile(pattern string) (*Pattern, error) {
	re, err := regexp.Compile("(?m)" + pattern)
	if err != nil {
		return nil, fmt.Errorf("compile pattern %q: %w", pattern, err)
	}
	return &Pattern{re: re, source: pattern}, nil
}

// MustCompile is like Compile but panics on error; used only where the
// pattern is known-valid (e.g. internal constant patterns).
func MustCompile(pattern string) *Pattern {
	p, err := Compile(pattern)
	if err != nil {
		panic(err)
	}
	return p
}

// Source returns the original pattern text.
func (p *Pattern) Source() string { return p.source }

// Match is one match result: its byte range, the full matched
// substring, every captured group (unset groups are empty strings),
// and the name->index map.
type Match struct {
	Start, End int
	Text       string
	Groups     []string // index 0 is the whole match
	GroupSet   []bool   // whether Groups[i] was actually set
	NameIndex  map[string]int
}

// FindIter iterates non-overlapping matches of p inside subject[start:end].
//
// All matches are found in a single pass over the untouched
// subject[start:end] slice (regexp.FindAllStringSubmatchIndex), rather
// than re-searching subject[pos:end] after each match: re-slicing
// would make (?m)'s ^/$ anchors treat every match's end position as if
// it were a true line start, spuriously anchoring later matches
// instead of respecting the real surrounding text. FindAll's own
// zero-length-match handling already advances by one rune rather than
// looping forever.
func (p *Pattern) FindIter(subject string, start, end int) []Match {
	var out []Match
	names := p.re.SubexpNames()
	nameIndex := make(map[string]int, len(names))
	for i, n := range names {
		if n != "" {
			nameIndex[n] = i
		}
	}

	locs := p.re.FindAllStringSubmatchIndex(subject[start:end], -1)
	for _, loc := range locs {
		// loc indices are relative to subject[start:end]; rebase.
		for i := range loc {
			if loc[i] >= 0 {
				loc[i] += start
			}
		}
		groups := make([]string, len(loc)/2)
		set := make([]bool, len(loc)/2)
		for i := 0; i < len(loc); i += 2 {
			gi := i / 2
			if loc[i] < 0 || loc[i+1] < 0 {
				groups[gi] = ""
				set[gi] = false
				continue
			}
			groups[gi] = subject[loc[i]:loc[i+1]]
			set[gi] = true
		}
		out = append(out, Match{
			Start:     loc[0],
			End:       loc[1],
			Text:      groups[0],
			Groups:    groups,
			GroupSet:  set,
			NameIndex: nameIndex,
		})
	}
	return out
}

func isUTF8Continuation(b byte) bool {
	return b&0xC0 == 0x80
}

// ExpandReplacement interprets template against m: \g<name>, \g<N>,
// \N (single digit), \\, \n, \t. Unknown names or out-of-range indices
// expand to the empty string.
func ExpandReplacement(template string, m Match) string {
	var b strings.Builder
	i := 0
	for i < len(template) {
		c := template[i]
		if c != '\\' || i+1 >= len(template) {
			b.WriteByte(c)
			i++
			continue
		}
		next := template[i+1]
		switch {
		case next == '\\':
			b.WriteByte('\\')
			i += 2
		case next == 'n':
			b.WriteByte('\n')
			i += 2
		case next == 't':
			b.WriteByte('\t')
			i += 2
		case next == 'g' && i+2 < len(template) && template[i+2] == '<':
			end := strings.IndexByte(template[i+3:], '>')
			if end < 0 {
				b.WriteByte(c)
				i++
				continue
			}
			name := template[i+3 : i+3+end]
			b.WriteString(resolveGroup(name, m))
			i = i + 3 + end + 1
		case next >= '0' && next <= '9':
			idx, _ := strconv.Atoi(string(next))
			b.WriteString(groupAt(m, idx))
			i += 2
		default:
			b.WriteByte(c)
			i++
		}
	}
	return b.String()
}

func resolveGroup(name string, m Match) string {
	if idx, err := strconv.Atoi(name); err == nil {
		return groupAt(m, idx)
	}
	if idx, ok := m.NameIndex[name]; ok {
		return groupAt(m, idx)
	}
	return ""
}

func groupAt(m Match, idx int) string {
	if idx < 0 || idx >= len(m.Groups) {
		return ""
	}
	return m.Groups[idx]
}

// Sub replaces the first match of p in subject with the expansion of
// template, or returns subject unchanged if there is no match.
func Sub(p *Pattern, subject, template string) string {
	matches := p.FindIter(subject, 0, len(subject))
	if len(matches) == 0 {
		return subject
	}
	m := matches[0]
	return subject[:m.Start] + ExpandReplacement(template, m) + subject[m.End:]
}
