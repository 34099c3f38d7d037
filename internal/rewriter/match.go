// Package rewriter implements the PTY stream rewriter: the match_content
// rule-application algorithm (spec §4.10) and the poll-driven PTY
// runner that drives it against a spawned child process.
package rewriter

import (
	"strings"

	"github.com/clitheme/clitheme/internal/ir"
	"github.com/clitheme/clitheme/internal/pcre"
)

// condition map marker values.
const (
	condUnmarked     byte = 0
	condReplaced     byte = 1
	condEndMatchHere byte = 2
)

var lineSeparators = []string{"\r\n", "\r", "\n", "\v", "\f", "\x1c", "\x1d", "\x1e"}

// splitLineRanges partitions text into the byte ranges between newline
// alternatives (spec §4.7's canonical separator list), excluding the
// separators themselves.
func splitLineRanges(text string) [][2]int {
	var ranges [][2]int
	start := 0
	i := 0
	for i < len(text) {
		sep := ""
		for _, s := range lineSeparators {
			if strings.HasPrefix(text[i:], s) {
				sep = s
				break
			}
		}
		if sep != "" {
			ranges = append(ranges, [2]int{start, i})
			i += len(sep)
			start = i
			continue
		}
		i++
	}
	ranges = append(ranges, [2]int{start, len(text)})
	return ranges
}

// MatchContent applies rules, in the given order, to text, implementing
// spec §4.10's match_content. isStderr scopes which rules apply (rules
// are already filtered by command when they are fetched from the
// store); the returned text is the rewritten chunk and the
// returned slice is the set of 0-based line indices (by the same
// newline-alternative splitting) that were changed.
func MatchContent(rules []ir.Rule, text string, isStderr bool) (string, []int) {
	cond := make([]byte, len(text))
	encountered := map[string]bool{}

	lastFileID := ""
	haveLastFileID := false

	for _, r := range rules {
		if encountered[r.UniqueID] {
			continue
		}
		if r.StdoutStderrOnly == ir.StreamStdout && isStderr {
			continue
		}
		if r.StdoutStderrOnly == ir.StreamStderr && !isStderr {
			continue
		}

		if haveLastFileID && r.FileID != lastFileID {
			cond = make([]byte, len(text))
		}
		lastFileID = r.FileID
		haveLastFileID = true

		newText, newCond, matched := applyRule(r, text, cond)
		text, cond = newText, newCond
		if matched {
			encountered[r.UniqueID] = true
		}
	}

	return text, changedLines(text, cond)
}

// applyRule applies one rule's pattern across every eligible range of
// text: the whole chunk for multi-line rules, each newline-delimited
// line otherwise. The end_match_here block check happens per match
// inside substituteAll, not once for the whole range.
func applyRule(r ir.Rule, text string, cond []byte) (string, []byte, bool) {
	pat, err := pcre.Compile(r.MatchPattern)
	if err != nil {
		return text, cond, false
	}

	var ranges [][2]int
	if r.MatchIsMultiline {
		ranges = [][2]int{{0, len(text)}}
	} else {
		ranges = splitLineRanges(text)
	}

	var out strings.Builder
	outCond := make([]byte, 0, len(cond))
	matched := false
	prevEnd := 0

	for _, rng := range ranges {
		if rng[0] > prevEnd {
			out.WriteString(text[prevEnd:rng[0]])
			outCond = append(outCond, cond[prevEnd:rng[0]]...)
		}

		rangeText := text[rng[0]:rng[1]]
		rangeCond := append([]byte(nil), cond[rng[0]:rng[1]]...)

		newText, newCond, m := substituteAll(pat, r, rangeText, rangeCond)
		rangeText, rangeCond = newText, newCond
		if m {
			matched = true
		}

		out.WriteString(rangeText)
		outCond = append(outCond, rangeCond...)
		prevEnd = rng[1]
	}

	if prevEnd < len(text) {
		out.WriteString(text[prevEnd:])
		outCond = append(outCond, cond[prevEnd:]...)
	}

	return out.String(), outCond, matched
}

// substituteAll replaces every non-overlapping match of pat within text
// with r's expanded substitution, marking the replaced bytes in the
// returned condition map. Each match is checked individually against
// the end_match_here marker on its own enclosing line(s) (spec.md:170's
// "walk outward to the line boundaries enclosing the match") rather
// than blocking the whole text on any marker found anywhere in it: a
// marker set by an earlier rule on an unrelated line must not suppress
// a later match whose own lines that marker never touched.
func substituteAll(pat *pcre.Pattern, r ir.Rule, text string, cond []byte) (string, []byte, bool) {
	matches := pat.FindIter(text, 0, len(text))
	if len(matches) == 0 {
		return text, cond, false
	}

	lineRanges := splitLineRanges(text)

	marker := condReplaced
	if r.EndMatchHere {
		marker = condEndMatchHere
	}

	var out strings.Builder
	outCond := make([]byte, 0, len(cond))
	pos := 0
	matched := false
	for _, m := range matches {
		out.WriteString(text[pos:m.Start])
		outCond = append(outCond, cond[pos:m.Start]...)

		enclosing := enclosingLineRange(lineRanges, m.Start, m.End)
		blocked := false
		for _, b := range cond[enclosing[0]:enclosing[1]] {
			if b == condEndMatchHere {
				blocked = true
				break
			}
		}

		if blocked {
			out.WriteString(text[m.Start:m.End])
			outCond = append(outCond, cond[m.Start:m.End]...)
			pos = m.End
			continue
		}

		var repl string
		if r.IsRegex {
			repl = pcre.ExpandReplacement(r.SubstitutePattern, m)
		} else {
			repl = r.SubstitutePattern
		}
		out.WriteString(repl)
		for i := 0; i < len(repl); i++ {
			outCond = append(outCond, marker)
		}
		pos = m.End
		matched = true
	}
	out.WriteString(text[pos:])
	outCond = append(outCond, cond[pos:]...)

	return out.String(), outCond, matched
}

// enclosingLineRange returns the union of every line range in ranges
// that overlaps [start, end) (or, for a zero-length match, contains
// start), expanding outward to cover a match spanning more than one
// line.
func enclosingLineRange(ranges [][2]int, start, end int) [2]int {
	lo, hi := -1, -1
	for _, rng := range ranges {
		var overlaps bool
		if start == end {
			overlaps = rng[0] <= start && start <= rng[1]
		} else {
			overlaps = rng[0] < end && start < rng[1]
		}
		if overlaps {
			if lo == -1 || rng[0] < lo {
				lo = rng[0]
			}
			if hi == -1 || rng[1] > hi {
				hi = rng[1]
			}
		}
	}
	if lo == -1 {
		return [2]int{start, end}
	}
	return [2]int{lo, hi}
}

// changedLines returns the 0-based indices of every newline-delimited
// line (per splitLineRanges) containing at least one non-zero
// condition-map byte.
func changedLines(text string, cond []byte) []int {
	var changed []int
	for i, rng := range splitLineRanges(text) {
		for _, b := range cond[rng[0]:rng[1]] {
			if b != condUnmarked {
				changed = append(changed, i)
				break
			}
		}
	}
	return changed
}
