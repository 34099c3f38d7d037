// Package matcher implements the four-mode comparison between a
// rule's command filter and a live command line, per spec §4.9.
package matcher

import (
	"regexp"
	"strings"

	"github.com/clitheme/clitheme/internal/ir"
	"github.com/clitheme/clitheme/internal/strutil"
)

var strippableExt = []string{".exe", ".com", ".ps1", ".bat", ".sh"}

// firstTokenForms returns the three acceptable equivalence forms of a
// live command line's first token: the original, its basename, and
// that basename with a recognized extension removed.
func firstTokenForms(first string) []string {
	forms := []string{first}

	base := first
	if idx := strings.LastIndexAny(first, `/\`); idx >= 0 {
		base = first[idx+1:]
	}
	if base != first {
		forms = append(forms, base)
	}

	for _, ext := range strippableExt {
		if strings.HasSuffix(base, ext) {
			stripped := base[:len(base)-len(ext)]
			forms = append(forms, stripped)
			break
		}
	}

	return forms
}

// Match reports whether pattern (the rule's command filter) matches
// live (the live command line) under strictness, optionally treating
// pattern as a regex.
func Match(pattern, live string, strictness ir.CommandStrictness, patternIsRegex bool) bool {
	liveTokens := strutil.SplitWhitespace(live)
	patternTokens := strutil.SplitWhitespace(pattern)
	if len(liveTokens) == 0 || len(patternTokens) == 0 {
		return false
	}

	forms := firstTokenForms(liveTokens[0])

	if patternIsRegex {
		return matchRegex(pattern, liveTokens, forms)
	}

	firstMatches := false
	for _, f := range forms {
		if f == patternTokens[0] {
			firstMatches = true
			break
		}
	}
	if !firstMatches {
		return false
	}

	switch strictness {
	case ir.StrictnessPrefix:
		return matchPrefix(patternTokens[1:], liveTokens[1:])
	case ir.StrictnessExact:
		return matchExact(patternTokens[1:], liveTokens[1:])
	case ir.StrictnessSmart:
		return matchSmart(patternTokens[1:], liveTokens[1:])
	default: // contains-all
		return matchContainsAll(patternTokens[1:], liveTokens[1:])
	}
}

func matchRegex(pattern string, liveTokens, forms []string) bool {
	re, err := regexp.Compile("^" + pattern)
	if err != nil {
		return false
	}
	for _, f := range forms {
		joined := strings.Join(append([]string{f}, liveTokens[1:]...), " ")
		if re.MatchString(joined) {
			return true
		}
	}
	return false
}

func matchPrefix(pattern, live []string) bool {
	if len(live) < len(pattern) {
		return false
	}
	for i, p := range pattern {
		if live[i] != p {
			return false
		}
	}
	return true
}

func matchExact(pattern, live []string) bool {
	if len(pattern) != len(live) {
		return false
	}
	for i, p := range pattern {
		if live[i] != p {
			return false
		}
	}
	return true
}

func matchContainsAll(pattern, live []string) bool {
	set := make(map[string]bool, len(live))
	for _, l := range live {
		set[l] = true
	}
	for _, p := range pattern {
		if !set[p] {
			return false
		}
	}
	return true
}

// expandClusters expands any "-abc" short-flag cluster (where abc has
// no embedded "-") into "-a -b -c"; any other token passes through
// unchanged.
func expandClusters(tokens []string) []string {
	var out []string
	for _, t := range tokens {
		if len(t) > 2 && t[0] == '-' && t[1] != '-' && !strings.Contains(t[1:], "-") {
			for _, r := range t[1:] {
				out = append(out, "-"+string(r))
			}
			continue
		}
		out = append(out, t)
	}
	return out
}

func matchSmart(pattern, live []string) bool {
	expPattern := expandClusters(pattern)
	expLive := expandClusters(live)
	set := make(map[string]bool, len(expLive))
	for _, l := range expLive {
		set[l] = true
	}
	for _, p := range expPattern {
		if !set[p] {
			return false
		}
	}
	return true
}
