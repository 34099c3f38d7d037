package sections

import (
	"regexp"
	"strings"

	"github.com/clitheme/clitheme/internal/generator"
	"github.com/clitheme/clitheme/internal/strutil"
)

// substOptionNames is the set of content/char substitution options that
// (enable_subst)/(disable_subst) toggle together in one step, per
// options.hpp's subst_options() (content_subst_options + char_subst_options).
var substOptionNames = []string{"substvar", "linebounds", "substesc", "substchar"}

var (
	setvarBracketRe = regexp.MustCompile(`^setvar\[(.+?)\]:`)
	setvarLegacyRe  = regexp.MustCompile(`^setvar:(.+)$`)
)

// handleSetters recognizes the setter statements shared by every
// section: "setvar[name...]: value", the legacy "setvar:name value",
// "set_options"/"(set_options) words...", and "(enable_subst)"/
// "(disable_subst)", per generator_object.cpp:569-621. It returns
// handled=false when line is none of these, leaving it for the
// caller's own dispatch.
func handleSetters(g *generator.Generator, line string, level generator.MergeLevel) (handled bool, err error) {
	stripped := strutil.Strip(line)
	fields := strutil.SplitWhitespace(stripped)
	if len(fields) == 0 {
		return false, nil
	}
	fileLevel := level == generator.MergeFile

	if strings.HasPrefix(fields[0], "setvar[") {
		m := setvarBracketRe.FindStringSubmatch(stripped)
		if m == nil || (len(stripped) > len(m[0]) && !isSetterSpace(stripped[len(m[0])])) {
			return true, g.Fail("invalid format for %q", "setvar")
		}
		names := strutil.SplitWhitespace(m[1])
		if len(names) == 0 {
			return true, g.Fail("invalid format for %q", "setvar")
		}
		argc := len(strutil.SplitWhitespace(m[0]))
		value, _ := strutil.ExtractContent(line, argc)
		return true, g.SetVar(names, value, fileLevel)
	}

	if strings.HasPrefix(fields[0], "setvar:") {
		if m := setvarLegacyRe.FindStringSubmatch(fields[0]); m != nil {
			if len(fields) < 2 {
				return true, g.Fail("%q requires a value", fields[0])
			}
			value, _ := strutil.ExtractContent(line, 1)
			return true, g.SetVar([]string{m[1]}, value, fileLevel)
		}
		return false, nil
	}

	if fields[0] == "set_options" || fields[0] == "(set_options)" {
		if len(fields) < 2 {
			return true, g.Fail("%q requires at least one option", fields[0])
		}
		opts, err := g.ParseOptions(fields[1:], level, nil, nil)
		if err != nil {
			return true, err
		}
		applySetterOptions(g, level, opts)
		return true, nil
	}

	if fields[0] == "(enable_subst)" {
		if len(fields) != 1 {
			return true, g.Fail("%q takes no arguments", fields[0])
		}
		opts, err := g.ParseOptions(substOptionNames, level, nil, nil)
		if err != nil {
			return true, err
		}
		applySetterOptions(g, level, opts)
		return true, nil
	}

	if fields[0] == "(disable_subst)" {
		if len(fields) != 1 {
			return true, g.Fail("%q takes no arguments", fields[0])
		}
		negated := make([]string, len(substOptionNames))
		for i, n := range substOptionNames {
			negated[i] = "no" + n
		}
		opts, err := g.ParseOptions(negated, level, nil, nil)
		if err != nil {
			return true, err
		}
		applySetterOptions(g, level, opts)
		return true, nil
	}

	return false, nil
}

func applySetterOptions(g *generator.Generator, level generator.MergeLevel, opts *generator.Options) {
	if level == generator.MergeFile {
		g.ApplyFile(opts)
	} else {
		g.ApplySection(opts)
	}
}

func isSetterSpace(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	default:
		return false
	}
}
