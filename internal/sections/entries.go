package sections

import (
	"github.com/clitheme/clitheme/internal/generator"
	"github.com/clitheme/clitheme/internal/strutil"
	"github.com/clitheme/clitheme/internal/themefs"
)

// handleEntries processes {entries}: in_domainapp/in_subsection/unset_*
// scoping statements, plus a sequence of [entry] ... [/entry] blocks,
// each producing one or more filesystem entries under outBase.
func handleEntries(g *generator.Generator, outBase string) error {
	closes := closeTokens("{entries}")
	var domainApp, subsection string

	for g.GotoNextLine() {
		stripped := strutil.Strip(g.Current())
		fields := strutil.SplitWhitespace(stripped)
		if len(fields) == 0 {
			continue
		}
		if matchesClose(fields[0], closes) {
			return nil
		}

		if handled, err := handleSetters(g, stripped, generator.MergeSection); handled {
			if err != nil {
				return err
			}
			continue
		}

		switch fields[0] {
		case "in_domainapp":
			if len(fields) != 3 {
				return g.Fail("in_domainapp requires a domain and an app")
			}
			domainApp = fields[1] + " " + fields[2]
		case "in_subsection":
			v, _ := strutil.ExtractContent(stripped, 1)
			subsection = v
		case "unset_domainapp":
			domainApp = ""
		case "unset_subsection":
			subsection = ""

		case "[entry]":
			if err := assembleEntryBlock(g, outBase, domainApp, subsection); err != nil {
				return err
			}
		default:
			return g.Fail("unknown entries statement %q", fields[0])
		}
	}
	return g.Fail("unterminated section %q", "{entries}")
}

func assembleEntryBlock(g *generator.Generator, outBase, domainApp, subsection string) error {
	names, contents, _, err := g.HandleEntry(generator.EntriesMode, "[/entry]", false)
	if err != nil {
		return err
	}
	for _, ns := range names {
		for _, cs := range contents {
			name := ns.Name
			if cs.Locale != "" {
				name += "__" + cs.Locale
			}
			fullName := joinNonEmpty(domainApp, subsection, name)
			if err := themefs.AddEntry(outBase, fullName, cs.Text); err != nil {
				return err
			}
		}
	}
	return nil
}

func joinNonEmpty(parts ...string) string {
	out := ""
	for _, p := range parts {
		if p == "" {
			continue
		}
		if out != "" {
			out += " "
		}
		out += p
	}
	return out
}

func matchesClose(token string, closes []string) bool {
	for _, c := range closes {
		if token == c {
			return true
		}
	}
	return false
}
