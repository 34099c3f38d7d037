package sections

import (
	"github.com/clitheme/clitheme/internal/generator"
	"github.com/clitheme/clitheme/internal/strutil"
)

// handleSubstrules processes {substrules}: filter_command(s)[_regex]
// command-scoping statements followed by [subst_string] ...
// [/subst_string] / [subst_regex] ... [/subst_regex] blocks, each
// producing one CompiledSubstEntry per name/locale combination,
// appended to res.Rules.
func handleSubstrules(g *generator.Generator, res *Result) error {
	closes := closeTokens("{substrules}")

	var commands []string
	var commandIsRegex bool

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
		case "filter_command":
			v, _ := strutil.ExtractContent(stripped, 1)
			commands = []string{v}
			commandIsRegex = false
		case "filter_command_regex":
			v, _ := strutil.ExtractContent(stripped, 1)
			commands = []string{v}
			commandIsRegex = true
		case "filter_commands", "filter_commands_regex":
			isRegex := fields[0] == "filter_commands_regex"
			lines, _, err := g.HandleBlockInput("end_filter_commands", false, false)
			if err != nil {
				return err
			}
			commands = nil
			for _, l := range lines {
				if s := strutil.Strip(l); s != "" {
					commands = append(commands, s)
				}
			}
			commandIsRegex = isRegex
		case "unset_filter_command", "unset_filter_commands":
			commands = nil
			commandIsRegex = false

		case "[subst_string]":
			rules, err := assembleSubstBlock(g, "[/subst_string]", true, commands, commandIsRegex)
			if err != nil {
				return err
			}
			res.Rules = append(res.Rules, rules...)

		case "[subst_regex]":
			rules, err := assembleSubstBlock(g, "[/subst_regex]", false, commands, commandIsRegex)
			if err != nil {
				return err
			}
			res.Rules = append(res.Rules, rules...)

		default:
			return g.Fail("unknown substrules statement %q", fields[0])
		}
	}
	return g.Fail("unterminated section %q", "{substrules}")
}

func assembleSubstBlock(g *generator.Generator, endPhrase string, literal bool, commands []string, commandIsRegex bool) ([]generator.CompiledSubstEntry, error) {
	names, contents, flags, err := g.HandleEntry(generator.SubstrulesMode, endPhrase, literal)
	if err != nil {
		return nil, err
	}
	cmdList := commands
	if len(cmdList) == 0 {
		cmdList = []string{""}
	}
	var out []generator.CompiledSubstEntry
	for _, ns := range names {
		// One unique_id per source entry (per NameSpec), shared across
		// every locale and command variant it expands to, per spec.md:53
		// and entry_block.cpp's gen_uuid()-once-per-name convention.
		uniqueID := newRuleID()
		for _, cs := range contents {
			for _, cmd := range cmdList {
				out = append(out, writeSubstRule(g, ns, cs, flags, cmd, commandIsRegex, uniqueID))
			}
		}
	}
	return out, nil
}
