package generator

import (
	"strconv"
	"strings"
)

// MergeLevel selects which upper scope ParseOptions copies from before
// applying a line's words.
type MergeLevel int

const (
	MergeFile    MergeLevel = iota // really-really-global scope
	MergeSection                   // global (per-section) scope
	MergeNone                      // empty base, only inline
)

var valueOptionNames = map[string]bool{
	"leadtabindents": true,
	"leadspaces":     true,
}

var booleanOptionNames = map[string]bool{
	"substvar":        true,
	"substesc":        true,
	"substchar":       true,
	"linebounds":      true,
	"endmatchhere":    true,
	"foregroundonly":  true,
	"nlmatchcurpos":   true,
	"subststdoutonly": true,
	"subststderronly": true,
	"substallstreams": true,
}

// switchGroup is the set of mutually-exclusive boolean options; at
// most one is true at a time within an option set.
var switchGroup = []string{"strictcmdmatch", "exactcmdmatch", "smartcmdmatch", "normalcmdmatch"}

func isSwitchOption(name string) bool {
	for _, s := range switchGroup {
		if s == name {
			return true
		}
	}
	return false
}

// Options is one resolved option map: integer-valued options, boolean
// options, and the at-most-one active switch-group member.
type Options struct {
	Values  map[string]int
	Bools   map[string]bool
	Switch  string // "" if none set
}

func newOptions() *Options {
	return &Options{Values: map[string]int{}, Bools: map[string]bool{}}
}

func (o *Options) clone() *Options {
	c := newOptions()
	for k, v := range o.Values {
		c.Values[k] = v
	}
	for k, v := range o.Bools {
		c.Bools[k] = v
	}
	c.Switch = o.Switch
	return c
}

// OptionScopes holds the three stacked option maps: file-level
// ("really really global"), section-level ("global"), and the most
// recently parsed inline set.
type OptionScopes struct {
	File    *Options
	Section *Options
	Inline  *Options
}

func newOptionScopes() *OptionScopes {
	return &OptionScopes{File: newOptions(), Section: newOptions(), Inline: newOptions()}
}

// Effective merges the three scopes, file < section < inline, for
// lookups; it never mutates the scopes.
func (s *OptionScopes) Effective() *Options {
	eff := s.File.clone()
	for k, v := range s.Section.Values {
		eff.Values[k] = v
	}
	for k, v := range s.Section.Bools {
		eff.Bools[k] = v
	}
	if s.Section.Switch != "" {
		eff.Switch = s.Section.Switch
	}
	for k, v := range s.Inline.Values {
		eff.Values[k] = v
	}
	for k, v := range s.Inline.Bools {
		eff.Bools[k] = v
	}
	if s.Inline.Switch != "" {
		eff.Switch = s.Inline.Switch
	}
	return eff
}

// ParseOptions parses whitespace-separated option words against the
// given merge level, returning a fresh Options that first copies the
// chosen upper scope then applies words in order. allowed/banned, when
// non-nil, restrict which option names may appear in this context.
func (g *Generator) ParseOptions(words []string, level MergeLevel, allowed, banned map[string]bool) (*Options, error) {
	var base *Options
	switch level {
	case MergeFile:
		base = g.options.File.clone()
	case MergeSection:
		base = g.options.Section.clone()
	default:
		base = newOptions()
	}

	for _, w := range words {
		name := w
		negate := false
		if strings.HasPrefix(w, "no") && booleanOptionNames[w[2:]] {
			name = w[2:]
			negate = true
		}

		if allowed != nil && !allowed[name] {
			return nil, g.Fail("option %q is not allowed in this context", w)
		}
		if banned != nil && banned[name] {
			return nil, g.Fail("option %q is banned in this context", w)
		}

		switch {
		case strings.Contains(name, ":") && valueOptionNamePrefix(name):
			parts := strings.SplitN(name, ":", 2)
			if !valueOptionNames[parts[0]] {
				return nil, g.Fail("unknown option %q", w)
			}
			n, err := strconv.Atoi(parts[1])
			if err != nil {
				return nil, g.Fail("option %q requires an integer value", w)
			}
			base.Values[parts[0]] = n

		case booleanOptionNames[name]:
			base.Bools[name] = !negate

		case isSwitchOption(name):
			if base.Switch != "" && base.Switch != name {
				return nil, g.Fail("option %q conflicts with already-set %q", name, base.Switch)
			}
			base.Switch = name

		default:
			return nil, g.Fail("unknown option %q", w)
		}
	}

	return base, nil
}

func valueOptionNamePrefix(name string) bool {
	idx := strings.IndexByte(name, ':')
	if idx < 0 {
		return false
	}
	return valueOptionNames[name[:idx]]
}

// ApplyFile merges opts into the file-level scope (and, per spec
// §4.7, also into section scope, mirroring variable-scope behavior so
// file-level settings are visible before any {section} is opened).
func (g *Generator) ApplyFile(opts *Options) {
	mergeInto(g.options.File, opts)
	mergeInto(g.options.Section, opts)
}

// ApplySection merges opts into the section-level scope.
func (g *Generator) ApplySection(opts *Options) {
	mergeInto(g.options.Section, opts)
}

// ApplyInline replaces the inline scope with opts (inline options never
// persist past the line/entry they were parsed on).
func (g *Generator) ApplyInline(opts *Options) {
	g.options.Inline = opts
}

// ResetSection clears the section-level and inline scopes; called when
// a new top-level section opens.
func (g *Generator) ResetSection() {
	g.options.Section = newOptions()
	g.options.Inline = newOptions()
}

func mergeInto(dst, src *Options) {
	for k, v := range src.Values {
		dst.Values[k] = v
	}
	for k, v := range src.Bools {
		dst.Bools[k] = v
	}
	if src.Switch != "" {
		dst.Switch = src.Switch
	}
}

// Bool returns the effective value of a boolean option.
func (g *Generator) Bool(name string) bool {
	return g.options.Effective().Bools[name]
}

// Int returns the effective value of a value option and whether it was set.
func (g *Generator) Int(name string) (int, bool) {
	v, ok := g.options.Effective().Values[name]
	return v, ok
}

// CommandStrictnessOption maps the effective switch-group member to
// spec §3.1's command_match_strictness encoding. normalcmdmatch (or no
// switch set) is the default, contains-all mode.
func (g *Generator) CommandStrictnessOption() int {
	switch g.options.Effective().Switch {
	case "strictcmdmatch":
		return 1
	case "exactcmdmatch":
		return 2
	case "smartcmdmatch":
		return -1
	default:
		return 0
	}
}
