package sections

import (
	"github.com/clitheme/clitheme/internal/generator"
	"github.com/clitheme/clitheme/internal/strutil"
)

// handleHeader processes {header}: theme metadata statements (name,
// description, version, locales, supported_apps) plus the shared
// option/var setters at file scope.
func handleHeader(g *generator.Generator, res *Result) error {
	return consumeUntilClose(g, "{header}", func(line string) error {
		if handled, err := handleSetters(g, line, generator.MergeFile); handled {
			return err
		}

		fields := strutil.SplitWhitespace(line)
		if len(fields) == 0 {
			return nil
		}

		switch fields[0] {
		case "name":
			v, _ := strutil.ExtractContent(line, 1)
			res.Info.Name = v
		case "description":
			v, _ := strutil.ExtractContent(line, 1)
			res.Info.Description = v
		case "version":
			v, _ := strutil.ExtractContent(line, 1)
			res.Info.Version = v
		case "locales":
			res.Info.Locales = fields[1:]
		case "supported_apps":
			res.Info.SupportedApps = fields[1:]
		default:
			return g.Fail("unknown header statement %q", fields[0])
		}
		return nil
	})
}
