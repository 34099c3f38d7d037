package sections

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/clitheme/clitheme/internal/generator"
	"github.com/clitheme/clitheme/internal/sanity"
	"github.com/clitheme/clitheme/internal/strutil"
	"github.com/clitheme/clitheme/internal/themefs"
)

// handleManpages processes {manpages}: "include_file <path> [as <name>]"
// single-line statements, "[include_file] path / as target… /
// [/include_file]" blocks (one disk read, multiple installed names),
// and "[file_content] path… / [/file_content]" blocks that write an
// inline manpage with no backing disk file. include_file forms also
// write a migration sidecar under infoBase/manpage_data/<name>, per
// spec §6; file_content forms, having no source path to record, do
// not.
func handleManpages(g *generator.Generator, sourceDir, outBase, infoBase string) error {
	closes := closeTokens("{manpages}")
	checker := sanity.New()

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
		case "include_file":
			if err := handleIncludeFileLine(g, sourceDir, outBase, infoBase, checker, fields, stripped); err != nil {
				return err
			}
		case "[include_file]":
			if err := handleIncludeFileBlock(g, sourceDir, outBase, infoBase, checker); err != nil {
				return err
			}
		case "[file_content]":
			if err := handleFileContentBlock(g, outBase, checker, fields); err != nil {
				return err
			}
		default:
			return g.Fail("unknown manpages statement %q", fields[0])
		}
	}
	return g.Fail("unterminated section %q", "{manpages}")
}

func handleIncludeFileLine(g *generator.Generator, sourceDir, outBase, infoBase string, checker *sanity.Checker, fields []string, stripped string) error {
	relPath, _ := strutil.ExtractContent(stripped, 1)
	name := filepath.Base(relPath)
	if idx := indexOf(fields, "as"); idx > 0 && idx+1 < len(fields) {
		relPath = joinFields(fields[1:idx])
		name = fields[idx+1]
	}
	content, err := readSourceFile(sourceDir, relPath)
	if err != nil {
		return g.Fail("include_file %q: %s", relPath, err)
	}
	return installManpage(checker, outBase, infoBase, name, relPath, content)
}

// handleIncludeFileBlock reads one source path and installs it under
// every "as target" line until [/include_file], supporting a single
// disk read fanning out to multiple installed names.
func handleIncludeFileBlock(g *generator.Generator, sourceDir, outBase, infoBase string, checker *sanity.Checker) error {
	var relPath string
	var targets []string
	closed := false
	for g.GotoNextLine() {
		line := strutil.Strip(g.Current())
		fields := strutil.SplitWhitespace(line)
		if len(fields) == 0 {
			continue
		}
		if fields[0] == "[/include_file]" {
			closed = true
			break
		}
		switch fields[0] {
		case "as":
			if len(fields) < 2 {
				return g.Fail("as requires a target name")
			}
			targets = append(targets, fields[1])
		default:
			relPath = fields[0]
		}
	}
	if !closed {
		return g.Fail("unterminated block %q", "[include_file]")
	}
	if relPath == "" {
		return g.Fail("[include_file] block names no source path")
	}
	content, err := readSourceFile(sourceDir, relPath)
	if err != nil {
		return g.Fail("include_file %q: %s", relPath, err)
	}
	if len(targets) == 0 {
		targets = []string{filepath.Base(relPath)}
	}
	for _, name := range targets {
		if err := installManpage(checker, outBase, infoBase, name, relPath, content); err != nil {
			return err
		}
	}
	return nil
}

// handleFileContentBlock writes an inline manpage with no backing disk
// file; the body lines, verbatim, become the manpage content.
func handleFileContentBlock(g *generator.Generator, outBase string, checker *sanity.Checker, openFields []string) error {
	var name string
	if len(openFields) > 1 {
		name = openFields[1]
	}
	var lines []string
	closed := false
	for g.GotoNextLine() {
		raw := g.Current()
		stripped := strutil.Strip(raw)
		fields := strutil.SplitWhitespace(stripped)
		if len(fields) > 0 && fields[0] == "[/file_content]" {
			closed = true
			break
		}
		if name == "" && len(fields) > 0 {
			name = fields[0]
			continue
		}
		lines = append(lines, raw)
	}
	if !closed {
		return g.Fail("unterminated block %q", "[file_content]")
	}
	if name == "" {
		return g.Fail("[file_content] block names no target")
	}
	if !checker.Check(name) {
		return g.Fail("invalid manpage name %q: %s", name, checker.ErrorMessage())
	}
	content := ""
	for i, l := range lines {
		if i > 0 {
			content += "\n"
		}
		content += l
	}
	return themefs.WriteManpageFile(filepath.Join(outBase, "manpages", name), []byte(content))
}

func readSourceFile(sourceDir, relPath string) ([]byte, error) {
	return os.ReadFile(filepath.Join(sourceDir, relPath))
}

func installManpage(checker *sanity.Checker, outBase, infoBase, name, sourcePath string, content []byte) error {
	if !checker.Check(name) {
		return fmt.Errorf("invalid manpage name %q: %s", name, checker.ErrorMessage())
	}
	target := filepath.Join(outBase, "manpages", name)
	if err := themefs.WriteManpageFile(target, content); err != nil {
		return fmt.Errorf("manpages: %w", err)
	}
	if infoBase == "" {
		return nil
	}
	return themefs.WriteInfofile(filepath.Join(infoBase, "manpage_data"), name, sourcePath)
}

func indexOf(fields []string, target string) int {
	for i, f := range fields {
		if f == target {
			return i
		}
	}
	return -1
}

func joinFields(fields []string) string {
	out := ""
	for i, f := range fields {
		if i > 0 {
			out += " "
		}
		out += f
	}
	return out
}
