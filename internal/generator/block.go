package generator

import (
	"strings"

	"github.com/clitheme/clitheme/internal/strutil"
)

// HandleBlockInput reads lines until one whose first whitespace-
// separated field equals endPhrase, per spec §4.7's
// handle_block_input_splitlines:
//  1. empty lines become "" only if preserveEmptyLines
//  2. if preserveIndents, the minimum leading-whitespace width across
//     non-empty lines (tabs = 8 columns) is stripped from every line
//  3. an escape for the end-phrase token at line start is recognized
//  4. trailing whitespace is stripped
//
// It returns the collected lines and the stripped text of the
// end-phrase line (for the caller to parse trailing options from).
func (g *Generator) HandleBlockInput(endPhrase string, preserveEmptyLines, preserveIndents bool) ([]string, string, error) {
	var raw []string
	var endLine string
	found := false

	for {
		g.LineNum++
		if g.LineNum > len(g.Lines) {
			break
		}
		line := g.Current()
		stripped := strutil.Strip(line)
		if stripped == "" {
			if preserveEmptyLines {
				raw = append(raw, "")
			}
			continue
		}
		if strings.HasPrefix(stripped, "#") {
			continue
		}
		first := strutil.SplitWhitespace(line)
		if len(first) > 0 && first[0] == endPhrase {
			endLine = strutil.Strip(line)
			found = true
			break
		}
		raw = append(raw, line)
	}
	if !found {
		return nil, "", g.Fail("unterminated block, expected end phrase %q", endPhrase)
	}

	lines := make([]string, len(raw))
	copy(lines, raw)

	if preserveIndents {
		minIndent := -1
		for _, l := range lines {
			if strutil.Strip(l) == "" {
				continue
			}
			w := leadingWidth(l)
			if minIndent < 0 || w < minIndent {
				minIndent = w
			}
		}
		if minIndent > 0 {
			for i, l := range lines {
				lines[i] = stripLeadingWidth(l, minIndent)
			}
		}
	}

	for i, l := range lines {
		stripped := strutil.Strip(l)
		if stripped == "" {
			if preserveEmptyLines {
				lines[i] = ""
			} else {
				lines[i] = ""
			}
			continue
		}
		lines[i] = unescapeEndPhrase(rtrim(l), endPhrase)
	}

	return lines, endLine, nil
}

// leadingWidth measures the leading-whitespace width of l, counting
// tabs as 8 columns.
func leadingWidth(l string) int {
	w := 0
	for _, c := range l {
		switch c {
		case ' ':
			w++
		case '\t':
			w += 8 - (w % 8)
		default:
			return w
		}
	}
	return w
}

// stripLeadingWidth removes up to width columns of leading whitespace
// from l, expanding tabs as it goes.
func stripLeadingWidth(l string, width int) string {
	col := 0
	i := 0
	for i < len(l) && col < width {
		switch l[i] {
		case ' ':
			col++
			i++
		case '\t':
			col += 8 - (col % 8)
			i++
		default:
			return l[i:]
		}
	}
	return l[i:]
}

func rtrim(s string) string {
	return strings.TrimRight(s, " \t\r\n\v\f")
}

// unescapeEndPhrase recognizes a leading run of backslashes followed
// by the end-phrase token at the start of a line: "\end" -> "end",
// "\\end" -> "\end", "\\\end" -> "\\end", and so on. Per
// generator_object.cpp:654,660-661's
// `std::regex("^\\(\\*)" + end_phrase)` replaced with `"$1" + end_phrase`,
// exactly one leading literal backslash is consumed (to escape the
// end-phrase token) and the remaining n-1 backslashes are kept as-is.
func unescapeEndPhrase(line, endPhrase string) string {
	trimmed := strings.TrimLeft(line, " \t")
	prefixLen := len(line) - len(trimmed)

	n := 0
	for n < len(trimmed) && trimmed[n] == '\\' {
		n++
	}
	if n == 0 {
		return line
	}
	rest := trimmed[n:]
	if !strings.HasPrefix(rest, endPhrase) {
		return line
	}

	keep := n - 1
	return line[:prefixLen] + strings.Repeat("\\", keep) + rest
}
