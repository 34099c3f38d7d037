package generator

import "fmt"

// SyntaxError aborts the current compile pass. It always carries the
// 1-based line number where it was detected.
type SyntaxError struct {
	Line    int
	Message string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("Syntax error: line %d: %s", e.Line, e.Message)
}

// CompileError is recorded but does not stop the pass; multiple may
// accumulate across one compile.
type CompileError struct {
	Line    int
	Message string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("Error: line %d: %s", e.Line, e.Message)
}

// Warning is recorded and deduplicated per (line, message) so repeated
// re-parses of the same construct never multiply diagnostics.
type Warning struct {
	Line    int
	Message string
}

func (w *Warning) Error() string {
	return fmt.Sprintf("Warning: line %d: %s", w.Line, w.Message)
}
