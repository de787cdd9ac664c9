package types

import "fmt"

// Diagnostic is an engine failure located in a source file.
// Line and Column are 1-based; zero means the position is unknown.
type Diagnostic struct {
	Filename string
	Offset   int
	Line     int
	Column   int
	Message  string
	Err      error
}

func (d *Diagnostic) Error() string {
	name := d.Filename
	if name == "" {
		name = "<source>"
	}
	if d.Line == 0 {
		return fmt.Sprintf("%s: %s", name, d.Message)
	}
	return fmt.Sprintf("%s:%d:%d: %s", name, d.Line, d.Column, d.Message)
}

func (d *Diagnostic) Unwrap() error { return d.Err }

// Result is the outcome of compiling one source text.
type Result struct {
	Filename     string
	Output       string
	Definitions  int
	Passes       int
	Replacements int
	Cached       bool
}

// Position converts a byte offset of src into a 1-based line and column.
// Columns count runes. Offsets outside src yield 0, 0.
func Position(src string, offset int) (int, int) {
	if offset < 0 || offset > len(src) {
		return 0, 0
	}
	line, col := 1, 1
	for _, r := range src[:offset] {
		if r == '\n' {
			line++
			col = 1
			continue
		}
		col++
	}
	return line, col
}
