package formatter

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/template"

	"github.com/dsljs/dsl/internal/types"
	"github.com/dsljs/dsl/macro"
	"github.com/fatih/color"
)

const tabWidth = 8

// error kinds
const (
	MalformedBlock = "malformed-block"
	InvalidPattern = "invalid-pattern"
	Unterminated   = "unterminated-literal"
	Divergence     = "expansion-divergence"
	MissingFile    = "missing-file"
	General        = "error"
)

var (
	errorStyle      = color.New(color.FgRed, color.Bold)
	ruleStyle       = color.New(color.FgYellow, color.Bold)
	fileStyle       = color.New(color.FgCyan, color.Bold)
	lineStyle       = color.New(color.FgHiBlue, color.Bold)
	messageStyle    = color.New(color.FgRed, color.Bold)
	suggestionStyle = color.New(color.FgGreen, color.Bold)
)

var notes = map[string]string{
	Divergence:     "a macro body probably re-emits an invocation of itself; raise max_passes only if the nesting is intended",
	InvalidPattern: "a pattern must start with a literal token, e.g. LOG $msg",
	Unterminated:   "strings, template literals and block comments must be closed inside the macro block",
}

type ErrorData struct {
	Kind            string
	Filename        string
	Line            int
	Column          int
	Message         string
	Note            string
	HasSnippet      bool
	SnippetLine     string
	MaxLineNumWidth int
	Padding         string
}

// Kind classifies err by the failure it wraps.
func Kind(err error) string {
	var (
		pce *macro.PatternCompileError
		te  *macro.TokenizeError
		mbe *macro.MalformedBlockError
	)
	switch {
	case errors.Is(err, macro.ErrExpansionDivergence):
		return Divergence
	case errors.As(err, &pce):
		return InvalidPattern
	case errors.As(err, &te):
		return Unterminated
	case errors.As(err, &mbe):
		return MalformedBlock
	case errors.Is(err, os.ErrNotExist):
		return MissingFile
	default:
		return General
	}
}

// FormatError renders err for a terminal. When err is a located
// *types.Diagnostic, the offending line of source is shown with a caret.
func FormatError(err error, source string) string {
	if err == nil {
		return ""
	}

	kind := Kind(err)
	data := ErrorData{
		Kind:    kind,
		Message: err.Error(),
		Note:    notes[kind],
	}

	var d *types.Diagnostic
	if errors.As(err, &d) {
		data.Filename = d.Filename
		data.Line = d.Line
		data.Column = d.Column
		data.Message = d.Message
		lines := strings.Split(source, "\n")
		if d.Line > 0 && d.Line <= len(lines) {
			data.HasSnippet = true
			data.SnippetLine = strings.TrimRight(lines[d.Line-1], "\r")
		}
	}
	if data.Filename == "" {
		data.Filename = "<source>"
	}

	data.MaxLineNumWidth = calculateMaxLineNumWidth(data.Line)
	data.Padding = strings.Repeat(" ", data.MaxLineNumWidth+1)

	funcMap := template.FuncMap{
		"header":  header,
		"snippet": codeSnippet,
		"caret":   caret,
		"message": message,
		"note":    note,
	}

	tmpl := template.Must(template.New("error").Funcs(funcMap).Parse(errorTemplate))

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return fmt.Sprintf("Error formatting error: %v", err)
	}
	return buf.String()
}

// utils functions used in the text templates

func header(kind string, maxLineNumWidth int, filename string, line int, column int) string {
	endString := errorStyle.Sprint("error: ")
	endString += ruleStyle.Sprintf("%s\n", kind)

	padding := strings.Repeat(" ", maxLineNumWidth)
	endString += lineStyle.Sprintf("%s--> ", padding)
	if line > 0 {
		endString += fileStyle.Sprintf("%s:%d:%d", filename, line, column)
	} else {
		endString += fileStyle.Sprint(filename)
	}
	return endString
}

func codeSnippet(line string, lineNum int, maxLineNumWidth int, padding string) string {
	endString := lineStyle.Sprintf("%s|\n", padding)
	endString += lineStyle.Sprintf("%*d | ", maxLineNumWidth, lineNum)
	endString += expandTabs(line)
	return endString
}

func caret(padding string, line string, column int) string {
	endString := lineStyle.Sprintf("%s| ", padding)
	endString += strings.Repeat(" ", calculateVisualColumn(line, column))
	endString += messageStyle.Sprint("^")
	return endString
}

func message(padding string, msg string) string {
	return lineStyle.Sprintf("%s= ", padding) + messageStyle.Sprint(msg)
}

func note(padding string, text string) string {
	return lineStyle.Sprintf("%s= ", padding) + suggestionStyle.Sprint("note: ") + text
}

func calculateMaxLineNumWidth(line int) int {
	return len(fmt.Sprintf("%d", line))
}

// calculateVisualColumn returns the display width of the text before the
// 1-based rune column, expanding tabs.
func calculateVisualColumn(line string, column int) int {
	if column <= 0 {
		return 0
	}
	visualColumn := 0
	n := 1
	for _, ch := range line {
		if n == column {
			break
		}
		if ch == '\t' {
			visualColumn += tabWidth - (visualColumn % tabWidth)
		} else {
			visualColumn++
		}
		n++
	}
	return visualColumn
}

func expandTabs(line string) string {
	if !strings.Contains(line, "\t") {
		return line
	}
	var sb strings.Builder
	col := 0
	for _, ch := range line {
		if ch == '\t' {
			spaces := tabWidth - (col % tabWidth)
			sb.WriteString(strings.Repeat(" ", spaces))
			col += spaces
			continue
		}
		sb.WriteRune(ch)
		col++
	}
	return sb.String()
}
