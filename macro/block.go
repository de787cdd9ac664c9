package macro

import (
	"errors"
	"strings"
)

// DefaultMarker introduces the macro block of a source file.
const DefaultMarker = "macros:"

// Definition is one compiled macro.
type Definition struct {
	// Head is the literal that starts every invocation.
	Head      string
	Signature string
	Pattern   []Node
	Body      string
}

// NewDefinition compiles signature and pairs it with body.
func NewDefinition(signature, body string) (*Definition, error) {
	signature = strings.TrimSpace(signature)
	nodes, err := CompilePattern(signature)
	if err != nil {
		return nil, err
	}
	head, _ := Head(nodes)
	return &Definition{
		Head:      head,
		Signature: signature,
		Pattern:   nodes,
		Body:      body,
	}, nil
}

// ExtractDefinitions parses every
//
//	$macro <signature> #( <body> )#
//
// in block, in order of appearance. "$macro" must be the first token on its
// line. Anything between definitions is ignored. Signatures are read with
// the tokenizer's literal rules; bodies are free text up to the first ")#"
// that is not inside a literal or comment, and a quote that does not close
// on its own line is an ordinary character there.
func ExtractDefinitions(block string) ([]*Definition, error) {
	var defs []*Definition
	lineStart := true
	for i := 0; i < len(block); {
		c := block[i]
		switch {
		case c == '\n':
			lineStart = true
			i++
			continue
		case c == ' ' || c == '\t' || c == '\r':
			i++
			continue
		case lineStart && strings.HasPrefix(block[i:], "$macro") && !identAfter(block, i+len("$macro")):
			def, end, err := extractDefinition(block, i)
			if err != nil {
				return nil, err
			}
			defs = append(defs, def)
			i = end
		default:
			i = skipOpaque(block, i)
		}
		lineStart = false
	}
	return defs, nil
}

// extractDefinition parses the definition whose "$macro" starts at at and
// returns it with the offset just past its ")#".
func extractDefinition(block string, at int) (*Definition, int, error) {
	sigStart := at + len("$macro")
	open, err := findBodyOpen(block, sigStart)
	if err != nil {
		return nil, 0, blockError(err, "cannot tokenize macro signature")
	}
	if open < 0 {
		return nil, 0, &MalformedBlockError{Offset: at, Msg: "macro has no #( body"}
	}
	closing := findBodyClose(block, open+2)
	if closing < 0 {
		return nil, 0, &MalformedBlockError{Offset: open, Msg: "unterminated macro body, expected )#"}
	}

	def, err := NewDefinition(block[sigStart:open], dedent(block[open+2:closing]))
	if err != nil {
		return nil, 0, &MalformedBlockError{Offset: at, Msg: "invalid macro definition", Err: err}
	}
	return def, closing + 2, nil
}

// findBodyOpen returns the offset of the "#(" ending the signature that
// starts at from, or -1. Literals and comments in the signature must close.
func findBodyOpen(block string, from int) (int, error) {
	for i := from; i < len(block); {
		switch {
		case isQuote(block[i]):
			end, err := skipLiteral(block, i)
			if err != nil {
				return 0, err
			}
			i = end
		case isCommentStart(block, i):
			end, err := skipComment(block, i)
			if err != nil {
				return 0, err
			}
			i = end
		case strings.HasPrefix(block[i:], "#("):
			return i, nil
		default:
			i++
		}
	}
	return -1, nil
}

// findBodyClose returns the offset of the ")#" ending a body that starts at
// from, or -1.
func findBodyClose(block string, from int) int {
	for i := from; i < len(block); {
		if strings.HasPrefix(block[i:], ")#") {
			return i
		}
		i = skipOpaque(block, i)
	}
	return -1
}

// skipOpaque steps over the literal or comment at i, or over one byte when
// there is none or it does not close.
func skipOpaque(src string, i int) int {
	switch {
	case isQuote(src[i]):
		if end, err := skipLiteral(src, i); err == nil {
			return end
		}
	case isCommentStart(src, i):
		if end, err := skipComment(src, i); err == nil {
			return end
		}
	}
	return i + 1
}

func blockError(err error, msg string) error {
	var te *TokenizeError
	if errors.As(err, &te) {
		return &MalformedBlockError{Offset: te.Offset, Msg: msg, Err: err}
	}
	return &MalformedBlockError{Msg: msg, Err: err}
}

// dedent drops leading blank lines and trailing whitespace, then removes
// the indentation shared by every non-blank line.
func dedent(body string) string {
	lines := strings.Split(strings.TrimRight(body, " \t\r\n"), "\n")
	for len(lines) > 0 && strings.TrimSpace(lines[0]) == "" {
		lines = lines[1:]
	}
	if len(lines) == 0 {
		return ""
	}

	common := ""
	first := true
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		indent := line[:len(line)-len(strings.TrimLeft(line, " \t"))]
		if first {
			common, first = indent, false
			continue
		}
		for !strings.HasPrefix(indent, common) {
			common = common[:len(common)-1]
		}
	}

	for i, line := range lines {
		if strings.HasPrefix(line, common) {
			lines[i] = line[len(common):]
		} else {
			lines[i] = strings.TrimLeft(line, " \t")
		}
	}
	return strings.Join(lines, "\n")
}

// StripBlock slices the "<marker> { ... }" region out of source. It returns
// the text between the braces and source with the region removed. A source
// without the marker yields an empty block and source unchanged. Markers
// and braces inside literals or comments are ignored.
func StripBlock(source, marker string) (string, string, error) {
	block, rest, _, err := stripBlock(source, marker)
	return block, rest, err
}

// stripBlock is StripBlock that also reports the offset of the block text.
func stripBlock(source, marker string) (string, string, int, error) {
	if marker == "" {
		marker = DefaultMarker
	}
	regions := opaqueRegions(source)

	idx := -1
	for from := 0; from < len(source); {
		k := strings.Index(source[from:], marker)
		if k < 0 {
			break
		}
		if !inRegion(regions, from+k) {
			idx = from + k
			break
		}
		from += k + 1
	}
	if idx < 0 {
		return "", source, 0, nil
	}

	open := skipSpace(source, idx+len(marker))
	if open >= len(source) || source[open] != '{' {
		return "", "", 0, &MalformedBlockError{Offset: idx, Msg: marker + " found but no opening {"}
	}
	closing, ok := matchBrace(source, open)
	if !ok {
		return "", "", 0, &MalformedBlockError{Offset: open, Msg: "unclosed " + marker + " block"}
	}

	end := closing + 1
	if strings.HasPrefix(source[end:], "\r\n") {
		end += 2
	} else if end < len(source) && source[end] == '\n' {
		end++
	}
	return source[open+1 : closing], source[:idx] + source[end:], open + 1, nil
}

// matchBrace counts braces from source[open], stepping over literals and
// comments. Unlike findClosing it ignores other bracket kinds, so macro
// patterns with unpaired brackets do not break the block.
func matchBrace(source string, open int) (int, bool) {
	depth := 0
	for i := open; i < len(source); {
		c := source[i]
		switch {
		case isQuote(c):
			// a quote that does not close on its line, as in a regex literal,
			// is an ordinary character
			if end, err := skipLiteral(source, i); err == nil {
				i = end
				continue
			}
		case isCommentStart(source, i):
			end, err := skipComment(source, i)
			if err != nil {
				return 0, false
			}
			i = end
			continue
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return i, true
			}
		}
		i++
	}
	return 0, false
}

// ParseSource splits source into its macro definitions and the remaining
// text to expand. Error offsets are relative to source.
func ParseSource(source, marker string) ([]*Definition, string, error) {
	block, rest, start, err := stripBlock(source, marker)
	if err != nil {
		return nil, "", err
	}
	if strings.TrimSpace(block) == "" {
		return nil, rest, nil
	}
	defs, err := ExtractDefinitions(block)
	if err != nil {
		var mbe *MalformedBlockError
		if errors.As(err, &mbe) {
			mbe.Offset += start
		}
		return nil, "", err
	}
	return defs, rest, nil
}
