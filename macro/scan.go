package macro

import (
	"sort"
	"unicode"
	"unicode/utf8"
)

/*
Literal scanning

Every component that walks raw text (the tokenizer, the pattern compiler,
the matcher and the driver) has to step over quoted literals without
looking inside them. They all share skipLiteral, a single-pass scanner
driven by an explicit frame stack instead of regular expressions:

  - frameQuote    inside '...' or "..."; closes on the same delimiter and
                  may not contain a raw line break.
  - frameTemplate inside `...`; closes on a backtick, and "${" pushes an
                  interpolation frame.
  - frameInterp   inside ${...}; tracks brace depth and may push nested
                  quote or template frames.

A backslash in a quote or template frame always consumes the next byte, so
an escaped delimiter never closes the literal.
*/

type frameKind int8

const (
	frameQuote frameKind = iota
	frameTemplate
	frameInterp
)

type frame struct {
	kind  frameKind
	delim byte
	depth int
}

func isQuote(c byte) bool {
	return c == '"' || c == '\'' || c == '`'
}

func openFrame(c byte) frame {
	if c == '`' {
		return frame{kind: frameTemplate, delim: c}
	}
	return frame{kind: frameQuote, delim: c}
}

// skipLiteral returns the index just past the literal opening at src[i].
// src[i] must be a quote or backtick.
func skipLiteral(src string, i int) (int, error) {
	stack := []frame{openFrame(src[i])}
	j := i + 1
	for j < len(src) {
		top := &stack[len(stack)-1]
		c := src[j]

		switch top.kind {
		case frameQuote:
			switch c {
			case '\\':
				j += 2
				continue
			case '\n':
				return 0, &TokenizeError{Offset: i, Msg: "unterminated string literal"}
			case top.delim:
				stack = stack[:len(stack)-1]
			}

		case frameTemplate:
			switch {
			case c == '\\':
				j += 2
				continue
			case c == '`':
				stack = stack[:len(stack)-1]
			case c == '$' && j+1 < len(src) && src[j+1] == '{':
				stack = append(stack, frame{kind: frameInterp, depth: 1})
				j += 2
				continue
			}

		case frameInterp:
			switch c {
			case '\'', '"', '`':
				stack = append(stack, openFrame(c))
			case '{':
				top.depth++
			case '}':
				top.depth--
				if top.depth == 0 {
					stack = stack[:len(stack)-1]
				}
			}
		}

		j++
		if len(stack) == 0 {
			return j, nil
		}
	}

	if src[i] == '`' {
		return 0, &TokenizeError{Offset: i, Msg: "unterminated template literal"}
	}
	return 0, &TokenizeError{Offset: i, Msg: "unterminated string literal"}
}

// isCommentStart reports whether a line or block comment opens at src[i].
func isCommentStart(src string, i int) bool {
	return src[i] == '/' && i+1 < len(src) && (src[i+1] == '/' || src[i+1] == '*')
}

// skipComment returns the index just past the comment opening at src[i].
// A line comment ends before its line break.
func skipComment(src string, i int) (int, error) {
	if src[i+1] == '/' {
		for j := i + 2; j < len(src); j++ {
			if src[j] == '\n' {
				return j, nil
			}
		}
		return len(src), nil
	}
	for j := i + 2; j+1 < len(src); j++ {
		if src[j] == '*' && src[j+1] == '/' {
			return j + 2, nil
		}
	}
	return 0, &TokenizeError{Offset: i, Msg: "unterminated block comment"}
}

var closerOf = map[byte]byte{'(': ')', '[': ']', '{': '}'}

func isOpener(c byte) bool { return c == '(' || c == '[' || c == '{' }

func isCloser(c byte) bool { return c == ')' || c == ']' || c == '}' }

// findClosing returns the index of the delimiter closing the opener at
// src[open]. Literals and comments are skipped whole; nested delimiters of
// any kind must be properly paired.
func findClosing(src string, open int) (int, bool) {
	stack := []byte{closerOf[src[open]]}
	j := open + 1
	for j < len(src) {
		c := src[j]
		switch {
		case isQuote(c):
			end, err := skipLiteral(src, j)
			if err != nil {
				return 0, false
			}
			j = end
			continue
		case isCommentStart(src, j):
			end, err := skipComment(src, j)
			if err != nil {
				return 0, false
			}
			j = end
			continue
		case isOpener(c):
			stack = append(stack, closerOf[c])
		case isCloser(c):
			if stack[len(stack)-1] != c {
				return 0, false
			}
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				return j, true
			}
		}
		j++
	}
	return 0, false
}

func isIdentStart(r rune) bool {
	return unicode.IsLetter(r) || r == '_'
}

func isIdentChar(r rune) bool {
	return isIdentStart(r) || unicode.IsDigit(r)
}

// identAt returns the identifier starting at src[i], if any.
func identAt(src string, i int) (string, int, bool) {
	if i >= len(src) {
		return "", i, false
	}
	r, size := utf8.DecodeRuneInString(src[i:])
	if !isIdentStart(r) {
		return "", i, false
	}
	j := scanIdent(src, i+size)
	return src[i:j], j, true
}

// scanIdent advances over identifier characters starting at src[i].
func scanIdent(src string, i int) int {
	for i < len(src) {
		r, size := utf8.DecodeRuneInString(src[i:])
		if !isIdentChar(r) {
			break
		}
		i += size
	}
	return i
}

// isWordLike reports whether s starts and ends with identifier characters,
// in which case matching it requires word boundaries.
func isWordLike(s string) bool {
	if s == "" {
		return false
	}
	first, _ := utf8.DecodeRuneInString(s)
	last, _ := utf8.DecodeLastRuneInString(s)
	return isIdentChar(first) && isIdentChar(last)
}

// identBefore reports whether the rune ending at src[i] is an identifier character.
func identBefore(src string, i int) bool {
	if i <= 0 {
		return false
	}
	r, _ := utf8.DecodeLastRuneInString(src[:i])
	return isIdentChar(r)
}

// identAfter reports whether the rune starting at src[i] is an identifier character.
func identAfter(src string, i int) bool {
	if i >= len(src) {
		return false
	}
	r, _ := utf8.DecodeRuneInString(src[i:])
	return isIdentChar(r)
}

// skipSpace advances over whitespace, line breaks included.
func skipSpace(src string, i int) int {
	for i < len(src) {
		if c := src[i]; c < utf8.RuneSelf {
			if c != ' ' && c != '\t' && c != '\n' && c != '\r' && c != '\f' && c != '\v' {
				return i
			}
			i++
			continue
		}
		r, size := utf8.DecodeRuneInString(src[i:])
		if !unicode.IsSpace(r) {
			return i
		}
		i += size
	}
	return i
}

// skipLineSpace advances over whitespace but stops at a line break.
func skipLineSpace(src string, i int) int {
	for i < len(src) {
		if c := src[i]; c < utf8.RuneSelf {
			if c != ' ' && c != '\t' && c != '\r' && c != '\f' && c != '\v' {
				return i
			}
			i++
			continue
		}
		r, size := utf8.DecodeRuneInString(src[i:])
		if !unicode.IsSpace(r) {
			return i
		}
		i += size
	}
	return i
}

// opaqueRegions lists the literals and comments of free-form text. Unlike
// the tokenizer it never fails: a quote that does not close on its own line
// is treated as an ordinary character.
func opaqueRegions(src string) []Span {
	var regions []Span
	i := 0
	for i < len(src) {
		c := src[i]
		switch {
		case isQuote(c):
			end, err := skipLiteral(src, i)
			if err != nil {
				i++
				continue
			}
			regions = append(regions, Span{Start: i, End: end})
			i = end
		case isCommentStart(src, i):
			end, err := skipComment(src, i)
			if err != nil {
				end = len(src)
			}
			regions = append(regions, Span{Start: i, End: end})
			i = end
		default:
			i++
		}
	}
	return regions
}

// inRegion reports whether offset falls inside one of the sorted regions.
func inRegion(regions []Span, offset int) bool {
	k := sort.Search(len(regions), func(n int) bool { return regions[n].End > offset })
	return k < len(regions) && regions[k].Start <= offset
}
