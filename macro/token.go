package macro

import "fmt"

// TokenKind defines the lexical class of a token.
type TokenKind int

const (
	TokenWord        TokenKind = iota // identifier or number run
	TokenSymbol                       // single punctuation rune
	TokenString                       // '...' or "..."
	TokenTemplate                     // `...` with optional ${...} interpolation
	TokenPlaceholder                  // $name
	TokenNewline                      // '\n'
)

func (k TokenKind) String() string {
	switch k {
	case TokenWord:
		return "Word"
	case TokenSymbol:
		return "Symbol"
	case TokenString:
		return "String"
	case TokenTemplate:
		return "Template"
	case TokenPlaceholder:
		return "Placeholder"
	case TokenNewline:
		return "Newline"
	default:
		return "Unknown"
	}
}

// Span is a half-open byte range [Start, End) in the tokenized input.
type Span struct {
	Start int
	End   int
}

// Token represents a single lexical unit.
type Token struct {
	Kind TokenKind
	Text string
	Span Span
}

func (t Token) String() string {
	return fmt.Sprintf("%s(%q)@%d", t.Kind, t.Text, t.Span.Start)
}
