package macro

import (
	"unicode"
	"unicode/utf8"
)

// Lexer scans an input string and produces a flat token sequence.
type Lexer struct {
	input    string
	position int
	tokens   []Token
}

// NewLexer returns a Lexer positioned at the start of input.
func NewLexer(input string) *Lexer {
	return &Lexer{
		input:  input,
		tokens: make([]Token, 0),
	}
}

// Tokenize is shorthand for NewLexer(src).Tokenize().
func Tokenize(src string) ([]Token, error) {
	return NewLexer(src).Tokenize()
}

// Tokenize processes the entire input. Line breaks are kept as
// TokenNewline, other whitespace and comments are dropped.
func (l *Lexer) Tokenize() ([]Token, error) {
	for l.position < len(l.input) {
		start := l.position
		c := l.input[start]

		switch {
		case c == '\n':
			l.addToken(TokenNewline, start, start+1)

		case c == ' ' || c == '\t' || c == '\r' || c == '\f' || c == '\v':
			l.position++

		case isCommentStart(l.input, start):
			end, err := skipComment(l.input, start)
			if err != nil {
				return nil, err
			}
			l.position = end

		case isQuote(c):
			end, err := skipLiteral(l.input, start)
			if err != nil {
				return nil, err
			}
			kind := TokenString
			if c == '`' {
				kind = TokenTemplate
			}
			l.addToken(kind, start, end)

		case c == '$':
			if _, end, ok := identAt(l.input, start+1); ok {
				l.addToken(TokenPlaceholder, start, end)
				continue
			}
			l.addToken(TokenSymbol, start, start+1)

		default:
			l.lexRune(start)
		}
	}
	return l.tokens, nil
}

// lexRune handles words, non-ASCII whitespace and single-rune symbols.
func (l *Lexer) lexRune(start int) {
	r, size := utf8.DecodeRuneInString(l.input[start:])
	switch {
	case isIdentChar(r):
		l.addToken(TokenWord, start, scanIdent(l.input, start))
	case unicode.IsSpace(r):
		l.position += size
	default:
		l.addToken(TokenSymbol, start, start+size)
	}
}

// addToken appends the token covering input[start:end] and moves past it.
func (l *Lexer) addToken(kind TokenKind, start, end int) {
	l.tokens = append(l.tokens, Token{
		Kind: kind,
		Text: l.input[start:end],
		Span: Span{Start: start, End: end},
	})
	l.position = end
}
