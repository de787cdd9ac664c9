package macro

import (
	"strings"
)

// CompilePattern parses a macro signature such as
//
//	struct $name [ $( $attr : $val ),... ]
//
// into a node list. The first node is always the literal head.
func CompilePattern(signature string) ([]Node, error) {
	c := &compiler{signature: signature}
	nodes, err := c.compile(strings.TrimSpace(signature))
	if err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, c.errorf("empty pattern")
	}
	if _, ok := Head(nodes); !ok {
		return nil, c.errorf("pattern has no literal head token")
	}
	return nodes, nil
}

type compiler struct {
	signature string
}

func (c *compiler) errorf(msg string) error {
	return &PatternCompileError{Signature: c.signature, Msg: msg}
}

// compile scans src for the next "$(" or bracketed capture, turns the text
// before it into literal and placeholder nodes, and recurses into groups.
func (c *compiler) compile(src string) ([]Node, error) {
	var nodes []Node
	i := 0
	for i < len(src) {
		next, err := c.nextConstruct(src, i)
		if err != nil {
			return nil, err
		}
		if next < 0 {
			if nodes, err = c.flush(nodes, src[i:]); err != nil {
				return nil, err
			}
			break
		}
		if nodes, err = c.flush(nodes, src[i:next]); err != nil {
			return nil, err
		}

		if src[next] == '$' {
			node, end, err := c.compileGroup(src, next)
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, node)
			i = end
			continue
		}

		if node, end, ok := compileBracket(src, next); ok {
			nodes = append(nodes, node)
			i = end
			continue
		}
		// a bracket that does not wrap a capture is an ordinary literal
		nodes = append(nodes, &LiteralNode{Text: src[next : next+1]})
		i = next + 1
	}
	return nodes, nil
}

// nextConstruct returns the offset of the next "$(", "[$", "($" or "{$"
// outside quoted literals, or -1.
func (c *compiler) nextConstruct(src string, i int) (int, error) {
	for i < len(src) {
		ch := src[i]
		switch {
		case isQuote(ch):
			end, err := skipLiteral(src, i)
			if err != nil {
				return 0, c.errorf(err.Error())
			}
			i = end
			continue
		case ch == '$' && i+1 < len(src) && src[i+1] == '(':
			return i, nil
		case isOpener(ch) && i+1 < len(src) && src[i+1] == '$':
			return i, nil
		}
		i++
	}
	return -1, nil
}

// flush tokenizes plain pattern text into literal, placeholder and
// rest-of-line nodes.
func (c *compiler) flush(nodes []Node, text string) ([]Node, error) {
	tokens, err := Tokenize(text)
	if err != nil {
		return nil, c.errorf(err.Error())
	}
	for k := 0; k < len(tokens); k++ {
		tok := tokens[k]
		switch tok.Kind {
		case TokenNewline:
			continue
		case TokenPlaceholder:
			name := tok.Text[1:]
			if hasEllipsis(tokens, k) {
				nodes = append(nodes, &RestOfLineNode{Name: name})
				k += 3
				continue
			}
			nodes = append(nodes, &PlaceholderNode{Name: name})
		default:
			if tok.Text == "" {
				continue
			}
			nodes = append(nodes, &LiteralNode{Text: tok.Text})
		}
	}
	return nodes, nil
}

// hasEllipsis reports whether tokens[k] is immediately followed by "...".
func hasEllipsis(tokens []Token, k int) bool {
	if k+3 >= len(tokens) {
		return false
	}
	end := tokens[k].Span.End
	for d := 1; d <= 3; d++ {
		t := tokens[k+d]
		if t.Kind != TokenSymbol || t.Text != "." || t.Span.Start != end {
			return false
		}
		end = t.Span.End
	}
	return true
}

// compileGroup compiles the "$( ... )" construct starting at src[at].
func (c *compiler) compileGroup(src string, at int) (Node, int, error) {
	depth := 1
	j := at + 2
	for j < len(src) && depth > 0 {
		ch := src[j]
		if isQuote(ch) {
			end, err := skipLiteral(src, j)
			if err != nil {
				return nil, 0, c.errorf(err.Error())
			}
			j = end
			continue
		}
		switch ch {
		case '(':
			depth++
		case ')':
			depth--
		}
		j++
	}
	if depth != 0 {
		return nil, 0, c.errorf("unterminated $( group")
	}

	inner := src[at+2 : j-1]
	children, err := c.compile(strings.TrimSpace(inner))
	if err != nil {
		return nil, 0, err
	}
	vars := collectVars(children)

	var sep byte
	rest := src[j:]
	if len(rest) > 0 && (rest[0] == ',' || rest[0] == ';') && strings.HasPrefix(rest[1:], "...") {
		sep = rest[0]
		rest = rest[1:]
		j++
	}
	if strings.HasPrefix(rest, "...") {
		return &RepetitionNode{Children: children, Vars: vars, Sep: sep}, j + 3, nil
	}
	return &GroupNode{Children: children, Vars: vars}, j, nil
}

// compileBracket recognizes [$name], [$name...], ($name) and {$name}
// starting at src[at]. It reports false when the bracket is a plain literal.
func compileBracket(src string, at int) (Node, int, bool) {
	open := src[at]
	j := skipInline(src, at+1)
	if j >= len(src) || src[j] != '$' {
		return nil, 0, false
	}
	name, j, ok := identAt(src, j+1)
	if !ok {
		return nil, 0, false
	}
	variadic := strings.HasPrefix(src[j:], "...")
	if variadic {
		if open != '[' {
			return nil, 0, false
		}
		j += 3
	}
	j = skipInline(src, j)
	if j >= len(src) || src[j] != closerOf[open] {
		return nil, 0, false
	}
	if variadic {
		return &RestNode{Name: name}, j + 1, true
	}
	return &BalancedNode{Name: name, Open: open, Close: closerOf[open]}, j + 1, true
}

// skipInline advances over spaces and tabs only.
func skipInline(src string, i int) int {
	for i < len(src) && (src[i] == ' ' || src[i] == '\t') {
		i++
	}
	return i
}
