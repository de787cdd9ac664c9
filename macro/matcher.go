package macro

import (
	"strings"
)

// Match attempts to consume src from offset according to nodes. On success
// it returns the offset just past the consumed text and the captured
// bindings. The head literal is expected to be stripped by the caller.
//
// Outside the brackets the pattern itself opens, an invocation stays on its
// line: literals and placeholders do not look past a line break.
func Match(nodes []Node, src string, offset int) (int, *Bindings, bool) {
	return matchNested(nodes, src, offset, 0)
}

// matchNested is Match for text already enclosed in depth brackets.
func matchNested(nodes []Node, src string, offset, depth int) (int, *Bindings, bool) {
	m := &matcher{src: src, depth: depth}
	env := NewBindings()
	end, ok := m.matchSequence(nodes, offset, env)
	if !ok {
		return offset, nil, false
	}
	return end, env, true
}

type matcher struct {
	src string
	// depth counts the pattern's open brackets at the cursor.
	depth int
}

// skip advances over whitespace, crossing line breaks only inside brackets.
func (m *matcher) skip(pos int) int {
	if m.depth > 0 {
		return skipSpace(m.src, pos)
	}
	return skipLineSpace(m.src, pos)
}

// matchSequence matches nodes in order. A failed group is skipped; any
// other failure fails the sequence.
func (m *matcher) matchSequence(nodes []Node, pos int, env *Bindings) (int, bool) {
	for _, node := range nodes {
		next, ok := m.matchNode(node, pos, env)
		if !ok {
			if _, optional := node.(*GroupNode); optional {
				continue
			}
			return pos, false
		}
		pos = next
	}
	return pos, true
}

func (m *matcher) matchNode(node Node, pos int, env *Bindings) (int, bool) {
	switch n := node.(type) {
	case *LiteralNode:
		return m.matchLiteral(n.Text, pos)

	case *PlaceholderNode:
		val, next, ok := m.readAtom(pos)
		if !ok {
			return pos, false
		}
		env.Scalars[n.Name] = val
		return next, true

	case *RestOfLineNode:
		val, next := m.readRestOfLine(pos)
		env.Scalars[n.Name] = val
		return next, true

	case *BalancedNode:
		p := m.skip(pos)
		if p >= len(m.src) || m.src[p] != n.Open {
			return pos, false
		}
		end, ok := findClosing(m.src, p)
		if !ok || m.src[end] != n.Close {
			return pos, false
		}
		env.Scalars[n.Name] = strings.TrimSpace(m.src[p+1 : end])
		return end + 1, true

	case *RestNode:
		val, next, ok := m.readRest(pos)
		if !ok {
			return pos, false
		}
		env.Scalars[n.Name] = val
		return next, true

	case *GroupNode:
		scope := NewBindings()
		depth := m.depth
		next, ok := m.matchSequence(n.Children, pos, scope)
		if !ok {
			m.depth = depth
			return pos, false
		}
		env.merge(scope)
		return next, true

	case *RepetitionNode:
		return m.matchRepetition(n, pos, env), true
	}
	return pos, false
}

// matchLiteral requires lit after optional whitespace. Identifier-like
// literals must not touch identifier characters on either side. Bracket
// literals move the depth.
func (m *matcher) matchLiteral(lit string, pos int) (int, bool) {
	p := m.skip(pos)
	if !strings.HasPrefix(m.src[p:], lit) {
		return pos, false
	}
	end := p + len(lit)
	if isWordLike(lit) && (identBefore(m.src, p) || identAfter(m.src, end)) {
		return pos, false
	}
	if len(lit) == 1 {
		switch {
		case isOpener(lit[0]):
			m.depth++
		case isCloser(lit[0]) && m.depth > 0:
			m.depth--
		}
	}
	return end, true
}

// isSeparator reports whether c ends a bare atom.
func isSeparator(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '\f', '\v', ',', ':', ';', '.', '(', '[', ')', ']', '}', '{':
		return true
	}
	return false
}

// readAtom captures one unit: the trimmed interior of a bracketed run, a
// whole string or template literal, a block comment fused with the
// template that follows it, or a maximal run of non-separator bytes.
func (m *matcher) readAtom(pos int) (string, int, bool) {
	src := m.src
	p := m.skip(pos)
	if p >= len(src) || src[p] == '\n' {
		return "", pos, false
	}

	c := src[p]
	switch {
	case isOpener(c):
		end, ok := findClosing(src, p)
		if !ok {
			return "", pos, false
		}
		return strings.TrimSpace(src[p+1 : end]), end + 1, true

	case isQuote(c):
		end, err := skipLiteral(src, p)
		if err != nil {
			return "", pos, false
		}
		return src[p:end], end, true

	case strings.HasPrefix(src[p:], "/*"):
		if end, ok := m.annotatedTemplate(p); ok {
			return src[p:end], end, true
		}
	}

	end := p
	for end < len(src) && !isSeparator(src[end]) {
		end++
	}
	if end == p {
		return "", pos, false
	}
	return src[p:end], end, true
}

// annotatedTemplate recognizes /*tag*/`...` starting at p.
func (m *matcher) annotatedTemplate(p int) (int, bool) {
	end, err := skipComment(m.src, p)
	if err != nil {
		return 0, false
	}
	q := skipInline(m.src, end)
	if q >= len(m.src) || m.src[q] != '`' {
		return 0, false
	}
	end, err = skipLiteral(m.src, q)
	if err != nil {
		return 0, false
	}
	return end, true
}

// readRestOfLine captures up to the next line break or ';' without
// skipping leading whitespace. A terminating ';' is consumed.
func (m *matcher) readRestOfLine(pos int) (string, int) {
	end := pos
	for end < len(m.src) && m.src[end] != '\n' && m.src[end] != ';' {
		end++
	}
	val := strings.TrimSpace(m.src[pos:end])
	if end < len(m.src) && m.src[end] == ';' {
		end++
	}
	return val, end
}

// readRest captures the trailing run of an invocation: everything up to a
// line break, a ';' or an unmatched closing bracket at depth zero. Nested
// brackets may span lines and literals are copied whole.
func (m *matcher) readRest(pos int) (string, int, bool) {
	src := m.src
	var stack []byte
	j := pos
loop:
	for j < len(src) {
		c := src[j]
		switch {
		case isQuote(c):
			end, err := skipLiteral(src, j)
			if err != nil {
				return "", pos, false
			}
			j = end
			continue
		case len(stack) == 0 && strings.HasPrefix(src[j:], "//"):
			break loop
		case isOpener(c):
			stack = append(stack, closerOf[c])
		case isCloser(c):
			if len(stack) == 0 {
				break loop
			}
			if stack[len(stack)-1] != c {
				return "", pos, false
			}
			stack = stack[:len(stack)-1]
		case (c == '\n' || c == ';') && len(stack) == 0:
			break loop
		}
		j++
	}
	if len(stack) != 0 {
		return "", pos, false
	}
	return strings.TrimSpace(src[pos:j]), j, true
}

// matchRepetition matches n.Children as many times as possible. It never
// fails: zero iterations is a valid outcome. Outside brackets the
// iterations stay on the invocation's line.
func (m *matcher) matchRepetition(n *RepetitionNode, pos int, env *Bindings) int {
	rep := Repeat{Vars: n.Vars}
	for {
		p := m.skip(pos)
		if p >= len(m.src) || isCloser(m.src[p]) || m.src[p] == '\n' {
			break
		}

		scope := NewBindings()
		depth := m.depth
		next, ok := m.matchSequence(n.Children, pos, scope)
		if !ok || next == pos {
			m.depth = depth
			break
		}
		rep.Items = append(rep.Items, scope.Scalars)
		pos = next

		p = m.skip(pos)
		if p < len(m.src) && (m.src[p] == ',' || m.src[p] == ';') {
			pos = p + 1
		}
	}
	env.addRepeat(rep)
	return pos
}
