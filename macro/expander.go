package macro

import (
	"strings"
	"unicode"

	"github.com/dsljs/dsl/internal/trie"
)

// Render produces the text of a macro body for one set of bindings.
//
// Repetition blocks "$( ... )..." are rendered first, once per captured
// iteration. The remaining text is then scanned once, left to right:
// constructed identifiers "$`...${$x}...`" are resolved and stripped of
// whitespace, and "$name" references are replaced by their values.
// References without a binding are left untouched.
//
// A repetition block iterates the first repetition whose vars include every
// reference in the block that some repetition captured. References to outer
// scalars do not take part in the choice, so a block may mix both.
func Render(body string, env *Bindings) string {
	if env == nil {
		env = NewBindings()
	}
	r := &renderer{env: env}
	return r.render(body)
}

type renderer struct {
	env   *Bindings
	names *trie.Trie
}

// repetitionBlock is one "$( inner )..." occurrence in a body.
type repetitionBlock struct {
	start int
	inner string
	end   int
}

// parseRepetitionBlock reads the block at body[start:], which begins with "$(".
func parseRepetitionBlock(body string, start int) (repetitionBlock, bool) {
	depth := 1
	j := start + 2
	for j < len(body) && depth > 0 {
		c := body[j]
		if isQuote(c) {
			end, err := skipLiteral(body, j)
			if err != nil {
				return repetitionBlock{}, false
			}
			j = end
			continue
		}
		switch c {
		case '(':
			depth++
		case ')':
			depth--
		}
		j++
	}
	if depth != 0 || !strings.HasPrefix(body[j:], "...") {
		return repetitionBlock{}, false
	}
	return repetitionBlock{start: start, inner: body[start+2 : j-1], end: j + 3}, true
}

func (r *renderer) render(body string) string {
	var out strings.Builder
	seg, i := 0, 0
	for {
		idx := strings.Index(body[i:], "$(")
		if idx < 0 {
			break
		}
		start := i + idx
		block, ok := parseRepetitionBlock(body, start)
		if !ok {
			// not a repetition: expression-position invocations are left
			// for the driver
			i = start + 2
			continue
		}

		lineStart := strings.LastIndexByte(body[:start], '\n') + 1
		indent := ""
		aloneBefore := seg <= lineStart && strings.TrimSpace(body[lineStart:start]) == ""
		if aloneBefore {
			indent = body[lineStart:start]
		}

		rendered := r.renderRepetition(block.inner, indent)
		if rendered == "" && aloneBefore {
			lineEnd := strings.IndexByte(body[block.end:], '\n')
			rest := body[block.end:]
			if lineEnd >= 0 {
				rest = body[block.end : block.end+lineEnd]
			}
			if strings.TrimSpace(rest) == "" {
				// drop the line the empty block sat on
				out.WriteString(r.substitute(body[seg:lineStart]))
				if lineEnd >= 0 {
					seg = block.end + lineEnd + 1
				} else {
					seg = len(body)
				}
				i = seg
				continue
			}
		}

		out.WriteString(r.substitute(body[seg:start]))
		out.WriteString(rendered)
		seg, i = block.end, block.end
	}
	out.WriteString(r.substitute(body[seg:]))
	return out.String()
}

// renderRepetition renders inner once per item of the matching repeat,
// one iteration per line.
func (r *renderer) renderRepetition(inner, indent string) string {
	rep := r.env.findRepeat(referencedNames(inner))
	if rep == nil || len(rep.Items) == 0 {
		return ""
	}
	parts := make([]string, 0, len(rep.Items))
	for _, item := range rep.Items {
		sub := &renderer{env: r.env.withItem(item)}
		parts = append(parts, strings.TrimSpace(sub.render(inner)))
	}
	return strings.Join(parts, "\n"+indent)
}

// referencedNames returns the distinct "$name" references in text.
func referencedNames(text string) []string {
	var names []string
	seen := make(map[string]bool)
	for i := 0; i < len(text); i++ {
		if text[i] != '$' {
			continue
		}
		name, end, ok := identAt(text, i+1)
		if !ok {
			continue
		}
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
		i = end - 1
	}
	return names
}

// substitute resolves constructed identifiers and scalar references in a
// single pass, so substituted values are never scanned again.
func (r *renderer) substitute(text string) string {
	if !strings.Contains(text, "$") {
		return text
	}
	var out strings.Builder
	i := 0
	for i < len(text) {
		if text[i] != '$' {
			out.WriteByte(text[i])
			i++
			continue
		}
		if i+1 < len(text) && text[i+1] == '`' {
			if end, err := skipLiteral(text, i+1); err == nil {
				out.WriteString(r.constructIdent(text[i+2 : end-1]))
				i = end
				continue
			}
		}
		if name, end, ok := identAt(text, i+1); ok {
			if val, bound := r.env.Scalars[name]; bound {
				out.WriteString(val)
			} else {
				out.WriteString(text[i:end])
			}
			i = end
			continue
		}
		out.WriteByte('$')
		i++
	}
	return out.String()
}

// constructIdent renders the interior of "$`...`": every ${...} is replaced
// by its resolved content and all whitespace is removed.
func (r *renderer) constructIdent(inner string) string {
	var out strings.Builder
	i := 0
	for i < len(inner) {
		if strings.HasPrefix(inner[i:], "${") {
			end := interpolationEnd(inner, i+2)
			out.WriteString(r.resolveRefs(inner[i+2 : end]))
			i = end + 1
			continue
		}
		out.WriteByte(inner[i])
		i++
	}
	return strings.Map(func(c rune) rune {
		if unicode.IsSpace(c) {
			return -1
		}
		return c
	}, out.String())
}

// interpolationEnd returns the index of the '}' closing an interpolation
// whose content starts at i, or len(s) when it is unclosed.
func interpolationEnd(s string, i int) int {
	depth := 1
	for i < len(s) {
		c := s[i]
		if isQuote(c) {
			if end, err := skipLiteral(s, i); err == nil {
				i = end
				continue
			}
		}
		switch c {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
		i++
	}
	return len(s)
}

// resolveRefs replaces "$name" in expr. A name with no binding falls back
// to the longest bound prefix followed by the rest of the name literally.
func (r *renderer) resolveRefs(expr string) string {
	var out strings.Builder
	i := 0
	for i < len(expr) {
		if expr[i] != '$' {
			out.WriteByte(expr[i])
			i++
			continue
		}
		name, end, ok := identAt(expr, i+1)
		if !ok {
			out.WriteByte('$')
			i++
			continue
		}
		switch val, bound := r.env.Scalars[name]; {
		case bound:
			out.WriteString(val)
		default:
			if prefix, found := r.prefixIndex().LongestPrefix(name); found && prefix != "" {
				out.WriteString(r.env.Scalars[prefix])
				out.WriteString(name[len(prefix):])
			} else {
				out.WriteString(expr[i:end])
			}
		}
		i = end
	}
	return out.String()
}

func (r *renderer) prefixIndex() *trie.Trie {
	if r.names == nil {
		r.names = trie.New()
		for name := range r.env.Scalars {
			r.names.Insert(name)
		}
	}
	return r.names
}
