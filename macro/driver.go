package macro

import (
	"fmt"
	"strings"
)

// DefaultMaxPasses bounds expansion when the caller passes a non-positive limit.
const DefaultMaxPasses = 20

// Result describes a finished expansion.
type Result struct {
	Text string
	// Passes counts the passes that changed the text.
	Passes int
	// Replacements counts every invocation that was rewritten.
	Replacements int
}

// Driver applies a set of definitions to source text until it stops changing.
type Driver struct {
	defs      []*Definition
	maxPasses int
}

// NewDriver returns a Driver for defs. Definitions are tried in order.
func NewDriver(defs []*Definition, maxPasses int) *Driver {
	if maxPasses <= 0 {
		maxPasses = DefaultMaxPasses
	}
	return &Driver{defs: defs, maxPasses: maxPasses}
}

// Expand rewrites src with defs and returns the fixed point text.
func Expand(src string, defs []*Definition, maxPasses int) (string, error) {
	res, err := NewDriver(defs, maxPasses).Run(src)
	if err != nil {
		return "", err
	}
	return res.Text, nil
}

// Run expands src pass by pass. A pass that leaves the text unchanged ends
// the run; reaching the pass limit without one fails with
// ErrExpansionDivergence.
func (d *Driver) Run(src string) (*Result, error) {
	res := &Result{Text: src}
	if len(d.defs) == 0 {
		return res, nil
	}
	for pass := 0; pass < d.maxPasses; pass++ {
		next, n, err := d.applyOnce(res.Text)
		if err != nil {
			return nil, err
		}
		if next == res.Text {
			return res, nil
		}
		res.Text = next
		res.Passes++
		res.Replacements += n
	}
	return nil, fmt.Errorf("%w: limit %d", ErrExpansionDivergence, d.maxPasses)
}

// applyOnce runs every definition over text once, then resolves
// expression-position invocations.
func (d *Driver) applyOnce(text string) (string, int, error) {
	total := 0
	for i := range d.defs {
		var n int
		text, n = d.applyDefinition(text, d.defs[i])
		total += n
	}
	text, n, err := d.expandExpressions(text, 0)
	if err != nil {
		return "", 0, err
	}
	return text, total + n, nil
}

// applyDefinition replaces every statement-position invocation of def,
// left to right. Rendered output is not rescanned within the same call.
func (d *Driver) applyDefinition(text string, def *Definition) (string, int) {
	if !strings.Contains(text, def.Head) {
		return text, 0
	}
	regions := opaqueRegions(text)

	var out strings.Builder
	count, copied, i := 0, 0, 0
	for i < len(text) {
		lineStart := i
		at := skipInline(text, i)
		if d.isHeadAt(text, at, def.Head, regions) {
			if end, env, ok := Match(def.Pattern[1:], text, at+len(def.Head)); ok {
				end, newline := extendToLineEnd(text, end)
				out.WriteString(text[copied:lineStart])
				out.WriteString(reindent(Render(def.Body, env), text[lineStart:at]))
				if newline {
					out.WriteByte('\n')
				}
				copied = end
				count++
				i = end
				if newline || end >= len(text) {
					continue
				}
			}
		}
		nl := strings.IndexByte(text[i:], '\n')
		if nl < 0 {
			break
		}
		i += nl + 1
	}
	if count == 0 {
		return text, 0
	}
	out.WriteString(text[copied:])
	return out.String(), count
}

// isHeadAt reports whether head starts a candidate invocation at text[at].
func (d *Driver) isHeadAt(text string, at int, head string, regions []Span) bool {
	if !strings.HasPrefix(text[at:], head) {
		return false
	}
	if isWordLike(head) && identAfter(text, at+len(head)) {
		return false
	}
	return !inRegion(regions, at)
}

// extendToLineEnd moves end over trailing blanks when nothing else remains
// on the line. It reports whether a line break was consumed.
func extendToLineEnd(text string, end int) (int, bool) {
	j := end
	for j < len(text) && (text[j] == ' ' || text[j] == '\t' || text[j] == '\r') {
		j++
	}
	switch {
	case j >= len(text):
		return len(text), false
	case text[j] == '\n':
		return j + 1, true
	}
	return end, false
}

// reindent trims trailing whitespace from rendered and prefixes every
// non-empty line with indent.
func reindent(rendered, indent string) string {
	rendered = strings.TrimRight(rendered, " \t\r\n")
	if indent == "" {
		return rendered
	}
	lines := strings.Split(rendered, "\n")
	for i, line := range lines {
		if strings.TrimSpace(line) != "" {
			lines[i] = indent + line
		}
	}
	return strings.Join(lines, "\n")
}

// expandExpressions rewrites "$( HEAD ... )" occurrences outside literals
// whose interior is entirely consumed by one definition. Results are
// expanded recursively; nesting deeper than the pass limit diverges.
func (d *Driver) expandExpressions(text string, depth int) (string, int, error) {
	if !strings.Contains(text, "$(") {
		return text, 0, nil
	}
	if depth >= d.maxPasses {
		return "", 0, fmt.Errorf("%w: nested expression depth %d", ErrExpansionDivergence, depth)
	}
	regions := opaqueRegions(text)

	var out strings.Builder
	count, copied := 0, 0
	for i := 0; i+1 < len(text); i++ {
		if text[i] != '$' || text[i+1] != '(' || inRegion(regions, i) {
			continue
		}
		closing, ok := findClosing(text, i+1)
		if !ok {
			continue
		}
		rendered, matched := d.matchExpression(text[i+2 : closing])
		if !matched {
			continue
		}
		rendered, n, err := d.expandExpressions(rendered, depth+1)
		if err != nil {
			return "", 0, err
		}
		out.WriteString(text[copied:i])
		out.WriteString(strings.TrimSpace(rendered))
		copied = closing + 1
		count += n + 1
		i = closing
	}
	if count == 0 {
		return text, 0, nil
	}
	out.WriteString(text[copied:])
	return out.String(), count, nil
}

// matchExpression renders inner with the first definition whose pattern
// consumes all of it.
func (d *Driver) matchExpression(inner string) (string, bool) {
	at := skipSpace(inner, 0)
	for _, def := range d.defs {
		if !strings.HasPrefix(inner[at:], def.Head) {
			continue
		}
		if isWordLike(def.Head) && identAfter(inner, at+len(def.Head)) {
			continue
		}
		end, env, ok := matchNested(def.Pattern[1:], inner, at+len(def.Head), 1)
		if !ok || strings.TrimSpace(inner[end:]) != "" {
			continue
		}
		return Render(def.Body, env), true
	}
	return "", false
}
