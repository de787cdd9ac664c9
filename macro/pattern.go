package macro

import (
	"fmt"
	"strings"
)

// NodeType defines the kind of a compiled pattern node.
type NodeType int

const (
	NodeLiteral NodeType = iota
	NodePlaceholder
	NodeRestOfLine
	NodeBalanced
	NodeGroup
	NodeRepetition
	NodeRest
)

// Node is one element of a compiled macro pattern.
type Node interface {
	Type() NodeType
	String() string
}

var (
	_ Node = (*LiteralNode)(nil)
	_ Node = (*PlaceholderNode)(nil)
	_ Node = (*RestOfLineNode)(nil)
	_ Node = (*BalancedNode)(nil)
	_ Node = (*GroupNode)(nil)
	_ Node = (*RepetitionNode)(nil)
	_ Node = (*RestNode)(nil)
)

// LiteralNode must match identical source text.
type LiteralNode struct {
	Text string
}

func (n *LiteralNode) Type() NodeType { return NodeLiteral }
func (n *LiteralNode) String() string { return fmt.Sprintf("Literal(%q)", n.Text) }

// PlaceholderNode captures one atom: a token, a literal or a bracketed run.
type PlaceholderNode struct {
	Name string
}

func (n *PlaceholderNode) Type() NodeType { return NodePlaceholder }
func (n *PlaceholderNode) String() string { return fmt.Sprintf("Placeholder(%s)", n.Name) }

// RestOfLineNode captures everything up to the next line break or ';'.
type RestOfLineNode struct {
	Name string
}

func (n *RestOfLineNode) Type() NodeType { return NodeRestOfLine }
func (n *RestOfLineNode) String() string { return fmt.Sprintf("RestOfLine(%s)", n.Name) }

// BalancedNode captures the interior of one Open...Close run.
type BalancedNode struct {
	Name  string
	Open  byte
	Close byte
}

func (n *BalancedNode) Type() NodeType { return NodeBalanced }
func (n *BalancedNode) String() string {
	return fmt.Sprintf("Balanced(%s %c%c)", n.Name, n.Open, n.Close)
}

// RestNode is the variadic trailing capture written [$name...].
type RestNode struct {
	Name string
}

func (n *RestNode) Type() NodeType { return NodeRest }
func (n *RestNode) String() string { return fmt.Sprintf("Rest(%s)", n.Name) }

// GroupNode is an optional, non-repeating sequence.
type GroupNode struct {
	Children []Node
	Vars     []string
}

func (n *GroupNode) Type() NodeType { return NodeGroup }
func (n *GroupNode) String() string {
	return fmt.Sprintf("Group(%s)", joinNodes(n.Children))
}

// RepetitionNode is a sequence matched greedily zero or more times.
// Sep is the declared separator (',' or ';') or zero.
type RepetitionNode struct {
	Children []Node
	Vars     []string
	Sep      byte
}

func (n *RepetitionNode) Type() NodeType { return NodeRepetition }
func (n *RepetitionNode) String() string {
	if n.Sep != 0 {
		return fmt.Sprintf("Repetition(%s)%c...", joinNodes(n.Children), n.Sep)
	}
	return fmt.Sprintf("Repetition(%s)...", joinNodes(n.Children))
}

func joinNodes(nodes []Node) string {
	parts := make([]string, len(nodes))
	for i, n := range nodes {
		parts[i] = n.String()
	}
	return strings.Join(parts, " ")
}

// Head returns the literal that introduces an invocation of the pattern.
func Head(nodes []Node) (string, bool) {
	if len(nodes) == 0 {
		return "", false
	}
	lit, ok := nodes[0].(*LiteralNode)
	if !ok {
		return "", false
	}
	return lit.Text, true
}

// collectVars returns every capture name reachable from nodes, in order of
// first appearance.
func collectVars(nodes []Node) []string {
	var vars []string
	seen := make(map[string]bool)
	add := func(name string) {
		if !seen[name] {
			seen[name] = true
			vars = append(vars, name)
		}
	}

	for _, node := range nodes {
		switch n := node.(type) {
		case *PlaceholderNode:
			add(n.Name)
		case *RestOfLineNode:
			add(n.Name)
		case *BalancedNode:
			add(n.Name)
		case *RestNode:
			add(n.Name)
		case *GroupNode:
			for _, v := range n.Vars {
				add(v)
			}
		case *RepetitionNode:
			for _, v := range n.Vars {
				add(v)
			}
		}
	}
	return vars
}
