package trie

/*
Arena-based name index

Binding names are stored rune by rune in a trie whose nodes live in a
single slice and refer to their children by index. The expander builds
one index per rendered body and asks it for the longest bound name that
prefixes a reference, which is how `${$base_suffix}` resolves to the value
of $base followed by "_suffix".
*/

// NodeIndex is the position of a node inside the arena.
type NodeIndex int

type arenaNode struct {
	children map[rune]NodeIndex
	isEnd    bool
}

// Trie is a set of words supporting longest-prefix queries.
type Trie struct {
	nodes []arenaNode
	size  int
}

// New returns an empty Trie.
func New() *Trie {
	t := &Trie{nodes: make([]arenaNode, 0, 64)}
	t.newNode()
	return t
}

func (t *Trie) newNode() NodeIndex {
	idx := NodeIndex(len(t.nodes))
	t.nodes = append(t.nodes, arenaNode{children: make(map[rune]NodeIndex)})
	return idx
}

// Insert adds word to the set.
func (t *Trie) Insert(word string) {
	current := NodeIndex(0)
	for _, r := range word {
		child, exists := t.nodes[current].children[r]
		if !exists {
			child = t.newNode()
			t.nodes[current].children[r] = child
		}
		current = child
	}
	if !t.nodes[current].isEnd {
		t.nodes[current].isEnd = true
		t.size++
	}
}

// Contains reports whether word was inserted.
func (t *Trie) Contains(word string) bool {
	current := NodeIndex(0)
	for _, r := range word {
		child, exists := t.nodes[current].children[r]
		if !exists {
			return false
		}
		current = child
	}
	return t.nodes[current].isEnd
}

// LongestPrefix returns the longest inserted word that is a prefix of s.
func (t *Trie) LongestPrefix(s string) (string, bool) {
	current := NodeIndex(0)
	best := -1
	if t.nodes[0].isEnd {
		best = 0
	}
	for i, r := range s {
		child, exists := t.nodes[current].children[r]
		if !exists {
			break
		}
		current = child
		if t.nodes[current].isEnd {
			best = i + len(string(r))
		}
	}
	if best < 0 {
		return "", false
	}
	return s[:best], true
}

// Len returns the number of distinct words.
func (t *Trie) Len() int { return t.size }
