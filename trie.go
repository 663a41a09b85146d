package henkan

// kanaTrie indexes dictionary readings for common-prefix search. The
// lattice builder asks, for every start position in a reading, which
// dictionary keys begin there; the trie answers in one walk per
// position instead of one map probe per candidate length.
type kanaTrie struct {
	root *trieNode
	size int
}

type trieNode struct {
	children map[rune]*trieNode
	terminal bool
}

func newKanaTrie() *kanaTrie {
	return &kanaTrie{root: &trieNode{}}
}

// Add inserts key into the trie. Duplicate inserts are no-ops.
func (t *kanaTrie) Add(key string) {
	node := t.root
	for _, r := range key {
		if node.children == nil {
			node.children = make(map[rune]*trieNode)
		}
		next, ok := node.children[r]
		if !ok {
			next = &trieNode{}
			node.children[r] = next
		}
		node = next
	}
	if !node.terminal {
		node.terminal = true
		t.size++
	}
}

// Len returns the number of distinct keys.
func (t *kanaTrie) Len() int { return t.size }

// CommonPrefixLengths walks rs from start and returns the rune length
// of every stored key that is a prefix of rs[start:], in increasing
// order.
func (t *kanaTrie) CommonPrefixLengths(rs []rune, start int) []int {
	var lengths []int
	node := t.root
	for i := start; i < len(rs); i++ {
		next, ok := node.children[rs[i]]
		if !ok {
			break
		}
		node = next
		if node.terminal {
			lengths = append(lengths, i-start+1)
		}
	}
	return lengths
}
