package byte_bpe

import (
	"slices"
	"strings"
	"unicode/utf8"
)

// RuneNode is a node of the special token trie.
type RuneNode struct {
	rune      rune               // The rune this node represents.
	terminal  bool               // If a special token ends at this node.
	childs    map[rune]*RuneNode // The child nodes.
	childsArr *[]*RuneNode       // The child nodes in an array, for precedence
}

func (root *RuneNode) evaluate(node *RuneNode, r rune) (*RuneNode, bool) {
	// If the node has an array of children, use that. The array exists if the
	// node has less than 10 children, and is used to speed up the evaluation
	// of the node.
	if node.childsArr != nil {
		children := *node.childsArr
		for _, child := range children {
			if child.rune == r {
				return child, child.terminal
			}
		}
	} else {
		child, ok := node.childs[r]
		if ok {
			return child, child.terminal
		}
	}
	return nil, false
}

// longestMatch returns the byte length of the longest special token that
// text starts with, or 0 if it starts with none.
func (root *RuneNode) longestMatch(text string) int {
	longest := 0
	node := root
	for idx := 0; idx < len(text); {
		r, width := utf8.DecodeRuneInString(text[idx:])
		if r == utf8.RuneError && width == 1 {
			break
		}
		idx += width
		var terminal bool
		if node, terminal = root.evaluate(node, r); node == nil {
			break
		} else if terminal {
			longest = idx
		}
	}
	return longest
}

// Represent the tree as a string by traversing the tree, and using tree
// characters to represent the tree structure.
func (node *RuneNode) string(level int) string {
	if node == nil {
		return ""
	}
	s := string(node.rune)
	if node.terminal && len(node.childs) > 0 {
		s += "$"
	}
	keys := make([]rune, 0, len(node.childs))
	for r := range node.childs {
		keys = append(keys, r)
	}
	slices.Sort(keys)
	if len(keys) == 1 {
		// Follow single children inline until we find a branch.
		return s + node.childs[keys[0]].string(level)
	}
	level += 1
	s += "\n"

	for idx, r := range keys {
		childPrefix := strings.Repeat("| ", level-1)
		// If we're the last child, then we prepend with a tree terminator.
		if idx == len(keys)-1 {
			childPrefix += "└─"
		} else {
			childPrefix += "├─"
		}
		s += childPrefix + node.childs[r].string(level)
	}
	return s
}

// Wrapper
func (node *RuneNode) String() string {
	if node == nil {
		return ""
	}
	var s strings.Builder
	for idx, r := range node.sortedChilds() {
		if idx > 0 {
			s.WriteString("\n")
		}
		s.WriteString(strings.TrimRight(node.childs[r].string(0), "\n"))
	}
	return s.String()
}

func (node *RuneNode) sortedChilds() []rune {
	keys := make([]rune, 0, len(node.childs))
	for r := range node.childs {
		keys = append(keys, r)
	}
	slices.Sort(keys)
	return keys
}

// createRuneTree builds the trie of special tokens.
func createRuneTree(specials []string) *RuneNode {
	runeTree := &RuneNode{
		childs: make(map[rune]*RuneNode, 0),
	}

	for _, k := range specials {
		keyRunes := []rune(k)
		keyLen := len(keyRunes)
		node := runeTree
		for i := 0; i < keyLen; i++ {
			r := keyRunes[i]
			childNode, ok := node.childs[r]
			if !ok {
				children := make([]*RuneNode, 0)
				node.childs[r] = &RuneNode{
					rune:      r,
					terminal:  i == keyLen-1,
					childs:    make(map[rune]*RuneNode, 0),
					childsArr: &children,
				}
			} else if i == keyLen-1 {
				childNode.terminal = true
			}
			if len(node.childs) > 10 {
				// If there are more than 10 children, we set the array pointer
				// to nil, so that we can use the map instead.
				node.childsArr = nil
			} else {
				if node.childsArr == nil {
					children := make([]*RuneNode, 0)
					node.childsArr = &children
				}
				if len(node.childs) != len(*node.childsArr) {
					*node.childsArr = append(*node.childsArr, node.childs[r])
				}
			}
			node = node.childs[r]
		}
	}
	return runeTree
}
