package byte_bpe

import (
	"cmp"

	"github.com/emirpasic/gods/trees/binaryheap"
)

// BytePieces splits unit into one single-byte piece per UTF-8 byte, the
// starting point of every merge.
func BytePieces(unit string) []string {
	word := make([]string, len(unit))
	for idx := 0; idx < len(unit); idx++ {
		word[idx] = unit[idx : idx+1]
	}
	return word
}

// pos finds the index of the first occurrence of seek in word past index i.
func pos(word []string, seek string, i int) int {
	for j, v := range word[i:] {
		if seek == v {
			return j + i
		}
	}
	return -1
}

// applyRule performs one left-to-right pass of rule over word. A merged pair
// is skipped past and not tested against rule again. The indexes of the
// merged pieces in the new word are appended to merged. If rule does not
// occur, word itself is returned.
func applyRule(word []string, rule MergeRule, merged []int) ([]string,
	[]int) {
	first := -1
	for i := pos(word, rule.Left, 0); i != -1 && i < len(word)-1; i = pos(
		word, rule.Left, i+1) {
		if word[i+1] == rule.Right {
			first = i
			break
		}
	}
	if first == -1 {
		return word, merged
	}

	newWord := make([]string, 0, len(word)-1)
	newWord = append(newWord, word[:first]...)
	for i := first; i < len(word); {
		j := pos(word, rule.Left, i)
		if j == -1 {
			newWord = append(newWord, word[i:]...)
			break
		}
		newWord = append(newWord, word[i:j]...)
		i = j
		if i < len(word)-1 && word[i+1] == rule.Right {
			merged = append(merged, len(newWord))
			newWord = append(newWord, rule.Left+rule.Right)
			i += 2
		} else {
			newWord = append(newWord, word[i])
			i += 1
		}
	}
	return newWord, merged
}

// Sweep walks the whole table once, front to back, and applies each rule
// everywhere in word before moving on to the next. This is the reference
// merge order; Apply produces the same result without visiting rules whose
// pair never occurs.
func (table *MergeTable) Sweep(word []string) []string {
	for _, rule := range table.rules {
		if len(word) < 2 {
			break
		}
		word, _ = applyRule(word, rule, nil)
	}
	return word
}

type mergeCandidate struct {
	rank int
	rule MergeRule
}

func byRank(a, b interface{}) int {
	return cmp.Compare(a.(mergeCandidate).rank, b.(mergeCandidate).rank)
}

// Apply merges word in table order, visiting only the ranks of pairs that
// are actually adjacent. Ranks are popped in ascending order; a pair that a
// merge creates can only be merged by a later rank than the one that
// created it.
func (table *MergeTable) Apply(word []string) []string {
	if len(word) < 2 || len(table.rules) == 0 {
		return word
	}
	candidates := binaryheap.NewWith(byRank)
	push := func(left, right string, after int) {
		rule := MergeRule{left, right}
		if rank, ok := table.nextRank(rule, after); ok {
			candidates.Push(mergeCandidate{rank, rule})
		}
	}
	for idx := 1; idx < len(word); idx++ {
		push(word[idx-1], word[idx], -1)
	}

	current := -1
	merged := make([]int, 0, len(word)/2)
	for len(word) > 1 {
		value, ok := candidates.Pop()
		if !ok {
			break
		}
		candidate := value.(mergeCandidate)
		// The same pair may have been queued more than once.
		if candidate.rank <= current {
			continue
		}
		current = candidate.rank
		word, merged = applyRule(word, candidate.rule, merged[:0])
		for _, idx := range merged {
			if idx > 0 {
				push(word[idx-1], word[idx], current)
			}
			if idx < len(word)-1 {
				push(word[idx], word[idx+1], current)
			}
		}
	}
	return word
}
