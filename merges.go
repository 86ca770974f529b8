package byte_bpe

import (
	"fmt"
	"slices"
)

// MergeRule merges an adjacent (Left, Right) pair of pieces into Left+Right.
type MergeRule struct {
	Left  string
	Right string
}

func (rule MergeRule) Merged() string {
	return rule.Left + rule.Right
}

// MergeTable is an ordered list of merge rules. A rule's position in the
// table is its rank; lower ranks are applied first.
type MergeTable struct {
	rules []MergeRule
	// Every rank a rule occupies, ascending. A rule listed twice is applied
	// in both passes.
	ranks map[MergeRule][]int
}

func NewMergeTable(rules []MergeRule) (*MergeTable, error) {
	table := &MergeTable{
		rules: slices.Clone(rules),
		ranks: make(map[MergeRule][]int, len(rules)),
	}
	for rank, rule := range table.rules {
		if rule.Left == "" || rule.Right == "" {
			return nil, fmt.Errorf("%w: merge rule %d (%q, %q)",
				ErrEmptyToken, rank, rule.Left, rule.Right)
		}
		table.ranks[rule] = append(table.ranks[rule], rank)
	}
	return table, nil
}

func (table *MergeTable) Len() int {
	return len(table.rules)
}

// Rules returns a copy of the table in rank order.
func (table *MergeTable) Rules() []MergeRule {
	return slices.Clone(table.rules)
}

// Rank returns the first rank of rule, if it is in the table.
func (table *MergeTable) Rank(rule MergeRule) (int, bool) {
	ranks, ok := table.ranks[rule]
	if !ok {
		return 0, false
	}
	return ranks[0], true
}

// nextRank returns the lowest rank of rule strictly greater than after.
func (table *MergeTable) nextRank(rule MergeRule, after int) (int, bool) {
	ranks, ok := table.ranks[rule]
	if !ok {
		return 0, false
	}
	idx, _ := slices.BinarySearch(ranks, after+1)
	if idx == len(ranks) {
		return 0, false
	}
	return ranks[idx], true
}
