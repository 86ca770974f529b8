package byte_bpe

import (
	"fmt"
	"iter"
	"slices"
	"unicode/utf8"

	"github.com/dlclark/regexp2"
)

// SPLIT_REGEX is the byte-level pre-tokenization pattern. The `\s+(?!\S)`
// alternative leaves the last whitespace rune of a run to prefix the word
// that follows it.
const SPLIT_REGEX = `'(?:[sdmt]|ll|ve|re)| ?\p{L}+| ?\p{N}+| ?[^\s\p{L}\p{N}]+|\s+(?!\S)|\s+`
const REGEX_ERROR = "byte_bpe: error compiling split pattern %q: %w"

type SpanKind uint8

const (
	SpanOrdinary SpanKind = iota
	SpanSpecial
)

func (kind SpanKind) String() string {
	switch kind {
	case SpanSpecial:
		return "special"
	default:
		return "ordinary"
	}
}

// Span is a run of input text that is either a special token or ordinary
// text to be split into words.
type Span struct {
	Kind SpanKind
	Text string
}

// PreTokenizer splits text into special token spans and ordinary words.
type PreTokenizer struct {
	specials     []string
	specialsTree *RuneNode
	pattern      *regexp2.Regexp
}

// NewPreTokenizer compiles pattern and builds the special token trie. Empty
// and repeated special tokens are dropped; an empty pattern selects
// SPLIT_REGEX.
func NewPreTokenizer(specials []string, pattern string) (*PreTokenizer,
	error) {
	if pattern == "" {
		pattern = SPLIT_REGEX
	}
	compiled, err := regexp2.Compile(pattern, regexp2.None)
	if err != nil {
		return nil, fmt.Errorf(REGEX_ERROR, pattern, err)
	}
	deduped := make([]string, 0, len(specials))
	seen := make(map[string]bool, len(specials))
	for _, special := range specials {
		if special == "" || seen[special] {
			continue
		}
		seen[special] = true
		deduped = append(deduped, special)
	}
	return &PreTokenizer{
		specials:     deduped,
		specialsTree: createRuneTree(deduped),
		pattern:      compiled,
	}, nil
}

// Specials returns the special tokens in the order they were configured.
func (pre *PreTokenizer) Specials() []string {
	return slices.Clone(pre.specials)
}

// SpecialsByLength returns the special tokens longest first, the order in
// which they take precedence when matching.
func (pre *PreTokenizer) SpecialsByLength() []string {
	sorted := slices.Clone(pre.specials)
	slices.SortStableFunc(sorted, func(a, b string) int {
		return utf8.RuneCountInString(b) - utf8.RuneCountInString(a)
	})
	return sorted
}

// SpecialsTree renders the special token trie, one branch per line.
func (pre *PreTokenizer) SpecialsTree() string {
	return pre.specialsTree.String()
}

// Pattern returns the source of the word splitting pattern.
func (pre *PreTokenizer) Pattern() string {
	return pre.pattern.String()
}

// Spans splits text on special tokens, keeping each match as its own span.
// At every position the longest special token starting there wins. Empty
// spans are never produced.
func (pre *PreTokenizer) Spans(text string) iter.Seq[Span] {
	return func(yield func(Span) bool) {
		if len(pre.specials) == 0 {
			if text != "" {
				yield(Span{SpanOrdinary, text})
			}
			return
		}
		start := 0
		for idx := 0; idx < len(text); {
			if n := pre.specialsTree.longestMatch(text[idx:]); n > 0 {
				if idx > start && !yield(Span{SpanOrdinary,
					text[start:idx]}) {
					return
				}
				if !yield(Span{SpanSpecial, text[idx : idx+n]}) {
					return
				}
				idx += n
				start = idx
				continue
			}
			_, width := utf8.DecodeRuneInString(text[idx:])
			idx += width
		}
		if start < len(text) {
			yield(Span{SpanOrdinary, text[start:]})
		}
	}
}

// Words splits ordinary text into pre-token units. Text the pattern does not
// match is returned as its own unit, so the units always concatenate back to
// text.
func (pre *PreTokenizer) Words(text string) iter.Seq[string] {
	return func(yield func(string) bool) {
		if text == "" {
			return
		}
		// The pattern matches on runes; offsets maps a rune index back to
		// its byte offset so units are cut from text itself.
		runes := make([]rune, 0, len(text))
		offsets := make([]int, 0, len(text)+1)
		for idx, r := range text {
			runes = append(runes, r)
			offsets = append(offsets, idx)
		}
		offsets = append(offsets, len(text))

		last := 0
		match, err := pre.pattern.FindRunesMatch(runes)
		for ; match != nil && err == nil; match, err = pre.pattern.
			FindNextMatch(match) {
			if match.Index > last && !yield(
				text[offsets[last]:offsets[match.Index]]) {
				return
			}
			end := match.Index + match.Length
			if end > match.Index && !yield(
				text[offsets[match.Index]:offsets[end]]) {
				return
			}
			last = end
		}
		if last < len(runes) {
			yield(text[offsets[last]:])
		}
	}
}

// SplitWords splits text into the units that are merged independently,
// special tokens included.
func (pre *PreTokenizer) SplitWords(text string) []string {
	words := make([]string, 0)
	for span := range pre.Spans(text) {
		if span.Kind == SpanSpecial {
			words = append(words, span.Text)
			continue
		}
		for word := range pre.Words(span.Text) {
			words = append(words, word)
		}
	}
	return words
}
