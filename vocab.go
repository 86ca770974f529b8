package byte_bpe

import (
	"fmt"
	"iter"
	"slices"

	"github.com/wbrown/byte_bpe/types"
)

// Vocabulary is the bidirectional mapping between token ids and the byte
// strings (pieces) they stand for. It is immutable once built.
type Vocabulary struct {
	pieces map[types.Token]string
	ids    map[string]types.Token
}

// NewVocabulary builds a Vocabulary and its inverse in one pass. Every piece
// must be non-empty and unique.
func NewVocabulary(pieces map[types.Token][]byte) (*Vocabulary, error) {
	vocab := &Vocabulary{
		pieces: make(map[types.Token]string, len(pieces)),
		ids:    make(map[string]types.Token, len(pieces)),
	}
	for id, piece := range pieces {
		if len(piece) == 0 {
			return nil, fmt.Errorf("%w: id %d", ErrEmptyToken, id)
		}
		text := string(piece)
		if prior, ok := vocab.ids[text]; ok {
			return nil, fmt.Errorf("%w: %q is mapped by ids %d and %d",
				ErrDuplicateToken, text, min(prior, id), max(prior, id))
		}
		vocab.pieces[id] = text
		vocab.ids[text] = id
	}
	return vocab, nil
}

// newVocabularyFromText is NewVocabulary for pieces that are already
// strings, as produced by the resource parsers.
func newVocabularyFromText(pieces map[types.Token]string) (*Vocabulary,
	error) {
	raw := make(map[types.Token][]byte, len(pieces))
	for id, piece := range pieces {
		raw[id] = []byte(piece)
	}
	return NewVocabulary(raw)
}

// Decode returns the piece for id.
func (vocab *Vocabulary) Decode(id types.Token) (string, error) {
	piece, ok := vocab.pieces[id]
	if !ok {
		return "", fmt.Errorf("%w: %d", ErrUnknownID, id)
	}
	return piece, nil
}

// Encode returns the id for piece.
func (vocab *Vocabulary) Encode(piece string) (types.Token, error) {
	id, ok := vocab.ids[piece]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownToken, piece)
	}
	return id, nil
}

func (vocab *Vocabulary) Len() int {
	return len(vocab.pieces)
}

// All iterates over the vocabulary in ascending id order.
func (vocab *Vocabulary) All() iter.Seq2[types.Token, string] {
	return func(yield func(types.Token, string) bool) {
		ids := make([]types.Token, 0, len(vocab.pieces))
		for id := range vocab.pieces {
			ids = append(ids, id)
		}
		slices.Sort(ids)
		for _, id := range ids {
			if !yield(id, vocab.pieces[id]) {
				return
			}
		}
	}
}
