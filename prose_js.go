//go:build wasip1 || js

package byte_bpe

import (
	"errors"

	"github.com/wbrown/byte_bpe/types"
)

var errNoSentences = errors.New("byte_bpe: sentence segmentation is not " +
	"available on this platform")

func (tokenizer *Tokenizer) TrimIncompleteSentence(
	tokens types.Tokens,
) (types.Tokens, error) {
	return nil, errNoSentences
}

func (tokenizer *Tokenizer) TrimSentences(
	tokens types.Tokens,
	direction TrimDirection,
	limit uint,
) (types.Tokens, error) {
	return nil, errNoSentences
}
