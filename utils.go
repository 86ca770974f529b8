package byte_bpe

import (
	"strings"
	"unicode/utf8"

	"github.com/wbrown/byte_bpe/types"
)

type TrimDirection uint

const (
	TrimTop    TrimDirection = iota
	TrimBottom TrimDirection = iota
	TrimNone   TrimDirection = iota
)

// incompleteTail reports whether bs ends part way through a multi-byte
// UTF-8 sequence that more bytes could still complete.
func incompleteTail(bs []byte) bool {
	for back := 1; back <= utf8.UTFMax && back <= len(bs); back++ {
		b := bs[len(bs)-back]
		if b < utf8.RuneSelf {
			return false
		}
		if utf8.RuneStart(b) {
			return !utf8.FullRune(bs[len(bs)-back:])
		}
	}
	// Only continuation bytes: invalid, but nothing can complete it.
	return false
}

// TokensReady
// Determine if the sequence of Tokens given is ready to be serialized
// to string, based on if the sequence ends on a complete UTF-8 rune.
// Unknown tokens are never ready.
func (tokenizer *Tokenizer) TokensReady(tokens types.Tokens) bool {
	bs, err := tokenizer.DecodeBytes(tokens)
	if err != nil {
		return false
	}
	return !incompleteTail(bs)
}

// TrimTokens
// Trims the given Tokens to tokens that produce valid unicode.
func (tokenizer *Tokenizer) TrimTokens(tokens types.Tokens) types.Tokens {
	trimmed := tokens
	for len(trimmed) > 0 && !tokenizer.TokensReady(trimmed) {
		trimmed = trimmed[:len(trimmed)-1]
	}
	return trimmed
}

// TrimNewlines drops whole lines from the top or bottom of tokens until they
// fit in limit tokens. The kept lines are re-encoded.
func (tokenizer *Tokenizer) TrimNewlines(
	tokens types.Tokens,
	direction TrimDirection,
	limit uint,
) (types.Tokens, error) {
	trimmed := make(types.Tokens, 0)
	if uint(len(tokens)) <= limit {
		return tokens, nil
	} else if direction == TrimNone {
		return trimmed, nil
	}
	decoded, err := tokenizer.Decode(tokens)
	if err != nil {
		return nil, err
	}
	lines := strings.Split(decoded, "\n")
	var start, end, step int
	switch direction {
	case TrimTop:
		start = len(lines) - 1
		end = -1
		step = -1
	case TrimBottom:
		start = 0
		end = len(lines)
		step = 1
	default:
		return trimmed, nil
	}
	accTokens := make(types.Tokens, 0)
	for idx := start; idx != end; idx += step {
		line := lines[idx]
		switch direction {
		case TrimTop:
			line = "\n" + line
		case TrimBottom:
			line = line + "\n"
		}
		newTokens, err := tokenizer.Encode(line)
		if err != nil {
			return nil, err
		}
		if len(newTokens)+len(accTokens) > int(limit) {
			return accTokens, nil
		}
		switch direction {
		case TrimTop:
			accTokens = append(newTokens, accTokens...)
		case TrimBottom:
			accTokens = append(accTokens, newTokens...)
		}
	}
	return accTokens, nil
}
