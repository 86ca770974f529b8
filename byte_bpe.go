package byte_bpe

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"iter"
	"slices"
	"strings"
	"sync/atomic"
	"unicode/utf8"

	lru "github.com/hashicorp/golang-lru"
	"github.com/wbrown/byte_bpe/types"
)

const BPE_LRU_SZ = 65536
const READER_BUF_SZ = 16384

// Tokenizer encodes text to token ids and back with a byte-level BPE
// vocabulary. Its vocabulary, merge table and special tokens never change
// after construction, so a Tokenizer may be used from several goroutines at
// once.
type Tokenizer struct {
	vocab       *Vocabulary
	merges      *MergeTable
	pre         *PreTokenizer
	cache       *lru.ARCCache
	cacheSize   int
	cacheHits   atomic.Uint64
	cacheMisses atomic.Uint64
}

type options struct {
	splitPattern string
	cacheSize    int
}

type Option func(*options)

// WithSplitPattern replaces SPLIT_REGEX for ordinary text. The pattern uses
// .NET/Perl syntax, so lookarounds are available.
func WithSplitPattern(pattern string) Option {
	return func(opts *options) {
		opts.splitPattern = pattern
	}
}

// WithCache keeps up to size pre-token units and their ids in an ARC cache.
// A size of zero or less disables the cache, which is the default.
func WithCache(size int) Option {
	return func(opts *options) {
		opts.cacheSize = size
	}
}

// New returns a Tokenizer that owns vocab, merges and specials. Special
// tokens are matched longest first regardless of their order here.
func New(
	vocab *Vocabulary,
	merges *MergeTable,
	specials []string,
	opts ...Option,
) (*Tokenizer, error) {
	if vocab == nil || merges == nil {
		return nil, errors.New("byte_bpe: vocabulary and merge table " +
			"are required")
	}
	var config options
	for _, opt := range opts {
		opt(&config)
	}
	pre, err := NewPreTokenizer(specials, config.splitPattern)
	if err != nil {
		return nil, err
	}
	tokenizer := &Tokenizer{
		vocab:  vocab,
		merges: merges,
		pre:    pre,
	}
	if config.cacheSize > 0 {
		if tokenizer.cache, err = lru.NewARC(config.cacheSize); err != nil {
			return nil, err
		}
		tokenizer.cacheSize = config.cacheSize
	}
	return tokenizer, nil
}

func (tokenizer *Tokenizer) Vocabulary() *Vocabulary {
	return tokenizer.vocab
}

func (tokenizer *Tokenizer) MergeTable() *MergeTable {
	return tokenizer.merges
}

func (tokenizer *Tokenizer) PreTokenizer() *PreTokenizer {
	return tokenizer.pre
}

// Specials returns the special tokens in the order they were configured.
func (tokenizer *Tokenizer) Specials() []string {
	return tokenizer.pre.Specials()
}

// CacheStats reports cache hits and misses since construction.
func (tokenizer *Tokenizer) CacheStats() (hits, misses uint64) {
	return tokenizer.cacheHits.Load(), tokenizer.cacheMisses.Load()
}

// ToBPE merges a single pre-token unit and returns the ids of the resulting
// pieces.
func (tokenizer *Tokenizer) ToBPE(unit string) (types.Tokens, error) {
	if tokenizer.cache != nil {
		if lookup, ok := tokenizer.cache.Get(unit); ok {
			tokenizer.cacheHits.Add(1)
			return slices.Clone(lookup.(types.Tokens)), nil
		}
		tokenizer.cacheMisses.Add(1)
	}
	word := tokenizer.merges.Apply(BytePieces(unit))
	tokens := make(types.Tokens, len(word))
	for idx, piece := range word {
		token, err := tokenizer.vocab.Encode(piece)
		if err != nil {
			return nil, err
		}
		tokens[idx] = token
	}
	if tokenizer.cache != nil {
		tokenizer.cache.Add(unit, slices.Clone(tokens))
	}
	return tokens, nil
}

// encodeInto streams the ids of text to yield. It returns false once yield
// asks to stop or an error has been yielded.
func (tokenizer *Tokenizer) encodeInto(
	text string,
	yield func(types.Token, error) bool,
) bool {
	for span := range tokenizer.pre.Spans(text) {
		if span.Kind == SpanSpecial {
			token, err := tokenizer.vocab.Encode(span.Text)
			if err != nil {
				yield(0, fmt.Errorf("%w: %q", ErrUnknownSpecialToken,
					span.Text))
				return false
			}
			if !yield(token, nil) {
				return false
			}
			continue
		}
		for word := range tokenizer.pre.Words(span.Text) {
			tokens, err := tokenizer.ToBPE(word)
			if err != nil {
				yield(0, err)
				return false
			}
			for _, token := range tokens {
				if !yield(token, nil) {
					return false
				}
			}
		}
	}
	return true
}

// Encode encodes a string into a sequence of tokens.
func (tokenizer *Tokenizer) Encode(text string) (types.Tokens, error) {
	encoded := make(types.Tokens, 0, len(text)/4+1)
	var encodeErr error
	tokenizer.encodeInto(text, func(token types.Token, err error) bool {
		if err != nil {
			encodeErr = err
			return false
		}
		encoded = append(encoded, token)
		return true
	})
	if encodeErr != nil {
		return nil, encodeErr
	}
	return encoded, nil
}

// EncodeStream lazily encodes each chunk in turn, one id per step. The ids
// are exactly those of Encode applied to every chunk and concatenated; no
// chunk is read before the ids of the previous one have been consumed. If
// encoding fails the error is yielded once and the sequence ends.
func (tokenizer *Tokenizer) EncodeStream(
	chunks iter.Seq[string],
) iter.Seq2[types.Token, error] {
	return func(yield func(types.Token, error) bool) {
		for chunk := range chunks {
			if !tokenizer.encodeInto(chunk, yield) {
				return
			}
		}
	}
}

// EncodeReader is EncodeStream over the newline-terminated lines of reader.
// Units never span a line, so whitespace around a line break can split
// differently than Encode on the whole text would. Read errors are yielded
// wrapped in ErrIO.
func (tokenizer *Tokenizer) EncodeReader(
	reader io.Reader,
) iter.Seq2[types.Token, error] {
	return func(yield func(types.Token, error) bool) {
		buffered := bufio.NewReaderSize(reader, READER_BUF_SZ)
		for {
			line, err := buffered.ReadString('\n')
			if len(line) > 0 && !tokenizer.encodeInto(line, yield) {
				return
			}
			if err == io.EOF {
				return
			} else if err != nil {
				yield(0, fmt.Errorf("%w: %w", ErrIO, err))
				return
			}
		}
	}
}

// Get looks up text in the vocabulary and returns its token, or nil if text
// is not a piece of the vocabulary.
func (tokenizer *Tokenizer) Get(text string) *types.Token {
	if token, err := tokenizer.vocab.Encode(text); err != nil {
		return nil
	} else {
		return &token
	}
}

// DecodeBytes concatenates the pieces of tokens.
func (tokenizer *Tokenizer) DecodeBytes(tokens types.Tokens) ([]byte,
	error) {
	bs := make([]byte, 0, len(tokens)*4)
	for _, token := range tokens {
		piece, err := tokenizer.vocab.Decode(token)
		if err != nil {
			return nil, err
		}
		bs = append(bs, piece...)
	}
	return bs, nil
}

// Decode tokens back into a string. Unknown ids are an error; byte sequences
// that are not valid UTF-8 are replaced with U+FFFD, one per maximal
// ill-formed subpart.
func (tokenizer *Tokenizer) Decode(tokens types.Tokens) (string, error) {
	bs, err := tokenizer.DecodeBytes(tokens)
	if err != nil {
		return "", err
	}
	if utf8.Valid(bs) {
		return string(bs), nil
	}
	return replaceInvalid(bs), nil
}

// continuationRange returns the bytes allowed after lead as the second byte
// of a UTF-8 sequence. Overlong forms, surrogates and code points past
// U+10FFFF are excluded here.
func continuationRange(lead byte) (lo, hi byte) {
	switch lead {
	case 0xe0:
		return 0xa0, 0xbf
	case 0xed:
		return 0x80, 0x9f
	case 0xf0:
		return 0x90, 0xbf
	case 0xf4:
		return 0x80, 0x8f
	default:
		return 0x80, 0xbf
	}
}

// replaceInvalid decodes bs as UTF-8, replacing each maximal subpart of an
// ill-formed sequence with a single U+FFFD. A truncated "€" (e2 82) is one
// replacement, while a stray continuation byte is one per byte.
func replaceInvalid(bs []byte) string {
	var decoded strings.Builder
	decoded.Grow(len(bs) + 8)
	for idx := 0; idx < len(bs); {
		r, width := utf8.DecodeRune(bs[idx:])
		if r != utf8.RuneError || width > 1 {
			decoded.Write(bs[idx : idx+width])
			idx += width
			continue
		}
		lead := bs[idx]
		idx++
		var size int
		switch {
		case lead >= 0xc2 && lead <= 0xdf:
			size = 2
		case lead >= 0xe0 && lead <= 0xef:
			size = 3
		case lead >= 0xf0 && lead <= 0xf4:
			size = 4
		}
		lo, hi := continuationRange(lead)
		for consumed := 1; consumed < size && idx < len(bs); consumed++ {
			if bs[idx] < lo || bs[idx] > hi {
				break
			}
			idx++
			lo, hi = 0x80, 0xbf
		}
		decoded.WriteRune(utf8.RuneError)
	}
	return decoded.String()
}
