//go:build !wasip1 && !js

package byte_bpe

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/jdkato/prose/v2"
	"github.com/wbrown/byte_bpe/types"
)

const PUNC_REGEX = "\\p{L}[.!?;]\\p{L}"

var puncPat = regexp.MustCompile(PUNC_REGEX)

func sentenceDocument(text string) (*prose.Document, error) {
	return prose.NewDocument(
		text,
		prose.WithTagging(false),
		prose.WithExtraction(false),
		prose.WithTokenization(false),
	)
}

// TrimIncompleteSentence drops a trailing sentence that does not end in
// punctuation.
func (tokenizer *Tokenizer) TrimIncompleteSentence(tokens types.Tokens) (
	types.Tokens,
	error,
) {
	decoded, err := tokenizer.Decode(tokens)
	if err != nil {
		return nil, err
	}
	doc, err := sentenceDocument(decoded)
	if err != nil {
		return nil, err
	}
	sentences := doc.Sentences()
	if len(sentences) == 0 {
		return tokens, nil
	}
	// prose does not split on punctuation without a following space, so
	// the final sentence is split again on puncPat.
	parts := puncPat.Split(sentences[len(sentences)-1].Text, -1)
	lastSentence := parts[len(parts)-1]
	last, _ := utf8.DecodeLastRuneInString(
		strings.TrimRightFunc(lastSentence, unicode.IsSpace))
	text := doc.Text
	if !unicode.IsPunct(last) {
		if trimPos := strings.LastIndex(text, lastSentence); trimPos >= 1 {
			text = text[:trimPos-1]
		}
	}
	text = strings.TrimSpace(text)
	// Keep everything rather than lose more than a fifth of the text.
	if float32(len(text)) < float32(len(doc.Text))*0.8 {
		return tokens, nil
	}
	return tokenizer.Encode(text)
}

// TrimSentences drops whole sentences from the top or bottom of tokens until
// they fit in limit tokens.
func (tokenizer *Tokenizer) TrimSentences(
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
	doc, err := sentenceDocument(decoded)
	if err != nil {
		return nil, err
	}
	sentences := doc.Sentences()
	var start, end, step int
	var textBegin, textEnd int
	var sentenceIdx, lastSentence int
	switch direction {
	case TrimTop:
		start = len(sentences) - 1
		end = -1
		step = -1
		textBegin = 0
		textEnd = len(doc.Text)
	case TrimBottom:
		start = 0
		end = len(sentences)
		step = 1
		textBegin = 0
		textEnd = len(doc.Text)
	default:
		return trimmed, nil
	}
	countTokens := func(text string) (uint, error) {
		encoded, encodeErr := tokenizer.Encode(text)
		return uint(len(encoded)), encodeErr
	}
	for idx := start; idx != end; idx += step {
		sentence := sentences[idx].Text
		switch direction {
		case TrimTop:
			sentenceIdx = strings.LastIndex(
				doc.Text[textBegin:],
				sentence,
			) + textBegin
			if sentenceIdx > 0 && sentenceIdx < len(doc.Text) &&
				unicode.IsSpace(rune(doc.Text[sentenceIdx])) {
				sentenceIdx -= 1
			}
			tokCt, err := countTokens(doc.Text[sentenceIdx:])
			if err != nil {
				return nil, err
			}
			if tokCt >= limit {
				return tokenizer.Encode(doc.Text[textEnd:])
			}
			textEnd = sentenceIdx - 1
		case TrimBottom:
			sentenceIdx = strings.Index(
				doc.Text[textBegin:textEnd],
				sentence,
			) + textBegin
			sentenceEnd := sentenceIdx + len(sentence)
			if sentenceEnd < textEnd &&
				doc.Text[sentenceEnd:sentenceEnd+1] == "\n" {
				sentenceEnd += 1
			}
			tokCt, err := countTokens(doc.Text[0:sentenceEnd])
			if err != nil {
				return nil, err
			}
			if tokCt >= limit {
				return tokenizer.Encode(doc.Text[0:lastSentence])
			}
			lastSentence = sentenceEnd
			textBegin += len(sentence)
		}
	}
	return trimmed, nil
}
