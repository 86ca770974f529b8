package resources

import (
	"bytes"
	"encoding/json"
	"fmt"
	"iter"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/wbrown/byte_bpe/types"
)

// Pieces are stored as JSON strings. A single byte that is not valid UTF-8
// on its own is written as "0xNN" instead.

// byteEscape reports whether text is an escaped high byte, and which.
func byteEscape(text string) (byte, bool) {
	if len(text) != 4 || !strings.HasPrefix(text, "0x") {
		return 0, false
	}
	value, err := strconv.ParseUint(text[2:], 16, 8)
	if err != nil || value < utf8.RuneSelf {
		return 0, false
	}
	return byte(value), true
}

// EscapeToken returns the file representation of piece.
func EscapeToken(piece string) (string, error) {
	if len(piece) == 1 && piece[0] >= utf8.RuneSelf {
		return fmt.Sprintf("0x%02x", piece[0]), nil
	}
	if !utf8.ValidString(piece) {
		return "", fmt.Errorf("%w: %q is not valid UTF-8",
			types.ErrUnrepresentableToken, piece)
	}
	if _, ambiguous := byteEscape(piece); ambiguous {
		return "", fmt.Errorf("%w: %q reads back as a single byte",
			types.ErrUnrepresentableToken, piece)
	}
	return piece, nil
}

// UnescapeToken is the inverse of EscapeToken. Any four character "0xNN"
// with NN from 80 to ff, in either case, becomes that single byte, so such
// a literal string cannot be stored as a piece. Everything else is returned
// unchanged.
func UnescapeToken(text string) string {
	if b, ok := byteEscape(text); ok {
		return string([]byte{b})
	}
	return text
}

func parseError(what string, err error) error {
	return fmt.Errorf("%w: %s: %w", types.ErrParse, what, err)
}

// ParseVocab reads a JSON object of decimal ids to pieces. Each piece goes
// through UnescapeToken, so "0xff" loads as the byte 0xff while "0x7f" and
// "0xfg" load as written.
func ParseVocab(data []byte) (map[types.Token]string, error) {
	raw := make(map[string]string)
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, parseError("vocabulary", err)
	}
	vocab := make(map[types.Token]string, len(raw))
	for key, text := range raw {
		id, err := strconv.ParseUint(key, 10, 32)
		if err != nil {
			return nil, parseError("vocabulary id", err)
		}
		if _, dup := vocab[types.Token(id)]; dup {
			return nil, fmt.Errorf("%w: vocabulary id %d appears twice",
				types.ErrParse, id)
		}
		vocab[types.Token(id)] = UnescapeToken(text)
	}
	return vocab, nil
}

// ParseMerges reads a JSON array of [left, right] pairs. Both sides are
// unescaped the same way as vocabulary pieces.
func ParseMerges(data []byte) ([][2]string, error) {
	var raw [][]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, parseError("merges", err)
	}
	merges := make([][2]string, len(raw))
	for idx, pair := range raw {
		if len(pair) != 2 {
			return nil, fmt.Errorf("%w: merge %d has %d elements, want 2",
				types.ErrParse, idx, len(pair))
		}
		merges[idx] = [2]string{UnescapeToken(pair[0]),
			UnescapeToken(pair[1])}
	}
	return merges, nil
}

// ParseSpecials reads special tokens either as a JSON array of strings or,
// if lines is set, as one token per line. Blank lines are ignored.
func ParseSpecials(data []byte, lines bool) ([]string, error) {
	specials := make([]string, 0)
	if lines {
		for _, line := range strings.Split(string(data), "\n") {
			line = strings.TrimSuffix(line, "\r")
			if line != "" {
				specials = append(specials, line)
			}
		}
		return specials, nil
	}
	if err := json.Unmarshal(data, &specials); err != nil {
		return nil, parseError("special tokens", err)
	}
	return specials, nil
}

// marshalString encodes s as a JSON string without HTML escaping.
func marshalString(s string) ([]byte, error) {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(s); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func marshalToken(piece string) ([]byte, error) {
	escaped, err := EscapeToken(piece)
	if err != nil {
		return nil, err
	}
	return marshalString(escaped)
}

// WriteVocabFile writes vocab, in the order given, as a JSON object with one
// entry per line.
func WriteVocabFile(
	filePath string,
	vocab iter.Seq2[types.Token, string],
) error {
	var buf bytes.Buffer
	buf.WriteString("{")
	first := true
	for id, piece := range vocab {
		repr, err := marshalToken(piece)
		if err != nil {
			return fmt.Errorf("vocabulary id %d: %w", id, err)
		}
		if !first {
			buf.WriteString(",")
		}
		first = false
		fmt.Fprintf(&buf, "\n  \"%d\": %s", id, repr)
	}
	buf.WriteString("\n}\n")
	return WriteResource(filePath, &buf)
}

// WriteMergesFile writes merges as a JSON array of pairs, one per line.
func WriteMergesFile(filePath string, merges [][2]string) error {
	var buf bytes.Buffer
	buf.WriteString("[")
	for idx, merge := range merges {
		left, err := marshalToken(merge[0])
		if err != nil {
			return fmt.Errorf("merge %d: %w", idx, err)
		}
		right, err := marshalToken(merge[1])
		if err != nil {
			return fmt.Errorf("merge %d: %w", idx, err)
		}
		if idx != 0 {
			buf.WriteString(",")
		}
		fmt.Fprintf(&buf, "\n  [%s, %s]", left, right)
	}
	buf.WriteString("\n]\n")
	return WriteResource(filePath, &buf)
}

// WriteSpecials writes special tokens one per line if filePath ends in
// `.txt`, and as a JSON array otherwise.
func WriteSpecials(filePath string, specials []string) error {
	var buf bytes.Buffer
	if strings.HasSuffix(filePath, ".txt") {
		for idx, special := range specials {
			if strings.ContainsAny(special, "\r\n") {
				return fmt.Errorf("%w: special token %q spans lines",
					types.ErrUnrepresentableToken, special)
			}
			if idx != 0 {
				buf.WriteString("\n")
			}
			buf.WriteString(special)
		}
		return WriteResource(filePath, &buf)
	}
	buf.WriteString("[")
	for idx, special := range specials {
		if !utf8.ValidString(special) {
			return fmt.Errorf("%w: special token %q is not valid UTF-8",
				types.ErrUnrepresentableToken, special)
		}
		repr, err := marshalString(special)
		if err != nil {
			return err
		}
		if idx != 0 {
			buf.WriteString(",")
		}
		buf.WriteString("\n  ")
		buf.Write(repr)
	}
	buf.WriteString("\n]\n")
	return WriteResource(filePath, &buf)
}
