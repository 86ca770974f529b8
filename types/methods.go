package types

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// ToBin packs tokens as little-endian unsigned integers, 16-bit unless
// useUint32 is set.
func (tokens Tokens) ToBin(useUint32 bool) ([]byte, error) {
	if useUint32 {
		return tokens.ToBinUint32()
	}
	return tokens.ToBinUint16()
}

func (tokens Tokens) ToBinUint16() ([]byte, error) {
	buf := bytes.NewBuffer(make([]byte, 0, len(tokens)*TokenSize))
	for idx, token := range tokens {
		if token > 65535 {
			return nil, fmt.Errorf(
				"integer overflow: token %d at index %d does not fit in 16 bits",
				token, idx)
		}
		if err := binary.Write(buf, binary.LittleEndian,
			uint16(token)); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

func (tokens Tokens) ToBinUint32() ([]byte, error) {
	buf := bytes.NewBuffer(make([]byte, 0, len(tokens)*TokenSize32))
	if err := binary.Write(buf, binary.LittleEndian,
		tokens.uint32s()); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (tokens Tokens) uint32s() []uint32 {
	out := make([]uint32, len(tokens))
	for idx, token := range tokens {
		out[idx] = uint32(token)
	}
	return out
}

// TokensFromBin unpacks little-endian 16-bit tokens.
func TokensFromBin(bin []byte) (Tokens, error) {
	if len(bin)%TokenSize != 0 {
		return nil, fmt.Errorf("%w: %d bytes is not a multiple of %d",
			ErrParse, len(bin), TokenSize)
	}
	tokens := make(Tokens, 0, len(bin)/TokenSize)
	for idx := 0; idx < len(bin); idx += TokenSize {
		tokens = append(tokens,
			Token(binary.LittleEndian.Uint16(bin[idx:])))
	}
	return tokens, nil
}

// TokensFromBin32 unpacks little-endian 32-bit tokens.
func TokensFromBin32(bin []byte) (Tokens, error) {
	if len(bin)%TokenSize32 != 0 {
		return nil, fmt.Errorf("%w: %d bytes is not a multiple of %d",
			ErrParse, len(bin), TokenSize32)
	}
	tokens := make(Tokens, 0, len(bin)/TokenSize32)
	for idx := 0; idx < len(bin); idx += TokenSize32 {
		tokens = append(tokens,
			Token(binary.LittleEndian.Uint32(bin[idx:])))
	}
	return tokens, nil
}
