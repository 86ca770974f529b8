package types

import (
	"errors"
	"fmt"
)

// Token is a vocabulary id.
type Token uint32
type Tokens []Token

const (
	TokenSize   = 2
	TokenSize32 = 4
)

// Error kinds shared by the tokenizer and its resource loaders.
var (
	ErrUnknownID            = errors.New("unknown token id")
	ErrUnknownToken         = errors.New("unknown token")
	ErrUnknownSpecialToken  = fmt.Errorf("special %w", ErrUnknownToken)
	ErrDuplicateToken       = errors.New("duplicate token")
	ErrEmptyToken           = errors.New("empty token")
	ErrIO                   = errors.New("i/o error")
	ErrParse                = errors.New("parse error")
	ErrUnrepresentableToken = errors.New("token cannot be represented as text")
)
