package byte_bpe

import "github.com/wbrown/byte_bpe/types"

var (
	ErrUnknownID            = types.ErrUnknownID
	ErrUnknownToken         = types.ErrUnknownToken
	ErrUnknownSpecialToken  = types.ErrUnknownSpecialToken
	ErrDuplicateToken       = types.ErrDuplicateToken
	ErrEmptyToken           = types.ErrEmptyToken
	ErrIO                   = types.ErrIO
	ErrParse                = types.ErrParse
	ErrUnrepresentableToken = types.ErrUnrepresentableToken
)
