package exception

import "errors"

var (
	ErrEncode    = errors.New("codec: encode failed")
	ErrDecode    = errors.New("codec: decode failed")
	ErrFieldType = errors.New("codec: unexpected field count")
)
