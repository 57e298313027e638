package exception

import "errors"

var (
	ErrLogClosed         = errors.New("log: closed")
	ErrLogReadOnly       = errors.New("log: read only")
	ErrUnknownStream     = errors.New("log: unknown stream")
	ErrEncodingMismatch  = errors.New("log: stream encoding mismatch")
	ErrReservationLength = errors.New("log: commit length exceeds reservation")
)
