package exception

import "errors"

var (
	ErrParse             = errors.New("feed: parse error")
	ErrUnknownFeed       = errors.New("feed: unknown feed")
	ErrUnknownStreamType = errors.New("feed: unknown stream type")
	ErrMissingStreamType = errors.New("feed: missing stream type")
	ErrUnknownSymbol     = errors.New("feed: unknown symbol")
)
