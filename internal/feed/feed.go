// Package feed defines the contract between the transcoder and the per-vendor
// parsers.
package feed

import (
	"fmt"
	"strings"

	"orefeed/internal/codec"
	"orefeed/internal/errors"
	"orefeed/pkg/exception"
)

// DefaultInstrumentID is the instrument id written when none is configured.
const DefaultInstrumentID int32 = 100

// Parser turns one raw vendor message into ORE records.
//
// watermark is the highest vendor sequence accepted on the channel so far.
// A message at or below it is a duplicate: Parse returns false and leaves both
// its own state and watermark untouched. Otherwise Parse advances watermark,
// updates its state and writes records into out. Whether records are actually
// encoded is decided by out (see codec.Buffer.Reset), never by the parser.
type Parser interface {
	Parse(msg []byte, recvTime int64, watermark *uint64, out *codec.Buffer) (accepted bool, err error)
}

// Options are passed to a Resolver for every new channel.
type Options struct {
	InstrumentID int32
}

// Resolver creates the parser for a vendor channel such as "btcusdt@trade"
// and returns the vendor symbol the channel belongs to.
type Resolver func(channel string, opts Options) (symbol string, parser Parser, err error)

// Registry maps feed names to their resolvers.
type Registry map[string]Resolver

// Resolve dispatches channel to the resolver registered for feedName.
func (r Registry) Resolve(feedName, channel string, opts Options) (string, Parser, error) {
	resolve, ok := r[feedName]
	if !ok || resolve == nil {
		return "", nil, errors.Wrapf(exception.ErrUnknownFeed, "feed %q", feedName)
	}
	if opts.InstrumentID == 0 {
		opts.InstrumentID = DefaultInstrumentID
	}
	return resolve(channel, opts)
}

// SplitChannel splits "symbol@type" at the last '@'.
func SplitChannel(channel string) (symbol, streamType string, err error) {
	idx := strings.LastIndexByte(channel, '@')
	if idx < 0 {
		return "", "", errors.Wrapf(exception.ErrMissingStreamType, "channel %q", channel)
	}
	return channel[:idx], channel[idx+1:], nil
}

// UnknownStreamType reports a stream type no parser exists for.
func UnknownStreamType(feedName, streamType string) error {
	return errors.Wrapf(exception.ErrUnknownStreamType, "%s stream type %q", feedName, streamType)
}

// ParseError reports a message a parser could not understand.
type ParseError struct {
	Feed   string
	Stream string
	Field  string
	Raw    string
}

// NewParseError copies msg so the error outlives the log read buffer.
func NewParseError(feedName, stream, field string, msg []byte) *ParseError {
	return &ParseError{Feed: feedName, Stream: stream, Field: field, Raw: string(msg)}
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s %s: could not parse %s in message: %s", e.Feed, e.Stream, e.Field, e.Raw)
}

func (e *ParseError) Unwrap() error {
	return exception.ErrParse
}
