package transcoder

import (
	"strings"

	"orefeed/internal/errors"
	"orefeed/internal/feed"
	"orefeed/internal/schema"
	"orefeed/internal/wal"
	"orefeed/pkg/exception"
)

// resolveOutput returns the output stream for a normalized "feed/symbol"
// name, announcing it on first use.
func (t *Transcoder) resolveOutput(name string) (*outStream, error) {
	if s, ok := t.outByName[name]; ok {
		return s, nil
	}
	handle, err := t.out.Announce(t.cfg.Peer, schema.OREPrefix+name, t.cfg.Encoding)
	if err != nil {
		return nil, errors.Wrapf(err, "announce output %s", name)
	}
	s := t.outByHandle[handle]
	if s == nil {
		s = &outStream{name: name, handle: handle}
		t.outByHandle[handle] = s
	}
	t.outByName[name] = s
	return s, nil
}

// resolveRecovered maps an output log handle to our stream, or nil when the
// stream belongs to someone else.
func (t *Transcoder) resolveRecovered(handle wal.StreamHandle) (*outStream, error) {
	if s, ok := t.outByHandle[handle]; ok {
		return s, nil
	}
	ann, err := t.out.Lookup(handle)
	if err != nil {
		return nil, errors.Wrapf(err, "lookup output stream %d", handle)
	}
	if ann.Peer != t.cfg.Peer || !strings.HasPrefix(ann.Channel, schema.OREPrefix) {
		t.outByHandle[handle] = nil
		return nil, nil
	}
	if ann.Encoding != t.cfg.Encoding {
		return nil, errors.Wrapf(exception.ErrEncodingMismatch, "output %s has encoding %q", ann.Channel, ann.Encoding)
	}
	name := strings.TrimPrefix(ann.Channel, schema.OREPrefix)
	s := &outStream{name: name, handle: handle}
	t.outByHandle[handle] = s
	t.outByName[name] = s
	return s, nil
}

// resolveInput maps an input log handle to its binding, or nil when the
// stream is not of interest. Unknown feeds are reported and not cached.
func (t *Transcoder) resolveInput(handle wal.StreamHandle) (*binding, error) {
	if b, ok := t.inByHandle[handle]; ok {
		return b, nil
	}
	ann, err := t.in.Lookup(handle)
	if err != nil {
		return nil, errors.Wrapf(err, "lookup input stream %d", handle)
	}
	if ann.Peer == t.cfg.Peer || !strings.HasPrefix(ann.Channel, schema.RawPrefix) {
		t.inByHandle[handle] = nil
		return nil, nil
	}

	name := strings.TrimPrefix(ann.Channel, schema.RawPrefix)
	if b, ok := t.channels[name]; ok {
		t.inByHandle[handle] = b
		return b, nil
	}

	feedName, channel, _ := strings.Cut(name, "/")
	opts := feed.Options{InstrumentID: t.cfg.InstrumentID}
	if symbol, _, err := feed.SplitChannel(channel); err == nil {
		if e, ok := t.cfg.Symbology.Lookup(feedName, symbol); ok && e.InstrumentID != 0 {
			opts.InstrumentID = e.InstrumentID
		}
	}
	symbol, parser, err := t.cfg.Feeds.Resolve(feedName, channel, opts)
	if err != nil {
		return nil, errors.Wrapf(err, "resolve input %s", ann.Channel)
	}

	out, err := t.resolveOutput(feedName + "/" + t.cfg.Symbology.Normalize(feedName, symbol))
	if err != nil {
		return nil, err
	}
	b := &binding{name: name, parser: parser, out: out}
	t.channels[name] = b
	t.inByHandle[handle] = b
	return b, nil
}
