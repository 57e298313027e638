/*
Package wal is the append-only multi-stream log shared by feed handlers and
the transcoder.

# Layout
  - file header: magic, version, header size
  - records: fixed header, payload, CRC32C trailer
  - announcement records bind (peer, channel, encoding) to a stream handle
  - data records carry one committed payload for one stream

# Handles
  - a stream handle is the file offset of its announcement record
  - handle 0 is never valid

# Writer
  - single writer per file
  - one WriteAt per record, so readers see whole records or nothing
  - a torn tail left by a crash is truncated on open

# Reader
  - iterators never block; an incomplete tail reads as "nothing yet"
*/
package wal
