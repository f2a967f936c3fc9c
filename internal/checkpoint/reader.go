// Copyright 2026 The Sum Authors
// SPDX-License-Identifier: Apache-2.0

package checkpoint

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// ErrEndOfStream is returned by Reader.Next when the remaining bytes
// in the log cannot form a complete record: a partial length varint,
// a declared length exceeding what remains in the file, or a
// truncated body. This is the expected, non-error outcome of reading
// past a torn tail record left by a crash mid-write; callers truncate
// the file to Offset() and move on.
var ErrEndOfStream = errors.New("checkpoint: end of stream")

// Reader replays a checkpoint log sequentially, one record at a time.
type Reader struct {
	r      io.Reader
	offset int64
}

// NewReader returns a Reader that decodes records from r starting at
// r's current position.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: r}
}

// Offset reports the number of bytes consumed by fully framed records
// so far, including records whose contents failed to decode. After
// Next returns ErrEndOfStream, Offset is the byte position at which
// the log should be truncated.
func (rd *Reader) Offset() int64 {
	return rd.offset
}

// Next decodes and returns the next record. It returns ErrEndOfStream
// when the remaining bytes can't form a complete record — a torn
// tail, never a fatal error. Any other non-nil error indicates a
// fully-length-delimited record whose contents failed to decode
// (checksum mismatch or unknown type), which callers must treat as
// log corruption rather than a torn tail.
func (rd *Reader) Next() (Record, error) {
	length, lengthSize, err := rd.readLength()
	if err != nil {
		return Record{}, err
	}

	body := make([]byte, length)
	if _, err := io.ReadFull(rd.r, body); err != nil {
		return Record{}, ErrEndOfStream
	}

	// The frame's bytes are consumed from the underlying reader
	// either way, so offset advances even on a decode failure: the
	// record occupies real space in the file and a non-tail error
	// must not be confused with a torn tail when the caller decides
	// where to truncate.
	start := rd.offset
	rd.offset += int64(lengthSize) + int64(length)

	record, err := decodeBody(body)
	if err != nil {
		return Record{}, fmt.Errorf("checkpoint: decoding record at offset %d: %w", start, err)
	}
	return record, nil
}

// readLength reads a varint-encoded length prefix one byte at a time.
// Any read failure before the varint terminates is a torn tail.
func (rd *Reader) readLength() (length uint64, size int, err error) {
	var buf []byte
	var b [1]byte

	for {
		if _, readErr := io.ReadFull(rd.r, b[:]); readErr != nil {
			return 0, 0, ErrEndOfStream
		}
		buf = append(buf, b[0])
		if b[0] < 0x80 {
			break
		}
		if len(buf) >= binary.MaxVarintLen64 {
			return 0, 0, fmt.Errorf("checkpoint: length varint at offset %d exceeds %d bytes", rd.offset, binary.MaxVarintLen64)
		}
	}

	length, n := binary.Uvarint(buf)
	if n <= 0 {
		return 0, 0, fmt.Errorf("checkpoint: invalid length varint at offset %d", rd.offset)
	}
	return length, len(buf), nil
}
