// Copyright 2026 The Sum Authors
// SPDX-License-Identifier: Apache-2.0

package checkpoint

import (
	"bytes"
	"errors"
	"testing"
)

func TestReaderMultipleRecords(t *testing.T) {
	var buf bytes.Buffer
	buf.Write(encodeRecord(Record{Type: TypeUpdate, Payload: []byte("one")}))
	buf.Write(encodeRecord(Record{Type: TypeUpdate, Payload: []byte("two")}))

	reader := NewReader(&buf)

	first, err := reader.Next()
	if err != nil || string(first.Payload) != "one" {
		t.Fatalf("first record = %+v, err = %v", first, err)
	}
	second, err := reader.Next()
	if err != nil || string(second.Payload) != "two" {
		t.Fatalf("second record = %+v, err = %v", second, err)
	}
	if _, err := reader.Next(); !errors.Is(err, ErrEndOfStream) {
		t.Fatalf("expected ErrEndOfStream, got %v", err)
	}
}

func TestReaderTornLength(t *testing.T) {
	// A length varint byte with the continuation bit set, then nothing.
	reader := NewReader(bytes.NewReader([]byte{0x80}))
	if _, err := reader.Next(); !errors.Is(err, ErrEndOfStream) {
		t.Fatalf("expected ErrEndOfStream, got %v", err)
	}
}

func TestReaderTornBody(t *testing.T) {
	full := encodeRecord(Record{Type: TypeUpdate, Payload: []byte("complete")})
	truncated := full[:len(full)-3]

	reader := NewReader(bytes.NewReader(truncated))
	if _, err := reader.Next(); !errors.Is(err, ErrEndOfStream) {
		t.Fatalf("expected ErrEndOfStream, got %v", err)
	}
}

func TestReaderOffsetAdvancesPastValidRecords(t *testing.T) {
	var buf bytes.Buffer
	buf.Write(encodeRecord(Record{Type: TypeUpdate, Payload: []byte("one")}))
	goodLength := buf.Len()
	buf.Write(encodeRecord(Record{Type: TypeUpdate, Payload: []byte("two")})[:2])

	reader := NewReader(&buf)
	if _, err := reader.Next(); err != nil {
		t.Fatalf("first record: %v", err)
	}
	if _, err := reader.Next(); !errors.Is(err, ErrEndOfStream) {
		t.Fatalf("expected ErrEndOfStream on torn second record, got %v", err)
	}
	if reader.Offset() != int64(goodLength) {
		t.Fatalf("offset = %d, want %d", reader.Offset(), goodLength)
	}
}

func TestReaderCorruptInteriorRecordIsNotTornTail(t *testing.T) {
	var buf bytes.Buffer
	buf.Write(encodeRecord(Record{Type: TypeUpdate, Payload: []byte("one")}))

	corrupt := encodeRecord(Record{Type: TypeUpdate, Payload: []byte("two")})
	corrupt[len(corrupt)-1] ^= 0xFF
	buf.Write(corrupt)
	buf.Write(encodeRecord(Record{Type: TypeUpdate, Payload: []byte("three")}))

	reader := NewReader(&buf)
	if _, err := reader.Next(); err != nil {
		t.Fatalf("first record: %v", err)
	}
	_, err := reader.Next()
	if err == nil || errors.Is(err, ErrEndOfStream) {
		t.Fatalf("expected a propagated corruption error, got %v", err)
	}
}
