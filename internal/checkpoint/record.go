// Copyright 2026 The Sum Authors
// SPDX-License-Identifier: Apache-2.0

// Package checkpoint implements the on-disk log format for a single
// stream's checkpoint file: a sequence of length-prefixed records,
// each carrying either a full update payload or the 16-byte UUID of
// an acknowledged update.
//
// Record encoding: varint length | type byte | body | crc32c(type|body)
// The length prefix covers everything from the type byte through the
// checksum. This lets a reader distinguish a torn tail (not enough
// bytes left to satisfy the declared length) from a corrupt interior
// record (the declared length was satisfiable but the checksum does
// not match).
package checkpoint

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"

	"github.com/google/uuid"
)

// Type discriminates the two record shapes a checkpoint log holds.
type Type uint8

const (
	// TypeUpdate carries the full, opaque encoded update payload.
	TypeUpdate Type = 1
	// TypeAck carries only the 16-byte UUID of the acknowledged update.
	TypeAck Type = 2
)

func (t Type) String() string {
	switch t {
	case TypeUpdate:
		return "UPDATE"
	case TypeAck:
		return "ACK"
	default:
		return fmt.Sprintf("Type(%d)", t)
	}
}

// Record is one decoded entry from a checkpoint log.
type Record struct {
	Type Type

	// Payload holds the opaque update bytes for TypeUpdate records.
	// The checkpoint package never interprets it; the caller supplies
	// the encoded bytes on write and decodes them on read.
	Payload []byte

	// UUID holds the acknowledged update's UUID for TypeAck records.
	UUID uuid.UUID
}

var castagnoli = crc32.MakeTable(crc32.Castagnoli)

// errCorrupt is returned by decodeBody when a record's declared
// length was fully satisfiable but its contents don't check out. The
// caller distinguishes this from a torn tail by the fact that decode
// was reached at all.
var errCorrupt = errors.New("checkpoint: corrupt record")

// encodeRecord frames r as length-prefixed bytes ready to append to
// the log: varint(len(body)) | body, where body is type|payload|crc.
func encodeRecord(r Record) []byte {
	var payload []byte
	switch r.Type {
	case TypeUpdate:
		payload = r.Payload
	case TypeAck:
		payload = r.UUID[:]
	default:
		panic(fmt.Sprintf("checkpoint: unknown record type %d", r.Type))
	}

	body := make([]byte, 0, 1+len(payload)+4)
	body = append(body, byte(r.Type))
	body = append(body, payload...)

	crc := crc32.Checksum(body, castagnoli)
	var crcBytes [4]byte
	binary.BigEndian.PutUint32(crcBytes[:], crc)
	body = append(body, crcBytes[:]...)

	var lengthBuf [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(lengthBuf[:], uint64(len(body)))

	frame := make([]byte, 0, n+len(body))
	frame = append(frame, lengthBuf[:n]...)
	frame = append(frame, body...)
	return frame
}

// decodeBody parses a fully-read record body (type|payload|crc) into
// a Record. It returns errCorrupt if the checksum doesn't match or
// the type is unrecognized.
func decodeBody(body []byte) (Record, error) {
	if len(body) < 1+4 {
		return Record{}, errCorrupt
	}

	content := body[:len(body)-4]
	expected := binary.BigEndian.Uint32(body[len(body)-4:])
	if crc32.Checksum(content, castagnoli) != expected {
		return Record{}, errCorrupt
	}

	recordType := Type(content[0])
	payload := content[1:]

	switch recordType {
	case TypeUpdate:
		return Record{Type: TypeUpdate, Payload: append([]byte(nil), payload...)}, nil
	case TypeAck:
		if len(payload) != 16 {
			return Record{}, errCorrupt
		}
		var id uuid.UUID
		copy(id[:], payload)
		return Record{Type: TypeAck, UUID: id}, nil
	default:
		return Record{}, errCorrupt
	}
}
