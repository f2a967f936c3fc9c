// Copyright 2026 The Sum Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides the status update manager's standard CBOR
// encoding configuration.
//
// The manager uses CBOR for exactly one purpose: the payload of each
// UPDATE record in a stream's on-disk checkpoint log. The checkpoint
// package frames every record itself (type byte, payload, checksum,
// behind a varint length prefix); ACK records carry the raw 16-byte
// UUID and are not CBOR-encoded. CBOR was chosen over JSON because the
// update payload is opaque to the core (the embedder supplies it) and
// CBOR round-trips arbitrary binary fields without base64 inflation.
// Types implementing encoding.TextMarshaler, such as uuid.UUID, are
// encoded as CBOR text strings.
//
// This package provides the shared CBOR encoding and decoding modes so
// every update payload is encoded identically without duplicating
// configuration. The encoder uses Core Deterministic Encoding (RFC 8949
// §4.2): sorted map keys, smallest integer encoding, no
// indefinite-length items. Same logical data always produces identical
// bytes, which matters for the recovery code path's assumption that
// replaying a log reproduces deterministic in-memory state.
//
// For buffer-oriented operations (checkpoint records):
//
//	data, err := codec.Marshal(value)
//	err = codec.Unmarshal(data, &value)
//
// Checkpoint record structs use `cbor` tags exclusively — they are
// never marshaled to JSON, so there is no reason to carry a second tag
// set. The sum command-line tools that print recovered state for
// humans do so by re-deriving a display struct, not by reusing the
// on-disk tags.
package codec
