// Copyright 2026 The Sum Authors
// SPDX-License-Identifier: Apache-2.0

package sum

import "errors"

// Sentinel errors identify the error kinds callers branch on.
// Concrete errors returned by the manager wrap one of these; use
// errors.Is to test for a kind.
var (
	// ErrSchema marks a malformed or inconsistent request: a missing
	// status UUID, a framework id mismatch, a checkpointed-flag
	// mismatch against an existing stream, or an acknowledgement
	// against an empty pending queue. Schema errors never mutate
	// stream state.
	ErrSchema = errors.New("sum: schema error")

	// ErrUnknownStream marks an operation against a stream id the
	// manager has no record of.
	ErrUnknownStream = errors.New("sum: unknown stream")

	// ErrDuplicate marks a repeat of an operation the manager has
	// already applied: an update whose UUID was already received, or
	// an acknowledgement for a UUID that isn't at the head of the
	// pending queue. Update duplicates are reported to the caller as
	// a result value, not this error; acknowledgement duplicates are
	// reported as an error so the caller can log the anomaly.
	ErrDuplicate = errors.New("sum: duplicate")

	// ErrPersistence marks a checkpoint I/O failure: open, write,
	// read, or truncate. It sets the stream's sticky error — every
	// later operation on that stream fails until the embedder recovers
	// or discards it.
	ErrPersistence = errors.New("sum: persistence error")

	// ErrRecovery marks checkpoint log corruption beyond a tolerated
	// torn tail record: an ACK record replayed against an empty
	// pending queue, or a read failure on a non-tail record. In
	// strict recovery this tears down every stream recovered so far.
	ErrRecovery = errors.New("sum: recovery error")

	// ErrClosed is returned by any operation submitted after the
	// manager has been closed.
	ErrClosed = errors.New("sum: manager closed")
)
