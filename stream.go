// Copyright 2026 The Sum Authors
// SPDX-License-Identifier: Apache-2.0

package sum

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/corestream/sum/internal/checkpoint"
	"github.com/corestream/sum/lib/clock"
)

// UpdateOutcome is the result of a successful call to stream.update:
// either the update was newly accepted into pending, or it was a
// no-op repeat of a UUID already seen.
type UpdateOutcome int

const (
	Accepted UpdateOutcome = iota
	DuplicateUpdate
)

func (o UpdateOutcome) String() string {
	if o == DuplicateUpdate {
		return "duplicate"
	}
	return "accepted"
}

// stream is the per-StreamId state machine: dedup sets, the pending
// FIFO, terminal tracking, and — if checkpointed — the log writer.
// It is exclusively owned by the manager's single goroutine; nothing
// here is safe for concurrent use.
type stream[StreamID comparable, FrameworkID comparable] struct {
	id StreamID

	hasFrameworkID bool
	frameworkID    FrameworkID

	checkpointed bool
	path         string
	writer       *checkpoint.Writer

	received     map[uuid.UUID]struct{}
	acknowledged map[uuid.UUID]struct{}
	pending      []Update[FrameworkID]

	terminated bool
	err        error

	// timer and backoff are managed exclusively by the manager's retry
	// scheduler (retry.go); the stream only stores them.
	timer   *clock.Timer
	backoff time.Duration
}

// newStream creates the in-memory and (optionally) on-disk state for
// a brand new stream. If checkpointed, path must not already exist.
func newStream[StreamID comparable, FrameworkID comparable](id StreamID, checkpointed bool, path string) (*stream[StreamID, FrameworkID], error) {
	s := &stream[StreamID, FrameworkID]{
		id:           id,
		checkpointed: checkpointed,
		path:         path,
		received:     make(map[uuid.UUID]struct{}),
		acknowledged: make(map[uuid.UUID]struct{}),
	}

	if checkpointed {
		writer, err := checkpoint.Create(path)
		if err != nil {
			return nil, fmt.Errorf("creating checkpoint for stream: %w: %w", ErrPersistence, err)
		}
		s.writer = writer
	}

	return s, nil
}

// adoptFrameworkID fixes the stream's framework id from its first
// update, or validates that a later update agrees with the id already
// fixed. hasID reports whether u carries a framework id at all; the
// presence/absence itself must stay consistent across the stream's
// lifetime.
func (s *stream[StreamID, FrameworkID]) adoptFrameworkID(id FrameworkID, hasID bool) error {
	if !s.hasFrameworkID {
		s.hasFrameworkID = hasID
		s.frameworkID = id
		return nil
	}
	if hasID != s.hasFrameworkID || id != s.frameworkID {
		return fmt.Errorf("%w: framework id mismatch", ErrSchema)
	}
	return nil
}

// update applies u to the stream: deduplicating by UUID, checkpointing
// first if the stream is checkpointed, then mutating in-memory state.
// A write failure sets the stream's sticky error and is returned
// wrapped in ErrPersistence; the caller must treat the stream as
// unusable for new activity from that point on.
func (s *stream[StreamID, FrameworkID]) update(u Update[FrameworkID]) (UpdateOutcome, error) {
	if s.err != nil {
		return 0, s.err
	}

	id := u.StatusUUID()
	if id == uuid.Nil {
		return 0, fmt.Errorf("%w: missing status_uuid", ErrSchema)
	}

	if _, dup := s.received[id]; dup {
		return DuplicateUpdate, nil
	}
	if _, dup := s.acknowledged[id]; dup {
		return DuplicateUpdate, nil
	}

	fid, hasID := u.FrameworkID()
	if err := s.adoptFrameworkID(fid, hasID); err != nil {
		return 0, err
	}

	if s.checkpointed {
		payload, err := encodeUpdate(u)
		if err != nil {
			s.err = fmt.Errorf("%w: encoding update: %w", ErrPersistence, err)
			return 0, s.err
		}
		if err := s.writer.Append(checkpoint.Record{Type: checkpoint.TypeUpdate, Payload: payload}); err != nil {
			s.err = fmt.Errorf("%w: %w", ErrPersistence, err)
			return 0, s.err
		}
	}

	s.received[id] = struct{}{}
	s.pending = append(s.pending, u)
	return Accepted, nil
}

// acknowledge applies an acknowledgement for id. It must match the
// UUID at the head of pending: an empty pending queue or a mismatched
// head both fail without mutating state, the former as a protocol
// error and the latter (or an already-acknowledged UUID) reported as
// ErrDuplicate so the caller can log the anomaly — this is the "retry
// produced two acks" case.
func (s *stream[StreamID, FrameworkID]) acknowledge(id uuid.UUID) (terminal bool, err error) {
	if s.err != nil {
		return false, s.err
	}

	if len(s.pending) == 0 {
		return false, fmt.Errorf("%w: unexpected ack, pending is empty", ErrSchema)
	}

	if _, already := s.acknowledged[id]; already {
		return false, fmt.Errorf("%w: uuid already acknowledged", ErrDuplicate)
	}

	head := s.pending[0]
	if head.StatusUUID() != id {
		return false, fmt.Errorf("%w: ack does not match pending head", ErrDuplicate)
	}

	if s.checkpointed {
		if err := s.writer.Append(checkpoint.Record{Type: checkpoint.TypeAck, UUID: id}); err != nil {
			s.err = fmt.Errorf("%w: %w", ErrPersistence, err)
			return false, s.err
		}
	}

	s.acknowledged[id] = struct{}{}
	s.pending = s.pending[1:]
	if head.IsTerminal() {
		s.terminated = true
	}
	return s.terminated, nil
}

// head returns the update at the front of pending, if any.
func (s *stream[StreamID, FrameworkID]) head() (Update[FrameworkID], bool) {
	if s.err != nil || len(s.pending) == 0 {
		return nil, false
	}
	return s.pending[0], true
}

// close releases the stream's checkpoint file handle, if any.
func (s *stream[StreamID, FrameworkID]) close() error {
	if s.writer == nil {
		return nil
	}
	return s.writer.Close()
}
