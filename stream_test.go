// Copyright 2026 The Sum Authors
// SPDX-License-Identifier: Apache-2.0

package sum

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
)

func TestStreamUpdateAccepted(t *testing.T) {
	s, err := newStream[string, string]("s1", false, "")
	if err != nil {
		t.Fatalf("newStream: %v", err)
	}

	u := newTestUpdate(uuid.New(), "f1", false)
	outcome, err := s.update(u)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if outcome != Accepted {
		t.Fatalf("outcome = %v, want Accepted", outcome)
	}
	if head, ok := s.head(); !ok || head != u {
		t.Fatalf("head = %v, %v; want %v, true", head, ok, u)
	}
}

func TestStreamUpdateDuplicateIsNoOp(t *testing.T) {
	s, err := newStream[string, string]("s1", false, "")
	if err != nil {
		t.Fatalf("newStream: %v", err)
	}

	id := uuid.New()
	u := newTestUpdate(id, "f1", false)
	if _, err := s.update(u); err != nil {
		t.Fatalf("first update: %v", err)
	}
	outcome, err := s.update(u)
	if err != nil {
		t.Fatalf("second update: %v", err)
	}
	if outcome != DuplicateUpdate {
		t.Fatalf("outcome = %v, want DuplicateUpdate", outcome)
	}
	if len(s.pending) != 1 {
		t.Fatalf("pending size = %d, want 1", len(s.pending))
	}
}

func TestStreamUpdateMissingUUID(t *testing.T) {
	s, err := newStream[string, string]("s1", false, "")
	if err != nil {
		t.Fatalf("newStream: %v", err)
	}

	u := newTestUpdate(uuid.Nil, "f1", false)
	if _, err := s.update(u); !errors.Is(err, ErrSchema) {
		t.Fatalf("expected ErrSchema, got %v", err)
	}
	if len(s.pending) != 0 {
		t.Fatal("pending should be unaffected by a rejected update")
	}
}

func TestStreamFrameworkIDMismatch(t *testing.T) {
	s, err := newStream[string, string]("s1", false, "")
	if err != nil {
		t.Fatalf("newStream: %v", err)
	}

	if _, err := s.update(newTestUpdate(uuid.New(), "f1", false)); err != nil {
		t.Fatalf("first update: %v", err)
	}
	if _, err := s.update(newTestUpdate(uuid.New(), "f2", false)); !errors.Is(err, ErrSchema) {
		t.Fatalf("expected ErrSchema for framework mismatch, got %v", err)
	}
}

func TestStreamAcknowledgeHappyPath(t *testing.T) {
	s, err := newStream[string, string]("s1", false, "")
	if err != nil {
		t.Fatalf("newStream: %v", err)
	}

	id := uuid.New()
	if _, err := s.update(newTestUpdate(id, "f1", false)); err != nil {
		t.Fatalf("update: %v", err)
	}

	terminal, err := s.acknowledge(id)
	if err != nil {
		t.Fatalf("acknowledge: %v", err)
	}
	if terminal {
		t.Fatal("expected non-terminal ack")
	}
	if len(s.pending) != 0 {
		t.Fatalf("pending size = %d, want 0", len(s.pending))
	}
	if _, ok := s.acknowledged[id]; !ok {
		t.Fatal("uuid not recorded as acknowledged")
	}
}

func TestStreamAcknowledgeTerminal(t *testing.T) {
	s, err := newStream[string, string]("s1", false, "")
	if err != nil {
		t.Fatalf("newStream: %v", err)
	}

	id := uuid.New()
	if _, err := s.update(newTestUpdate(id, "f1", true)); err != nil {
		t.Fatalf("update: %v", err)
	}

	terminal, err := s.acknowledge(id)
	if err != nil {
		t.Fatalf("acknowledge: %v", err)
	}
	if !terminal {
		t.Fatal("expected terminal ack")
	}
	if !s.terminated {
		t.Fatal("stream not marked terminated")
	}
}

func TestStreamAcknowledgeEmptyPendingIsError(t *testing.T) {
	s, err := newStream[string, string]("s1", false, "")
	if err != nil {
		t.Fatalf("newStream: %v", err)
	}

	if _, err := s.acknowledge(uuid.New()); !errors.Is(err, ErrSchema) {
		t.Fatalf("expected ErrSchema, got %v", err)
	}
}

func TestStreamAcknowledgeMismatchedHeadIsDuplicate(t *testing.T) {
	s, err := newStream[string, string]("s1", false, "")
	if err != nil {
		t.Fatalf("newStream: %v", err)
	}

	idA, idB := uuid.New(), uuid.New()
	if _, err := s.update(newTestUpdate(idA, "f1", false)); err != nil {
		t.Fatalf("update A: %v", err)
	}
	if _, err := s.update(newTestUpdate(idB, "f1", false)); err != nil {
		t.Fatalf("update B: %v", err)
	}

	if _, err := s.acknowledge(idB); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate for out-of-order ack, got %v", err)
	}
	if len(s.pending) != 2 {
		t.Fatalf("pending size = %d, want 2 (no state change)", len(s.pending))
	}
}

func TestStreamAcknowledgeAlreadyAcknowledgedIsDuplicate(t *testing.T) {
	s, err := newStream[string, string]("s1", false, "")
	if err != nil {
		t.Fatalf("newStream: %v", err)
	}

	id := uuid.New()
	if _, err := s.update(newTestUpdate(id, "f1", false)); err != nil {
		t.Fatalf("update: %v", err)
	}
	// A second update keeps pending non-empty, so the repeat ack below
	// reaches the already-acknowledged check rather than the
	// empty-pending one.
	if _, err := s.update(newTestUpdate(uuid.New(), "f1", false)); err != nil {
		t.Fatalf("second update: %v", err)
	}
	if _, err := s.acknowledge(id); err != nil {
		t.Fatalf("first ack: %v", err)
	}
	if _, err := s.acknowledge(id); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate on repeat ack, got %v", err)
	}
}

func TestStreamStickyErrorBlocksFurtherOps(t *testing.T) {
	s, err := newStream[string, string]("s1", false, "")
	if err != nil {
		t.Fatalf("newStream: %v", err)
	}
	s.err = errors.New("boom")

	if _, err := s.update(newTestUpdate(uuid.New(), "f1", false)); err == nil {
		t.Fatal("expected sticky error to block update")
	}
	if _, err := s.acknowledge(uuid.New()); err == nil {
		t.Fatal("expected sticky error to block acknowledge")
	}
}

func TestNewStreamCheckpointedCreatesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "s1.log")

	s, err := newStream[string, string]("s1", true, path)
	if err != nil {
		t.Fatalf("newStream: %v", err)
	}
	defer s.close()

	if s.writer == nil {
		t.Fatal("expected a checkpoint writer for a checkpointed stream")
	}
}

func TestNewStreamCheckpointedExistingFileFails(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "s1.log")

	s, err := newStream[string, string]("s1", true, path)
	if err != nil {
		t.Fatalf("newStream: %v", err)
	}
	s.close()

	if _, err := newStream[string, string]("s1", true, path); !errors.Is(err, ErrPersistence) {
		t.Fatalf("expected ErrPersistence for pre-existing checkpoint file, got %v", err)
	}
}
