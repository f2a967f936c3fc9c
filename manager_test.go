// Copyright 2026 The Sum Authors
// SPDX-License-Identifier: Apache-2.0

package sum

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/corestream/sum/lib/clock"
)

// forwardRecorder collects every update handed to ForwardFunc, safe
// for concurrent use since forwards may race with test assertions
// across Flush boundaries in a future refactor even though today
// they're always actor-serial.
type forwardRecorder struct {
	mu        sync.Mutex
	forwarded []uuid.UUID
}

func (r *forwardRecorder) forward(u Update[string]) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.forwarded = append(r.forwarded, u.StatusUUID())
}

func (r *forwardRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.forwarded)
}

func (r *forwardRecorder) last() uuid.UUID {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.forwarded[len(r.forwarded)-1]
}

func newTestManager(t *testing.T, clk clock.Clock, rec *forwardRecorder) *Manager[string, string] {
	t.Helper()
	m := NewManager(Options[string, string]{
		Forward:  rec.forward,
		Clock:    clk,
		RetryMin: 10 * time.Second,
		RetryMax: 10 * time.Minute,
	})
	t.Cleanup(func() { m.Close() })
	return m
}

func TestManagerHappyPathNoCheckpoint(t *testing.T) {
	clk := clock.Fake(time.Unix(0, 0))
	rec := &forwardRecorder{}
	m := newTestManager(t, clk, rec)
	ctx := context.Background()

	id := uuid.New()
	outcome, err := m.Update(ctx, "S1", newTestUpdate(id, "F", false), false)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if outcome != Accepted {
		t.Fatalf("outcome = %v, want Accepted", outcome)
	}
	if rec.count() != 1 {
		t.Fatalf("forward count = %d, want 1", rec.count())
	}

	stillOpen, err := m.Acknowledgement(ctx, "S1", id)
	if err != nil {
		t.Fatalf("Acknowledgement: %v", err)
	}
	if !stillOpen {
		t.Fatal("expected stream to remain open after non-terminal ack")
	}

	clk.Advance(time.Hour)
	if err := m.Flush(ctx); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if rec.count() != 1 {
		t.Fatalf("forward count after ack = %d, want 1 (no further retries)", rec.count())
	}
}

func TestManagerRetryDoublesBackoff(t *testing.T) {
	clk := clock.Fake(time.Unix(0, 0))
	rec := &forwardRecorder{}
	m := newTestManager(t, clk, rec)
	ctx := context.Background()

	id := uuid.New()
	if _, err := m.Update(ctx, "S1", newTestUpdate(id, "F", false), false); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if rec.count() != 1 {
		t.Fatalf("forward count = %d, want 1 after initial send", rec.count())
	}

	clk.Advance(10 * time.Second)
	if err := m.Flush(ctx); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if rec.count() != 2 {
		t.Fatalf("forward count = %d, want 2 after first retry", rec.count())
	}

	clk.Advance(20 * time.Second)
	if err := m.Flush(ctx); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if rec.count() != 3 {
		t.Fatalf("forward count = %d, want 3 after second retry", rec.count())
	}
}

func TestManagerTerminalAckRemovesStream(t *testing.T) {
	clk := clock.Fake(time.Unix(0, 0))
	rec := &forwardRecorder{}
	m := newTestManager(t, clk, rec)
	ctx := context.Background()

	idA := uuid.New()
	if _, err := m.Update(ctx, "S1", newTestUpdate(idA, "F", false), false); err != nil {
		t.Fatalf("update A: %v", err)
	}
	if _, err := m.Acknowledgement(ctx, "S1", idA); err != nil {
		t.Fatalf("ack A: %v", err)
	}

	idB := uuid.New()
	if _, err := m.Update(ctx, "S1", newTestUpdate(idB, "F", true), false); err != nil {
		t.Fatalf("update B: %v", err)
	}

	stillOpen, err := m.Acknowledgement(ctx, "S1", idB)
	if err != nil {
		t.Fatalf("ack B: %v", err)
	}
	if stillOpen {
		t.Fatal("expected stream removed after terminal ack")
	}

	if _, err := m.Acknowledgement(ctx, "S1", idB); !errors.Is(err, ErrUnknownStream) {
		t.Fatalf("expected ErrUnknownStream for removed stream, got %v", err)
	}
}

func TestManagerDedupUpdate(t *testing.T) {
	clk := clock.Fake(time.Unix(0, 0))
	rec := &forwardRecorder{}
	m := newTestManager(t, clk, rec)
	ctx := context.Background()

	id := uuid.New()
	u := newTestUpdate(id, "F", false)
	if _, err := m.Update(ctx, "S1", u, false); err != nil {
		t.Fatalf("first update: %v", err)
	}
	outcome, err := m.Update(ctx, "S1", u, false)
	if err != nil {
		t.Fatalf("second update: %v", err)
	}
	if outcome != DuplicateUpdate {
		t.Fatalf("outcome = %v, want DuplicateUpdate", outcome)
	}
	if rec.count() != 1 {
		t.Fatalf("forward count = %d, want 1 (no extra forward for duplicate)", rec.count())
	}
}

func TestManagerPauseSuppressesForwards(t *testing.T) {
	clk := clock.Fake(time.Unix(0, 0))
	rec := &forwardRecorder{}
	m := newTestManager(t, clk, rec)
	ctx := context.Background()

	if err := m.Pause(ctx); err != nil {
		t.Fatalf("Pause: %v", err)
	}

	id := uuid.New()
	if _, err := m.Update(ctx, "S1", newTestUpdate(id, "F", false), false); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if rec.count() != 0 {
		t.Fatalf("forward count while paused = %d, want 0", rec.count())
	}

	if err := m.Resume(ctx); err != nil {
		t.Fatalf("Resume: %v", err)
	}
	if rec.count() != 1 {
		t.Fatalf("forward count after resume = %d, want 1", rec.count())
	}
}

func TestManagerCleanupDropsFrameworkStreams(t *testing.T) {
	clk := clock.Fake(time.Unix(0, 0))
	rec := &forwardRecorder{}
	m := newTestManager(t, clk, rec)
	ctx := context.Background()

	if _, err := m.Update(ctx, "S1", newTestUpdate(uuid.New(), "F", false), false); err != nil {
		t.Fatalf("update S1: %v", err)
	}
	if _, err := m.Update(ctx, "S2", newTestUpdate(uuid.New(), "F", false), false); err != nil {
		t.Fatalf("update S2: %v", err)
	}

	if err := m.Cleanup(ctx, "F"); err != nil {
		t.Fatalf("Cleanup: %v", err)
	}

	if _, err := m.Acknowledgement(ctx, "S1", uuid.New()); !errors.Is(err, ErrUnknownStream) {
		t.Fatalf("S1: expected ErrUnknownStream, got %v", err)
	}
	if _, err := m.Acknowledgement(ctx, "S2", uuid.New()); !errors.Is(err, ErrUnknownStream) {
		t.Fatalf("S2: expected ErrUnknownStream, got %v", err)
	}
}

func TestManagerCheckpointFlagMismatchRejected(t *testing.T) {
	clk := clock.Fake(time.Unix(0, 0))
	rec := &forwardRecorder{}
	m := NewManager(Options[string, string]{
		Forward: rec.forward,
		Path:    func(id string) string { return "/tmp/unused-" + id + ".log" },
		Clock:   clk,
	})
	t.Cleanup(func() { m.Close() })
	ctx := context.Background()

	if _, err := m.Update(ctx, "S1", newTestUpdate(uuid.New(), "F", false), false); err != nil {
		t.Fatalf("first update: %v", err)
	}
	if _, err := m.Update(ctx, "S1", newTestUpdate(uuid.New(), "F", false), true); !errors.Is(err, ErrSchema) {
		t.Fatalf("expected ErrSchema for checkpoint flag mismatch, got %v", err)
	}
}
