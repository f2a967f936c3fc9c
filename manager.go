// Copyright 2026 The Sum Authors
// SPDX-License-Identifier: Apache-2.0

// Package sum implements a status update manager: a generic,
// actor-style subsystem that reliably delivers an ordered sequence of
// status updates from a producer to a remote consumer over an
// unreliable channel, optionally checkpointing each update durably so
// that in-flight updates survive process crashes.
//
// A Manager owns a set of independent streams, keyed by an opaque,
// comparable StreamID. Each stream tracks which update UUIDs have
// been received and acknowledged, a FIFO of unacknowledged updates,
// and — if checkpointed — an append-only log of UPDATE and ACK
// records. The manager itself never sends anything over a wire: it
// calls an injected ForwardFunc and leaves the transport, the
// checkpoint path policy, and the update payload's shape entirely to
// the embedder.
//
// The manager is an actor: every public method, every timer
// expiration, and every forward invocation runs serially on a single
// goroutine. Public methods submit a closure to the actor's mailbox
// and block until it completes (or the context is cancelled); no
// mutex guards the manager's state because nothing outside the actor
// goroutine ever touches it.
package sum

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/corestream/sum/lib/clock"
)

// DefaultRetryMin and DefaultRetryMax are the suggested bounds for
// the forward retry scheduler's exponential backoff.
const (
	DefaultRetryMin = 10 * time.Second
	DefaultRetryMax = 10 * time.Minute
)

// Options configures a new Manager. Forward is required; Path and
// NewUpdate are needed only for checkpointing and recovery, as noted
// on each field; the rest have production-sensible defaults.
type Options[StreamID comparable, FrameworkID comparable] struct {
	// Forward hands an accepted update off to the transport. Required.
	Forward ForwardFunc[FrameworkID]

	// Path resolves a stream id to its checkpoint file path. Required
	// only if any stream is ever created or recovered with
	// checkpointing enabled.
	Path PathFunc[StreamID]

	// NewUpdate constructs a fresh Update value for checkpoint replay.
	// Required only if recovery is ever used.
	NewUpdate NewUpdateFunc[FrameworkID]

	// Clock supplies time. Defaults to clock.Real().
	Clock clock.Clock

	// RetryMin and RetryMax bound the forward retry backoff. Default
	// to DefaultRetryMin and DefaultRetryMax.
	RetryMin time.Duration
	RetryMax time.Duration

	// Logger receives diagnostic events. Defaults to slog.Default().
	Logger *slog.Logger
}

// Manager is a registry of streams plus the forwarding and retry
// machinery that drives them. See the package doc for the concurrency
// model. A zero Manager is not usable; construct one with NewManager.
type Manager[StreamID comparable, FrameworkID comparable] struct {
	mailbox   chan func()
	done      chan struct{}
	closeOnce sync.Once

	streams          map[StreamID]*stream[StreamID, FrameworkID]
	frameworkStreams map[FrameworkID]map[StreamID]struct{}
	paused           bool

	forward   ForwardFunc[FrameworkID]
	path      PathFunc[StreamID]
	newUpdate NewUpdateFunc[FrameworkID]
	clk       clock.Clock
	retryMin  time.Duration
	retryMax  time.Duration
	logger    *slog.Logger
}

// NewManager constructs a Manager and starts its actor goroutine.
// Call Close when done to stop it.
func NewManager[StreamID comparable, FrameworkID comparable](opts Options[StreamID, FrameworkID]) *Manager[StreamID, FrameworkID] {
	if opts.Clock == nil {
		opts.Clock = clock.Real()
	}
	if opts.RetryMin <= 0 {
		opts.RetryMin = DefaultRetryMin
	}
	if opts.RetryMax <= 0 {
		opts.RetryMax = DefaultRetryMax
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	m := &Manager[StreamID, FrameworkID]{
		mailbox:          make(chan func()),
		done:             make(chan struct{}),
		streams:          make(map[StreamID]*stream[StreamID, FrameworkID]),
		frameworkStreams: make(map[FrameworkID]map[StreamID]struct{}),
		forward:          opts.Forward,
		path:             opts.Path,
		newUpdate:        opts.NewUpdate,
		clk:              opts.Clock,
		retryMin:         opts.RetryMin,
		retryMax:         opts.RetryMax,
		logger:           opts.Logger,
	}

	go m.run()
	return m
}

// run is the actor's single goroutine. Every state mutation happens
// here, either from a mailbox closure submitted by a public method or
// from a retry timer's expiration closure.
func (m *Manager[StreamID, FrameworkID]) run() {
	for {
		select {
		case task := <-m.mailbox:
			task()
		case <-m.done:
			return
		}
	}
}

// callOn submits fn to m's actor and waits for its result, respecting
// both ctx cancellation and manager shutdown. It is a free function
// rather than a method because Go methods can't carry their own type
// parameters beyond the receiver's.
func callOn[StreamID comparable, FrameworkID comparable, T any](
	m *Manager[StreamID, FrameworkID], ctx context.Context, fn func() (T, error),
) (T, error) {
	type response struct {
		value T
		err   error
	}
	result := make(chan response, 1)
	task := func() {
		v, err := fn()
		result <- response{v, err}
	}

	select {
	case m.mailbox <- task:
	case <-m.done:
		var zero T
		return zero, ErrClosed
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}

	select {
	case r := <-result:
		return r.value, r.err
	case <-m.done:
		var zero T
		return zero, ErrClosed
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Update submits u for stream id, lazily creating the stream on first
// use. checkpointed fixes whether this stream's updates are durably
// logged; it must agree with whatever value was used the first time
// this stream id was seen.
func (m *Manager[StreamID, FrameworkID]) Update(ctx context.Context, id StreamID, u Update[FrameworkID], checkpointed bool) (UpdateOutcome, error) {
	return callOn(m, ctx, func() (UpdateOutcome, error) {
		return m.doUpdate(id, u, checkpointed)
	})
}

// Acknowledgement records that updateID has been acknowledged by the
// consumer for stream id. It returns true if the stream is still
// open afterward, false if the acknowledged update was terminal and
// the stream was removed.
func (m *Manager[StreamID, FrameworkID]) Acknowledgement(ctx context.Context, id StreamID, updateID uuid.UUID) (bool, error) {
	return callOn(m, ctx, func() (bool, error) {
		return m.doAcknowledgement(id, updateID)
	})
}

// Cleanup removes every stream belonging to frameworkID, cancelling
// their retry timers. Checkpoint files are left on disk.
func (m *Manager[StreamID, FrameworkID]) Cleanup(ctx context.Context, frameworkID FrameworkID) error {
	_, err := callOn(m, ctx, func() (struct{}, error) {
		m.doCleanup(frameworkID)
		return struct{}{}, nil
	})
	return err
}

// Pause suppresses outbound forwards without affecting state changes:
// updates and acknowledgements still apply, but no forward is issued
// until Resume.
func (m *Manager[StreamID, FrameworkID]) Pause(ctx context.Context) error {
	_, err := callOn(m, ctx, func() (struct{}, error) {
		m.paused = true
		return struct{}{}, nil
	})
	return err
}

// Resume clears the paused flag and re-arms a forward at RetryMin for
// every stream with a non-empty pending queue.
func (m *Manager[StreamID, FrameworkID]) Resume(ctx context.Context) error {
	_, err := callOn(m, ctx, func() (struct{}, error) {
		m.doResume()
		return struct{}{}, nil
	})
	return err
}

// Flush blocks until every operation already submitted to the
// manager — including a retry timer expiration already in flight from
// a prior clock advance — has finished. It performs no mutation of
// its own. Tests that drive the manager with a fake clock use this to
// observe state deterministically after Advance.
func (m *Manager[StreamID, FrameworkID]) Flush(ctx context.Context) error {
	_, err := callOn(m, ctx, func() (struct{}, error) { return struct{}{}, nil })
	return err
}

// Close stops the manager's actor goroutine and closes every stream's
// checkpoint file handle. It is safe to call more than once.
func (m *Manager[StreamID, FrameworkID]) Close() error {
	m.closeOnce.Do(func() {
		_, _ = callOn(m, context.Background(), func() (struct{}, error) {
			for _, s := range m.streams {
				m.cancelTimer(s)
				s.close()
			}
			return struct{}{}, nil
		})
		close(m.done)
	})
	return nil
}

func (m *Manager[StreamID, FrameworkID]) doUpdate(id StreamID, u Update[FrameworkID], checkpointed bool) (UpdateOutcome, error) {
	s, exists := m.streams[id]
	if !exists {
		path := ""
		if checkpointed {
			if m.path == nil {
				return 0, fmt.Errorf("%w: checkpointing requested but no Path function configured", ErrSchema)
			}
			path = m.path(id)
		}

		created, err := newStream[StreamID, FrameworkID](id, checkpointed, path)
		if err != nil {
			return 0, err
		}

		fid, hasID := u.FrameworkID()
		created.hasFrameworkID = hasID
		created.frameworkID = fid

		m.streams[id] = created
		m.registerFrameworkMembership(created)
		s = created
	} else if s.checkpointed != checkpointed {
		return 0, fmt.Errorf("%w: checkpoint flag mismatch for existing stream", ErrSchema)
	}

	outcome, err := s.update(u)
	if err != nil {
		return 0, err
	}

	if outcome == Accepted && len(s.pending) == 1 && !m.paused {
		m.armForward(s)
	}
	return outcome, nil
}

func (m *Manager[StreamID, FrameworkID]) doAcknowledgement(id StreamID, updateID uuid.UUID) (bool, error) {
	s, exists := m.streams[id]
	if !exists {
		return false, fmt.Errorf("%w: %v", ErrUnknownStream, id)
	}

	terminal, err := s.acknowledge(updateID)
	if err != nil {
		return false, err
	}

	if terminal {
		m.removeStream(s)
		return false, nil
	}

	if len(s.pending) > 0 && !m.paused {
		m.cancelTimer(s)
		m.armForward(s)
	}
	return true, nil
}

func (m *Manager[StreamID, FrameworkID]) doCleanup(frameworkID FrameworkID) {
	set, ok := m.frameworkStreams[frameworkID]
	if !ok {
		return
	}

	ids := make([]StreamID, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	for _, id := range ids {
		if s, exists := m.streams[id]; exists {
			m.removeStream(s)
		}
	}
}

func (m *Manager[StreamID, FrameworkID]) doResume() {
	m.paused = false
	for _, s := range m.streams {
		if len(s.pending) > 0 {
			m.cancelTimer(s)
			m.armForward(s)
		}
	}
}

func (m *Manager[StreamID, FrameworkID]) registerFrameworkMembership(s *stream[StreamID, FrameworkID]) {
	if !s.hasFrameworkID {
		return
	}
	set, ok := m.frameworkStreams[s.frameworkID]
	if !ok {
		set = make(map[StreamID]struct{})
		m.frameworkStreams[s.frameworkID] = set
	}
	set[s.id] = struct{}{}
}

func (m *Manager[StreamID, FrameworkID]) removeStream(s *stream[StreamID, FrameworkID]) {
	m.cancelTimer(s)
	delete(m.streams, s.id)

	if s.hasFrameworkID {
		if set, ok := m.frameworkStreams[s.frameworkID]; ok {
			delete(set, s.id)
			if len(set) == 0 {
				delete(m.frameworkStreams, s.frameworkID)
			}
		}
	}

	if err := s.close(); err != nil {
		m.logger.Warn("closing checkpoint handle", "error", err)
	}
}
