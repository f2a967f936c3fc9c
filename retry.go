// Copyright 2026 The Sum Authors
// SPDX-License-Identifier: Apache-2.0

package sum

import "time"

// armForward forwards the stream's current pending head immediately
// and arms a retry timer at RetryMin. Called whenever a stream
// transitions from idle to sending (a fresh update on an empty
// pending queue) or whenever an ack leaves work at the head again.
func (m *Manager[StreamID, FrameworkID]) armForward(s *stream[StreamID, FrameworkID]) {
	head, ok := s.head()
	if !ok {
		return
	}
	m.forward(head)
	s.backoff = m.retryMin
	m.scheduleTimer(s, s.backoff)
}

// scheduleTimer arms s's single retry timer for duration d. The
// timer's callback re-enters the actor through the mailbox so timer
// expirations are serialized with every other operation, exactly
// like a public method call.
func (m *Manager[StreamID, FrameworkID]) scheduleTimer(s *stream[StreamID, FrameworkID], d time.Duration) {
	s.timer = m.clk.AfterFunc(d, func() {
		select {
		case m.mailbox <- func() { m.onTimerExpire(s) }:
		case <-m.done:
		}
	})
}

// cancelTimer stops s's retry timer, if any. Stopping an already-fired
// timer is a harmless no-op; the matching onTimerExpire closure, if
// still in flight, checks the stream is still registered before
// acting.
func (m *Manager[StreamID, FrameworkID]) cancelTimer(s *stream[StreamID, FrameworkID]) {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

// onTimerExpire runs on the actor goroutine when a stream's retry
// timer fires. It re-forwards the pending head and doubles the
// backoff, capped at RetryMax. A paused manager, a stream with
// nothing pending, or a stream removed since the timer was armed all
// make this a no-op, matching pause's "cancel no timers, but the next
// expiry no-ops" contract.
func (m *Manager[StreamID, FrameworkID]) onTimerExpire(s *stream[StreamID, FrameworkID]) {
	if _, exists := m.streams[s.id]; !exists {
		return
	}
	s.timer = nil

	if m.paused {
		return
	}

	head, ok := s.head()
	if !ok {
		return
	}

	m.forward(head)
	s.backoff *= 2
	if s.backoff > m.retryMax {
		s.backoff = m.retryMax
	}
	m.scheduleTimer(s, s.backoff)
}
