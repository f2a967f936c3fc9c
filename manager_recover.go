// Copyright 2026 The Sum Authors
// SPDX-License-Identifier: Apache-2.0

package sum

import (
	"context"
	"fmt"
)

// RecoverBundle aggregates the result of recovering a batch of stream
// ids: a RecoveredState per id that had something to resume (nil for
// ids with nothing to resume), plus a count of ids whose replay hit
// corruption beyond a tolerated torn tail.
type RecoverBundle[StreamID comparable, FrameworkID comparable] struct {
	States     map[StreamID]*RecoveredState[FrameworkID]
	ErrorCount int
}

// Recover replays the checkpoint log for each id in ids, registering
// any stream with completed state and re-arming its forward if the
// manager isn't paused. In strict mode, the first corrupted stream
// tears down every stream already recovered in this call and returns
// the error; no partial recovery is registered. In non-strict mode,
// a corrupted stream's recovery error is counted and recorded as a
// nil state, and recovery continues with the remaining ids.
func (m *Manager[StreamID, FrameworkID]) Recover(ctx context.Context, ids []StreamID, strict bool) (*RecoverBundle[StreamID, FrameworkID], error) {
	return callOn(m, ctx, func() (*RecoverBundle[StreamID, FrameworkID], error) {
		return m.doRecover(ids, strict)
	})
}

func (m *Manager[StreamID, FrameworkID]) doRecover(ids []StreamID, strict bool) (*RecoverBundle[StreamID, FrameworkID], error) {
	bundle := &RecoverBundle[StreamID, FrameworkID]{States: make(map[StreamID]*RecoveredState[FrameworkID])}
	var recovered []*stream[StreamID, FrameworkID]

	for _, id := range ids {
		if m.path == nil {
			return nil, fmt.Errorf("%w: recovery requires a Path function", ErrSchema)
		}
		path := m.path(id)

		s, state, err := recoverStream[StreamID, FrameworkID](id, path, strict, m.newUpdate)
		if err != nil {
			if strict {
				for _, rs := range recovered {
					m.removeStream(rs)
				}
				return nil, err
			}
			bundle.ErrorCount++
			bundle.States[id] = nil
			continue
		}
		if s == nil {
			bundle.States[id] = nil
			continue
		}

		m.streams[id] = s
		m.registerFrameworkMembership(s)
		recovered = append(recovered, s)
		bundle.States[id] = state

		if state.Error {
			bundle.ErrorCount++
		}
		if !m.paused && len(s.pending) > 0 {
			m.armForward(s)
		}
	}

	return bundle, nil
}
