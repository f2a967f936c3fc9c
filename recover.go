// Copyright 2026 The Sum Authors
// SPDX-License-Identifier: Apache-2.0

package sum

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"

	"github.com/corestream/sum/internal/checkpoint"
)

// RecoveredState summarizes what replaying a single stream's
// checkpoint log produced: every update the log recorded, whether the
// stream had already reached its terminal update, and whether replay
// hit corruption beyond a tolerated torn tail.
type RecoveredState[FrameworkID comparable] struct {
	Updates    []Update[FrameworkID]
	Terminated bool
	Error      bool
}

// recoverStream replays path's checkpoint log and rebuilds the stream
// it describes. It returns (nil, nil, nil) when there is nothing to
// resume: either the file never existed, or every record it held was
// a torn tail that got discarded, leaving no completed update or
// acknowledgement behind.
//
// strict governs how a mid-stream (non-tail) error is handled: in
// strict mode recoverStream returns the error immediately without
// truncating the file; otherwise it sets RecoveredState.Error, keeps
// replaying past the bad record, and still truncates any torn tail at
// the end.
func recoverStream[StreamID comparable, FrameworkID comparable](
	id StreamID, path string, strict bool, newUpdate NewUpdateFunc[FrameworkID],
) (*stream[StreamID, FrameworkID], *RecoveredState[FrameworkID], error) {
	file, err := checkpoint.OpenForRecovery(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("%w: opening %s: %w", ErrPersistence, path, err)
	}
	closeFile := true
	defer func() {
		if closeFile {
			file.Close()
		}
	}()

	s := &stream[StreamID, FrameworkID]{
		id:           id,
		checkpointed: true,
		path:         path,
		received:     make(map[uuid.UUID]struct{}),
		acknowledged: make(map[uuid.UUID]struct{}),
	}
	state := &RecoveredState[FrameworkID]{}

	reader := checkpoint.NewReader(file)
	for {
		record, err := reader.Next()
		if errors.Is(err, checkpoint.ErrEndOfStream) {
			break
		}
		if err != nil {
			if strict {
				return nil, nil, fmt.Errorf("%w: %w", ErrRecovery, err)
			}
			state.Error = true
			continue
		}

		switch record.Type {
		case checkpoint.TypeUpdate:
			u, decodeErr := decodeUpdate(record.Payload, newUpdate)
			if decodeErr != nil {
				if strict {
					return nil, nil, fmt.Errorf("%w: decoding update: %w", ErrRecovery, decodeErr)
				}
				state.Error = true
				continue
			}

			fid, hasID := u.FrameworkID()
			if adoptErr := s.adoptFrameworkID(fid, hasID); adoptErr != nil {
				if strict {
					return nil, nil, fmt.Errorf("%w: %w", ErrRecovery, adoptErr)
				}
				state.Error = true
				continue
			}

			statusID := u.StatusUUID()
			s.received[statusID] = struct{}{}
			s.pending = append(s.pending, u)
			state.Updates = append(state.Updates, u)

		case checkpoint.TypeAck:
			if len(s.pending) == 0 {
				if strict {
					return nil, nil, fmt.Errorf("%w: ack replayed against empty pending", ErrRecovery)
				}
				state.Error = true
				continue
			}
			head := s.pending[0]
			s.acknowledged[record.UUID] = struct{}{}
			s.pending = s.pending[1:]
			if head.IsTerminal() {
				s.terminated = true
			}
		}
	}

	if err := file.Truncate(reader.Offset()); err != nil {
		return nil, nil, fmt.Errorf("%w: truncating %s: %w", ErrPersistence, path, err)
	}
	if _, err := file.Seek(reader.Offset(), io.SeekStart); err != nil {
		return nil, nil, fmt.Errorf("%w: seeking %s: %w", ErrPersistence, path, err)
	}

	if len(s.pending) == 0 && len(s.acknowledged) == 0 {
		closeFile = false
		file.Close()
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, nil, fmt.Errorf("%w: removing empty checkpoint %s: %w", ErrPersistence, path, err)
		}
		return nil, nil, nil
	}

	closeFile = false
	s.writer = checkpoint.ResumeWriter(file)
	state.Terminated = s.terminated
	return s, state, nil
}
