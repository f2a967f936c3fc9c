// Copyright 2026 The Sum Authors
// SPDX-License-Identifier: Apache-2.0

package sum

import "github.com/google/uuid"

// Update is the small capability an embedder's payload type must
// satisfy for the manager to track it. The manager never inspects
// any other field: the payload's shape, encoding, and transport are
// entirely the embedder's concern.
type Update[FrameworkID comparable] interface {
	// StatusUUID uniquely identifies this update. Two updates with
	// the same UUID are the same update for deduplication purposes.
	StatusUUID() uuid.UUID

	// FrameworkID returns the update's owning framework, if it has
	// one. A stream's framework id is fixed from the first accepted
	// update and every later update must report the same value (or
	// the same absence of one).
	FrameworkID() (FrameworkID, bool)

	// IsTerminal reports whether this update ends its stream once
	// acknowledged.
	IsTerminal() bool
}

// ForwardFunc hands an update off to the transport. It must not
// block — the actor's single goroutine calls it synchronously and a
// blocked ForwardFunc stalls every stream the manager owns.
type ForwardFunc[FrameworkID comparable] func(u Update[FrameworkID])

// PathFunc resolves the checkpoint file path for a stream id. It is
// called at stream creation and at recovery; it must be pure and
// side-effect free.
type PathFunc[StreamID comparable] func(id StreamID) string

// NewUpdateFunc constructs a zero-value Update, used only by recovery
// to obtain a concrete, decodable instance for each UPDATE record the
// checkpoint log replays. The returned value's concrete type must
// match whatever type the embedder encodes into checkpoint records.
type NewUpdateFunc[FrameworkID comparable] func() Update[FrameworkID]
