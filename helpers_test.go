// Copyright 2026 The Sum Authors
// SPDX-License-Identifier: Apache-2.0

package sum

import "github.com/google/uuid"

// testUpdate is the minimal Update[string] implementation used
// throughout this package's tests.
type testUpdate struct {
	ID        uuid.UUID `cbor:"id"`
	Framework string    `cbor:"framework,omitempty"`
	HasFID    bool      `cbor:"has_fid"`
	Terminal  bool      `cbor:"terminal"`
	State     string    `cbor:"state,omitempty"`
}

func (u *testUpdate) StatusUUID() uuid.UUID { return u.ID }

func (u *testUpdate) FrameworkID() (string, bool) { return u.Framework, u.HasFID }

func (u *testUpdate) IsTerminal() bool { return u.Terminal }

func newTestUpdate(id uuid.UUID, framework string, terminal bool) *testUpdate {
	return &testUpdate{ID: id, Framework: framework, HasFID: framework != "", Terminal: terminal}
}
