// Copyright 2026 The Sum Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers for sum packages.
//
// [CheckpointDir] creates a temporary directory for checkpoint log
// files along with a path function matching the PathFunc signature the
// manager expects, so stream tests don't each hand-roll path joining.
//
// [RequireReceive], [RequireSend], and [RequireClosed] encapsulate the
// timeout safety valve pattern (select with time.After fallback) so
// that individual tests do not need direct time.After calls. These are
// the only place in the test suite where real wall-clock timeouts are
// used — everything else drives time through lib/clock.Fake.
//
// [UniqueID] generates monotonically increasing identifiers for test
// disambiguation. Use it instead of time.Now() when tests need unique
// stream or framework IDs.
//
// All helpers call t.Fatalf on failure rather than returning errors,
// since test setup failures are not recoverable.
//
// This package has no sum-internal dependencies.
package testutil
