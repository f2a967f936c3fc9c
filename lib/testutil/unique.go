// Copyright 2026 The Sum Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"fmt"
	"sync/atomic"
)

var uniqueCounter atomic.Uint64

// UniqueID returns a string of the form "prefix-N" where N is a
// monotonically increasing integer. Use this instead of time.Now() when
// tests need unique identifiers for stream or framework ids that
// must be distinguishable within a single test run.
//
//	streamID := testutil.UniqueID("stream")       // "stream-1", "stream-2", ...
//	frameworkID := testutil.UniqueID("framework") // "framework-3", ...
func UniqueID(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, uniqueCounter.Add(1))
}
