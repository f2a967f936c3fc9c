// Copyright 2026 The Sum Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers for sum packages.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// CheckpointDir creates a temporary directory for stream checkpoint
// files and returns a path function that places each stream's log at
// <dir>/<streamID>.log. The directory is removed when the test
// completes.
func CheckpointDir(t *testing.T) (string, func(streamID string) string) {
	t.Helper()
	dir := t.TempDir()
	return dir, func(streamID string) string {
		return filepath.Join(dir, streamID+".log")
	}
}

// RequireFileAbsent fails the test if path exists.
func RequireFileAbsent(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err == nil {
		t.Fatalf("expected %s to be absent", path)
	}
}
