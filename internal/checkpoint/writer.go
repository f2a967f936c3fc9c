// Copyright 2026 The Sum Authors
// SPDX-License-Identifier: Apache-2.0

package checkpoint

import (
	"fmt"
	"os"
	"path/filepath"
)

// Writer owns the append-only file handle for a single stream's
// checkpoint log. It is opened with synchronous-write semantics: a
// successful Append means the record is on stable storage before the
// call returns.
type Writer struct {
	file *os.File
}

// Create opens a new checkpoint file at path. The parent directory is
// created if missing. It is a hard error for the file to already
// exist — a pre-existing file means recovery, not creation, is the
// right path.
func Create(path string) (*Writer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("checkpoint: creating parent directory for %s: %w", path, err)
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY|os.O_SYNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("checkpoint: creating %s: %w", path, err)
	}
	return &Writer{file: file}, nil
}

// OpenForRecovery opens an existing checkpoint file for read/write,
// so the recovery replayer can read every record and then truncate
// the file to the last valid offset. It returns os.ErrNotExist
// (wrapped) if the file does not exist.
func OpenForRecovery(path string) (*os.File, error) {
	file, err := os.OpenFile(path, os.O_RDWR|os.O_SYNC, 0o644)
	if err != nil {
		return nil, err
	}
	return file, nil
}

// ResumeWriter wraps an already-open, already-truncated file handle
// (typically the one recovery just finished reading) as a Writer
// positioned to append new records after the recovered prefix.
func ResumeWriter(file *os.File) *Writer {
	return &Writer{file: file}
}

// Append encodes r and writes it to the log. On success, the record
// is durable; the file offset has advanced by exactly len(record).
func (w *Writer) Append(r Record) error {
	frame := encodeRecord(r)
	if _, err := w.file.Write(frame); err != nil {
		return fmt.Errorf("checkpoint: writing record: %w", err)
	}
	return nil
}

// Close closes the underlying file handle.
func (w *Writer) Close() error {
	return w.file.Close()
}
