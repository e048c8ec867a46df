// Copyright 2026 The CrossCheck Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package util

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
)

// ErrReadOnlyMode is returned when a write operation is attempted in
// read-only mode.
var ErrReadOnlyMode = errors.New("read-only environment: write operations disabled")

// SecureWrite atomically writes data to a file using the rename-swap
// pattern: write to a unique temp file, fsync, then rename onto the target.
// Crashes mid-write therefore never corrupt the target file.
//
// If sb is in read-only mode, ErrReadOnlyMode is returned without touching
// any files. Files are created with 0600 permissions.
func SecureWrite(sb *StateBox, path string, data []byte) error {
	if sb != nil && sb.IsReadOnly() {
		return ErrReadOnlyMode
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tempPath := fmt.Sprintf("%s.tmp.%s", path, uuid.New().String())
	tempFile, err := os.OpenFile(tempPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return fmt.Errorf("failed to create temp file %s: %w", tempPath, err)
	}

	cleanupTemp := true
	defer func() {
		if cleanupTemp {
			os.Remove(tempPath)
		}
	}()

	if _, err := tempFile.Write(data); err != nil {
		tempFile.Close()
		return fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tempFile.Sync(); err != nil {
		tempFile.Close()
		return fmt.Errorf("failed to fsync temp file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	// Atomic on Unix within the same filesystem; atomic on NTFS for
	// same-volume renames.
	if err := os.Rename(tempPath, path); err != nil {
		return fmt.Errorf("failed to rename temp file to target: %w", err)
	}
	cleanupTemp = false

	if err := syncDir(dir); err != nil {
		// Best effort: the file itself was written and renamed.
		fmt.Fprintf(os.Stderr, "warning: failed to sync directory %s: %v\n", dir, err)
	}

	return nil
}

// SecureWriteJSON marshals v to indented JSON and writes it atomically via
// SecureWrite.
func SecureWriteJSON(sb *StateBox, path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	data = append(data, '\n')
	return SecureWrite(sb, path, data)
}

// ReadJSON reads the file at path and unmarshals it into v.
// Returns os.ErrNotExist (wrapped) when the file does not exist.
func ReadJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to unmarshal %s: %w", path, err)
	}
	return nil
}

// syncDir syncs a directory so the rename is durable across crashes.
// Best effort; not supported on all platforms.
func syncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer d.Close()
	return d.Sync()
}
