// Copyright 2026 The CrossCheck Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package util provides filesystem utilities for the CrossCheck server.
package util

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// StateBox manages the canonical state directory for CrossCheck. It provides
// centralized path resolution for all mutable application data: progress
// state, loaded documents, generated quizzes, and logs.
type StateBox struct {
	rootPath string
	readOnly bool
	mu       sync.RWMutex
}

// NewStateBox creates a new StateBox instance.
// It reads CROSSCHECK_STATE_DIR and CROSSCHECK_READONLY from the
// environment. If CROSSCHECK_STATE_DIR is not set, it defaults to
// ~/.crosscheck. If CROSSCHECK_READONLY is "1", write operations are
// disabled.
func NewStateBox() (*StateBox, error) {
	stateDir := os.Getenv("CROSSCHECK_STATE_DIR")
	if stateDir == "" {
		stateDir = "~/.crosscheck"
	}

	resolvedPath, err := ExpandPath(stateDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve state directory: %w", err)
	}

	return &StateBox{
		rootPath: resolvedPath,
		readOnly: os.Getenv("CROSSCHECK_READONLY") == "1",
	}, nil
}

// RootPath returns the resolved state directory root.
func (sb *StateBox) RootPath() string {
	sb.mu.RLock()
	defer sb.mu.RUnlock()
	return sb.rootPath
}

// IsReadOnly returns whether the StateBox is in read-only mode.
func (sb *StateBox) IsReadOnly() bool {
	sb.mu.RLock()
	defer sb.mu.RUnlock()
	return sb.readOnly
}

// ProgressDir returns the path to the progress subdirectory.
func (sb *StateBox) ProgressDir() string {
	return filepath.Join(sb.RootPath(), "progress")
}

// DocumentsDir returns the path to the documents subdirectory.
func (sb *StateBox) DocumentsDir() string {
	return filepath.Join(sb.RootPath(), "documents")
}

// QuizzesDir returns the path to the quizzes subdirectory.
func (sb *StateBox) QuizzesDir() string {
	return filepath.Join(sb.RootPath(), "quizzes")
}

// LogsDir returns the path to the logs subdirectory.
func (sb *StateBox) LogsDir() string {
	return filepath.Join(sb.RootPath(), "logs")
}

// ResolvePath joins a relative path with the StateBox root. Absolute and
// tilde-prefixed paths are expanded and returned as-is.
func (sb *StateBox) ResolvePath(relativePath string) string {
	if relativePath == "" {
		return sb.RootPath()
	}

	if strings.HasPrefix(relativePath, "~") || filepath.IsAbs(relativePath) {
		cleaned, err := ExpandPath(relativePath)
		if err != nil {
			return filepath.Clean(relativePath)
		}
		return cleaned
	}

	return filepath.Join(sb.RootPath(), relativePath)
}

// EnsureDir creates a directory with 0700 permissions if it doesn't exist,
// including parents.
func (sb *StateBox) EnsureDir(dir string) error {
	if sb.IsReadOnly() {
		if _, err := os.Stat(dir); err == nil {
			return nil
		}
		return ErrReadOnlyMode
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return nil
}

// ExpandPath expands a leading tilde to the user home directory and cleans
// the result.
func ExpandPath(path string) (string, error) {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to resolve home directory: %w", err)
		}
		path = filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	abs, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return "", err
	}
	return abs, nil
}
