// Copyright 2026 The CrossCheck Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package api

import (
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
)

// StateBoxStatus represents the State Box status for API responses.
type StateBoxStatus struct {
	RootPath         string      `json:"root_path"`
	ReadOnly         bool        `json:"read_only"`
	Initialized      bool        `json:"initialized"`
	ProgressState    *FileStatus `json:"progress_state,omitempty"`
	PermissionStatus string      `json:"permission_status"` // "ok", "warning", "error"
	Warnings         []string    `json:"warnings,omitempty"`
	Errors           []string    `json:"errors,omitempty"`
}

// FileStatus represents the status of a State Box file.
type FileStatus struct {
	Path    string    `json:"path"`
	Exists  bool      `json:"exists"`
	Size    int64     `json:"size"`
	Mode    string    `json:"mode"`
	ModTime time.Time `json:"mod_time,omitempty"`
}

// getFileStatus retrieves the status of a file at the given path.
func getFileStatus(path string) *FileStatus {
	status := &FileStatus{
		Path:   path,
		Exists: false,
	}

	info, err := os.Stat(path)
	if err != nil {
		// File doesn't exist or can't be accessed
		return status
	}

	status.Exists = true
	status.Size = info.Size()
	status.Mode = info.Mode().String()
	status.ModTime = info.ModTime()

	return status
}

// handleStateBoxStatus provides information about the State Box
// configuration and file status.
func (s *Server) handleStateBoxStatus(c *gin.Context) {
	if s.sb == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "State Box not initialized",
		})
		return
	}

	status := &StateBoxStatus{
		RootPath:         s.sb.RootPath(),
		ReadOnly:         s.sb.IsReadOnly(),
		Initialized:      true,
		PermissionStatus: "ok",
		Warnings:         []string{},
		Errors:           []string{},
	}

	if _, err := os.Stat(s.sb.RootPath()); err != nil {
		if os.IsNotExist(err) {
			status.Warnings = append(status.Warnings, "State Box root directory does not exist")
			status.PermissionStatus = "warning"
		} else {
			status.Errors = append(status.Errors, "Failed to access State Box root directory")
			status.PermissionStatus = "error"
		}
	}

	progressPath := s.sb.ResolvePath("progress/progress.json")
	status.ProgressState = getFileStatus(progressPath)

	// Progress state holds study history; it should stay private.
	if status.ProgressState.Exists {
		if info, err := os.Stat(progressPath); err == nil {
			mode := info.Mode().Perm()
			if mode&0o077 != 0 {
				status.Warnings = append(status.Warnings, "Progress state has overly permissive permissions")
				if status.PermissionStatus == "ok" {
					status.PermissionStatus = "warning"
				}
			}
		}
	}

	c.JSON(http.StatusOK, status)
}
