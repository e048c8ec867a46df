// Copyright 2026 The CrossCheck Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package progress persists study and verification activity as JSON state
// on disk. Writes are atomic; the file survives crashes mid-update.
package progress

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/traylinx/crosscheck/internal/util"
)

// stateFile is the progress file name under the StateBox progress directory.
const stateFile = "progress.json"

// StudySession records one study sitting.
type StudySession struct {
	Date            time.Time `json:"date"`
	DurationMinutes int       `json:"duration_minutes"`
	Topic           string    `json:"topic"`
	Notes           string    `json:"notes,omitempty"`
}

// QuizResult records the outcome of one quiz run.
type QuizResult struct {
	Date    time.Time `json:"date"`
	Topic   string    `json:"topic"`
	Correct int       `json:"correct"`
	Total   int       `json:"total"`
}

// DocumentRecord records a loaded study document.
type DocumentRecord struct {
	Filename string    `json:"filename"`
	LoadedAt time.Time `json:"loaded_at"`
	Chunks   int       `json:"chunks"`
}

// VerificationRecord records one multi-judge verification run.
type VerificationRecord struct {
	Date           time.Time `json:"date"`
	Query          string    `json:"query"`
	AgreementRatio float64   `json:"agreement_ratio"`
	Verified       bool      `json:"verified"`
}

// State is the full persisted progress document.
type State struct {
	StudySessions   []StudySession       `json:"study_sessions"`
	QuizResults     []QuizResult         `json:"quiz_results"`
	DocumentsLoaded []DocumentRecord     `json:"documents_loaded"`
	Verifications   []VerificationRecord `json:"verifications"`
	TotalStudyHours float64              `json:"total_study_hours"`
	StartDate       time.Time            `json:"start_date"`
}

// Summary aggregates the state for display.
type Summary struct {
	TotalSessions   int     `json:"total_sessions"`
	TotalStudyHours float64 `json:"total_study_hours"`
	TotalQuizzes    int     `json:"total_quizzes"`
	QuizAccuracy    float64 `json:"quiz_accuracy"`
	DocumentsLoaded int     `json:"documents_loaded"`
	Verifications   int     `json:"verifications"`
	VerifiedRate    float64 `json:"verified_rate"`
	StartDate       string  `json:"start_date"`
}

// Tracker loads, mutates, and atomically persists the progress state.
type Tracker struct {
	sb   *util.StateBox
	path string

	mu    sync.Mutex
	state State
}

// NewTracker opens the progress state under the StateBox, initializing a
// fresh document when none exists yet.
func NewTracker(sb *util.StateBox) (*Tracker, error) {
	t := &Tracker{
		sb:   sb,
		path: filepath.Join(sb.ProgressDir(), stateFile),
	}

	err := util.ReadJSON(t.path, &t.state)
	switch {
	case err == nil:
	case os.IsNotExist(err):
		t.state = State{StartDate: time.Now().UTC()}
	default:
		return nil, fmt.Errorf("progress: load state: %w", err)
	}

	return t, nil
}

// RecordSession appends a study session and updates the running hour total.
func (t *Tracker) RecordSession(durationMinutes int, topic, notes string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.state.StudySessions = append(t.state.StudySessions, StudySession{
		Date:            time.Now().UTC(),
		DurationMinutes: durationMinutes,
		Topic:           topic,
		Notes:           notes,
	})
	t.state.TotalStudyHours += float64(durationMinutes) / 60.0

	return t.saveLocked()
}

// RecordQuizResult appends a quiz outcome.
func (t *Tracker) RecordQuizResult(topic string, correct, total int) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.state.QuizResults = append(t.state.QuizResults, QuizResult{
		Date:    time.Now().UTC(),
		Topic:   topic,
		Correct: correct,
		Total:   total,
	})

	return t.saveLocked()
}

// RecordDocument appends a loaded-document record.
func (t *Tracker) RecordDocument(filename string, chunks int) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.state.DocumentsLoaded = append(t.state.DocumentsLoaded, DocumentRecord{
		Filename: filename,
		LoadedAt: time.Now().UTC(),
		Chunks:   chunks,
	})

	return t.saveLocked()
}

// RecordVerification appends a verification run.
func (t *Tracker) RecordVerification(query string, agreementRatio float64, verified bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.state.Verifications = append(t.state.Verifications, VerificationRecord{
		Date:           time.Now().UTC(),
		Query:          query,
		AgreementRatio: agreementRatio,
		Verified:       verified,
	})

	return t.saveLocked()
}

// Summary computes display aggregates from the current state.
func (t *Tracker) Summary() Summary {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := Summary{
		TotalSessions:   len(t.state.StudySessions),
		TotalStudyHours: t.state.TotalStudyHours,
		TotalQuizzes:    len(t.state.QuizResults),
		DocumentsLoaded: len(t.state.DocumentsLoaded),
		Verifications:   len(t.state.Verifications),
		StartDate:       t.state.StartDate.Format(time.RFC3339),
	}

	var correct, total int
	for _, q := range t.state.QuizResults {
		correct += q.Correct
		total += q.Total
	}
	if total > 0 {
		s.QuizAccuracy = float64(correct) / float64(total)
	}

	verified := 0
	for _, v := range t.state.Verifications {
		if v.Verified {
			verified++
		}
	}
	if len(t.state.Verifications) > 0 {
		s.VerifiedRate = float64(verified) / float64(len(t.state.Verifications))
	}

	return s
}

// Snapshot returns a copy of the full state for display.
func (t *Tracker) Snapshot() State {
	t.mu.Lock()
	defer t.mu.Unlock()

	copied := t.state
	copied.StudySessions = append([]StudySession(nil), t.state.StudySessions...)
	copied.QuizResults = append([]QuizResult(nil), t.state.QuizResults...)
	copied.DocumentsLoaded = append([]DocumentRecord(nil), t.state.DocumentsLoaded...)
	copied.Verifications = append([]VerificationRecord(nil), t.state.Verifications...)
	return copied
}

func (t *Tracker) saveLocked() error {
	return util.SecureWriteJSON(t.sb, t.path, &t.state)
}
