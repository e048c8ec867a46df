// Copyright 2026 The CrossCheck Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package progress

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/traylinx/crosscheck/internal/util"
)

func newTestTracker(t *testing.T) (*Tracker, *util.StateBox) {
	t.Helper()
	t.Setenv("CROSSCHECK_STATE_DIR", t.TempDir())
	t.Setenv("CROSSCHECK_READONLY", "")

	sb, err := util.NewStateBox()
	require.NoError(t, err)

	tracker, err := NewTracker(sb)
	require.NoError(t, err)
	return tracker, sb
}

func TestTrackerRecordsAndReloads(t *testing.T) {
	tracker, sb := newTestTracker(t)

	require.NoError(t, tracker.RecordSession(90, "concurrency", "worked through fan-out"))
	require.NoError(t, tracker.RecordQuizResult("concurrency", 4, 5))
	require.NoError(t, tracker.RecordDocument("notes.md", 12))
	require.NoError(t, tracker.RecordVerification("What is 2+2?", 1.0, true))
	require.NoError(t, tracker.RecordVerification("Capital of France?", 0.5, false))

	// A fresh tracker must see the persisted state.
	reloaded, err := NewTracker(sb)
	require.NoError(t, err)

	summary := reloaded.Summary()
	assert.Equal(t, 1, summary.TotalSessions)
	assert.InDelta(t, 1.5, summary.TotalStudyHours, 1e-9)
	assert.Equal(t, 1, summary.TotalQuizzes)
	assert.InDelta(t, 0.8, summary.QuizAccuracy, 1e-9)
	assert.Equal(t, 1, summary.DocumentsLoaded)
	assert.Equal(t, 2, summary.Verifications)
	assert.InDelta(t, 0.5, summary.VerifiedRate, 1e-9)
}

func TestTrackerFreshState(t *testing.T) {
	tracker, _ := newTestTracker(t)

	summary := tracker.Summary()
	assert.Equal(t, 0, summary.TotalSessions)
	assert.Equal(t, 0.0, summary.QuizAccuracy)
	assert.NotEmpty(t, summary.StartDate)
}

func TestTrackerSnapshotIsACopy(t *testing.T) {
	tracker, _ := newTestTracker(t)
	require.NoError(t, tracker.RecordSession(30, "testing", ""))

	snap := tracker.Snapshot()
	snap.StudySessions[0].Topic = "mutated"

	assert.Equal(t, "testing", tracker.Snapshot().StudySessions[0].Topic)
}

func TestTrackerReadOnly(t *testing.T) {
	t.Setenv("CROSSCHECK_STATE_DIR", t.TempDir())
	t.Setenv("CROSSCHECK_READONLY", "1")

	sb, err := util.NewStateBox()
	require.NoError(t, err)
	tracker, err := NewTracker(sb)
	require.NoError(t, err)

	err = tracker.RecordSession(10, "x", "")
	assert.ErrorIs(t, err, util.ErrReadOnlyMode)
}
