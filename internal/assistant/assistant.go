// Copyright 2026 The CrossCheck Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package assistant wires answer generation, multi-judge verification, quiz
// generation, and progress bookkeeping into one study-assistant surface
// consumed by the HTTP API and the CLI.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/traylinx/crosscheck/internal/document"
	"github.com/traylinx/crosscheck/internal/progress"
	"github.com/traylinx/crosscheck/internal/quiz"
	"github.com/traylinx/crosscheck/internal/transport"
	"github.com/traylinx/crosscheck/internal/util"
	"github.com/traylinx/crosscheck/internal/verify"
)

// ErrEmptyQuestion is returned when Ask receives a blank question.
var ErrEmptyQuestion = errors.New("assistant: empty question")

// ErrNoPrimaryProvider is returned when no answer backend is configured.
var ErrNoPrimaryProvider = errors.New("assistant: no primary provider configured")

const answerSystemPrompt = "You are a helpful study assistant. Answer clearly and concisely."

// Answer is the result of one Ask call.
type Answer struct {
	// Text is the generated answer.
	Text string `json:"text"`
	// Report is the verification report; nil when verification was not
	// requested.
	Report *verify.Report `json:"report,omitempty"`
}

// AskOptions adjusts a single Ask call.
type AskOptions struct {
	// Verify fans the answer out to the judges before returning.
	Verify bool
	// Judges names the judge set for verification; nil selects defaults.
	Judges []string
	// Context is optional study material prepended to the question.
	Context string
}

// Assistant orchestrates the study workflow.
type Assistant struct {
	primary  *transport.Client
	verifier *verify.Verifier
	quizzes  *quiz.Generator
	tracker  *progress.Tracker
	chunker  *document.Chunker
	sb       *util.StateBox
}

// New creates an Assistant. primary may be nil when no answer backend is
// configured; Ask then fails with ErrNoPrimaryProvider while verification
// of caller-supplied responses keeps working.
func New(primary *transport.Client, verifier *verify.Verifier, quizzes *quiz.Generator, tracker *progress.Tracker, chunker *document.Chunker, sb *util.StateBox) *Assistant {
	return &Assistant{
		primary:  primary,
		verifier: verifier,
		quizzes:  quizzes,
		tracker:  tracker,
		chunker:  chunker,
		sb:       sb,
	}
}

// Verifier exposes the underlying verifier for direct verification calls.
func (a *Assistant) Verifier() *verify.Verifier { return a.verifier }

// Tracker exposes the progress tracker.
func (a *Assistant) Tracker() *progress.Tracker { return a.tracker }

// Ask generates an answer to the question and, when requested, verifies it
// across the configured judges. Verification failures never lose the
// answer: the report degrades, the text survives.
func (a *Assistant) Ask(ctx context.Context, question string, opts AskOptions) (*Answer, error) {
	if strings.TrimSpace(question) == "" {
		return nil, ErrEmptyQuestion
	}
	if a.primary == nil {
		return nil, ErrNoPrimaryProvider
	}

	user := question
	if opts.Context != "" {
		user = fmt.Sprintf("Study material:\n%s\n\nQuestion: %s", opts.Context, question)
	}

	messages := []transport.Message{
		{Role: "system", Content: answerSystemPrompt},
		{Role: "user", Content: user},
	}
	text, err := a.primary.Complete(ctx, messages, transport.Options{})
	if err != nil {
		return nil, fmt.Errorf("assistant: answer generation failed: %w", err)
	}

	answer := &Answer{Text: text}
	if opts.Verify {
		report, err := a.verifier.Verify(ctx, question, text, opts.Judges)
		if err != nil {
			return nil, err
		}
		answer.Report = report
		a.recordVerification(question, report)
	}

	return answer, nil
}

// storedQuiz is the on-disk form of one generated quiz.
type storedQuiz struct {
	Topic     string          `json:"topic"`
	CreatedAt time.Time       `json:"created_at"`
	Questions []quiz.Question `json:"questions"`
}

// storedDocument is the on-disk form of one chunked study document.
type storedDocument struct {
	Filename string           `json:"filename"`
	LoadedAt time.Time        `json:"loaded_at"`
	Chunks   []document.Chunk `json:"chunks"`
}

// GenerateQuiz produces questions from the material, saves the quiz under
// the state directory, and records it in the progress state.
func (a *Assistant) GenerateQuiz(ctx context.Context, topic, material string, count int, questionTypes []string) ([]quiz.Question, error) {
	questions, err := a.quizzes.Generate(ctx, material, count, questionTypes)
	if err != nil {
		return nil, err
	}

	if a.sb != nil {
		a.store(a.sb.QuizzesDir(), fmt.Sprintf("quiz-%s.json", uuid.New().String()), &storedQuiz{
			Topic:     topic,
			CreatedAt: time.Now().UTC(),
			Questions: questions,
		})
	}

	if a.tracker != nil {
		if err := a.tracker.RecordQuizResult(topic, 0, len(questions)); err != nil {
			log.Warnf("assistant: record quiz failed: %v", err)
		}
	}
	return questions, nil
}

// LoadDocument reads and chunks a study document, saving the chunks under
// the state directory and recording the load in the progress state.
func (a *Assistant) LoadDocument(path string) ([]document.Chunk, error) {
	text, err := document.LoadFile(path)
	if err != nil {
		return nil, err
	}
	chunks, err := a.chunker.Chunk(text)
	if err != nil {
		return nil, err
	}

	base := filepath.Base(path)
	if a.sb != nil {
		a.store(a.sb.DocumentsDir(), base+".chunks.json", &storedDocument{
			Filename: base,
			LoadedAt: time.Now().UTC(),
			Chunks:   chunks,
		})
	}

	if a.tracker != nil {
		if err := a.tracker.RecordDocument(base, len(chunks)); err != nil {
			log.Warnf("assistant: record document failed: %v", err)
		}
	}
	return chunks, nil
}

// store writes a state artifact atomically. Failures (including read-only
// mode) are logged, not propagated: losing the artifact never loses the
// caller's result.
func (a *Assistant) store(dir, name string, v interface{}) {
	if err := a.sb.EnsureDir(dir); err != nil {
		log.Warnf("assistant: state dir %s unavailable: %v", dir, err)
		return
	}
	if err := util.SecureWriteJSON(a.sb, filepath.Join(dir, name), v); err != nil {
		log.Warnf("assistant: save %s failed: %v", name, err)
	}
}

func (a *Assistant) recordVerification(question string, report *verify.Report) {
	if a.tracker == nil {
		return
	}
	if err := a.tracker.RecordVerification(question, report.AgreementRatio, report.Verified); err != nil {
		log.Warnf("assistant: record verification failed: %v", err)
	}
}
