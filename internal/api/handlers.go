// Copyright 2026 The CrossCheck Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/traylinx/crosscheck/internal/assistant"
	"github.com/traylinx/crosscheck/internal/buildinfo"
	"github.com/traylinx/crosscheck/internal/consensus"
	"github.com/traylinx/crosscheck/internal/quiz"
	"github.com/traylinx/crosscheck/internal/verify"
)

type verifyRequest struct {
	Query    string   `json:"query" binding:"required"`
	Response string   `json:"response" binding:"required"`
	Models   []string `json:"models"`
}

// handleVerify fans the (query, response) pair out to the judge models and
// returns the reduced report.
func (s *Server) handleVerify(c *gin.Context) {
	var req verifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	report, err := s.assistant.Verifier().Verify(c.Request.Context(), req.Query, req.Response, req.Models)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, verify.ErrNoModels) {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, report)
}

type consensusRequest struct {
	Responses []consensus.Response `json:"responses" binding:"required"`
}

// handleConsensus analyzes previously collected responses.
func (s *Server) handleConsensus(c *gin.Context) {
	var req consensusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	report, err := s.analyzer.Analyze(req.Responses)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, consensus.ErrNoResponses) {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, report)
}

type chatRequest struct {
	Question string   `json:"question" binding:"required"`
	Context  string   `json:"context"`
	Verify   bool     `json:"verify"`
	Judges   []string `json:"judges"`
}

// handleChat answers a question through the primary provider, optionally
// verifying the answer across the judges.
func (s *Server) handleChat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	answer, err := s.assistant.Ask(c.Request.Context(), req.Question, assistant.AskOptions{
		Verify:  req.Verify,
		Judges:  req.Judges,
		Context: req.Context,
	})
	if err != nil {
		status := http.StatusBadGateway
		switch {
		case errors.Is(err, assistant.ErrEmptyQuestion), errors.Is(err, verify.ErrNoModels):
			status = http.StatusBadRequest
		case errors.Is(err, assistant.ErrNoPrimaryProvider):
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, answer)
}

type quizRequest struct {
	Topic         string   `json:"topic"`
	Material      string   `json:"material" binding:"required"`
	Count         int      `json:"count"`
	QuestionTypes []string `json:"question_types"`
}

// handleQuiz generates study questions from the supplied material.
func (s *Server) handleQuiz(c *gin.Context) {
	var req quizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	questions, err := s.assistant.GenerateQuiz(c.Request.Context(), req.Topic, req.Material, req.Count, req.QuestionTypes)
	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, quiz.ErrNoMaterial) {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"questions": questions})
}

// handleProgress returns the progress summary and full state.
func (s *Server) handleProgress(c *gin.Context) {
	tracker := s.assistant.Tracker()
	c.JSON(http.StatusOK, gin.H{
		"summary": tracker.Summary(),
		"state":   tracker.Snapshot(),
	})
}

type sessionRequest struct {
	DurationMinutes int    `json:"duration_minutes" binding:"required"`
	Topic           string `json:"topic" binding:"required"`
	Notes           string `json:"notes"`
}

// handleRecordSession appends a study session to the progress state.
func (s *Server) handleRecordSession(c *gin.Context) {
	var req sessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := s.assistant.Tracker().RecordSession(req.DurationMinutes, req.Topic, req.Notes); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"summary": s.assistant.Tracker().Summary()})
}

// handleMetrics exposes the running verification and consensus statistics.
func (s *Server) handleMetrics(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"verification": s.assistant.Verifier().GetMetrics(),
		"consensus":    s.analyzer.GetMetrics(),
	})
}

// handleHealth reports liveness plus build metadata.
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":         "ok",
		"version":        buildinfo.Version,
		"commit":         buildinfo.Commit,
		"build_date":     buildinfo.BuildDate,
		"uptime_seconds": int(time.Since(s.startTime).Seconds()),
	})
}

// handleConfig returns the running configuration with secrets redacted
// through the json:"-" tags.
func (s *Server) handleConfig(c *gin.Context) {
	c.JSON(http.StatusOK, s.Config())
}
