// Copyright 2026 The CrossCheck Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package api exposes the CrossCheck HTTP surface: verification, consensus
// analysis, assisted chat, quiz generation, and progress endpoints, plus a
// management group for operational introspection.
package api

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/traylinx/crosscheck/internal/assistant"
	"github.com/traylinx/crosscheck/internal/config"
	"github.com/traylinx/crosscheck/internal/consensus"
	"github.com/traylinx/crosscheck/internal/util"
)

// Server hosts the CrossCheck HTTP API.
//
// The configuration lives behind an atomic pointer so hot reloads can swap
// in a fresh snapshot while handler goroutines are reading the current one.
// Snapshots are immutable once published.
type Server struct {
	cfg       atomic.Pointer[config.Config]
	assistant *assistant.Assistant
	analyzer  *consensus.Analyzer
	sb        *util.StateBox

	engine    *gin.Engine
	httpSrv   *http.Server
	startTime time.Time
}

// NewServer builds the router and all routes. The caller starts it with Run.
func NewServer(cfg *config.Config, a *assistant.Assistant, analyzer *consensus.Analyzer, sb *util.StateBox) *Server {
	if cfg.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		assistant: a,
		analyzer:  analyzer,
		sb:        sb,
		engine:    gin.New(),
		startTime: time.Now(),
	}
	s.cfg.Store(cfg)

	s.engine.Use(gin.Recovery())
	s.engine.Use(requestIDMiddleware())

	s.registerRoutes()
	return s
}

// Config returns the current configuration snapshot.
func (s *Server) Config() *config.Config { return s.cfg.Load() }

// UpdateConfig publishes a new configuration snapshot. The snapshot must
// not be mutated after this call.
func (s *Server) UpdateConfig(cfg *config.Config) { s.cfg.Store(cfg) }

func (s *Server) registerRoutes() {
	s.engine.GET("/health", s.handleHealth)

	v1 := s.engine.Group("/v1")
	{
		v1.POST("/verify", s.handleVerify)
		v1.POST("/consensus", s.handleConsensus)
		v1.POST("/chat", s.handleChat)
		v1.POST("/quiz", s.handleQuiz)
		v1.GET("/progress", s.handleProgress)
		v1.POST("/progress/sessions", s.handleRecordSession)
		v1.GET("/metrics", s.handleMetrics)
	}

	mgmt := s.engine.Group("/api", managementAuthMiddleware(s.Config))
	{
		mgmt.GET("/state-box/status", s.handleStateBoxStatus)
		mgmt.GET("/config", s.handleConfig)
	}
}

// Handler returns the underlying HTTP handler, used by tests.
func (s *Server) Handler() http.Handler { return s.engine }

// Run starts the server and blocks until the listener fails or Shutdown is
// called.
func (s *Server) Run() error {
	cfg := s.Config()
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	s.httpSrv = &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Infof("api: listening on %s", addr)
	if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}
