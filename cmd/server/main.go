// Copyright 2026 The CrossCheck Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package main provides the entry point for the CrossCheck server.
// The server answers study questions through a primary chat provider and
// cross-verifies answers against multiple independent judge models.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"github.com/traylinx/crosscheck/internal/api"
	"github.com/traylinx/crosscheck/internal/assistant"
	"github.com/traylinx/crosscheck/internal/buildinfo"
	"github.com/traylinx/crosscheck/internal/config"
	"github.com/traylinx/crosscheck/internal/consensus"
	"github.com/traylinx/crosscheck/internal/document"
	"github.com/traylinx/crosscheck/internal/logging"
	"github.com/traylinx/crosscheck/internal/progress"
	"github.com/traylinx/crosscheck/internal/quiz"
	"github.com/traylinx/crosscheck/internal/transport"
	"github.com/traylinx/crosscheck/internal/util"
	"github.com/traylinx/crosscheck/internal/verify"
)

var (
	Version           = "dev"
	Commit            = "none"
	BuildDate         = "unknown"
	DefaultConfigPath = "config.yaml"
)

// init initializes the shared logger setup.
func init() {
	logging.SetupBaseLogger()
	buildinfo.Version = Version
	buildinfo.Commit = Commit
	buildinfo.BuildDate = BuildDate
}

func main() {
	configPath := flag.String("config", DefaultConfigPath, "path to the configuration file")
	port := flag.Int("port", 0, "override the configured listen port")
	hashKey := flag.String("hash-management-key", "", "print the bcrypt hash for a management key and exit")
	showVersion := flag.Bool("version", false, "print version information and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("crosscheck %s (commit %s, built %s)\n", buildinfo.Version, buildinfo.Commit, buildinfo.BuildDate)
		return
	}

	if *hashKey != "" {
		hash, err := config.HashManagementKey(*hashKey)
		if err != nil {
			log.Fatalf("hash management key: %v", err)
		}
		fmt.Println(hash)
		return
	}

	// A missing .env file is not an error; environment keys are optional.
	if err := godotenv.Load(); err == nil {
		log.Debug("loaded environment from .env")
	}

	if err := run(*configPath, *port); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}

func run(configPath string, portOverride int) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return err
	}
	if portOverride != 0 {
		cfg.Port = portOverride
	}
	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
	}

	sb, err := util.NewStateBox()
	if err != nil {
		return fmt.Errorf("initialize state directory: %w", err)
	}
	for _, dir := range []string{sb.ProgressDir(), sb.LogsDir()} {
		if err := sb.EnsureDir(dir); err != nil {
			return err
		}
	}

	if err := logging.ConfigureLogOutput(sb.LogsDir(), cfg.LoggingToFile, cfg.LogsMaxTotalSizeMB); err != nil {
		return fmt.Errorf("configure logging: %w", err)
	}

	log.Infof("crosscheck %s starting (commit %s)", buildinfo.Version, buildinfo.Commit)

	prompts := verify.DefaultPromptSet()
	if cfg.Verification.PromptsFile != "" {
		prompts, err = verify.LoadPromptSet(sb.ResolvePath(cfg.Verification.PromptsFile))
		if err != nil {
			return fmt.Errorf("load judge prompts: %w", err)
		}
	}

	var primary *transport.Client
	adapters := make([]verify.Adapter, 0, len(cfg.Providers))
	for _, p := range cfg.Providers {
		client := transport.NewClient(transport.ProviderConfig{
			Name:        p.Name,
			BaseURL:     p.BaseURL,
			APIKey:      p.APIKey,
			Model:       p.Model,
			Temperature: p.Temperature,
			MaxTokens:   p.MaxTokens,
		})
		adapters = append(adapters, verify.NewChatAdapter(client, prompts))
		if p.Name == cfg.Primary {
			primary = client
		}
		log.Infof("provider %s registered (model %s)", client.Provider(), client.Model())
	}
	if primary == nil {
		log.Warn("no primary provider configured; chat and quiz endpoints are disabled")
	}

	verifier := verify.NewVerifier(adapters, cfg.Verification.DefaultJudges)

	tracker, err := progress.NewTracker(sb)
	if err != nil {
		return err
	}
	chunker, err := document.NewChunker(0)
	if err != nil {
		return err
	}

	a := assistant.New(primary, verifier, quiz.NewGenerator(primary), tracker, chunker, sb)
	server := api.NewServer(cfg, a, consensus.NewAnalyzer(), sb)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Provider and port changes need a restart; log level and the
	// management key follow the file live. The handlers read config
	// snapshots atomically, so reloads publish a fresh copy instead of
	// mutating the one in flight.
	go func() {
		err := config.Watch(ctx, configPath, func(updated *config.Config) {
			next := *server.Config()
			next.ManagementKey = updated.ManagementKey
			next.Debug = updated.Debug
			server.UpdateConfig(&next)

			if updated.Debug {
				log.SetLevel(log.DebugLevel)
			} else {
				log.SetLevel(log.InfoLevel)
			}
			log.Info("configuration reloaded; provider changes take effect on restart")
		})
		if err != nil && ctx.Err() == nil {
			log.Errorf("config watcher stopped: %v", err)
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Run()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
