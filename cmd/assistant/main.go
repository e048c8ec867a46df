// Copyright 2026 The CrossCheck Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package main provides the CrossCheck command-line assistant. It drives
// the same verification and study pipeline as the server, without HTTP.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"github.com/traylinx/crosscheck/internal/assistant"
	"github.com/traylinx/crosscheck/internal/config"
	"github.com/traylinx/crosscheck/internal/document"
	"github.com/traylinx/crosscheck/internal/logging"
	"github.com/traylinx/crosscheck/internal/progress"
	"github.com/traylinx/crosscheck/internal/quiz"
	"github.com/traylinx/crosscheck/internal/transport"
	"github.com/traylinx/crosscheck/internal/util"
	"github.com/traylinx/crosscheck/internal/verify"
)

const usage = `usage: crosscheck-assistant [-config path] <command> [args]

commands:
  ask <question>           answer a question (add -verify to cross-check it)
  verify <query> <answer>  fan an existing answer out to the judge models
  quiz <file>              generate questions from a .txt or .md document
  progress                 show the study progress summary
`

func main() {
	logging.SetupBaseLogger()
	log.SetLevel(log.WarnLevel)

	configPath := flag.String("config", "config.yaml", "path to the configuration file")
	verifyAnswer := flag.Bool("verify", false, "verify answers across the judge models (ask command)")
	count := flag.Int("count", quiz.DefaultQuestionCount, "number of questions to generate (quiz command)")
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	_ = godotenv.Load()

	if err := run(*configPath, flag.Args(), *verifyAnswer, *count); err != nil {
		fmt.Fprintf(os.Stderr, "crosscheck-assistant: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string, args []string, verifyAnswer bool, count int) error {
	a, err := buildAssistant(configPath)
	if err != nil {
		return err
	}
	ctx := context.Background()

	switch args[0] {
	case "ask":
		if len(args) < 2 {
			return fmt.Errorf("ask needs a question")
		}
		question := strings.Join(args[1:], " ")
		answer, err := a.Ask(ctx, question, assistant.AskOptions{Verify: verifyAnswer})
		if err != nil {
			return err
		}
		fmt.Println(answer.Text)
		if answer.Report != nil {
			printReport(answer.Report)
		}
		return nil

	case "verify":
		if len(args) < 3 {
			return fmt.Errorf("verify needs a query and an answer")
		}
		report, err := a.Verifier().Verify(ctx, args[1], args[2], nil)
		if err != nil {
			return err
		}
		printReport(report)
		return nil

	case "quiz":
		if len(args) < 2 {
			return fmt.Errorf("quiz needs a document path")
		}
		chunks, err := a.LoadDocument(args[1])
		if err != nil {
			return err
		}
		var material strings.Builder
		for _, chunk := range chunks {
			material.WriteString(chunk.Text)
			material.WriteString("\n")
		}
		questions, err := a.GenerateQuiz(ctx, args[1], material.String(), count, nil)
		if err != nil {
			return err
		}
		return printJSON(questions)

	case "progress":
		return printJSON(a.Tracker().Summary())

	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func buildAssistant(configPath string) (*assistant.Assistant, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	sb, err := util.NewStateBox()
	if err != nil {
		return nil, err
	}
	if err := sb.EnsureDir(sb.ProgressDir()); err != nil {
		return nil, err
	}

	prompts := verify.DefaultPromptSet()
	if cfg.Verification.PromptsFile != "" {
		prompts, err = verify.LoadPromptSet(sb.ResolvePath(cfg.Verification.PromptsFile))
		if err != nil {
			return nil, err
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
	}

	verifier := verify.NewVerifier(adapters, cfg.Verification.DefaultJudges)
	tracker, err := progress.NewTracker(sb)
	if err != nil {
		return nil, err
	}
	chunker, err := document.NewChunker(0)
	if err != nil {
		return nil, err
	}

	return assistant.New(primary, verifier, quiz.NewGenerator(primary), tracker, chunker, sb), nil
}

func printReport(report *verify.Report) {
	fmt.Printf("\nverified: %t (agreement %.2f)\n", report.Verified, report.AgreementRatio)
	for _, line := range report.Feedback {
		fmt.Printf("  %s\n", line)
	}
}

func printJSON(v interface{}) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
