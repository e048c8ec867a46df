// Copyright 2026 The CrossCheck Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package quiz generates study questions from supplied material through the
// primary chat provider. Replies are requested in JSON mode and parsed
// strictly; a malformed reply is an error, never a guess.
package quiz

import (
	"context"
	"errors"
	"fmt"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/tidwall/gjson"

	"github.com/traylinx/crosscheck/internal/transport"
)

// DefaultQuestionCount is used when the caller does not ask for a specific
// number of questions.
const DefaultQuestionCount = 5

// ErrNoMaterial is returned when Generate receives empty study material.
var ErrNoMaterial = errors.New("quiz: no study material supplied")

// Question types supported by the generator.
const (
	TypeMultipleChoice = "multiple_choice"
	TypeTrueFalse      = "true_false"
	TypeShortAnswer    = "short_answer"
)

// Question is one generated study question.
type Question struct {
	// Type is one of the Type* constants.
	Type string `json:"type"`
	// Question is the question text.
	Question string `json:"question"`
	// Options holds the four choices for multiple_choice questions.
	Options []string `json:"options,omitempty"`
	// CorrectAnswer is the expected answer.
	CorrectAnswer string `json:"correct_answer"`
	// Explanation briefly justifies the answer.
	Explanation string `json:"explanation,omitempty"`
}

const generatorSystemPrompt = "You are an expert educational content creator. Generate accurate, clear study questions."

const generatorPromptTemplate = `Based on the following study material, generate %d questions.

Study Material:
%s

Requirements:
1. Mix question types: %s
2. Include the correct answer for each
3. For multiple choice: provide 4 options
4. For true/false: state clearly if true or false
5. For short answer: provide expected key points

Reply with a JSON object of this exact shape:
{
    "questions": [
        {
            "type": "question_type",
            "question": "question text",
            "options": ["..."],
            "correct_answer": "correct answer",
            "explanation": "brief explanation"
        }
    ]
}`

// Generator produces quizzes through one chat provider.
type Generator struct {
	client *transport.Client
}

// NewGenerator creates a quiz generator bound to the given provider client.
func NewGenerator(client *transport.Client) *Generator {
	return &Generator{client: client}
}

// Generate asks the provider for count questions over the material.
// questionTypes defaults to all three supported types when empty.
func (g *Generator) Generate(ctx context.Context, material string, count int, questionTypes []string) ([]Question, error) {
	if strings.TrimSpace(material) == "" {
		return nil, ErrNoMaterial
	}
	if count < 1 {
		count = DefaultQuestionCount
	}
	if len(questionTypes) == 0 {
		questionTypes = []string{TypeMultipleChoice, TypeTrueFalse, TypeShortAnswer}
	}

	prompt := fmt.Sprintf(generatorPromptTemplate, count, material, strings.Join(questionTypes, ", "))
	messages := []transport.Message{
		{Role: "system", Content: generatorSystemPrompt},
		{Role: "user", Content: prompt},
	}

	reply, err := g.client.Complete(ctx, messages, transport.Options{JSONMode: true})
	if err != nil {
		return nil, fmt.Errorf("quiz: provider call failed: %w", err)
	}

	return parseQuestions(reply)
}

// parseQuestions decodes the strict JSON quiz reply.
func parseQuestions(reply string) ([]Question, error) {
	if !gjson.Valid(reply) {
		return nil, fmt.Errorf("quiz: reply is not valid JSON")
	}
	questionsJSON := gjson.Get(reply, "questions")
	if !questionsJSON.IsArray() {
		return nil, fmt.Errorf("quiz: reply JSON carries no questions array")
	}

	var questions []Question
	if err := json.Unmarshal([]byte(questionsJSON.Raw), &questions); err != nil {
		return nil, fmt.Errorf("quiz: decode questions: %w", err)
	}
	if len(questions) == 0 {
		return nil, fmt.Errorf("quiz: provider returned an empty question list")
	}
	return questions, nil
}
