// Copyright 2026 The CrossCheck Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package verify

import (
	"fmt"
	"os"
	"strings"

	"github.com/goccy/go-yaml"
)

// defaultSystemPrompt instructs the judge backend on its role.
const defaultSystemPrompt = "You are a fact-checker and verifier."

// defaultFactCheckPrompt embeds the query and candidate response and demands
// a strict JSON verdict. Placeholders: {query}, {response}.
const defaultFactCheckPrompt = `Verify the following response to the query.

Query: {query}
Response to verify: {response}

Please:
1. Check if the response is factually correct
2. Check if it addresses the query properly
3. Identify any errors or misleading information
4. Provide brief feedback

Reply with a JSON object of this exact shape:
{
    "verified": true or false,
    "confidence": 0.0-1.0,
    "feedback": "brief feedback",
    "corrections": ["list any corrections needed"]
}`

// PromptSet holds the prompts sent to judge backends. Operators can replace
// the built-in prompts with a YAML file.
type PromptSet struct {
	// System is the system instruction for judge calls.
	System string `yaml:"system"`
	// FactCheck is the user prompt template. It must contain the
	// {query} and {response} placeholders.
	FactCheck string `yaml:"fact_check"`
}

// DefaultPromptSet returns the built-in judge prompts.
func DefaultPromptSet() *PromptSet {
	return &PromptSet{
		System:    defaultSystemPrompt,
		FactCheck: defaultFactCheckPrompt,
	}
}

// LoadPromptSet reads a prompt override file. Fields left empty in the file
// keep their built-in values. An empty path returns the defaults.
func LoadPromptSet(path string) (*PromptSet, error) {
	ps := DefaultPromptSet()
	if path == "" {
		return ps, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("verify: read prompts file: %w", err)
	}
	var loaded PromptSet
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return nil, fmt.Errorf("verify: parse prompts file: %w", err)
	}

	if loaded.System != "" {
		ps.System = loaded.System
	}
	if loaded.FactCheck != "" {
		if !strings.Contains(loaded.FactCheck, "{query}") || !strings.Contains(loaded.FactCheck, "{response}") {
			return nil, fmt.Errorf("verify: fact_check prompt must contain {query} and {response} placeholders")
		}
		ps.FactCheck = loaded.FactCheck
	}
	return ps, nil
}

// RenderFactCheck substitutes the query and response into the fact-check
// template.
func (p *PromptSet) RenderFactCheck(query, response string) string {
	r := strings.NewReplacer("{query}", query, "{response}", response)
	return r.Replace(p.FactCheck)
}
