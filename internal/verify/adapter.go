// Copyright 2026 The CrossCheck Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package verify

import (
	"context"
	"fmt"

	json "github.com/goccy/go-json"
	"github.com/tidwall/gjson"

	"github.com/traylinx/crosscheck/internal/transport"
)

// Adapter translates a (query, response) pair into a single structured
// verdict from one external judge. One outbound call per invocation, no
// retries at this layer.
type Adapter interface {
	// ID returns the provider identifier this adapter judges with.
	ID() string
	// Judge obtains a verdict for the candidate response. It fails with
	// an *AdapterError when the backend call or verdict parsing fails.
	Judge(ctx context.Context, query, response string) (*Verdict, error)
}

// verdictPayload is the strict JSON object a judge backend must reply with.
type verdictPayload struct {
	Verified    bool     `json:"verified"`
	Confidence  float64  `json:"confidence"`
	Feedback    string   `json:"feedback"`
	Corrections []string `json:"corrections"`
}

// ChatAdapter judges through an OpenAI-compatible chat backend. The reply is
// requested in JSON mode and parsed strictly: anything that is not a JSON
// object with a "verified" field is an AdapterError, never a guess.
type ChatAdapter struct {
	client  *transport.Client
	prompts *PromptSet
}

// NewChatAdapter creates a judge adapter bound to a provider transport.
// A nil prompt set selects the built-in prompts.
func NewChatAdapter(client *transport.Client, prompts *PromptSet) *ChatAdapter {
	if prompts == nil {
		prompts = DefaultPromptSet()
	}
	return &ChatAdapter{client: client, prompts: prompts}
}

// ID implements Adapter.
func (a *ChatAdapter) ID() string { return a.client.Provider() }

// Judge implements Adapter.
func (a *ChatAdapter) Judge(ctx context.Context, query, response string) (*Verdict, error) {
	messages := []transport.Message{
		{Role: "system", Content: a.prompts.System},
		{Role: "user", Content: a.prompts.RenderFactCheck(query, response)},
	}

	reply, err := a.client.Complete(ctx, messages, transport.Options{JSONMode: true})
	if err != nil {
		return nil, &AdapterError{Provider: a.ID(), Err: err}
	}

	verdict, err := parseVerdict(a.ID(), reply)
	if err != nil {
		return nil, &AdapterError{Provider: a.ID(), Err: err}
	}
	return verdict, nil
}

// parseVerdict decodes a strict JSON verdict object. The "verified" field is
// mandatory; its absence means the backend ignored the output contract.
func parseVerdict(source, reply string) (*Verdict, error) {
	if !gjson.Valid(reply) {
		return nil, fmt.Errorf("reply is not valid JSON")
	}
	if !gjson.Get(reply, "verified").Exists() {
		return nil, fmt.Errorf("reply JSON carries no verified field")
	}

	var payload verdictPayload
	if err := json.Unmarshal([]byte(reply), &payload); err != nil {
		return nil, fmt.Errorf("decode verdict JSON: %w", err)
	}

	return &Verdict{
		Source:      source,
		Verified:    payload.Verified,
		Confidence:  payload.Confidence,
		Feedback:    payload.Feedback,
		Corrections: payload.Corrections,
	}, nil
}

// UnsupportedAdapter is the fallback for provider identifiers with no
// configured backend. It never fails: the verdict is a rejection with a
// diagnostic feedback string, which keeps the fan-out count stable.
type UnsupportedAdapter struct {
	Provider string
}

// ID implements Adapter.
func (a *UnsupportedAdapter) ID() string { return a.Provider }

// Judge implements Adapter.
func (a *UnsupportedAdapter) Judge(_ context.Context, _, _ string) (*Verdict, error) {
	return &Verdict{
		Source:   a.Provider,
		Verified: false,
		Feedback: fmt.Sprintf("Unsupported model: %s", a.Provider),
	}, nil
}
