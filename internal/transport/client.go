// Copyright 2026 The CrossCheck Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package transport implements the OpenAI-compatible chat completion client
// used to reach answer and judge backends. It is a stateless
// request/response transport: no retries and no streaming.
package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/andybalholm/brotli"
	json "github.com/goccy/go-json"
	"github.com/klauspost/compress/gzip"
	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/traylinx/crosscheck/internal/constant"
)

// ProviderConfig carries the per-provider settings needed to reach one
// OpenAI-compatible backend.
type ProviderConfig struct {
	// Name is the provider identifier (see internal/constant).
	Name string
	// BaseURL is the API root, e.g. "https://api.deepseek.com/v1".
	BaseURL string
	// APIKey is sent as a bearer token when non-empty.
	APIKey string
	// Model is the upstream model id used for requests.
	Model string
	// Temperature is the sampling temperature for completions.
	Temperature float64
	// MaxTokens caps the completion length. Zero means provider default.
	MaxTokens int
}

// Message is a single chat message in OpenAI wire format.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Options adjusts a single completion call.
type Options struct {
	// JSONMode requests the provider's structured-output JSON mode
	// (response_format json_object).
	JSONMode bool
	// ModelOverride replaces the configured model for this call only.
	ModelOverride string
}

// StatusError reports a non-2xx provider reply.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("provider returned status %d: %s", e.Code, e.Body)
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature,omitempty"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

// Client talks to one OpenAI-compatible provider.
type Client struct {
	cfg        ProviderConfig
	httpClient *http.Client
}

// NewClient creates a transport client for the given provider.
func NewClient(cfg ProviderConfig) *Client {
	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

// Provider returns the provider identifier this client is bound to.
func (c *Client) Provider() string { return c.cfg.Name }

// Model returns the configured upstream model id.
func (c *Client) Model() string { return c.cfg.Model }

// Complete sends the messages to the provider's /chat/completions endpoint
// and returns the content of the first choice.
func (c *Client) Complete(ctx context.Context, messages []Message, opts Options) (string, error) {
	if c.cfg.BaseURL == "" {
		return "", &StatusError{Code: http.StatusUnauthorized, Body: "missing provider baseURL"}
	}

	payload, err := json.Marshal(chatRequest{
		Model:       c.cfg.Model,
		Messages:    messages,
		Temperature: c.cfg.Temperature,
		MaxTokens:   c.cfg.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("transport: marshal request: %w", err)
	}
	if opts.ModelOverride != "" {
		payload, _ = sjson.SetBytes(payload, "model", opts.ModelOverride)
	}
	if opts.JSONMode {
		payload, _ = sjson.SetBytes(payload, "response_format.type", "json_object")
	}

	url := strings.TrimSuffix(c.cfg.BaseURL, "/") + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept-Encoding", "gzip, br")
	httpReq.Header.Set("User-Agent", "crosscheck")
	if c.cfg.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer func() {
		if errClose := httpResp.Body.Close(); errClose != nil {
			log.Errorf("transport: close response body error: %v", errClose)
		}
	}()

	body, err := decodeBody(httpResp)
	if err != nil {
		return "", err
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		log.Debugf("transport: %s request failed, status: %d", c.cfg.Name, httpResp.StatusCode)
		return "", &StatusError{Code: httpResp.StatusCode, Body: string(body)}
	}

	content := gjson.GetBytes(body, "choices.0.message.content")
	if !content.Exists() {
		return "", fmt.Errorf("transport: %s reply carries no message content", c.cfg.Name)
	}
	return content.String(), nil
}

// decodeBody reads the response body, transparently decompressing gzip and
// brotli encodings.
func decodeBody(resp *http.Response) ([]byte, error) {
	var reader io.Reader = resp.Body
	switch strings.ToLower(resp.Header.Get("Content-Encoding")) {
	case "gzip":
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("transport: open gzip reader: %w", err)
		}
		defer gz.Close()
		reader = gz
	case "br":
		reader = brotli.NewReader(resp.Body)
	}
	return io.ReadAll(io.LimitReader(reader, constant.MaxResponseBodyBytes))
}
