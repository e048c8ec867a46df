// Copyright 2026 The CrossCheck Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package constant defines provider name constants used throughout CrossCheck.
// These constants identify the judge backends that can verify a response,
// ensuring consistent naming across the application.
package constant

const (
	// DeepSeek represents the DeepSeek provider identifier. It is the
	// default primary provider: the same backend that generates answers
	// also acts as a self-judge.
	DeepSeek = "deepseek"

	// OpenAI represents the OpenAI provider identifier.
	OpenAI = "openai"

	// Claude represents the Anthropic Claude provider identifier.
	Claude = "claude"

	// MaxResponseBodyBytes is the maximum size accepted for a provider
	// response body (8MB).
	MaxResponseBodyBytes = 8 * 1024 * 1024
)

// DefaultJudges is the provider set used by Verify when the caller does not
// supply one. Order matters: report feedback preserves this order.
func DefaultJudges() []string {
	return []string{DeepSeek, OpenAI, Claude}
}
