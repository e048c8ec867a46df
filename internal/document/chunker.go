// Copyright 2026 The CrossCheck Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package document loads study documents and splits them into
// token-budgeted chunks suitable for prompt context. Embedding and vector
// search are out of scope; chunks go straight into prompts.
package document

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tiktoken-go/tokenizer"
)

// DefaultChunkTokens is the default token budget per chunk.
const DefaultChunkTokens = 512

// Chunk is one slice of a loaded document.
type Chunk struct {
	// Index is the chunk position within the document, starting at 0.
	Index int `json:"index"`
	// Text is the chunk body.
	Text string `json:"text"`
	// Tokens is the tokenizer-measured size of Text.
	Tokens int `json:"tokens"`
}

// LoadFile reads a study document. Only plain-text formats are supported:
// .txt and .md. Other extensions fail rather than producing garbage text.
func LoadFile(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".md":
	default:
		return "", fmt.Errorf("document: unsupported file type %q", filepath.Ext(path))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("document: read %s: %w", path, err)
	}
	return string(data), nil
}

// Chunker splits text into chunks that each fit a token budget.
type Chunker struct {
	codec     tokenizer.Codec
	maxTokens int
}

// NewChunker creates a chunker with the given per-chunk token budget.
// Budgets below 1 select DefaultChunkTokens. Token counts use the
// cl100k_base encoding.
func NewChunker(maxTokens int) (*Chunker, error) {
	if maxTokens < 1 {
		maxTokens = DefaultChunkTokens
	}
	codec, err := tokenizer.Get(tokenizer.Cl100kBase)
	if err != nil {
		return nil, fmt.Errorf("document: load tokenizer: %w", err)
	}
	return &Chunker{codec: codec, maxTokens: maxTokens}, nil
}

// Chunk splits text on word boundaries, greedily filling each chunk up to
// the token budget. Words larger than the budget become chunks of their own
// rather than being split mid-word.
func (c *Chunker) Chunk(text string) ([]Chunk, error) {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil, nil
	}

	var chunks []Chunk
	var current []string
	currentTokens := 0

	flush := func() {
		if len(current) == 0 {
			return
		}
		chunks = append(chunks, Chunk{
			Index:  len(chunks),
			Text:   strings.Join(current, " "),
			Tokens: currentTokens,
		})
		current = current[:0]
		currentTokens = 0
	}

	for _, word := range words {
		// A joined word costs its own tokens plus the separator.
		wordTokens, err := c.codec.Count(" " + word)
		if err != nil {
			return nil, fmt.Errorf("document: count tokens: %w", err)
		}
		if currentTokens+wordTokens > c.maxTokens && len(current) > 0 {
			flush()
		}
		current = append(current, word)
		currentTokens += wordTokens
	}
	flush()

	return chunks, nil
}

// CountTokens measures the token length of text under the chunker encoding.
func (c *Chunker) CountTokens(text string) (int, error) {
	return c.codec.Count(text)
}
