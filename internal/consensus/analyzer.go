// Copyright 2026 The CrossCheck Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package consensus analyzes independently generated responses to the same
// query: pairwise lexical similarity plus an overall recommendation. It
// performs no network I/O; responses are assumed already collected.
package consensus

import (
	"errors"
	"fmt"
	"sync"

	"github.com/traylinx/crosscheck/internal/similarity"
)

// ErrNoResponses is returned when Analyze receives an empty response list.
var ErrNoResponses = errors.New("consensus: no responses")

// Recommendation is the consensus verdict over a response set.
type Recommendation string

const (
	// UseWithConfidence means a strict majority of responses were verified.
	UseWithConfidence Recommendation = "use_with_confidence"

	// VerifyFurther means verified responses did not reach a strict majority.
	VerifyFurther Recommendation = "verify_further"
)

// Response is one previously collected answer to the query under analysis.
type Response struct {
	// Model identifies the generator; empty values default to
	// "model_<index>" in the report.
	Model string `json:"model"`
	// Text is the answer body.
	Text string `json:"text"`
	// Verified reports whether this answer passed verification.
	Verified bool `json:"verified"`
}

// SimilarityPair is the lexical similarity between two responses.
// It is symmetric: similarity(a,b) == similarity(b,a).
type SimilarityPair struct {
	ModelA     string  `json:"model1"`
	ModelB     string  `json:"model2"`
	Similarity float64 `json:"similarity"`
}

// Summary aggregates the verified counts over the response set.
type Summary struct {
	TotalResponses int            `json:"total_responses"`
	VerifiedCount  int            `json:"verified_count"`
	ConsensusRatio float64        `json:"consensus_ratio"`
	Recommendation Recommendation `json:"recommendation"`
}

// Report is the full analysis result, including the inputs for caller
// display.
type Report struct {
	Summary      Summary          `json:"consensus"`
	Similarities []SimilarityPair `json:"similarities"`
	Responses    []Response       `json:"responses"`
}

// Analyzer computes consensus reports and tracks running metrics.
type Analyzer struct {
	mu sync.RWMutex
	// Metrics
	totalAnalyses  int
	consensusCount int
}

// NewAnalyzer creates a new Analyzer instance.
func NewAnalyzer() *Analyzer {
	return &Analyzer{}
}

// Analyze computes all pairwise similarities and the consensus summary.
//
// The recommendation is UseWithConfidence only when verified responses form
// a strict majority. An empty input fails with ErrNoResponses rather than
// producing a degenerate summary.
func (a *Analyzer) Analyze(responses []Response) (*Report, error) {
	if len(responses) == 0 {
		return nil, ErrNoResponses
	}

	names := make([]string, len(responses))
	for i, r := range responses {
		if r.Model != "" {
			names[i] = r.Model
		} else {
			names[i] = fmt.Sprintf("model_%d", i)
		}
	}

	similarities := make([]SimilarityPair, 0, len(responses)*(len(responses)-1)/2)
	for i := 0; i < len(responses); i++ {
		for j := i + 1; j < len(responses); j++ {
			similarities = append(similarities, SimilarityPair{
				ModelA:     names[i],
				ModelB:     names[j],
				Similarity: similarity.Jaccard(responses[i].Text, responses[j].Text),
			})
		}
	}

	verified := 0
	for _, r := range responses {
		if r.Verified {
			verified++
		}
	}

	recommendation := VerifyFurther
	if float64(verified) > float64(len(responses))/2 {
		recommendation = UseWithConfidence
	}

	a.record(recommendation)

	return &Report{
		Summary: Summary{
			TotalResponses: len(responses),
			VerifiedCount:  verified,
			ConsensusRatio: float64(verified) / float64(len(responses)),
			Recommendation: recommendation,
		},
		Similarities: similarities,
		Responses:    responses,
	}, nil
}

func (a *Analyzer) record(rec Recommendation) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.totalAnalyses++
	if rec == UseWithConfidence {
		a.consensusCount++
	}
}

// GetMetrics returns consensus analysis statistics.
func (a *Analyzer) GetMetrics() map[string]interface{} {
	a.mu.RLock()
	defer a.mu.RUnlock()

	consensusRate := 0.0
	if a.totalAnalyses > 0 {
		consensusRate = float64(a.consensusCount) / float64(a.totalAnalyses)
	}

	return map[string]interface{}{
		"total_analyses":  a.totalAnalyses,
		"consensus_count": a.consensusCount,
		"consensus_rate":  consensusRate,
	}
}
