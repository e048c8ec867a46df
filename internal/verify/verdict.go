// Copyright 2026 The CrossCheck Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package verify implements multi-judge response verification. A single
// (query, response) pair is fanned out to a set of judge adapters
// concurrently; their verdicts are reduced to one agreement ratio and a
// final verified/not-verified decision.
package verify

import (
	"errors"
	"fmt"
)

// ErrNoModels is returned when Verify is called with an explicitly empty
// judge list. A nil list selects the default judges instead.
var ErrNoModels = errors.New("verify: no judge models supplied")

// Verdict is one judge's structured opinion on whether a response is
// correct. It is immutable once returned by an adapter.
type Verdict struct {
	// Source is the provider identifier that produced this verdict.
	Source string `json:"source"`
	// Verified reports whether the judge considers the response correct.
	Verified bool `json:"verified"`
	// Confidence is the judge's self-reported confidence in [0,1].
	// It defaults to zero when the judge does not report one.
	Confidence float64 `json:"confidence"`
	// Feedback is the judge's brief free-text assessment.
	Feedback string `json:"feedback"`
	// Corrections lists corrections the judge suggests, in its own order.
	Corrections []string `json:"corrections,omitempty"`
}

// Outcome is one slot of a verification report: either a verdict or the
// error that replaced it. Slots are ordered by the caller's judge list,
// never by completion order.
type Outcome struct {
	// Source is the provider identifier for this slot.
	Source string `json:"source"`
	// Verdict is the judge's verdict; nil when the call failed.
	Verdict *Verdict `json:"verdict,omitempty"`
	// Error describes the failure when Verdict is nil.
	Error string `json:"error,omitempty"`
}

// Report is the reduced result of one Verify call. It is complete even
// under partial judge outages: failed slots carry error placeholders.
type Report struct {
	// OriginalResponse echoes the response that was verified.
	OriginalResponse string `json:"original_response"`
	// AgreementRatio is verified-count / judges-requested, in [0,1].
	AgreementRatio float64 `json:"agreement_ratio"`
	// Verified is true when AgreementRatio reaches the agreement threshold.
	Verified bool `json:"verified"`
	// Feedback holds one line per requested judge, including error
	// placeholders, in request order.
	Feedback []string `json:"feedback"`
	// Details holds the per-judge outcomes in request order.
	Details []Outcome `json:"details"`
}

// AdapterError reports a failed judge call. It carries the provider
// identity and the underlying cause; the aggregator absorbs it into the
// report rather than propagating it.
type AdapterError struct {
	Provider string
	Err      error
}

func (e *AdapterError) Error() string {
	return fmt.Sprintf("adapter %s: %v", e.Provider, e.Err)
}

func (e *AdapterError) Unwrap() error { return e.Err }
