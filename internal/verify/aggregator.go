// Copyright 2026 The CrossCheck Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package verify

import (
	"context"
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/traylinx/crosscheck/internal/constant"
)

// agreementThreshold is the fraction of judges that must return verified
// for the final decision to be verified. A design constant, not a
// configuration surface.
const agreementThreshold = 0.70

// Verifier fans a (query, response) pair out to judge adapters concurrently
// and reduces their verdicts into one Report.
type Verifier struct {
	adapters map[string]Adapter
	defaults []string

	mu sync.RWMutex
	// Metrics
	totalVerifications int
	verifiedCount      int
	rejectedCount      int
}

// NewVerifier creates a Verifier over the given adapters. defaults is the
// judge list used when Verify receives a nil models argument; when empty,
// the built-in default judges are used.
func NewVerifier(adapters []Adapter, defaults []string) *Verifier {
	m := make(map[string]Adapter, len(adapters))
	for _, a := range adapters {
		m[a.ID()] = a
	}
	if len(defaults) == 0 {
		defaults = constant.DefaultJudges()
	}
	return &Verifier{adapters: m, defaults: defaults}
}

// resolve maps a provider identifier to its adapter. Unknown identifiers
// degrade to the unsupported fallback instead of failing, so the fan-out
// total stays equal to the requested judge count.
func (v *Verifier) resolve(model string) Adapter {
	if a, ok := v.adapters[model]; ok {
		return a
	}
	return &UnsupportedAdapter{Provider: model}
}

// Verify dispatches all judge calls concurrently and reduces them.
//
// A nil models slice selects the default judges; an explicitly empty slice
// is a caller error (ErrNoModels). Duplicates are allowed and counted
// independently. Individual judge failures never fail the call: they become
// error placeholders in the report, excluded from the agreement numerator.
// Results are matched back to their originating index, so feedback and
// details preserve the caller's ordering regardless of completion order.
// In-flight judge calls are not cancelled when siblings fail.
func (v *Verifier) Verify(ctx context.Context, query, response string, models []string) (*Report, error) {
	if models == nil {
		models = v.defaults
	}
	if len(models) == 0 {
		return nil, ErrNoModels
	}

	type slot struct {
		verdict *Verdict
		err     error
	}
	slots := make([]slot, len(models))

	var wg sync.WaitGroup
	for i, model := range models {
		wg.Add(1)
		go func(i int, model string) {
			defer wg.Done()
			verdict, err := v.resolve(model).Judge(ctx, query, response)
			slots[i] = slot{verdict: verdict, err: err}
		}(i, model)
	}
	wg.Wait()

	agreement := 0
	feedback := make([]string, 0, len(models))
	details := make([]Outcome, 0, len(models))

	for i, s := range slots {
		model := models[i]
		if s.err != nil {
			feedback = append(feedback, fmt.Sprintf("%s: Error - %v", model, s.err))
			details = append(details, Outcome{Source: model, Error: s.err.Error()})
			continue
		}
		if s.verdict.Verified {
			agreement++
		}
		line := s.verdict.Feedback
		if line == "" {
			line = "No feedback"
		}
		feedback = append(feedback, fmt.Sprintf("%s: %s", model, line))
		details = append(details, Outcome{Source: model, Verdict: s.verdict})
	}

	ratio := float64(agreement) / float64(len(models))
	report := &Report{
		OriginalResponse: response,
		AgreementRatio:   ratio,
		Verified:         ratio >= agreementThreshold,
		Feedback:         feedback,
		Details:          details,
	}

	v.recordOutcome(report.Verified)
	log.Debugf("verify: %d/%d judges agreed (ratio %.2f, verified=%t)", agreement, len(models), ratio, report.Verified)

	return report, nil
}

// recordOutcome updates the running verification metrics.
func (v *Verifier) recordOutcome(verified bool) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.totalVerifications++
	if verified {
		v.verifiedCount++
	} else {
		v.rejectedCount++
	}
}

// GetMetrics returns verification statistics.
func (v *Verifier) GetMetrics() map[string]interface{} {
	v.mu.RLock()
	defer v.mu.RUnlock()

	verifiedRate := 0.0
	if v.totalVerifications > 0 {
		verifiedRate = float64(v.verifiedCount) / float64(v.totalVerifications)
	}

	return map[string]interface{}{
		"total_verifications": v.totalVerifications,
		"verified_count":      v.verifiedCount,
		"rejected_count":      v.rejectedCount,
		"verified_rate":       verifiedRate,
	}
}
