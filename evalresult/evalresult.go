//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package evalresult defines the per-case result record and its sinks.
package evalresult

import (
	"context"
	"encoding/json"
	"time"

	"github.com/evalsuite/agentharness/evaluator"
	"github.com/evalsuite/agentharness/trace"
)

// EpochTime wraps time.Time to (un)marshal as unix seconds (float).
type EpochTime struct{ time.Time }

// MarshalJSON implements json.Marshaler to encode time as unix seconds.
func (t EpochTime) MarshalJSON() ([]byte, error) {
	if t.Time.IsZero() {
		return []byte("0"), nil
	}
	return json.Marshal(float64(t.Time.UnixNano()) / float64(time.Second))
}

// UnmarshalJSON implements json.Unmarshaler to decode unix seconds.
func (t *EpochTime) UnmarshalJSON(b []byte) error {
	var unixSeconds float64
	if err := json.Unmarshal(b, &unixSeconds); err != nil {
		return err
	}
	t.Time = time.Unix(0, int64(unixSeconds*float64(time.Second))).UTC()
	return nil
}

// EvaluatorResult is one evaluator's contribution to a case record.
type EvaluatorResult struct {
	// Name identifies the evaluator instance.
	Name string `json:"name"`
	// Type identifies the evaluator kind.
	Type string `json:"type"`
	// Weight is the aggregation weight applied to this evaluator.
	Weight float64 `json:"weight"`
	// Score is the evaluator's normalized score.
	Score float64 `json:"score"`
	// Verdict is the coarse classification.
	Verdict evaluator.Verdict `json:"verdict,omitempty"`
	// Hits lists satisfied checks.
	Hits []string `json:"hits,omitempty"`
	// Misses lists failed checks.
	Misses []string `json:"misses,omitempty"`
	// Reasoning is the evaluator's explanation.
	Reasoning string `json:"reasoning,omitempty"`
	// RawRequest is the audit payload sent to the judging backend.
	RawRequest string `json:"evaluator_raw_request,omitempty"`
	// Details carries evaluator-specific structured data.
	Details map[string]any `json:"details,omitempty"`
}

// Record is the single result emitted for one eval case, exactly one per
// case per run regardless of retries.
type Record struct {
	// RunID identifies the run this record belongs to.
	RunID string `json:"run_id,omitempty"`
	// EvalID identifies the eval case.
	EvalID string `json:"eval_id"`
	// EvalSetID identifies the containing eval set.
	EvalSetID string `json:"eval_set_id,omitempty"`
	// Target is the evaluated target name.
	Target string `json:"target,omitempty"`
	// Timestamp is the record creation time as unix seconds.
	Timestamp EpochTime `json:"timestamp"`
	// Score is the aggregated case score in [0, 1]. Meaningless when
	// ScoreValid is false.
	Score float64 `json:"score"`
	// ScoreValid distinguishes a genuine zero score from an errored case.
	ScoreValid bool `json:"score_valid"`
	// Hits summarizes satisfied checks across evaluators.
	Hits []string `json:"hits,omitempty"`
	// Misses summarizes failed checks across evaluators.
	Misses []string `json:"misses,omitempty"`
	// Attempts is the number of provider attempts consumed, 1-based.
	Attempts int `json:"attempts"`
	// CandidateAnswer is the final candidate answer text.
	CandidateAnswer string `json:"candidate_answer,omitempty"`
	// Evaluators contains the per-evaluator results.
	Evaluators []EvaluatorResult `json:"evaluators,omitempty"`
	// TraceSummary is the derived execution summary, when captured.
	TraceSummary *trace.Summary `json:"trace_summary,omitempty"`
	// Error is the terminal error text for cases that never produced a
	// gradable answer.
	Error string `json:"error,omitempty"`
}

// Errored reports whether the case terminated without a gradable answer.
func (r *Record) Errored() bool {
	return r.Error != "" || !r.ScoreValid
}

// Writer is a sink for result records. Implementations must be safe for
// concurrent use; the orchestrator writes from worker goroutines.
type Writer interface {
	// Write persists one record.
	Write(record *Record) error
	// Close flushes and releases the sink.
	Close() error
}

// Manager defines the interface for result storage.
type Manager interface {
	// Save stores a record.
	Save(ctx context.Context, record *Record) error
	// Get retrieves all records for a run id.
	Get(ctx context.Context, runID string) ([]*Record, error)
	// List returns all known run ids.
	List(ctx context.Context) ([]string, error)
	// Close closes the manager.
	Close() error
}
