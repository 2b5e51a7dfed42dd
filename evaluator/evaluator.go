//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package evaluator defines the single capability contract shared by all
// scoring strategies.
package evaluator

import (
	"context"
	"fmt"

	"github.com/evalsuite/agentharness/evalset"
	"github.com/evalsuite/agentharness/message"
	"github.com/evalsuite/agentharness/provider"
	"github.com/evalsuite/agentharness/trace"
)

// SummaryCap bounds the hits and misses lists on every score. The lists are
// user-facing summaries, not machine contracts; structured detail belongs in
// Score.Details.
const SummaryCap = 4

// Verdict is a coarse classification derived from a numeric score.
type Verdict string

// Verdict constants.
const (
	VerdictPass       Verdict = "pass"
	VerdictFail       Verdict = "fail"
	VerdictBorderline Verdict = "borderline"
)

// Context is the read-only bundle passed into every evaluator invocation.
// It is built once per attempt by the orchestrator.
type Context struct {
	// Case is the evaluation case under test.
	Case *evalset.EvalCase
	// Answer is the candidate answer text.
	Answer string
	// Target is the resolved target/provider identity.
	Target string
	// Attempt is the 1-based attempt number.
	Attempt int
	// Request is the provider request used for this attempt. Request.Question
	// is byte-identical to what the candidate provider received.
	Request *provider.Request
	// Trace is the captured normalized trace, possibly empty.
	Trace []trace.Event
	// Summary is the derived trace summary, possibly nil.
	Summary *trace.Summary
	// OutputMessages is the structured provider output, possibly empty.
	OutputMessages []message.Message
	// FileChanges carries workspace diff data captured outside the core.
	FileChanges any
	// WorkspacePath is the case workspace directory, when one exists.
	WorkspacePath string
	// ResolveJudge resolves the judge provider for LLM-based evaluators.
	// Nil when no judge is configured.
	ResolveJudge JudgeResolver
}

// JudgeResolver resolves the judge provider for a context, allowing judge
// model selection to vary per case and target. Returning a nil provider
// means no judge is available.
type JudgeResolver func(ctx context.Context, ec *Context) (provider.Provider, error)

// Score is the outcome of one evaluator invocation.
type Score struct {
	// Score is the numeric score in [0, 1].
	Score float64 `json:"score"`
	// Hits lists satisfied checks, capped at SummaryCap entries.
	Hits []string `json:"hits,omitempty"`
	// Misses lists failed checks, capped at SummaryCap entries.
	Misses []string `json:"misses,omitempty"`
	// Reasoning is the free-text explanation, when available.
	Reasoning string `json:"reasoning,omitempty"`
	// Verdict is the coarse pass/fail/borderline classification.
	Verdict Verdict `json:"verdict,omitempty"`
	// RawRequest is the audit payload sent to the judging backend.
	RawRequest string `json:"evaluator_raw_request,omitempty"`
	// Details carries evaluator-specific structured data.
	Details map[string]any `json:"details,omitempty"`
}

// Evaluator scores a candidate answer for one evaluation context.
// Implementations must be resilient to partial context (no trace, no
// reference answer) and degrade to a documented default instead of failing.
type Evaluator interface {
	// Name identifies the evaluator instance.
	Name() string
	// Type identifies the evaluator kind.
	Type() string
	// Evaluate scores the context. Runtime failures are contained: the
	// returned score is 0 with a descriptive miss instead of an error, so
	// one grading failure never aborts the run.
	Evaluate(ctx context.Context, ec *Context) (*Score, error)
}

// ClampScore clamps a score into [0, 1].
func ClampScore(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

// CapSummary truncates a hits or misses list to SummaryCap entries.
func CapSummary(entries []string) []string {
	if len(entries) <= SummaryCap {
		return entries
	}
	return entries[:SummaryCap]
}

// Normalize clamps the score, caps the summary lists and derives a verdict
// when none is set.
func (s *Score) Normalize() *Score {
	s.Score = ClampScore(s.Score)
	s.Hits = CapSummary(s.Hits)
	s.Misses = CapSummary(s.Misses)
	if s.Verdict == "" {
		if s.Score >= 0.5 {
			s.Verdict = VerdictPass
		} else {
			s.Verdict = VerdictFail
		}
	}
	return s
}

// FailScore builds a zero score with a single formatted miss. It is the
// containment boundary for evaluator failures.
func FailScore(format string, args ...any) *Score {
	return &Score{
		Score:   0,
		Misses:  []string{fmt.Sprintf(format, args...)},
		Verdict: VerdictFail,
	}
}
