//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

package threshold

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/evalsuite/agentharness/evalset"
	"github.com/evalsuite/agentharness/evaluator"
	"github.com/evalsuite/agentharness/trace"
)

func newThreshold(t *testing.T, kind string, config map[string]any) *Evaluator {
	t.Helper()
	e, err := New(kind, &evalset.EvaluatorConfig{Name: kind, Type: kind, Weight: 1.0, Config: config})
	require.NoError(t, err)
	return e
}

func int64Ptr(v int64) *int64       { return &v }
func float64Ptr(v float64) *float64 { return &v }

func TestLatencyWithinBudget(t *testing.T) {
	e := newThreshold(t, KindLatency, map[string]any{"max_ms": 1000})
	score, err := e.Evaluate(context.Background(), &evaluator.Context{
		Summary: &trace.Summary{DurationMs: int64Ptr(800)},
	})
	require.NoError(t, err)
	require.Equal(t, 1.0, score.Score)
}

func TestLatencyOverBudget(t *testing.T) {
	e := newThreshold(t, KindLatency, map[string]any{"max_ms": 1000})
	score, err := e.Evaluate(context.Background(), &evaluator.Context{
		Summary: &trace.Summary{DurationMs: int64Ptr(1500)},
	})
	require.NoError(t, err)
	require.Equal(t, 0.0, score.Score)
}

func TestMissingMetricFailsClosed(t *testing.T) {
	e := newThreshold(t, KindLatency, map[string]any{"max_ms": 1000})
	score, err := e.Evaluate(context.Background(), &evaluator.Context{
		Summary: &trace.Summary{},
	})
	require.NoError(t, err)
	require.Equal(t, 0.0, score.Score)
	require.Contains(t, score.Misses[0], "not captured")
}

func TestNoBudgetIsLoadTimeError(t *testing.T) {
	_, err := New(KindLatency, &evalset.EvaluatorConfig{Name: "lat", Type: KindLatency, Config: map[string]any{}})
	require.Error(t, err)
}

func TestCost(t *testing.T) {
	e := newThreshold(t, KindCost, map[string]any{"max_usd": 0.5})
	score, err := e.Evaluate(context.Background(), &evaluator.Context{
		Summary: &trace.Summary{CostUSD: float64Ptr(0.75)},
	})
	require.NoError(t, err)
	require.Equal(t, 0.0, score.Score)
}

func TestTokenUsagePartialScore(t *testing.T) {
	e := newThreshold(t, KindTokenUsage, map[string]any{
		"max_input":  1000,
		"max_output": 100,
	})
	score, err := e.Evaluate(context.Background(), &evaluator.Context{
		Summary: &trace.Summary{TokenUsage: &trace.TokenUsage{Input: 500, Output: 200}},
	})
	require.NoError(t, err)
	require.Equal(t, 0.5, score.Score)
}

func TestExecutionMetrics(t *testing.T) {
	summary := trace.Summarize([]trace.Event{
		{Type: trace.EventTypeToolCall, Name: "read"},
		{Type: trace.EventTypeToolCall, Name: "read"},
		{Type: trace.EventTypeToolCall, Name: "edit"},
	})
	e := newThreshold(t, KindExecutionMetrics, map[string]any{
		"max_tool_calls": 5,
		"max_calls_per_tool": map[string]any{
			"read": 1,
		},
	})
	score, err := e.Evaluate(context.Background(), &evaluator.Context{Summary: summary})
	require.NoError(t, err)
	require.Equal(t, 0.5, score.Score)
}

func TestExplorationRatioBounds(t *testing.T) {
	summary := trace.Summarize([]trace.Event{
		{Type: trace.EventTypeToolCall, Name: "read"},
		{Type: trace.EventTypeToolCall, Name: "edit"},
	})
	e := newThreshold(t, KindExecutionMetrics, map[string]any{
		"min_exploration_ratio": 0.25,
		"max_exploration_ratio": 0.75,
	})
	score, err := e.Evaluate(context.Background(), &evaluator.Context{Summary: summary})
	require.NoError(t, err)
	require.Equal(t, 1.0, score.Score)
}

func TestExplorationRatioUndefinedIsMiss(t *testing.T) {
	e := newThreshold(t, KindExecutionMetrics, map[string]any{
		"min_exploration_ratio": 0.1,
	})
	score, err := e.Evaluate(context.Background(), &evaluator.Context{
		Summary: trace.Summarize(nil),
	})
	require.NoError(t, err)
	require.Equal(t, 0.0, score.Score)
}

func TestUnknownKind(t *testing.T) {
	_, err := New("bogus", &evalset.EvaluatorConfig{Name: "x", Type: "bogus"})
	require.Error(t, err)
}
