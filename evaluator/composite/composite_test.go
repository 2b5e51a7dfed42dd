//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

package composite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/evalsuite/agentharness/evalset"
	"github.com/evalsuite/agentharness/evaluator"
)

// fixedEvaluator returns a constant score, for aggregation tests.
type fixedEvaluator struct {
	name  string
	score float64
}

func (f *fixedEvaluator) Name() string { return f.name }
func (f *fixedEvaluator) Type() string { return "fixed" }
func (f *fixedEvaluator) Evaluate(ctx context.Context, ec *evaluator.Context) (*evaluator.Score, error) {
	s := &evaluator.Score{Score: f.score}
	return s.Normalize(), nil
}

// fixedBuilder resolves each child config to a fixed evaluator whose score
// comes from the child's "score" config key.
func fixedBuilder(cfg *evalset.EvaluatorConfig) (evaluator.Evaluator, error) {
	score, _ := cfg.Float("score")
	return &fixedEvaluator{name: cfg.Name, score: score}, nil
}

func newComposite(t *testing.T, config map[string]any) *Evaluator {
	t.Helper()
	e, err := New(&evalset.EvaluatorConfig{Name: "combo", Type: Type, Weight: 1.0, Config: config}, fixedBuilder)
	require.NoError(t, err)
	return e
}

func children(entries ...map[string]any) []any {
	out := make([]any, len(entries))
	for i, entry := range entries {
		out[i] = entry
	}
	return out
}

func TestWeightedAverage(t *testing.T) {
	e := newComposite(t, map[string]any{
		"evaluators": children(
			map[string]any{"name": "a", "type": "fixed", "weight": 1.0, "score": 1.0},
			map[string]any{"name": "b", "type": "fixed", "weight": 3.0, "score": 0.0},
		),
	})
	score, err := e.Evaluate(context.Background(), &evaluator.Context{})
	require.NoError(t, err)
	require.InDelta(t, 0.25, score.Score, 1e-9)
}

func TestChildWeightDefaultsToOne(t *testing.T) {
	e := newComposite(t, map[string]any{
		"evaluators": children(
			map[string]any{"name": "a", "type": "fixed", "score": 1.0},
			map[string]any{"name": "b", "type": "fixed", "score": 0.0},
		),
	})
	score, err := e.Evaluate(context.Background(), &evaluator.Context{})
	require.NoError(t, err)
	require.InDelta(t, 0.5, score.Score, 1e-9)
}

func TestMinimum(t *testing.T) {
	e := newComposite(t, map[string]any{
		"aggregation": AggMinimum,
		"evaluators": children(
			map[string]any{"name": "a", "type": "fixed", "score": 0.9},
			map[string]any{"name": "b", "type": "fixed", "score": 0.3},
		),
	})
	score, err := e.Evaluate(context.Background(), &evaluator.Context{})
	require.NoError(t, err)
	require.Equal(t, 0.3, score.Score)
}

func TestMaximum(t *testing.T) {
	e := newComposite(t, map[string]any{
		"aggregation": AggMaximum,
		"evaluators": children(
			map[string]any{"name": "a", "type": "fixed", "score": 0.9},
			map[string]any{"name": "b", "type": "fixed", "score": 0.3},
		),
	})
	score, err := e.Evaluate(context.Background(), &evaluator.Context{})
	require.NoError(t, err)
	require.Equal(t, 0.9, score.Score)
}

func TestAllOrNothingDefaultsToMinimum(t *testing.T) {
	e := newComposite(t, map[string]any{
		"aggregation": AggAllOrNothing,
		"evaluators": children(
			map[string]any{"name": "a", "type": "fixed", "score": 0.8},
			map[string]any{"name": "b", "type": "fixed", "score": 0.9},
		),
	})
	score, err := e.Evaluate(context.Background(), &evaluator.Context{})
	require.NoError(t, err)
	require.InDelta(t, 0.8, score.Score, 1e-9)
}

func TestAllOrNothingExplicitThresholdPasses(t *testing.T) {
	e := newComposite(t, map[string]any{
		"aggregation":    AggAllOrNothing,
		"pass_threshold": 0.5,
		"evaluators": children(
			map[string]any{"name": "a", "type": "fixed", "score": 0.8},
			map[string]any{"name": "b", "type": "fixed", "score": 0.9},
		),
	})
	score, err := e.Evaluate(context.Background(), &evaluator.Context{})
	require.NoError(t, err)
	require.Equal(t, 1.0, score.Score)
}

func TestAllOrNothing(t *testing.T) {
	e := newComposite(t, map[string]any{
		"aggregation":    AggAllOrNothing,
		"pass_threshold": 0.5,
		"evaluators": children(
			map[string]any{"name": "a", "type": "fixed", "score": 0.9},
			map[string]any{"name": "b", "type": "fixed", "score": 0.4},
		),
	})
	score, err := e.Evaluate(context.Background(), &evaluator.Context{})
	require.NoError(t, err)
	require.Equal(t, 0.0, score.Score)
}

func TestSafetyGateForcesZero(t *testing.T) {
	e := newComposite(t, map[string]any{
		"aggregation": AggSafetyGate,
		"gate":        "safety",
		"evaluators": children(
			map[string]any{"name": "safety", "type": "fixed", "score": 0.9},
			map[string]any{"name": "quality", "type": "fixed", "score": 1.0},
		),
	})
	score, err := e.Evaluate(context.Background(), &evaluator.Context{})
	require.NoError(t, err)
	require.Equal(t, 0.0, score.Score)
}

func TestSafetyGatePassesThrough(t *testing.T) {
	e := newComposite(t, map[string]any{
		"aggregation": AggSafetyGate,
		"gate":        "safety",
		"evaluators": children(
			map[string]any{"name": "safety", "type": "fixed", "score": 1.0},
			map[string]any{"name": "quality", "type": "fixed", "score": 0.7},
		),
	})
	score, err := e.Evaluate(context.Background(), &evaluator.Context{})
	require.NoError(t, err)
	require.InDelta(t, 0.7, score.Score, 1e-9)
}

func TestSafetyGateLooseThreshold(t *testing.T) {
	e := newComposite(t, map[string]any{
		"aggregation":    AggSafetyGate,
		"gate":           "safety",
		"gate_threshold": 0.8,
		"evaluators": children(
			map[string]any{"name": "safety", "type": "fixed", "score": 0.9},
			map[string]any{"name": "quality", "type": "fixed", "score": 0.6},
		),
	})
	score, err := e.Evaluate(context.Background(), &evaluator.Context{})
	require.NoError(t, err)
	require.InDelta(t, 0.6, score.Score, 1e-9)
}

func TestSafetyGateRequiresGateChild(t *testing.T) {
	_, err := New(&evalset.EvaluatorConfig{Name: "combo", Type: Type, Config: map[string]any{
		"aggregation": AggSafetyGate,
		"gate":        "missing",
		"evaluators": children(
			map[string]any{"name": "quality", "type": "fixed", "score": 1.0},
		),
	}}, fixedBuilder)
	require.Error(t, err)
}

func TestRequiresChildren(t *testing.T) {
	_, err := New(&evalset.EvaluatorConfig{Name: "combo", Type: Type, Config: map[string]any{}}, fixedBuilder)
	require.Error(t, err)
}

func TestChildDetailsRecorded(t *testing.T) {
	e := newComposite(t, map[string]any{
		"evaluators": children(
			map[string]any{"name": "a", "type": "fixed", "score": 1.0},
		),
	})
	score, err := e.Evaluate(context.Background(), &evaluator.Context{})
	require.NoError(t, err)
	detail, ok := score.Details["children"].([]map[string]any)
	require.True(t, ok)
	require.Len(t, detail, 1)
	require.Equal(t, "a", detail[0]["name"])
}
