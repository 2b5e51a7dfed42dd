//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

package trajectory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/evalsuite/agentharness/evalset"
	"github.com/evalsuite/agentharness/evaluator"
	"github.com/evalsuite/agentharness/message"
	"github.com/evalsuite/agentharness/trace"
)

func newEvaluator(t *testing.T, config map[string]any) *Evaluator {
	t.Helper()
	e, err := New(&evalset.EvaluatorConfig{Name: "traj", Type: Type, Weight: 1.0, Config: config})
	require.NoError(t, err)
	return e
}

func caseWithExpected(calls ...message.ToolCall) *evalset.EvalCase {
	return &evalset.EvalCase{
		ID:            "case-1",
		InputMessages: []message.Message{message.NewUserMessage("go")},
		ExpectedMessages: []message.Message{
			{Role: message.RoleAssistant, ToolCalls: calls},
		},
	}
}

func toolEvents(names ...string) []trace.Event {
	events := make([]trace.Event, 0, len(names))
	for _, name := range names {
		events = append(events, trace.Event{Type: trace.EventTypeToolCall, Name: name})
	}
	return events
}

func TestAnyOrderAllMinimumsMet(t *testing.T) {
	e := newEvaluator(t, nil)
	ec := &evaluator.Context{
		Case:  caseWithExpected(message.ToolCall{Tool: "read"}, message.ToolCall{Tool: "grep"}, message.ToolCall{Tool: "edit"}),
		Trace: toolEvents("grep", "edit", "read"),
	}
	score, err := e.Evaluate(context.Background(), ec)
	require.NoError(t, err)
	require.Equal(t, 1.0, score.Score)
}

func TestAnyOrderMinimumCountUnmet(t *testing.T) {
	// Four expected read calls, only three observed: read's minimum is
	// unmet, and read is the only tool with a minimum.
	e := newEvaluator(t, nil)
	ec := &evaluator.Context{
		Case: caseWithExpected(
			message.ToolCall{Tool: "read"},
			message.ToolCall{Tool: "read"},
			message.ToolCall{Tool: "read"},
			message.ToolCall{Tool: "read"},
		),
		Trace: toolEvents("read", "read", "read"),
	}
	score, err := e.Evaluate(context.Background(), ec)
	require.NoError(t, err)
	require.Equal(t, 0.0, score.Score)
	require.NotEmpty(t, score.Misses)
}

func TestInOrderIgnoresInterleaved(t *testing.T) {
	e := newEvaluator(t, map[string]any{"mode": ModeInOrder})
	ec := &evaluator.Context{
		Case:  caseWithExpected(message.ToolCall{Tool: "read"}, message.ToolCall{Tool: "edit"}),
		Trace: toolEvents("read", "grep", "grep", "edit"),
	}
	score, err := e.Evaluate(context.Background(), ec)
	require.NoError(t, err)
	require.Equal(t, 1.0, score.Score)
}

func TestInOrderOutOfOrder(t *testing.T) {
	e := newEvaluator(t, map[string]any{"mode": ModeInOrder})
	ec := &evaluator.Context{
		Case:  caseWithExpected(message.ToolCall{Tool: "edit"}, message.ToolCall{Tool: "read"}),
		Trace: toolEvents("read", "edit"),
	}
	score, err := e.Evaluate(context.Background(), ec)
	require.NoError(t, err)
	require.Equal(t, 0.5, score.Score)
}

func TestExactExtrasPenalize(t *testing.T) {
	e := newEvaluator(t, map[string]any{"mode": ModeExact})
	ec := &evaluator.Context{
		Case:  caseWithExpected(message.ToolCall{Tool: "read"}, message.ToolCall{Tool: "edit"}),
		Trace: toolEvents("read", "edit", "grep", "grep"),
	}
	score, err := e.Evaluate(context.Background(), ec)
	require.NoError(t, err)
	require.Equal(t, 0.5, score.Score)
}

func TestExactAllowExtraCalls(t *testing.T) {
	e := newEvaluator(t, map[string]any{"mode": ModeExact, "allow_extra_calls": true})
	ec := &evaluator.Context{
		Case:  caseWithExpected(message.ToolCall{Tool: "read"}, message.ToolCall{Tool: "edit"}),
		Trace: toolEvents("read", "edit", "grep"),
	}
	score, err := e.Evaluate(context.Background(), ec)
	require.NoError(t, err)
	require.Equal(t, 1.0, score.Score)
}

func TestArgsPartialMatch(t *testing.T) {
	e := newEvaluator(t, map[string]any{"mode": ModeExact})
	ec := &evaluator.Context{
		Case: caseWithExpected(message.ToolCall{
			Tool:  "read",
			Input: map[string]any{"path": "main.go"},
		}),
		Trace: []trace.Event{{
			Type:  trace.EventTypeToolCall,
			Name:  "read",
			Input: map[string]any{"path": "main.go", "offset": 10},
		}},
	}
	score, err := e.Evaluate(context.Background(), ec)
	require.NoError(t, err)
	require.Equal(t, 1.0, score.Score)
}

func TestArgsMismatch(t *testing.T) {
	e := newEvaluator(t, map[string]any{"mode": ModeExact})
	ec := &evaluator.Context{
		Case: caseWithExpected(message.ToolCall{
			Tool:  "read",
			Input: map[string]any{"path": "main.go"},
		}),
		Trace: []trace.Event{{
			Type:  trace.EventTypeToolCall,
			Name:  "read",
			Input: map[string]any{"path": "other.go"},
		}},
	}
	score, err := e.Evaluate(context.Background(), ec)
	require.NoError(t, err)
	require.Equal(t, 0.0, score.Score)
}

func TestArgsAnySentinel(t *testing.T) {
	e := newEvaluator(t, map[string]any{"mode": ModeExact})
	ec := &evaluator.Context{
		Case: caseWithExpected(message.ToolCall{
			Tool:  "read",
			Input: map[string]any{"path": "any"},
		}),
		Trace: []trace.Event{{
			Type:  trace.EventTypeToolCall,
			Name:  "read",
			Input: map[string]any{"path": "whatever.go"},
		}},
	}
	score, err := e.Evaluate(context.Background(), ec)
	require.NoError(t, err)
	require.Equal(t, 1.0, score.Score)
}

func TestArgsNumericCrossType(t *testing.T) {
	// YAML decodes 3 as int, traces decode it as float64.
	e := newEvaluator(t, map[string]any{"mode": ModeExact})
	ec := &evaluator.Context{
		Case: caseWithExpected(message.ToolCall{
			Tool:  "read",
			Input: map[string]any{"limit": 3},
		}),
		Trace: []trace.Event{{
			Type:  trace.EventTypeToolCall,
			Name:  "read",
			Input: map[string]any{"limit": float64(3)},
		}},
	}
	score, err := e.Evaluate(context.Background(), ec)
	require.NoError(t, err)
	require.Equal(t, 1.0, score.Score)
}

func TestDurationCeiling(t *testing.T) {
	limit := int64(100)
	took := int64(250)
	e := newEvaluator(t, map[string]any{"mode": ModeExact})
	ec := &evaluator.Context{
		Case: caseWithExpected(message.ToolCall{Tool: "read", DurationMs: &limit}),
		Trace: []trace.Event{{
			Type:       trace.EventTypeToolCall,
			Name:       "read",
			DurationMs: &took,
		}},
	}
	score, err := e.Evaluate(context.Background(), ec)
	require.NoError(t, err)
	require.Equal(t, 0.0, score.Score)
}

func TestNoExpectedCalls(t *testing.T) {
	e := newEvaluator(t, nil)
	ec := &evaluator.Context{Case: &evalset.EvalCase{ID: "c", InputMessages: []message.Message{message.NewUserMessage("x")}}}
	score, err := e.Evaluate(context.Background(), ec)
	require.NoError(t, err)
	require.Equal(t, 0.0, score.Score)
	require.NotEmpty(t, score.Misses)
}

func TestUnknownMode(t *testing.T) {
	_, err := New(&evalset.EvaluatorConfig{Name: "t", Type: Type, Config: map[string]any{"mode": "bogus"}})
	require.Error(t, err)
}

func TestConfiguredMinimumsMet(t *testing.T) {
	e := newEvaluator(t, map[string]any{
		"mode":     ModeAnyOrder,
		"minimums": map[string]any{"search": 3},
	})
	ec := &evaluator.Context{Trace: toolEvents("search", "search", "search")}
	score, err := e.Evaluate(context.Background(), ec)
	require.NoError(t, err)
	require.Equal(t, 1.0, score.Score)
}

func TestConfiguredMinimumsUnmet(t *testing.T) {
	e := newEvaluator(t, map[string]any{
		"mode":     ModeAnyOrder,
		"minimums": map[string]any{"search": 4},
	})
	ec := &evaluator.Context{Trace: toolEvents("search", "search", "search")}
	score, err := e.Evaluate(context.Background(), ec)
	require.NoError(t, err)
	require.Equal(t, 0.0, score.Score)
	require.NotEmpty(t, score.Misses)
}

func TestConfiguredMinimumsOverrideCase(t *testing.T) {
	// The config wins over expected-message tool calls.
	e := newEvaluator(t, map[string]any{"minimums": map[string]any{"grep": 1}})
	ec := &evaluator.Context{
		Case:  caseWithExpected(message.ToolCall{Tool: "edit"}),
		Trace: toolEvents("grep"),
	}
	score, err := e.Evaluate(context.Background(), ec)
	require.NoError(t, err)
	require.Equal(t, 1.0, score.Score)
}

func TestConfiguredExpectedInOrder(t *testing.T) {
	e := newEvaluator(t, map[string]any{
		"mode": ModeInOrder,
		"expected": []any{
			map[string]any{"tool": "search", "args": map[string]any{"query": "x"}},
			map[string]any{"tool": "edit", "args": "any"},
		},
	})
	ec := &evaluator.Context{Trace: []trace.Event{
		{Type: trace.EventTypeToolCall, Name: "search", Input: map[string]any{"query": "x", "limit": 10}},
		{Type: trace.EventTypeToolCall, Name: "edit", Input: map[string]any{"path": "a.go"}},
	}}
	score, err := e.Evaluate(context.Background(), ec)
	require.NoError(t, err)
	require.Equal(t, 1.0, score.Score)
}

func TestConfiguredExpectedMaxDuration(t *testing.T) {
	took := int64(250)
	e := newEvaluator(t, map[string]any{
		"mode": ModeExact,
		"expected": []any{
			map[string]any{"tool": "search", "max_duration_ms": 100},
		},
	})
	ec := &evaluator.Context{Trace: []trace.Event{
		{Type: trace.EventTypeToolCall, Name: "search", DurationMs: &took},
	}}
	score, err := e.Evaluate(context.Background(), ec)
	require.NoError(t, err)
	require.Equal(t, 0.0, score.Score)
	require.Contains(t, score.Misses[0], "limit 100ms")
}

func TestConfigValidation(t *testing.T) {
	cases := []map[string]any{
		{"mode": ModeInOrder, "minimums": map[string]any{"search": 1}},
		{"minimums": map[string]any{"search": "three"}},
		{"minimums": map[string]any{"search": 0}},
		{"minimums": map[string]any{}},
		{"mode": ModeExact, "expected": []any{}},
		{"mode": ModeExact, "expected": []any{map[string]any{"args": "any"}}},
		{"mode": ModeExact, "expected": []any{map[string]any{"tool": "search", "args": "some"}}},
		{"mode": ModeExact, "expected": []any{map[string]any{"tool": "search", "max_duration_ms": -1}}},
		{"minimums": map[string]any{"search": 1}, "expected": []any{map[string]any{"tool": "search"}}},
	}
	for _, config := range cases {
		_, err := New(&evalset.EvaluatorConfig{Name: "t", Type: Type, Config: config})
		require.Error(t, err, "config %v", config)
	}
}
