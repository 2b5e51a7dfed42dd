//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

package codejudge

import (
	"context"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/evalsuite/agentharness/evalset"
	"github.com/evalsuite/agentharness/evaluator"
	"github.com/evalsuite/agentharness/message"
	"github.com/evalsuite/agentharness/provider"
)

func skipOnWindows(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("tests shell out to /bin/sh")
	}
}

func newJudge(t *testing.T, config map[string]any) *Evaluator {
	t.Helper()
	e, err := New(&evalset.EvaluatorConfig{Name: "judge", Type: Type, Weight: 1.0, Config: config})
	require.NoError(t, err)
	return e
}

func shCommand(script string) []any {
	return []any{"/bin/sh", "-c", script}
}

func testContext() *evaluator.Context {
	return &evaluator.Context{
		Case: &evalset.EvalCase{
			ID:            "case-1",
			InputMessages: []message.Message{message.NewUserMessage("q")},
		},
		Answer:  "the answer",
		Request: &provider.Request{Question: "q"},
	}
}

func TestRunsScriptWithPayload(t *testing.T) {
	skipOnWindows(t)
	e := newJudge(t, map[string]any{
		// Echo the candidate answer length back as the score source.
		"command": shCommand(`cat > /dev/null; echo '{"score": 0.9, "hits": ["looks right"], "reasoning": "checked"}'`),
	})
	score, err := e.Evaluate(context.Background(), testContext())
	require.NoError(t, err)
	require.Equal(t, 0.9, score.Score)
	require.Equal(t, []string{"looks right"}, score.Hits)
	require.Equal(t, "checked", score.Reasoning)
	require.Contains(t, score.RawRequest, `"candidate_answer":"the answer"`)
}

func TestNonZeroExitDegrades(t *testing.T) {
	skipOnWindows(t)
	e := newJudge(t, map[string]any{
		"command": shCommand("cat > /dev/null; exit 1"),
	})
	score, err := e.Evaluate(context.Background(), testContext())
	require.NoError(t, err)
	require.Equal(t, 0.0, score.Score)
	require.Contains(t, score.Misses[0], "Code evaluator failed")
}

func TestMalformedOutputDegrades(t *testing.T) {
	skipOnWindows(t)
	e := newJudge(t, map[string]any{
		"command": shCommand("cat > /dev/null; echo not-json"),
	})
	score, err := e.Evaluate(context.Background(), testContext())
	require.NoError(t, err)
	require.Equal(t, 0.0, score.Score)
	require.Contains(t, score.Misses[0], "Code evaluator failed")
}

func TestTimeoutDegrades(t *testing.T) {
	skipOnWindows(t)
	e := newJudge(t, map[string]any{
		"command":    shCommand("sleep 5"),
		"timeout_ms": 100,
	})
	start := time.Now()
	score, err := e.Evaluate(context.Background(), testContext())
	require.NoError(t, err)
	require.Less(t, time.Since(start), 3*time.Second)
	require.Equal(t, 0.0, score.Score)
	require.Contains(t, score.Misses[0], "Code evaluator failed")
}

func TestConfigPassthrough(t *testing.T) {
	skipOnWindows(t)
	e := newJudge(t, map[string]any{
		"command":   shCommand(`grep -q '"strictness":"high"' && echo '{"score": 1.0}' || echo '{"score": 0.0}'`),
		"strictness": "high",
	})
	score, err := e.Evaluate(context.Background(), testContext())
	require.NoError(t, err)
	require.Equal(t, 1.0, score.Score)
}

func TestFileChangesOnTheWire(t *testing.T) {
	skipOnWindows(t)
	e := newJudge(t, map[string]any{
		"command": shCommand(`grep -q '"file_changes":{"added":\["a.go"\]}' && echo '{"score": 1.0}' || echo '{"score": 0.0}'`),
	})
	ec := testContext()
	ec.FileChanges = map[string]any{"added": []any{"a.go"}}
	score, err := e.Evaluate(context.Background(), ec)
	require.NoError(t, err)
	require.Equal(t, 1.0, score.Score)
}

func TestRequiresCommand(t *testing.T) {
	_, err := New(&evalset.EvaluatorConfig{Name: "judge", Type: Type, Config: map[string]any{}})
	require.Error(t, err)
}
