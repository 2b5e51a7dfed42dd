//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

package workspace

import (
	"context"
	"os"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/evalsuite/agentharness/evalset"
	"github.com/evalsuite/agentharness/message"
)

func testCase() *evalset.EvalCase {
	return &evalset.EvalCase{
		ID:            "case-1",
		InputMessages: []message.Message{message.NewUserMessage("q")},
		Metadata:      map[string]any{"repo": "demo"},
	}
}

func skipOnWindows(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("tests shell out to /bin/sh")
	}
}

func TestPrepareWithoutScripts(t *testing.T) {
	r := NewRunner(t.TempDir(), ScriptConfig{})
	ws, err := r.Prepare(context.Background(), "run-1", testCase())
	require.NoError(t, err)
	info, err := os.Stat(ws.Path)
	require.NoError(t, err)
	require.True(t, info.IsDir())
	ws.Cleanup(context.Background())
	_, err = os.Stat(ws.Path)
	require.True(t, os.IsNotExist(err))
}

func TestSetupReceivesPayload(t *testing.T) {
	skipOnWindows(t)
	r := NewRunner(t.TempDir(), ScriptConfig{
		Setup: []string{"/bin/sh", "-c", `grep -q '"eval_case_id":"case-1"' && touch ok`},
	})
	ws, err := r.Prepare(context.Background(), "run-1", testCase())
	require.NoError(t, err)
	defer ws.Cleanup(context.Background())
	_, err = os.Stat(ws.Path + "/ok")
	require.NoError(t, err)
}

func TestSetupFailureAborts(t *testing.T) {
	skipOnWindows(t)
	r := NewRunner(t.TempDir(), ScriptConfig{
		Setup: []string{"/bin/sh", "-c", "exit 3"},
	})
	_, err := r.Prepare(context.Background(), "run-1", testCase())
	require.Error(t, err)
	require.Contains(t, err.Error(), "workspace setup")
}

func TestTeardownFailureIsNotFatal(t *testing.T) {
	skipOnWindows(t)
	r := NewRunner(t.TempDir(), ScriptConfig{
		Teardown: []string{"/bin/sh", "-c", "exit 1"},
	})
	ws, err := r.Prepare(context.Background(), "run-1", testCase())
	require.NoError(t, err)
	// Must not panic or error; the failure is only logged.
	ws.Cleanup(context.Background())
	_, statErr := os.Stat(ws.Path)
	require.True(t, os.IsNotExist(statErr))
}
