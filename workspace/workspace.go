//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package workspace prepares per-case working directories with optional
// setup and teardown scripts.
package workspace

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/evalsuite/agentharness/evalset"
	"github.com/evalsuite/agentharness/log"
)

// DefaultScriptTimeout bounds a setup or teardown script run.
const DefaultScriptTimeout = 120 * time.Second

// ScriptConfig configures the lifecycle scripts.
type ScriptConfig struct {
	// Setup is the argv of the script run before each case attempt.
	Setup []string
	// Teardown is the argv of the script run after the case finishes.
	Teardown []string
	// Timeout bounds each script run. Zero means DefaultScriptTimeout.
	Timeout time.Duration
}

// Payload is the JSON document written to a lifecycle script's stdin.
type Payload struct {
	// WorkspacePath is the case's working directory.
	WorkspacePath string `json:"workspace_path"`
	// EvalCaseID identifies the case.
	EvalCaseID string `json:"eval_case_id"`
	// EvalRunID identifies the run.
	EvalRunID string `json:"eval_run_id"`
	// CaseInput is the joined case input text.
	CaseInput string `json:"case_input,omitempty"`
	// CaseMetadata is the case's opaque metadata bag.
	CaseMetadata map[string]any `json:"case_metadata,omitempty"`
}

// Runner manages per-case workspaces.
type Runner struct {
	baseDir string
	scripts ScriptConfig
}

// NewRunner creates a workspace runner. Workspaces are created under
// baseDir; an empty baseDir uses the system temp directory.
func NewRunner(baseDir string, scripts ScriptConfig) *Runner {
	if scripts.Timeout <= 0 {
		scripts.Timeout = DefaultScriptTimeout
	}
	return &Runner{baseDir: baseDir, scripts: scripts}
}

// Workspace is one prepared case directory.
type Workspace struct {
	// Path is the case working directory.
	Path string

	runner  *Runner
	payload *Payload
}

// Prepare creates the case directory and runs the setup script. A setup
// failure aborts the attempt.
func (r *Runner) Prepare(ctx context.Context, runID string, c *evalset.EvalCase) (*Workspace, error) {
	dir, err := os.MkdirTemp(r.baseDir, "evalcase-"+c.ID+"-")
	if err != nil {
		return nil, fmt.Errorf("create workspace for case %s: %w", c.ID, err)
	}
	ws := &Workspace{
		Path:   dir,
		runner: r,
		payload: &Payload{
			WorkspacePath: dir,
			EvalCaseID:    c.ID,
			EvalRunID:     runID,
			CaseInput:     c.InputText(),
			CaseMetadata:  c.Metadata,
		},
	}
	if len(r.scripts.Setup) > 0 {
		if err := r.runScript(ctx, r.scripts.Setup, ws); err != nil {
			ws.remove()
			return nil, fmt.Errorf("workspace setup for case %s: %w", c.ID, err)
		}
	}
	return ws, nil
}

// Cleanup runs the teardown script and removes the directory. Teardown
// failures are logged, never escalated: the case already has its result.
func (ws *Workspace) Cleanup(ctx context.Context) {
	if ws == nil {
		return
	}
	if len(ws.runner.scripts.Teardown) > 0 {
		if err := ws.runner.runScript(ctx, ws.runner.scripts.Teardown, ws); err != nil {
			log.Warnf("workspace teardown for case %s failed: %v", ws.payload.EvalCaseID, err)
		}
	}
	ws.remove()
}

func (ws *Workspace) remove() {
	if err := os.RemoveAll(ws.Path); err != nil {
		log.Warnf("remove workspace %s: %v", ws.Path, err)
	}
}

// runScript runs one lifecycle script with the payload on stdin, in the
// workspace directory.
func (r *Runner) runScript(ctx context.Context, argv []string, ws *Workspace) error {
	payload, err := json.Marshal(ws.payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	runCtx, cancel := context.WithTimeout(ctx, r.scripts.Timeout)
	defer cancel()
	cmd := exec.CommandContext(runCtx, argv[0], argv[1:]...)
	cmd.Dir = ws.Path
	cmd.Stdin = bytes.NewReader(payload)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if runCtx.Err() == context.DeadlineExceeded {
			return fmt.Errorf("script timed out after %s", r.scripts.Timeout)
		}
		return fmt.Errorf("script failed: %w, stderr: %s", err, stderr.String())
	}
	return nil
}
