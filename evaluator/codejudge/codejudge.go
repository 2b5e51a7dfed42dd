//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package codejudge delegates scoring to an external program. The program
// receives one JSON document on stdin and must print one JSON document on
// stdout.
package codejudge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"time"

	"github.com/evalsuite/agentharness/evalset"
	"github.com/evalsuite/agentharness/evaluator"
	"github.com/evalsuite/agentharness/log"
	"github.com/evalsuite/agentharness/message"
	"github.com/evalsuite/agentharness/trace"
)

// Type is the registry type string.
const Type = "code_judge"

// DefaultTimeout bounds a judge subprocess when no timeout is configured.
const DefaultTimeout = 60 * time.Second

// input is the JSON document written to the subprocess stdin.
type input struct {
	// Question is the rendered question the candidate received.
	Question string `json:"question"`
	// Criteria is free-text grading criteria.
	Criteria string `json:"criteria,omitempty"`
	// ExpectedOutcome is the case's expected outcome text.
	ExpectedOutcome string `json:"expected_outcome,omitempty"`
	// CandidateAnswer is the answer under evaluation.
	CandidateAnswer string `json:"candidate_answer"`
	// ReferenceAnswer is the ground-truth answer, when configured.
	ReferenceAnswer string `json:"reference_answer,omitempty"`
	// OutputMessages is the structured provider output.
	OutputMessages []message.Message `json:"output_messages,omitempty"`
	// TraceSummary is the derived execution summary.
	TraceSummary *trace.Summary `json:"trace_summary,omitempty"`
	// FileChanges carries workspace diff data.
	FileChanges any `json:"file_changes,omitempty"`
	// WorkspacePath is the case workspace directory.
	WorkspacePath string `json:"workspace_path,omitempty"`
	// Config is the evaluator's residual configuration, passed through
	// unmodified.
	Config map[string]any `json:"config,omitempty"`
}

// output is the JSON document expected on the subprocess stdout.
type output struct {
	Score     float64        `json:"score"`
	Hits      []string       `json:"hits,omitempty"`
	Misses    []string       `json:"misses,omitempty"`
	Reasoning string         `json:"reasoning,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
}

// Evaluator runs an external judge program per evaluation.
type Evaluator struct {
	name    string
	command []string
	workdir string
	timeout time.Duration
	config  map[string]any
}

// New builds a code_judge evaluator. Config keys: "command" (argv list,
// required), "workdir", "timeout_ms".
func New(cfg *evalset.EvaluatorConfig) (*Evaluator, error) {
	command, ok := cfg.StringSlice("command")
	if !ok || len(command) == 0 {
		return nil, fmt.Errorf("code_judge requires a non-empty command list")
	}
	e := &Evaluator{
		name:    cfg.Name,
		command: command,
		timeout: DefaultTimeout,
		config:  cfg.Config,
	}
	if workdir, ok := cfg.String("workdir"); ok {
		e.workdir = workdir
	}
	if ms, ok := cfg.Float("timeout_ms"); ok && ms > 0 {
		e.timeout = time.Duration(ms) * time.Millisecond
	}
	return e, nil
}

// Name implements evaluator.Evaluator.
func (e *Evaluator) Name() string { return e.name }

// Type implements evaluator.Evaluator.
func (e *Evaluator) Type() string { return Type }

// Evaluate runs the judge program with the evaluation payload on stdin. A
// non-zero exit, malformed stdout or timeout degrades to a zero score with a
// descriptive miss.
func (e *Evaluator) Evaluate(ctx context.Context, ec *evaluator.Context) (*evaluator.Score, error) {
	payload, err := json.Marshal(e.buildInput(ec))
	if err != nil {
		return evaluator.FailScore("Code evaluator failed: marshal input: %v", err).Normalize(), nil
	}
	runCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	cmd := exec.CommandContext(runCtx, e.command[0], e.command[1:]...)
	// Stop waiting for inherited pipes once the deadline has killed the
	// process; otherwise orphaned descendants can hold Run open past the
	// configured timeout.
	cmd.WaitDelay = e.timeout
	cmd.Dir = e.workdir
	cmd.Stdin = bytes.NewReader(payload)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if runCtx.Err() == context.DeadlineExceeded {
			return evaluator.FailScore("Code evaluator failed: timeout after %s", e.timeout).Normalize(), nil
		}
		log.Warnf("code judge %s failed: %v, stderr: %s", e.name, err, stderr.String())
		return evaluator.FailScore("Code evaluator failed: %v", err).Normalize(), nil
	}
	var out output
	if err := json.Unmarshal(stdout.Bytes(), &out); err != nil {
		return evaluator.FailScore("Code evaluator failed: malformed output: %v", err).Normalize(), nil
	}
	score := &evaluator.Score{
		Score:      out.Score,
		Hits:       out.Hits,
		Misses:     out.Misses,
		Reasoning:  out.Reasoning,
		Details:    out.Details,
		RawRequest: string(payload),
	}
	return score.Normalize(), nil
}

// buildInput assembles the stdin payload from the evaluation context.
func (e *Evaluator) buildInput(ec *evaluator.Context) *input {
	in := &input{
		CandidateAnswer: ec.Answer,
		OutputMessages:  ec.OutputMessages,
		TraceSummary:    ec.Summary,
		FileChanges:     ec.FileChanges,
		WorkspacePath:   ec.WorkspacePath,
		Config:          e.config,
	}
	if ec.Request != nil {
		in.Question = ec.Request.Question
	}
	if ec.Case != nil {
		if in.Question == "" {
			in.Question = ec.Case.InputText()
		}
		in.ExpectedOutcome = ec.Case.ExpectedOutcome
		in.ReferenceAnswer = ec.Case.ReferenceAnswer()
	}
	if criteria, ok := e.config["criteria"].(string); ok {
		in.Criteria = criteria
	}
	return in
}
