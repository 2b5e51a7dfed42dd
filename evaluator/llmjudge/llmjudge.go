//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package llmjudge scores candidate answers by asking a judge model to grade
// them against the case's expected outcome.
package llmjudge

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"text/template"

	"github.com/evalsuite/agentharness/evalset"
	"github.com/evalsuite/agentharness/evaluator"
	"github.com/evalsuite/agentharness/internal/judge"
	"github.com/evalsuite/agentharness/provider"
)

// Type is the registry type string.
const Type = "llm_judge"

// defaultTemplate renders the judge prompt. The question block carries the
// candidate's question verbatim.
const defaultTemplate = `You are an expert evaluator grading an AI assistant's answer.

[Question]
{{.Question}}

[Criteria]
{{.Criteria}}
{{if .ReferenceAnswer}}
[Reference Answer]
{{.ReferenceAnswer}}
{{end}}
[Candidate Answer]
{{.Answer}}
{{if .TraceSummary}}
[Execution Summary]
{{.TraceSummary}}
{{end}}
Grade the candidate answer against the criteria. Respond with a single JSON object:
{"score": <number between 0.0 and 1.0>, "hits": ["satisfied criterion", ...], "misses": ["failed criterion", ...], "reasoning": "<brief explanation>"}`

// templateData is the data bound into the judge prompt template.
type templateData struct {
	Question        string
	Criteria        string
	ReferenceAnswer string
	Answer          string
	TraceSummary    string
}

// Evaluator asks a judge model to grade the candidate answer.
type Evaluator struct {
	name     string
	criteria string
	tmpl     *template.Template
}

// New builds an llm_judge evaluator from case configuration. The residual
// config keys are "criteria" (extra grading criteria text) and
// "prompt_template" (full template override).
func New(cfg *evalset.EvaluatorConfig) (*Evaluator, error) {
	text := defaultTemplate
	if override, ok := cfg.String("prompt_template"); ok && override != "" {
		text = override
	}
	tmpl, err := template.New(Type).Parse(text)
	if err != nil {
		return nil, fmt.Errorf("parse judge prompt template: %w", err)
	}
	criteria, _ := cfg.String("criteria")
	return &Evaluator{name: cfg.Name, criteria: criteria, tmpl: tmpl}, nil
}

// Name implements evaluator.Evaluator.
func (e *Evaluator) Name() string { return e.name }

// Type implements evaluator.Evaluator.
func (e *Evaluator) Type() string { return Type }

// Evaluate renders the judge prompt, invokes the judge provider and parses
// its verdict. Judge failures degrade to a zero score with a descriptive
// miss.
func (e *Evaluator) Evaluate(ctx context.Context, ec *evaluator.Context) (*evaluator.Score, error) {
	prompt, err := e.renderPrompt(ec)
	if err != nil {
		return evaluator.FailScore("render judge prompt: %v", err).Normalize(), nil
	}
	p, err := resolveJudge(ctx, ec)
	if err != nil {
		score := evaluator.FailScore("no judge provider resolved: %v", err)
		score.RawRequest = prompt
		return score.Normalize(), nil
	}
	resp, err := p.Invoke(ctx, &provider.Request{Question: prompt})
	if err != nil {
		score := evaluator.FailScore("judge invocation failed: %v", err)
		score.RawRequest = prompt
		return score.Normalize(), nil
	}
	payload, err := judge.Parse(resp.AnswerText())
	if err != nil {
		score := evaluator.FailScore("judge output not parseable: %v", err)
		score.RawRequest = prompt
		return score.Normalize(), nil
	}
	score := &evaluator.Score{
		Score:      payload.Score,
		Hits:       payload.Hits,
		Misses:     payload.Misses,
		Reasoning:  payload.Reasoning,
		RawRequest: prompt,
	}
	return score.Normalize(), nil
}

// renderPrompt binds the evaluation context into the judge template. The
// question is taken from the candidate request so the judge grades exactly
// what the candidate saw.
func (e *Evaluator) renderPrompt(ec *evaluator.Context) (string, error) {
	data := templateData{
		Criteria: e.combinedCriteria(ec),
		Answer:   ec.Answer,
	}
	if ec.Case != nil {
		data.Question = ec.Case.InputText()
		data.ReferenceAnswer = ec.Case.ReferenceAnswer()
	}
	if ec.Request != nil && ec.Request.Question != "" {
		data.Question = ec.Request.Question
	}
	if ec.Summary != nil {
		data.TraceSummary = summaryText(ec)
	}
	var buf bytes.Buffer
	if err := e.tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// combinedCriteria merges the configured criteria with the case's expected
// outcome.
func (e *Evaluator) combinedCriteria(ec *evaluator.Context) string {
	var parts []string
	if ec.Case != nil && ec.Case.ExpectedOutcome != "" {
		parts = append(parts, ec.Case.ExpectedOutcome)
	}
	if e.criteria != "" {
		parts = append(parts, e.criteria)
	}
	if len(parts) == 0 {
		return "The answer should correctly and completely address the question."
	}
	return strings.Join(parts, "\n")
}

// summaryText renders a compact trace summary line for the judge.
func summaryText(ec *evaluator.Context) string {
	s := ec.Summary
	var b strings.Builder
	fmt.Fprintf(&b, "%d tool calls", s.ToolCallCount())
	if len(s.ToolNames) > 0 {
		fmt.Fprintf(&b, " (%s)", strings.Join(s.ToolNames, ", "))
	}
	if s.ErrorCount > 0 {
		fmt.Fprintf(&b, ", %d errored", s.ErrorCount)
	}
	if s.DurationMs != nil {
		fmt.Fprintf(&b, ", %dms total", *s.DurationMs)
	}
	return b.String()
}

// resolveJudge resolves a judge provider from the context.
func resolveJudge(ctx context.Context, ec *evaluator.Context) (provider.Provider, error) {
	if ec.ResolveJudge == nil {
		return nil, fmt.Errorf("no judge resolver configured")
	}
	p, err := ec.ResolveJudge(ctx, ec)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("judge resolver returned no provider")
	}
	return p, nil
}
