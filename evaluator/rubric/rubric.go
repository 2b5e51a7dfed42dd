//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package rubric grades a candidate answer against a list of weighted
// criteria with a single judge call, aggregating per-criterion scores into a
// weighted average.
package rubric

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"

	"github.com/evalsuite/agentharness/evalset"
	"github.com/evalsuite/agentharness/evaluator"
	"github.com/evalsuite/agentharness/internal/judge"
	"github.com/evalsuite/agentharness/provider"
)

// Type is the registry type string.
const Type = "rubric"

// DefaultPassThreshold is the per-criterion score below which a criterion
// counts as unsatisfied.
const DefaultPassThreshold = 0.5

const promptTemplate = `You are an expert evaluator grading an AI assistant's answer against a rubric.

[Question]
{{.Question}}

[Candidate Answer]
{{.Answer}}
{{if .ReferenceAnswer}}
[Reference Answer]
{{.ReferenceAnswer}}
{{end}}
[Rubric]
{{range $i, $c := .Criteria}}{{$i}}. {{$c}}
{{end}}
Grade each rubric item independently. Respond with a single JSON object mapping
item indexes to grades:
{"criteria": [{"index": 0, "score": <0.0-1.0>, "reasoning": "<brief>"}, ...]}`

var tmpl = template.Must(template.New(Type).Parse(promptTemplate))

// criterionGrade is one per-criterion grade in the judge response.
type criterionGrade struct {
	Index     int     `json:"index"`
	Score     float64 `json:"score"`
	Reasoning string  `json:"reasoning,omitempty"`
}

// response is the judge response payload.
type response struct {
	Criteria []criterionGrade `json:"criteria"`
}

// Evaluator grades answers against weighted rubric criteria.
type Evaluator struct {
	name          string
	extra         []evalset.Rubric
	passThreshold float64
}

// New builds a rubric evaluator. Config keys: "criteria" (extra criterion
// strings appended to the case rubrics) and "pass_threshold".
func New(cfg *evalset.EvaluatorConfig) (*Evaluator, error) {
	e := &Evaluator{name: cfg.Name, passThreshold: DefaultPassThreshold}
	if extra, ok := cfg.StringSlice("criteria"); ok {
		for _, criterion := range extra {
			e.extra = append(e.extra, evalset.Rubric{Criterion: criterion, Weight: 1.0})
		}
	}
	if t, ok := cfg.Float("pass_threshold"); ok {
		if t < 0 || t > 1 {
			return nil, fmt.Errorf("pass_threshold %v out of [0, 1]", t)
		}
		e.passThreshold = t
	}
	return e, nil
}

// Name implements evaluator.Evaluator.
func (e *Evaluator) Name() string { return e.name }

// Type implements evaluator.Evaluator.
func (e *Evaluator) Type() string { return Type }

// Evaluate grades all criteria in one judge call and aggregates the
// per-criterion grades into a weighted average. An unsatisfied required
// criterion forces a failing verdict regardless of the average.
func (e *Evaluator) Evaluate(ctx context.Context, ec *evaluator.Context) (*evaluator.Score, error) {
	rubrics := e.rubrics(ec)
	if len(rubrics) == 0 {
		return evaluator.FailScore("no rubric criteria configured").Normalize(), nil
	}
	prompt, err := e.renderPrompt(ec, rubrics)
	if err != nil {
		return evaluator.FailScore("render rubric prompt: %v", err).Normalize(), nil
	}
	grades, err := e.grade(ctx, ec, prompt)
	if err != nil {
		score := evaluator.FailScore("rubric grading failed: %v", err)
		score.RawRequest = prompt
		return score.Normalize(), nil
	}
	score := e.aggregate(rubrics, grades)
	score.RawRequest = prompt
	return score.Normalize(), nil
}

// rubrics merges the case rubrics with the configured extras.
func (e *Evaluator) rubrics(ec *evaluator.Context) []evalset.Rubric {
	var out []evalset.Rubric
	if ec.Case != nil {
		out = append(out, ec.Case.Rubrics...)
	}
	return append(out, e.extra...)
}

// renderPrompt binds the context and criteria into the rubric prompt.
func (e *Evaluator) renderPrompt(ec *evaluator.Context, rubrics []evalset.Rubric) (string, error) {
	criteria := make([]string, 0, len(rubrics))
	for _, r := range rubrics {
		criteria = append(criteria, r.Criterion)
	}
	data := struct {
		Question        string
		Answer          string
		ReferenceAnswer string
		Criteria        []string
	}{Answer: ec.Answer, Criteria: criteria}
	if ec.Case != nil {
		data.Question = ec.Case.InputText()
		data.ReferenceAnswer = ec.Case.ReferenceAnswer()
	}
	if ec.Request != nil && ec.Request.Question != "" {
		data.Question = ec.Request.Question
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// grade invokes the judge and parses the per-criterion grades.
func (e *Evaluator) grade(ctx context.Context, ec *evaluator.Context, prompt string) ([]criterionGrade, error) {
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
	resp, err := p.Invoke(ctx, &provider.Request{Question: prompt})
	if err != nil {
		return nil, err
	}
	text := resp.AnswerText()
	obj, ok := judge.ExtractObject(text)
	if !ok {
		return nil, fmt.Errorf("no JSON object in judge output")
	}
	var parsed response
	if err := json.Unmarshal([]byte(obj), &parsed); err != nil {
		return nil, fmt.Errorf("decode judge output: %w", err)
	}
	if len(parsed.Criteria) == 0 {
		return nil, fmt.Errorf("judge output has no criteria grades")
	}
	return parsed.Criteria, nil
}

// aggregate folds the per-criterion grades into a weighted average. Ungraded
// criteria count as zero.
func (e *Evaluator) aggregate(rubrics []evalset.Rubric, grades []criterionGrade) *evaluator.Score {
	byIndex := make(map[int]criterionGrade, len(grades))
	for _, g := range grades {
		byIndex[g.Index] = g
	}
	var weightSum, weighted float64
	var hits, misses []string
	requiredFailed := false
	requiredCap := 1.0
	details := make([]map[string]any, 0, len(rubrics))
	for i, r := range rubrics {
		g := byIndex[i]
		s := evaluator.ClampScore(g.Score)
		weightSum += r.Weight
		weighted += r.Weight * s
		satisfied := s >= e.passThreshold
		if satisfied {
			hits = append(hits, r.Criterion)
		} else {
			misses = append(misses, r.Criterion)
			if r.Required {
				requiredFailed = true
				if s < requiredCap {
					requiredCap = s
				}
			}
		}
		details = append(details, map[string]any{
			"criterion": r.Criterion,
			"score":     s,
			"weight":    r.Weight,
			"required":  r.Required,
			"satisfied": satisfied,
			"reasoning": g.Reasoning,
		})
	}
	score := &evaluator.Score{
		Hits:    hits,
		Misses:  misses,
		Details: map[string]any{"criteria": details},
	}
	if weightSum > 0 {
		score.Score = weighted / weightSum
	}
	if requiredFailed {
		score.Verdict = evaluator.VerdictFail
		score.Reasoning = "required rubric criterion unsatisfied"
		if score.Score > requiredCap {
			score.Score = requiredCap
		}
	} else {
		var parts []string
		for _, g := range grades {
			if g.Reasoning != "" {
				parts = append(parts, g.Reasoning)
			}
		}
		score.Reasoning = strings.Join(parts, "; ")
	}
	return score
}
