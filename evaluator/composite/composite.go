//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package composite combines the scores of child evaluators under a
// configurable aggregation strategy.
package composite

import (
	"context"
	"fmt"

	"github.com/evalsuite/agentharness/evalset"
	"github.com/evalsuite/agentharness/evaluator"
)

// Type is the registry type string.
const Type = "composite"

// Aggregation strategies.
const (
	AggWeightedAverage = "weighted_average"
	AggAllOrNothing    = "all_or_nothing"
	AggMinimum         = "minimum"
	AggMaximum         = "maximum"
	AggSafetyGate      = "safety_gate"
)

// DefaultGateThreshold is the gate child score below which safety_gate
// forces the composite score to zero.
const DefaultGateThreshold = 1.0

// ChildBuilder constructs a child evaluator from its config entry. The
// registry supplies it, which lets composites nest.
type ChildBuilder func(cfg *evalset.EvaluatorConfig) (evaluator.Evaluator, error)

// child pairs a built evaluator with its aggregation weight.
type child struct {
	evaluator evaluator.Evaluator
	weight    float64
}

// Evaluator aggregates child evaluator scores.
type Evaluator struct {
	name             string
	aggregation      string
	children         []child
	gateName         string
	gateThreshold    float64
	passThreshold    float64
	hasPassThreshold bool
}

// New builds a composite evaluator. Config keys: "evaluators" (child config
// list, required), "aggregation", "pass_threshold" (all_or_nothing only:
// collapses the score to 1 when every child reaches the threshold and 0
// otherwise, instead of the default minimum-of-children), "gate" and
// "gate_threshold" (safety_gate).
func New(cfg *evalset.EvaluatorConfig, build ChildBuilder) (*Evaluator, error) {
	e := &Evaluator{
		name:          cfg.Name,
		aggregation:   AggWeightedAverage,
		gateThreshold: DefaultGateThreshold,
	}
	if agg, ok := cfg.String("aggregation"); ok {
		switch agg {
		case AggWeightedAverage, AggAllOrNothing, AggMinimum, AggMaximum, AggSafetyGate:
			e.aggregation = agg
		default:
			return nil, fmt.Errorf("unknown aggregation %q", agg)
		}
	}
	if t, ok := cfg.Float("pass_threshold"); ok {
		e.passThreshold = t
		e.hasPassThreshold = true
	}
	if t, ok := cfg.Float("gate_threshold"); ok {
		e.gateThreshold = t
	}
	if gate, ok := cfg.String("gate"); ok {
		e.gateName = gate
	}
	rawChildren, ok := cfg.Config["evaluators"].([]any)
	if !ok || len(rawChildren) == 0 {
		return nil, fmt.Errorf("composite requires a non-empty evaluators list")
	}
	for i, raw := range rawChildren {
		childCfg, err := decodeChildConfig(raw)
		if err != nil {
			return nil, fmt.Errorf("child %d: %w", i, err)
		}
		built, err := build(childCfg)
		if err != nil {
			return nil, fmt.Errorf("child %d: %w", i, err)
		}
		e.children = append(e.children, child{evaluator: built, weight: childCfg.Weight})
	}
	if e.aggregation == AggSafetyGate {
		if e.gateName == "" {
			return nil, fmt.Errorf("safety_gate requires a gate child name")
		}
		if e.gateChild() == nil {
			return nil, fmt.Errorf("gate child %q is not among the children", e.gateName)
		}
	}
	return e, nil
}

// decodeChildConfig converts a raw YAML mapping into an evaluator config,
// keeping unrecognized keys as residual config.
func decodeChildConfig(raw any) (*evalset.EvaluatorConfig, error) {
	m, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("child evaluator must be a mapping")
	}
	cfg := &evalset.EvaluatorConfig{Weight: 1.0}
	for key, value := range m {
		switch key {
		case "name":
			s, ok := value.(string)
			if !ok {
				return nil, fmt.Errorf("child name must be a string")
			}
			cfg.Name = s
		case "type":
			s, ok := value.(string)
			if !ok {
				return nil, fmt.Errorf("child type must be a string")
			}
			cfg.Type = s
		case "weight":
			w, ok := toFloat(value)
			if !ok {
				return nil, fmt.Errorf("child weight must be a number")
			}
			cfg.Weight = w
		default:
			if cfg.Config == nil {
				cfg.Config = make(map[string]any)
			}
			cfg.Config[key] = value
		}
	}
	if cfg.Name == "" {
		cfg.Name = cfg.Type
	}
	return cfg, nil
}

func (e *Evaluator) gateChild() *child {
	for i := range e.children {
		if e.children[i].evaluator.Name() == e.gateName {
			return &e.children[i]
		}
	}
	return nil
}

// Name implements evaluator.Evaluator.
func (e *Evaluator) Name() string { return e.name }

// Type implements evaluator.Evaluator.
func (e *Evaluator) Type() string { return Type }

// Evaluate runs every child and aggregates the scores. Child hits and
// misses merge into the composite summary, capped as usual; the full
// per-child scores go into Details.
func (e *Evaluator) Evaluate(ctx context.Context, ec *evaluator.Context) (*evaluator.Score, error) {
	scores := make([]*evaluator.Score, len(e.children))
	for i, c := range e.children {
		s, err := c.evaluator.Evaluate(ctx, ec)
		if err != nil {
			s = evaluator.FailScore("child %s failed: %v", c.evaluator.Name(), err)
		}
		scores[i] = s.Normalize()
	}
	score := &evaluator.Score{
		Score:   e.aggregate(scores),
		Details: e.childDetails(scores),
	}
	for _, s := range scores {
		score.Hits = append(score.Hits, s.Hits...)
		score.Misses = append(score.Misses, s.Misses...)
	}
	return score.Normalize(), nil
}

// aggregate folds the child scores under the configured strategy.
func (e *Evaluator) aggregate(scores []*evaluator.Score) float64 {
	switch e.aggregation {
	case AggAllOrNothing:
		minScore := minOf(scores)
		if !e.hasPassThreshold {
			return minScore
		}
		if minScore < e.passThreshold {
			return 0
		}
		return 1
	case AggMinimum:
		return minOf(scores)
	case AggMaximum:
		maxScore := scores[0].Score
		for _, s := range scores[1:] {
			if s.Score > maxScore {
				maxScore = s.Score
			}
		}
		return maxScore
	case AggSafetyGate:
		return e.aggregateSafetyGate(scores)
	default:
		var weightSum, weighted float64
		for i, c := range e.children {
			weightSum += c.weight
			weighted += c.weight * scores[i].Score
		}
		if weightSum == 0 {
			return 0
		}
		return weighted / weightSum
	}
}

func minOf(scores []*evaluator.Score) float64 {
	minScore := scores[0].Score
	for _, s := range scores[1:] {
		if s.Score < minScore {
			minScore = s.Score
		}
	}
	return minScore
}

// aggregateSafetyGate forces a zero score when the gate child scores below
// the gate threshold, and otherwise averages the remaining children.
func (e *Evaluator) aggregateSafetyGate(scores []*evaluator.Score) float64 {
	var gateScore float64
	var weightSum, weighted float64
	for i, c := range e.children {
		if c.evaluator.Name() == e.gateName {
			gateScore = scores[i].Score
			continue
		}
		weightSum += c.weight
		weighted += c.weight * scores[i].Score
	}
	if gateScore < e.gateThreshold {
		return 0
	}
	if weightSum == 0 {
		return gateScore
	}
	return weighted / weightSum
}

// childDetails records each child's full score.
func (e *Evaluator) childDetails(scores []*evaluator.Score) map[string]any {
	children := make([]map[string]any, len(scores))
	for i, c := range e.children {
		children[i] = map[string]any{
			"name":    c.evaluator.Name(),
			"type":    c.evaluator.Type(),
			"weight":  c.weight,
			"score":   scores[i].Score,
			"verdict": scores[i].Verdict,
		}
		if len(scores[i].Misses) > 0 {
			children[i]["misses"] = scores[i].Misses
		}
	}
	return map[string]any{
		"aggregation": e.aggregation,
		"children":    children,
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
