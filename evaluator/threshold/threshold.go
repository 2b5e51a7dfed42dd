//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package threshold scores runs against numeric budgets derived from the
// trace summary: latency, cost, token usage and execution shape. A metric
// the run did not capture counts as a miss, so thresholds fail closed.
package threshold

import (
	"context"
	"fmt"

	"github.com/evalsuite/agentharness/evalset"
	"github.com/evalsuite/agentharness/evaluator"
	"github.com/evalsuite/agentharness/trace"
)

// Threshold kinds, each registered as its own evaluator type.
const (
	KindLatency          = "latency"
	KindCost             = "cost"
	KindTokenUsage       = "token_usage"
	KindExecutionMetrics = "execution_metrics"
)

// check is one budget applied to a trace summary. It returns a hit or miss
// description.
type check func(s *trace.Summary) (string, bool)

// Evaluator applies a fixed set of budget checks.
type Evaluator struct {
	name   string
	kind   string
	checks []check
}

// New builds a threshold evaluator of the given kind. Each kind reads its
// own config keys; configuring no budget at all is a load-time error.
func New(kind string, cfg *evalset.EvaluatorConfig) (*Evaluator, error) {
	e := &Evaluator{name: cfg.Name, kind: kind}
	switch kind {
	case KindLatency:
		e.addLatencyChecks(cfg)
	case KindCost:
		e.addCostChecks(cfg)
	case KindTokenUsage:
		e.addTokenChecks(cfg)
	case KindExecutionMetrics:
		e.addExecutionChecks(cfg)
	default:
		return nil, fmt.Errorf("unknown threshold kind %q", kind)
	}
	if len(e.checks) == 0 {
		return nil, fmt.Errorf("%s evaluator %s configures no budget", kind, cfg.Name)
	}
	return e, nil
}

func (e *Evaluator) addLatencyChecks(cfg *evalset.EvaluatorConfig) {
	if maxMs, ok := cfg.Float("max_ms"); ok {
		e.checks = append(e.checks, func(s *trace.Summary) (string, bool) {
			if s == nil || s.DurationMs == nil {
				return "duration not captured", false
			}
			if float64(*s.DurationMs) <= maxMs {
				return fmt.Sprintf("duration %dms within %vms", *s.DurationMs, maxMs), true
			}
			return fmt.Sprintf("duration %dms exceeds %vms", *s.DurationMs, maxMs), false
		})
	}
}

func (e *Evaluator) addCostChecks(cfg *evalset.EvaluatorConfig) {
	if maxUSD, ok := cfg.Float("max_usd"); ok {
		e.checks = append(e.checks, func(s *trace.Summary) (string, bool) {
			if s == nil || s.CostUSD == nil {
				return "cost not captured", false
			}
			if *s.CostUSD <= maxUSD {
				return fmt.Sprintf("cost $%.4f within $%.4f", *s.CostUSD, maxUSD), true
			}
			return fmt.Sprintf("cost $%.4f exceeds $%.4f", *s.CostUSD, maxUSD), false
		})
	}
}

func (e *Evaluator) addTokenChecks(cfg *evalset.EvaluatorConfig) {
	add := func(label string, limit float64, pick func(u *trace.TokenUsage) int) {
		e.checks = append(e.checks, func(s *trace.Summary) (string, bool) {
			if s == nil || s.TokenUsage == nil {
				return fmt.Sprintf("%s tokens not captured", label), false
			}
			n := pick(s.TokenUsage)
			if float64(n) <= limit {
				return fmt.Sprintf("%s tokens %d within %v", label, n, limit), true
			}
			return fmt.Sprintf("%s tokens %d exceed %v", label, n, limit), false
		})
	}
	if limit, ok := cfg.Float("max_input"); ok {
		add("input", limit, func(u *trace.TokenUsage) int { return u.Input })
	}
	if limit, ok := cfg.Float("max_output"); ok {
		add("output", limit, func(u *trace.TokenUsage) int { return u.Output })
	}
	if limit, ok := cfg.Float("max_total"); ok {
		add("total", limit, func(u *trace.TokenUsage) int { return u.Total() })
	}
}

func (e *Evaluator) addExecutionChecks(cfg *evalset.EvaluatorConfig) {
	if maxCalls, ok := cfg.Float("max_tool_calls"); ok {
		e.checks = append(e.checks, func(s *trace.Summary) (string, bool) {
			if s == nil {
				return "trace not captured", false
			}
			n := s.ToolCallCount()
			if float64(n) <= maxCalls {
				return fmt.Sprintf("%d tool calls within %v", n, maxCalls), true
			}
			return fmt.Sprintf("%d tool calls exceed %v", n, maxCalls), false
		})
	}
	minRatio, hasMin := cfg.Float("min_exploration_ratio")
	maxRatio, hasMax := cfg.Float("max_exploration_ratio")
	if hasMin || hasMax {
		explorationTools := trace.DefaultExplorationTools
		if tools, ok := cfg.StringSlice("exploration_tools"); ok {
			explorationTools = tools
		}
		e.checks = append(e.checks, func(s *trace.Summary) (string, bool) {
			if s == nil {
				return "trace not captured", false
			}
			ratio := s.ExplorationRatio(explorationTools)
			if ratio == nil {
				return "exploration ratio undefined, no tool calls", false
			}
			if hasMin && *ratio < minRatio {
				return fmt.Sprintf("exploration ratio %.2f below %v", *ratio, minRatio), false
			}
			if hasMax && *ratio > maxRatio {
				return fmt.Sprintf("exploration ratio %.2f above %v", *ratio, maxRatio), false
			}
			return fmt.Sprintf("exploration ratio %.2f in bounds", *ratio), true
		})
	}
	if perTool, ok := cfg.Config["max_calls_per_tool"].(map[string]any); ok {
		for tool, rawLimit := range perTool {
			limit, ok := toFloat(rawLimit)
			if !ok {
				continue
			}
			tool := tool
			e.checks = append(e.checks, func(s *trace.Summary) (string, bool) {
				if s == nil {
					return "trace not captured", false
				}
				n := s.ToolCallsByName[tool]
				if float64(n) <= limit {
					return fmt.Sprintf("tool %s called %d time(s), within %v", tool, n, limit), true
				}
				return fmt.Sprintf("tool %s called %d time(s), exceeds %v", tool, n, limit), false
			})
		}
	}
}

// Name implements evaluator.Evaluator.
func (e *Evaluator) Name() string { return e.name }

// Type implements evaluator.Evaluator.
func (e *Evaluator) Type() string { return e.kind }

// Evaluate runs every configured check against the trace summary. The score
// is the fraction of passing checks.
func (e *Evaluator) Evaluate(ctx context.Context, ec *evaluator.Context) (*evaluator.Score, error) {
	_ = ctx
	score := &evaluator.Score{}
	passed := 0
	for _, c := range e.checks {
		desc, ok := c(ec.Summary)
		if ok {
			passed++
			score.Hits = append(score.Hits, desc)
		} else {
			score.Misses = append(score.Misses, desc)
		}
	}
	score.Score = float64(passed) / float64(len(e.checks))
	return score.Normalize(), nil
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
