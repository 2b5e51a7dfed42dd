//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

package registry

import (
	"github.com/evalsuite/agentharness/evalset"
	"github.com/evalsuite/agentharness/evaluator"
	"github.com/evalsuite/agentharness/evaluator/codejudge"
	"github.com/evalsuite/agentharness/evaluator/composite"
	"github.com/evalsuite/agentharness/evaluator/fieldaccuracy"
	"github.com/evalsuite/agentharness/evaluator/llmjudge"
	"github.com/evalsuite/agentharness/evaluator/rubric"
	"github.com/evalsuite/agentharness/evaluator/threshold"
	"github.com/evalsuite/agentharness/evaluator/trajectory"
)

// Default creates a registry with every built-in evaluator type.
func Default() Registry {
	r := New()
	r.Register(llmjudge.Type, func(cfg *evalset.EvaluatorConfig, _ Registry) (evaluator.Evaluator, error) {
		return llmjudge.New(cfg)
	})
	r.Register(codejudge.Type, func(cfg *evalset.EvaluatorConfig, _ Registry) (evaluator.Evaluator, error) {
		return codejudge.New(cfg)
	})
	r.Register(rubric.Type, func(cfg *evalset.EvaluatorConfig, _ Registry) (evaluator.Evaluator, error) {
		return rubric.New(cfg)
	})
	r.Register(trajectory.Type, func(cfg *evalset.EvaluatorConfig, _ Registry) (evaluator.Evaluator, error) {
		return trajectory.New(cfg)
	})
	r.Register(fieldaccuracy.Type, func(cfg *evalset.EvaluatorConfig, _ Registry) (evaluator.Evaluator, error) {
		return fieldaccuracy.New(cfg)
	})
	for _, kind := range []string{
		threshold.KindLatency,
		threshold.KindCost,
		threshold.KindTokenUsage,
		threshold.KindExecutionMetrics,
	} {
		kind := kind
		r.Register(kind, func(cfg *evalset.EvaluatorConfig, _ Registry) (evaluator.Evaluator, error) {
			return threshold.New(kind, cfg)
		})
	}
	r.Register(composite.Type, func(cfg *evalset.EvaluatorConfig, reg Registry) (evaluator.Evaluator, error) {
		return composite.New(cfg, reg.Build)
	})
	return r
}
