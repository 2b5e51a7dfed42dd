//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package orchestrator drives evaluation runs: it dispatches cases to the
// candidate provider, applies the retry policy, collects traces and fans
// results out to evaluators and sinks.
package orchestrator

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/evalsuite/agentharness/evalresult"
	"github.com/evalsuite/agentharness/evalset"
	"github.com/evalsuite/agentharness/evaluator"
	"github.com/evalsuite/agentharness/log"
	"github.com/evalsuite/agentharness/provider"
)

const tracerName = "github.com/evalsuite/agentharness/orchestrator"

// Target is one system under evaluation.
type Target struct {
	// Name identifies the target in records and events.
	Name string
	// Provider invokes the target.
	Provider provider.Provider
	// Batch opts the target into batch dispatch when its provider supports
	// it.
	Batch bool
}

// Orchestrator runs eval sets against targets.
type Orchestrator struct {
	opts *Options
}

// New creates an orchestrator.
func New(opt ...Option) *Orchestrator {
	return &Orchestrator{opts: newOptions(opt...)}
}

// preparedCase pairs a case with its evaluators, built before any dispatch
// so configuration errors surface without spending provider calls.
type preparedCase struct {
	evalCase   *evalset.EvalCase
	evaluators []caseEvaluator
}

// caseEvaluator pairs a built evaluator with its aggregation weight.
type caseEvaluator struct {
	evaluator evaluator.Evaluator
	weight    float64
}

// RunSet runs every case of the set against the target and returns the run
// summary with all records. Exactly one record is produced per case.
func (o *Orchestrator) RunSet(ctx context.Context, set *evalset.EvalSet, target *Target) (*evalresult.Summary, []*evalresult.Record, error) {
	if set == nil || len(set.Cases) == 0 {
		return nil, nil, fmt.Errorf("eval set is empty")
	}
	if target == nil || target.Provider == nil {
		return nil, nil, fmt.Errorf("target has no provider")
	}
	prepared, err := o.prepareCases(set)
	if err != nil {
		return nil, nil, err
	}
	runID := uuid.NewString()
	o.emit(Event{Type: EventRunStart, RunID: runID, Target: target.Name})
	log.Infof("run %s: %d cases against %s", runID, len(prepared), target.Name)

	responses := o.tryBatch(ctx, prepared, target)
	records, err := o.runCases(ctx, runID, set, prepared, target, responses)
	if err != nil {
		return nil, nil, err
	}
	if o.opts.Writer != nil {
		for _, record := range records {
			if err := o.opts.Writer.Write(record); err != nil {
				return nil, nil, fmt.Errorf("write record %s: %w", record.EvalID, err)
			}
		}
	}
	summary := evalresult.Summarize(records)
	o.emit(Event{Type: EventRunFinish, RunID: runID, Target: target.Name, Score: summary.MeanScore})
	log.Infof("run %s: %s", runID, summary)
	return summary, records, nil
}

// prepareCases builds every case's evaluators up front. An unknown
// evaluator type or invalid configuration fails the whole run here.
func (o *Orchestrator) prepareCases(set *evalset.EvalSet) ([]*preparedCase, error) {
	prepared := make([]*preparedCase, 0, len(set.Cases))
	for _, c := range set.Cases {
		cfgs := c.Evaluators
		if len(cfgs) == 0 {
			cfgs = defaultEvaluatorConfigs(c)
		}
		evaluators := make([]caseEvaluator, 0, len(cfgs))
		for _, cfg := range cfgs {
			built, err := o.opts.Registry.Build(cfg)
			if err != nil {
				return nil, fmt.Errorf("case %s: %w", c.ID, err)
			}
			evaluators = append(evaluators, caseEvaluator{evaluator: built, weight: cfg.Weight})
		}
		prepared = append(prepared, &preparedCase{evalCase: c, evaluators: evaluators})
	}
	return prepared, nil
}

// defaultEvaluatorConfigs picks the implicit evaluator for cases that
// configure none: rubric grading when rubrics exist, exact answer matching
// when expected messages exist, otherwise an LLM judge.
func defaultEvaluatorConfigs(c *evalset.EvalCase) []*evalset.EvaluatorConfig {
	switch {
	case len(c.Rubrics) > 0:
		return []*evalset.EvaluatorConfig{{Name: "rubric", Type: "rubric", Weight: 1.0}}
	case len(c.ExpectedMessages) > 0:
		return []*evalset.EvaluatorConfig{{Name: "field_accuracy", Type: "field_accuracy", Weight: 1.0}}
	default:
		return []*evalset.EvaluatorConfig{{Name: "llm_judge", Type: "llm_judge", Weight: 1.0}}
	}
}

// tryBatch dispatches all cases in one provider call when the target opts
// in and its provider supports batching. Any batch failure falls back to
// per-case dispatch, transparently.
func (o *Orchestrator) tryBatch(ctx context.Context, prepared []*preparedCase, target *Target) []*provider.Response {
	if !target.Batch {
		return nil
	}
	batcher, ok := target.Provider.(provider.BatchInvoker)
	if !ok {
		return nil
	}
	requests := make([]*provider.Request, len(prepared))
	for i, p := range prepared {
		req, err := o.opts.PromptBuilder.Build(p.evalCase.InputMessages)
		if err != nil {
			return nil
		}
		requests[i] = req
	}
	responses, err := batcher.InvokeBatch(ctx, requests)
	if err != nil {
		log.Warnf("batch dispatch failed, falling back to per-case: %v", err)
		return nil
	}
	if len(responses) != len(prepared) {
		log.Warnf("batch dispatch returned %d responses for %d cases, falling back", len(responses), len(prepared))
		return nil
	}
	return responses
}

// runCases runs prepared cases through the worker pool, preserving record
// order by case index.
func (o *Orchestrator) runCases(ctx context.Context, runID string, set *evalset.EvalSet, prepared []*preparedCase, target *Target, responses []*provider.Response) ([]*evalresult.Record, error) {
	pool, err := createCaseRunPool(o.opts.Parallelism)
	if err != nil {
		return nil, err
	}
	defer pool.Release()
	records := make([]*evalresult.Record, len(prepared))
	var wg sync.WaitGroup
	for i, p := range prepared {
		wg.Add(1)
		param := caseRunParamPool.Get().(*caseRunParam)
		param.idx = i
		param.ctx = ctx
		param.runID = runID
		param.set = set
		param.prepared = p
		param.target = target
		if responses != nil {
			param.response = responses[i]
		}
		param.orch = o
		param.records = records
		param.wg = &wg
		if err := pool.Invoke(param); err != nil {
			wg.Done()
			param.reset()
			caseRunParamPool.Put(param)
			return nil, fmt.Errorf("dispatch case %s: %w", p.evalCase.ID, err)
		}
	}
	wg.Wait()
	return records, nil
}

// emit sends an event to the configured collector, when present.
func (o *Orchestrator) emit(ev Event) {
	if o.opts.Collector != nil {
		o.opts.Collector.Emit(ev)
	}
}

// startSpan opens a per-case trace span.
func startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, func()) {
	spanCtx, span := otel.Tracer(tracerName).Start(ctx, name)
	span.SetAttributes(attrs...)
	return spanCtx, func() { span.End() }
}
