//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/evalsuite/agentharness/evalresult"
	"github.com/evalsuite/agentharness/evalset"
	"github.com/evalsuite/agentharness/evaluator"
	"github.com/evalsuite/agentharness/log"
	"github.com/evalsuite/agentharness/provider"
	"github.com/evalsuite/agentharness/trace"
	"github.com/evalsuite/agentharness/workspace"
)

// runCase runs one case end to end: workspace, dispatch with retries,
// trace resolution, evaluation and record assembly. It always returns a
// record, exactly one per case, with errors folded into the record instead
// of escalating.
func (o *Orchestrator) runCase(ctx context.Context, runID string, set *evalset.EvalSet, prepared *preparedCase, target *Target, batchResp *provider.Response) *evalresult.Record {
	c := prepared.evalCase
	spanCtx, endSpan := startSpan(ctx, "eval_case",
		attribute.String("eval.case_id", c.ID),
		attribute.String("eval.target", target.Name),
	)
	defer endSpan()
	o.emit(Event{Type: EventCaseStart, RunID: runID, CaseID: c.ID, Target: target.Name})

	record := &evalresult.Record{
		RunID:     runID,
		EvalID:    c.ID,
		EvalSetID: set.ID,
		Target:    target.Name,
		Timestamp: evalresult.EpochTime{Time: time.Now()},
	}

	var ws *workspace.Workspace
	if o.opts.Workspace != nil {
		var err error
		ws, err = o.opts.Workspace.Prepare(spanCtx, runID, c)
		if err != nil {
			record.Error = err.Error()
			record.Attempts = 0
			o.finishCase(record)
			return record
		}
		defer ws.Cleanup(spanCtx)
	}

	req, err := o.opts.PromptBuilder.Build(c.InputMessages)
	if err != nil {
		record.Error = fmt.Sprintf("build prompt: %v", err)
		o.finishCase(record)
		return record
	}

	resp, attempts, err := o.dispatch(spanCtx, runID, c.ID, target, req, batchResp)
	record.Attempts = attempts
	if err != nil {
		record.Error = err.Error()
		o.finishCase(record)
		return record
	}

	events := o.resolveTrace(spanCtx, resp)
	summary := trace.Summarize(events)
	enrichSummary(summary, resp)
	record.TraceSummary = summary
	record.CandidateAnswer = resp.AnswerText()

	ec := &evaluator.Context{
		Case:           c,
		Answer:         record.CandidateAnswer,
		Target:         target.Name,
		Attempt:        attempts,
		Request:        req,
		Trace:          events,
		Summary:        summary,
		OutputMessages: resp.OutputMessages,
		ResolveJudge:   o.opts.JudgeResolver,
	}
	if ws != nil {
		ec.WorkspacePath = ws.Path
	}
	ec.FileChanges = o.resolveFileChanges(spanCtx, resp, ws)

	o.evaluate(spanCtx, runID, record, prepared, ec)
	o.finishCase(record)
	return record
}

// dispatch invokes the target with the retry policy: only timeouts are
// retried, sequentially, up to MaxRetries extra attempts. A batch response
// short-circuits dispatch entirely.
func (o *Orchestrator) dispatch(ctx context.Context, runID, caseID string, target *Target, req *provider.Request, batchResp *provider.Response) (*provider.Response, int, error) {
	if batchResp != nil {
		return batchResp, 1, nil
	}
	var lastErr error
	attempt := 0
	for attempt < o.opts.MaxRetries+1 {
		attempt++
		resp, err := o.invokeOnce(ctx, target, req)
		if err == nil {
			if resp == nil {
				return nil, attempt, fmt.Errorf("provider %s returned no response", target.Provider.Name())
			}
			return resp, attempt, nil
		}
		lastErr = err
		if !provider.IsTimeout(err) {
			break
		}
		if attempt < o.opts.MaxRetries+1 {
			log.Warnf("case %s attempt %d timed out, retrying: %v", caseID, attempt, err)
			o.emit(Event{Type: EventCaseRetry, RunID: runID, CaseID: caseID, Target: target.Name, Attempt: attempt, Err: err.Error()})
		}
	}
	return nil, attempt, fmt.Errorf("provider %s failed after %d attempt(s): %w", target.Provider.Name(), attempt, lastErr)
}

// invokeOnce runs one provider attempt under the per-attempt timeout.
func (o *Orchestrator) invokeOnce(ctx context.Context, target *Target, req *provider.Request) (*provider.Response, error) {
	attemptCtx := ctx
	if o.opts.Timeout > 0 {
		var cancel context.CancelFunc
		attemptCtx, cancel = context.WithTimeout(ctx, o.opts.Timeout)
		defer cancel()
	}
	return target.Provider.Invoke(attemptCtx, req)
}

// resolveTrace picks the trace source by precedence: an explicit trace on
// the response wins, then an external reference through the loader, then
// extraction from the output messages. Loader failures degrade to
// extraction.
func (o *Orchestrator) resolveTrace(ctx context.Context, resp *provider.Response) []trace.Event {
	if len(resp.Trace) > 0 {
		return resp.Trace
	}
	if resp.TraceRef != "" && o.opts.TraceLoader != nil {
		events, err := o.opts.TraceLoader(ctx, resp.TraceRef)
		if err == nil {
			return events
		}
		log.Warnf("load trace %s: %v", resp.TraceRef, err)
	}
	return trace.ExtractFromMessages(resp.OutputMessages)
}

// resolveFileChanges picks the diff data for the evaluators: response-
// supplied changes win, then the configured capture runs against the
// workspace. Capture failures degrade to no changes; diff data is telemetry
// for evaluators, not a correctness gate.
func (o *Orchestrator) resolveFileChanges(ctx context.Context, resp *provider.Response, ws *workspace.Workspace) any {
	if resp.FileChanges != nil {
		return resp.FileChanges
	}
	if o.opts.FileChangeCapture == nil || ws == nil {
		return nil
	}
	changes, err := o.opts.FileChangeCapture(ctx, ws)
	if err != nil {
		log.Warnf("capture file changes in %s: %v", ws.Path, err)
		return nil
	}
	return changes
}

// enrichSummary folds response-level metrics the trace itself cannot carry
// into the summary.
func enrichSummary(summary *trace.Summary, resp *provider.Response) {
	if resp.TokenUsage != nil {
		summary.TokenUsage = resp.TokenUsage
	}
	if resp.CostUSD != nil {
		summary.CostUSD = resp.CostUSD
	}
	if resp.DurationMs != nil {
		summary.DurationMs = resp.DurationMs
	}
}

// evaluate runs the case's evaluators concurrently against the shared
// read-only context and aggregates their scores into the record.
func (o *Orchestrator) evaluate(ctx context.Context, runID string, record *evalresult.Record, prepared *preparedCase, ec *evaluator.Context) {
	scores := make([]*evaluator.Score, len(prepared.evaluators))
	var wg sync.WaitGroup
	for i, ce := range prepared.evaluators {
		wg.Add(1)
		go func(i int, ce caseEvaluator) {
			defer wg.Done()
			score, err := ce.evaluator.Evaluate(ctx, ec)
			if err != nil {
				score = evaluator.FailScore("evaluator %s failed: %v", ce.evaluator.Name(), err)
			}
			scores[i] = score.Normalize()
		}(i, ce)
	}
	wg.Wait()

	var weightSum, weighted float64
	for i, ce := range prepared.evaluators {
		s := scores[i]
		weightSum += ce.weight
		weighted += ce.weight * s.Score
		record.Hits = append(record.Hits, s.Hits...)
		record.Misses = append(record.Misses, s.Misses...)
		record.Evaluators = append(record.Evaluators, evalresult.EvaluatorResult{
			Name:       ce.evaluator.Name(),
			Type:       ce.evaluator.Type(),
			Weight:     ce.weight,
			Score:      s.Score,
			Verdict:    s.Verdict,
			Hits:       s.Hits,
			Misses:     s.Misses,
			Reasoning:  s.Reasoning,
			RawRequest: s.RawRequest,
			Details:    s.Details,
		})
		o.emit(Event{
			Type:          EventEvaluatorResult,
			RunID:         runID,
			CaseID:        record.EvalID,
			Target:        record.Target,
			EvaluatorName: ce.evaluator.Name(),
			Score:         s.Score,
		})
	}
	if len(prepared.evaluators) == 1 {
		record.Score = scores[0].Score
	} else if weightSum > 0 {
		record.Score = weighted / weightSum
	}
	record.ScoreValid = true
	record.Hits = evaluator.CapSummary(record.Hits)
	record.Misses = evaluator.CapSummary(record.Misses)
}

// finishCase emits the terminal case event.
func (o *Orchestrator) finishCase(record *evalresult.Record) {
	ev := Event{
		Type:    EventCaseFinish,
		RunID:   record.RunID,
		CaseID:  record.EvalID,
		Target:  record.Target,
		Attempt: record.Attempts,
		Score:   record.Score,
	}
	if record.Error != "" {
		ev.Err = record.Error
	}
	o.emit(ev)
}
