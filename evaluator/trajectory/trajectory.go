//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package trajectory compares the candidate's tool-call trace against
// expected tool usage, configured on the evaluator or derived from the
// case's expected messages.
package trajectory

import (
	"context"
	"fmt"
	"sort"

	"github.com/hashicorp/go-multierror"

	"github.com/evalsuite/agentharness/evalset"
	"github.com/evalsuite/agentharness/evaluator"
	"github.com/evalsuite/agentharness/trace"
)

// Type is the registry type string.
const Type = "tool_trajectory"

// Match modes.
const (
	ModeAnyOrder = "any_order"
	ModeInOrder  = "in_order"
	ModeExact    = "exact"
)

// expectedCall is one expected tool invocation. A nil args map skips
// argument checking entirely.
type expectedCall struct {
	tool          string
	args          map[string]any
	maxDurationMs *int64
}

// Evaluator scores tool-call trajectories.
type Evaluator struct {
	name            string
	mode            string
	allowExtraCalls bool
	minimums        map[string]int
	minimumOrder    []string
	expected        []expectedCall
}

// New builds a tool_trajectory evaluator. Config keys: "mode" (any_order,
// in_order or exact, defaulting to any_order), "minimums" (any_order only:
// tool name to minimum call count), "expected" (ordered call list, each with
// "tool", optional "args" and optional "max_duration_ms") and
// "allow_extra_calls" (loosens exact mode to ignore unexpected extras).
// When neither minimums nor expected is configured, expectations fall back
// to the case's expected-message tool calls.
func New(cfg *evalset.EvaluatorConfig) (*Evaluator, error) {
	e := &Evaluator{name: cfg.Name, mode: ModeAnyOrder}
	if mode, ok := cfg.String("mode"); ok {
		switch mode {
		case ModeAnyOrder, ModeInOrder, ModeExact:
			e.mode = mode
		default:
			return nil, fmt.Errorf("unknown trajectory mode %q", mode)
		}
	}
	if allow, ok := cfg.Bool("allow_extra_calls"); ok {
		e.allowExtraCalls = allow
	}
	if raw, ok := cfg.Config["minimums"]; ok {
		if e.mode != ModeAnyOrder {
			return nil, fmt.Errorf("minimums only applies to mode %s", ModeAnyOrder)
		}
		minimums, order, err := decodeMinimums(raw)
		if err != nil {
			return nil, err
		}
		e.minimums = minimums
		e.minimumOrder = order
	}
	if raw, ok := cfg.Config["expected"]; ok {
		expected, err := decodeExpected(raw)
		if err != nil {
			return nil, err
		}
		e.expected = expected
	}
	if e.minimums != nil && e.expected != nil {
		return nil, fmt.Errorf("minimums and expected are mutually exclusive")
	}
	return e, nil
}

// decodeMinimums parses the per-tool minimum call counts. Tools are graded
// in name order so results are deterministic.
func decodeMinimums(raw any) (map[string]int, []string, error) {
	m, ok := raw.(map[string]any)
	if !ok || len(m) == 0 {
		return nil, nil, fmt.Errorf("minimums must be a non-empty mapping of tool name to count")
	}
	minimums := make(map[string]int, len(m))
	order := make([]string, 0, len(m))
	for tool, v := range m {
		n, ok := toFloat(v)
		if !ok || n != float64(int(n)) || n < 1 {
			return nil, nil, fmt.Errorf("minimum for tool %s must be a positive integer", tool)
		}
		minimums[tool] = int(n)
		order = append(order, tool)
	}
	sort.Strings(order)
	return minimums, order, nil
}

// decodeExpected parses the ordered expected-call list.
func decodeExpected(raw any) ([]expectedCall, error) {
	list, ok := raw.([]any)
	if !ok || len(list) == 0 {
		return nil, fmt.Errorf("expected must be a non-empty list of calls")
	}
	out := make([]expectedCall, 0, len(list))
	for i, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("expected call %d must be a mapping", i+1)
		}
		tool, ok := m["tool"].(string)
		if !ok || tool == "" {
			return nil, fmt.Errorf("expected call %d has no tool name", i+1)
		}
		call := expectedCall{tool: tool}
		if rawArgs, present := m["args"]; present {
			switch args := rawArgs.(type) {
			case string:
				if args != "any" {
					return nil, fmt.Errorf("expected call %d: args must be a mapping or \"any\"", i+1)
				}
			case map[string]any:
				call.args = args
			default:
				return nil, fmt.Errorf("expected call %d: args must be a mapping or \"any\"", i+1)
			}
		}
		if rawMax, present := m["max_duration_ms"]; present {
			n, ok := toFloat(rawMax)
			if !ok || n <= 0 {
				return nil, fmt.Errorf("expected call %d: max_duration_ms must be a positive number", i+1)
			}
			limit := int64(n)
			call.maxDurationMs = &limit
		}
		out = append(out, call)
	}
	return out, nil
}

// Name implements evaluator.Evaluator.
func (e *Evaluator) Name() string { return e.name }

// Type implements evaluator.Evaluator.
func (e *Evaluator) Type() string { return Type }

// Evaluate compares the traced tool calls against the configured
// expectations, falling back to the case's expected tool calls when the
// config carries none.
func (e *Evaluator) Evaluate(ctx context.Context, ec *evaluator.Context) (*evaluator.Score, error) {
	_ = ctx
	actual := toolCallEvents(ec.Trace)
	if e.mode == ModeAnyOrder {
		minimums, order := e.resolveMinimums(ec)
		if len(minimums) == 0 {
			return evaluator.FailScore("no expected tool calls configured").Normalize(), nil
		}
		return e.scoreAnyOrder(minimums, order, actual).Normalize(), nil
	}
	expected := e.resolveExpected(ec)
	if len(expected) == 0 {
		return evaluator.FailScore("no expected tool calls configured").Normalize(), nil
	}
	var score *evaluator.Score
	if e.mode == ModeExact {
		score = e.scoreExact(expected, actual)
	} else {
		score = e.scoreInOrder(expected, actual)
	}
	return score.Normalize(), nil
}

// resolveMinimums picks the configured minimums, or derives per-tool counts
// from the expected calls (configured or case-derived).
func (e *Evaluator) resolveMinimums(ec *evaluator.Context) (map[string]int, []string) {
	if e.minimums != nil {
		return e.minimums, e.minimumOrder
	}
	expected := e.resolveExpected(ec)
	minimums := make(map[string]int)
	order := make([]string, 0)
	for _, call := range expected {
		if minimums[call.tool] == 0 {
			order = append(order, call.tool)
		}
		minimums[call.tool]++
	}
	return minimums, order
}

// resolveExpected picks the configured expected calls, or converts the
// case's expected-message tool calls.
func (e *Evaluator) resolveExpected(ec *evaluator.Context) []expectedCall {
	if e.expected != nil {
		return e.expected
	}
	if ec.Case == nil {
		return nil
	}
	calls := ec.Case.ExpectedToolCalls()
	out := make([]expectedCall, 0, len(calls))
	for _, call := range calls {
		out = append(out, expectedCall{
			tool:          call.Tool,
			args:          call.Input,
			maxDurationMs: call.DurationMs,
		})
	}
	return out
}

// toolCallEvents filters the trace down to tool-call events.
func toolCallEvents(events []trace.Event) []trace.Event {
	var out []trace.Event
	for _, ev := range events {
		if ev.Type == trace.EventTypeToolCall {
			out = append(out, ev)
		}
	}
	return out
}

// scoreAnyOrder checks per-tool minimum call counts. Order and arguments
// are not considered; the score is the fraction of tools whose minimum was
// met.
func (e *Evaluator) scoreAnyOrder(minimums map[string]int, order []string, actual []trace.Event) *evaluator.Score {
	counts := make(map[string]int)
	for _, ev := range actual {
		counts[ev.Name]++
	}
	var result *multierror.Error
	var hits []string
	met := 0
	for _, tool := range order {
		if counts[tool] >= minimums[tool] {
			met++
			hits = append(hits, fmt.Sprintf("called %s at least %d time(s)", tool, minimums[tool]))
			continue
		}
		result = multierror.Append(result, fmt.Errorf(
			"tool %s called %d time(s), expected at least %d", tool, counts[tool], minimums[tool]))
	}
	score := &evaluator.Score{
		Score: float64(met) / float64(len(order)),
		Hits:  hits,
		Details: map[string]any{
			"mode":        ModeAnyOrder,
			"tools_met":   met,
			"tools_total": len(order),
		},
	}
	applyMismatches(score, result)
	return score
}

// scoreInOrder walks the expected calls in order, consuming matching actual
// calls as it goes. Interleaved extra calls are ignored.
func (e *Evaluator) scoreInOrder(expected []expectedCall, actual []trace.Event) *evaluator.Score {
	var result *multierror.Error
	var hits []string
	satisfied := 0
	cursor := 0
	for i, want := range expected {
		matched := false
		for cursor < len(actual) {
			ev := actual[cursor]
			cursor++
			if err := matchCall(want, ev); err == nil {
				matched = true
				break
			}
		}
		if matched {
			satisfied++
			hits = append(hits, fmt.Sprintf("call %d: %s matched", i+1, want.tool))
			continue
		}
		result = multierror.Append(result, fmt.Errorf(
			"call %d: expected %s not found in order", i+1, want.tool))
	}
	score := &evaluator.Score{
		Score: float64(satisfied) / float64(len(expected)),
		Hits:  hits,
		Details: map[string]any{
			"mode":      ModeInOrder,
			"satisfied": satisfied,
			"expected":  len(expected),
			"actual":    len(actual),
		},
	}
	applyMismatches(score, result)
	return score
}

// scoreExact compares call sequences position by position. Extra actual
// calls count against the score unless allow_extra_calls is set, in which
// case only the expected positions are graded.
func (e *Evaluator) scoreExact(expected []expectedCall, actual []trace.Event) *evaluator.Score {
	var result *multierror.Error
	var hits []string
	satisfied := 0
	for i, want := range expected {
		if i >= len(actual) {
			result = multierror.Append(result, fmt.Errorf(
				"call %d: expected %s, got nothing", i+1, want.tool))
			continue
		}
		if err := matchCall(want, actual[i]); err != nil {
			result = multierror.Append(result, fmt.Errorf("call %d: %w", i+1, err))
			continue
		}
		satisfied++
		hits = append(hits, fmt.Sprintf("call %d: %s matched", i+1, want.tool))
	}
	total := len(expected)
	if !e.allowExtraCalls && len(actual) > total {
		result = multierror.Append(result, fmt.Errorf(
			"%d unexpected extra call(s)", len(actual)-total))
		total = len(actual)
	}
	score := &evaluator.Score{
		Score: float64(satisfied) / float64(total),
		Hits:  hits,
		Details: map[string]any{
			"mode":      ModeExact,
			"satisfied": satisfied,
			"expected":  len(expected),
			"actual":    len(actual),
		},
	}
	applyMismatches(score, result)
	return score
}

// matchCall checks one expected call against one traced event: tool name,
// partial argument match and the per-call duration ceiling when both sides
// carry timing.
func matchCall(want expectedCall, ev trace.Event) error {
	if want.tool != ev.Name {
		return fmt.Errorf("expected tool %s, got %s", want.tool, ev.Name)
	}
	if err := matchArgs(want.args, ev.Input); err != nil {
		return fmt.Errorf("tool %s: %w", want.tool, err)
	}
	if want.maxDurationMs != nil && ev.DurationMs != nil && *ev.DurationMs > *want.maxDurationMs {
		return fmt.Errorf("tool %s took %dms, limit %dms", want.tool, *ev.DurationMs, *want.maxDurationMs)
	}
	return nil
}

// matchArgs checks partial deep equality: every specified expected key must
// match the actual value recursively, unspecified keys are ignored, and the
// sentinel value "any" matches anything.
func matchArgs(want, got map[string]any) error {
	for key, wantVal := range want {
		if s, ok := wantVal.(string); ok && s == "any" {
			continue
		}
		gotVal, ok := got[key]
		if !ok {
			return fmt.Errorf("argument %s missing", key)
		}
		if !matchValue(wantVal, gotVal) {
			return fmt.Errorf("argument %s: expected %v, got %v", key, wantVal, gotVal)
		}
	}
	return nil
}

// matchValue compares one expected value against an actual one. Maps match
// partially, slices match elementwise at equal length, numbers compare as
// float64.
func matchValue(want, got any) bool {
	switch w := want.(type) {
	case map[string]any:
		g, ok := got.(map[string]any)
		if !ok {
			return false
		}
		return matchArgs(w, g) == nil
	case []any:
		g, ok := got.([]any)
		if !ok || len(g) != len(w) {
			return false
		}
		for i := range w {
			if !matchValue(w[i], g[i]) {
				return false
			}
		}
		return true
	default:
		if wf, ok := toFloat(want); ok {
			gf, gok := toFloat(got)
			return gok && wf == gf
		}
		return want == got
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

// applyMismatches folds the accumulated mismatch errors into the score's
// misses and reasoning.
func applyMismatches(score *evaluator.Score, result *multierror.Error) {
	if result == nil || len(result.Errors) == 0 {
		return
	}
	for _, err := range result.Errors {
		score.Misses = append(score.Misses, err.Error())
	}
	score.Reasoning = result.Error()
}
