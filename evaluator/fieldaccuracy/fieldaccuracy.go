//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package fieldaccuracy scores structured answers field by field, with
// typed matchers for text, numbers and dates.
package fieldaccuracy

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/evalsuite/agentharness/evalset"
	"github.com/evalsuite/agentharness/evaluator"
)

// Type is the registry type string.
const Type = "field_accuracy"

// Match types.
const (
	MatchExact            = "exact"
	MatchNumericTolerance = "numeric_tolerance"
	MatchDate             = "date"
)

// Aggregation modes.
const (
	AggWeightedAverage = "weighted_average"
	AggAllOrNothing    = "all_or_nothing"
)

// Field is one field comparison rule.
type Field struct {
	// Path addresses the field in the candidate answer, dot notation with
	// [n] array indexes.
	Path string
	// MatchType selects the matcher, defaulting to exact.
	MatchType string
	// Tolerance is the numeric tolerance, absolute unless Relative is set.
	Tolerance float64
	// Relative switches the tolerance to a fraction of the expected value.
	Relative bool
	// Weight is the aggregation weight, defaulting to 1.0.
	Weight float64
	// Required forces a failing verdict when this field does not match.
	Required bool
	// Expected overrides the reference answer for this field.
	Expected any
	// HasExpected records whether an explicit expected value was configured.
	HasExpected bool
}

// Evaluator compares candidate answers field by field.
type Evaluator struct {
	name        string
	fields      []Field
	matchType   string
	tolerance   float64
	relative    bool
	aggregation string
	dateFormats []string
}

// New builds a field_accuracy evaluator. Config keys: "fields" (list of
// field rules), "match_type"/"tolerance"/"relative" (whole-answer comparison
// when no fields are configured), "aggregation" and "date_formats" (Go time
// layouts replacing the built-in list for date matching).
func New(cfg *evalset.EvaluatorConfig) (*Evaluator, error) {
	e := &Evaluator{
		name:        cfg.Name,
		matchType:   MatchExact,
		aggregation: AggWeightedAverage,
		dateFormats: defaultDateFormats,
	}
	if _, present := cfg.Config["date_formats"]; present {
		formats, ok := cfg.StringSlice("date_formats")
		if !ok || len(formats) == 0 {
			return nil, fmt.Errorf("date_formats must be a non-empty list of layout strings")
		}
		e.dateFormats = formats
	}
	if mt, ok := cfg.String("match_type"); ok {
		if err := validMatchType(mt); err != nil {
			return nil, err
		}
		e.matchType = mt
	}
	if tol, ok := cfg.Float("tolerance"); ok {
		e.tolerance = tol
	}
	if rel, ok := cfg.Bool("relative"); ok {
		e.relative = rel
	}
	if agg, ok := cfg.String("aggregation"); ok {
		if agg != AggWeightedAverage && agg != AggAllOrNothing {
			return nil, fmt.Errorf("unknown aggregation %q", agg)
		}
		e.aggregation = agg
	}
	rawFields, ok := cfg.Config["fields"].([]any)
	if ok {
		for i, raw := range rawFields {
			field, err := parseField(raw)
			if err != nil {
				return nil, fmt.Errorf("field %d: %w", i, err)
			}
			e.fields = append(e.fields, field)
		}
	}
	return e, nil
}

func validMatchType(mt string) error {
	switch mt {
	case MatchExact, MatchNumericTolerance, MatchDate:
		return nil
	}
	return fmt.Errorf("unknown match_type %q", mt)
}

// parseField decodes one field rule from its YAML mapping.
func parseField(raw any) (Field, error) {
	m, ok := raw.(map[string]any)
	if !ok {
		return Field{}, fmt.Errorf("field rule must be a mapping")
	}
	field := Field{MatchType: MatchExact, Weight: 1.0}
	path, _ := m["path"].(string)
	if path == "" {
		return Field{}, fmt.Errorf("field rule has no path")
	}
	field.Path = path
	if mt, ok := m["match_type"].(string); ok {
		if err := validMatchType(mt); err != nil {
			return Field{}, err
		}
		field.MatchType = mt
	}
	if tol, ok := toFloat(m["tolerance"]); ok {
		field.Tolerance = tol
	}
	if rel, ok := m["relative"].(bool); ok {
		field.Relative = rel
	}
	if w, ok := toFloat(m["weight"]); ok {
		if w < 0 {
			return Field{}, fmt.Errorf("field %s has negative weight", path)
		}
		field.Weight = w
	}
	if req, ok := m["required"].(bool); ok {
		field.Required = req
	}
	if exp, ok := m["expected"]; ok {
		field.Expected = exp
		field.HasExpected = true
	}
	return field, nil
}

// Name implements evaluator.Evaluator.
func (e *Evaluator) Name() string { return e.name }

// Type implements evaluator.Evaluator.
func (e *Evaluator) Type() string { return Type }

// Evaluate compares the candidate answer field by field, or as a whole when
// no field rules are configured.
func (e *Evaluator) Evaluate(ctx context.Context, ec *evaluator.Context) (*evaluator.Score, error) {
	_ = ctx
	if len(e.fields) == 0 {
		return e.evaluateWhole(ec).Normalize(), nil
	}
	return e.evaluateFields(ec).Normalize(), nil
}

// evaluateWhole compares the whole answer text against the reference answer
// with the top-level match type.
func (e *Evaluator) evaluateWhole(ec *evaluator.Context) *evaluator.Score {
	reference := ""
	if ec.Case != nil {
		reference = ec.Case.ReferenceAnswer()
	}
	if reference == "" {
		return evaluator.FailScore("no reference answer to compare against")
	}
	matched := match(e.matchType, reference, strings.TrimSpace(ec.Answer), e.tolerance, e.relative, e.dateFormats)
	score := &evaluator.Score{}
	if matched {
		score.Score = 1.0
		score.Hits = []string{"answer matches reference"}
	} else {
		score.Misses = []string{fmt.Sprintf("answer %q does not match reference %q",
			truncate(ec.Answer, 80), truncate(reference, 80))}
	}
	return score
}

// fieldOutcome is the classification of one field comparison.
type fieldOutcome struct {
	path     string
	matched  bool
	tp       int
	fp       int
	fn       int
	excluded bool
}

// evaluateFields compares each configured field and aggregates.
func (e *Evaluator) evaluateFields(ec *evaluator.Context) *evaluator.Score {
	candidate, candErr := parseJSON(ec.Answer)
	var reference any
	if ec.Case != nil {
		reference, _ = parseJSON(ec.Case.ReferenceAnswer())
	}
	var hits, misses []string
	var weightSum, weighted float64
	requiredFailed := false
	outcomes := make([]fieldOutcome, 0, len(e.fields))
	for _, field := range e.fields {
		out := fieldOutcome{path: field.Path}
		expected, haveExpected := field.Expected, field.HasExpected
		if !haveExpected && reference != nil {
			expected, haveExpected = resolvePath(reference, field.Path)
		}
		var got any
		haveGot := false
		if candErr == nil {
			got, haveGot = resolvePath(candidate, field.Path)
		}
		switch {
		case !haveExpected && !haveGot:
			out.excluded = true
			out.matched = true
		case !haveExpected && haveGot:
			out.fp = 1
		case haveExpected && !haveGot:
			out.fn = 1
		default:
			if e.matchValues(field, expected, got) {
				out.matched = true
				out.tp = 1
			} else {
				out.fp = 1
				out.fn = 1
			}
		}
		outcomes = append(outcomes, out)
		weightSum += field.Weight
		if out.matched && !out.excluded {
			weighted += field.Weight
			hits = append(hits, fmt.Sprintf("field %s matches", field.Path))
		} else if out.excluded {
			weighted += field.Weight
		} else {
			misses = append(misses, fmt.Sprintf("field %s: expected %v, got %v",
				field.Path, expected, describeValue(got, haveGot)))
			if field.Required {
				requiredFailed = true
			}
		}
	}
	score := &evaluator.Score{Hits: hits, Misses: misses}
	if e.aggregation == AggAllOrNothing {
		score.Score = 1.0
		for _, out := range outcomes {
			if !out.matched {
				score.Score = 0
				break
			}
		}
	} else if weightSum > 0 {
		score.Score = weighted / weightSum
	}
	if requiredFailed {
		score.Verdict = evaluator.VerdictFail
	}
	score.Details = e.details(outcomes)
	if candErr != nil {
		score.Reasoning = fmt.Sprintf("candidate answer is not valid JSON: %v", candErr)
	}
	return score
}

// details builds the per-field classification table and the macro-F1 over
// fields that were expected or produced. Fields absent on both sides are
// excluded; an undefined per-field F1 counts as zero.
func (e *Evaluator) details(outcomes []fieldOutcome) map[string]any {
	perField := make([]map[string]any, 0, len(outcomes))
	var f1Sum float64
	included := 0
	for _, out := range outcomes {
		entry := map[string]any{
			"path":    out.path,
			"matched": out.matched,
			"tp":      out.tp,
			"fp":      out.fp,
			"fn":      out.fn,
		}
		if !out.excluded {
			denom := float64(2*out.tp + out.fp + out.fn)
			f1 := 0.0
			if denom > 0 {
				f1 = float64(2*out.tp) / denom
			}
			entry["f1"] = f1
			f1Sum += f1
			included++
		}
		perField = append(perField, entry)
	}
	details := map[string]any{"fields": perField}
	if included > 0 {
		details["macro_f1"] = f1Sum / float64(included)
	}
	return details
}

// matchValues applies the field's matcher to an expected/actual pair.
func (e *Evaluator) matchValues(field Field, expected, got any) bool {
	return match(field.MatchType, stringify(expected), stringify(got), field.Tolerance, field.Relative, e.dateFormats)
}

// match compares two scalar values under a match type.
func match(matchType, expected, got string, tolerance float64, relative bool, dateFormats []string) bool {
	switch matchType {
	case MatchNumericTolerance:
		we, err1 := strconv.ParseFloat(strings.TrimSpace(expected), 64)
		wg, err2 := strconv.ParseFloat(strings.TrimSpace(got), 64)
		if err1 != nil || err2 != nil {
			return false
		}
		diff := math.Abs(we - wg)
		if relative {
			if we == 0 {
				return diff <= tolerance
			}
			return diff/math.Abs(we) <= tolerance
		}
		return diff <= tolerance
	case MatchDate:
		de, ok1 := parseDate(expected, dateFormats)
		dg, ok2 := parseDate(got, dateFormats)
		if !ok1 || !ok2 {
			return false
		}
		return de == dg
	default:
		return strings.TrimSpace(expected) == strings.TrimSpace(got)
	}
}

// stringify renders a JSON scalar for comparison.
func stringify(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case nil:
		return ""
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case int:
		return strconv.Itoa(s)
	case bool:
		return strconv.FormatBool(s)
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(data)
	}
}

func describeValue(v any, present bool) string {
	if !present {
		return "<missing>"
	}
	return stringify(v)
}

// parseJSON decodes an answer as JSON, accepting a leading/trailing text
// wrapper around a single object.
func parseJSON(text string) (any, error) {
	trimmed := strings.TrimSpace(text)
	var doc any
	if err := json.Unmarshal([]byte(trimmed), &doc); err == nil {
		return doc, nil
	}
	start := strings.IndexByte(trimmed, '{')
	end := strings.LastIndexByte(trimmed, '}')
	if start >= 0 && end > start {
		if err := json.Unmarshal([]byte(trimmed[start:end+1]), &doc); err == nil {
			return doc, nil
		}
	}
	return nil, fmt.Errorf("not a JSON document")
}

// resolvePath walks a dot path with [n] array indexes through decoded JSON.
func resolvePath(doc any, path string) (any, bool) {
	current := doc
	for _, part := range strings.Split(path, ".") {
		for {
			idx := strings.IndexByte(part, '[')
			key := part
			if idx >= 0 {
				key = part[:idx]
			}
			if key != "" {
				m, ok := current.(map[string]any)
				if !ok {
					return nil, false
				}
				current, ok = m[key]
				if !ok {
					return nil, false
				}
			}
			if idx < 0 {
				break
			}
			rest := part[idx:]
			close := strings.IndexByte(rest, ']')
			if close < 0 {
				return nil, false
			}
			n, err := strconv.Atoi(rest[1:close])
			if err != nil {
				return nil, false
			}
			arr, ok := current.([]any)
			if !ok || n < 0 || n >= len(arr) {
				return nil, false
			}
			current = arr[n]
			part = rest[close+1:]
			if part == "" {
				break
			}
			if part[0] != '[' {
				return nil, false
			}
		}
	}
	return current, true
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
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
