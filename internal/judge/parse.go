//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package judge parses free-form judge model output into structured scores.
// Models do not reliably emit clean JSON, so parsing walks a fixed list of
// strategies from strictest to loosest.
package judge

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Payload is the structured verdict a judge is asked to produce.
type Payload struct {
	// Score is the numeric score, expected in [0, 1].
	Score float64 `json:"score"`
	// Hits lists the satisfied criteria.
	Hits []string `json:"hits,omitempty"`
	// Misses lists the failed criteria.
	Misses []string `json:"misses,omitempty"`
	// Reasoning is the judge's explanation.
	Reasoning string `json:"reasoning,omitempty"`
}

var fencedJSONRe = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")

// Parse extracts a structured verdict from raw judge output. Strategies are
// tried in order: direct JSON, fenced JSON block, first embedded JSON object,
// then the legacy SCORE:/HIT:/MISS:/REASONING: line markers.
func Parse(raw string) (*Payload, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return nil, fmt.Errorf("judge output is empty")
	}
	if p, err := decode(text); err == nil {
		return p, nil
	}
	if m := fencedJSONRe.FindStringSubmatch(text); m != nil {
		if p, err := decode(m[1]); err == nil {
			return p, nil
		}
	}
	if obj, ok := ExtractObject(text); ok {
		if p, err := decode(obj); err == nil {
			return p, nil
		}
	}
	if p, ok := parseMarkers(text); ok {
		return p, nil
	}
	return nil, fmt.Errorf("judge output is not parseable")
}

// decode strictly decodes one JSON object and requires a score field.
func decode(text string) (*Payload, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &probe); err != nil {
		return nil, err
	}
	if _, ok := probe["score"]; !ok {
		return nil, fmt.Errorf("no score field")
	}
	var p Payload
	if err := json.Unmarshal([]byte(text), &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// ExtractObject scans for the first balanced top-level JSON object in the
// text, skipping braces inside string literals.
func ExtractObject(text string) (string, bool) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", false
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		ch := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}
	return "", false
}

// parseMarkers handles the legacy line-oriented format:
//
//	SCORE: 0.8
//	HIT: covered the edge case
//	MISS: no complexity analysis
//	REASONING: mostly correct
func parseMarkers(text string) (*Payload, bool) {
	p := &Payload{}
	haveScore := false
	var reasoning []string
	inReasoning := false
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, "SCORE:"):
			inReasoning = false
			v, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimPrefix(trimmed, "SCORE:")), 64)
			if err == nil {
				p.Score = v
				haveScore = true
			}
		case strings.HasPrefix(trimmed, "HIT:"):
			inReasoning = false
			p.Hits = append(p.Hits, strings.TrimSpace(strings.TrimPrefix(trimmed, "HIT:")))
		case strings.HasPrefix(trimmed, "MISS:"):
			inReasoning = false
			p.Misses = append(p.Misses, strings.TrimSpace(strings.TrimPrefix(trimmed, "MISS:")))
		case strings.HasPrefix(trimmed, "REASONING:"):
			inReasoning = true
			reasoning = append(reasoning, strings.TrimSpace(strings.TrimPrefix(trimmed, "REASONING:")))
		case inReasoning && trimmed != "":
			reasoning = append(reasoning, trimmed)
		}
	}
	if !haveScore {
		return nil, false
	}
	p.Reasoning = strings.Join(reasoning, " ")
	return p, true
}
