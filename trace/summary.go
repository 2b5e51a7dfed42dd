//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

package trace

import "sort"

// TokenUsage records token consumption for a provider invocation.
type TokenUsage struct {
	// Input is the number of input (prompt) tokens.
	Input int `json:"input"`
	// Output is the number of output (completion) tokens.
	Output int `json:"output"`
	// Cached is the number of input tokens served from cache, when reported.
	Cached int `json:"cached,omitempty"`
}

// Total returns the total number of tokens.
func (u TokenUsage) Total() int {
	return u.Input + u.Output
}

// Summary is an immutable aggregate over a trace.
type Summary struct {
	// EventCount is the total number of events in the trace.
	EventCount int `json:"event_count"`
	// ToolNames lists the unique tool names, sorted lexicographically.
	ToolNames []string `json:"tool_names,omitempty"`
	// ToolCallsByName counts tool_call events per tool name.
	ToolCallsByName map[string]int `json:"tool_calls_by_name,omitempty"`
	// ErrorCount counts events flagged as errors.
	ErrorCount int `json:"error_count"`
	// TokenUsage is the token consumption reported by the provider.
	TokenUsage *TokenUsage `json:"token_usage,omitempty"`
	// CostUSD is the reported invocation cost in USD.
	CostUSD *float64 `json:"cost_usd,omitempty"`
	// DurationMs is the reported end-to-end latency in milliseconds.
	DurationMs *int64 `json:"duration_ms,omitempty"`
}

// Summarize computes a Summary over the trace in a single pass.
func Summarize(events []Event) *Summary {
	summary := &Summary{
		EventCount:      len(events),
		ToolCallsByName: make(map[string]int),
	}
	for _, event := range events {
		if event.IsError {
			summary.ErrorCount++
		}
		if event.Type != EventTypeToolCall {
			continue
		}
		summary.ToolCallsByName[event.Name]++
	}
	summary.ToolNames = make([]string, 0, len(summary.ToolCallsByName))
	for name := range summary.ToolCallsByName {
		summary.ToolNames = append(summary.ToolNames, name)
	}
	sort.Strings(summary.ToolNames)
	return summary
}

// ToolCallCount returns the total number of tool_call events.
func (s *Summary) ToolCallCount() int {
	total := 0
	for _, count := range s.ToolCallsByName {
		total += count
	}
	return total
}
