//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

package trace

// DefaultExplorationTools lists the read-only-sounding tool names treated as
// exploration by default.
var DefaultExplorationTools = []string{"read", "grep", "glob", "search", "list"}

// ExplorationRatio returns the fraction of tool calls that used one of the
// given exploration tools. A nil or empty tool name set falls back to
// DefaultExplorationTools. Returns nil when the trace has no tool calls.
func (s *Summary) ExplorationRatio(explorationTools []string) *float64 {
	total := s.ToolCallCount()
	if total == 0 {
		return nil
	}
	if len(explorationTools) == 0 {
		explorationTools = DefaultExplorationTools
	}
	exploration := 0
	for _, name := range explorationTools {
		exploration += s.ToolCallsByName[name]
	}
	ratio := float64(exploration) / float64(total)
	return &ratio
}

// TokensPerToolCall returns total tokens divided by tool call count.
// Returns nil when token usage is absent or the trace has no tool calls.
func (s *Summary) TokensPerToolCall() *float64 {
	total := s.ToolCallCount()
	if s.TokenUsage == nil || total == 0 {
		return nil
	}
	ratio := float64(s.TokenUsage.Total()) / float64(total)
	return &ratio
}

// AverageToolDurationMs returns the run duration divided by tool call count.
// Returns nil when duration is absent or the trace has no tool calls.
func (s *Summary) AverageToolDurationMs() *float64 {
	total := s.ToolCallCount()
	if s.DurationMs == nil || total == 0 {
		return nil
	}
	avg := float64(*s.DurationMs) / float64(total)
	return &avg
}
