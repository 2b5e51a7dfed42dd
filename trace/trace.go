//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package trace normalizes heterogeneous agent activity into a uniform event
// list and derived summary statistics.
package trace

import (
	"time"

	"github.com/evalsuite/agentharness/message"
)

// EventType classifies a trace event.
type EventType string

// EventType constants.
const (
	// EventTypeToolCall marks a single tool invocation.
	EventTypeToolCall EventType = "tool_call"
)

// Event is one normalized unit of agent activity.
type Event struct {
	// Type classifies the event.
	Type EventType `json:"type"`
	// Name is the tool name for tool_call events.
	Name string `json:"name"`
	// Input is the decoded tool input.
	Input map[string]any `json:"input,omitempty"`
	// Output is the decoded tool output, when captured.
	Output any `json:"output,omitempty"`
	// Timestamp is when the event happened. Intentionally optional:
	// extraction from message-derived sources may not have one.
	Timestamp *time.Time `json:"timestamp,omitempty"`
	// DurationMs is the event latency in milliseconds, when known.
	DurationMs *int64 `json:"duration_ms,omitempty"`
	// IsError marks an event whose output indicates failure. The failure
	// detection heuristic is provider-defined; the trace model only carries
	// the flag.
	IsError bool `json:"is_error,omitempty"`
}

// ExtractFromMessages derives a trace from the output messages of a provider
// response: every tool call attached to an assistant message becomes one
// tool_call event, in array order. Messages without tool calls contribute
// nothing. Extraction never fails; missing or malformed fields degrade to
// empty values.
func ExtractFromMessages(messages []message.Message) []Event {
	var events []Event
	for _, msg := range messages {
		if msg.Role != message.RoleAssistant {
			continue
		}
		for _, call := range msg.ToolCalls {
			events = append(events, Event{
				Type:       EventTypeToolCall,
				Name:       call.Tool,
				Input:      call.Input,
				Output:     call.Output,
				Timestamp:  call.Timestamp,
				DurationMs: call.DurationMs,
				IsError:    call.IsError,
			})
		}
	}
	return events
}
