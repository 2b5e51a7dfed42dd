//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package message defines the role-tagged conversation model shared by eval
// cases, provider responses and evaluators.
package message

import (
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Role is the role of a message author.
type Role string

// Role constants for message authors.
const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// SegmentType is the type of a content segment.
type SegmentType string

// SegmentType constants for content segments.
const (
	SegmentTypeText SegmentType = "text"
	SegmentTypeFile SegmentType = "file"
)

// Segment is a single content segment within a message turn: either literal
// text or a file reference that may carry preloaded content.
type Segment struct {
	// Type is the segment type: "text" or "file".
	Type SegmentType `json:"type" yaml:"type"`
	// Text is the literal text for text segments.
	Text string `json:"text,omitempty" yaml:"text,omitempty"`
	// Path is the referenced file path for file segments.
	Path string `json:"path,omitempty" yaml:"path,omitempty"`
	// Content is the file content when the loader resolved the reference.
	Content string `json:"content,omitempty" yaml:"content,omitempty"`
}

// ToolCall records a single tool invocation attached to an assistant message.
type ToolCall struct {
	// Tool is the tool name.
	Tool string `json:"tool" yaml:"tool"`
	// Input is the decoded tool input object.
	Input map[string]any `json:"input,omitempty" yaml:"input,omitempty"`
	// Output is the decoded tool output, when captured.
	Output any `json:"output,omitempty" yaml:"output,omitempty"`
	// Timestamp is when the call happened. Optional: message-derived sources
	// may not carry one.
	Timestamp *time.Time `json:"timestamp,omitempty" yaml:"timestamp,omitempty"`
	// DurationMs is the call latency in milliseconds, when captured.
	DurationMs *int64 `json:"duration_ms,omitempty" yaml:"duration_ms,omitempty"`
	// IsError marks a call whose output indicates failure.
	IsError bool `json:"is_error,omitempty" yaml:"is_error,omitempty"`
}

// Message represents a single role-tagged turn in a conversation.
type Message struct {
	// Role is the role of the message author.
	Role Role `json:"role" yaml:"role"`
	// Content is the flat text content. Only one of Content or Segments
	// should be provided; Segments wins when both are present.
	Content string `json:"content,omitempty" yaml:"content,omitempty"`
	// Segments is the ordered list of content segments for the turn.
	Segments []Segment `json:"segments,omitempty" yaml:"segments,omitempty"`
	// ToolCalls is the optional list of tool calls for assistant messages.
	ToolCalls []ToolCall `json:"tool_calls,omitempty" yaml:"tool_calls,omitempty"`
}

// NewUserMessage creates a user message with flat text content.
func NewUserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// NewSystemMessage creates a system message with flat text content.
func NewSystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// NewAssistantMessage creates an assistant message with flat text content.
func NewAssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

// Text returns the visible text of the message: the joined text segments when
// segments are present, otherwise the flat content.
func (m Message) Text() string {
	if len(m.Segments) == 0 {
		return m.Content
	}
	parts := make([]string, 0, len(m.Segments))
	for _, seg := range m.Segments {
		if seg.Type == SegmentTypeText && seg.Text != "" {
			parts = append(parts, seg.Text)
		}
	}
	return strings.Join(parts, "\n")
}

// JoinText concatenates the visible text of the given messages, skipping
// turns without textual content.
func JoinText(messages []Message) string {
	parts := make([]string, 0, len(messages))
	for _, m := range messages {
		if text := m.Text(); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, "\n")
}

// messageYAML mirrors Message with a flexible content node so that eval set
// files can write content either as a bare string or as a segment list.
type messageYAML struct {
	Role      Role       `yaml:"role"`
	Content   yaml.Node  `yaml:"content"`
	ToolCalls []ToolCall `yaml:"tool_calls"`
}

// UnmarshalYAML decodes a message whose content is either a scalar string or
// a sequence of segments.
func (m *Message) UnmarshalYAML(node *yaml.Node) error {
	var raw messageYAML
	if err := node.Decode(&raw); err != nil {
		return fmt.Errorf("decode message: %w", err)
	}
	m.Role = raw.Role
	m.ToolCalls = raw.ToolCalls
	if raw.Content.Kind == 0 {
		return nil
	}
	switch raw.Content.Kind {
	case yaml.ScalarNode:
		if err := raw.Content.Decode(&m.Content); err != nil {
			return fmt.Errorf("decode message content: %w", err)
		}
	case yaml.SequenceNode:
		var segments []segmentYAML
		if err := raw.Content.Decode(&segments); err != nil {
			return fmt.Errorf("decode message segments: %w", err)
		}
		m.Segments = make([]Segment, 0, len(segments))
		for _, seg := range segments {
			m.Segments = append(m.Segments, seg.toSegment())
		}
	default:
		return fmt.Errorf("message content must be a string or a segment list")
	}
	return nil
}

// segmentYAML accepts the shorthand segment forms `{text: ...}` and
// `{file: path}` in addition to the explicit typed form.
type segmentYAML struct {
	Type    SegmentType `yaml:"type"`
	Text    string      `yaml:"text"`
	File    string      `yaml:"file"`
	Path    string      `yaml:"path"`
	Content string      `yaml:"content"`
}

func (s segmentYAML) toSegment() Segment {
	seg := Segment{Type: s.Type, Text: s.Text, Path: s.Path, Content: s.Content}
	if s.File != "" {
		seg.Path = s.File
	}
	if seg.Type == "" {
		if seg.Path != "" {
			seg.Type = SegmentTypeFile
		} else {
			seg.Type = SegmentTypeText
		}
	}
	return seg
}
