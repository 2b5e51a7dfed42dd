//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/evalsuite/agentharness/message"
)

func TestBuildSingleUserFlat(t *testing.T) {
	b := NewBuilder()
	req, err := b.Build([]message.Message{
		message.NewUserMessage("What is 2+2?"),
	})
	require.NoError(t, err)
	require.Equal(t, "What is 2+2?", req.Question)
	require.NotContains(t, req.Question, "@[")
}

func TestBuildSystemUserMarkers(t *testing.T) {
	b := NewBuilder()
	req, err := b.Build([]message.Message{
		message.NewSystemMessage("You are terse."),
		message.NewUserMessage("What is 2+2?"),
	})
	require.NoError(t, err)
	require.Contains(t, req.Question, "@[System]: You are terse.")
	require.Contains(t, req.Question, "@[User]: What is 2+2?")
	require.Less(t,
		strings.Index(req.Question, "@[System]"),
		strings.Index(req.Question, "@[User]"))
}

func TestBuildAssistantTurnForcesMarkers(t *testing.T) {
	b := NewBuilder()
	req, err := b.Build([]message.Message{
		message.NewUserMessage("first"),
		message.NewAssistantMessage("second"),
		message.NewUserMessage("third"),
	})
	require.NoError(t, err)
	require.Contains(t, req.Question, "@[Assistant]: second")
}

func TestBuildGuidelineExtraction(t *testing.T) {
	b := NewBuilder()
	req, err := b.Build([]message.Message{
		{
			Role: message.RoleUser,
			Segments: []message.Segment{
				{Type: message.SegmentTypeText, Text: "Fix the bug."},
				{Type: message.SegmentTypeFile, Path: "docs/style.instructions.md", Content: "Always use tabs."},
			},
		},
	})
	require.NoError(t, err)
	require.Equal(t, "Always use tabs.", req.Guidelines)
	require.Contains(t, req.Question, "<Attached: docs/style.instructions.md>")
	require.NotContains(t, req.Question, "Always use tabs.\nFix the bug.")
	// Guidelines land in the consolidated system turn, which makes the
	// rendering multi-turn.
	require.Contains(t, req.Question, "@[System]: Always use tabs.")
	require.Contains(t, req.Question, "@[User]:")
}

func TestBuildNonGuidelineFileInline(t *testing.T) {
	b := NewBuilder()
	req, err := b.Build([]message.Message{
		{
			Role: message.RoleUser,
			Segments: []message.Segment{
				{Type: message.SegmentTypeText, Text: "Review this."},
				{Type: message.SegmentTypeFile, Path: "main.go", Content: "package main"},
			},
		},
	})
	require.NoError(t, err)
	require.Contains(t, req.Question, "--- File: main.go ---\npackage main")
	require.Empty(t, req.Guidelines)
}

func TestBuildLateSystemRetagged(t *testing.T) {
	b := NewBuilder()
	req, err := b.Build([]message.Message{
		message.NewUserMessage("hello"),
		message.NewSystemMessage("switch to French"),
		message.NewUserMessage("continue"),
	})
	require.NoError(t, err)
	require.Contains(t, req.Question, "@[Assistant]: [System]: switch to French")
	require.NotContains(t, req.Question, "@[System]:")
}

func TestBuildDefaultSystemPrompt(t *testing.T) {
	b := NewBuilder(WithDefaultSystemPrompt("Be helpful."))
	req, err := b.Build([]message.Message{
		message.NewUserMessage("hi"),
	})
	require.NoError(t, err)
	require.Contains(t, req.Question, "@[System]: Be helpful.")
	require.Equal(t, message.RoleSystem, req.ChatPrompt[0].Role)
}

func TestBuildLeadingSystemMerged(t *testing.T) {
	b := NewBuilder(WithDefaultSystemPrompt("Base."))
	req, err := b.Build([]message.Message{
		message.NewSystemMessage("One."),
		message.NewSystemMessage("Two."),
		message.NewUserMessage("go"),
	})
	require.NoError(t, err)
	systemTurns := 0
	for _, msg := range req.ChatPrompt {
		if msg.Role == message.RoleSystem {
			systemTurns++
		}
	}
	require.Equal(t, 1, systemTurns)
	require.Contains(t, req.ChatPrompt[0].Content, "Base.")
	require.Contains(t, req.ChatPrompt[0].Content, "One.")
	require.Contains(t, req.ChatPrompt[0].Content, "Two.")
}

func TestBuildEmptyInput(t *testing.T) {
	b := NewBuilder()
	_, err := b.Build(nil)
	require.Error(t, err)
}

func TestBuildDeterministic(t *testing.T) {
	b := NewBuilder()
	input := []message.Message{
		message.NewSystemMessage("sys"),
		message.NewUserMessage("question"),
	}
	first, err := b.Build(input)
	require.NoError(t, err)
	second, err := b.Build(input)
	require.NoError(t, err)
	require.Equal(t, first.Question, second.Question)
}
