//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

package provider

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/evalsuite/agentharness/message"
)

func TestIsTimeout(t *testing.T) {
	require.True(t, IsTimeout(ErrTimeout))
	require.True(t, IsTimeout(fmt.Errorf("invoke: %w", ErrTimeout)))
	require.True(t, IsTimeout(context.DeadlineExceeded))
	require.True(t, IsTimeout(fmt.Errorf("call: %w", context.DeadlineExceeded)))
	require.False(t, IsTimeout(fmt.Errorf("connection refused")))
	require.False(t, IsTimeout(nil))
}

func TestAnswerTextPrefersText(t *testing.T) {
	resp := &Response{
		Text:           "direct",
		OutputMessages: []message.Message{message.NewAssistantMessage("structured")},
	}
	require.Equal(t, "direct", resp.AnswerText())
}

func TestAnswerTextFallsBackToMessages(t *testing.T) {
	resp := &Response{
		OutputMessages: []message.Message{
			message.NewUserMessage("echoed input"),
			message.NewAssistantMessage("part one"),
			message.NewAssistantMessage("part two"),
		},
	}
	require.Equal(t, "part one\npart two", resp.AnswerText())
}

func TestAnswerTextEmpty(t *testing.T) {
	require.Equal(t, "", (&Response{}).AnswerText())
}
