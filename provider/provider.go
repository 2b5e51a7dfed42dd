//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package provider defines the capability contract between the orchestrator
// and the external backends that turn prompts into candidate responses.
package provider

import (
	"context"
	"errors"

	"github.com/evalsuite/agentharness/message"
	"github.com/evalsuite/agentharness/trace"
)

// ErrTimeout classifies a provider invocation that exceeded its time budget.
// Timeouts are the only retryable failure class.
var ErrTimeout = errors.New("provider invocation timed out")

// IsTimeout reports whether the error is timeout-classified.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout) || errors.Is(err, context.DeadlineExceeded)
}

// Request is the rendered input handed to a provider for one attempt.
type Request struct {
	// Question is the flat, role-marker-formatted prompt text.
	Question string `json:"question"`
	// ChatPrompt is the structured multi-turn form for providers that accept
	// real message arrays. Optional.
	ChatPrompt []message.Message `json:"chat_prompt,omitempty"`
	// Guidelines is the text extracted from guideline-pattern files. Optional.
	Guidelines string `json:"guidelines,omitempty"`
}

// Response is the output produced by a provider for one attempt.
type Response struct {
	// Text is the candidate answer text.
	Text string `json:"text,omitempty"`
	// OutputMessages is the structured form of the provider output. Assistant
	// messages may carry tool calls.
	OutputMessages []message.Message `json:"output_messages,omitempty"`
	// Trace is an already-normalized event list, when the provider captured
	// one. Takes precedence over TraceRef and message extraction.
	Trace []trace.Event `json:"trace,omitempty"`
	// TraceRef points to an externally stored trace.
	TraceRef string `json:"trace_ref,omitempty"`
	// TokenUsage is the reported token consumption.
	TokenUsage *trace.TokenUsage `json:"token_usage,omitempty"`
	// CostUSD is the reported cost in USD.
	CostUSD *float64 `json:"cost_usd,omitempty"`
	// DurationMs is the reported invocation latency in milliseconds.
	DurationMs *int64 `json:"duration_ms,omitempty"`
	// FileChanges is workspace diff data captured by the provider, forwarded
	// to code judges. Takes precedence over orchestrator-side capture.
	FileChanges any `json:"file_changes,omitempty"`
}

// AnswerText returns the candidate answer: the flat text when present,
// otherwise the joined text of assistant output messages.
func (r *Response) AnswerText() string {
	if r.Text != "" {
		return r.Text
	}
	var assistant []message.Message
	for _, msg := range r.OutputMessages {
		if msg.Role == message.RoleAssistant {
			assistant = append(assistant, msg)
		}
	}
	return message.JoinText(assistant)
}

// Provider turns a rendered request into a candidate response.
// Implementations live outside the core; the orchestrator treats them as
// opaque.
type Provider interface {
	// Name identifies the provider.
	Name() string
	// Invoke runs the provider on a single request.
	Invoke(ctx context.Context, req *Request) (*Response, error)
}

// BatchInvoker is the optional batching capability. The orchestrator probes
// for it before using batch mode; batching is a performance hint, never a
// correctness requirement.
type BatchInvoker interface {
	// InvokeBatch runs the provider on all requests in one session. The
	// returned responses must align with the requests by index.
	InvokeBatch(ctx context.Context, reqs []*Request) ([]*Response, error)
}

// TraceLoader resolves a Response.TraceRef to the stored trace. Supplied by
// the embedder; a missing loader means refs are ignored.
type TraceLoader func(ctx context.Context, ref string) ([]trace.Event, error)
