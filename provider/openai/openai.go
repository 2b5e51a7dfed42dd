//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package openai implements the provider interface over the OpenAI chat
// completions API, used for both candidate targets and judge models.
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	openai "github.com/openai/openai-go"
	openaiopt "github.com/openai/openai-go/option"

	"github.com/evalsuite/agentharness/message"
	"github.com/evalsuite/agentharness/provider"
	"github.com/evalsuite/agentharness/trace"
)

// Provider invokes an OpenAI-compatible chat completions endpoint.
type Provider struct {
	client openai.Client
	model  string
	name   string
}

// options is the configuration for the OpenAI provider.
type options struct {
	apiKey  string
	baseURL string
	name    string
}

// Option configures the provider.
type Option func(*options)

// WithAPIKey sets the API key. The client falls back to the environment
// when unset.
func WithAPIKey(key string) Option {
	return func(o *options) {
		o.apiKey = key
	}
}

// WithBaseURL points the client at an OpenAI-compatible endpoint.
func WithBaseURL(url string) Option {
	return func(o *options) {
		o.baseURL = url
	}
}

// WithName overrides the provider name reported in records.
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// New creates an OpenAI provider for the given model.
func New(model string, opt ...Option) *Provider {
	opts := &options{}
	for _, o := range opt {
		o(opts)
	}
	var clientOpts []openaiopt.RequestOption
	if opts.apiKey != "" {
		clientOpts = append(clientOpts, openaiopt.WithAPIKey(opts.apiKey))
	}
	if opts.baseURL != "" {
		clientOpts = append(clientOpts, openaiopt.WithBaseURL(opts.baseURL))
	}
	name := opts.name
	if name == "" {
		name = "openai/" + model
	}
	return &Provider{
		client: openai.NewClient(clientOpts...),
		model:  model,
		name:   name,
	}
}

// Name implements provider.Provider.
func (p *Provider) Name() string { return p.name }

// Invoke implements provider.Provider. Context deadline expiry maps to the
// timeout sentinel so the orchestrator's retry policy can recognize it.
func (p *Provider) Invoke(ctx context.Context, req *provider.Request) (*provider.Response, error) {
	params := openai.ChatCompletionNewParams{
		Model:    p.model,
		Messages: buildMessages(req),
	}
	start := time.Now()
	completion, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("chat completion: %w: %w", provider.ErrTimeout, err)
		}
		return nil, fmt.Errorf("chat completion: %w", err)
	}
	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("chat completion returned no choices")
	}
	durationMs := time.Since(start).Milliseconds()

	choice := completion.Choices[0]
	resp := &provider.Response{
		Text:       choice.Message.Content,
		DurationMs: &durationMs,
	}
	out := message.Message{Role: message.RoleAssistant, Content: choice.Message.Content}
	for _, call := range choice.Message.ToolCalls {
		toolCall := message.ToolCall{Tool: call.Function.Name}
		if call.Function.Arguments != "" {
			var args map[string]any
			if err := json.Unmarshal([]byte(call.Function.Arguments), &args); err == nil {
				toolCall.Input = args
			}
		}
		out.ToolCalls = append(out.ToolCalls, toolCall)
	}
	resp.OutputMessages = []message.Message{out}
	if completion.Usage.PromptTokens > 0 || completion.Usage.CompletionTokens > 0 {
		resp.TokenUsage = &trace.TokenUsage{
			Input:  int(completion.Usage.PromptTokens),
			Output: int(completion.Usage.CompletionTokens),
			Cached: int(completion.Usage.PromptTokensDetails.CachedTokens),
		}
	}
	return resp, nil
}

// buildMessages converts the request into chat messages. A structured chat
// prompt wins over the rendered question; the chat prompt already carries
// the guidelines in its consolidated system turn, so they are only added
// for bare-question requests.
func buildMessages(req *provider.Request) []openai.ChatCompletionMessageParamUnion {
	var messages []openai.ChatCompletionMessageParamUnion
	if len(req.ChatPrompt) > 0 {
		for _, msg := range req.ChatPrompt {
			switch msg.Role {
			case message.RoleSystem:
				messages = append(messages, openai.SystemMessage(msg.Content))
			case message.RoleAssistant:
				messages = append(messages, openai.AssistantMessage(msg.Content))
			default:
				messages = append(messages, openai.UserMessage(msg.Content))
			}
		}
		return messages
	}
	if req.Guidelines != "" {
		messages = append(messages, openai.SystemMessage(req.Guidelines))
	}
	return append(messages, openai.UserMessage(req.Question))
}
