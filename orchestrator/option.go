//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

package orchestrator

import (
	"context"
	"time"

	"github.com/evalsuite/agentharness/evalresult"
	"github.com/evalsuite/agentharness/evaluator"
	"github.com/evalsuite/agentharness/evaluator/registry"
	"github.com/evalsuite/agentharness/prompt"
	"github.com/evalsuite/agentharness/provider"
	"github.com/evalsuite/agentharness/workspace"
)

// Defaults for orchestrator options.
const (
	DefaultParallelism = 4
	DefaultMaxRetries  = 2
)

// Options holds the orchestrator configuration.
type Options struct {
	// Parallelism bounds concurrently running cases.
	Parallelism int
	// MaxRetries bounds retries after the first attempt. Only provider
	// timeouts are retried.
	MaxRetries int
	// Timeout bounds each provider attempt. Zero means no per-attempt bound.
	Timeout time.Duration
	// Registry builds evaluators from case configuration.
	Registry registry.Registry
	// PromptBuilder renders case messages into provider requests.
	PromptBuilder *prompt.Builder
	// JudgeResolver resolves judge providers for LLM-based evaluators.
	JudgeResolver evaluator.JudgeResolver
	// TraceLoader loads externally stored traces by reference.
	TraceLoader provider.TraceLoader
	// Writer receives one record per case. Optional.
	Writer evalresult.Writer
	// Collector receives progress events. Optional.
	Collector *Collector
	// Workspace prepares per-case working directories. Optional.
	Workspace *workspace.Runner
	// FileChangeCapture collects workspace diff data after dispatch, for
	// cases whose provider response carries none. Optional; requires a
	// workspace.
	FileChangeCapture FileChangeCapture
}

// FileChangeCapture inspects a case workspace after the provider ran and
// returns diff data for the evaluators (code judges receive it verbatim on
// the wire).
type FileChangeCapture func(ctx context.Context, ws *workspace.Workspace) (any, error)

// Option configures the orchestrator.
type Option func(*Options)

// WithParallelism sets the number of concurrently running cases.
func WithParallelism(n int) Option {
	return func(o *Options) {
		if n > 0 {
			o.Parallelism = n
		}
	}
}

// WithMaxRetries sets the retry budget for timed-out attempts.
func WithMaxRetries(n int) Option {
	return func(o *Options) {
		if n >= 0 {
			o.MaxRetries = n
		}
	}
}

// WithTimeout sets the per-attempt provider timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *Options) {
		o.Timeout = d
	}
}

// WithRegistry sets the evaluator registry.
func WithRegistry(r registry.Registry) Option {
	return func(o *Options) {
		o.Registry = r
	}
}

// WithPromptBuilder sets the prompt builder shared by candidate and judge
// paths.
func WithPromptBuilder(b *prompt.Builder) Option {
	return func(o *Options) {
		o.PromptBuilder = b
	}
}

// WithJudgeResolver sets the judge provider resolver.
func WithJudgeResolver(r evaluator.JudgeResolver) Option {
	return func(o *Options) {
		o.JudgeResolver = r
	}
}

// WithJudgeProvider resolves every judge request to one fixed provider.
func WithJudgeProvider(p provider.Provider) Option {
	return WithJudgeResolver(func(_ context.Context, _ *evaluator.Context) (provider.Provider, error) {
		return p, nil
	})
}

// WithTraceLoader sets the external trace loader.
func WithTraceLoader(l provider.TraceLoader) Option {
	return func(o *Options) {
		o.TraceLoader = l
	}
}

// WithResultWriter sets the record sink.
func WithResultWriter(w evalresult.Writer) Option {
	return func(o *Options) {
		o.Writer = w
	}
}

// WithCollector sets the progress event collector.
func WithCollector(c *Collector) Option {
	return func(o *Options) {
		o.Collector = c
	}
}

// WithWorkspace sets the per-case workspace runner.
func WithWorkspace(r *workspace.Runner) Option {
	return func(o *Options) {
		o.Workspace = r
	}
}

// WithFileChangeCapture sets the post-dispatch workspace diff capture.
func WithFileChangeCapture(c FileChangeCapture) Option {
	return func(o *Options) {
		o.FileChangeCapture = c
	}
}

func newOptions(opt ...Option) *Options {
	opts := &Options{
		Parallelism: DefaultParallelism,
		MaxRetries:  DefaultMaxRetries,
	}
	for _, o := range opt {
		o(opts)
	}
	if opts.Registry == nil {
		opts.Registry = registry.Default()
	}
	if opts.PromptBuilder == nil {
		opts.PromptBuilder = prompt.NewBuilder()
	}
	return opts
}
