//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package registry maps evaluator type strings to constructors. Evaluator
// instances are built from case configuration at load time, so an unknown
// type fails the run before any provider is invoked.
package registry

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/evalsuite/agentharness/evalset"
	"github.com/evalsuite/agentharness/evaluator"
)

// Constructor builds an evaluator instance from its case configuration. The
// registry is passed through so composite evaluators can build their
// children.
type Constructor func(cfg *evalset.EvaluatorConfig, r Registry) (evaluator.Evaluator, error)

// Registry defines the interface for evaluator type registration.
type Registry interface {
	// Register registers a constructor for a type string.
	Register(typ string, ctor Constructor) error
	// Build constructs an evaluator from a config entry.
	Build(cfg *evalset.EvaluatorConfig) (evaluator.Evaluator, error)
	// BuildAll constructs evaluators for every config entry, failing on the
	// first invalid one.
	BuildAll(cfgs []*evalset.EvaluatorConfig) ([]evaluator.Evaluator, error)
	// Types returns all registered type strings sorted lexicographically.
	Types() []string
}

// registry is the default implementation of Registry.
type registry struct {
	mu           sync.RWMutex
	constructors map[string]Constructor
}

// New creates an empty registry.
func New() Registry {
	return &registry{constructors: make(map[string]Constructor)}
}

// Register registers a constructor for a type string.
// A constructor registered under the same type is overwritten.
func (r *registry) Register(typ string, ctor Constructor) error {
	if ctor == nil {
		return errors.New("evaluator constructor is nil")
	}
	if typ == "" {
		return errors.New("evaluator type is empty")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.constructors[typ] = ctor
	return nil
}

// Build constructs an evaluator from a config entry.
// Returns os.ErrNotExist if the type is not registered.
func (r *registry) Build(cfg *evalset.EvaluatorConfig) (evaluator.Evaluator, error) {
	if cfg == nil {
		return nil, errors.New("evaluator config is nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	ctor, ok := r.constructors[cfg.Type]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("build evaluator %s: unknown type %s: %w",
			cfg.Name, cfg.Type, os.ErrNotExist)
	}
	e, err := ctor(cfg, r)
	if err != nil {
		return nil, fmt.Errorf("build evaluator %s (%s): %w", cfg.Name, cfg.Type, err)
	}
	return e, nil
}

// BuildAll constructs evaluators for every config entry.
func (r *registry) BuildAll(cfgs []*evalset.EvaluatorConfig) ([]evaluator.Evaluator, error) {
	out := make([]evaluator.Evaluator, 0, len(cfgs))
	for _, cfg := range cfgs {
		e, err := r.Build(cfg)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// Types returns all registered type strings sorted lexicographically.
func (r *registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	types := make([]string, 0, len(r.constructors))
	for typ := range r.constructors {
		types = append(types, typ)
	}
	sort.Strings(types)
	return types
}
