//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package evalset defines evaluation cases and their storage contract.
package evalset

import (
	"context"
	"fmt"
)

// EvalSet groups evaluation cases under a stable identifier.
type EvalSet struct {
	// ID uniquely identifies the eval set.
	ID string `json:"id" yaml:"id"`
	// Name is the human-readable set name.
	Name string `json:"name,omitempty" yaml:"name,omitempty"`
	// Cases contains the evaluation cases in definition order.
	Cases []*EvalCase `json:"cases" yaml:"cases"`
}

// Validate checks the set and all contained cases, rejecting duplicate case
// ids.
func (s *EvalSet) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("eval set id is empty")
	}
	if len(s.Cases) == 0 {
		return fmt.Errorf("eval set %s has no cases", s.ID)
	}
	seen := make(map[string]bool, len(s.Cases))
	for _, c := range s.Cases {
		if c == nil {
			return fmt.Errorf("eval set %s contains a nil case", s.ID)
		}
		if err := c.Validate(); err != nil {
			return fmt.Errorf("eval set %s: %w", s.ID, err)
		}
		if seen[c.ID] {
			return fmt.Errorf("eval set %s has duplicate case id %s", s.ID, c.ID)
		}
		seen[c.ID] = true
	}
	return nil
}

// Manager defines the interface for eval set storage.
type Manager interface {
	// Get retrieves an eval set by id.
	Get(ctx context.Context, evalSetID string) (*EvalSet, error)
	// List returns the ids of all available eval sets.
	List(ctx context.Context) ([]string, error)
	// Close closes the manager and releases owned resources.
	Close() error
}
