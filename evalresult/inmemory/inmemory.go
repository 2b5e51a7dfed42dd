//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package inmemory provides an in-memory storage implementation for
// evaluation results, used by tests and embedding callers.
package inmemory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/evalsuite/agentharness/evalresult"
)

// Manager implements the evalresult.Manager interface using in-memory
// storage.
type Manager struct {
	mu   sync.RWMutex
	runs map[string][]*evalresult.Record
}

// NewManager creates a new in-memory evaluation result manager.
func NewManager() *Manager {
	return &Manager{runs: make(map[string][]*evalresult.Record)}
}

// Save stores a record under its run id.
func (m *Manager) Save(ctx context.Context, record *evalresult.Record) error {
	_ = ctx
	if record == nil {
		return fmt.Errorf("record is nil")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs[record.RunID] = append(m.runs[record.RunID], record)
	return nil
}

// Get retrieves all records for a run id.
func (m *Manager) Get(ctx context.Context, runID string) ([]*evalresult.Record, error) {
	_ = ctx
	m.mu.RLock()
	defer m.mu.RUnlock()
	records, ok := m.runs[runID]
	if !ok {
		return nil, fmt.Errorf("run %s not found", runID)
	}
	out := make([]*evalresult.Record, len(records))
	copy(out, records)
	return out, nil
}

// List returns all known run ids sorted lexicographically.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	_ = ctx
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.runs))
	for id := range m.runs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// Close closes the manager.
func (m *Manager) Close() error {
	return nil
}

// Writer adapts the manager into an evalresult.Writer.
func (m *Manager) Writer() evalresult.Writer {
	return &managerWriter{m: m}
}

type managerWriter struct {
	m *Manager
}

func (w *managerWriter) Write(record *evalresult.Record) error {
	return w.m.Save(context.Background(), record)
}

func (w *managerWriter) Close() error {
	return nil
}
