//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package local provides a local file storage implementation for eval sets.
package local

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"

	"github.com/evalsuite/agentharness/evalset"
)

const evalSetSuffix = ".evalset.yaml"

// cacheEntry pairs a decoded set with the file mtime it was loaded from.
type cacheEntry struct {
	set     *evalset.EvalSet
	modTime time.Time
}

// manager implements the evalset.Manager interface over a directory of
// *.evalset.yaml files.
type manager struct {
	baseDir string
	mu      sync.Mutex
	cache   map[string]cacheEntry
}

// NewManager creates a local eval set manager rooted at baseDir.
func NewManager(baseDir string) evalset.Manager {
	return &manager{
		baseDir: baseDir,
		cache:   make(map[string]cacheEntry),
	}
}

// Get loads, validates and decodes an eval set by id. Sets are cached by
// file mtime; an edited file is reloaded on the next Get.
func (m *manager) Get(ctx context.Context, evalSetID string) (*evalset.EvalSet, error) {
	_ = ctx
	if evalSetID == "" {
		return nil, fmt.Errorf("eval set id is empty")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	path := filepath.Join(m.baseDir, evalSetID+evalSetSuffix)
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("read eval set %s: %w", evalSetID, err)
	}
	if cached, ok := m.cache[evalSetID]; ok && cached.modTime.Equal(info.ModTime()) {
		return cached.set, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read eval set %s: %w", evalSetID, err)
	}
	set, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("eval set %s: %w", evalSetID, err)
	}
	if set.ID == "" {
		set.ID = evalSetID
	}
	if set.ID != evalSetID {
		return nil, fmt.Errorf("eval set file %s declares id %s", path, set.ID)
	}
	if err := set.Validate(); err != nil {
		return nil, err
	}
	m.cache[evalSetID] = cacheEntry{set: set, modTime: info.ModTime()}
	return set, nil
}

// List returns the ids of all eval set files in the base directory.
func (m *manager) List(ctx context.Context) ([]string, error) {
	_ = ctx
	entries, err := os.ReadDir(m.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("list eval sets: %w", err)
	}
	var ids []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(name, evalSetSuffix) {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, evalSetSuffix))
	}
	return ids, nil
}

// Close closes the manager.
func (m *manager) Close() error {
	return nil
}

// Decode validates a YAML eval set document against the schema and decodes
// it. Schema violations surface before any provider is invoked, with the
// offending fields named.
func Decode(data []byte) (*evalset.EvalSet, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(evalSetSchema),
		gojsonschema.NewGoLoader(doc),
	)
	if err != nil {
		return nil, fmt.Errorf("validate eval set: %w", err)
	}
	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			details = append(details, desc.String())
		}
		return nil, fmt.Errorf("invalid eval set: %s", strings.Join(details, "; "))
	}
	var set evalset.EvalSet
	if err := yaml.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("decode eval set: %w", err)
	}
	return &set, nil
}
