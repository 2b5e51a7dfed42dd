//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package jsonl writes result records as JSON lines. A single mutex
// serializes writers, so records from concurrent cases never interleave
// within a line.
package jsonl

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/evalsuite/agentharness/evalresult"
)

// ErrWriterClosed is returned by Write after Close.
var ErrWriterClosed = errors.New("jsonl: writer is closed")

// Writer implements evalresult.Writer over an io.WriteCloser.
type Writer struct {
	mu     sync.Mutex
	out    io.WriteCloser
	closed bool
}

// New creates a writer over an existing sink.
func New(out io.WriteCloser) *Writer {
	return &Writer{out: out}
}

// NewFile creates a writer that appends to the named file, creating it if
// needed.
func NewFile(path string) (*Writer, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open result file %s: %w", path, err)
	}
	return New(f), nil
}

// Write appends one record as a single JSON line.
func (w *Writer) Write(record *evalresult.Record) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal record %s: %w", record.EvalID, err)
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrWriterClosed
	}
	if _, err := w.out.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("write record %s: %w", record.EvalID, err)
	}
	return nil
}

// Close closes the underlying sink. Further writes fail with
// ErrWriterClosed.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true
	return w.out.Close()
}

// Read decodes all records from a JSONL stream, for summarizing a previous
// run's output.
func Read(r io.Reader) ([]*evalresult.Record, error) {
	dec := json.NewDecoder(r)
	var records []*evalresult.Record
	for {
		var record evalresult.Record
		if err := dec.Decode(&record); err != nil {
			if errors.Is(err, io.EOF) {
				return records, nil
			}
			return nil, fmt.Errorf("decode record %d: %w", len(records), err)
		}
		records = append(records, &record)
	}
}
