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
	"sync"
	"time"
)

// EventType classifies collector events.
type EventType string

// Collector event types, emitted in run order.
const (
	EventRunStart        EventType = "run_start"
	EventCaseStart       EventType = "case_start"
	EventCaseRetry       EventType = "case_retry"
	EventCaseFinish      EventType = "case_finish"
	EventEvaluatorResult EventType = "evaluator_result"
	EventRunFinish       EventType = "run_finish"
)

// Event is one progress notification from a run.
type Event struct {
	// Type classifies the event.
	Type EventType
	// RunID identifies the run.
	RunID string
	// CaseID identifies the case, empty for run-level events.
	CaseID string
	// Target is the evaluated target name.
	Target string
	// Attempt is the 1-based attempt number for case-level events.
	Attempt int
	// EvaluatorName identifies the evaluator for evaluator events.
	EvaluatorName string
	// Score carries the score for evaluator and case finish events.
	Score float64
	// Err is the error text, when the event reports a failure.
	Err string
	// Time is the event timestamp.
	Time time.Time
}

// Collector receives progress events from a run. Subscribers are invoked
// synchronously from worker goroutines, so they must be fast and
// thread-safe. The collector also retains every event for later draining.
type Collector struct {
	mu     sync.Mutex
	subs   []func(Event)
	events []Event
	closed bool
}

// NewCollector creates an empty collector.
func NewCollector() *Collector {
	return &Collector{}
}

// Subscribe registers a callback for every subsequent event.
func (c *Collector) Subscribe(fn func(Event)) {
	if fn == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subs = append(c.subs, fn)
}

// Emit records an event and notifies subscribers. Events after Close are
// dropped.
func (c *Collector) Emit(ev Event) {
	if ev.Time.IsZero() {
		ev.Time = time.Now()
	}
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.events = append(c.events, ev)
	subs := make([]func(Event), len(c.subs))
	copy(subs, c.subs)
	c.mu.Unlock()
	for _, fn := range subs {
		fn(ev)
	}
}

// Drain returns all retained events and clears the buffer.
func (c *Collector) Drain() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	events := c.events
	c.events = nil
	return events
}

// Close stops the collector. Subsequent emits are dropped.
func (c *Collector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}
