//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

package evalset

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/evalsuite/agentharness/message"
)

// EvalCase represents a single evaluation case. Cases are constructed once by
// the loader per run and are immutable thereafter.
type EvalCase struct {
	// ID uniquely identifies this evaluation case.
	ID string `json:"id" yaml:"id"`
	// InputMessages contains the ordered role-tagged input turns.
	InputMessages []message.Message `json:"input_messages" yaml:"input_messages"`
	// ExpectedMessages contains the ground-truth turns. Assistant turns may
	// carry expected tool calls. Optional.
	ExpectedMessages []message.Message `json:"expected_messages,omitempty" yaml:"expected_messages,omitempty"`
	// ExpectedOutcome describes success in free text.
	ExpectedOutcome string `json:"expected_outcome,omitempty" yaml:"expected_outcome,omitempty"`
	// Rubrics lists inline scoring criteria. Optional.
	Rubrics []Rubric `json:"rubrics,omitempty" yaml:"rubrics,omitempty"`
	// Evaluators lists explicit evaluator configurations. Optional.
	Evaluators []*EvaluatorConfig `json:"evaluators,omitempty" yaml:"evaluators,omitempty"`
	// Metadata is an opaque bag passed through to workspace scripts.
	Metadata map[string]any `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// Validate checks the structural invariants of the case.
func (c *EvalCase) Validate() error {
	if c.ID == "" {
		return fmt.Errorf("eval case id is empty")
	}
	if len(c.InputMessages) == 0 {
		return fmt.Errorf("eval case %s has no input messages", c.ID)
	}
	for _, cfg := range c.Evaluators {
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("eval case %s: %w", c.ID, err)
		}
	}
	for _, rubric := range c.Rubrics {
		if rubric.Criterion == "" {
			return fmt.Errorf("eval case %s has an empty rubric criterion", c.ID)
		}
		if rubric.Weight < 0 {
			return fmt.Errorf("eval case %s rubric %q has negative weight", c.ID, rubric.Criterion)
		}
	}
	return nil
}

// InputText returns the joined text of the user input turns. It is a
// fallback identity for the case when no rendered request is available.
func (c *EvalCase) InputText() string {
	var users []message.Message
	for _, msg := range c.InputMessages {
		if msg.Role == message.RoleUser {
			users = append(users, msg)
		}
	}
	return message.JoinText(users)
}

// ReferenceAnswer returns the joined text of the expected assistant turns,
// used as the ground-truth answer by evaluators. Empty when no expected
// messages are configured.
func (c *EvalCase) ReferenceAnswer() string {
	var assistant []message.Message
	for _, msg := range c.ExpectedMessages {
		if msg.Role == message.RoleAssistant {
			assistant = append(assistant, msg)
		}
	}
	return message.JoinText(assistant)
}

// ExpectedToolCalls returns the expected tool calls attached to expected
// assistant turns, in array order.
func (c *EvalCase) ExpectedToolCalls() []message.ToolCall {
	var calls []message.ToolCall
	for _, msg := range c.ExpectedMessages {
		if msg.Role != message.RoleAssistant {
			continue
		}
		calls = append(calls, msg.ToolCalls...)
	}
	return calls
}

// Rubric is a single scoring criterion with an optional weight and a hard
// required gate.
type Rubric struct {
	// Criterion is the criterion text.
	Criterion string `json:"criterion" yaml:"criterion"`
	// Weight is the criterion weight, defaulting to 1.0.
	Weight float64 `json:"weight" yaml:"weight"`
	// Required forces a failing verdict when the criterion is unsatisfied,
	// regardless of the weighted average.
	Required bool `json:"required,omitempty" yaml:"required,omitempty"`
}

// UnmarshalYAML accepts either a bare criterion string or the full mapping
// form, defaulting the weight to 1.0.
func (r *Rubric) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		r.Criterion = node.Value
		r.Weight = 1.0
		return nil
	}
	type plain Rubric
	var raw plain
	raw.Weight = 1.0
	if err := node.Decode(&raw); err != nil {
		return fmt.Errorf("decode rubric: %w", err)
	}
	*r = Rubric(raw)
	return nil
}
