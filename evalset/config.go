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
)

// EvaluatorConfig is one evaluator entry on a case. Known fields are parsed;
// every other key is retained verbatim in Config, which is the extension
// mechanism for evaluator-specific behavior (and flows through to code-judge
// subprocesses unmodified).
type EvaluatorConfig struct {
	// Name identifies the evaluator instance. Defaults to the type.
	Name string `json:"name" yaml:"name"`
	// Type selects the evaluator constructor in the registry.
	Type string `json:"type" yaml:"type"`
	// Weight is the aggregation weight, >= 0, defaulting to 1.0.
	Weight float64 `json:"weight" yaml:"weight"`
	// Config carries the residual, unrecognized keys.
	Config map[string]any `json:"config,omitempty" yaml:"-"`
}

// knownConfigKeys are the keys parsed into struct fields; everything else is
// residual.
var knownConfigKeys = map[string]bool{
	"name":   true,
	"type":   true,
	"weight": true,
}

// UnmarshalYAML parses the known fields and retains the residual map.
func (c *EvaluatorConfig) UnmarshalYAML(node *yaml.Node) error {
	var raw map[string]any
	if err := node.Decode(&raw); err != nil {
		return fmt.Errorf("decode evaluator config: %w", err)
	}
	c.Weight = 1.0
	if v, ok := raw["name"]; ok {
		name, ok := v.(string)
		if !ok {
			return fmt.Errorf("evaluator name must be a string")
		}
		c.Name = name
	}
	if v, ok := raw["type"]; ok {
		typ, ok := v.(string)
		if !ok {
			return fmt.Errorf("evaluator type must be a string")
		}
		c.Type = typ
	}
	if v, ok := raw["weight"]; ok {
		weight, ok := toFloat(v)
		if !ok {
			return fmt.Errorf("evaluator weight must be a number")
		}
		c.Weight = weight
	}
	for key, value := range raw {
		if knownConfigKeys[key] {
			continue
		}
		if c.Config == nil {
			c.Config = make(map[string]any)
		}
		c.Config[key] = value
	}
	if c.Name == "" {
		c.Name = c.Type
	}
	return nil
}

// Validate checks the config invariants. Unknown types are rejected later by
// the registry at load time.
func (c *EvaluatorConfig) Validate() error {
	if c.Type == "" {
		return fmt.Errorf("evaluator %q has no type", c.Name)
	}
	if c.Weight < 0 {
		return fmt.Errorf("evaluator %q has negative weight %v", c.Name, c.Weight)
	}
	return nil
}

// String returns a string value from the residual config.
func (c *EvaluatorConfig) String(key string) (string, bool) {
	v, ok := c.Config[key].(string)
	return v, ok
}

// Bool returns a bool value from the residual config.
func (c *EvaluatorConfig) Bool(key string) (bool, bool) {
	v, ok := c.Config[key].(bool)
	return v, ok
}

// Float returns a numeric value from the residual config, accepting both
// YAML integers and floats.
func (c *EvaluatorConfig) Float(key string) (float64, bool) {
	v, ok := c.Config[key]
	if !ok {
		return 0, false
	}
	return toFloat(v)
}

// StringSlice returns a string list value from the residual config.
func (c *EvaluatorConfig) StringSlice(key string) ([]string, bool) {
	raw, ok := c.Config[key].([]any)
	if !ok {
		return nil, false
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		s, ok := item.(string)
		if !ok {
			return nil, false
		}
		out = append(out, s)
	}
	return out, true
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
