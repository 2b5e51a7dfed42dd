//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

package local

// evalSetSchema is the JSON schema applied to eval set documents before
// decoding. Evaluator entries deliberately allow additional properties: the
// residual keys are the pass-through config for evaluator-specific behavior.
const evalSetSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["cases"],
  "properties": {
    "id": {"type": "string"},
    "name": {"type": "string"},
    "cases": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["id", "input_messages"],
        "properties": {
          "id": {"type": "string", "minLength": 1},
          "input_messages": {
            "type": "array",
            "minItems": 1,
            "items": {"$ref": "#/definitions/message"}
          },
          "expected_messages": {
            "type": "array",
            "items": {"$ref": "#/definitions/message"}
          },
          "expected_outcome": {"type": "string"},
          "rubrics": {
            "type": "array",
            "items": {
              "oneOf": [
                {"type": "string"},
                {
                  "type": "object",
                  "required": ["criterion"],
                  "properties": {
                    "criterion": {"type": "string"},
                    "weight": {"type": "number", "minimum": 0},
                    "required": {"type": "boolean"}
                  }
                }
              ]
            }
          },
          "evaluators": {
            "type": "array",
            "items": {
              "type": "object",
              "required": ["type"],
              "properties": {
                "name": {"type": "string"},
                "type": {"type": "string", "minLength": 1},
                "weight": {"type": "number", "minimum": 0}
              }
            }
          },
          "metadata": {"type": "object"}
        }
      }
    }
  },
  "definitions": {
    "message": {
      "type": "object",
      "required": ["role"],
      "properties": {
        "role": {"enum": ["system", "user", "assistant", "tool"]},
        "content": {
          "oneOf": [
            {"type": "string"},
            {"type": "array", "items": {"type": "object"}}
          ]
        },
        "tool_calls": {
          "type": "array",
          "items": {
            "type": "object",
            "required": ["tool"],
            "properties": {
              "tool": {"type": "string"},
              "input": {"type": "object"}
            }
          }
        }
      }
    }
  }
}`
