//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package prompt renders eval case conversations into provider requests,
// deciding when multi-turn role markers are needed versus flat text.
package prompt

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/evalsuite/agentharness/message"
	"github.com/evalsuite/agentharness/provider"
)

// DefaultGuidelinePatterns matches the attached files whose content is
// hoisted into the consolidated system turn instead of staying inline.
var DefaultGuidelinePatterns = []string{"*.instructions.md"}

// Builder renders conversations into provider requests.
//
// The same builder must be used for the candidate and the judge: the judge
// is only meaningful when it sees exactly the question the candidate saw.
type Builder struct {
	guidelinePatterns   []string
	defaultSystemPrompt string
}

// Option configures a Builder.
type Option func(*Builder)

// WithGuidelinePatterns overrides the guideline filename patterns.
func WithGuidelinePatterns(patterns []string) Option {
	return func(b *Builder) {
		b.guidelinePatterns = patterns
	}
}

// WithDefaultSystemPrompt sets a system prompt merged into the consolidated
// leading system turn of every case.
func WithDefaultSystemPrompt(prompt string) Option {
	return func(b *Builder) {
		b.defaultSystemPrompt = prompt
	}
}

// NewBuilder creates a Builder with the supplied options.
func NewBuilder(opt ...Option) *Builder {
	b := &Builder{guidelinePatterns: DefaultGuidelinePatterns}
	for _, o := range opt {
		o(b)
	}
	return b
}

// renderedTurn is one turn after guideline extraction and file embedding.
type renderedTurn struct {
	role message.Role
	text string
}

// Build renders the input messages into a provider request.
//
// Role markers are used iff any assistant or tool message is present, or
// more than one turn has visible textual content after guideline extraction
// (the consolidated system turn counts as one). Otherwise the flat format is
// used.
func (b *Builder) Build(input []message.Message) (*provider.Request, error) {
	if len(input) == 0 {
		return nil, fmt.Errorf("no input messages")
	}
	var guidelines []string
	turns := make([]renderedTurn, 0, len(input))
	for _, msg := range input {
		text := b.renderTurn(msg, &guidelines)
		turns = append(turns, renderedTurn{role: msg.Role, text: text})
	}
	turns = b.consolidateSystem(turns, guidelines)

	req := &provider.Request{Guidelines: strings.Join(guidelines, "\n\n")}
	req.ChatPrompt = make([]message.Message, 0, len(turns))
	for _, turn := range turns {
		req.ChatPrompt = append(req.ChatPrompt, message.Message{Role: turn.role, Content: turn.text})
	}
	if needsRoleMarkers(turns) {
		req.Question = renderWithMarkers(turns)
	} else {
		req.Question = renderFlat(turns)
	}
	return req, nil
}

// renderTurn renders the visible text of one turn, extracting guideline
// files and embedding other file attachments inline.
func (b *Builder) renderTurn(msg message.Message, guidelines *[]string) string {
	if len(msg.Segments) == 0 {
		return msg.Content
	}
	parts := make([]string, 0, len(msg.Segments))
	for _, seg := range msg.Segments {
		switch seg.Type {
		case message.SegmentTypeText:
			if seg.Text != "" {
				parts = append(parts, seg.Text)
			}
		case message.SegmentTypeFile:
			if b.isGuideline(seg.Path) {
				if seg.Content != "" {
					*guidelines = append(*guidelines, seg.Content)
				}
				parts = append(parts, fmt.Sprintf("<Attached: %s>", seg.Path))
				continue
			}
			if seg.Content == "" {
				parts = append(parts, fmt.Sprintf("<Attached: %s>", seg.Path))
				continue
			}
			parts = append(parts, fmt.Sprintf("--- File: %s ---\n%s", seg.Path, seg.Content))
		}
	}
	return strings.Join(parts, "\n")
}

// isGuideline reports whether the file base name matches a guideline
// pattern.
func (b *Builder) isGuideline(filePath string) bool {
	base := filepath.Base(filePath)
	for _, pattern := range b.guidelinePatterns {
		if ok, err := path.Match(pattern, base); err == nil && ok {
			return true
		}
	}
	return false
}

// consolidateSystem merges the leading system turns, the configured default
// system prompt and the extracted guidelines into one leading system turn.
// A system turn appearing after the conversation has started is re-tagged as
// an assistant turn prefixed with "[System]:", preserving its chronological
// position without letting the model treat it as a fresh top-level
// instruction.
func (b *Builder) consolidateSystem(turns []renderedTurn, guidelines []string) []renderedTurn {
	var systemParts []string
	if b.defaultSystemPrompt != "" {
		systemParts = append(systemParts, b.defaultSystemPrompt)
	}
	systemParts = append(systemParts, guidelines...)
	rest := turns
	for len(rest) > 0 && rest[0].role == message.RoleSystem {
		if rest[0].text != "" {
			systemParts = append(systemParts, rest[0].text)
		}
		rest = rest[1:]
	}
	out := make([]renderedTurn, 0, len(rest)+1)
	if len(systemParts) > 0 {
		out = append(out, renderedTurn{
			role: message.RoleSystem,
			text: strings.Join(systemParts, "\n\n"),
		})
	}
	for _, turn := range rest {
		if turn.role == message.RoleSystem {
			out = append(out, renderedTurn{
				role: message.RoleAssistant,
				text: "[System]: " + turn.text,
			})
			continue
		}
		out = append(out, turn)
	}
	return out
}

// needsRoleMarkers decides between the multi-turn and flat formats.
func needsRoleMarkers(turns []renderedTurn) bool {
	visible := 0
	for _, turn := range turns {
		if turn.role == message.RoleAssistant || turn.role == message.RoleTool {
			return true
		}
		if turn.text != "" {
			visible++
		}
	}
	return visible > 1
}

// roleLabels maps roles to their marker labels.
var roleLabels = map[message.Role]string{
	message.RoleSystem:    "System",
	message.RoleUser:      "User",
	message.RoleAssistant: "Assistant",
	message.RoleTool:      "Tool",
}

// renderWithMarkers renders every turn with an @[Role]: prefix, turns
// separated by a blank line, original order preserved.
func renderWithMarkers(turns []renderedTurn) string {
	parts := make([]string, 0, len(turns))
	for _, turn := range turns {
		if turn.text == "" {
			continue
		}
		label, ok := roleLabels[turn.role]
		if !ok {
			label = "User"
		}
		parts = append(parts, fmt.Sprintf("@[%s]: %s", label, turn.text))
	}
	return strings.Join(parts, "\n\n")
}

// renderFlat renders bare text with no markers.
func renderFlat(turns []renderedTurn) string {
	parts := make([]string, 0, len(turns))
	for _, turn := range turns {
		if turn.text != "" {
			parts = append(parts, turn.text)
		}
	}
	return strings.Join(parts, "\n\n")
}
