package messages

import (
	"github.com/alexschlessinger/agentpipe/chunks"
)

// PartType discriminates the part union inside an accumulated message
type PartType string

const (
	// PartText is assistant prose
	PartText PartType = "text"
	// PartReasoning is thinking/reasoning prose
	PartReasoning PartType = "reasoning"
	// PartToolInvocation is one tool call with its lifecycle state
	PartToolInvocation PartType = "tool-invocation"
	// PartStructuredData is an out-of-band structured event
	PartStructuredData PartType = "structured-data"
)

// ToolState is the lifecycle state of a tool-invocation part
type ToolState string

const (
	// ToolStateInputStreaming means the call started; arguments may still arrive
	ToolStateInputStreaming ToolState = "input-streaming"
	// ToolStateOutputAvailable means the call resolved successfully
	ToolStateOutputAvailable ToolState = "output-available"
	// ToolStateOutputError means the call resolved with an error
	ToolStateOutputError ToolState = "output-error"
)

// ToolInvocation holds one tool call inside a message
type ToolInvocation struct {
	ToolCallID string    `json:"toolCallId"`
	ToolName   string    `json:"toolName"`
	State      ToolState `json:"state"`
	// Input is the decoded argument object once decoding succeeds, or the
	// raw argument string when the accumulated input is not valid JSON
	Input  any    `json:"input,omitempty"`
	Output string `json:"output,omitempty"`

	// rawInput accumulates argument fragments during streaming. Internal
	// bookkeeping only; unexported so it never reaches the persisted shape.
	rawInput string
}

// StructuredData holds one out-of-band structured event
type StructuredData struct {
	DataType string         `json:"dataType"`
	Payload  map[string]any `json:"payload,omitempty"`
}

// Part is one ordered component of an accumulated message
type Part struct {
	Type           PartType        `json:"type"`
	Text           string          `json:"text,omitempty"`
	ToolInvocation *ToolInvocation `json:"toolInvocation,omitempty"`
	StructuredData *StructuredData `json:"structuredData,omitempty"`
}

// Metadata carries terminal message metadata
type Metadata struct {
	Usage     *chunks.Usage `json:"usage,omitempty"`
	SessionID string        `json:"sessionId,omitempty"`
}

// AccumulatedMessage is one structured conversation message built by folding
// an ordered chunk stream. Parts are append-only during accumulation.
type AccumulatedMessage struct {
	ID       string   `json:"id"`
	Role     string   `json:"role"`
	Parts    []Part   `json:"parts"`
	Metadata Metadata `json:"metadata"`
}

// Text concatenates all text parts
func (m *AccumulatedMessage) Text() string {
	var result string
	for _, part := range m.Parts {
		if part.Type == PartText {
			result += part.Text
		}
	}
	return result
}

// Reasoning concatenates all reasoning parts
func (m *AccumulatedMessage) Reasoning() string {
	var result string
	for _, part := range m.Parts {
		if part.Type == PartReasoning {
			result += part.Text
		}
	}
	return result
}

// ToolInvocations returns all tool-invocation parts in order
func (m *AccumulatedMessage) ToolInvocations() []*ToolInvocation {
	var result []*ToolInvocation
	for i := range m.Parts {
		if m.Parts[i].Type == PartToolInvocation {
			result = append(result, m.Parts[i].ToolInvocation)
		}
	}
	return result
}

// Stripped returns a deep copy fit for persistence: id, role, parts, and
// metadata only, with internal accumulation bookkeeping discarded.
func (m *AccumulatedMessage) Stripped() *AccumulatedMessage {
	out := &AccumulatedMessage{
		ID:       m.ID,
		Role:     m.Role,
		Parts:    make([]Part, len(m.Parts)),
		Metadata: m.Metadata,
	}
	if m.Metadata.Usage != nil {
		usage := *m.Metadata.Usage
		out.Metadata.Usage = &usage
	}
	for i, part := range m.Parts {
		copied := part
		if part.ToolInvocation != nil {
			inv := *part.ToolInvocation
			inv.rawInput = ""
			copied.ToolInvocation = &inv
		}
		if part.StructuredData != nil {
			data := *part.StructuredData
			copied.StructuredData = &data
		}
		out.Parts[i] = copied
	}
	return out
}
