package messages

import (
	"encoding/json"
	"fmt"

	"github.com/alexschlessinger/agentpipe/chunks"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

// Accumulator folds an ordered chunk stream into one message. Process
// returns the same message object every call, mutated incrementally, so
// callers observe monotonically growing state. It never returns an error:
// out-of-order chunks and unknown tool-call ids are ignored, because a
// best-effort reconstruction beats crashing a live stream.
//
// One accumulator per execution. State is single-threaded; the chunk
// stream is consumed in backend emission order.
type Accumulator struct {
	msg *AccumulatedMessage

	// Indexes of the currently open prose parts, -1 when closed. Text and
	// reasoning stream in parallel; a tool-start or data part closes both.
	openText      int
	openReasoning int
}

// NewAccumulator creates an accumulator with an empty assistant message
func NewAccumulator() *Accumulator {
	return &Accumulator{
		msg: &AccumulatedMessage{
			Role:  chunks.RoleAssistant,
			Parts: make([]Part, 0),
		},
		openText:      -1,
		openReasoning: -1,
	}
}

// Message returns the message being accumulated
func (a *Accumulator) Message() *AccumulatedMessage {
	return a.msg
}

// Process folds the next chunk into the message and returns it
func (a *Accumulator) Process(c *chunks.Chunk) *AccumulatedMessage {
	if c == nil {
		return a.msg
	}

	switch c.Type {
	case chunks.TypeMessageStart:
		a.msg.ID = c.ID
		if a.msg.ID == "" {
			a.msg.ID = ulid.Make().String()
		}
		if c.Role != "" {
			a.msg.Role = c.Role
		}
		a.msg.Metadata.SessionID = c.SessionID

	case chunks.TypeTextDelta:
		a.appendProse(PartText, c.Text)

	case chunks.TypeReasoningDelta:
		a.appendProse(PartReasoning, c.Text)

	case chunks.TypeToolStart:
		a.closeProse()
		a.msg.Parts = append(a.msg.Parts, Part{
			Type: PartToolInvocation,
			ToolInvocation: &ToolInvocation{
				ToolCallID: c.ToolCallID,
				ToolName:   c.ToolName,
				State:      ToolStateInputStreaming,
			},
		})

	case chunks.TypeToolInputDelta:
		if inv := a.findInvocation(c.ToolCallID); inv != nil {
			inv.rawInput += c.Input
		} else {
			zap.S().Debugw("accumulator_input_for_unknown_call", "tool_call_id", c.ToolCallID)
		}

	case chunks.TypeToolResult:
		a.resolveInvocation(c)

	case chunks.TypeData:
		// A discrete artifact is an ordering boundary like a tool call;
		// later prose starts a new part after it
		a.closeProse()
		a.msg.Parts = append(a.msg.Parts, Part{
			Type: PartStructuredData,
			StructuredData: &StructuredData{
				DataType: c.DataType,
				Payload:  c.Payload,
			},
		})

	case chunks.TypeMessageEnd:
		// The only chunk that mutates metadata rather than parts
		if c.Usage != nil {
			usage := *c.Usage
			a.msg.Metadata.Usage = &usage
		}

	case chunks.TypeError:
		// Turn failures are surfaced in the message, never dropped
		a.closeProse()
		a.msg.Parts = append(a.msg.Parts, Part{
			Type: PartText,
			Text: fmt.Sprintf("Error: %s", c.Message),
		})
	}

	return a.msg
}

// appendProse extends the open part of the given kind, opening a new one
// lazily if a tool boundary closed it
func (a *Accumulator) appendProse(kind PartType, text string) {
	if text == "" {
		return
	}

	open := &a.openText
	if kind == PartReasoning {
		open = &a.openReasoning
	}

	if *open >= 0 {
		a.msg.Parts[*open].Text += text
		return
	}
	a.msg.Parts = append(a.msg.Parts, Part{Type: kind, Text: text})
	*open = len(a.msg.Parts) - 1
}

// closeProse ends the open text and reasoning parts; later deltas start new parts
func (a *Accumulator) closeProse() {
	a.openText = -1
	a.openReasoning = -1
}

// findInvocation locates the tool-invocation part for id, matched by id
// rather than position
func (a *Accumulator) findInvocation(id string) *ToolInvocation {
	if id == "" {
		return nil
	}
	for i := range a.msg.Parts {
		if inv := a.msg.Parts[i].ToolInvocation; inv != nil && inv.ToolCallID == id {
			return inv
		}
	}
	return nil
}

// resolveInvocation transitions a call to its terminal state and decodes
// the accumulated raw input, falling back to the raw string when the
// arguments never became valid JSON
func (a *Accumulator) resolveInvocation(c *chunks.Chunk) {
	inv := a.findInvocation(c.ToolCallID)
	if inv == nil {
		zap.S().Debugw("accumulator_result_for_unknown_call", "tool_call_id", c.ToolCallID)
		return
	}

	if inv.rawInput != "" {
		var decoded any
		if err := json.Unmarshal([]byte(inv.rawInput), &decoded); err == nil {
			inv.Input = decoded
		} else {
			inv.Input = inv.rawInput
		}
	}

	inv.Output = c.Output
	if c.IsError {
		inv.State = ToolStateOutputError
	} else {
		inv.State = ToolStateOutputAvailable
	}
}

// Accumulate folds a complete chunk sequence through a fresh accumulator.
// Replaying the same sequence always yields a structurally identical message.
func Accumulate(stream []*chunks.Chunk) *AccumulatedMessage {
	acc := NewAccumulator()
	for _, c := range stream {
		acc.Process(c)
	}
	return acc.Message()
}
