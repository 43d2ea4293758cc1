package transport

import (
	"context"

	"github.com/alexschlessinger/agentpipe/chunks"
	"go.uber.org/zap"
)

// Adapter converts one execution's chunk stream into bracketed UI frames.
// A start frame goes out before the first prose delta of a kind since the
// last tool boundary; the matching end frame goes out when a tool-start
// forces closure or the stream ends. One adapter per execution.
type Adapter struct {
	textOpen      bool
	reasoningOpen bool
	finished      bool
}

// NewAdapter creates an adapter for a fresh stream
func NewAdapter() *Adapter {
	return &Adapter{}
}

// Process translates the next chunk into zero or more frames
func (a *Adapter) Process(c *chunks.Chunk) []*Frame {
	if c == nil || a.finished {
		return nil
	}

	switch c.Type {
	case chunks.TypeMessageStart:
		return nil

	case chunks.TypeTextDelta:
		var out []*Frame
		if !a.textOpen {
			a.textOpen = true
			out = append(out, &Frame{Type: FrameTextStart})
		}
		return append(out, &Frame{Type: FrameTextDelta, Text: c.Text})

	case chunks.TypeReasoningDelta:
		var out []*Frame
		if !a.reasoningOpen {
			a.reasoningOpen = true
			out = append(out, &Frame{Type: FrameReasoningStart})
		}
		return append(out, &Frame{Type: FrameReasoningDelta, Text: c.Text})

	case chunks.TypeToolStart:
		out := a.closeProse()
		return append(out, &Frame{
			Type:       FrameToolInputStart,
			ToolCallID: c.ToolCallID,
			ToolName:   c.ToolName,
		})

	case chunks.TypeToolInputDelta:
		return []*Frame{{
			Type:       FrameToolInputDelta,
			ToolCallID: c.ToolCallID,
			Input:      c.Input,
		}}

	case chunks.TypeToolResult:
		frameType := FrameToolOutput
		if c.IsError {
			frameType = FrameToolOutputError
		}
		return []*Frame{{
			Type:       frameType,
			ToolCallID: c.ToolCallID,
			Output:     c.Output,
		}}

	case chunks.TypeData:
		return []*Frame{{
			Type:    DataFrameType(c.DataType),
			Payload: c.Payload,
		}}

	case chunks.TypeError:
		out := a.closeProse()
		return append(out, &Frame{Type: FrameError, Message: c.Message, Code: c.Code})

	case chunks.TypeMessageEnd:
		a.finished = true
		out := a.closeProse()
		return append(out, &Frame{Type: FrameFinish, Usage: c.Usage})
	}

	zap.S().Debugw("adapter_chunk_skip", "type", c.Type)
	return nil
}

// Flush closes any still-open frames; call when the chunk stream ends
// without a message-end (it should not, but the adapter must not leak an
// open bracket either way)
func (a *Adapter) Flush() []*Frame {
	if a.finished {
		return nil
	}
	a.finished = true
	return a.closeProse()
}

func (a *Adapter) closeProse() []*Frame {
	var out []*Frame
	if a.reasoningOpen {
		a.reasoningOpen = false
		out = append(out, &Frame{Type: FrameReasoningEnd})
	}
	if a.textOpen {
		a.textOpen = false
		out = append(out, &Frame{Type: FrameTextEnd})
	}
	return out
}

// StreamFrames pumps a chunk channel through a fresh adapter. A panic in
// the upstream producer surfaces as a single terminal error frame; nothing
// propagates past the adapter boundary. The returned channel closes after
// the last frame.
func StreamFrames(ctx context.Context, in <-chan *chunks.Chunk) <-chan *Frame {
	out := make(chan *Frame, 16)

	go func() {
		defer close(out)
		adapter := NewAdapter()

		defer func() {
			if r := recover(); r != nil {
				zap.S().Debugw("frame_stream_panic", "recovered", r)
				send(ctx, out, &Frame{
					Type:    FrameError,
					Message: "stream failed",
					Code:    chunks.ErrCodeExecution,
				})
			}
		}()

		for c := range in {
			for _, f := range adapter.Process(c) {
				if !send(ctx, out, f) {
					return
				}
			}
		}
		for _, f := range adapter.Flush() {
			if !send(ctx, out, f) {
				return
			}
		}
	}()

	return out
}

func send(ctx context.Context, out chan<- *Frame, f *Frame) bool {
	select {
	case <-ctx.Done():
		return false
	case out <- f:
		return true
	}
}
