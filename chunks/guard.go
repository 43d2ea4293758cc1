package chunks

import "fmt"

// StreamGuard checks the ordering invariants of one chunk stream:
// exactly one message-start first, exactly one message-end last, at most one
// error, tool-result only for a previously started call, at most one result
// per call. Violations return errors; the guard never panics.
type StreamGuard struct {
	started   bool
	ended     bool
	errored   bool
	openCalls map[string]bool
	resolved  map[string]bool
}

// NewStreamGuard creates a guard for a fresh stream
func NewStreamGuard() *StreamGuard {
	return &StreamGuard{
		openCalls: make(map[string]bool),
		resolved:  make(map[string]bool),
	}
}

// Observe validates the next chunk in stream order
func (g *StreamGuard) Observe(c *Chunk) error {
	if g.ended {
		return fmt.Errorf("chunk %q after message-end", c.Type)
	}

	switch c.Type {
	case TypeMessageStart:
		if g.started {
			return fmt.Errorf("duplicate message-start")
		}
		g.started = true
		return nil

	case TypeMessageEnd:
		if !g.started {
			return fmt.Errorf("message-end without message-start")
		}
		g.ended = true
		return nil

	case TypeError:
		if g.errored {
			return fmt.Errorf("duplicate error chunk")
		}
		g.errored = true

	case TypeToolStart:
		if c.ToolCallID == "" {
			return fmt.Errorf("tool-start without toolCallId")
		}
		if g.openCalls[c.ToolCallID] || g.resolved[c.ToolCallID] {
			return fmt.Errorf("duplicate tool-start for call %s", c.ToolCallID)
		}
		g.openCalls[c.ToolCallID] = true

	case TypeToolInputDelta:
		if !g.openCalls[c.ToolCallID] {
			return fmt.Errorf("tool-input-delta for unknown call %s", c.ToolCallID)
		}

	case TypeToolResult:
		if !g.openCalls[c.ToolCallID] {
			return fmt.Errorf("tool-result for unknown call %s", c.ToolCallID)
		}
		delete(g.openCalls, c.ToolCallID)
		g.resolved[c.ToolCallID] = true
	}

	if !g.started {
		return fmt.Errorf("chunk %q before message-start", c.Type)
	}
	return nil
}

// Complete reports whether the guard saw a fully bracketed stream
func (g *StreamGuard) Complete() bool {
	return g.started && g.ended
}
