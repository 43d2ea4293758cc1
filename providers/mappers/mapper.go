// Package mappers translates backend-private event vocabularies into the
// unified chunk protocol. One mapper per backend; each owns its backend's
// quirks (duplicate suppression, streaming-vs-batch detection, identifier
// translation) behind the same narrow contract.
package mappers

import (
	"fmt"

	"github.com/alexschlessinger/agentpipe/chunks"
	"github.com/oklog/ulid/v2"
)

// EventMapper converts backend event records into unified chunks.
// Map is called once per complete line in backend emission order and must
// not reorder events, only translate them. Mappers never return errors:
// malformed lines are dropped and translation failures degrade to error
// chunks, because one bad event must not lose the rest of the turn.
//
// A mapper instance is scoped to a single execution and carries its own
// mutable state (suppression flags, tool-call tracker). Construct fresh
// per turn; never reuse across executions.
type EventMapper interface {
	// Map translates one raw event line into zero or more chunks
	Map(line string) []*chunks.Chunk

	// Finish closes the stream after the backend is done. It synthesizes
	// the terminal chunks: an error chunk for a non-zero exit with no
	// terminal backend event, nothing extra for a clean cancellation, and
	// always a final message-end.
	Finish(exitErr error, canceled bool) []*chunks.Chunk
}

// turnState is the bookkeeping shared by every mapper: message bracketing,
// session identity, accumulated usage, and terminal-event detection.
type turnState struct {
	started     bool
	sessionID   string
	usage       *chunks.Usage
	sawTerminal bool
	errored     bool
}

// begin emits the message-start chunk exactly once. Mappers call it from
// every event path so whichever record arrives first opens the message.
func (s *turnState) begin(id string) []*chunks.Chunk {
	if s.started {
		return nil
	}
	s.started = true
	if id == "" {
		id = ulid.Make().String()
	}
	return []*chunks.Chunk{chunks.MessageStart(id, s.sessionID)}
}

// setUsage records terminal token accounting for the message-end chunk
func (s *turnState) setUsage(input, output int) {
	if s.usage == nil {
		s.usage = &chunks.Usage{}
	}
	if input > 0 {
		s.usage.InputTokens = input
	}
	if output > 0 {
		s.usage.OutputTokens = output
	}
}

// finish implements the shared Finish contract described on EventMapper
func (s *turnState) finish(exitErr error, canceled bool) []*chunks.Chunk {
	var out []*chunks.Chunk
	out = append(out, s.begin("")...)

	// An abort after partial output is a normal outcome, not a failure
	if !canceled && exitErr != nil && !s.sawTerminal && !s.errored {
		s.errored = true
		out = append(out, chunks.Error(
			fmt.Sprintf("backend exited abnormally: %v", exitErr),
			chunks.ErrCodeProcessExit,
		))
	}

	return append(out, chunks.MessageEnd(s.usage))
}
