package mappers

import (
	"encoding/json"
	"strings"

	"github.com/alexschlessinger/agentpipe/chunks"
	"github.com/alexschlessinger/agentpipe/tools"
	"go.uber.org/zap"
)

// OpencodeMapper translates opencode server events. The backend re-sends
// each message part with its full accumulated content on every update, so
// the mapper diffs against the last seen length per part id and emits only
// the suffix. Unchanged updates produce nothing.
type OpencodeMapper struct {
	turnState
	tracker *tools.CallTracker

	// part id -> emitted prefix length, for cumulative text/reasoning parts
	emitted map[string]int
	// tool call ids already opened / fed input / resolved, keyed by callID
	openTools     map[string]bool
	inputEmitted  map[string]bool
	resolvedTools map[string]bool
}

// NewOpencodeMapper creates a mapper for one execution
func NewOpencodeMapper() *OpencodeMapper {
	return &OpencodeMapper{
		tracker:       tools.NewCallTracker(),
		emitted:       make(map[string]int),
		openTools:     make(map[string]bool),
		inputEmitted:  make(map[string]bool),
		resolvedTools: make(map[string]bool),
	}
}

type opencodeEvent struct {
	Type       string `json:"type"`
	Properties struct {
		Part  *opencodePart `json:"part"`
		Error *struct {
			Name string `json:"name"`
			Data struct {
				Message string `json:"message"`
			} `json:"data"`
		} `json:"error"`
	} `json:"properties"`
}

type opencodePart struct {
	ID        string `json:"id"`
	MessageID string `json:"messageID"`
	SessionID string `json:"sessionID"`
	Type      string `json:"type"`
	Text      string `json:"text"`
	Tool      string `json:"tool"`
	CallID    string `json:"callID"`
	State     *struct {
		Status string         `json:"status"`
		Input  map[string]any `json:"input"`
		Output string         `json:"output"`
	} `json:"state"`
	Tokens *struct {
		Input  int `json:"input"`
		Output int `json:"output"`
	} `json:"tokens"`
}

// Map translates one server event line
func (m *OpencodeMapper) Map(line string) []*chunks.Chunk {
	var event opencodeEvent
	if err := json.Unmarshal([]byte(line), &event); err != nil {
		zap.S().Debugw("opencode_line_skip", "error", err)
		return nil
	}

	switch event.Type {
	case "message.part.updated":
		return m.mapPart(event.Properties.Part)

	case "session.error":
		m.errored = true
		message := "session error"
		if event.Properties.Error != nil && event.Properties.Error.Data.Message != "" {
			message = event.Properties.Error.Data.Message
		}
		code := chunks.ErrCodeExecution
		if event.Properties.Error != nil &&
			strings.Contains(strings.ToLower(event.Properties.Error.Name), "auth") {
			code = chunks.ErrCodeAuth
		}
		out := m.begin("")
		return append(out, chunks.Error(message, code))

	case "session.idle":
		m.sawTerminal = true
		return m.begin("")

	default:
		zap.S().Debugw("opencode_event_skip", "type", event.Type)
	}
	return nil
}

func (m *OpencodeMapper) mapPart(part *opencodePart) []*chunks.Chunk {
	if part == nil {
		return nil
	}
	if part.SessionID != "" {
		m.sessionID = part.SessionID
	}
	out := m.begin(part.MessageID)

	switch part.Type {
	case "text":
		if delta := m.cumulativeDelta(part.ID, part.Text); delta != "" {
			out = append(out, chunks.TextDelta(delta))
		}

	case "reasoning":
		if delta := m.cumulativeDelta(part.ID, part.Text); delta != "" {
			out = append(out, chunks.ReasoningDelta(delta))
		}

	case "tool":
		out = append(out, m.mapToolPart(part)...)

	case "step-finish":
		if part.Tokens != nil {
			m.setUsage(part.Tokens.Input, part.Tokens.Output)
		}
	}
	return out
}

// mapToolPart walks a tool part through its status transitions, emitting
// each unified chunk exactly once per call id
func (m *OpencodeMapper) mapToolPart(part *opencodePart) []*chunks.Chunk {
	id := part.CallID
	if id == "" || part.State == nil {
		return nil
	}

	var out []*chunks.Chunk
	if !m.openTools[id] {
		m.openTools[id] = true
		m.tracker.Start(id, part.Tool)
		out = append(out, chunks.ToolStart(id, part.Tool))
	}

	// The server sends complete input once, not fragments
	if len(part.State.Input) > 0 && !m.inputEmitted[id] {
		if input, err := json.Marshal(part.State.Input); err == nil {
			m.inputEmitted[id] = true
			m.tracker.AppendInput(id, string(input))
			out = append(out, chunks.ToolInputDelta(id, string(input)))
		}
	}

	status := part.State.Status
	if (status == "completed" || status == "error") && !m.resolvedTools[id] {
		m.resolvedTools[id] = true
		isError := status == "error"
		out = append(out, chunks.ToolResult(id, part.State.Output, isError))
		if rec, ok := m.tracker.Resolve(id); ok {
			out = append(out, tools.DeriveData(rec, part.State.Output, isError)...)
		}
	}
	return out
}

// cumulativeDelta returns the unseen suffix of a cumulative text field
func (m *OpencodeMapper) cumulativeDelta(partID, text string) string {
	seen := m.emitted[partID]
	if len(text) <= seen {
		return ""
	}
	m.emitted[partID] = len(text)
	return text[seen:]
}

// Finish emits terminal synthesis and the closing message-end
func (m *OpencodeMapper) Finish(exitErr error, canceled bool) []*chunks.Chunk {
	return m.finish(exitErr, canceled)
}
