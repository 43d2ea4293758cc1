package mappers

import (
	"encoding/json"

	"github.com/alexschlessinger/agentpipe/chunks"
	"github.com/alexschlessinger/agentpipe/tools"
	"go.uber.org/zap"
)

// ClaudeMapper translates Claude Code stream-json output. The backend has
// two shapes for the same content: coarse batch events (one "assistant" or
// "user" record per turn with nested content blocks) and, when partial
// streaming is enabled, fine-grained "stream_event" records
// (message_start, content_block_start/delta/stop, message_delta) followed
// by the same batch "assistant" record.
//
// The batch re-emission is the protocol's duplicate hazard: once any
// fine-grained content event was seen for the current turn, the coarse
// assistant content is skipped entirely, or every sentence and tool call
// would appear twice.
type ClaudeMapper struct {
	turnState
	tracker *tools.CallTracker

	// streamedTurn flags that fine-grained events carried this turn's
	// content; the next batch assistant record consumes and resets it
	streamedTurn bool

	// open content block bookkeeping for fine-grained events, by index
	blockTypes map[int]string
	blockCalls map[int]string
}

// NewClaudeMapper creates a mapper for one execution
func NewClaudeMapper() *ClaudeMapper {
	return &ClaudeMapper{
		tracker:    tools.NewCallTracker(),
		blockTypes: make(map[int]string),
		blockCalls: make(map[int]string),
	}
}

type claudeEnvelope struct {
	Type      string          `json:"type"`
	Subtype   string          `json:"subtype"`
	SessionID string          `json:"session_id"`
	Message   json.RawMessage `json:"message"`
	Event     json.RawMessage `json:"event"`

	// result fields
	IsError bool            `json:"is_error"`
	Result  string          `json:"result"`
	Usage   json.RawMessage `json:"usage"`
}

type claudeMessage struct {
	ID      string               `json:"id"`
	Role    string               `json:"role"`
	Content []claudeContentBlock `json:"content"`
	Usage   *claudeUsage         `json:"usage"`
}

type claudeContentBlock struct {
	Type      string          `json:"type"`
	Text      string          `json:"text"`
	Thinking  string          `json:"thinking"`
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Input     json.RawMessage `json:"input"`
	ToolUseID string          `json:"tool_use_id"`
	Content   json.RawMessage `json:"content"`
	IsError   bool            `json:"is_error"`
}

type claudeUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// Map translates one stream-json line
func (m *ClaudeMapper) Map(line string) []*chunks.Chunk {
	var env claudeEnvelope
	if err := json.Unmarshal([]byte(line), &env); err != nil {
		zap.S().Debugw("claude_line_skip", "error", err)
		return nil
	}
	if env.SessionID != "" {
		m.sessionID = env.SessionID
	}

	switch env.Type {
	case "system":
		// init carries the backend session id used for resumption
		return m.begin("")

	case "stream_event":
		return m.mapStreamEvent(env.Event)

	case "assistant":
		return m.mapAssistant(env.Message)

	case "user":
		return m.mapUser(env.Message)

	case "result":
		return m.mapResult(&env)
	}

	zap.S().Debugw("claude_event_skip", "type", env.Type)
	return nil
}

// mapAssistant handles the coarse batch shape: one event carrying the
// turn's complete content blocks
func (m *ClaudeMapper) mapAssistant(raw json.RawMessage) []*chunks.Chunk {
	var msg claudeMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return nil
	}

	out := m.begin(msg.ID)
	if msg.Usage != nil {
		m.setUsage(msg.Usage.InputTokens, msg.Usage.OutputTokens)
	}

	if m.streamedTurn {
		// Content already went out via fine-grained events
		m.streamedTurn = false
		return out
	}

	for _, block := range msg.Content {
		switch block.Type {
		case "text":
			if block.Text != "" {
				out = append(out, chunks.TextDelta(block.Text))
			}
		case "thinking":
			if block.Thinking != "" {
				out = append(out, chunks.ReasoningDelta(block.Thinking))
			}
		case "tool_use":
			input := string(block.Input)
			m.tracker.Start(block.ID, block.Name)
			m.tracker.AppendInput(block.ID, input)
			out = append(out, chunks.ToolStart(block.ID, block.Name))
			if input != "" && input != "null" {
				out = append(out, chunks.ToolInputDelta(block.ID, input))
			}
		}
	}
	return out
}

// mapUser handles tool results, which only appear in batch form
func (m *ClaudeMapper) mapUser(raw json.RawMessage) []*chunks.Chunk {
	var msg claudeMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return nil
	}

	var out []*chunks.Chunk
	for _, block := range msg.Content {
		if block.Type != "tool_result" {
			continue
		}
		output := claudeResultText(block.Content)
		out = append(out, m.begin("")...)
		out = append(out, chunks.ToolResult(block.ToolUseID, output, block.IsError))

		if rec, ok := m.tracker.Resolve(block.ToolUseID); ok {
			out = append(out, tools.DeriveData(rec, output, block.IsError)...)
		}
	}
	return out
}

// mapStreamEvent handles the fine-grained shape
func (m *ClaudeMapper) mapStreamEvent(raw json.RawMessage) []*chunks.Chunk {
	var event struct {
		Type  string `json:"type"`
		Index int    `json:"index"`

		Message *struct {
			ID    string       `json:"id"`
			Usage *claudeUsage `json:"usage"`
		} `json:"message"`

		ContentBlock *struct {
			Type string `json:"type"`
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"content_block"`

		Delta *struct {
			Type        string `json:"type"`
			Text        string `json:"text"`
			Thinking    string `json:"thinking"`
			PartialJSON string `json:"partial_json"`
			StopReason  string `json:"stop_reason"`
		} `json:"delta"`

		Usage *claudeUsage `json:"usage"`
	}
	if err := json.Unmarshal(raw, &event); err != nil {
		return nil
	}

	switch event.Type {
	case "message_start":
		id := ""
		if event.Message != nil {
			id = event.Message.ID
			if event.Message.Usage != nil {
				m.setUsage(event.Message.Usage.InputTokens, 0)
			}
		}
		return m.begin(id)

	case "content_block_start":
		if event.ContentBlock == nil {
			return nil
		}
		m.blockTypes[event.Index] = event.ContentBlock.Type
		if event.ContentBlock.Type == "tool_use" {
			m.streamedTurn = true
			m.blockCalls[event.Index] = event.ContentBlock.ID
			m.tracker.Start(event.ContentBlock.ID, event.ContentBlock.Name)
			out := m.begin("")
			return append(out, chunks.ToolStart(event.ContentBlock.ID, event.ContentBlock.Name))
		}
		return m.begin("")

	case "content_block_delta":
		if event.Delta == nil {
			return nil
		}
		out := m.begin("")
		switch {
		case event.Delta.Text != "":
			m.streamedTurn = true
			out = append(out, chunks.TextDelta(event.Delta.Text))
		case event.Delta.Thinking != "":
			m.streamedTurn = true
			out = append(out, chunks.ReasoningDelta(event.Delta.Thinking))
		case event.Delta.PartialJSON != "":
			if id, ok := m.blockCalls[event.Index]; ok {
				m.tracker.AppendInput(id, event.Delta.PartialJSON)
				out = append(out, chunks.ToolInputDelta(id, event.Delta.PartialJSON))
			}
		}
		return out

	case "content_block_stop":
		delete(m.blockTypes, event.Index)
		delete(m.blockCalls, event.Index)

	case "message_delta":
		if event.Usage != nil {
			m.setUsage(0, event.Usage.OutputTokens)
		}
	}
	return nil
}

// mapResult handles the terminal record carrying usage and failure state
func (m *ClaudeMapper) mapResult(env *claudeEnvelope) []*chunks.Chunk {
	m.sawTerminal = true

	if env.Usage != nil {
		var usage claudeUsage
		if err := json.Unmarshal(env.Usage, &usage); err == nil {
			m.setUsage(usage.InputTokens, usage.OutputTokens)
		}
	}

	if env.IsError {
		m.errored = true
		message := env.Result
		if message == "" {
			message = env.Subtype
		}
		out := m.begin("")
		return append(out, chunks.Error(message, chunks.ErrCodeExecution))
	}
	return m.begin("")
}

// Finish emits terminal synthesis and the closing message-end
func (m *ClaudeMapper) Finish(exitErr error, canceled bool) []*chunks.Chunk {
	return m.finish(exitErr, canceled)
}

// claudeResultText flattens a tool_result content field, which is either a
// plain string or a list of typed blocks
func claudeResultText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return text
	}

	var parsed []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return string(raw)
	}
	var result string
	for _, block := range parsed {
		if block.Type == "text" {
			result += block.Text
		}
	}
	return result
}
