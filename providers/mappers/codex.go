package mappers

import (
	"encoding/json"

	"github.com/alexschlessinger/agentpipe/chunks"
	"github.com/alexschlessinger/agentpipe/tools"
	"go.uber.org/zap"
)

// CodexMapper translates Codex exec JSON output. The backend emits
// lifecycle events where the same logical unit appears several times:
// item.started, zero or more item.updated snapshots carrying cumulative
// text, and item.completed restating the whole item. Items are matched by
// id; a command execution becomes a tool invocation bracketed by start and
// completion, prose items stream the unseen suffix of each snapshot so
// nothing is lost when the process dies before completing the item.
type CodexMapper struct {
	turnState
	tracker *tools.CallTracker

	// item id -> item type, for matching completions to their starts
	items map[string]string

	// item id -> emitted prefix length, for cumulative prose snapshots
	emitted map[string]int
}

// NewCodexMapper creates a mapper for one execution
func NewCodexMapper() *CodexMapper {
	return &CodexMapper{
		tracker: tools.NewCallTracker(),
		items:   make(map[string]string),
		emitted: make(map[string]int),
	}
}

type codexEvent struct {
	Type     string     `json:"type"`
	ThreadID string     `json:"thread_id"`
	Item     *codexItem `json:"item"`
	Usage    *struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
	Message string `json:"message"`
}

type codexItem struct {
	ID               string          `json:"id"`
	ItemType         string          `json:"item_type"`
	Text             string          `json:"text"`
	Command          string          `json:"command"`
	AggregatedOutput string          `json:"aggregated_output"`
	ExitCode         *int            `json:"exit_code"`
	Status           string          `json:"status"`
	Changes          json.RawMessage `json:"changes"`
}

// Map translates one lifecycle event line
func (m *CodexMapper) Map(line string) []*chunks.Chunk {
	var event codexEvent
	if err := json.Unmarshal([]byte(line), &event); err != nil {
		zap.S().Debugw("codex_line_skip", "error", err)
		return nil
	}
	if event.ThreadID != "" {
		m.sessionID = event.ThreadID
	}

	switch event.Type {
	case "thread.started", "turn.started":
		return m.begin("")

	case "item.started":
		return m.mapItemStarted(event.Item)

	case "item.completed":
		return m.mapItemCompleted(event.Item)

	case "item.updated":
		return m.mapItemUpdated(event.Item)

	case "turn.completed":
		m.sawTerminal = true
		if event.Usage != nil {
			m.setUsage(event.Usage.InputTokens, event.Usage.OutputTokens)
		}
		return m.begin("")

	case "turn.failed":
		m.sawTerminal = true
		m.errored = true
		message := "turn failed"
		if event.Error != nil && event.Error.Message != "" {
			message = event.Error.Message
		}
		out := m.begin("")
		return append(out, chunks.Error(message, chunks.ErrCodeExecution))

	case "error":
		m.errored = true
		out := m.begin("")
		return append(out, chunks.Error(event.Message, chunks.ErrCodeExecution))

	default:
		zap.S().Debugw("codex_event_skip", "type", event.Type)
	}
	return nil
}

// mapItemStarted opens tool invocations for unit items; prose items wait
// for their completion
func (m *CodexMapper) mapItemStarted(item *codexItem) []*chunks.Chunk {
	if item == nil {
		return nil
	}
	m.items[item.ID] = item.ItemType
	out := m.begin("")

	switch item.ItemType {
	case "command_execution":
		m.tracker.Start(item.ID, "local_shell")
		input := commandInput(item.Command)
		m.tracker.AppendInput(item.ID, input)
		out = append(out, chunks.ToolStart(item.ID, "local_shell"))
		out = append(out, chunks.ToolInputDelta(item.ID, input))

	case "file_change":
		m.tracker.Start(item.ID, "file_change")
		out = append(out, chunks.ToolStart(item.ID, "file_change"))

	case "mcp_tool_call", "web_search":
		m.tracker.Start(item.ID, item.ItemType)
		out = append(out, chunks.ToolStart(item.ID, item.ItemType))
	}
	return out
}

// mapItemUpdated streams cumulative prose snapshots; tool items wait for
// their completion
func (m *CodexMapper) mapItemUpdated(item *codexItem) []*chunks.Chunk {
	if item == nil {
		return nil
	}
	out := m.begin("")

	switch item.ItemType {
	case "agent_message":
		if delta := m.cumulativeDelta(item.ID, item.Text); delta != "" {
			out = append(out, chunks.TextDelta(delta))
		}
	case "reasoning":
		if delta := m.cumulativeDelta(item.ID, item.Text); delta != "" {
			out = append(out, chunks.ReasoningDelta(delta))
		}
	}
	return out
}

// mapItemCompleted resolves unit items and emits prose item content. Prose
// completions carry the full item text, so only the suffix the updates
// never streamed is emitted.
func (m *CodexMapper) mapItemCompleted(item *codexItem) []*chunks.Chunk {
	if item == nil {
		return nil
	}
	out := m.begin("")

	switch item.ItemType {
	case "agent_message":
		if delta := m.cumulativeDelta(item.ID, item.Text); delta != "" {
			out = append(out, chunks.TextDelta(delta))
		}

	case "reasoning":
		if delta := m.cumulativeDelta(item.ID, item.Text); delta != "" {
			out = append(out, chunks.ReasoningDelta(delta))
		}

	case "command_execution":
		isError := item.Status == "failed" || (item.ExitCode != nil && *item.ExitCode != 0)
		output := item.AggregatedOutput
		if item.ExitCode != nil {
			output = commandOutput(item.AggregatedOutput, *item.ExitCode)
		}
		out = append(out, chunks.ToolResult(item.ID, output, isError))
		if rec, ok := m.tracker.Resolve(item.ID); ok {
			out = append(out, tools.DeriveData(rec, output, isError)...)
		}

	case "file_change":
		isError := item.Status == "failed"
		out = append(out, chunks.ToolResult(item.ID, string(item.Changes), isError))
		m.tracker.Resolve(item.ID)
		if !isError {
			out = append(out, fileChangeData(item.Changes)...)
		}

	case "mcp_tool_call", "web_search":
		isError := item.Status == "failed"
		out = append(out, chunks.ToolResult(item.ID, item.Text, isError))
		m.tracker.Resolve(item.ID)
	}

	delete(m.items, item.ID)
	delete(m.emitted, item.ID)
	return out
}

// cumulativeDelta returns the unseen suffix of a cumulative text field
func (m *CodexMapper) cumulativeDelta(itemID, text string) string {
	seen := m.emitted[itemID]
	if len(text) <= seen {
		return ""
	}
	m.emitted[itemID] = len(text)
	return text[seen:]
}

// Finish emits terminal synthesis and the closing message-end
func (m *CodexMapper) Finish(exitErr error, canceled bool) []*chunks.Chunk {
	return m.finish(exitErr, canceled)
}

func commandInput(command string) string {
	data, err := json.Marshal(map[string]string{"command": command})
	if err != nil {
		return "{}"
	}
	return string(data)
}

func commandOutput(aggregated string, exitCode int) string {
	data, err := json.Marshal(map[string]any{
		"stdout":    aggregated,
		"exit_code": exitCode,
	})
	if err != nil {
		return aggregated
	}
	return string(data)
}

// fileChangeData emits one file-written event per changed path
func fileChangeData(raw json.RawMessage) []*chunks.Chunk {
	var changes []struct {
		Path string `json:"path"`
		Kind string `json:"kind"`
	}
	if err := json.Unmarshal(raw, &changes); err != nil {
		return nil
	}

	var out []*chunks.Chunk
	for _, change := range changes {
		if change.Path == "" {
			continue
		}
		out = append(out, chunks.Data(chunks.DataFileWritten, map[string]any{
			"path": change.Path,
			"kind": change.Kind,
			"tool": "file_change",
		}))
	}
	return out
}
