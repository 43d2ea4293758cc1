package chunks

// ChunkType discriminates the unified chunk union
type ChunkType string

const (
	// TypeMessageStart opens an execution; exactly one, always first
	TypeMessageStart ChunkType = "message-start"
	// TypeTextDelta carries incremental assistant text
	TypeTextDelta ChunkType = "text-delta"
	// TypeReasoningDelta carries incremental thinking text
	TypeReasoningDelta ChunkType = "reasoning-delta"
	// TypeToolStart marks the beginning of a tool invocation
	TypeToolStart ChunkType = "tool-start"
	// TypeToolInputDelta carries incremental or complete JSON arguments for a started call
	TypeToolInputDelta ChunkType = "tool-input-delta"
	// TypeToolResult is the terminal outcome for a tool call
	TypeToolResult ChunkType = "tool-result"
	// TypeData is an out-of-band structured event (file written, command output, ...)
	TypeData ChunkType = "data"
	// TypeMessageEnd closes an execution; exactly one, always last
	TypeMessageEnd ChunkType = "message-end"
	// TypeError is a fatal condition; at most one, message-end still follows
	TypeError ChunkType = "error"
)

// Error codes carried on error chunks, used downstream to decide retry-ability
const (
	ErrCodeRateLimit   = "rate_limit"
	ErrCodeAuth        = "auth"
	ErrCodeAborted     = "aborted"
	ErrCodeExecution   = "execution_error"
	ErrCodeProcessExit = "process_exit"
)

// Data types for structured side-channel events
const (
	DataFileWritten   = "file-written"
	DataCommandOutput = "command-output"
	DataStatus        = "status"
	DataPreviewURL    = "preview-url"
)

// Usage holds terminal token accounting for one execution
type Usage struct {
	InputTokens  int `json:"inputTokens"`
	OutputTokens int `json:"outputTokens"`
}

// Chunk is one record of the unified chunk protocol. Exactly one chunk per
// NDJSON line on the wire; which fields are meaningful depends on Type.
type Chunk struct {
	Type ChunkType `json:"type"`

	// message-start
	ID        string `json:"id,omitempty"`
	Role      string `json:"role,omitempty"`
	SessionID string `json:"sessionId,omitempty"`

	// text-delta / reasoning-delta
	Text string `json:"text,omitempty"`

	// tool-start / tool-input-delta / tool-result
	ToolCallID string `json:"toolCallId,omitempty"`
	ToolName   string `json:"toolName,omitempty"`
	Input      string `json:"input,omitempty"`
	Output     string `json:"output,omitempty"`
	IsError    bool   `json:"isError,omitempty"`

	// data
	DataType string         `json:"dataType,omitempty"`
	Payload  map[string]any `json:"payload,omitempty"`

	// message-end
	Usage *Usage `json:"usage,omitempty"`

	// error
	Message string `json:"message,omitempty"`
	Code    string `json:"code,omitempty"`
}

// RoleAssistant is the only role the protocol emits today
const RoleAssistant = "assistant"

// Constructors keep mapper code terse and the field-per-type mapping in one place.

func MessageStart(id, sessionID string) *Chunk {
	return &Chunk{Type: TypeMessageStart, ID: id, Role: RoleAssistant, SessionID: sessionID}
}

func TextDelta(text string) *Chunk {
	return &Chunk{Type: TypeTextDelta, Text: text}
}

func ReasoningDelta(text string) *Chunk {
	return &Chunk{Type: TypeReasoningDelta, Text: text}
}

func ToolStart(toolCallID, toolName string) *Chunk {
	return &Chunk{Type: TypeToolStart, ToolCallID: toolCallID, ToolName: toolName}
}

func ToolInputDelta(toolCallID, input string) *Chunk {
	return &Chunk{Type: TypeToolInputDelta, ToolCallID: toolCallID, Input: input}
}

func ToolResult(toolCallID, output string, isError bool) *Chunk {
	return &Chunk{Type: TypeToolResult, ToolCallID: toolCallID, Output: output, IsError: isError}
}

func Data(dataType string, payload map[string]any) *Chunk {
	return &Chunk{Type: TypeData, DataType: dataType, Payload: payload}
}

func MessageEnd(usage *Usage) *Chunk {
	return &Chunk{Type: TypeMessageEnd, Usage: usage}
}

func Error(message, code string) *Chunk {
	return &Chunk{Type: TypeError, Message: message, Code: code}
}
