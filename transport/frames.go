// Package transport maps the unified chunk stream onto the outward UI
// wire protocol. The chunk protocol has no bracketing; renderers need
// explicit start/end framing around each contiguous span of streamed
// prose, so the adapter inserts it.
package transport

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/alexschlessinger/agentpipe/chunks"
)

// FrameType identifies one UI frame kind
type FrameType string

const (
	FrameTextStart       FrameType = "text-start"
	FrameTextDelta       FrameType = "text-delta"
	FrameTextEnd         FrameType = "text-end"
	FrameReasoningStart  FrameType = "reasoning-start"
	FrameReasoningDelta  FrameType = "reasoning-delta"
	FrameReasoningEnd    FrameType = "reasoning-end"
	FrameToolInputStart  FrameType = "tool-input-start"
	FrameToolInputDelta  FrameType = "tool-input-delta"
	FrameToolOutput      FrameType = "tool-output-available"
	FrameToolOutputError FrameType = "tool-output-error"
	FrameError           FrameType = "error"
	FrameFinish          FrameType = "finish"
)

// Frame is one record of the UI stream. Data frames use a dynamic
// "data-<type>" frame type mirroring the chunk's dataType.
type Frame struct {
	Type       FrameType      `json:"type"`
	Text       string         `json:"text,omitempty"`
	ToolCallID string         `json:"toolCallId,omitempty"`
	ToolName   string         `json:"toolName,omitempty"`
	Input      string         `json:"input,omitempty"`
	Output     string         `json:"output,omitempty"`
	Payload    map[string]any `json:"payload,omitempty"`
	Message    string         `json:"message,omitempty"`
	Code       string         `json:"code,omitempty"`
	Usage      *chunks.Usage  `json:"usage,omitempty"`
}

// DataFrameType builds the frame type for a structured data chunk
func DataFrameType(dataType string) FrameType {
	return FrameType(fmt.Sprintf("data-%s", dataType))
}

// FrameWriter encodes frames as NDJSON
type FrameWriter struct {
	w io.Writer
}

// NewFrameWriter creates an NDJSON frame writer
func NewFrameWriter(w io.Writer) *FrameWriter {
	return &FrameWriter{w: w}
}

// Write encodes one frame followed by a newline
func (fw *FrameWriter) Write(f *Frame) error {
	data, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("failed to encode frame: %w", err)
	}
	data = append(data, '\n')
	if _, err := fw.w.Write(data); err != nil {
		return fmt.Errorf("failed to write frame: %w", err)
	}
	return nil
}
