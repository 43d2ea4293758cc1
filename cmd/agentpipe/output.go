package main

import (
	"fmt"
	"os"

	"github.com/alexschlessinger/agentpipe/chunks"
	"github.com/alexschlessinger/agentpipe/transport"
)

// renderer consumes the unified chunk stream and produces terminal output
type renderer interface {
	Render(c *chunks.Chunk)
	Done()
}

// newRenderer selects the output format
func newRenderer(config *Config) (renderer, error) {
	switch config.Format {
	case "text":
		return &textRenderer{quiet: config.Quiet, toolNames: make(map[string]string)}, nil
	case "chunks":
		return &chunkRenderer{enc: chunks.NewEncoder(os.Stdout)}, nil
	case "frames":
		return &frameRenderer{adapter: transport.NewAdapter(), writer: transport.NewFrameWriter(os.Stdout)}, nil
	default:
		return nil, fmt.Errorf("unknown format '%s' (expected text, chunks, or frames)", config.Format)
	}
}

// textRenderer prints assistant prose to stdout and everything else,
// styled, to stderr so piped output stays clean
type textRenderer struct {
	quiet     bool
	sawText   bool
	toolNames map[string]string
}

func (r *textRenderer) Render(c *chunks.Chunk) {
	switch c.Type {
	case chunks.TypeTextDelta:
		r.sawText = true
		fmt.Print(c.Text)

	case chunks.TypeReasoningDelta:
		if !r.quiet {
			fmt.Fprint(os.Stderr, dimStyle.Styled(c.Text))
		}

	case chunks.TypeToolStart:
		r.toolNames[c.ToolCallID] = c.ToolName
		if !r.quiet {
			fmt.Fprintf(os.Stderr, "%s\n", highlightStyle.Styled("→ "+c.ToolName))
		}

	case chunks.TypeToolResult:
		if r.quiet {
			return
		}
		name := r.toolNames[c.ToolCallID]
		if c.IsError {
			fmt.Fprintf(os.Stderr, "%s\n", errorStyle.Styled("✗ "+name))
		} else {
			fmt.Fprintf(os.Stderr, "%s\n", successStyle.Styled("✓ "+name))
		}

	case chunks.TypeData:
		if !r.quiet {
			fmt.Fprintf(os.Stderr, "%s\n", dimStyle.Styled(describeData(c)))
		}

	case chunks.TypeError:
		fmt.Fprintf(os.Stderr, "%s\n", errorStyle.Styled(fmt.Sprintf("Error: %s", c.Message)))

	case chunks.TypeMessageEnd:
		if r.sawText {
			fmt.Println()
		}
		if !r.quiet && c.Usage != nil {
			fmt.Fprintf(os.Stderr, "%s\n", dimStyle.Styled(fmt.Sprintf("tokens: %d in, %d out", c.Usage.InputTokens, c.Usage.OutputTokens)))
		}
	}
}

func (r *textRenderer) Done() {}

// describeData renders one structured data chunk as a short status line
func describeData(c *chunks.Chunk) string {
	switch c.DataType {
	case chunks.DataFileWritten:
		if path, ok := c.Payload["path"].(string); ok {
			return "• wrote " + path
		}
	case chunks.DataCommandOutput:
		if command, ok := c.Payload["command"].(string); ok {
			return "• ran " + command
		}
	case chunks.DataPreviewURL:
		if url, ok := c.Payload["url"].(string); ok {
			return "• preview " + url
		}
	}
	return "• " + c.DataType
}

// chunkRenderer re-emits the stream as NDJSON chunk records
type chunkRenderer struct {
	enc *chunks.Encoder
}

func (r *chunkRenderer) Render(c *chunks.Chunk) {
	if err := r.enc.Encode(c); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
}

func (r *chunkRenderer) Done() {}

// frameRenderer converts the stream to transport frames
type frameRenderer struct {
	adapter *transport.Adapter
	writer  *transport.FrameWriter
}

func (r *frameRenderer) Render(c *chunks.Chunk) {
	for _, f := range r.adapter.Process(c) {
		if err := r.writer.Write(f); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
	}
}

func (r *frameRenderer) Done() {
	for _, f := range r.adapter.Flush() {
		if err := r.writer.Write(f); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
	}
}
