package messages

import (
	"encoding/json"
	"reflect"
	"testing"

	"github.com/alexschlessinger/agentpipe/chunks"
)

func TestAccumulateTextAndUsage(t *testing.T) {
	msg := Accumulate([]*chunks.Chunk{
		chunks.MessageStart("m1", "s1"),
		chunks.TextDelta("Hello "),
		chunks.TextDelta("World"),
		chunks.MessageEnd(&chunks.Usage{InputTokens: 5, OutputTokens: 3}),
	})

	if msg.ID != "m1" {
		t.Errorf("ID = %s; want m1", msg.ID)
	}
	if msg.Role != chunks.RoleAssistant {
		t.Errorf("Role = %s; want assistant", msg.Role)
	}
	if msg.Metadata.SessionID != "s1" {
		t.Errorf("SessionID = %s; want s1", msg.Metadata.SessionID)
	}

	// Adjacent deltas coalesce into a single text part
	if len(msg.Parts) != 1 {
		t.Fatalf("Expected 1 part, got %d", len(msg.Parts))
	}
	if msg.Parts[0].Text != "Hello World" {
		t.Errorf("Text = %q; want 'Hello World'", msg.Parts[0].Text)
	}

	if msg.Metadata.Usage == nil || msg.Metadata.Usage.InputTokens != 5 || msg.Metadata.Usage.OutputTokens != 3 {
		t.Errorf("Usage = %+v; want {5 3}", msg.Metadata.Usage)
	}
}

func TestAccumulateToolFlow(t *testing.T) {
	msg := Accumulate([]*chunks.Chunk{
		chunks.MessageStart("m1", ""),
		chunks.TextDelta("Writing the file. "),
		chunks.ToolStart("t1", "Write"),
		chunks.ToolInputDelta("t1", `{"file_path":`),
		chunks.ToolInputDelta("t1", `"/tmp/a.txt"}`),
		chunks.ToolResult("t1", "ok", false),
		chunks.TextDelta("Done."),
		chunks.MessageEnd(nil),
	})

	// text, tool-invocation, text: the tool boundary splits the prose
	if len(msg.Parts) != 3 {
		t.Fatalf("Expected 3 parts, got %d: %+v", len(msg.Parts), msg.Parts)
	}
	if msg.Parts[0].Type != PartText || msg.Parts[0].Text != "Writing the file. " {
		t.Errorf("part 0 = %+v", msg.Parts[0])
	}
	if msg.Parts[2].Type != PartText || msg.Parts[2].Text != "Done." {
		t.Errorf("part 2 = %+v", msg.Parts[2])
	}

	inv := msg.Parts[1].ToolInvocation
	if inv == nil {
		t.Fatal("Expected tool invocation part")
	}
	if inv.State != ToolStateOutputAvailable {
		t.Errorf("State = %s; want output-available", inv.State)
	}
	if inv.Output != "ok" {
		t.Errorf("Output = %s; want ok", inv.Output)
	}

	// Accumulated fragments decode into a structured input object
	input, ok := inv.Input.(map[string]any)
	if !ok {
		t.Fatalf("Input = %T; want decoded object", inv.Input)
	}
	if input["file_path"] != "/tmp/a.txt" {
		t.Errorf("file_path = %v; want /tmp/a.txt", input["file_path"])
	}
}

func TestAccumulateInvalidToolInput(t *testing.T) {
	msg := Accumulate([]*chunks.Chunk{
		chunks.MessageStart("m1", ""),
		chunks.ToolStart("t1", "bash"),
		chunks.ToolInputDelta("t1", `{"command": "ls`),
		chunks.ToolResult("t1", "out", false),
	})

	inv := msg.Parts[0].ToolInvocation
	// Arguments that never became valid JSON survive as the raw string
	if inv.Input != `{"command": "ls` {
		t.Errorf("Input = %v; want raw string fallback", inv.Input)
	}
}

func TestAccumulateToolError(t *testing.T) {
	msg := Accumulate([]*chunks.Chunk{
		chunks.MessageStart("m1", ""),
		chunks.ToolStart("t1", "bash"),
		chunks.ToolResult("t1", "permission denied", true),
	})

	inv := msg.Parts[0].ToolInvocation
	if inv.State != ToolStateOutputError {
		t.Errorf("State = %s; want output-error", inv.State)
	}
	if inv.Output != "permission denied" {
		t.Errorf("Output = %s", inv.Output)
	}
}

func TestAccumulateParallelReasoningAndText(t *testing.T) {
	msg := Accumulate([]*chunks.Chunk{
		chunks.MessageStart("m1", ""),
		chunks.ReasoningDelta("thinking "),
		chunks.TextDelta("answering "),
		chunks.ReasoningDelta("more"),
		chunks.TextDelta("more"),
	})

	if len(msg.Parts) != 2 {
		t.Fatalf("Expected 2 parts, got %d", len(msg.Parts))
	}
	if msg.Reasoning() != "thinking more" {
		t.Errorf("Reasoning() = %q", msg.Reasoning())
	}
	if msg.Text() != "answering more" {
		t.Errorf("Text() = %q", msg.Text())
	}
}

func TestAccumulateUnknownCallIgnored(t *testing.T) {
	msg := Accumulate([]*chunks.Chunk{
		chunks.MessageStart("m1", ""),
		chunks.ToolInputDelta("ghost", "{}"),
		chunks.ToolResult("ghost", "out", false),
		chunks.TextDelta("still fine"),
	})

	if len(msg.Parts) != 1 || msg.Parts[0].Text != "still fine" {
		t.Errorf("Expected orphan tool chunks ignored, got %+v", msg.Parts)
	}
}

func TestAccumulateDataAndError(t *testing.T) {
	msg := Accumulate([]*chunks.Chunk{
		chunks.MessageStart("m1", ""),
		chunks.Data(chunks.DataFileWritten, map[string]any{"path": "a.go"}),
		chunks.Error("rate limited", chunks.ErrCodeRateLimit),
		chunks.MessageEnd(nil),
	})

	if len(msg.Parts) != 2 {
		t.Fatalf("Expected 2 parts, got %d", len(msg.Parts))
	}
	data := msg.Parts[0].StructuredData
	if data == nil || data.DataType != chunks.DataFileWritten {
		t.Errorf("part 0 = %+v", msg.Parts[0])
	}
	if msg.Parts[1].Type != PartText || msg.Parts[1].Text != "Error: rate limited" {
		t.Errorf("part 1 = %+v", msg.Parts[1])
	}
}

func TestAccumulateDataSplitsProse(t *testing.T) {
	msg := Accumulate([]*chunks.Chunk{
		chunks.MessageStart("m1", ""),
		chunks.TextDelta("before "),
		chunks.Data(chunks.DataStatus, map[string]any{"state": "compiling"}),
		chunks.TextDelta("after"),
		chunks.MessageEnd(nil),
	})

	// Part order mirrors emission order; text after the artifact starts fresh
	if len(msg.Parts) != 3 {
		t.Fatalf("Expected 3 parts, got %d", len(msg.Parts))
	}
	if msg.Parts[0].Type != PartText || msg.Parts[0].Text != "before " {
		t.Errorf("part 0 = %+v", msg.Parts[0])
	}
	if msg.Parts[1].Type != PartStructuredData {
		t.Errorf("part 1 = %+v", msg.Parts[1])
	}
	if msg.Parts[2].Type != PartText || msg.Parts[2].Text != "after" {
		t.Errorf("part 2 = %+v", msg.Parts[2])
	}
}

func TestAccumulateGeneratesIDWhenMissing(t *testing.T) {
	msg := Accumulate([]*chunks.Chunk{
		{Type: chunks.TypeMessageStart},
		chunks.TextDelta("x"),
	})
	if msg.ID == "" {
		t.Error("Expected a generated message id")
	}
}

func TestAccumulateIdempotentReplay(t *testing.T) {
	stream := []*chunks.Chunk{
		chunks.MessageStart("m1", "s1"),
		chunks.ReasoningDelta("hmm"),
		chunks.ToolStart("t1", "Write"),
		chunks.ToolInputDelta("t1", `{"file_path":"/tmp/a"}`),
		chunks.ToolResult("t1", "ok", false),
		chunks.TextDelta("done"),
		chunks.MessageEnd(&chunks.Usage{InputTokens: 1, OutputTokens: 2}),
	}

	first := Accumulate(stream)
	second := Accumulate(stream)

	if !reflect.DeepEqual(first, second) {
		t.Error("Expected replay to yield a structurally identical message")
	}
}

func TestStrippedDropsBookkeeping(t *testing.T) {
	msg := Accumulate([]*chunks.Chunk{
		chunks.MessageStart("m1", "s1"),
		chunks.ToolStart("t1", "Write"),
		chunks.ToolInputDelta("t1", `{"file_path":"/tmp/a"}`),
		chunks.ToolResult("t1", "ok", false),
		chunks.MessageEnd(nil),
	})

	stripped := msg.Stripped()

	// Mutating the copy must not touch the original
	stripped.Parts[0].ToolInvocation.Output = "changed"
	if msg.Parts[0].ToolInvocation.Output != "ok" {
		t.Error("Stripped() shares tool invocation with the original")
	}

	// The persisted shape carries only exported fields
	data, err := json.Marshal(stripped)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	var decoded AccumulatedMessage
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if decoded.Parts[0].ToolInvocation.ToolName != "Write" {
		t.Errorf("roundtrip lost tool name: %+v", decoded.Parts[0])
	}
}
