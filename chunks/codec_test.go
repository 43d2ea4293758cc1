package chunks

import (
	"bytes"
	"strings"
	"testing"
)

func TestEncodeDecodeStream(t *testing.T) {
	stream := []*Chunk{
		MessageStart("m1", "s1"),
		TextDelta("Hello"),
		ToolStart("t1", "Write"),
		ToolInputDelta("t1", `{"file_path":"/tmp/a"}`),
		ToolResult("t1", "ok", false),
		Data(DataFileWritten, map[string]any{"path": "/tmp/a"}),
		MessageEnd(&Usage{InputTokens: 5, OutputTokens: 3}),
	}

	var buf bytes.Buffer
	enc := NewEncoder(&buf)
	for _, c := range stream {
		if err := enc.Encode(c); err != nil {
			t.Fatalf("Encode failed: %v", err)
		}
	}

	decoded, err := NewDecoder(&buf).DecodeAll()
	if err != nil {
		t.Fatalf("DecodeAll failed: %v", err)
	}
	if len(decoded) != len(stream) {
		t.Fatalf("Expected %d chunks, got %d", len(stream), len(decoded))
	}
	for i, c := range decoded {
		if c.Type != stream[i].Type {
			t.Errorf("chunk %d type = %s; want %s", i, c.Type, stream[i].Type)
		}
	}
	if decoded[6].Usage == nil || decoded[6].Usage.InputTokens != 5 {
		t.Errorf("usage lost in roundtrip: %+v", decoded[6].Usage)
	}
}

func TestDecoderSkipsNoise(t *testing.T) {
	input := strings.Join([]string{
		`{"type":"message-start","id":"m1"}`,
		``,
		`backend diagnostic noise, not json`,
		`   `,
		`{"not a chunk": true}`,
		`{"type":"text-delta","text":"hi"}`,
		`{"type":"message-end"}`,
	}, "\n")

	decoded, err := NewDecoder(strings.NewReader(input)).DecodeAll()
	if err != nil {
		t.Fatalf("DecodeAll failed: %v", err)
	}
	if len(decoded) != 3 {
		t.Fatalf("Expected 3 chunks with noise dropped, got %d", len(decoded))
	}
	if decoded[1].Text != "hi" {
		t.Errorf("Text = %s; want hi", decoded[1].Text)
	}
}

func TestStrictDecoderRejectsViolations(t *testing.T) {
	// Second message-start violates single-bracketing
	input := strings.Join([]string{
		`{"type":"message-start","id":"m1"}`,
		`{"type":"message-start","id":"m2"}`,
	}, "\n")

	_, err := NewDecoder(strings.NewReader(input)).Strict().DecodeAll()
	if err == nil {
		t.Fatal("Expected strict decode to fail on duplicate message-start")
	}
}

func TestStrictDecoderAcceptsValidStream(t *testing.T) {
	input := strings.Join([]string{
		`{"type":"message-start","id":"m1","sessionId":"s1"}`,
		`{"type":"text-delta","text":"hello"}`,
		`{"type":"tool-start","toolCallId":"t1","toolName":"bash"}`,
		`{"type":"tool-input-delta","toolCallId":"t1","input":"{}"}`,
		`{"type":"tool-result","toolCallId":"t1","output":"ok"}`,
		`{"type":"message-end","usage":{"inputTokens":1,"outputTokens":2}}`,
	}, "\n")

	decoded, err := NewDecoder(strings.NewReader(input)).Strict().DecodeAll()
	if err != nil {
		t.Fatalf("Strict decode failed on valid stream: %v", err)
	}
	if len(decoded) != 6 {
		t.Errorf("Expected 6 chunks, got %d", len(decoded))
	}
}
