package providers

import (
	"context"
	"encoding/json"
	"os"

	"github.com/alexschlessinger/agentpipe/chunks"
	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"go.uber.org/zap"
)

const anthropicDefaultModel = "claude-sonnet-4-20250514"
const anthropicMaxTokens = 4096

// AnthropicProvider is an SDK-based backend: it streams a completion from
// the Anthropic API and translates the SDK's event union into unified
// chunks. Tool calls it emits never resolve here; execution of the call
// belongs to whoever consumes the stream.
type AnthropicProvider struct{}

// NewAnthropicProvider creates the SDK provider
func NewAnthropicProvider() Provider {
	return &AnthropicProvider{}
}

// Stream implements Provider
func (p *AnthropicProvider) Stream(ctx context.Context, req *ExecutionRequest) <-chan *chunks.Chunk {
	out := make(chan *chunks.Chunk, 16)
	go func() {
		defer close(out)
		p.run(ctx, req, out)
	}()
	return out
}

func (p *AnthropicProvider) run(ctx context.Context, req *ExecutionRequest, out chan<- *chunks.Chunk) {
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	apiKey := req.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if apiKey == "" {
		zap.S().Debugw("anthropic_missing_api_key")
	}

	var opts []option.RequestOption
	opts = append(opts, option.WithAPIKey(apiKey))
	if req.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(req.BaseURL))
	}
	client := anthropic.NewClient(opts...)

	model := req.Model
	if model == "" {
		model = anthropicDefaultModel
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: anthropicMaxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
	}

	zap.S().Debugw("anthropic_streaming_started", "model", model)
	stream := client.Messages.NewStreaming(ctx, params)

	var usage *chunks.Usage
	started := false
	currentBlockType := ""
	currentToolID := ""

	begin := func(id string) {
		if started {
			return
		}
		started = true
		emit(ctx, out, chunks.MessageStart(id, ""))
	}

	for stream.Next() {
		event := stream.Current()

		switch event.Type {
		case "message_start":
			msgStart := event.AsMessageStart()
			begin(msgStart.Message.ID)
			usage = &chunks.Usage{InputTokens: int(msgStart.Message.Usage.InputTokens)}

		case "content_block_start":
			blockStart := event.AsContentBlockStart()
			raw, _ := json.Marshal(blockStart.ContentBlock)
			var block map[string]any
			if json.Unmarshal(raw, &block) != nil {
				continue
			}
			blockType, _ := block["type"].(string)
			currentBlockType = blockType
			if blockType == "tool_use" {
				id, _ := block["id"].(string)
				name, _ := block["name"].(string)
				currentToolID = id
				begin("")
				emit(ctx, out, chunks.ToolStart(id, name))
			}

		case "content_block_delta":
			blockDelta := event.AsContentBlockDelta()
			begin("")
			if thinking := blockDelta.Delta.Thinking; thinking != "" {
				emit(ctx, out, chunks.ReasoningDelta(thinking))
			}
			if text := blockDelta.Delta.Text; text != "" {
				emit(ctx, out, chunks.TextDelta(text))
			}
			if partial := blockDelta.Delta.PartialJSON; partial != "" &&
				currentBlockType == "tool_use" && currentToolID != "" {
				emit(ctx, out, chunks.ToolInputDelta(currentToolID, partial))
			}

		case "content_block_stop":
			currentBlockType = ""
			currentToolID = ""

		case "message_delta":
			msgDelta := event.AsMessageDelta()
			if usage == nil {
				usage = &chunks.Usage{}
			}
			usage.OutputTokens = int(msgDelta.Usage.OutputTokens)
		}
	}

	if err := stream.Err(); err != nil && !canceled(ctx, err) {
		begin("")
		emit(ctx, out, chunks.Error(err.Error(), classifySDKError(err)))
	}

	begin("")
	emitTerminal(out, chunks.MessageEnd(usage), ctx.Err() != nil)
}
