package providers

import (
	"context"
	"errors"
	"io"
	"os"

	"github.com/alexschlessinger/agentpipe/chunks"
	ai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

const openaiDefaultModel = "gpt-4o"

// OpenAIProvider is an SDK-based backend over the OpenAI streaming API,
// also serving OpenAI-compatible endpoints via BaseURL. Tool calls stream
// with index-based accumulation and never resolve within the stream.
type OpenAIProvider struct{}

// NewOpenAIProvider creates the SDK provider
func NewOpenAIProvider() Provider {
	return &OpenAIProvider{}
}

// Stream implements Provider
func (p *OpenAIProvider) Stream(ctx context.Context, req *ExecutionRequest) <-chan *chunks.Chunk {
	out := make(chan *chunks.Chunk, 16)
	go func() {
		defer close(out)
		p.run(ctx, req, out)
	}()
	return out
}

func (p *OpenAIProvider) run(ctx context.Context, req *ExecutionRequest, out chan<- *chunks.Chunk) {
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	apiKey := req.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	cfg := ai.DefaultConfig(apiKey)
	if req.BaseURL != "" {
		cfg.BaseURL = req.BaseURL
	}
	client := ai.NewClientWithConfig(cfg)

	model := req.Model
	if model == "" {
		model = openaiDefaultModel
	}

	ccr := ai.ChatCompletionRequest{
		Model: model,
		Messages: []ai.ChatCompletionMessage{
			{Role: ai.ChatMessageRoleUser, Content: req.Prompt},
		},
		Stream: true,
		StreamOptions: &ai.StreamOptions{
			IncludeUsage: true,
		},
	}

	zap.S().Debugw("openai_streaming_started", "model", model)
	stream, err := client.CreateChatCompletionStream(ctx, ccr)
	if err != nil {
		if !canceled(ctx, err) {
			emit(ctx, out, chunks.MessageStart("", ""))
			emit(ctx, out, chunks.Error(err.Error(), classifySDKError(err)))
		}
		emitTerminal(out, chunks.MessageEnd(nil), ctx.Err() != nil)
		return
	}
	defer stream.Close()

	var usage *chunks.Usage
	started := false
	// index -> call id, for the API's fragmented tool-call deltas
	callIDs := make(map[int]string)

	begin := func(id string) {
		if started {
			return
		}
		started = true
		emit(ctx, out, chunks.MessageStart(id, ""))
	}

	for {
		response, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if !canceled(ctx, err) {
				begin("")
				emit(ctx, out, chunks.Error(err.Error(), classifySDKError(err)))
			}
			break
		}

		begin(response.ID)

		if response.Usage != nil {
			usage = &chunks.Usage{
				InputTokens:  response.Usage.PromptTokens,
				OutputTokens: response.Usage.CompletionTokens,
			}
		}
		if len(response.Choices) == 0 {
			continue
		}
		delta := response.Choices[0].Delta

		if delta.Content != "" {
			emit(ctx, out, chunks.TextDelta(delta.Content))
		}

		for _, tc := range delta.ToolCalls {
			if tc.Index == nil {
				continue
			}
			index := *tc.Index
			if tc.ID != "" {
				callIDs[index] = tc.ID
				emit(ctx, out, chunks.ToolStart(tc.ID, tc.Function.Name))
			}
			if tc.Function.Arguments != "" {
				if id, ok := callIDs[index]; ok {
					emit(ctx, out, chunks.ToolInputDelta(id, tc.Function.Arguments))
				}
			}
		}
	}

	begin("")
	emitTerminal(out, chunks.MessageEnd(usage), ctx.Err() != nil)
}
