package providers

import (
	"context"
	"fmt"
	"time"

	"github.com/alexschlessinger/agentpipe/chunks"
)

// Provider is one agent backend: a command-line program or an SDK whose
// private event vocabulary gets translated into the unified chunk stream.
type Provider interface {
	// Stream runs one execution and returns its chunk stream. The channel
	// is closed after the terminal message-end chunk. Cancel ctx to abort;
	// a clean abort drains buffered output and closes without an error
	// chunk.
	Stream(ctx context.Context, req *ExecutionRequest) <-chan *chunks.Chunk
}

// ExecutionRequest holds one turn's launch parameters
type ExecutionRequest struct {
	Prompt    string
	SessionID string // prior backend session to resume, if any
	Model     string
	WorkDir   string
	Env       []string // extra KEY=VAL pairs (upstream credentials, routing)
	Timeout   time.Duration

	// SDK providers only
	APIKey  string
	BaseURL string
}

// Provider ids accepted by New
const (
	ProviderClaude    = "claude"
	ProviderCodex     = "codex"
	ProviderOpencode  = "opencode"
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
)

// New returns the provider for id. Dispatch is closed: backends share no
// base implementation beyond the chunk contract, only this registry.
func New(id string) (Provider, error) {
	switch id {
	case ProviderClaude:
		return NewClaudeProvider(), nil
	case ProviderCodex:
		return NewCodexProvider(), nil
	case ProviderOpencode:
		return NewOpencodeProvider(), nil
	case ProviderAnthropic:
		return NewAnthropicProvider(), nil
	case ProviderOpenAI:
		return NewOpenAIProvider(), nil
	default:
		return nil, fmt.Errorf("unknown provider: %s", id)
	}
}

// IDs lists the registered provider ids
func IDs() []string {
	return []string{ProviderClaude, ProviderCodex, ProviderOpencode, ProviderAnthropic, ProviderOpenAI}
}
