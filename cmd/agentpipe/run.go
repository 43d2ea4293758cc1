package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/alexschlessinger/agentpipe/chunks"
	"github.com/alexschlessinger/agentpipe/messages"
	"github.com/alexschlessinger/agentpipe/providers"
	"github.com/alexschlessinger/agentpipe/sessions"
	"github.com/oklog/ulid/v2"
)

// runExecution performs one turn: resolve the context, obtain the chunk
// stream, and fan it into the renderer, the accumulator, and the guard.
func runExecution(ctx context.Context, config *Config, store sessions.SessionStore, contextID string) error {
	var session sessions.Session
	var resumeID string

	if contextID != "" {
		var err error
		session, err = store.Get(contextID)
		if err != nil {
			return fmt.Errorf("failed to open context: %w", err)
		}
		defer session.Close()

		// Use stored backend settings unless overridden on the command line
		info := session.GetMetadata()
		if !isFlagProvider(config) && info.Provider != "" {
			config.Provider = info.Provider
		}
		if config.Model == "" {
			config.Model = info.Model
		}
		if config.WorkDir == "" {
			config.WorkDir = info.WorkDir
		}
		resumeID = info.BackendSessionID
	}

	prompt := ""
	if !config.ReplayStdin {
		var err error
		prompt, err = getPrompt(config)
		if err != nil {
			return err
		}
		if prompt == "" {
			return fmt.Errorf("no prompt provided")
		}
	}

	stream, err := chunkSource(ctx, config, prompt, resumeID)
	if err != nil {
		return err
	}

	render, err := newRenderer(config)
	if err != nil {
		return err
	}

	var guard *chunks.StreamGuard
	if config.Strict && !config.ReplayStdin {
		// Replay mode validates inside the decoder instead
		guard = chunks.NewStreamGuard()
	}

	acc := messages.NewAccumulator()
	var streamErr *chunks.Chunk

	for c := range stream {
		if guard != nil {
			if err := guard.Observe(c); err != nil {
				return fmt.Errorf("protocol violation: %w", err)
			}
		}
		acc.Process(c)
		render.Render(c)
		if c.Type == chunks.TypeError {
			streamErr = c
		}
	}
	render.Done()

	msg := acc.Message()

	if session != nil {
		if prompt != "" {
			session.AddMessage(userMessage(prompt))
		}
		session.AddMessage(msg)
		update := &sessions.Metadata{
			Provider:         config.Provider,
			Model:            config.Model,
			WorkDir:          config.WorkDir,
			BackendSessionID: msg.Metadata.SessionID,
		}
		if err := session.UpdateMetadata(update); err != nil {
			return fmt.Errorf("failed to save context: %w", err)
		}
	}

	if streamErr != nil && streamErr.Code != chunks.ErrCodeAborted {
		return fmt.Errorf("execution failed: %s", streamErr.Message)
	}
	return nil
}

// isFlagProvider reports whether the provider came from the command line
// rather than the environment or config file default
func isFlagProvider(config *Config) bool {
	return config.Provider != defaultProvider
}

// userMessage wraps the prompt as a single-part user message
func userMessage(prompt string) *messages.AccumulatedMessage {
	return &messages.AccumulatedMessage{
		ID:   ulid.Make().String(),
		Role: "user",
		Parts: []messages.Part{
			{Type: messages.PartText, Text: prompt},
		},
	}
}

// chunkSource returns the chunk stream for this turn, either from a live
// backend or replayed from stdin
func chunkSource(ctx context.Context, config *Config, prompt, resumeID string) (<-chan *chunks.Chunk, error) {
	if config.ReplayStdin {
		return replayStdin(ctx, config.Strict), nil
	}

	provider, err := providers.New(config.Provider)
	if err != nil {
		return nil, err
	}

	req := &providers.ExecutionRequest{
		Prompt:    prompt,
		SessionID: resumeID,
		Model:     config.Model,
		WorkDir:   config.WorkDir,
		Env:       config.Env,
		Timeout:   config.Timeout,
		BaseURL:   config.BaseURL,
	}
	return provider.Stream(ctx, req), nil
}

// replayStdin decodes an NDJSON chunk stream from stdin
func replayStdin(ctx context.Context, strict bool) <-chan *chunks.Chunk {
	out := make(chan *chunks.Chunk, 16)
	go func() {
		defer close(out)
		dec := chunks.NewDecoder(os.Stdin)
		if strict {
			dec = dec.Strict()
		}
		for {
			c, err := dec.Decode()
			if err == io.EOF {
				return
			}
			if err != nil {
				c = chunks.Error(err.Error(), chunks.ErrCodeExecution)
				select {
				case out <- c:
				case <-ctx.Done():
				}
				return
			}
			select {
			case out <- c:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}
