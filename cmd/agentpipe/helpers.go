package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/alexschlessinger/agentpipe/sessions"
)

// readFromStdin reads all lines from stdin and joins them with newlines
func readFromStdin() (string, error) {
	scanner := bufio.NewScanner(os.Stdin)
	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("error reading stdin: %w", err)
	}
	return strings.Join(lines, "\n"), nil
}

// hasStdinData checks if stdin has data available
func hasStdinData() bool {
	stat, _ := os.Stdin.Stat()
	return (stat.Mode() & os.ModeCharDevice) == 0
}

// getPrompt resolves the prompt from flags or stdin
func getPrompt(config *Config) (string, error) {
	if config.Prompt != "" {
		return config.Prompt, nil
	}

	if hasStdinData() {
		return readFromStdin()
	}

	// No -p flag and no pipe input, prompt the user interactively
	fmt.Fprint(os.Stderr, "Enter prompt (Ctrl+D when done):\n")
	return readFromStdin()
}

// setupSignalHandling sets up signal handling for graceful shutdown.
// The first signal cancels the context so the backend can wind down;
// a second one exits immediately.
func setupSignalHandling(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)
	sigChan := make(chan os.Signal, 2)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
		<-sigChan
		os.Exit(130) // 128 + SIGINT(2) = 130
	}()
	return ctx, cancel
}

// getContextID determines the context ID from config or environment
func getContextID(config *Config) string {
	if config.ContextID != "" {
		return config.ContextID
	}
	return os.Getenv("AGENTPIPE_CONTEXT")
}

// setupSessionStore creates the appropriate session store based on configuration
func setupSessionStore(config *Config, contextID string) (sessions.SessionStore, error) {
	defaults := &sessions.Metadata{
		Provider: config.Provider,
		Model:    config.Model,
	}

	if needsFileStore(config, contextID) {
		return sessions.NewFileSessionStore("", defaults) // Uses default ~/.agentpipe/contexts
	}
	return sessions.NewSyncMapSessionStore(defaults), nil
}

// needsFileStore determines if we need a file-based session store
func needsFileStore(config *Config, contextID string) bool {
	return contextID != "" ||
		config.UseLastContext ||
		config.ResetContext ||
		config.ListContexts ||
		config.DeleteContext != ""
}
