package main

import (
	"context"
	"fmt"
	"os"

	"github.com/alexschlessinger/agentpipe/internal/log"
	"github.com/urfave/cli/v3"
)

func main() {
	app := &cli.Command{
		Name:   "agentpipe",
		Usage:  "Run coding agent backends and normalize their output into one stream",
		Flags:  defineFlags(),
		Action: runCommand,
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func defineFlags() []cli.Flag {
	return []cli.Flag{
		// Backend configuration
		&cli.StringFlag{
			Name:    "provider",
			Aliases: []string{"P"},
			Usage:   "Backend to run (claude, codex, opencode, anthropic, openai)",
			Value:   defaultProvider,
		},
		&cli.StringFlag{
			Name:    "model",
			Aliases: []string{"m"},
			Usage:   "Model to pass to the backend",
			Value:   defaultModel,
		},
		&cli.StringFlag{
			Name:  "baseurl",
			Usage: "Base URL for SDK backends (OpenAI-compatible endpoints)",
			Value: defaultBaseURL,
		},
		&cli.StringFlag{
			Name:  "cwd",
			Usage: "Working directory for the backend process",
		},
		&cli.StringSliceFlag{
			Name:  "env",
			Usage: "Extra KEY=VAL for the backend process (can be specified multiple times)",
		},
		&cli.DurationFlag{
			Name:  "timeout",
			Usage: "Execution timeout",
			Value: defaultTimeout,
		},

		// Input configuration
		&cli.StringFlag{
			Name:    "prompt",
			Aliases: []string{"p"},
			Usage:   "Prompt (reads from stdin if not provided)",
		},
		&cli.BoolFlag{
			Name:  "stdin-chunks",
			Usage: "Replay a chunk stream from stdin instead of running a backend",
		},

		// Context management
		&cli.StringFlag{
			Name:    "context",
			Aliases: []string{"c"},
			Usage:   "Context name for conversation continuity (uses AGENTPIPE_CONTEXT env var if not set)",
		},
		&cli.BoolFlag{
			Name:    "last",
			Aliases: []string{"L"},
			Usage:   "Use the last active context",
		},
		&cli.BoolFlag{
			Name:  "reset",
			Usage: "Reset context (clear conversation history, keep settings)",
		},
		&cli.BoolFlag{
			Name:  "list",
			Usage: "List all available contexts",
		},
		&cli.StringFlag{
			Name:  "delete",
			Usage: "Delete the specified context",
		},

		// Output configuration
		&cli.StringFlag{
			Name:    "format",
			Aliases: []string{"f"},
			Usage:   "Output format: text, chunks, or frames",
			Value:   defaultFormat,
		},
		&cli.BoolFlag{
			Name:  "strict",
			Usage: "Validate the chunk stream against the record schema",
		},
		&cli.BoolFlag{
			Name:  "quiet",
			Usage: "Suppress tool activity and usage lines",
		},
		&cli.BoolFlag{
			Name:    "debug",
			Aliases: []string{"d"},
			Usage:   "Enable debug logging",
		},
	}
}

func runCommand(ctx context.Context, cmd *cli.Command) error {
	config := parseConfig(cmd)

	log.InitLogger(config.Debug)
	initColors()

	contextID := getContextID(config)

	sessionStore, err := setupSessionStore(config, contextID)
	if err != nil {
		return fmt.Errorf("failed to create context store: %w", err)
	}

	// Resolve --last flag
	if config.UseLastContext && contextID == "" {
		contextID = sessionStore.GetLast()
		if contextID == "" {
			return fmt.Errorf("no last context found")
		}
	}

	// Handle context management operations
	if config.ListContexts {
		return handleListContexts(sessionStore)
	}
	if config.DeleteContext != "" {
		return handleDeleteContext(sessionStore, config.DeleteContext)
	}
	if config.ResetContext {
		if contextID == "" {
			return fmt.Errorf("--reset requires a context (use -c or --last)")
		}
		if err := resetContext(sessionStore, contextID); err != nil {
			return err
		}
		if !config.Quiet {
			fmt.Fprintf(os.Stderr, "Context '%s' reset\n", contextID)
		}
		// Continue with normal flow using the reset context
	}

	ctx, cancel := setupSignalHandling(ctx)
	defer cancel()

	return runExecution(ctx, config, sessionStore, contextID)
}
