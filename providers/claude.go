package providers

import (
	"github.com/alexschlessinger/agentpipe/providers/mappers"
)

// NewClaudeProvider wires the Claude Code CLI. Partial streaming is always
// requested; the mapper handles backends that answer in batch form anyway.
func NewClaudeProvider() Provider {
	return &CLIRunner{
		Name: ProviderClaude,
		BuildArgs: func(req *ExecutionRequest) (string, []string) {
			args := []string{
				"-p", req.Prompt,
				"--output-format", "stream-json",
				"--verbose",
				"--include-partial-messages",
			}
			if req.Model != "" {
				args = append(args, "--model", req.Model)
			}
			if req.SessionID != "" {
				args = append(args, "--resume", req.SessionID)
			}
			return "claude", args
		},
		NewMapper: func() mappers.EventMapper { return mappers.NewClaudeMapper() },
	}
}

// NewCodexProvider wires the Codex CLI's lifecycle-event stream
func NewCodexProvider() Provider {
	return &CLIRunner{
		Name: ProviderCodex,
		BuildArgs: func(req *ExecutionRequest) (string, []string) {
			args := []string{"exec", "--json"}
			if req.Model != "" {
				args = append(args, "--model", req.Model)
			}
			if req.WorkDir != "" {
				args = append(args, "--cd", req.WorkDir)
			}
			if req.SessionID != "" {
				args = append(args, "resume", req.SessionID)
			}
			args = append(args, req.Prompt)
			return "codex", args
		},
		NewMapper: func() mappers.EventMapper { return mappers.NewCodexMapper() },
	}
}

// NewOpencodeProvider wires the opencode CLI's part-update event stream
func NewOpencodeProvider() Provider {
	return &CLIRunner{
		Name: ProviderOpencode,
		BuildArgs: func(req *ExecutionRequest) (string, []string) {
			args := []string{"run", "--print-logs", "--format", "json"}
			if req.Model != "" {
				args = append(args, "--model", req.Model)
			}
			if req.SessionID != "" {
				args = append(args, "--session", req.SessionID)
			}
			args = append(args, req.Prompt)
			return "opencode", args
		},
		NewMapper: func() mappers.EventMapper { return mappers.NewOpencodeMapper() },
	}
}
