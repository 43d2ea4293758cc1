package providers

import (
	"context"
	"errors"
	"strings"

	"github.com/alexschlessinger/agentpipe/chunks"
)

// classifySDKError maps an SDK/network failure onto a coarse error code
// the transport uses to decide retry-ability
func classifySDKError(err error) string {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return chunks.ErrCodeAborted
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "rate limit"), strings.Contains(msg, "429"):
		return chunks.ErrCodeRateLimit
	case strings.Contains(msg, "401"), strings.Contains(msg, "unauthorized"),
		strings.Contains(msg, "api key"), strings.Contains(msg, "authentication"):
		return chunks.ErrCodeAuth
	default:
		return chunks.ErrCodeExecution
	}
}

// canceled reports whether err is a cooperative abort rather than a failure
func canceled(ctx context.Context, err error) bool {
	return ctx.Err() != nil || errors.Is(err, context.Canceled)
}
