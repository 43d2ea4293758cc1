package sessions

import (
	"time"

	"dario.cat/mergo"
	"github.com/alexschlessinger/agentpipe/messages"
)

// TrimHistory limits a history slice to the most recent maxHistory messages
func TrimHistory(history []*messages.AccumulatedMessage, maxHistory int) []*messages.AccumulatedMessage {
	if maxHistory == 0 {
		return history // No limit
	}
	if len(history) <= maxHistory {
		return history
	}
	return history[len(history)-maxHistory:]
}

// CopyHistory returns a copy of the history slice so callers can
// append without mutating the session's backing array
func CopyHistory(history []*messages.AccumulatedMessage) []*messages.AccumulatedMessage {
	result := make([]*messages.AccumulatedMessage, len(history))
	copy(result, history)
	return result
}

// MergeMetadata merges non-zero fields from 'in' into 'existing' and returns a new value.
// Zero values (empty strings, 0 numbers) in 'in' do not overwrite existing values.
func MergeMetadata(existing *Metadata, in *Metadata) *Metadata {
	if existing == nil {
		existing = &Metadata{}
	}
	if in == nil {
		// Return a copy of existing
		out := *existing
		return &out
	}

	// Create a copy to avoid modifying the original
	out := *existing

	// By default, mergo only overwrites zero values
	if err := mergo.Merge(&out, in, mergo.WithOverride); err != nil {
		// If merge fails for some reason, fall back to the original
		return existing
	}

	if out.LastUsed.IsZero() {
		out.LastUsed = time.Now()
	}

	return &out
}
