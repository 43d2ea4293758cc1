package sessions

import (
	"time"

	"github.com/alexschlessinger/agentpipe/messages"
)

// Metadata describes a named conversation context
type Metadata struct {
	Name    string    `json:"name"`
	Created time.Time `json:"created"`

	// Provider and Model record which backend produced the history,
	// so resuming a context does not require re-specifying them
	Provider string `json:"provider,omitempty"`
	Model    string `json:"model,omitempty"`
	WorkDir  string `json:"workDir,omitempty"`

	// BackendSessionID is the backend's own session identifier, captured
	// from the stream so the next run can resume server-side state
	BackendSessionID string `json:"backendSessionId,omitempty"`

	// MaxHistory is the maximum number of messages to keep, 0 = unlimited
	MaxHistory int `json:"maxHistory,omitempty"`

	// TTL is the duration after which an inactive context expires, 0 = never
	TTL time.Duration `json:"ttl,omitempty"`

	LastUsed time.Time `json:"lastUsed"`
}

// Session interface defines the contract for session implementations
type Session interface {
	GetHistory() []*messages.AccumulatedMessage
	AddMessage(*messages.AccumulatedMessage)
	Clear()
	Close() // Clean up resources (file locks, etc.)

	// Session metadata
	GetName() string
	GetMetadata() *Metadata
	SetMetadata(*Metadata)
	UpdateMetadata(*Metadata) error // Apply partial updates (only non-zero values)
	GetLastUsed() time.Time
}

// SessionStore manages multiple sessions
type SessionStore interface {
	Get(string) (Session, error)
	Delete(string)
	Range(func(key, value any) bool)
	Expire()

	// Session discovery and metadata
	List() ([]string, error)
	Exists(string) bool
	GetAllMetadata() map[string]*Metadata // Read-only bulk operation
	GetLast() string                      // Returns name of most recently used session
}
