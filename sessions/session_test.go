package sessions

import (
	"fmt"
	"testing"
	"time"

	"github.com/alexschlessinger/agentpipe/messages"
)

func textMessage(id, text string) *messages.AccumulatedMessage {
	return &messages.AccumulatedMessage{
		ID:   id,
		Role: "assistant",
		Parts: []messages.Part{
			{Type: messages.PartText, Text: text},
		},
	}
}

// testStores returns both store implementations for testing
func testStores(t *testing.T) map[string]SessionStore {
	defaultInfo := &Metadata{
		MaxHistory: 10,
		TTL:        0, // No expiry for tests
		Provider:   "claude",
	}

	// Create file store in temp directory
	fileStore, err := NewFileSessionStore(t.TempDir(), defaultInfo)
	if err != nil {
		t.Fatalf("Failed to create file store: %v", err)
	}

	return map[string]SessionStore{
		"SyncMap": NewSyncMapSessionStore(defaultInfo),
		"File":    fileStore,
	}
}

// TestAddMessage verifies messages are added to history
func TestAddMessage(t *testing.T) {
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			session, err := store.Get("test")
			if err != nil {
				t.Fatalf("Failed to get session: %v", err)
			}

			session.AddMessage(textMessage("m1", "Hello"))

			history := session.GetHistory()
			if len(history) != 1 {
				t.Fatalf("Expected 1 message, got %d", len(history))
			}
			if history[0].Text() != "Hello" {
				t.Errorf("Expected 'Hello', got '%s'", history[0].Text())
			}
		})
	}
}

// TestClear verifies Clear() empties the history
func TestClear(t *testing.T) {
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			session, err := store.Get("test")
			if err != nil {
				t.Fatalf("Failed to get session: %v", err)
			}

			session.AddMessage(textMessage("m1", "msg1"))
			session.AddMessage(textMessage("m2", "msg2"))

			session.Clear()

			if history := session.GetHistory(); len(history) != 0 {
				t.Errorf("Expected 0 messages after clear, got %d", len(history))
			}
		})
	}
}

// TestDelete verifies session deletion
func TestDelete(t *testing.T) {
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			session1, err := store.Get("deleteme")
			if err != nil {
				t.Fatalf("Failed to get session1: %v", err)
			}
			session1.AddMessage(textMessage("m1", "test"))
			session1.Close()

			store.Delete("deleteme")

			// Get it again - should be fresh
			session2, err := store.Get("deleteme")
			if err != nil {
				t.Fatalf("Failed to get session2: %v", err)
			}
			if history := session2.GetHistory(); len(history) != 0 {
				t.Errorf("Expected fresh session with 0 messages, got %d", len(history))
			}
		})
	}
}

// TestTrim verifies old messages are dropped once MaxHistory is exceeded
func TestTrim(t *testing.T) {
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			session, err := store.Get("test")
			if err != nil {
				t.Fatalf("Failed to get session: %v", err)
			}

			for i := range 15 {
				session.AddMessage(textMessage(fmt.Sprintf("m%d", i), fmt.Sprintf("message-%d", i)))
			}

			history := session.GetHistory()
			if len(history) != 10 {
				t.Fatalf("Expected 10 messages after trim, got %d", len(history))
			}
			// Most recent messages survive
			if got := history[len(history)-1].Text(); got != "message-14" {
				t.Errorf("Expected 'message-14' as last message, got '%s'", got)
			}
		})
	}
}

// TestStrippedOnAdd verifies that persisted history carries no raw tool input
func TestStrippedOnAdd(t *testing.T) {
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			session, err := store.Get("test")
			if err != nil {
				t.Fatalf("Failed to get session: %v", err)
			}

			msg := &messages.AccumulatedMessage{
				ID:   "m1",
				Role: "assistant",
				Parts: []messages.Part{
					{Type: messages.PartToolInvocation, ToolInvocation: &messages.ToolInvocation{
						ToolCallID: "t1",
						ToolName:   "Write",
						State:      messages.ToolStateOutputAvailable,
						Input:      map[string]any{"file_path": "/tmp/a.txt"},
						Output:     "ok",
					}},
				},
			}
			session.AddMessage(msg)

			history := session.GetHistory()
			if len(history) != 1 {
				t.Fatalf("Expected 1 message, got %d", len(history))
			}
			// The stored message must be a distinct copy
			if history[0] == msg {
				t.Error("Expected stored message to be a copy, got the original pointer")
			}
			invs := history[0].ToolInvocations()
			if len(invs) != 1 || invs[0].ToolName != "Write" {
				t.Fatalf("Expected one Write invocation, got %+v", invs)
			}
		})
	}
}

// TestMetadataUpdate verifies partial metadata updates only touch non-zero fields
func TestMetadataUpdate(t *testing.T) {
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			session, err := store.Get("test")
			if err != nil {
				t.Fatalf("Failed to get session: %v", err)
			}

			if err := session.UpdateMetadata(&Metadata{BackendSessionID: "sess-abc", Model: "opus"}); err != nil {
				t.Fatalf("UpdateMetadata failed: %v", err)
			}

			info := session.GetMetadata()
			if info.BackendSessionID != "sess-abc" {
				t.Errorf("Expected backend session id 'sess-abc', got '%s'", info.BackendSessionID)
			}
			if info.Model != "opus" {
				t.Errorf("Expected model 'opus', got '%s'", info.Model)
			}
			// Defaults must survive a partial update
			if info.Provider != "claude" {
				t.Errorf("Expected provider 'claude' to survive update, got '%s'", info.Provider)
			}
			if info.MaxHistory != 10 {
				t.Errorf("Expected MaxHistory 10 to survive update, got %d", info.MaxHistory)
			}
		})
	}
}

// TestFileSessionPersistence verifies history survives a close/reopen cycle
func TestFileSessionPersistence(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileSessionStore(dir, nil)
	if err != nil {
		t.Fatalf("Failed to create file store: %v", err)
	}

	session, err := store.Get("durable")
	if err != nil {
		t.Fatalf("Failed to get session: %v", err)
	}
	session.AddMessage(textMessage("m1", "remember me"))
	session.Close()

	// Fresh store over the same directory
	store2, err := NewFileSessionStore(dir, nil)
	if err != nil {
		t.Fatalf("Failed to create second store: %v", err)
	}
	session2, err := store2.Get("durable")
	if err != nil {
		t.Fatalf("Failed to reopen session: %v", err)
	}
	defer session2.Close()

	history := session2.GetHistory()
	if len(history) != 1 || history[0].Text() != "remember me" {
		t.Fatalf("Expected persisted history, got %+v", history)
	}
}

// TestValidateContextName rejects names unsafe for filesystem use
func TestValidateContextName(t *testing.T) {
	valid := []string{"work", "my-project", "ctx_2", "a b"}
	for _, name := range valid {
		if err := validateContextName(name); err != nil {
			t.Errorf("Expected '%s' to be valid, got %v", name, err)
		}
	}

	invalid := []string{"", ".", "..", "a/b", "a\\b", "a:b", "a*b", ".hidden", "trailing.", " lead", "trail ", "ctl\x01"}
	for _, name := range invalid {
		if err := validateContextName(name); err == nil {
			t.Errorf("Expected '%s' to be rejected", name)
		}
	}
}

// TestExpire verifies TTL-based expiry for the in-memory store
func TestExpire(t *testing.T) {
	store := NewSyncMapSessionStore(&Metadata{TTL: time.Millisecond}).(*SyncMapSessionStore)

	if _, err := store.Get("old"); err != nil {
		t.Fatalf("Failed to get session: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	store.Expire()

	if store.Exists("old") {
		t.Error("Expected expired session to be removed")
	}
}

// TestGetLast verifies the most recently used session wins
func TestGetLast(t *testing.T) {
	store := NewSyncMapSessionStore(nil)

	if _, err := store.Get("first"); err != nil {
		t.Fatalf("Failed to get session: %v", err)
	}
	time.Sleep(2 * time.Millisecond)
	if _, err := store.Get("second"); err != nil {
		t.Fatalf("Failed to get session: %v", err)
	}

	if got := store.GetLast(); got != "second" {
		t.Errorf("Expected 'second' as last used, got '%s'", got)
	}
}
