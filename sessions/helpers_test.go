package sessions

import (
	"testing"
	"time"

	"github.com/alexschlessinger/agentpipe/messages"
)

func TestTrimHistory(t *testing.T) {
	msg := func(id string) *messages.AccumulatedMessage {
		return &messages.AccumulatedMessage{ID: id, Role: "assistant"}
	}
	history := []*messages.AccumulatedMessage{msg("a"), msg("b"), msg("c"), msg("d")}

	tests := []struct {
		name       string
		maxHistory int
		wantLen    int
		wantFirst  string
	}{
		{"No limit", 0, 4, "a"},
		{"Under limit", 10, 4, "a"},
		{"At limit", 4, 4, "a"},
		{"Over limit", 2, 2, "c"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TrimHistory(history, tt.maxHistory)
			if len(got) != tt.wantLen {
				t.Fatalf("TrimHistory() len = %d; want %d", len(got), tt.wantLen)
			}
			if got[0].ID != tt.wantFirst {
				t.Errorf("TrimHistory() first = %s; want %s", got[0].ID, tt.wantFirst)
			}
		})
	}
}

func TestCopyHistory(t *testing.T) {
	history := []*messages.AccumulatedMessage{
		{ID: "a", Role: "user"},
		{ID: "b", Role: "assistant"},
	}

	copied := CopyHistory(history)
	if len(copied) != 2 {
		t.Fatalf("Expected 2 messages, got %d", len(copied))
	}

	// Appending to the copy must not affect the original
	copied = append(copied, &messages.AccumulatedMessage{ID: "c"})
	if len(history) != 2 {
		t.Errorf("Original history modified, len = %d", len(history))
	}
	_ = copied
}

func TestMergeMetadata(t *testing.T) {
	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	existing := &Metadata{
		Name:       "work",
		Created:    created,
		Provider:   "claude",
		Model:      "sonnet",
		MaxHistory: 10,
		LastUsed:   created,
	}

	t.Run("NonZeroFieldsOverride", func(t *testing.T) {
		got := MergeMetadata(existing, &Metadata{Model: "opus", BackendSessionID: "s1"})
		if got.Model != "opus" {
			t.Errorf("Model = %s; want opus", got.Model)
		}
		if got.BackendSessionID != "s1" {
			t.Errorf("BackendSessionID = %s; want s1", got.BackendSessionID)
		}
		// Zero fields in the update don't erase existing values
		if got.Provider != "claude" {
			t.Errorf("Provider = %s; want claude", got.Provider)
		}
		if got.MaxHistory != 10 {
			t.Errorf("MaxHistory = %d; want 10", got.MaxHistory)
		}
		// The original must be untouched
		if existing.Model != "sonnet" {
			t.Errorf("Existing modified: Model = %s", existing.Model)
		}
	})

	t.Run("NilUpdate", func(t *testing.T) {
		got := MergeMetadata(existing, nil)
		if got == existing {
			t.Error("Expected a copy, got same pointer")
		}
		if got.Model != "sonnet" {
			t.Errorf("Model = %s; want sonnet", got.Model)
		}
	})

	t.Run("NilExisting", func(t *testing.T) {
		got := MergeMetadata(nil, &Metadata{Name: "fresh"})
		if got.Name != "fresh" {
			t.Errorf("Name = %s; want fresh", got.Name)
		}
		if got.LastUsed.IsZero() {
			t.Error("Expected LastUsed to be set")
		}
	})
}
