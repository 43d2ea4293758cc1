package tools

import (
	"testing"
)

func TestTrackerLifecycle(t *testing.T) {
	tracker := NewCallTracker()

	tracker.Start("t1", "Write")
	tracker.AppendInput("t1", `{"file_path":`)
	tracker.AppendInput("t1", `"/tmp/a.txt"}`)

	rec, ok := tracker.Resolve("t1")
	if !ok {
		t.Fatal("Expected to resolve t1")
	}
	if rec.Name != "Write" {
		t.Errorf("Name = %s; want Write", rec.Name)
	}
	if rec.Input != `{"file_path":"/tmp/a.txt"}` {
		t.Errorf("Input = %s; want accumulated fragments", rec.Input)
	}

	// Resolving twice is a no-op
	if _, ok := tracker.Resolve("t1"); ok {
		t.Error("Expected second resolve to fail")
	}
}

func TestTrackerUnknownIDs(t *testing.T) {
	tracker := NewCallTracker()

	// Input for a call that never started is dropped
	tracker.AppendInput("ghost", "{}")
	if _, ok := tracker.Resolve("ghost"); ok {
		t.Error("Expected unknown id to not resolve")
	}

	tracker.Start("", "nameless")
	if len(tracker.Open()) != 0 {
		t.Error("Expected empty id to be ignored")
	}
}

func TestTrackerOpen(t *testing.T) {
	tracker := NewCallTracker()

	tracker.Start("t1", "bash")
	tracker.Start("t2", "edit")
	tracker.Start("t3", "read")
	tracker.Resolve("t2")

	open := tracker.Open()
	if len(open) != 2 || open[0] != "t1" || open[1] != "t3" {
		t.Errorf("Open() = %v; want [t1 t3] in start order", open)
	}
}

func TestTrackerRestart(t *testing.T) {
	tracker := NewCallTracker()

	tracker.Start("t1", "bash")
	tracker.AppendInput("t1", `{"command":"ls"}`)
	// A replayed start restates the call and drops stale input
	tracker.Start("t1", "bash")

	rec, _ := tracker.Resolve("t1")
	if rec.Input != "" {
		t.Errorf("Expected input reset on restart, got %s", rec.Input)
	}
}

func TestToolClassification(t *testing.T) {
	tests := []struct {
		name        string
		isFileWrite bool
		isCommand   bool
	}{
		{"Write", true, false},
		{"edit", true, false},
		{"MultiEdit", true, false},
		{"apply_patch", true, false},
		{"file_change", true, false},
		{"Bash", false, true},
		{"local_shell", false, true},
		{"command_execution", false, true},
		{"Read", false, false},
		{"webfetch", false, false},
	}

	for _, tt := range tests {
		if got := IsFileWrite(tt.name); got != tt.isFileWrite {
			t.Errorf("IsFileWrite(%s) = %v; want %v", tt.name, got, tt.isFileWrite)
		}
		if got := IsCommand(tt.name); got != tt.isCommand {
			t.Errorf("IsCommand(%s) = %v; want %v", tt.name, got, tt.isCommand)
		}
	}
}
