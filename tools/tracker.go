package tools

import "strings"

// CallRecord tracks one in-flight tool invocation. Lifetime is a single
// execution; records are created on tool-start and removed on resolve.
type CallRecord struct {
	ID    string
	Name  string
	Input string // accumulated raw JSON argument fragments
}

// CallTracker maps tool-call ids to their name and accumulated input.
// Mappers consult it when a backend resolves a call, to decide which
// structured data chunks to emit alongside the tool-result.
// One tracker per execution; construct fresh, never reuse across turns.
type CallTracker struct {
	calls map[string]*CallRecord
	order []string
}

// NewCallTracker creates an empty tracker
func NewCallTracker() *CallTracker {
	return &CallTracker{calls: make(map[string]*CallRecord)}
}

// Start registers a new call. Re-registering an id overwrites the record;
// backends that replay a start event are treated as restating, not erroring.
func (t *CallTracker) Start(id, name string) {
	if id == "" {
		return
	}
	if _, exists := t.calls[id]; !exists {
		t.order = append(t.order, id)
	}
	t.calls[id] = &CallRecord{ID: id, Name: name}
}

// AppendInput accumulates an argument fragment for a started call.
// Unknown ids are a no-op: a backend may stream input for calls the
// mapper never saw start, e.g. across a reconnect.
func (t *CallTracker) AppendInput(id, fragment string) {
	if rec, ok := t.calls[id]; ok {
		rec.Input += fragment
	}
}

// Resolve removes and returns the record for id. The second return is
// false for unknown ids, which callers must treat as a no-op.
func (t *CallTracker) Resolve(id string) (CallRecord, bool) {
	rec, ok := t.calls[id]
	if !ok {
		return CallRecord{}, false
	}
	delete(t.calls, id)
	return *rec, true
}

// Open returns the ids of calls that started but never resolved, in start
// order. An aborted execution legitimately leaves calls open.
func (t *CallTracker) Open() []string {
	var open []string
	for _, id := range t.order {
		if _, ok := t.calls[id]; ok {
			open = append(open, id)
		}
	}
	return open
}

// Tool name classification. Backend tool vocabularies differ; these tables
// cover the names observed across the supported backends.

var fileWriteTools = map[string]bool{
	"write":        true,
	"edit":         true,
	"multiedit":    true,
	"notebookedit": true,
	"write_file":   true,
	"edit_file":    true,
	"apply_patch":  true,
	"file_change":  true,
}

var commandTools = map[string]bool{
	"bash":              true,
	"shell":             true,
	"local_shell":       true,
	"command_execution": true,
	"exec_command":      true,
}

// IsFileWrite reports whether name denotes a file-writing tool
func IsFileWrite(name string) bool {
	return fileWriteTools[strings.ToLower(name)]
}

// IsCommand reports whether name denotes a command-execution tool
func IsCommand(name string) bool {
	return commandTools[strings.ToLower(name)]
}
