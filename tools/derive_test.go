package tools

import (
	"testing"

	"github.com/alexschlessinger/agentpipe/chunks"
)

func TestDeriveFileWritten(t *testing.T) {
	tests := []struct {
		name     string
		rec      CallRecord
		wantPath string
	}{
		{
			name:     "file_path key",
			rec:      CallRecord{ID: "t1", Name: "Write", Input: `{"file_path":"/tmp/a.txt","content":"x"}`},
			wantPath: "/tmp/a.txt",
		},
		{
			name:     "path key",
			rec:      CallRecord{ID: "t1", Name: "edit_file", Input: `{"path":"main.go"}`},
			wantPath: "main.go",
		},
		{
			name:     "camelCase key",
			rec:      CallRecord{ID: "t1", Name: "write", Input: `{"filePath":"b.go"}`},
			wantPath: "b.go",
		},
		{
			name:     "notebook key",
			rec:      CallRecord{ID: "t1", Name: "NotebookEdit", Input: `{"notebook_path":"nb.ipynb"}`},
			wantPath: "nb.ipynb",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := DeriveData(tt.rec, "ok", false)
			if len(out) != 1 {
				t.Fatalf("Expected 1 data chunk, got %d", len(out))
			}
			if out[0].DataType != chunks.DataFileWritten {
				t.Errorf("DataType = %s; want %s", out[0].DataType, chunks.DataFileWritten)
			}
			if out[0].Payload["path"] != tt.wantPath {
				t.Errorf("path = %v; want %s", out[0].Payload["path"], tt.wantPath)
			}
		})
	}
}

func TestDeriveFileWrittenSkips(t *testing.T) {
	// An errored write produced no file
	if out := DeriveData(CallRecord{Name: "Write", Input: `{"file_path":"/tmp/a"}`}, "denied", true); out != nil {
		t.Errorf("Expected nil for errored write, got %v", out)
	}

	// No recoverable path
	if out := DeriveData(CallRecord{Name: "Write", Input: `{"content":"x"}`}, "ok", false); out != nil {
		t.Errorf("Expected nil without path, got %v", out)
	}
}

func TestDeriveCommandOutputStructured(t *testing.T) {
	rec := CallRecord{ID: "t1", Name: "Bash", Input: `{"command":"make test"}`}
	output := `{"stdout":"PASS\n","stderr":"warning: slow\n","exit_code":0}`

	out := DeriveData(rec, output, false)
	if len(out) != 2 {
		t.Fatalf("Expected 2 data chunks (one per stream), got %d", len(out))
	}

	if out[0].Payload["stream"] != "stdout" || out[0].Payload["output"] != "PASS\n" {
		t.Errorf("stdout chunk = %v", out[0].Payload)
	}
	if out[1].Payload["stream"] != "stderr" || out[1].Payload["output"] != "warning: slow\n" {
		t.Errorf("stderr chunk = %v", out[1].Payload)
	}
	for _, c := range out {
		if c.Payload["command"] != "make test" {
			t.Errorf("command = %v; want 'make test'", c.Payload["command"])
		}
	}
}

func TestDeriveCommandOutputPlain(t *testing.T) {
	rec := CallRecord{ID: "t1", Name: "local_shell", Input: `{"command":"ls"}`}

	out := DeriveData(rec, "file.go\n", false)
	if len(out) != 1 {
		t.Fatalf("Expected 1 data chunk, got %d", len(out))
	}
	if out[0].Payload["stream"] != "stdout" {
		t.Errorf("stream = %v; want stdout", out[0].Payload["stream"])
	}

	// Plain output on error lands on stderr with a synthesized exit code
	out = DeriveData(rec, "not found", true)
	if len(out) != 1 {
		t.Fatalf("Expected 1 data chunk, got %d", len(out))
	}
	if out[0].Payload["stream"] != "stderr" {
		t.Errorf("stream = %v; want stderr", out[0].Payload["stream"])
	}
	if out[0].Payload["exitCode"] != int64(1) {
		t.Errorf("exitCode = %v; want 1", out[0].Payload["exitCode"])
	}
}

func TestDeriveCommandOutputEmpty(t *testing.T) {
	rec := CallRecord{ID: "t1", Name: "bash", Input: `{"command":"true"}`}
	if out := DeriveData(rec, "", false); out != nil {
		t.Errorf("Expected nil for empty output, got %v", out)
	}
}

func TestDeriveNothingForOtherTools(t *testing.T) {
	rec := CallRecord{ID: "t1", Name: "Read", Input: `{"file_path":"/tmp/a"}`}
	if out := DeriveData(rec, "contents", false); out != nil {
		t.Errorf("Expected nil for non-write non-command tool, got %v", out)
	}
}
