package tools

import (
	"strings"

	"github.com/alexschlessinger/agentpipe/chunks"
	"github.com/tidwall/gjson"
)

// DeriveData inspects a resolved tool call and produces the structured
// side-channel chunks implied by it: file-writing tools yield a
// file-written event with the path recovered from the accumulated input,
// command tools yield one command-output event per captured stream.
// Calls that imply nothing return nil.
func DeriveData(rec CallRecord, output string, isError bool) []*chunks.Chunk {
	switch {
	case IsFileWrite(rec.Name):
		return deriveFileWritten(rec, isError)
	case IsCommand(rec.Name):
		return deriveCommandOutput(rec, output, isError)
	}
	return nil
}

func deriveFileWritten(rec CallRecord, isError bool) []*chunks.Chunk {
	if isError {
		return nil
	}

	// Backends disagree on the argument key for the target path
	var path string
	for _, key := range []string{"file_path", "path", "filePath", "notebook_path"} {
		if v := gjson.Get(rec.Input, key); v.Exists() {
			path = v.String()
			break
		}
	}
	if path == "" {
		return nil
	}

	return []*chunks.Chunk{
		chunks.Data(chunks.DataFileWritten, map[string]any{
			"path": path,
			"tool": rec.Name,
		}),
	}
}

func deriveCommandOutput(rec CallRecord, output string, isError bool) []*chunks.Chunk {
	command := gjson.Get(rec.Input, "command").String()

	// Structured output carries separate streams and an exit code; plain
	// string output is treated as stdout (stderr on error).
	stdout := gjson.Get(output, "stdout")
	stderr := gjson.Get(output, "stderr")
	exitCode := int64(0)
	if code := gjson.Get(output, "exit_code"); code.Exists() {
		exitCode = code.Int()
	} else if isError {
		exitCode = 1
	}

	var result []*chunks.Chunk
	emit := func(stream, content string) {
		if strings.TrimSpace(content) == "" {
			return
		}
		result = append(result, chunks.Data(chunks.DataCommandOutput, map[string]any{
			"command":  command,
			"stream":   stream,
			"output":   content,
			"exitCode": exitCode,
		}))
	}

	if stdout.Exists() || stderr.Exists() {
		emit("stdout", stdout.String())
		emit("stderr", stderr.String())
	} else if isError {
		emit("stderr", output)
	} else {
		emit("stdout", output)
	}
	return result
}
