// Package lineio turns a raw fragment stream into complete textual records.
// Backend processes write line-oriented JSON, but reads can split a record
// anywhere; the buffer holds the single trailing partial line until its
// newline arrives.
package lineio

import (
	"io"
	"strings"
)

// LineBuffer accumulates fragments and yields complete, trimmed lines.
// State is bounded: only the one pending partial line is retained.
// Restartable at execution granularity only, not resumable mid-stream.
type LineBuffer struct {
	pending strings.Builder
}

// Write appends a fragment and returns all lines completed by it.
// Blank and whitespace-only lines are dropped.
func (b *LineBuffer) Write(fragment string) []string {
	if fragment == "" {
		return nil
	}

	b.pending.WriteString(fragment)
	buffered := b.pending.String()
	if !strings.Contains(buffered, "\n") {
		return nil
	}

	parts := strings.Split(buffered, "\n")
	b.pending.Reset()
	// The last element may be an incomplete record; keep it buffered
	b.pending.WriteString(parts[len(parts)-1])

	var lines []string
	for _, part := range parts[:len(parts)-1] {
		if line := strings.TrimSpace(part); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// Flush returns the pending partial record, if any, and resets the buffer.
// Called on stream close so a final unterminated record is not lost.
func (b *LineBuffer) Flush() (string, bool) {
	line := strings.TrimSpace(b.pending.String())
	b.pending.Reset()
	if line == "" {
		return "", false
	}
	return line, true
}

// Scan reads r to EOF, invoking fn for every complete line including a
// trailing unterminated record. fn errors abort the scan.
func Scan(r io.Reader, fn func(line string) error) error {
	var buffer LineBuffer
	chunk := make([]byte, 32*1024)

	for {
		n, err := r.Read(chunk)
		if n > 0 {
			for _, line := range buffer.Write(string(chunk[:n])) {
				if ferr := fn(line); ferr != nil {
					return ferr
				}
			}
		}
		if err == io.EOF {
			if line, ok := buffer.Flush(); ok {
				return fn(line)
			}
			return nil
		}
		if err != nil {
			return err
		}
	}
}
