package chunks

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"
)

// Encoder writes chunks as newline-delimited JSON, one chunk per line.
// This is the outbound wire protocol; consumers parse it line by line.
type Encoder struct {
	w io.Writer
}

// NewEncoder creates an NDJSON chunk encoder
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w}
}

// Encode writes one chunk followed by a newline
func (e *Encoder) Encode(c *Chunk) error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode chunk: %w", err)
	}
	data = append(data, '\n')
	if _, err := e.w.Write(data); err != nil {
		return fmt.Errorf("failed to write chunk: %w", err)
	}
	return nil
}

// Decoder reads an NDJSON chunk stream line by line. Lines that fail to
// parse are dropped silently: backend diagnostic noise interleaved in the
// stream must not abort the session. With a guard attached, lines that
// decode but violate stream invariants are reported as errors instead.
type Decoder struct {
	scanner *bufio.Scanner
	guard   *StreamGuard
	strict  bool
}

// NewDecoder creates an NDJSON chunk decoder
func NewDecoder(r io.Reader) *Decoder {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	return &Decoder{scanner: scanner}
}

// Strict enables schema validation and invariant checking per record
func (d *Decoder) Strict() *Decoder {
	d.strict = true
	d.guard = NewStreamGuard()
	return d
}

// Decode returns the next chunk, or io.EOF when the stream ends
func (d *Decoder) Decode() (*Chunk, error) {
	for d.scanner.Scan() {
		line := strings.TrimSpace(d.scanner.Text())
		if line == "" {
			continue
		}

		if d.strict {
			if err := ValidateRecord(line); err != nil {
				return nil, err
			}
		}

		var c Chunk
		if err := json.Unmarshal([]byte(line), &c); err != nil {
			zap.S().Debugw("chunk_decode_skip", "error", err)
			continue
		}
		if c.Type == "" {
			continue
		}

		if d.guard != nil {
			if err := d.guard.Observe(&c); err != nil {
				return nil, err
			}
		}
		return &c, nil
	}
	if err := d.scanner.Err(); err != nil {
		return nil, err
	}
	return nil, io.EOF
}

// DecodeAll drains the stream into a slice
func (d *Decoder) DecodeAll() ([]*Chunk, error) {
	var result []*Chunk
	for {
		c, err := d.Decode()
		if err == io.EOF {
			return result, nil
		}
		if err != nil {
			return result, err
		}
		result = append(result, c)
	}
}
