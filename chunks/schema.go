package chunks

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/invopop/jsonschema"
	"github.com/xeipuuv/gojsonschema"
)

var (
	schemaOnce   sync.Once
	recordSchema *gojsonschema.Schema
	schemaErr    error
)

// RecordSchema returns the JSON schema for a chunk record, reflected from
// the Chunk type. Computed once; safe for concurrent use.
func RecordSchema() (map[string]any, error) {
	reflector := &jsonschema.Reflector{
		DoNotReference: true,
		ExpandedStruct: true,
	}
	raw, err := json.Marshal(reflector.Reflect(&Chunk{}))
	if err != nil {
		return nil, fmt.Errorf("failed to reflect chunk schema: %w", err)
	}
	var schema map[string]any
	if err := json.Unmarshal(raw, &schema); err != nil {
		return nil, fmt.Errorf("failed to parse chunk schema: %w", err)
	}
	return schema, nil
}

func compiledSchema() (*gojsonschema.Schema, error) {
	schemaOnce.Do(func() {
		raw, err := RecordSchema()
		if err != nil {
			schemaErr = err
			return
		}
		recordSchema, schemaErr = gojsonschema.NewSchema(gojsonschema.NewGoLoader(raw))
	})
	return recordSchema, schemaErr
}

// ValidateRecord checks one wire line against the chunk record schema.
// Used by the strict decoder; the default decode path skips validation
// because backend noise is expected and dropped.
func ValidateRecord(line string) error {
	schema, err := compiledSchema()
	if err != nil {
		return err
	}

	result, err := schema.Validate(gojsonschema.NewStringLoader(line))
	if err != nil {
		return fmt.Errorf("invalid chunk record: %w", err)
	}
	if !result.Valid() {
		problems := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			problems = append(problems, desc.String())
		}
		return fmt.Errorf("chunk record failed validation: %s", strings.Join(problems, "; "))
	}
	return nil
}
