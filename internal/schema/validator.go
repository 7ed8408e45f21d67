// Package schema validates event payloads against per-event JSON
// Schema documents.
package schema

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// Validate checks a JSON payload against a JSON Schema document and
// returns the list of validation error descriptions, in schema order.
// An empty list means the payload is valid. A schema that fails to
// compile is a configuration error, reported via the error return, and
// never attributed to the payload.
func Validate(schemaDocument string, payload []byte) ([]string, error) {
	compiled, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(schemaDocument))
	if err != nil {
		return nil, fmt.Errorf("failed to compile event schema: %w", err)
	}

	result, err := compiled.Validate(gojsonschema.NewBytesLoader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to validate payload: %w", err)
	}

	if result.Valid() {
		return nil, nil
	}

	messages := make([]string, 0, len(result.Errors()))
	for _, resultError := range result.Errors() {
		messages = append(messages, resultError.String())
	}
	return messages, nil
}

// Compile checks that a schema document is a usable JSON Schema.
// Used at publisher registration time so broken schemas are rejected
// before any payload ever reaches them.
func Compile(schemaDocument string) error {
	if _, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(schemaDocument)); err != nil {
		return fmt.Errorf("failed to compile event schema: %w", err)
	}
	return nil
}
