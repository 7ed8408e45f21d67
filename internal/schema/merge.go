package schema

import (
	"encoding/json"
	"fmt"
)

// MergeDefinitions inlines shared definitions into a schema document so
// the schema can be compiled standalone. Definitions already declared
// by the schema itself win over shared ones. A nil or empty shared
// document returns the schema unchanged.
func MergeDefinitions(schemaDocument, sharedDefinitions json.RawMessage) (string, error) {
	if len(sharedDefinitions) == 0 || string(sharedDefinitions) == "null" {
		return string(schemaDocument), nil
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(schemaDocument, &doc); err != nil {
		return "", fmt.Errorf("failed to parse schema document: %w", err)
	}

	var shared map[string]json.RawMessage
	if err := json.Unmarshal(sharedDefinitions, &shared); err != nil {
		return "", fmt.Errorf("failed to parse shared definitions: %w", err)
	}

	own := map[string]json.RawMessage{}
	if existing, ok := doc["definitions"]; ok {
		if err := json.Unmarshal(existing, &own); err != nil {
			return "", fmt.Errorf("failed to parse schema definitions: %w", err)
		}
	}

	for name, definition := range shared {
		if _, ok := own[name]; !ok {
			own[name] = definition
		}
	}

	merged, err := json.Marshal(own)
	if err != nil {
		return "", err
	}
	doc["definitions"] = merged

	out, err := json.Marshal(doc)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
