package schema

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateAcceptsMatchingPayload(t *testing.T) {
	schema := `{"properties":{"prop1":{"type":"integer"}}}`

	errors, err := Validate(schema, []byte(`{"prop1":1}`))

	require.NoError(t, err)
	assert.Empty(t, errors)
}

func TestValidateReportsEveryFailure(t *testing.T) {
	schema := `{
		"properties": {
			"prop1": {"type": "integer"},
			"prop2": {"type": "string"}
		},
		"required": ["prop1", "prop2"]
	}`

	errors, err := Validate(schema, []byte(`{"prop1":true}`))

	require.NoError(t, err)
	require.Len(t, errors, 2)
	assert.Contains(t, errors[0]+errors[1], "prop1")
	assert.Contains(t, errors[0]+errors[1], "prop2")
}

func TestValidateTreatsBrokenSchemaAsConfigError(t *testing.T) {
	_, err := Validate(`{"type": 42}`, []byte(`{}`))

	assert.Error(t, err)
}

func TestCompileRejectsBrokenSchema(t *testing.T) {
	assert.Error(t, Compile(`{"type": 42}`))
	assert.NoError(t, Compile(`{"properties":{"prop1":{"type":"integer"}}}`))
}

func TestMergeDefinitionsInlinesSharedDefinitions(t *testing.T) {
	schema := json.RawMessage(`{"properties":{"thing":{"$ref":"#/definitions/thing"}}}`)
	shared := json.RawMessage(`{"thing":{"type":"string"}}`)

	merged, err := MergeDefinitions(schema, shared)
	require.NoError(t, err)

	errors, err := Validate(merged, []byte(`{"thing":"ok"}`))
	require.NoError(t, err)
	assert.Empty(t, errors)

	errors, err = Validate(merged, []byte(`{"thing":7}`))
	require.NoError(t, err)
	assert.NotEmpty(t, errors)
}

func TestMergeDefinitionsSchemaOwnDefinitionsWin(t *testing.T) {
	schema := json.RawMessage(`{
		"properties": {"thing": {"$ref": "#/definitions/thing"}},
		"definitions": {"thing": {"type": "integer"}}
	}`)
	shared := json.RawMessage(`{"thing":{"type":"string"}}`)

	merged, err := MergeDefinitions(schema, shared)
	require.NoError(t, err)

	errors, err := Validate(merged, []byte(`{"thing":3}`))
	require.NoError(t, err)
	assert.Empty(t, errors)
}

func TestMergeDefinitionsNoSharedLeavesSchemaUnchanged(t *testing.T) {
	schema := json.RawMessage(`{"properties":{"prop1":{"type":"integer"}}}`)

	merged, err := MergeDefinitions(schema, nil)

	require.NoError(t, err)
	assert.JSONEq(t, string(schema), merged)
}
