package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemaNode_DecodePreservesChildOrder(t *testing.T) {
	doc := `{
		"type": "form",
		"components": [
			{"key": "zulu", "type": "textfield", "input": true},
			{"key": "alpha", "type": "textfield", "input": true},
			{"key": "mike", "type": "textfield", "input": true}
		]
	}`
	var node SchemaNode
	require.NoError(t, json.Unmarshal([]byte(doc), &node))

	require.Len(t, node.Children, 1)
	assert.Equal(t, "components", node.Children[0].Property)
	keys := make([]string, 0, 3)
	for _, c := range node.Children[0].Nodes {
		keys = append(keys, c.Key)
	}
	assert.Equal(t, []string{"zulu", "alpha", "mike"}, keys)
}

func TestSchemaNode_DecodeMultipleArrayProperties(t *testing.T) {
	doc := `{
		"key": "table",
		"rows": [
			{"key": "r1", "input": true}
		],
		"columns": [
			{"key": "c1", "input": true}
		]
	}`
	var node SchemaNode
	require.NoError(t, json.Unmarshal([]byte(doc), &node))

	require.Len(t, node.Children, 2)
	assert.Equal(t, "rows", node.Children[0].Property)
	assert.Equal(t, "columns", node.Children[1].Property)
}

func TestSchemaNode_DecodeScalarAndOddProperties(t *testing.T) {
	doc := `{
		"key": "field",
		"type": "textfield",
		"input": true,
		"hidden": false,
		"label": "ignored",
		"tags": ["a", "b"],
		"conditional": {"show": true},
		"values": [{"label": "Yes", "value": "yes"}]
	}`
	var node SchemaNode
	require.NoError(t, json.Unmarshal([]byte(doc), &node))

	assert.Equal(t, "field", node.Key)
	assert.Equal(t, "textfield", node.Type)
	assert.True(t, node.Input)
	assert.False(t, node.Hidden)
	require.Len(t, node.Values, 1)
	assert.Equal(t, "yes", node.Values[0].Value)
	// tags and conditional hold no child nodes
	assert.Empty(t, node.Children)
}

func TestSchemaNode_MistypedAttributeDegrades(t *testing.T) {
	doc := `{"key": 42, "input": "yes", "components": []}`
	var node SchemaNode
	require.NoError(t, json.Unmarshal([]byte(doc), &node))
	assert.Equal(t, "", node.Key)
	assert.False(t, node.Input)
	assert.Empty(t, node.Children)
}

func TestFormSnake(t *testing.T) {
	cases := []struct {
		name string
		want string
	}{
		{"Volunteer Signup", "volunteer_signup"},
		{"  Fishing Licence (2024)  ", "fishing_licence_2024"},
		{"ALLCAPS", "allcaps"},
		{"---", "form"},
	}
	for _, tc := range cases {
		f := &Form{Name: tc.name}
		assert.Equal(t, tc.want, f.Snake(), "name %q", tc.name)
	}
}
