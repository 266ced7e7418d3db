package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ValueOption is one selectable option on a multi-select component.
type ValueOption struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// ChildGroup holds one array-valued property of a schema node (components,
// columns, rows, ...) in the position it appears in the design document.
type ChildGroup struct {
	Property string
	Nodes    []SchemaNode
}

// SchemaNode is one node of a form design document. Designs are authored as
// arbitrary nested JSON; field order in that JSON is the canonical display
// order, so decoding has to preserve the order of array-valued properties.
// Standard struct unmarshalling loses it, hence the custom decoder below.
type SchemaNode struct {
	Key      string
	Type     string
	Input    bool
	Hidden   bool
	Values   []ValueOption
	Children []ChildGroup
}

// UnmarshalJSON decodes a design document node while keeping its child
// collections in document order. Scalar properties other than the ones we
// care about are dropped; object-valued properties are ignored (only arrays
// can hold child nodes); arrays of non-objects (tags, etc.) are skipped.
func (n *SchemaNode) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("schema node: expected object, got %v", tok)
	}

	*n = SchemaNode{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		name, _ := keyTok.(string)

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return err
		}
		n.setProperty(name, raw)
	}

	// consume closing brace
	_, err = dec.Token()
	return err
}

// setProperty is tolerant of odd value types: designs are user-authored and
// a mistyped attribute should degrade to "not a field", not fail the export.
func (n *SchemaNode) setProperty(name string, raw json.RawMessage) {
	switch name {
	case "key":
		_ = json.Unmarshal(raw, &n.Key)
	case "type":
		_ = json.Unmarshal(raw, &n.Type)
	case "input":
		_ = json.Unmarshal(raw, &n.Input)
	case "hidden":
		_ = json.Unmarshal(raw, &n.Hidden)
	case "values":
		var opts []ValueOption
		if err := json.Unmarshal(raw, &opts); err == nil {
			n.Values = opts
		}
	default:
		trimmed := bytes.TrimSpace(raw)
		if len(trimmed) == 0 || trimmed[0] != '[' {
			return
		}
		var elems []json.RawMessage
		if err := json.Unmarshal(trimmed, &elems); err != nil || len(elems) == 0 {
			return
		}
		nodes := make([]SchemaNode, 0, len(elems))
		for _, e := range elems {
			e = bytes.TrimSpace(e)
			if len(e) == 0 || e[0] != '{' {
				continue
			}
			var child SchemaNode
			if err := json.Unmarshal(e, &child); err != nil {
				continue
			}
			nodes = append(nodes, child)
		}
		if len(nodes) > 0 {
			n.Children = append(n.Children, ChildGroup{Property: name, Nodes: nodes})
		}
	}
}
