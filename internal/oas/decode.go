package oas

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/buger/jsonparser"
	"gopkg.in/yaml.v3"
)

// DecodeJSON decodes a JSON document into an order-preserving value tree.
// Numbers are kept as json.Number so example payloads round-trip exactly.
func DecodeJSON(data []byte) (any, error) {
	// jsonparser is lenient about trailing garbage, so reject anything the
	// standard decoder would refuse before walking it.
	if !json.Valid(data) {
		return nil, fmt.Errorf("invalid JSON")
	}
	raw, dataType, _, err := jsonparser.Get(data)
	if err != nil {
		return nil, err
	}
	return convertJSON(raw, dataType)
}

func convertJSON(raw []byte, dataType jsonparser.ValueType) (any, error) {
	switch dataType {
	case jsonparser.Object:
		obj := NewObject()
		err := jsonparser.ObjectEach(raw, func(key, value []byte, dt jsonparser.ValueType, _ int) error {
			v, err := convertJSON(value, dt)
			if err != nil {
				return err
			}
			obj.Set(string(key), v)
			return nil
		})
		if err != nil {
			return nil, err
		}
		return obj, nil

	case jsonparser.Array:
		items := []any{}
		var itemErr error
		_, err := jsonparser.ArrayEach(raw, func(value []byte, dt jsonparser.ValueType, _ int, err error) {
			if itemErr != nil {
				return
			}
			if err != nil {
				itemErr = err
				return
			}
			v, err := convertJSON(value, dt)
			if err != nil {
				itemErr = err
				return
			}
			items = append(items, v)
		})
		if err != nil {
			return nil, err
		}
		if itemErr != nil {
			return nil, itemErr
		}
		return items, nil

	case jsonparser.String:
		return jsonparser.ParseString(raw)

	case jsonparser.Number:
		return json.Number(string(raw)), nil

	case jsonparser.Boolean:
		return jsonparser.ParseBoolean(raw)

	case jsonparser.Null:
		return nil, nil

	default:
		return nil, fmt.Errorf("unexpected JSON value %q", raw)
	}
}

// DecodeYAML decodes a YAML document into the same value tree DecodeJSON
// produces. Mapping key order is preserved.
func DecodeYAML(data []byte) (any, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, err
	}
	if root.Kind == 0 {
		return nil, fmt.Errorf("empty YAML document")
	}
	return convertYAML(&root)
}

func convertYAML(n *yaml.Node) (any, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return convertYAML(n.Content[0])

	case yaml.AliasNode:
		return convertYAML(n.Alias)

	case yaml.MappingNode:
		obj := NewObject()
		for i := 0; i+1 < len(n.Content); i += 2 {
			k, v := n.Content[i], n.Content[i+1]
			if k.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("line %d: mapping key must be a scalar", k.Line)
			}
			val, err := convertYAML(v)
			if err != nil {
				return nil, err
			}
			obj.Set(k.Value, val)
		}
		return obj, nil

	case yaml.SequenceNode:
		items := make([]any, 0, len(n.Content))
		for _, c := range n.Content {
			val, err := convertYAML(c)
			if err != nil {
				return nil, err
			}
			items = append(items, val)
		}
		return items, nil

	case yaml.ScalarNode:
		var v any
		if err := n.Decode(&v); err != nil {
			return nil, fmt.Errorf("line %d: %w", n.Line, err)
		}
		switch t := v.(type) {
		case int:
			return json.Number(strconv.Itoa(t)), nil
		case int64:
			return json.Number(strconv.FormatInt(t, 10)), nil
		case uint64:
			return json.Number(strconv.FormatUint(t, 10)), nil
		case float64:
			if math.IsInf(t, 0) || math.IsNaN(t) {
				return n.Value, nil
			}
			return json.Number(strconv.FormatFloat(t, 'g', -1, 64)), nil
		case string, bool, nil:
			return t, nil
		default:
			// Timestamps and binary scalars are kept as their source text.
			return n.Value, nil
		}

	default:
		return nil, fmt.Errorf("line %d: unsupported YAML node", n.Line)
	}
}
