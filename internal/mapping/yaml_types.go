package mapping

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// UnmarshalYAML implements custom YAML unmarshaling for DeclList.
func (l *DeclList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var name string

		err := node.Decode(&name)
		if err != nil {
			return err
		}

		if name == "" {
			*l = DeclList{}
		} else {
			*l = DeclList{Field(name)}
		}

		return nil

	case yaml.MappingNode:
		decls, err := decodePairs(node)
		if err != nil {
			return err
		}

		*l = decls

		return nil

	case yaml.SequenceNode:
		out := make(DeclList, 0, len(node.Content))

		for _, item := range node.Content {
			switch item.Kind {
			case yaml.ScalarNode:
				out = append(out, Field(item.Value))

			case yaml.MappingNode:
				if len(item.Content) != 2 {
					return fmt.Errorf("line %d: expected a single key: value entry", item.Line)
				}

				pairs, err := decodePairs(item)
				if err != nil {
					return err
				}

				out = append(out, pairs...)

			default:
				return fmt.Errorf("line %d: expected name or key: value entry", item.Line)
			}
		}

		*l = out

		return nil

	default:
		return fmt.Errorf("expected name, list or mapping, got %v", node.Kind)
	}
}

// MarshalYAML writes positional entries as names and the rest as single-key maps.
func (l DeclList) MarshalYAML() (any, error) {
	out := make([]any, 0, len(l))

	for _, d := range l {
		if d.IsPositional() {
			out = append(out, d.Value)
			continue
		}

		out = append(out, map[string]string{d.Key: d.Value})
	}

	return out, nil
}

// decodePairs reads a mapping node's key/value pairs in document order.
func decodePairs(node *yaml.Node) (DeclList, error) {
	out := make(DeclList, 0, len(node.Content)/2)

	for i := 0; i+1 < len(node.Content); i += 2 {
		k, v := node.Content[i], node.Content[i+1]
		if k.Kind != yaml.ScalarNode || v.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("line %d: field map entries must be scalars", k.Line)
		}

		out = append(out, Pair(k.Value, v.Value))
	}

	return out, nil
}
