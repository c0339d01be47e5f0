package platform

import (
	"fmt"
	"os"

	yaml "gopkg.in/yaml.v3"
)

// ParseTables decodes a layer document with "tests" and
// "web_platform_tests" exclusion tables. Unknown keys are rejected.
func ParseTables(data []byte) (Tables, error) {
	var t Tables
	if len(data) == 0 {
		return t, nil
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Tables{}, fmt.Errorf("parsing layer: %w", err)
	}
	if len(doc.Content) == 0 {
		return t, nil
	}
	root := doc.Content[0]
	if root.Kind == yaml.MappingNode {
		for i := 0; i < len(root.Content); i += 2 {
			switch key := root.Content[i].Value; key {
			case "tests", "web_platform_tests":
			default:
				return Tables{}, fmt.Errorf("parsing layer: line %d: unknown key %q", root.Content[i].Line, key)
			}
		}
	}
	if err := root.Decode(&t); err != nil {
		return Tables{}, fmt.Errorf("parsing layer: %w", err)
	}
	return t, nil
}

// LoadLayer reads a layer document from path and stacks it on ancestor.
func LoadLayer(name string, ancestor Configuration, path string) (*Layer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading layer: %w", err)
	}
	tables, err := ParseTables(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return NewLayer(name, ancestor, tables), nil
}
