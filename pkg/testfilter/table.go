package testfilter

import (
	"errors"
	"fmt"
	"strings"

	yaml "gopkg.in/yaml.v3"
)

// ErrInvalidTable is returned when exclusion table data is malformed.
var ErrInvalidTable = errors.New("invalid exclusion table")

// Entry is a single excluded test case within a suite.
type Entry struct {
	Test   string `yaml:"test"`
	Config string `yaml:"config,omitempty"`
}

// Suite is the list of excluded test cases for one target.
type Suite struct {
	Name    string
	Entries []Entry
}

// NewSuite creates a suite excluding the given tests in every build config.
func NewSuite(name string, tests ...string) Suite {
	s := Suite{Name: name, Entries: make([]Entry, 0, len(tests))}
	for _, t := range tests {
		s.Entries = append(s.Entries, Entry{Test: t})
	}
	return s
}

// ExclusionTable maps suite names to excluded test cases, preserving the
// order suites and tests were declared in. A table is immutable once built
// and safe for concurrent use. The nil table is empty.
type ExclusionTable struct {
	suites []Suite
}

// NewTable builds a table from suites. Entries for a repeated suite name are
// merged into the first occurrence.
func NewTable(suites ...Suite) *ExclusionTable {
	t := &ExclusionTable{}
	index := make(map[string]int, len(suites))
	for _, s := range suites {
		i, ok := index[s.Name]
		if !ok {
			i = len(t.suites)
			index[s.Name] = i
			t.suites = append(t.suites, Suite{Name: s.Name})
		}
		t.suites[i].Entries = append(t.suites[i].Entries, s.Entries...)
	}
	return t
}

// Suites returns a copy of the table contents.
func (t *ExclusionTable) Suites() []Suite {
	if t == nil {
		return nil
	}
	out := make([]Suite, len(t.suites))
	for i, s := range t.suites {
		out[i] = Suite{Name: s.Name, Entries: append([]Entry(nil), s.Entries...)}
	}
	return out
}

// Len returns the total number of entries across all suites.
func (t *ExclusionTable) Len() int {
	if t == nil {
		return 0
	}
	n := 0
	for _, s := range t.suites {
		n += len(s.Entries)
	}
	return n
}

// Filters returns one TestFilter per entry, suites in table order and tests
// in their listed order. Each call allocates a fresh slice.
func (t *ExclusionTable) Filters() []TestFilter {
	if t == nil {
		return nil
	}
	out := make([]TestFilter, 0, t.Len())
	for _, s := range t.suites {
		for _, e := range s.Entries {
			out = append(out, New(s.Name, e.Test, WithConfig(e.Config)))
		}
	}
	return out
}

// ParseTable decodes a YAML exclusion table. The document is a mapping of
// suite name to a sequence of test names; a sequence item may instead be a
// mapping with "test" and "config" keys. An empty document is an empty table.
//
//	base_unittests:
//	  - StackTraceTest.TruncatedTrace
//	  - test: ZipReaderTest.ExtractToFileAsync_RegularFile
//	    config: debug
func ParseTable(data []byte) (*ExclusionTable, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidTable, err)
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return NewTable(), nil
	}
	return tableFromNode(doc.Content[0])
}

// tableFromNode converts a mapping node into a table. It is also used for
// tables nested inside larger documents.
func tableFromNode(node *yaml.Node) (*ExclusionTable, error) {
	if node.Kind == yaml.ScalarNode && node.Tag == "!!null" {
		return NewTable(), nil
	}
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: line %d: expected a mapping of suite names", ErrInvalidTable, node.Line)
	}

	seen := make(map[string]bool, len(node.Content)/2)
	suites := make([]Suite, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]
		name := strings.TrimSpace(key.Value)
		if name == "" {
			return nil, fmt.Errorf("%w: line %d: empty suite name", ErrInvalidTable, key.Line)
		}
		if seen[name] {
			return nil, fmt.Errorf("%w: line %d: duplicate suite %q", ErrInvalidTable, key.Line, name)
		}
		seen[name] = true

		suite, err := suiteFromNode(name, value)
		if err != nil {
			return nil, err
		}
		suites = append(suites, suite)
	}
	return NewTable(suites...), nil
}

func suiteFromNode(name string, node *yaml.Node) (Suite, error) {
	suite := Suite{Name: name}
	if node.Kind == yaml.ScalarNode && node.Tag == "!!null" {
		return suite, nil
	}
	if node.Kind != yaml.SequenceNode {
		return Suite{}, fmt.Errorf("%w: line %d: suite %q must be a list", ErrInvalidTable, node.Line, name)
	}

	for _, item := range node.Content {
		var e Entry
		switch item.Kind {
		case yaml.ScalarNode:
			if item.Tag != "!!str" {
				return Suite{}, fmt.Errorf("%w: line %d: suite %q: test name must be a string", ErrInvalidTable, item.Line, name)
			}
			e.Test = item.Value
		case yaml.MappingNode:
			if err := item.Decode(&e); err != nil {
				return Suite{}, fmt.Errorf("%w: line %d: suite %q: %w", ErrInvalidTable, item.Line, name, err)
			}
		default:
			return Suite{}, fmt.Errorf("%w: line %d: suite %q: unexpected entry", ErrInvalidTable, item.Line, name)
		}
		e.Test = strings.TrimSpace(e.Test)
		if e.Test == "" {
			return Suite{}, fmt.Errorf("%w: line %d: suite %q: empty test name", ErrInvalidTable, item.Line, name)
		}
		suite.Entries = append(suite.Entries, e)
	}
	return suite, nil
}

// UnmarshalYAML lets tables be embedded in larger YAML documents.
func (t *ExclusionTable) UnmarshalYAML(node *yaml.Node) error {
	parsed, err := tableFromNode(node)
	if err != nil {
		return err
	}
	*t = *parsed
	return nil
}
