// Package platform provides per-platform test exclusion configurations.
//
// A configuration is a chain of layers rooted at Base. Each layer returns
// everything its ancestor returns followed by its own exclusions; a layer
// never removes or reorders inherited entries.
package platform

import (
	"github.com/715d/testfilter/pkg/testfilter"
)

// Configuration supplies the tests to exclude for one platform.
type Configuration interface {
	// Name is the registered platform name.
	Name() string

	// TestFilters returns the unit test exclusions.
	TestFilters() []testfilter.TestFilter

	// WebPlatformTestFilters returns the web platform test exclusions.
	WebPlatformTestFilters() []testfilter.TestFilter
}

// Tables holds the exclusions a single layer contributes.
type Tables struct {
	Tests            *testfilter.ExclusionTable `yaml:"tests"`
	WebPlatformTests *testfilter.ExclusionTable `yaml:"web_platform_tests"`
}

// Base is the root of every configuration chain. It excludes nothing.
type Base struct{}

// Name returns "base".
func (Base) Name() string { return "base" }

// TestFilters returns an empty list.
func (Base) TestFilters() []testfilter.TestFilter { return []testfilter.TestFilter{} }

// WebPlatformTestFilters returns an empty list.
func (Base) WebPlatformTestFilters() []testfilter.TestFilter { return []testfilter.TestFilter{} }

// Layer extends an ancestor configuration with additional exclusions.
type Layer struct {
	name     string
	ancestor Configuration
	tables   Tables
}

// NewLayer creates a layer named name on top of ancestor. A nil ancestor
// means Base.
func NewLayer(name string, ancestor Configuration, tables Tables) *Layer {
	if ancestor == nil {
		ancestor = Base{}
	}
	return &Layer{name: name, ancestor: ancestor, tables: tables}
}

// Chain stacks one layer per entry of tables on top of ancestor. Every layer
// carries name; the returned configuration is the outermost one.
func Chain(name string, ancestor Configuration, tables ...Tables) Configuration {
	if ancestor == nil {
		ancestor = Base{}
	}
	cfg := ancestor
	for _, t := range tables {
		cfg = NewLayer(name, cfg, t)
	}
	return cfg
}

// Name returns the name the layer was created with.
func (l *Layer) Name() string { return l.name }

// Ancestor returns the configuration this layer extends.
func (l *Layer) Ancestor() Configuration { return l.ancestor }

// TestFilters returns the ancestor's unit test filters followed by this
// layer's own.
func (l *Layer) TestFilters() []testfilter.TestFilter {
	return testfilter.Append(l.ancestor.TestFilters(), l.tables.Tests)
}

// WebPlatformTestFilters returns the ancestor's web platform test filters
// followed by this layer's own.
func (l *Layer) WebPlatformTestFilters() []testfilter.TestFilter {
	return testfilter.Append(l.ancestor.WebPlatformTestFilters(), l.tables.WebPlatformTests)
}

// Lineage returns the names of cfg and its ancestors, outermost first.
func Lineage(cfg Configuration) []string {
	var names []string
	for cfg != nil {
		names = append(names, cfg.Name())
		l, ok := cfg.(*Layer)
		if !ok {
			break
		}
		cfg = l.ancestor
	}
	return names
}
