// Package testfilter provides the values used to exclude tests from a run.
package testfilter

import "fmt"

const (
	// FilterAll used as a test name excludes every test in the target.
	FilterAll = "FILTER_ALL"

	// DisableTesting used as a target name disables testing on the platform.
	DisableTesting = "DISABLE_TESTING"
)

// TestFilter identifies one excluded test.
type TestFilter struct {
	// Target is the test suite or binary name.
	Target string `json:"target" yaml:"target"`

	// Test is the test case name, e.g. "StackTraceTest.TruncatedTrace".
	Test string `json:"test" yaml:"test"`

	// Config restricts the filter to one build config (debug, devel, qa, gold).
	// Empty applies to every config.
	Config string `json:"config,omitempty" yaml:"config,omitempty"`
}

// Option customizes a TestFilter.
type Option func(*TestFilter)

// WithConfig restricts a filter to a single build config.
func WithConfig(config string) Option {
	return func(f *TestFilter) {
		f.Config = config
	}
}

// New creates a filter excluding test from target.
func New(target, test string, opts ...Option) TestFilter {
	f := TestFilter{Target: target, Test: test}
	for _, opt := range opts {
		opt(&f)
	}
	return f
}

// AppliesTo reports whether the filter is active for the given build config.
func (f TestFilter) AppliesTo(config string) bool {
	return f.Config == "" || f.Config == config
}

// ExcludesTarget reports whether the filter removes the whole target.
func (f TestFilter) ExcludesTarget() bool {
	return f.Test == FilterAll
}

// DisablesTesting reports whether the filter turns off all testing.
func (f TestFilter) DisablesTesting() bool {
	return f.Target == DisableTesting
}

func (f TestFilter) String() string {
	if f.Config != "" {
		return fmt.Sprintf("%s.%s[%s]", f.Target, f.Test, f.Config)
	}
	return f.Target + "." + f.Test
}

// Append returns base followed by one filter per entry of table.
// base is never modified.
func Append(base []TestFilter, table *ExclusionTable) []TestFilter {
	out := make([]TestFilter, 0, len(base)+table.Len())
	out = append(out, base...)
	return append(out, table.Filters()...)
}
