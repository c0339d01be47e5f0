// Package harness provides golden-test infrastructure for validating platform
// exclusion configurations against expectations kept in testdata.
package harness

import "github.com/715d/testfilter/pkg/testfilter"

// TestCase represents a single test scenario.
type TestCase struct {
	// Dir is the directory containing the test case files.
	Dir string `yaml:"-"`

	// Platform is the registered platform the case starts from.
	Platform string `yaml:"platform"`

	// Overlay is an optional layer file, relative to Dir, stacked on Platform.
	Overlay string `yaml:"overlay,omitempty"`

	// Runs lists the build configs to check.
	Runs []RunConfiguration `yaml:"runs"`

	// ExpectedTests is the full ordered list of unit test filters.
	ExpectedTests []testfilter.TestFilter `yaml:"expected_tests"`

	// ExpectedWebPlatformTests is the full ordered list of web platform test filters.
	ExpectedWebPlatformTests []testfilter.TestFilter `yaml:"expected_web_platform_tests"`

	// ExpectedErrors lists substrings of an expected load error.
	ExpectedErrors []string `yaml:"expected_errors,omitempty"`
}

// RunConfiguration describes how targets are expected to run in one build config.
type RunConfiguration struct {
	// Name is a descriptive name for this run.
	Name string `yaml:"name"`

	// Config is the build config, e.g. "debug" or "gold".
	Config string `yaml:"config"`

	// Targets lists the expected decision for each target.
	Targets []ExpectedTarget `yaml:"targets"`
}

// ExpectedTarget is the expected outcome for one test binary.
type ExpectedTarget struct {
	Target      string `yaml:"target"`
	Skip        bool   `yaml:"skip,omitempty"`
	GTestFilter string `yaml:"gtest_filter,omitempty"`
}
