package harness

import (
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/715d/testfilter/internal/runner"
	"github.com/715d/testfilter/pkg/platform"
	"github.com/715d/testfilter/pkg/testfilter"
)

// TestHarness manages test execution.
type TestHarness struct {
	// registry resolves platform names
	registry *platform.Registry

	// root is the root directory for test data
	root string
}

// NewHarness creates a new test harness over the built-in platforms.
func NewHarness(root string) *TestHarness {
	return &TestHarness{
		registry: platform.Default,
		root:     root,
	}
}

// TestResult represents the result of running a test case.
type TestResult struct {
	// TestCase is the test case that was run.
	TestCase *TestCase

	// Success indicates if the test passed.
	Success bool

	// Message provides a summary of the result.
	Message string

	// Details provides detailed information about failures.
	Details []string
}

// Run executes a test case.
func (h *TestHarness) Run(t *testing.T, tc *TestCase) *TestResult {
	t.Helper()
	require.NotEmpty(t, tc.Platform, "test case has no platform")

	cfg, err := h.resolve(tc)
	if err != nil {
		for _, expectedErr := range tc.ExpectedErrors {
			if strings.Contains(err.Error(), expectedErr) {
				return &TestResult{TestCase: tc, Success: true, Message: fmt.Sprintf("Got expected error: %v", err)}
			}
		}
		require.NoError(t, err)
	}
	if len(tc.ExpectedErrors) > 0 {
		return &TestResult{TestCase: tc, Message: fmt.Sprintf("Expected error containing %q, got none", tc.ExpectedErrors)}
	}

	var details []string
	details = append(details, compareFilters("tests", tc.ExpectedTests, cfg.TestFilters())...)
	details = append(details, compareFilters("web_platform_tests", tc.ExpectedWebPlatformTests, cfg.WebPlatformTestFilters())...)
	for _, run := range tc.Runs {
		details = append(details, h.checkRun(t, cfg, run)...)
	}

	if len(details) > 0 {
		return &TestResult{
			TestCase: tc,
			Message:  fmt.Sprintf("%d mismatches:\n  %s", len(details), strings.Join(details, "\n  ")),
			Details:  details,
		}
	}
	return &TestResult{
		TestCase: tc,
		Success:  true,
		Message:  fmt.Sprintf("All %d runs passed", len(tc.Runs)),
	}
}

// resolve builds the configuration a test case describes.
func (h *TestHarness) resolve(tc *TestCase) (platform.Configuration, error) {
	cfg, err := h.registry.Lookup(tc.Platform)
	if err != nil {
		return nil, err
	}
	if tc.Overlay == "" {
		return cfg, nil
	}
	return platform.LoadLayer(tc.Dir, cfg, filepath.Join(h.root, tc.Dir, tc.Overlay))
}

// checkRun compares planned decisions with the expectations for one build config.
func (h *TestHarness) checkRun(t *testing.T, cfg platform.Configuration, run RunConfiguration) []string {
	t.Helper()

	targets := make([]string, len(run.Targets))
	for i, exp := range run.Targets {
		targets[i] = exp.Target
	}
	decisions, err := runner.PlanAll(t.Context(), cfg.TestFilters(), targets, run.Config)
	require.NoError(t, err)

	var details []string
	for i, exp := range run.Targets {
		got := decisions[i]
		if got.Skip != exp.Skip {
			details = append(details, fmt.Sprintf("[%s] %s: skip = %t, expected %t", run.Name, exp.Target, got.Skip, exp.Skip))
		}
		if f := got.GTestFilter(); f != exp.GTestFilter {
			details = append(details, fmt.Sprintf("[%s] %s: gtest filter = %q, expected %q", run.Name, exp.Target, f, exp.GTestFilter))
		}
	}
	return details
}

// compareFilters reports differences between expected and actual, including order.
func compareFilters(kind string, expected, actual []testfilter.TestFilter) []string {
	var details []string

	actualSet := make(map[testfilter.TestFilter]bool, len(actual))
	for _, f := range actual {
		actualSet[f] = true
	}
	expectedSet := make(map[testfilter.TestFilter]bool, len(expected))
	for _, f := range expected {
		expectedSet[f] = true
		if !actualSet[f] {
			details = append(details, fmt.Sprintf("%s: missing %s", kind, f))
		}
	}
	for _, f := range actual {
		if !expectedSet[f] {
			details = append(details, fmt.Sprintf("%s: unexpected %s", kind, f))
		}
	}

	if len(details) == 0 && len(expected) == len(actual) {
		for i := range expected {
			if expected[i] != actual[i] {
				details = append(details, fmt.Sprintf("%s: position %d is %s, expected %s", kind, i, actual[i], expected[i]))
				break
			}
		}
	} else if len(details) == 0 {
		details = append(details, fmt.Sprintf("%s: got %d filters, expected %d", kind, len(actual), len(expected)))
	}
	return details
}
