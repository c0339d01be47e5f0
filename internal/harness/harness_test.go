package harness

import (
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/715d/testfilter/pkg/testfilter"
)

// TestAll runs every golden case under testdata.
func TestAll(t *testing.T) {
	_, filename, _, ok := runtime.Caller(0)
	require.True(t, ok, "get current file path")

	harnessDir := filepath.Dir(filename)
	testdataDir := filepath.Join(harnessDir, "..", "..", "testdata")

	if testing.Verbose() {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})))
	}

	testCases := discoverTestCases(t, testdataDir)
	require.NotEmpty(t, testCases, "no test cases found")

	for _, c := range testCases {
		t.Run(c.tc.Dir, func(t *testing.T) {
			t.Parallel()

			for _, run := range c.tc.Runs {
				t.Logf("[%s] config %q, %d targets", run.Name, run.Config, len(run.Targets))
			}

			result := NewHarness(c.root).Run(t, c.tc)
			if !result.Success {
				t.Errorf("Test failed: %s", result.Message)
			}
		})
	}
}

type discovered struct {
	root string
	tc   *TestCase
}

func discoverTestCases(t *testing.T, root string) []discovered {
	t.Helper()

	entries, err := os.ReadDir(root)
	require.NoError(t, err)

	archiveRoot := t.TempDir()
	var cases []discovered
	for _, entry := range entries {
		path := filepath.Join(root, entry.Name())
		switch {
		case entry.IsDir():
			if _, err := os.Stat(filepath.Join(path, expectedFile)); err == nil {
				cases = append(cases, discovered{root: root, tc: LoadTestCase(t, path, root)})
			}
		case strings.HasSuffix(entry.Name(), ".txtar"):
			dir := ExtractArchive(t, path, archiveRoot)
			cases = append(cases, discovered{root: archiveRoot, tc: LoadTestCase(t, dir, archiveRoot)})
		}
	}
	return cases
}

func TestRun_ReportsMismatches(t *testing.T) {
	tc := &TestCase{
		Dir:      "inline",
		Platform: "linux-x64x11-clang-3-9",
		ExpectedTests: []testfilter.TestFilter{
			testfilter.New("base_unittests", "StackTraceTest.TraceStackFramePointersFromBuffer"),
			testfilter.New("base_unittests", "StackTraceTest.TruncatedTrace"),
			testfilter.New("zip_unittests", "ZipReaderTest.ExtractToFileAsync_RegularFile"),
		},
		Runs: []RunConfiguration{{
			Name:    "gold",
			Config:  "gold",
			Targets: []ExpectedTarget{{Target: "zip_unittests", Skip: true}},
		}},
	}

	result := NewHarness(t.TempDir()).Run(t, tc)

	require.False(t, result.Success)
	require.Contains(t, result.Details, "tests: position 0 is base_unittests.StackTraceTest.TruncatedTrace, expected base_unittests.StackTraceTest.TraceStackFramePointersFromBuffer")
	require.Contains(t, result.Details, "web_platform_tests: unexpected web_platform_tests.xhr/WebPlatformTest.Run/XMLHttpRequest_send_sync_blocks_async_htm")
	require.Contains(t, result.Details, "[gold] zip_unittests: skip = false, expected true")
	require.Contains(t, result.Details, `[gold] zip_unittests: gtest filter = "-ZipReaderTest.ExtractToFileAsync_RegularFile", expected ""`)
}

func TestRun_ExpectedError(t *testing.T) {
	tc := &TestCase{
		Dir:            "inline",
		Platform:       "no-such-platform",
		ExpectedErrors: []string{"unknown platform"},
	}

	result := NewHarness(t.TempDir()).Run(t, tc)
	require.True(t, result.Success, result.Message)
}

func TestCompareFilters(t *testing.T) {
	a := testfilter.New("a", "A.One")
	b := testfilter.New("b", "B.One")

	require.Empty(t, compareFilters("tests", []testfilter.TestFilter{a, b}, []testfilter.TestFilter{a, b}))
	require.Equal(t, []string{"tests: missing b.B.One"}, compareFilters("tests", []testfilter.TestFilter{a, b}, []testfilter.TestFilter{a}))
	require.Equal(t, []string{"tests: got 2 filters, expected 1"}, compareFilters("tests", []testfilter.TestFilter{a}, []testfilter.TestFilter{a, a}))
}
