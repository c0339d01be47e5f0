package testfilter

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewTable_PreservesOrder(t *testing.T) {
	table := NewTable(
		NewSuite("zip_unittests", "ZipReaderTest.ExtractToFileAsync_RegularFile"),
		NewSuite("base_unittests", "StackTraceTest.TruncatedTrace", "StackTraceTest.TraceStackFramePointersFromBuffer"),
	)

	require.Equal(t, 3, table.Len())
	require.Equal(t, []TestFilter{
		{Target: "zip_unittests", Test: "ZipReaderTest.ExtractToFileAsync_RegularFile"},
		{Target: "base_unittests", Test: "StackTraceTest.TruncatedTrace"},
		{Target: "base_unittests", Test: "StackTraceTest.TraceStackFramePointersFromBuffer"},
	}, table.Filters())
}

func TestNewTable_MergesRepeatedSuites(t *testing.T) {
	table := NewTable(
		NewSuite("a", "A.One"),
		NewSuite("b", "B.One"),
		NewSuite("a", "A.Two"),
	)

	suites := table.Suites()
	require.Len(t, suites, 2)
	require.Equal(t, "a", suites[0].Name)
	require.Equal(t, []Entry{{Test: "A.One"}, {Test: "A.Two"}}, suites[0].Entries)
	require.Equal(t, "b", suites[1].Name)
}

func TestExclusionTable_Immutable(t *testing.T) {
	input := []Suite{NewSuite("a", "A.One")}
	table := NewTable(input...)

	input[0].Entries[0].Test = "changed"
	suites := table.Suites()
	suites[0].Entries[0].Test = "changed again"
	filters := table.Filters()
	filters[0].Test = "and again"

	require.Equal(t, []TestFilter{{Target: "a", Test: "A.One"}}, table.Filters())
}

func TestExclusionTable_Nil(t *testing.T) {
	var table *ExclusionTable

	require.Zero(t, table.Len())
	require.Empty(t, table.Filters())
	require.Empty(t, table.Suites())
}

func TestParseTable(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []TestFilter
		wantErr  string
	}{
		{
			name:     "empty document",
			input:    "",
			expected: nil,
		},
		{
			name: "document order kept",
			input: `
zip_unittests:
  - ZipReaderTest.ExtractToFileAsync_RegularFile
base_unittests:
  - StackTraceTest.TruncatedTrace
`,
			expected: []TestFilter{
				{Target: "zip_unittests", Test: "ZipReaderTest.ExtractToFileAsync_RegularFile"},
				{Target: "base_unittests", Test: "StackTraceTest.TruncatedTrace"},
			},
		},
		{
			name: "config specific entry",
			input: `
net_unittests:
  - test: HostResolverTest.Flaky
    config: debug
`,
			expected: []TestFilter{
				{Target: "net_unittests", Test: "HostResolverTest.Flaky", Config: "debug"},
			},
		},
		{
			name:     "empty suite",
			input:    "media_unittests:\n",
			expected: nil,
		},
		{
			name:    "not a mapping",
			input:   "- a\n- b\n",
			wantErr: "expected a mapping",
		},
		{
			name:    "duplicate suite",
			input:   "a:\n  - A.One\na:\n  - A.Two\n",
			wantErr: `duplicate suite "a"`,
		},
		{
			name:    "suite not a list",
			input:   "a: A.One\n",
			wantErr: "must be a list",
		},
		{
			name:    "non string test",
			input:   "a:\n  - 42\n",
			wantErr: "must be a string",
		},
		{
			name:    "empty test in mapping",
			input:   "a:\n  - config: debug\n",
			wantErr: "empty test name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, err := ParseTable([]byte(tt.input))
			if tt.wantErr != "" {
				require.ErrorIs(t, err, ErrInvalidTable)
				require.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			if len(tt.expected) == 0 {
				require.Empty(t, table.Filters())
				return
			}
			require.Equal(t, tt.expected, table.Filters())
		})
	}
}
