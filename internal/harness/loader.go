package harness

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/tools/txtar"

	yaml "gopkg.in/yaml.v3"

	"github.com/stretchr/testify/require"
)

const expectedFile = "expected.yaml"

// LoadTestCase loads a test case from a directory with a specified testdata root.
func LoadTestCase(t *testing.T, dir, root string) *TestCase {
	t.Helper()

	tc := &TestCase{}
	data, err := os.ReadFile(filepath.Join(dir, expectedFile))
	require.NoError(t, err)
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	require.NoError(t, decoder.Decode(tc))

	// Use relative path from testdata root if provided.
	if root != "" {
		relPath, err := filepath.Rel(root, dir)
		if err != nil {
			tc.Dir = filepath.Base(dir)
		} else {
			tc.Dir = relPath
		}
		return tc
	}

	tc.Dir = filepath.Base(dir)
	return tc
}

// ExtractArchive unpacks a txtar archive into a fresh directory under root
// and returns that directory. The archive must contain expected.yaml.
func ExtractArchive(t *testing.T, path, root string) string {
	t.Helper()

	archive, err := txtar.ParseFile(path)
	require.NoError(t, err)

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	dir := filepath.Join(root, name)
	hasExpected := false
	for _, f := range archive.Files {
		dst := filepath.Join(dir, filepath.FromSlash(f.Name))
		require.NoError(t, os.MkdirAll(filepath.Dir(dst), 0o755))
		require.NoError(t, os.WriteFile(dst, f.Data, 0o600))
		if f.Name == expectedFile {
			hasExpected = true
		}
	}
	require.True(t, hasExpected, "archive %s has no %s", path, expectedFile)
	return dir
}
