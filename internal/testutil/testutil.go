// Package testutil provides shared test helpers for creating config files and exercise fixtures.
package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// SetupTestConfig creates a minimal config file backed by a SQLite database
// and a types directory inside tmpDir. Returns the path to the generated config file.
func SetupTestConfig(t *testing.T, tmpDir string) string {
	t.Helper()

	typesDir := filepath.Join(tmpDir, "types")
	require.NoError(t, os.MkdirAll(typesDir, 0755))

	configContent := fmt.Sprintf(`server:
  port: 8080
database:
  driver: sqlite
  path: %s
notebook:
  default_pages_count: 40
registry:
  types_directory: %s
`,
		filepath.Join(tmpDir, "learntools.db"),
		typesDir,
	)

	cfgPath := filepath.Join(tmpDir, "config.yml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(configContent), 0644))
	return cfgPath
}

// WriteDocument writes an exercise data document and returns its path.
func WriteDocument(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// CreateToolType lays out an installed tool version the way the registry scans it.
func CreateToolType(t *testing.T, typesDir, id, version string) {
	t.Helper()
	dir := filepath.Join(typesDir, id, version)
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<!doctype html>"), 0644))
}
