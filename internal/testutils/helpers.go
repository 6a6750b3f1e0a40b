// Package testutils builds throwaway documentation projects for tests.
package testutils

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dojobyexample/docnav/internal/config"
	"github.com/stretchr/testify/require"
)

// CreateTempProject creates a temporary directory holding files, keyed by
// slash-separated relative path.
func CreateTempProject(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		WriteFile(t, dir, name, content)
	}
	return dir
}

// WriteFile writes content to dir/name, creating parent directories.
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, filepath.FromSlash(name))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// CreateTestConfig writes navigation to a fresh project and returns the
// default configuration pointing into it. The output goes to
// out/sidebar.generated.ts and pages are read from docs/pages.
func CreateTestConfig(t *testing.T, navigation string) *config.Config {
	t.Helper()
	dir := CreateTempProject(t, map[string]string{"navigation.yml": navigation})

	cfg := config.Default()
	cfg.Navigation.File = filepath.Join(dir, "navigation.yml")
	cfg.Output.File = filepath.Join(dir, "out", "sidebar.generated.ts")
	cfg.Pages.Dir = filepath.Join(dir, "docs", "pages")
	cfg.Watch.Debounce = 20 * time.Millisecond
	return cfg
}

// AssertFilePermissions checks the permission bits of path.
func AssertFilePermissions(t *testing.T, path string, expectedMode os.FileMode) {
	t.Helper()
	info, err := os.Stat(path)
	require.NoError(t, err)

	actualMode := info.Mode()
	require.Equal(t, expectedMode, actualMode&os.FileMode(0o777),
		"File %s has incorrect permissions: got %o, want %o",
		path, actualMode&os.FileMode(0o777), expectedMode)
}

// WaitForFileContent waits until the file at filePath exists and contains
// substr.
func WaitForFileContent(t *testing.T, filePath, substr string, timeout time.Duration) {
	t.Helper()
	deadline := time.Now().Add(timeout)

	for time.Now().Before(deadline) {
		data, err := os.ReadFile(filePath)
		if err == nil && strings.Contains(string(data), substr) {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}

	t.Fatalf("File %s did not contain %q within %v", filePath, substr, timeout)
}
