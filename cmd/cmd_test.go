package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	docerrors "github.com/dojobyexample/docnav/internal/errors"
	"github.com/dojobyexample/docnav/internal/pages"
	"github.com/dojobyexample/docnav/internal/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const collidingNavigation = `- text: Introduction
  link: /
- text: Guides
  link: /guides/intro
- text: More Guides
  items:
    - text: Advanced
      link: /guides/advanced
  link: /guides/more
`

// workspace switches to a fresh directory holding the given files.
func workspace(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := testutils.CreateTempProject(t, files)
	t.Chdir(dir)
	t.Setenv(ConfigFileEnv, "")
	return dir
}

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	return runContext(t, context.Background(), args...)
}

func runContext(t *testing.T, ctx context.Context, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	err := cmd.ExecuteContext(ctx)
	return stdout.String(), stderr.String(), err
}

func TestInitWritesStarterFiles(t *testing.T) {
	dir := workspace(t, nil)

	out, _, err := run(t, "init")
	require.NoError(t, err)
	assert.Contains(t, out, "Created .docnav.yml")
	assert.Contains(t, out, "Created navigation.yml")
	assert.FileExists(t, filepath.Join(dir, DefaultConfigFile))
	assert.FileExists(t, filepath.Join(dir, "navigation.yml"))

	out, _, err = run(t, "init")
	require.NoError(t, err)
	assert.Contains(t, out, "Kept existing .docnav.yml")

	// The written config must load back.
	_, _, err = run(t, "validate")
	require.NoError(t, err)
}

func TestInitJSONNavigation(t *testing.T) {
	dir := workspace(t, nil)

	_, _, err := run(t, "init", "--navigation", "docs/navigation.json")
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "docs", "navigation.json"))
	require.NoError(t, err)
	var raw []map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "Introduction", raw[0]["text"])

	config, err := os.ReadFile(filepath.Join(dir, DefaultConfigFile))
	require.NoError(t, err)
	assert.Contains(t, string(config), "file: docs/navigation.json")
}

func TestGenerateWritesTypeScript(t *testing.T) {
	dir := workspace(t, nil)
	_, _, err := run(t, "init")
	require.NoError(t, err)

	out, _, err := run(t, "generate")
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote 5 routes to sidebar.generated.ts")

	data, err := os.ReadFile(filepath.Join(dir, "sidebar.generated.ts"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "export const sidebar: Sidebar = {")
	assert.Contains(t, string(data), `"/getting-started": [`)
}

func TestGenerateStdoutJSON(t *testing.T) {
	workspace(t, map[string]string{"navigation.yml": collidingNavigation})

	out, stderr, err := run(t, "generate", "--stdout", "--format", "json")
	require.NoError(t, err)

	var cfg map[string]json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(out), &cfg))
	assert.Len(t, cfg, 2)
	assert.Contains(t, cfg, "/")
	assert.Contains(t, cfg, "/guides")
	assert.Contains(t, stderr, "Route collision")
}

func TestGenerateEnvironmentOverride(t *testing.T) {
	dir := workspace(t, map[string]string{"navigation.yml": collidingNavigation})
	t.Setenv("DOCNAV_OUTPUT_FILE", "out/sidebar.yml")

	_, _, err := run(t, "g")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "out", "sidebar.yml"))
}

func TestGenerateFlagBeatsConfigFile(t *testing.T) {
	dir := workspace(t, map[string]string{
		"navigation.yml": collidingNavigation,
		"custom.yml":     "output:\n  file: from-config.json\n",
	})

	_, _, err := run(t, "--config", "custom.yml", "generate", "-o", "from-flag.json")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "from-flag.json"))
	assert.NoFileExists(t, filepath.Join(dir, "from-config.json"))
}

func TestMissingExplicitConfigFails(t *testing.T) {
	workspace(t, nil)

	_, _, err := run(t, "--config", "nope.yml", "routes")
	require.Error(t, err)
	assert.True(t, docerrors.IsConfigError(err))
}

func TestValidate(t *testing.T) {
	t.Run("valid tree", func(t *testing.T) {
		workspace(t, map[string]string{"navigation.yml": "- text: Introduction\n  link: /\n- text: Guides\n  link: /guides\n"})

		out, _, err := run(t, "validate")
		require.NoError(t, err)
		assert.Contains(t, out, "navigation.yml: 2 entries, 1 routes")
		assert.Contains(t, out, "0 errors, 0 warnings")
	})

	t.Run("every invalid entry is reported", func(t *testing.T) {
		workspace(t, map[string]string{"navigation.yml": "- link: /a\n- text: B\n  items: []\n- link: /c\n"})

		out, _, err := run(t, "validate")
		require.Error(t, err)
		assert.True(t, docerrors.IsValidationError(err))
		assert.Contains(t, out, "[0]")
		assert.Contains(t, out, "[2]")
	})

	t.Run("collisions fail only with --strict", func(t *testing.T) {
		workspace(t, map[string]string{"navigation.yml": collidingNavigation})

		out, _, err := run(t, "validate")
		require.NoError(t, err)
		assert.Contains(t, out, `warning: route /guides: section "More Guides" overrides "Guides"`)

		_, _, err = run(t, "validate", "--strict")
		assert.Error(t, err)
	})

	t.Run("pages", func(t *testing.T) {
		workspace(t, map[string]string{
			"navigation.yml":             collidingNavigation,
			"docs/pages/index.mdx":       "# Introduction\n",
			"docs/pages/guides/intro.md": "# Guides\n",
			"docs/pages/guides/more.mdx": "---\ntitle: More Guides\n---\n",
			"docs/pages/unlinked.mdx":    "# Unlinked\n",
		})

		out, _, err := run(t, "validate", "--pages")
		require.Error(t, err)
		assert.Contains(t, out, "error: [2].items[0]: link /guides/advanced")
		assert.Contains(t, out, "warning: page unlinked.mdx is not linked")
	})
}

func TestRoutes(t *testing.T) {
	workspace(t, map[string]string{"navigation.yml": collidingNavigation})

	out, _, err := run(t, "routes")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "ROUTE"))
	assert.Contains(t, lines[2], "shadowed by a later section")

	out, _, err = run(t, "r", "-o", "json")
	require.NoError(t, err)
	var rows []routeRow
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	assert.Equal(t, []routeRow{
		{Route: "/", Section: "(root)"},
		{Route: "/guides", Key: "guides", Section: "Guides", Shadowed: true},
		{Route: "/guides", Key: "guides", Section: "More Guides"},
	}, rows)
}

func TestPages(t *testing.T) {
	workspace(t, map[string]string{
		"navigation.yml":        "- text: Introduction\n  link: /\n- text: Guides\n  link: /guides\n",
		"site/index.md":         "# Introduction\n",
		"site/guides/index.mdx": "# Guide Index\n",
		"site/drafts/next.mdx":  "# Next\n",
	})

	out, _, err := run(t, "pages", "--pages-dir", "site", "--orphans")
	require.NoError(t, err)
	assert.Contains(t, out, "title differs")
	assert.Contains(t, out, "drafts/next.mdx")

	out, _, err = run(t, "pages", "--pages-dir", "site", "-o", "yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "file: guides/index.mdx")

	_, _, err = run(t, "pages", "--pages-dir", "missing")
	require.Error(t, err)
	assert.Equal(t, docerrors.ErrCodeFileNotFound, docerrors.GetCode(err))
}

func TestPagesJSONReport(t *testing.T) {
	workspace(t, map[string]string{
		"navigation.yml":        "- text: Guides\n  link: /guides\n",
		"docs/pages/guides.mdx": "# Guides\n",
	})

	out, _, err := run(t, "pages", "-o", "json")
	require.NoError(t, err)
	var report pages.Report
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	require.Len(t, report.Resolved, 1)
	assert.Equal(t, "Guides", report.Resolved[0].Title)
}

func TestWatchRegeneratesOnChange(t *testing.T) {
	dir := workspace(t, map[string]string{"navigation.yml": collidingNavigation})
	t.Setenv("DOCNAV_WATCH_DEBOUNCE", "20ms")
	output := filepath.Join(dir, "sidebar.json")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, _, err := runContext(t, ctx, "watch", "-o", "sidebar.json")
		done <- err
	}()

	require.Eventually(t, func() bool {
		_, err := os.Stat(output)
		return err == nil
	}, 5*time.Second, 20*time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "navigation.yml"),
		[]byte("- text: Reference\n  link: /reference/api\n"), 0o644))

	testutils.WaitForFileContent(t, output, `"/reference"`, 5*time.Second)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}
}

func TestVersion(t *testing.T) {
	workspace(t, nil)

	out, _, err := run(t, "version", "--short")
	require.NoError(t, err)
	assert.NotEmpty(t, strings.TrimSpace(out))

	out, _, err = run(t, "version", "--format", "json")
	require.NoError(t, err)
	var info map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Contains(t, info, "version")
	assert.Contains(t, info, "go_version")

	_, _, err = run(t, "version", "--format", "xml")
	assert.Error(t, err)
}

func TestPrintErrorListsEveryNode(t *testing.T) {
	errs := &docerrors.NodeErrors{}
	errs.Add(docerrors.NewInvalidNodeError("[0]", "text", "is required"))
	errs.Add(docerrors.NewInvalidNodeError("[1].items", "items", "must not be empty"))

	var buf bytes.Buffer
	printError(&buf, errs)
	assert.Equal(t, "Error: 2 invalid navigation entries\n  - "+errs.Errors[0].Error()+"\n  - "+errs.Errors[1].Error()+"\n", buf.String())
}

func TestPrintErrorHints(t *testing.T) {
	testCases := []struct {
		name string
		err  error
		hint string
	}{
		{
			name: "config",
			err:  docerrors.NewConfigError(docerrors.ErrCodeConfigInvalid, "bad port"),
			hint: "Hint: check the config file",
		},
		{
			name: "missing navigation",
			err:  docerrors.WrapIO(os.ErrNotExist, docerrors.ErrCodeFileNotFound, "cannot read navigation file"),
			hint: "Hint: run `docnav init`",
		},
		{
			name: "invalid node",
			err:  docerrors.NewInvalidNodeError("[0]", "text", "is required"),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			printError(&buf, tc.err)
			if tc.hint == "" {
				assert.NotContains(t, buf.String(), "Hint:")
				return
			}
			assert.Contains(t, buf.String(), tc.hint)
		})
	}
}
