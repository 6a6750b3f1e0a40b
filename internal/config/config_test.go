package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	docerrors "github.com/dojobyexample/docnav/internal/errors"
	"github.com/dojobyexample/docnav/internal/sidebar"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	v := viper.New()

	cfg, err := LoadFrom(v)
	require.NoError(t, err)

	assert.Equal(t, Default(), cfg)

	opts, err := cfg.SidebarOptions()
	require.NoError(t, err)
	assert.Equal(t, sidebar.DefaultOptions(), opts)
	assert.Equal(t, "localhost:5174", cfg.Addr())
}

func TestLoadFromYAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".docnav.yml")
	require.NoError(t, os.WriteFile(path, []byte(`
navigation:
  file: nav/sidebar.json
sidebar:
  home_label: Overview
  close_others: false
  root: home
output:
  file: out/sidebar.json
  format: json
pages:
  dir: site/pages
  extensions: [mdx]
watch:
  debounce: 1s
server:
  port: 9000
`), 0o644))

	v := viper.New()
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	cfg, err := LoadFrom(v)
	require.NoError(t, err)

	assert.Equal(t, "nav/sidebar.json", cfg.Navigation.File)
	assert.Equal(t, "Overview", cfg.Sidebar.HomeLabel)
	assert.False(t, cfg.Sidebar.CloseOthers)
	assert.Equal(t, "home", cfg.Sidebar.Root)
	assert.Equal(t, "out/sidebar.json", cfg.Output.File)
	assert.Equal(t, "json", cfg.Output.Format)
	assert.Equal(t, DefaultExportName, cfg.Output.ExportName)
	assert.Equal(t, []string{".mdx"}, cfg.Pages.Extensions)
	assert.Equal(t, time.Second, cfg.Watch.Debounce)
	assert.Equal(t, DefaultHost, cfg.Server.Host)
	assert.Equal(t, 9000, cfg.Server.Port)

	opts, err := cfg.SidebarOptions()
	require.NoError(t, err)
	assert.Equal(t, sidebar.RootHomeFocused, opts.Root)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("DOCNAV_SIDEBAR_CLOSE_OTHERS", "false")
	t.Setenv("DOCNAV_OUTPUT_FILE", "-")

	v := viper.New()
	BindEnv(v)

	cfg, err := LoadFrom(v)
	require.NoError(t, err)
	assert.False(t, cfg.Sidebar.CloseOthers)
	assert.Equal(t, "-", cfg.Output.File)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value interface{}
	}{
		{"traversal in navigation file", "navigation.file", "../../etc/passwd"},
		{"unknown root policy", "sidebar.root", "everything"},
		{"unknown output format", "output.format", "toml"},
		{"bad export name", "output.export_name", "side-bar"},
		{"shell characters in pages dir", "pages.dir", "docs;rm -rf"},
		{"port out of range", "server.port", 70000},
		{"port not a number", "server.port", "http"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := viper.New()
			v.Set(tt.key, tt.value)

			cfg, err := LoadFrom(v)
			require.Error(t, err)
			assert.Nil(t, cfg)
			assert.True(t, docerrors.IsConfigError(err))
		})
	}
}

func TestValidatePath(t *testing.T) {
	assert.NoError(t, validatePath("docs/pages"))
	assert.NoError(t, validatePath("./navigation.yml"))
	assert.NoError(t, validatePath("..hidden/file"))
	assert.Error(t, validatePath(""))
	assert.Error(t, validatePath(".."))
	assert.Error(t, validatePath("../outside"))
	assert.Error(t, validatePath("a/$(whoami)"))
}

func TestValidateConfigWithDetails(t *testing.T) {
	dir := t.TempDir()
	navFile := filepath.Join(dir, "navigation.yml")
	require.NoError(t, os.WriteFile(navFile, []byte("[]"), 0o644))

	cfg := Default()
	cfg.Navigation.File = navFile
	cfg.Pages.Dir = filepath.Join(dir, "missing")
	cfg.Output.File = "sidebar.json"
	cfg.Output.Format = "ts"

	result := ValidateConfigWithDetails(cfg)
	assert.True(t, result.Valid)
	assert.False(t, result.HasErrors())
	require.True(t, result.HasWarnings())

	fields := make([]string, 0, len(result.Warnings))
	for _, w := range result.Warnings {
		fields = append(fields, w.Field)
	}
	assert.ElementsMatch(t, []string{"output.format", "pages.dir"}, fields)
	assert.Contains(t, result.String(), "Configuration warnings:")

	cfg.Navigation.File = filepath.Join(dir, "nope.yml")
	result = ValidateConfigWithDetails(cfg)
	assert.False(t, result.Valid)
	assert.Contains(t, result.String(), "docnav init")
}

func TestLoadAcceptsFormatAliases(t *testing.T) {
	for _, format := range []string{"json", "yaml", "yml", "ts", "typescript", "TS"} {
		t.Run(format, func(t *testing.T) {
			v := viper.New()
			v.Set("output.format", format)

			cfg, err := LoadFrom(v)
			require.NoError(t, err)
			assert.Equal(t, format, cfg.Output.Format)
		})
	}
}

func TestValidateConfigWithDetailsFormatAliases(t *testing.T) {
	dir := t.TempDir()
	navFile := filepath.Join(dir, "navigation.yml")
	require.NoError(t, os.WriteFile(navFile, []byte("[]"), 0o644))

	cfg := Default()
	cfg.Navigation.File = navFile
	cfg.Pages.Dir = dir

	cfg.Output.File = "sidebar.yml"
	cfg.Output.Format = "yml"
	assert.False(t, ValidateConfigWithDetails(cfg).HasWarnings())

	cfg.Output.File = "sidebar.generated.ts"
	cfg.Output.Format = "typescript"
	assert.False(t, ValidateConfigWithDetails(cfg).HasWarnings())

	cfg.Output.Format = "yml"
	assert.True(t, ValidateConfigWithDetails(cfg).HasWarnings())
}
