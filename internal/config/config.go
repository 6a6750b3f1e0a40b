// Package config provides configuration management for docnav using Viper
// for loading from files, environment variables, and command-line flags.
//
// The configuration names the navigation source, the sidebar derivation
// options, where and how the generated sidebar is written, the Vocs pages
// directory used for cross-checking, and the preview server address.
// Environment variables use the DOCNAV_ prefix, e.g. DOCNAV_SIDEBAR_CLOSE_OTHERS.
package config

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	docerrors "github.com/dojobyexample/docnav/internal/errors"
	"github.com/dojobyexample/docnav/internal/output"
	"github.com/dojobyexample/docnav/internal/sidebar"
	"github.com/spf13/viper"
)

// Config is the full docnav configuration.
type Config struct {
	Navigation NavigationConfig `mapstructure:"navigation" yaml:"navigation"`
	Sidebar    SidebarConfig    `mapstructure:"sidebar" yaml:"sidebar"`
	Output     OutputConfig     `mapstructure:"output" yaml:"output"`
	Pages      PagesConfig      `mapstructure:"pages" yaml:"pages"`
	Watch      WatchConfig      `mapstructure:"watch" yaml:"watch"`
	Server     ServerConfig     `mapstructure:"server" yaml:"server"`
}

type NavigationConfig struct {
	File string `mapstructure:"file" yaml:"file"`
}

type SidebarConfig struct {
	HomeLabel   string `mapstructure:"home_label" yaml:"home_label"`
	CloseOthers bool   `mapstructure:"close_others" yaml:"close_others"`
	Root        string `mapstructure:"root" yaml:"root"`
}

type OutputConfig struct {
	File       string `mapstructure:"file" yaml:"file"`
	Format     string `mapstructure:"format" yaml:"format,omitempty"`
	ExportName string `mapstructure:"export_name" yaml:"export_name"`
}

type PagesConfig struct {
	Dir        string   `mapstructure:"dir" yaml:"dir"`
	Extensions []string `mapstructure:"extensions" yaml:"extensions"`
}

type WatchConfig struct {
	Debounce time.Duration `mapstructure:"debounce" yaml:"debounce"`
}

type ServerConfig struct {
	Host string `mapstructure:"host" yaml:"host"`
	Port int    `mapstructure:"port" yaml:"port"`
}

// Defaults.
const (
	DefaultNavigationFile = "navigation.yml"
	DefaultOutputFile     = "sidebar.generated.ts"
	DefaultExportName     = "sidebar"
	DefaultPagesDir       = "docs/pages"
	DefaultDebounce       = 300 * time.Millisecond
	DefaultHost           = "localhost"
	DefaultPort           = 5174
)

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Navigation: NavigationConfig{File: DefaultNavigationFile},
		Sidebar: SidebarConfig{
			HomeLabel:   sidebar.DefaultHomeLabel,
			CloseOthers: true,
			Root:        string(sidebar.RootUnmodified),
		},
		Output: OutputConfig{
			File:       DefaultOutputFile,
			ExportName: DefaultExportName,
		},
		Pages: PagesConfig{
			Dir:        DefaultPagesDir,
			Extensions: []string{".mdx", ".md"},
		},
		Watch:  WatchConfig{Debounce: DefaultDebounce},
		Server: ServerConfig{Host: DefaultHost, Port: DefaultPort},
	}
}

// EnvPrefix is the prefix of environment overrides, e.g. DOCNAV_OUTPUT_FILE.
const EnvPrefix = "DOCNAV"

var envKeyReplacer = strings.NewReplacer(".", "_")

// BindEnv enables DOCNAV_* environment overrides on v.
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(envKeyReplacer)
	v.AutomaticEnv()
}

// Load reads the configuration from the global viper instance, fills in
// defaults and validates the result.
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom reads the configuration from v.
func LoadFrom(v *viper.Viper) (*Config, error) {
	setDefaults(v)

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, docerrors.WrapConfig(err, docerrors.ErrCodeConfigInvalid, "cannot decode configuration")
	}

	applyDefaults(config)

	if err := validateConfig(config); err != nil {
		return nil, docerrors.WrapConfig(err, docerrors.ErrCodeConfigInvalid, "invalid configuration")
	}

	return config, nil
}

// setDefaults registers every key so that DOCNAV_* environment variables
// reach Unmarshal even when no config file sets the key.
func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("navigation.file", d.Navigation.File)
	v.SetDefault("sidebar.home_label", d.Sidebar.HomeLabel)
	v.SetDefault("sidebar.close_others", d.Sidebar.CloseOthers)
	v.SetDefault("sidebar.root", d.Sidebar.Root)
	v.SetDefault("output.file", d.Output.File)
	v.SetDefault("output.format", d.Output.Format)
	v.SetDefault("output.export_name", d.Output.ExportName)
	v.SetDefault("pages.dir", d.Pages.Dir)
	v.SetDefault("pages.extensions", d.Pages.Extensions)
	v.SetDefault("watch.debounce", d.Watch.Debounce)
	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)
}

func applyDefaults(config *Config) {
	d := Default()
	if config.Navigation.File == "" {
		config.Navigation.File = d.Navigation.File
	}
	if config.Sidebar.HomeLabel == "" {
		config.Sidebar.HomeLabel = d.Sidebar.HomeLabel
	}
	if config.Sidebar.Root == "" {
		config.Sidebar.Root = d.Sidebar.Root
	}
	if config.Output.File == "" {
		config.Output.File = d.Output.File
	}
	if config.Output.ExportName == "" {
		config.Output.ExportName = d.Output.ExportName
	}
	if config.Pages.Dir == "" {
		config.Pages.Dir = d.Pages.Dir
	}
	if len(config.Pages.Extensions) == 0 {
		config.Pages.Extensions = d.Pages.Extensions
	}
	for i, ext := range config.Pages.Extensions {
		if ext != "" && !strings.HasPrefix(ext, ".") {
			config.Pages.Extensions[i] = "." + ext
		}
	}
	if config.Watch.Debounce <= 0 {
		config.Watch.Debounce = d.Watch.Debounce
	}
	if config.Server.Host == "" {
		config.Server.Host = d.Server.Host
	}
}

// SidebarOptions converts the sidebar section to generator options.
func (c *Config) SidebarOptions() (sidebar.Options, error) {
	root, err := sidebar.ParseRootPolicy(c.Sidebar.Root)
	if err != nil {
		return sidebar.Options{}, err
	}
	return sidebar.Options{
		HomeLabel:   c.Sidebar.HomeLabel,
		CloseOthers: c.Sidebar.CloseOthers,
		Root:        root,
	}, nil
}

// Addr returns the preview server listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

var identifierPattern = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)

// validateConfig validates configuration values for security and correctness
func validateConfig(config *Config) error {
	if err := validatePath(config.Navigation.File); err != nil {
		return fmt.Errorf("navigation.file: %w", err)
	}

	if _, err := sidebar.ParseRootPolicy(config.Sidebar.Root); err != nil {
		return fmt.Errorf("sidebar.root: %w", err)
	}

	if config.Output.File != "-" {
		if err := validatePath(config.Output.File); err != nil {
			return fmt.Errorf("output.file: %w", err)
		}
	}

	if config.Output.Format != "" {
		if _, err := output.ParseFormat(config.Output.Format); err != nil {
			return fmt.Errorf("output.format: %w", err)
		}
	}

	if !identifierPattern.MatchString(config.Output.ExportName) {
		return fmt.Errorf("output.export_name: %q is not a valid identifier", config.Output.ExportName)
	}

	if err := validatePath(config.Pages.Dir); err != nil {
		return fmt.Errorf("pages.dir: %w", err)
	}

	if config.Server.Port < 0 || config.Server.Port > 65535 {
		return fmt.Errorf("server.port: %d is not in valid range 0-65535", config.Server.Port)
	}

	if strings.ContainsAny(config.Server.Host, ";&|$`()<>\"'\\ ") {
		return fmt.Errorf("server.host: contains invalid characters: %q", config.Server.Host)
	}

	return nil
}

// validatePath rejects empty paths, traversal outside the project and shell
// metacharacters.
func validatePath(path string) error {
	if path == "" {
		return fmt.Errorf("empty path")
	}

	cleanPath := filepath.Clean(path)

	if cleanPath == ".." || strings.HasPrefix(cleanPath, ".."+string(filepath.Separator)) {
		return fmt.Errorf("path contains traversal: %s", path)
	}

	dangerousChars := []string{";", "&", "|", "$", "`", "(", ")", "<", ">", "\"", "'"}
	for _, char := range dangerousChars {
		if strings.Contains(cleanPath, char) {
			return fmt.Errorf("path contains dangerous character: %s", char)
		}
	}

	return nil
}
