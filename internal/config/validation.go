package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dojobyexample/docnav/internal/output"
)

// ValidationError represents a configuration finding with suggestions
type ValidationError struct {
	Field       string
	Value       interface{}
	Message     string
	Suggestions []string
}

func (ve *ValidationError) Error() string {
	return fmt.Sprintf("validation error in %s: %s", ve.Field, ve.Message)
}

// ValidationResult holds the result of configuration validation
type ValidationResult struct {
	Valid    bool
	Errors   []ValidationError
	Warnings []ValidationError
}

// HasErrors returns true if there are any validation errors
func (vr *ValidationResult) HasErrors() bool {
	return len(vr.Errors) > 0
}

// HasWarnings returns true if there are any validation warnings
func (vr *ValidationResult) HasWarnings() bool {
	return len(vr.Warnings) > 0
}

// String returns a formatted string of all validation issues
func (vr *ValidationResult) String() string {
	var builder strings.Builder

	if len(vr.Errors) > 0 {
		builder.WriteString("Configuration errors:\n")
		for _, err := range vr.Errors {
			builder.WriteString(fmt.Sprintf("  - %s: %s\n", err.Field, err.Message))
			for _, suggestion := range err.Suggestions {
				builder.WriteString(fmt.Sprintf("    hint: %s\n", suggestion))
			}
		}
	}

	if len(vr.Warnings) > 0 {
		builder.WriteString("Configuration warnings:\n")
		for _, warning := range vr.Warnings {
			builder.WriteString(fmt.Sprintf("  - %s: %s\n", warning.Field, warning.Message))
			for _, suggestion := range warning.Suggestions {
				builder.WriteString(fmt.Sprintf("    hint: %s\n", suggestion))
			}
		}
	}

	return builder.String()
}

func (vr *ValidationResult) addError(field string, value interface{}, message string, suggestions ...string) {
	vr.Errors = append(vr.Errors, ValidationError{Field: field, Value: value, Message: message, Suggestions: suggestions})
}

func (vr *ValidationResult) addWarning(field string, value interface{}, message string, suggestions ...string) {
	vr.Warnings = append(vr.Warnings, ValidationError{Field: field, Value: value, Message: message, Suggestions: suggestions})
}

// ValidateConfigWithDetails checks the configuration against the file system
// and reports problems that Load tolerates.
func ValidateConfigWithDetails(config *Config) *ValidationResult {
	result := &ValidationResult{}

	if err := validateConfig(config); err != nil {
		result.addError("config", nil, err.Error())
	}

	if !pathExists(config.Navigation.File) {
		result.addError("navigation.file", config.Navigation.File,
			"navigation file does not exist",
			"run 'docnav init' to create a starter navigation file")
	} else {
		switch strings.ToLower(filepath.Ext(config.Navigation.File)) {
		case ".yml", ".yaml", ".json":
		default:
			result.addError("navigation.file", config.Navigation.File,
				"navigation file must be .yml, .yaml or .json")
		}
	}

	if config.Output.File != "-" && config.Output.Format != "" {
		format, err := output.ParseFormat(config.Output.Format)
		if inferred := formatForExt(filepath.Ext(config.Output.File)); err == nil && inferred != "" && inferred != format {
			result.addWarning("output.format", config.Output.Format,
				fmt.Sprintf("format %q does not match output file extension %q", config.Output.Format, filepath.Ext(config.Output.File)))
		}
	}

	if info, err := os.Stat(config.Pages.Dir); err != nil || !info.IsDir() {
		result.addWarning("pages.dir", config.Pages.Dir,
			"pages directory not found, page checks will report every link as missing",
			"set pages.dir to the Vocs pages directory, usually docs/pages")
	}

	if config.Sidebar.Root == "home" && !config.Sidebar.CloseOthers {
		result.addWarning("sidebar.root", config.Sidebar.Root,
			"a home-focused root without close_others only expands a home section and leaves the rest as authored",
			"set sidebar.close_others to true or sidebar.root to unmodified")
	}

	result.Valid = !result.HasErrors()
	return result
}

func formatForExt(ext string) output.Format {
	switch strings.ToLower(ext) {
	case ".json":
		return output.FormatJSON
	case ".yml", ".yaml":
		return output.FormatYAML
	case ".ts", ".mts":
		return output.FormatTypeScript
	default:
		return ""
	}
}

func pathExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
