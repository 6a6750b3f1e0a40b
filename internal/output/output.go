// Package output writes a generated sidebar config as JSON, YAML or a
// TypeScript module that vocs.config.ts can import.
package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	docerrors "github.com/dojobyexample/docnav/internal/errors"
	"github.com/dojobyexample/docnav/internal/sidebar"
	"gopkg.in/yaml.v3"
)

// Format is an output encoding.
type Format string

const (
	FormatJSON       Format = "json"
	FormatYAML       Format = "yaml"
	FormatTypeScript Format = "ts"
)

// ParseFormat parses json, yaml or ts.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "ts", "typescript":
		return FormatTypeScript, nil
	default:
		return "", fmt.Errorf("unsupported output format %q (supported: json, yaml, ts)", s)
	}
}

// FormatFromPath infers the format from a file extension, defaulting to JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yml", ".yaml":
		return FormatYAML
	case ".ts", ".mts":
		return FormatTypeScript
	default:
		return FormatJSON
	}
}

// Options tunes the generated file.
type Options struct {
	// ExportName is the identifier exported by the TypeScript module.
	ExportName string
	// Source is mentioned in the generated header.
	Source string
}

var tsTemplate = template.Must(template.New("sidebar.ts").Parse(`// Code generated by docnav{{ if .Source }} from {{ .Source }}{{ end }}. DO NOT EDIT.
import type { Sidebar } from 'vocs'

export const {{ .ExportName }}: Sidebar = {{ .Body }}
`))

// Write encodes cfg to w.
func Write(w io.Writer, cfg sidebar.Config, format Format, opts Options) error {
	switch format {
	case FormatJSON:
		body, err := encodeJSON(cfg)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(w, "%s\n", body)
		return err
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(cfg); err != nil {
			return err
		}
		return enc.Close()
	case FormatTypeScript:
		name := opts.ExportName
		if name == "" {
			name = "sidebar"
		}
		body, err := encodeJSON(cfg)
		if err != nil {
			return err
		}
		return tsTemplate.Execute(w, struct {
			ExportName string
			Source     string
			Body       string
		}{name, filepath.ToSlash(opts.Source), string(body)})
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
}

// encodeJSON indents with two spaces and leaves "&", "<" and ">" readable.
func encodeJSON(cfg sidebar.Config) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(cfg); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// WriteFile encodes cfg and replaces path atomically. The file is left
// untouched when encoding fails.
func WriteFile(path string, cfg sidebar.Config, format Format, opts Options) error {
	var buf bytes.Buffer
	if err := Write(&buf, cfg, format, opts); err != nil {
		return docerrors.NewInternalError(docerrors.ErrCodeInternalError, "cannot encode sidebar", err)
	}

	if current, err := os.ReadFile(path); err == nil && bytes.Equal(current, buf.Bytes()) {
		return nil
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return docerrors.WrapIO(err, docerrors.ErrCodeFileWrite, "cannot create output directory").WithLocation(dir)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return docerrors.WrapIO(err, docerrors.ErrCodeFileWrite, "cannot create temporary file").WithLocation(path)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return docerrors.WrapIO(err, docerrors.ErrCodeFileWrite, "cannot write sidebar").WithLocation(path)
	}
	if err := tmp.Close(); err != nil {
		return docerrors.WrapIO(err, docerrors.ErrCodeFileWrite, "cannot write sidebar").WithLocation(path)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return docerrors.WrapIO(err, docerrors.ErrCodeFileWrite, "cannot set permissions").WithLocation(path)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return docerrors.WrapIO(err, docerrors.ErrCodeFileWrite, "cannot replace sidebar").WithLocation(path)
	}
	return nil
}
