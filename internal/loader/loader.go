// Package loader reads navigation trees from disk.
package loader

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	docerrors "github.com/dojobyexample/docnav/internal/errors"
	"github.com/dojobyexample/docnav/internal/navigation"
)

// Format is a navigation file encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

//go:embed starter.yml
var starter []byte

// Starter returns the starter navigation tree written by `docnav init`.
func Starter() []byte {
	out := make([]byte, len(starter))
	copy(out, starter)
	return out
}

// Document is a decoded navigation file.
type Document struct {
	Path     string
	Tree     navigation.Tree
	Warnings []navigation.Warning
}

// FormatFromPath infers the encoding from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yml", ".yaml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", docerrors.NewConfigError(docerrors.ErrCodeUnsupportedInput,
			fmt.Sprintf("unsupported navigation file extension %q (supported: .yml, .yaml, .json)", filepath.Ext(path))).
			WithLocation(path)
	}
}

// Parse decodes data in the given format. Decode problems and invalid nodes
// are returned as validation errors; lint findings are added to the warnings.
func Parse(data []byte, format Format) (navigation.Tree, []navigation.Warning, error) {
	var (
		tree     navigation.Tree
		warnings []navigation.Warning
		err      error
	)
	switch format {
	case FormatYAML:
		tree, warnings, err = navigation.ParseYAML(data)
	case FormatJSON:
		tree, warnings, err = navigation.ParseJSON(data)
	default:
		return nil, nil, docerrors.NewConfigError(docerrors.ErrCodeUnsupportedInput,
			fmt.Sprintf("unsupported navigation format %q", format))
	}
	if err != nil {
		if _, ok := docerrors.AsNodeErrors(err); ok {
			return nil, nil, err
		}
		return nil, nil, docerrors.WrapValidation(err, docerrors.ErrCodeDecodeFailed, "cannot decode navigation")
	}
	return tree, append(warnings, navigation.Lint(tree)...), nil
}

// LoadFile reads and decodes a navigation file.
func LoadFile(path string) (*Document, error) {
	if _, err := FormatFromPath(path); err != nil {
		return nil, err
	}
	data, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Decode(path, data)
}

// ReadFile reads a navigation file, reporting a missing file with
// ErrCodeFileNotFound.
func ReadFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		code := docerrors.ErrCodeFileRead
		if errors.Is(err, fs.ErrNotExist) {
			code = docerrors.ErrCodeFileNotFound
		}
		return nil, docerrors.WrapIO(err, code, "cannot read navigation file").WithLocation(path)
	}
	return data, nil
}

// Decode parses the contents of the navigation file at path. The format is
// taken from the extension of path.
func Decode(path string, data []byte) (*Document, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}

	tree, warnings, err := Parse(data, format)
	if err != nil {
		if ne, ok := docerrors.AsNodeErrors(err); ok {
			return nil, &FileError{Path: path, Errors: ne}
		}
		var de *docerrors.DocnavError
		if errors.As(err, &de) {
			return nil, de.WithLocation(path)
		}
		return nil, err
	}

	return &Document{Path: path, Tree: tree, Warnings: warnings}, nil
}

// FileError reports invalid nodes in a navigation file.
type FileError struct {
	Path   string
	Errors *docerrors.NodeErrors
}

func (e *FileError) Error() string {
	return e.Path + ": " + e.Errors.Error()
}

func (e *FileError) Unwrap() error {
	return e.Errors
}
