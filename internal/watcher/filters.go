package watcher

import (
	"path/filepath"
	"strings"
	"sync"
)

// FileSet is a set of absolute file paths that may change while a watcher
// runs, for example when a reloaded config names another navigation file.
type FileSet struct {
	mutex sync.RWMutex
	paths map[string]bool
}

// NewFileSet creates a set holding paths.
func NewFileSet(paths ...string) *FileSet {
	s := &FileSet{paths: make(map[string]bool, len(paths))}
	for _, p := range paths {
		s.Add(p)
	}
	return s
}

// Add puts path into the set. Empty paths are ignored.
func (s *FileSet) Add(path string) {
	if path == "" {
		return
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return
	}
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.paths[abs] = true
}

// Remove drops path from the set.
func (s *FileSet) Remove(path string) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return
	}
	s.mutex.Lock()
	defer s.mutex.Unlock()
	delete(s.paths, abs)
}

// Contains reports whether path is in the set. It has the FileFilter
// signature.
func (s *FileSet) Contains(path string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.paths[abs]
}

// ExtensionFilter accepts files with one of the given extensions, compared
// case-insensitively.
func ExtensionFilter(exts ...string) FileFilter {
	return func(path string) bool {
		ext := strings.ToLower(filepath.Ext(path))
		for _, e := range exts {
			if ext == strings.ToLower(e) {
				return true
			}
		}
		return false
	}
}

// AnyOf accepts a path when at least one filter does.
func AnyOf(filters ...FileFilter) FileFilter {
	return func(path string) bool {
		for _, f := range filters {
			if f(path) {
				return true
			}
		}
		return false
	}
}

// NoEditorTempFilter rejects swap and backup files written by editors.
func NoEditorTempFilter(path string) bool {
	base := filepath.Base(path)
	switch {
	case strings.HasSuffix(base, "~"),
		strings.HasSuffix(base, ".swp"),
		strings.HasSuffix(base, ".swx"),
		strings.HasPrefix(base, ".#"),
		base == "4913":
		return false
	}
	return true
}

// PagesFilter accepts page files inside dir with one of exts. Files below
// hidden directories such as .vocs/ are rejected.
func PagesFilter(dir string, exts ...string) FileFilter {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return func(string) bool { return false }
	}
	hasExt := ExtensionFilter(exts...)
	return func(path string) bool {
		if !hasExt(path) {
			return false
		}
		abs, err := filepath.Abs(path)
		if err != nil {
			return false
		}
		rel, err := filepath.Rel(absDir, abs)
		if err != nil {
			return false
		}
		for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
			if strings.HasPrefix(part, ".") {
				return false
			}
		}
		return true
	}
}
