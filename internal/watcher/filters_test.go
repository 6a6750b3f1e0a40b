package watcher

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFileSetContains(t *testing.T) {
	dir := t.TempDir()
	nav := filepath.Join(dir, "navigation.yml")
	filter := FileFilter(NewFileSet(nav, filepath.Join(dir, ".docnav.yml")).Contains)

	assert.True(t, filter(nav))
	assert.True(t, filter(filepath.Join(dir, ".docnav.yml")))
	assert.False(t, filter(filepath.Join(dir, "navigation.json")))
}

func TestFileSetTracksChanges(t *testing.T) {
	dir := t.TempDir()
	old := filepath.Join(dir, "navigation.yml")
	next := filepath.Join(dir, "docs", "navigation.json")

	set := NewFileSet(old, "")
	assert.True(t, set.Contains(old))
	assert.False(t, set.Contains(next))

	set.Add(next)
	set.Remove(old)
	assert.False(t, set.Contains(old))
	assert.True(t, set.Contains(next))
	assert.False(t, set.Contains(""))
}

func TestPagesFilter(t *testing.T) {
	dir := t.TempDir()
	filter := PagesFilter(dir, ".mdx", ".md")

	assert.True(t, filter(filepath.Join(dir, "index.mdx")))
	assert.True(t, filter(filepath.Join(dir, "guides", "React.MD")))
	assert.False(t, filter(filepath.Join(dir, "logo.svg")))
	assert.False(t, filter(filepath.Join(dir, ".vocs", "cache.mdx")))
	assert.False(t, filter(filepath.Join(filepath.Dir(dir), "other.mdx")))
}

func TestAnyOf(t *testing.T) {
	filter := AnyOf(ExtensionFilter(".yml"), ExtensionFilter(".json"))
	assert.True(t, filter("a.yml"))
	assert.True(t, filter("a.JSON"))
	assert.False(t, filter("a.ts"))
	assert.False(t, AnyOf()("a.yml"))
}

func TestNoEditorTempFilter(t *testing.T) {
	for _, path := range []string{"nav.yml~", ".nav.yml.swp", ".nav.yml.swx", ".#nav.yml", "4913"} {
		assert.False(t, NoEditorTempFilter(filepath.Join("docs", path)), path)
	}
	assert.True(t, NoEditorTempFilter("docs/navigation.yml"))
}
