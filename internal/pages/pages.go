// Package pages cross-checks navigation links against the Vocs pages
// directory. A link such as /guides/react resolves to
// <dir>/guides/react.mdx or <dir>/guides/react/index.mdx (for each
// configured extension, in order). Resolved pages are parsed with goldmark
// to read their title from the frontmatter or the first level-1 heading.
package pages

import (
	"context"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	docerrors "github.com/dojobyexample/docnav/internal/errors"
	"github.com/dojobyexample/docnav/internal/logging"
	"github.com/dojobyexample/docnav/internal/navigation"
	"github.com/yuin/goldmark"
	meta "github.com/yuin/goldmark-meta"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"golang.org/x/sync/errgroup"
)

// DefaultExtensions are the page extensions Vocs picks up.
var DefaultExtensions = []string{".mdx", ".md"}

// Page is a navigation entry whose link resolved to a file.
type Page struct {
	Route string `json:"route" yaml:"route"`
	File  string `json:"file" yaml:"file"`
	// Label is the navigation text pointing at the page.
	Label string `json:"label" yaml:"label"`
	// NodePath locates the entry in the tree, e.g. [2].items[0].
	NodePath string `json:"node_path" yaml:"node_path"`
	Title    string `json:"title,omitempty" yaml:"title,omitempty"`
}

// TitleMatches reports whether the page title agrees with the navigation
// label. Pages without a title always match.
func (p Page) TitleMatches() bool {
	return p.Title == "" || strings.EqualFold(strings.TrimSpace(p.Title), strings.TrimSpace(p.Label))
}

// MissingLink is a navigation link with no page behind it.
type MissingLink struct {
	Route    string `json:"route" yaml:"route"`
	Label    string `json:"label" yaml:"label"`
	NodePath string `json:"node_path" yaml:"node_path"`
	// Tried lists the candidate files, relative to the pages directory.
	Tried []string `json:"tried" yaml:"tried"`
}

// Report is the result of a page check.
type Report struct {
	Dir      string        `json:"dir" yaml:"dir"`
	Resolved []Page        `json:"resolved" yaml:"resolved"`
	Missing  []MissingLink `json:"missing" yaml:"missing"`
	// Orphans are page files, relative to Dir, that no link points at.
	Orphans []string `json:"orphans" yaml:"orphans"`
}

// OK reports whether every link resolved.
func (r *Report) OK() bool {
	return len(r.Missing) == 0
}

// TitleMismatches returns resolved pages whose title differs from the label.
func (r *Report) TitleMismatches() []Page {
	var out []Page
	for _, p := range r.Resolved {
		if !p.TitleMatches() {
			out = append(out, p)
		}
	}
	return out
}

// Checker resolves navigation links against a pages directory.
type Checker struct {
	dir        string
	extensions []string
	md         goldmark.Markdown
	logger     logging.Logger
	workers    int
}

// NewChecker creates a checker for dir. Empty extensions select
// DefaultExtensions; a nil logger discards output.
func NewChecker(dir string, extensions []string, logger logging.Logger) *Checker {
	if len(extensions) == 0 {
		extensions = DefaultExtensions
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Checker{
		dir:        dir,
		extensions: extensions,
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM, meta.Meta),
			goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		),
		logger:  logger.WithComponent("pages"),
		workers: 8,
	}
}

type entry struct {
	route    string
	label    string
	nodePath string
}

// Check resolves every internal link of tree. A missing pages directory is
// not an error: every link is then reported missing.
func (c *Checker) Check(ctx context.Context, tree navigation.Tree) (*Report, error) {
	if err := navigation.Validate(tree); err != nil {
		return nil, docerrors.WrapValidation(err, docerrors.ErrCodeInvalidNode, "navigation tree is invalid")
	}

	var entries []entry
	navigation.Walk(tree, func(n navigation.Node, path string, _ int) bool {
		if route, ok := normalizeRoute(n.Href()); ok {
			entries = append(entries, entry{route: route, label: n.Label(), nodePath: path})
		}
		return true
	})

	report := &Report{Dir: c.dir, Resolved: []Page{}, Missing: []MissingLink{}, Orphans: []string{}}
	results := make([]result, len(entries))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)
	for i, e := range entries {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := c.resolve(e)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	referenced := make(map[string]bool)
	for i, res := range results {
		e := entries[i]
		if res.file == "" {
			report.Missing = append(report.Missing, MissingLink{
				Route: e.route, Label: e.label, NodePath: e.nodePath, Tried: res.tried,
			})
			c.logger.Debug(ctx, "Page not found", "route", e.route, "section", e.label)
			continue
		}
		referenced[res.file] = true
		report.Resolved = append(report.Resolved, Page{
			Route: e.route, File: res.file, Label: e.label, NodePath: e.nodePath, Title: res.title,
		})
	}

	files, err := c.listPages()
	if err != nil {
		return nil, err
	}
	for _, f := range files {
		if !referenced[f] {
			report.Orphans = append(report.Orphans, f)
		}
	}

	c.logger.Info(ctx, "Pages checked",
		"resolved", len(report.Resolved),
		"missing", len(report.Missing),
		"orphans", len(report.Orphans))
	return report, nil
}

type result struct {
	file  string
	title string
	tried []string
}

func (c *Checker) resolve(e entry) (result, error) {
	var res result
	for _, candidate := range c.candidates(e.route) {
		res.tried = append(res.tried, candidate)
		full := filepath.Join(c.dir, filepath.FromSlash(candidate))
		if !within(c.dir, full) {
			continue
		}
		info, err := os.Stat(full)
		if err != nil || info.IsDir() {
			continue
		}
		title, err := c.Title(full)
		if err != nil {
			return result{}, err
		}
		res.file = candidate
		res.title = title
		res.tried = nil
		return res, nil
	}
	return res, nil
}

// candidates lists the slash-separated files that may back route.
func (c *Checker) candidates(route string) []string {
	base := strings.TrimPrefix(route, "/")
	var out []string
	if base != "" {
		for _, ext := range c.extensions {
			out = append(out, base+ext)
		}
	}
	for _, ext := range c.extensions {
		out = append(out, strings.TrimPrefix(base+"/index"+ext, "/"))
	}
	return out
}

// Title reads the title of the page at path: the frontmatter title when
// present, otherwise the text of the first level-1 heading.
func (c *Checker) Title(path string) (string, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return "", docerrors.WrapIO(err, docerrors.ErrCodeFileRead, "cannot read page").WithLocation(path)
	}
	return c.title(source), nil
}

func (c *Checker) title(source []byte) string {
	pctx := parser.NewContext()
	doc := c.md.Parser().Parse(text.NewReader(source), parser.WithContext(pctx))

	if fm := meta.Get(pctx); fm != nil {
		if t, ok := fm["title"].(string); ok && strings.TrimSpace(t) != "" {
			return strings.TrimSpace(t)
		}
	}

	var title string
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if h, ok := n.(*ast.Heading); ok && h.Level == 1 {
			title = strings.TrimSpace(inlineText(h, source))
			return ast.WalkStop, nil
		}
		return ast.WalkContinue, nil
	})
	return title
}

func inlineText(n ast.Node, source []byte) string {
	var b strings.Builder
	for child := n.FirstChild(); child != nil; child = child.NextSibling() {
		switch v := child.(type) {
		case *ast.Text:
			b.Write(v.Segment.Value(source))
			if v.SoftLineBreak() || v.HardLineBreak() {
				b.WriteByte(' ')
			}
		case *ast.String:
			b.Write(v.Value)
		default:
			b.WriteString(inlineText(child, source))
		}
	}
	return b.String()
}

// listPages returns every page file under the pages directory, relative and
// slash-separated, sorted.
func (c *Checker) listPages() ([]string, error) {
	info, err := os.Stat(c.dir)
	if err != nil || !info.IsDir() {
		return nil, nil
	}

	var files []string
	err = filepath.WalkDir(c.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != c.dir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !c.isPage(d.Name()) {
			return nil
		}
		rel, err := filepath.Rel(c.dir, path)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, docerrors.WrapIO(err, docerrors.ErrCodeFileRead, "cannot list pages").WithLocation(c.dir)
	}
	sort.Strings(files)
	return files, nil
}

func (c *Checker) isPage(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range c.extensions {
		if ext == strings.ToLower(e) {
			return true
		}
	}
	return false
}

// normalizeRoute strips the fragment and query of an internal link and
// cleans its path, so dot segments cannot climb above the site root.
// External and relative links are rejected.
func normalizeRoute(link string) (string, bool) {
	if link == "" || navigation.IsExternal(link) || !strings.HasPrefix(link, "/") {
		return "", false
	}
	if i := strings.IndexAny(link, "?#"); i >= 0 {
		link = link[:i]
	}
	return path.Clean(link), true
}

// within reports whether full lies inside dir.
func within(dir, full string) bool {
	rel, err := filepath.Rel(dir, full)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
