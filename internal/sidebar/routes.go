// Package sidebar derives the per-route sidebar mapping consumed by Vocs from
// a navigation tree.
//
// Each top-level section gets its own route ("/getting-started", ...) whose
// sidebar is the full tree with that section expanded and, optionally, every
// other section collapsed. The "/" route carries the default sidebar.
package sidebar

import (
	"strings"
	"unicode"

	docerrors "github.com/dojobyexample/docnav/internal/errors"
	"github.com/dojobyexample/docnav/internal/navigation"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DefaultHomeLabel is the label of the top-level entry that has no route of its own.
const DefaultHomeLabel = "Introduction"

// Route binds a route key to the top-level section it focuses.
type Route struct {
	Key   string `json:"key" yaml:"key"`
	Label string `json:"label" yaml:"label"`
}

// Path returns the sidebar mapping key for the route.
func (r Route) Path() string {
	return "/" + r.Key
}

// ExtractTopLevelRoutes returns one route per top-level node, in order,
// skipping the node labelled homeLabel.
//
// The key is the first path segment of the node's link. Nodes without a link
// use a slug of their label instead. When no segment exists the key is "".
func ExtractTopLevelRoutes(tree navigation.Tree, homeLabel string) []Route {
	routes := make([]Route, 0, len(tree))
	for _, n := range tree {
		if n.Label() == homeLabel {
			continue
		}
		path := n.Href()
		if path == "" {
			path = "/" + Slug(n.Label())
		}
		routes = append(routes, Route{Key: firstSegment(path), Label: n.Label()})
	}
	return routes
}

// firstSegment returns the element after the first "/" of path, or "" when
// there is none.
func firstSegment(path string) string {
	parts := strings.SplitN(path, "/", 3)
	if len(parts) < 2 {
		return ""
	}
	return parts[1]
}

var lower = cases.Lower(language.Und)

// Slug lower-cases s and replaces every run of whitespace with a single "-".
// Leading and trailing whitespace become "-" as well.
func Slug(s string) string {
	s = lower.String(s)

	var b strings.Builder
	b.Grow(len(s))
	inSpace := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			if !inSpace {
				b.WriteByte('-')
			}
			inSpace = true
			continue
		}
		inSpace = false
		b.WriteRune(r)
	}
	return b.String()
}

// DetectCollisions reports every route whose key was already used by an
// earlier route. Later routes win when the mapping is built.
func DetectCollisions(routes []Route) []*docerrors.RouteCollisionError {
	var collisions []*docerrors.RouteCollisionError
	owner := make(map[string]string, len(routes))
	for _, r := range routes {
		if prev, ok := owner[r.Key]; ok {
			collisions = append(collisions, &docerrors.RouteCollisionError{
				Key:      r.Key,
				Previous: prev,
				Current:  r.Label,
			})
		}
		owner[r.Key] = r.Label
	}
	return collisions
}
