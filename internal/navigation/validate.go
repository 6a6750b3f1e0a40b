package navigation

import (
	"fmt"
	"strings"

	docerrors "github.com/dojobyexample/docnav/internal/errors"
	"github.com/dojobyexample/docnav/internal/validation"
)

type nodeErrors struct {
	docerrors.NodeErrors
}

func (e *nodeErrors) add(path, field, reason string) {
	e.Add(docerrors.NewInvalidNodeError(path, field, reason))
}

// Validate checks the structural invariants of a tree: every node has a
// label, labels are unique among siblings, branches have children and the
// tree is no deeper than MaxDepth. All problems are reported together.
func Validate(t Tree) error {
	var errs nodeErrors
	validateLevel(t, "", 0, &errs)
	return errs.ErrorOrNil()
}

func validateLevel(nodes []Node, prefix string, depth int, errs *nodeErrors) {
	if depth >= MaxDepth && len(nodes) > 0 {
		errs.add(prefix, "items", fmt.Sprintf("nesting deeper than %d levels", MaxDepth))
		return
	}

	seen := make(map[string]string, len(nodes))
	for i, n := range nodes {
		p := ChildPath(prefix, i)
		if n == nil {
			errs.add(p, "", "nil node")
			continue
		}
		if b, ok := n.(*Branch); ok && b == nil {
			errs.add(p, "", "nil branch")
			continue
		}

		text := n.Label()
		if strings.TrimSpace(text) == "" {
			errs.add(p, "text", "text is required")
		} else if first, dup := seen[text]; dup {
			errs.add(p, "text", fmt.Sprintf("duplicate sibling label %q (first at %s)", text, first))
		} else {
			seen[text] = p
		}

		if b, ok := n.(*Branch); ok {
			if len(b.Items) == 0 {
				errs.add(p, "items", "a branch needs at least one item")
				continue
			}
			validateLevel(b.Items, p, depth+1, errs)
		}
	}
}

// Lint returns non-fatal findings about a valid tree.
func Lint(t Tree) []Warning {
	var warnings []Warning
	Walk(t, func(n Node, path string, _ int) bool {
		href := n.Href()
		switch validation.ClassifyLink(href) {
		case validation.LinkNone:
			if _, ok := n.(Leaf); ok {
				warnings = append(warnings, Warning{Path: path, Message: "entry has neither link nor items"})
			}
		case validation.LinkInternal:
			if hasDotSegments(href) {
				warnings = append(warnings, Warning{Path: path, Message: fmt.Sprintf("link %q contains . or .. segments", href)})
			}
		case validation.LinkRelative:
			warnings = append(warnings, Warning{Path: path, Message: fmt.Sprintf("link %q is not site-absolute", href)})
		case validation.LinkUnsafe:
			warnings = append(warnings, Warning{Path: path, Message: fmt.Sprintf("link %q uses a scheme that is not allowed in the sidebar", href)})
		case validation.LinkExternal:
			if err := validation.ValidateExternalURL(href); err != nil {
				warnings = append(warnings, Warning{Path: path, Message: fmt.Sprintf("link %q: %v", href, err)})
			}
		}
		return true
	})
	return warnings
}

// IsExternal reports whether a link leaves the site.
func IsExternal(link string) bool {
	return validation.ClassifyLink(link) == validation.LinkExternal
}

func hasDotSegments(link string) bool {
	if i := strings.IndexAny(link, "?#"); i >= 0 {
		link = link[:i]
	}
	for _, part := range strings.Split(link, "/") {
		if part == "." || part == ".." {
			return true
		}
	}
	return false
}
