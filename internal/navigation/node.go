// Package navigation models the hand-authored navigation tree of a Vocs
// documentation site.
//
// A tree is a sequence of nodes. A node is either a Leaf, which points at a
// page, or a *Branch, which groups child nodes and carries the collapsed flag
// the sidebar honours. Decoding from the Vocs object shape decides the variant
// from the presence of a non-empty items list.
package navigation

// MaxDepth bounds how deeply branches may nest.
const MaxDepth = 32

// Node is one entry of a navigation tree. It is implemented by Leaf and *Branch only.
type Node interface {
	// Label returns the display text, which is also the matching key for focus.
	Label() string
	// Href returns the page path, or "" when the node has none.
	Href() string

	node()
}

// Leaf is a navigation entry without children.
type Leaf struct {
	Text string
	Link string
}

// Label returns the display text.
func (l Leaf) Label() string { return l.Text }

// Href returns the page path.
func (l Leaf) Href() string { return l.Link }

func (Leaf) node() {}

// Branch is a navigation entry with at least one child.
type Branch struct {
	Text string
	// Link is optional; Vocs allows a section header to be a page as well.
	Link  string
	Items []Node
	// Collapsed is nil when the author did not set it.
	Collapsed *bool
}

// Label returns the display text.
func (b *Branch) Label() string { return b.Text }

// Href returns the page path.
func (b *Branch) Href() string { return b.Link }

func (*Branch) node() {}

// IsCollapsed reports whether the branch is explicitly collapsed.
func (b *Branch) IsCollapsed() bool {
	return b.Collapsed != nil && *b.Collapsed
}

// Tree is a top-level sequence of navigation nodes.
type Tree []Node

// Bool returns a pointer to v, for building Collapsed values.
func Bool(v bool) *bool {
	return &v
}

// Clone returns a deep copy of the tree.
func (t Tree) Clone() Tree {
	if t == nil {
		return nil
	}
	out := make(Tree, len(t))
	for i, n := range t {
		out[i] = cloneNode(n)
	}
	return out
}

func cloneNode(n Node) Node {
	switch v := n.(type) {
	case Leaf:
		return v
	case *Branch:
		b := &Branch{
			Text:  v.Text,
			Link:  v.Link,
			Items: make([]Node, len(v.Items)),
		}
		if v.Collapsed != nil {
			b.Collapsed = Bool(*v.Collapsed)
		}
		for i, child := range v.Items {
			b.Items[i] = cloneNode(child)
		}
		return b
	default:
		return n
	}
}

// Equal reports whether two trees have the same structure, labels, links and
// collapsed flags. A nil Collapsed and an explicit false are different.
func Equal(a, b Tree) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !equalNode(a[i], b[i]) {
			return false
		}
	}
	return true
}

func equalNode(a, b Node) bool {
	switch x := a.(type) {
	case Leaf:
		y, ok := b.(Leaf)
		return ok && x == y
	case *Branch:
		y, ok := b.(*Branch)
		if !ok || x.Text != y.Text || x.Link != y.Link {
			return false
		}
		if (x.Collapsed == nil) != (y.Collapsed == nil) {
			return false
		}
		if x.Collapsed != nil && *x.Collapsed != *y.Collapsed {
			return false
		}
		return Equal(x.Items, y.Items)
	default:
		return false
	}
}

// EqualIgnoringCollapsed reports whether two trees differ at most in their
// collapsed flags.
func EqualIgnoringCollapsed(a, b Tree) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Label() != b[i].Label() || a[i].Href() != b[i].Href() {
			return false
		}
		ab, aok := a[i].(*Branch)
		bb, bok := b[i].(*Branch)
		if aok != bok {
			return false
		}
		if aok && !EqualIgnoringCollapsed(ab.Items, bb.Items) {
			return false
		}
	}
	return true
}
