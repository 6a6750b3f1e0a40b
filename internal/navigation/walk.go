package navigation

import "fmt"

// WalkFunc is called for every node. path locates the node, e.g. "[1].items[0]",
// and depth is 0 for top-level nodes. Returning false skips the node's children.
type WalkFunc func(n Node, path string, depth int) bool

// Walk visits every node of the tree depth-first, in order.
func Walk(t Tree, fn WalkFunc) {
	walk(t, "", 0, fn)
}

func walk(nodes []Node, prefix string, depth int, fn WalkFunc) {
	for i, n := range nodes {
		p := ChildPath(prefix, i)
		if !fn(n, p, depth) {
			continue
		}
		if b, ok := n.(*Branch); ok {
			walk(b.Items, p, depth+1, fn)
		}
	}
}

// ChildPath returns the path of the i-th child below prefix.
func ChildPath(prefix string, i int) string {
	if prefix == "" {
		return fmt.Sprintf("[%d]", i)
	}
	return fmt.Sprintf("%s.items[%d]", prefix, i)
}

// Count returns the number of nodes in the tree.
func Count(t Tree) int {
	n := 0
	Walk(t, func(Node, string, int) bool {
		n++
		return true
	})
	return n
}

// Links returns every link in the tree, in document order.
func Links(t Tree) []string {
	var links []string
	Walk(t, func(n Node, _ string, _ int) bool {
		if n.Href() != "" {
			links = append(links, n.Href())
		}
		return true
	})
	return links
}
