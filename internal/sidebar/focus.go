package sidebar

import "github.com/dojobyexample/docnav/internal/navigation"

// Focus returns a copy of tree in which every branch labelled target is
// expanded. With closeOthers every other branch is collapsed; without it
// their collapsed flag is kept as authored. Leaves are copied unchanged.
//
// Matching is by exact label at every depth, so all branches sharing the
// target label are expanded. The input tree is not modified.
func Focus(tree navigation.Tree, target string, closeOthers bool) navigation.Tree {
	if tree == nil {
		return nil
	}
	return focusNodes(tree, target, closeOthers)
}

func focusNodes(nodes []navigation.Node, target string, closeOthers bool) []navigation.Node {
	out := make([]navigation.Node, len(nodes))
	for i, n := range nodes {
		b, ok := n.(*navigation.Branch)
		if !ok {
			out[i] = n
			continue
		}

		nb := &navigation.Branch{
			Text:  b.Text,
			Link:  b.Link,
			Items: focusNodes(b.Items, target, closeOthers),
		}
		switch {
		case b.Text == target:
			nb.Collapsed = navigation.Bool(false)
		case closeOthers:
			nb.Collapsed = navigation.Bool(true)
		case b.Collapsed != nil:
			nb.Collapsed = navigation.Bool(*b.Collapsed)
		}
		out[i] = nb
	}
	return out
}
