package hierarchy

// Walk visits every node of the forest depth-first in stored child order.
// depth is 0 for roots. Returning false from fn skips the node's children.
func Walk(forest []*TreeNode, fn func(node *TreeNode, depth int) bool) {
	var walk func(node *TreeNode, depth int)
	walk = func(node *TreeNode, depth int) {
		if node == nil {
			return
		}
		if !fn(node, depth) {
			return
		}
		for _, child := range node.Children {
			walk(child, depth+1)
		}
	}
	for _, root := range forest {
		walk(root, 0)
	}
}

// Index returns every reachable node keyed by id.
func Index(forest []*TreeNode) map[string]*TreeNode {
	idx := make(map[string]*TreeNode)
	Walk(forest, func(node *TreeNode, _ int) bool {
		idx[node.ID] = node
		return true
	})
	return idx
}

// Counts tallies the reachable nodes of a forest by kind.
type Counts struct {
	Clients   int
	Projects  int
	Tasks     int
	Files     int
	Favorites int
	Bytes     int64
}

// Count walks the forest and tallies nodes by kind.
func Count(forest []*TreeNode) Counts {
	var c Counts
	Walk(forest, func(node *TreeNode, _ int) bool {
		switch node.Kind {
		case KindClient:
			c.Clients++
		case KindProject:
			c.Projects++
		case KindTask:
			c.Tasks++
		case KindFile:
			c.Files++
			if node.File != nil {
				c.Bytes += node.File.FileSize
				if node.File.IsFavorite {
					c.Favorites++
				}
			}
		}
		return true
	})
	return c
}

// Files returns the file nodes beneath node (or node itself if it is a file),
// in traversal order.
func Files(node *TreeNode) []*TreeNode {
	var out []*TreeNode
	Walk([]*TreeNode{node}, func(n *TreeNode, _ int) bool {
		if n.IsFile() {
			out = append(out, n)
		}
		return true
	})
	return out
}
