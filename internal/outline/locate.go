package outline

// Locate finds the deepest node whose section range contains offset and
// the chain of nodes above it. The returned ancestor set holds every node
// on the root-to-active path except the active node itself; it is empty
// when no node contains the offset.
//
// Section ranges are nested and non-overlapping by construction, so at
// most one sibling at each depth can contain the offset; siblings of a
// containing node are skipped without descending into them.
func Locate(roots []*Node, offset int) (*Node, map[*Node]bool) {
	ancestors := make(map[*Node]bool)
	active := descend(roots, offset, ancestors)
	return active, ancestors
}

func descend(nodes []*Node, offset int, ancestors map[*Node]bool) *Node {
	for _, n := range nodes {
		if n.Pos <= offset && offset < n.SectionEnd {
			if deepest := descend(n.Children, offset, ancestors); deepest != nil {
				ancestors[n] = true
				return deepest
			}
			// The offset sits in this node's own text, before any
			// containing child.
			return n
		}
	}
	return nil
}
