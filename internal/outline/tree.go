package outline

// Node is a heading entry placed in the section tree. Children are ordered
// by position and all have a strictly greater level. ID is assigned at
// build time, dense from 0 in input order, and survives filtering (a
// filtered copy keeps the ID of its source node).
type Node struct {
	Entry
	ID       int
	Children []*Node
}

// Tree is one built snapshot of the document outline. It is rebuilt in
// full whenever a new heading list arrives; nodes of different snapshots
// are never mixed.
type Tree struct {
	Roots   []*Node
	parents map[*Node]*Node
	size    int
}

// Build converts an ascending-position heading list into a section tree
// using a single pass over a stack of currently open sections. A level
// jump (h1 directly to h3) nests the deeper heading without synthetic
// intermediates. A list violating the entry contract is rejected whole.
func Build(entries []Entry) (*Tree, error) {
	if err := validate(entries); err != nil {
		return nil, err
	}

	t := &Tree{
		parents: make(map[*Node]*Node, len(entries)),
		size:    len(entries),
	}

	var stack []*Node
	for i, e := range entries {
		n := &Node{Entry: e, ID: i}

		// Close every open section that cannot contain this heading.
		for len(stack) > 0 && stack[len(stack)-1].Level >= e.Level {
			stack = stack[:len(stack)-1]
		}

		if len(stack) == 0 {
			t.Roots = append(t.Roots, n)
		} else {
			parent := stack[len(stack)-1]
			parent.Children = append(parent.Children, n)
			t.parents[n] = parent
		}
		stack = append(stack, n)
	}

	return t, nil
}

// Parent returns the parent of n in the full tree, or nil for roots and
// for nodes that do not belong to this tree.
func (t *Tree) Parent(n *Node) *Node {
	return t.parents[n]
}

// Len returns the number of headings in the tree.
func (t *Tree) Len() int {
	return t.size
}

// ParentMap walks a forest top-down and returns its parent relation.
// Roots are absent from the map.
func ParentMap(roots []*Node) map[*Node]*Node {
	parents := make(map[*Node]*Node)
	var walk func(n *Node)
	walk = func(n *Node) {
		for _, c := range n.Children {
			parents[c] = n
			walk(c)
		}
	}
	for _, r := range roots {
		walk(r)
	}
	return parents
}
