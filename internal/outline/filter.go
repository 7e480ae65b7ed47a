package outline

import "strings"

// Filter prunes the forest by a case-insensitive substring match on node
// text. A node is kept if its own text matches or if any descendant
// matches; non-matching ancestors of a match survive as structural
// connectors. Kept nodes are shallow copies carrying only their kept
// children, so the input forest is never mutated. The companion parent
// map describes the filtered shape, which differs from the original once
// connectors are involved.
//
// An empty or whitespace-only term is a no-op: the original forest is
// returned with a freshly derived parent map.
func Filter(roots []*Node, term string) ([]*Node, map[*Node]*Node) {
	term = strings.TrimSpace(term)
	if term == "" {
		return roots, ParentMap(roots)
	}
	kept := prune(roots, strings.ToLower(term))
	return kept, ParentMap(kept)
}

func prune(nodes []*Node, lowTerm string) []*Node {
	var kept []*Node
	for _, n := range nodes {
		children := prune(n.Children, lowTerm)
		if len(children) == 0 && !strings.Contains(strings.ToLower(n.Text), lowTerm) {
			continue
		}
		cp := *n
		cp.Children = children
		kept = append(kept, &cp)
	}
	return kept
}
