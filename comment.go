package folio

// CommentNode is one comment in a normalized reply forest. Drivers build the
// forest from whatever native schema their source uses; the derived fields
// are computed by EnrichComments and must never be hand-authored.
type CommentNode struct {
	ID            string
	Author        string
	BodyHTML      string
	TimestampUnix int64
	Children      []*CommentNode

	// Derived navigation links. Unset ("") means "no such link": the
	// renderer emits an inert placeholder instead of a dangling anchor.
	ParentID      string
	RootID        string
	NextSiblingID string
	NextRootID    string
}

// EnrichComments computes parent/root/next-sibling/next-root links over the
// forest, mutating derived fields in place and returning the same slice.
//
// Every top-level node except the last gets NextRootID pointing at the
// following root. Every descendant gets ParentID, RootID (its top-level
// ancestor) and the forest-level NextRootID of its root, so an "escape to
// next thread" link works at any depth. Within any children list every child
// but the last gets NextSiblingID.
//
// The result is a pure function of forest structure: enriching twice yields
// identical fields. Input must be non-cyclic with unique ids; that is the
// caller's contract and is not checked here.
func EnrichComments(roots []*CommentNode) []*CommentNode {
	for _, root := range roots {
		clearDerived(root)
	}
	for i := 0; i < len(roots)-1; i++ {
		roots[i].NextRootID = roots[i+1].ID
	}
	for _, root := range roots {
		enrichSubtree(root.Children, root.ID, root.ID, root.NextRootID)
	}
	return roots
}

func enrichSubtree(nodes []*CommentNode, parentID, rootID, nextRootID string) {
	for i, node := range nodes {
		node.ParentID = parentID
		node.RootID = rootID
		node.NextRootID = nextRootID
		if i < len(nodes)-1 {
			node.NextSiblingID = nodes[i+1].ID
		}
		if len(node.Children) > 0 {
			enrichSubtree(node.Children, node.ID, rootID, nextRootID)
		}
	}
}

func clearDerived(node *CommentNode) {
	node.ParentID = ""
	node.RootID = ""
	node.NextSiblingID = ""
	node.NextRootID = ""
	for _, child := range node.Children {
		clearDerived(child)
	}
}

// CountComments returns the total number of nodes in the forest.
func CountComments(roots []*CommentNode) int {
	n := 0
	for _, root := range roots {
		n += 1 + CountComments(root.Children)
	}
	return n
}
