package agora

// A CommentNode is a comment along with its replies.
type CommentNode struct {
	Comment  *Comment
	Depth    int
	Hidden   bool
	Children []*CommentNode
}

// A CommentTree is the hierarchy of a thread: its top-level comments, each carrying its
// replies. Siblings keep the order of the flat thread.
type CommentTree []*CommentNode

// NewCommentTree builds the hierarchy of a flat thread. Comments with no parent are the
// roots, and the children of a comment are those whose ParentID is its ID.
//
// Comments whose parent isn't in the thread are unreachable and left out. A parent chain
// that loops back on itself is cut where it would revisit a comment.
func NewCommentTree(comments []*Comment) CommentTree {
	index := map[int64][]int{}
	roots := []int{}
	for i, c := range comments {
		if c.ParentID == nil {
			roots = append(roots, i)
			continue
		}
		index[*c.ParentID] = append(index[*c.ParentID], i)
	}

	visited := make([]bool, len(comments))
	var build func(i int, depth int) *CommentNode
	build = func(i int, depth int) *CommentNode {
		visited[i] = true
		node := &CommentNode{
			Comment:  comments[i],
			Depth:    depth,
			Children: []*CommentNode{},
		}

		for _, j := range index[comments[i].ID] {
			if visited[j] {
				continue
			}
			node.Children = append(node.Children, build(j, depth+1))
		}

		return node
	}

	tree := make(CommentTree, 0, len(roots))
	for _, i := range roots {
		if visited[i] {
			continue
		}
		tree = append(tree, build(i, 0))
	}

	return tree
}

// Len returns the number of top-level comments.
func (t CommentTree) Len() int {
	return len(t)
}

// Count returns the number of comments in the tree, replies included.
func (t CommentTree) Count() int {
	n := 0
	t.Walk(func(*CommentNode) { n++ })
	return n
}

// Walk calls fn on every node, depth first, parents before their children.
func (t CommentTree) Walk(fn func(*CommentNode)) {
	for _, n := range t {
		n.walk(fn)
	}
}

func (n *CommentNode) walk(fn func(*CommentNode)) {
	fn(n)
	for _, c := range n.Children {
		c.walk(fn)
	}
}

// Find returns the node of the comment with the given id, nil if it's not in the tree.
func (t CommentTree) Find(id int64) *CommentNode {
	var found *CommentNode
	t.Walk(func(n *CommentNode) {
		if found == nil && n.Comment.ID == id {
			found = n
		}
	})
	return found
}

// SetHidden marks the nodes for which isHidden returns true. Hiding a comment only
// collapses its own content, its replies stay in the tree.
func (t CommentTree) SetHidden(isHidden func(id int64) bool) {
	t.Walk(func(n *CommentNode) {
		n.Hidden = isHidden(n.Comment.ID)
	})
}
