package analysis

import (
	"strings"

	"github.com/repolens/repolens-mcp/pkg/types"
)

// TreeBuilder reconstructs a directory hierarchy from included file
// paths. Insertion is O(depth); subtree aggregates are computed in a
// single bottom-up pass at Root() time rather than on every insert.
type TreeBuilder struct {
	root *treeNode
}

type treeNode struct {
	name     string
	children map[string]*treeNode
	isFile   bool
	size     int64
}

// NewTreeBuilder creates an empty builder.
func NewTreeBuilder() *TreeBuilder {
	return &TreeBuilder{root: &treeNode{name: ".", children: make(map[string]*treeNode)}}
}

// Accept inserts one entry's path into the tree. Intermediate directory
// nodes are created on demand, once. Deleted files have no place in a
// structure view and are ignored.
func (b *TreeBuilder) Accept(e types.FileEntry) error {
	if e.Status == types.ChangeDeleted {
		return nil
	}
	node := b.root
	segments := strings.Split(e.Path, "/")
	for i, seg := range segments {
		if seg == "" {
			continue
		}
		last := i == len(segments)-1
		child, ok := node.children[seg]
		if !ok {
			child = &treeNode{name: seg}
			if !last {
				child.children = make(map[string]*treeNode)
			}
			node.children[seg] = child
		}
		if last {
			child.isFile = true
			child.size = e.SizeBytes
		}
		node = child
	}
	return nil
}

// Root materializes the tree with subtree aggregates. Directories with
// zero included files never exist here by construction: only inserted
// file paths create nodes. Returns nil when nothing was inserted.
func (b *TreeBuilder) Root() *types.DirectoryNode {
	if len(b.root.children) == 0 {
		return nil
	}
	return b.root.materialize()
}

func (n *treeNode) materialize() *types.DirectoryNode {
	out := &types.DirectoryNode{Name: n.name}
	if n.isFile {
		out.FileCount = 1
		out.SizeBytes = n.size
		return out
	}
	out.Children = make(map[string]*types.DirectoryNode, len(n.children))
	for name, child := range n.children {
		m := child.materialize()
		out.Children[name] = m
		out.FileCount += m.FileCount
		out.SizeBytes += m.SizeBytes
	}
	return out
}
