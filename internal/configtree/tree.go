// Package configtree implements the hierarchical configuration tree that
// commit handlers read their declarative state from. A tree is a plain
// string-keyed hierarchy; leaf values are represented as childless child
// nodes, the same way the CLI stores them (set protocols isis domain FOO
// creates the chain protocols -> isis -> domain -> FOO).
package configtree

import (
	"sort"
	"strings"
)

// Node is a single node in the configuration tree.
type Node struct {
	children map[string]*Node
}

// NewNode returns an empty tree node.
func NewNode() *Node {
	return &Node{children: make(map[string]*Node)}
}

// Set creates the given path, adding intermediate nodes as needed.
func (n *Node) Set(path ...string) {
	cur := n
	for _, p := range path {
		next, ok := cur.children[p]
		if !ok {
			next = NewNode()
			cur.children[p] = next
		}
		cur = next
	}
}

// Delete removes the node at the given path and its entire subtree.
// Deleting a path that does not exist is a no-op.
func (n *Node) Delete(path ...string) {
	if len(path) == 0 {
		n.children = make(map[string]*Node)
		return
	}
	parent := n.Get(path[:len(path)-1]...)
	if parent == nil {
		return
	}
	delete(parent.children, path[len(path)-1])
}

// Get returns the node at the given path, or nil.
func (n *Node) Get(path ...string) *Node {
	cur := n
	for _, p := range path {
		next, ok := cur.children[p]
		if !ok {
			return nil
		}
		cur = next
	}
	return cur
}

// Exists reports whether the given path is present in the tree.
func (n *Node) Exists(path ...string) bool {
	return n.Get(path...) != nil
}

// ChildNames returns the sorted names of the node's direct children.
func (n *Node) ChildNames() []string {
	names := make([]string, 0, len(n.children))
	for name := range n.children {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsLeaf reports whether the node has no children.
func (n *Node) IsLeaf() bool {
	return len(n.children) == 0
}

// Clone returns a deep copy of the subtree rooted at n.
func (n *Node) Clone() *Node {
	c := NewNode()
	for name, child := range n.children {
		c.children[name] = child.Clone()
	}
	return c
}

// Equal reports whether two subtrees contain the same paths.
func (n *Node) Equal(other *Node) bool {
	if n == nil || other == nil {
		return n == other
	}
	if len(n.children) != len(other.children) {
		return false
	}
	for name, child := range n.children {
		o, ok := other.children[name]
		if !ok || !child.Equal(o) {
			return false
		}
	}
	return true
}

// MangleKey normalizes a configuration key for dictionary access by
// replacing dashes with underscores (allowed-ips -> allowed_ips).
func MangleKey(key string) string {
	return strings.ReplaceAll(key, "-", "_")
}
