package entities

import (
	"ctdportal/domain/core/valueobjects"
)

// MaxStructureDepth is how deep the backend serialises a node tree before it
// marks a node with MaxDepthReached.
const MaxStructureDepth = 50

// NodeStructure is a recursive snapshot of a version's node tree.
type NodeStructure struct {
	Content         NodeContent     `json:"content"`
	Children        []NodeStructure `json:"children"`
	ChildrenCount   int             `json:"childrenCount"`
	MaxDepthReached bool            `json:"maxDepthReached,omitempty"`
}

// Walk visits every node depth first. Returning false from fn prunes the
// node's children.
func (n *NodeStructure) Walk(fn func(node *NodeStructure, depth int) bool) {
	n.walk(fn, 0)
}

func (n *NodeStructure) walk(fn func(*NodeStructure, int) bool, depth int) {
	if !fn(n, depth) {
		return
	}
	for i := range n.Children {
		n.Children[i].walk(fn, depth+1)
	}
}

// Count returns the number of nodes in the snapshot.
func (n *NodeStructure) Count() int {
	total := 0
	n.Walk(func(*NodeStructure, int) bool {
		total++
		return true
	})
	return total
}

// ContentLink is a bidirectional association between two pieces of content.
type ContentLink struct {
	FirstType   string `json:"firstType"`
	SecondType  string `json:"secondType"`
	FirstValue  any    `json:"firstValue"`
	SecondValue any    `json:"secondValue"`
}

// FirstKey identifies the first endpoint.
func (l ContentLink) FirstKey() string {
	return valueobjects.ContentKey(l.FirstType, l.FirstValue)
}

// SecondKey identifies the second endpoint.
func (l ContentLink) SecondKey() string {
	return valueobjects.ContentKey(l.SecondType, l.SecondValue)
}

// DocumentLinks is every content link found in a document's current version.
type DocumentLinks struct {
	DocumentID string        `json:"documentId"`
	VersionID  string        `json:"versionId,omitempty"`
	Links      []ContentLink `json:"links"`
}
