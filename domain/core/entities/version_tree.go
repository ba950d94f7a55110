package entities

import (
	"ctdportal/domain/core/valueobjects"
)

// VersionTree is the ancestry forest of a document's versions.
type VersionTree struct {
	DocumentID string        `json:"documentId"`
	Trees      []VersionNode `json:"trees"`
}

// VersionNode is one version with its derived versions as children.
type VersionNode struct {
	ID              string                 `json:"id"`
	VersionNumber   int                    `json:"versionNumber"`
	AuthorID        string                 `json:"authorId,omitempty"`
	AuthorName      string                 `json:"authorName"`
	CreatedAt       valueobjects.Timestamp `json:"createdAt"`
	ContentHash     string                 `json:"contentHash,omitempty"`
	IotaTxID        string                 `json:"iotaTxId,omitempty"`
	IsCurrent       bool                   `json:"isCurrent"`
	ParentVersionID string                 `json:"parentVersionId,omitempty"`
	Children        []VersionNode          `json:"children"`
}

// Notarized reports whether the version has a ledger transaction.
func (n *VersionNode) Notarized() bool {
	return n.IotaTxID != ""
}

// Leaves returns the number of leaves under n, counting n itself when it has
// no children.
func (n *VersionNode) Leaves() int {
	if len(n.Children) == 0 {
		return 1
	}
	total := 0
	for i := range n.Children {
		total += n.Children[i].Leaves()
	}
	return total
}
