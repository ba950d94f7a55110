package layout

import (
	"time"

	"ctdportal/domain/core/entities"
)

// VersionNodeData labels a version node.
type VersionNodeData struct {
	VersionNumber int       `json:"versionNumber"`
	AuthorName    string    `json:"authorName"`
	CreatedAt     time.Time `json:"createdAt"`
	IsCurrent     bool      `json:"isCurrent"`
	Notarized     bool      `json:"notarized"`
}

// LayoutVersionTree positions a version ancestry forest top-down. Depth sets
// the row. Every subtree owns a horizontal band as wide as its leaf count, a
// node sits at the left edge of its band, and children split the band left to
// right, so sibling subtrees never overlap. Roots are laid side by side.
func LayoutVersionTree(trees []entities.VersionNode) Graph {
	g := newGraph(0)

	offset := 0.0
	for i := range trees {
		leaves := placeVersion(&g, &trees[i], 0, offset)
		offset += float64(leaves) * VersionColumnWidth
	}

	return g.finish()
}

// placeVersion adds node and its descendants and returns the subtree's width
// in columns.
func placeVersion(g *Graph, node *entities.VersionNode, depth int, left float64) int {
	kind := "version"
	if node.IsCurrent {
		kind = "current"
	}

	g.Nodes = append(g.Nodes, GraphNode{
		ID:       node.ID,
		Kind:     kind,
		Position: Position{X: left, Y: float64(depth) * VersionRowHeight},
		Data: VersionNodeData{
			VersionNumber: node.VersionNumber,
			AuthorName:    node.AuthorName,
			CreatedAt:     node.CreatedAt.Time,
			IsCurrent:     node.IsCurrent,
			Notarized:     node.Notarized(),
		},
	})

	cursor := left
	used := 0
	for i := range node.Children {
		child := &node.Children[i]
		g.Edges = append(g.Edges, GraphEdge{
			ID:     node.ID + "-" + child.ID,
			Source: node.ID,
			Target: child.ID,
		})

		width := placeVersion(g, child, depth+1, cursor)
		cursor += float64(width) * VersionColumnWidth
		used += width
	}

	if used < 1 {
		return 1
	}
	return used
}
