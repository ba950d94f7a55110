// Package layout turns backend graphs into positioned nodes and edges that a
// flow-chart widget can draw without further computation.
package layout

// Spacing of the layouts, in widget pixels.
const (
	VersionColumnWidth = 250
	VersionRowHeight   = 200

	LinkColumns     = 5
	LinkColumnWidth = 250
	LinkRowHeight   = 180
	LinkPreviewLen  = 50

	DocumentColumns     = 4
	DocumentColumnWidth = 300
	DocumentRowHeight   = 200
)

// Position is the top-left corner of a node
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// GraphNode is a positioned node. Data holds one of the *NodeData types.
type GraphNode struct {
	ID       string   `json:"id"`
	Kind     string   `json:"kind"`
	Position Position `json:"position"`
	Data     any      `json:"data"`
}

// GraphEdge connects two nodes by id
type GraphEdge struct {
	ID       string `json:"id"`
	Source   string `json:"source"`
	Target   string `json:"target"`
	Label    string `json:"label,omitempty"`
	Animated bool   `json:"animated"`
	Data     any    `json:"data,omitempty"`
}

// GraphStats summarises a laid out graph
type GraphStats struct {
	NodeCount int `json:"node_count"`
	EdgeCount int `json:"edge_count"`
}

// Graph is the result of every layout in this package.
type Graph struct {
	Nodes []GraphNode `json:"nodes"`
	Edges []GraphEdge `json:"edges"`
	Stats GraphStats  `json:"stats"`
}

func newGraph(nodeCap int) Graph {
	return Graph{
		Nodes: make([]GraphNode, 0, nodeCap),
		Edges: make([]GraphEdge, 0),
	}
}

func (g *Graph) finish() Graph {
	g.Stats = GraphStats{NodeCount: len(g.Nodes), EdgeCount: len(g.Edges)}
	return *g
}

// Node looks a node up by id.
func (g Graph) Node(id string) (GraphNode, bool) {
	for _, n := range g.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return GraphNode{}, false
}

func gridPosition(index, columns int, colWidth, rowHeight float64) Position {
	return Position{
		X: float64(index%columns) * colWidth,
		Y: float64(index/columns) * rowHeight,
	}
}
