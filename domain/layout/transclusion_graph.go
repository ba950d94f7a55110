package layout

import (
	"ctdportal/domain/core/entities"
)

// DocumentTransclusions holds both directions of a document's transclusions.
type DocumentTransclusions struct {
	Incoming []entities.Transclusion
	Outgoing []entities.Transclusion
}

// DocumentNodeData labels a document node of the transclusion graph
type DocumentNodeData struct {
	Title             string `json:"title"`
	VersionNumber     int    `json:"versionNumber"`
	TransclusionCount int    `json:"transclusionCount"`
}

// LayoutTransclusionGraph places documents on a four-column grid and draws
// an edge for every outgoing transclusion whose two documents are known.
// perDoc is keyed by document id; missing entries count as no transclusions.
func LayoutTransclusionGraph(docs []entities.Document, perDoc map[string]DocumentTransclusions) Graph {
	g := newGraph(len(docs))

	for i, doc := range docs {
		t := perDoc[doc.ID]
		count := len(t.Incoming) + len(t.Outgoing)

		kind := "document"
		if count > 0 {
			kind = "transcluding"
		}

		g.Nodes = append(g.Nodes, GraphNode{
			ID:       doc.ID,
			Kind:     kind,
			Position: gridPosition(i, DocumentColumns, DocumentColumnWidth, DocumentRowHeight),
			Data: DocumentNodeData{
				Title:             doc.Title,
				VersionNumber:     doc.CurrentVersionNumber,
				TransclusionCount: count,
			},
		})
	}

	known := make(map[string]struct{}, len(docs))
	for _, doc := range docs {
		known[doc.ID] = struct{}{}
	}

	for _, doc := range docs {
		for _, t := range perDoc[doc.ID].Outgoing {
			source, target := t.SourceID(), t.TargetID()
			if _, ok := known[source]; !ok {
				continue
			}
			if _, ok := known[target]; !ok {
				continue
			}
			g.Edges = append(g.Edges, GraphEdge{
				ID:       t.ID,
				Source:   source,
				Target:   target,
				Label:    "transclude",
				Animated: true,
			})
		}
	}

	return g.finish()
}
