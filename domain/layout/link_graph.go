package layout

import (
	"fmt"

	"ctdportal/domain/core/entities"
	"ctdportal/domain/core/valueobjects"
)

// LinkSource is the link list of one document together with the title shown
// on the content nodes it contributes.
type LinkSource struct {
	DocumentID    string
	DocumentTitle string
	Links         []entities.ContentLink
}

// ContentNodeData labels a content node of the link graph.
type ContentNodeData struct {
	ContentType   string `json:"contentType"`
	Preview       string `json:"preview"`
	DocumentID    string `json:"documentId"`
	DocumentTitle string `json:"documentTitle"`
}

// LayoutLinkGraph builds one node per distinct piece of content and one edge
// per link. Content is identified by type and value; the first document that
// mentions it owns the node. Nodes fill a five-column grid in discovery order.
func LayoutLinkGraph(sources []LinkSource) Graph {
	g := newGraph(0)
	seen := make(map[string]struct{})

	add := func(key, contentType string, value any, src *LinkSource) {
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		g.Nodes = append(g.Nodes, GraphNode{
			ID:       key,
			Kind:     valueobjects.ContentType(contentType).Kind(),
			Position: gridPosition(len(g.Nodes), LinkColumns, LinkColumnWidth, LinkRowHeight),
			Data: ContentNodeData{
				ContentType:   contentType,
				Preview:       valueobjects.Preview(value, LinkPreviewLen),
				DocumentID:    src.DocumentID,
				DocumentTitle: src.DocumentTitle,
			},
		})
	}

	for i := range sources {
		src := &sources[i]
		for _, link := range src.Links {
			add(link.FirstKey(), link.FirstType, link.FirstValue, src)
			add(link.SecondKey(), link.SecondType, link.SecondValue, src)
		}
	}

	for _, src := range sources {
		for _, link := range src.Links {
			g.Edges = append(g.Edges, GraphEdge{
				ID:       fmt.Sprintf("edge-%d", len(g.Edges)),
				Source:   link.FirstKey(),
				Target:   link.SecondKey(),
				Label:    "link",
				Animated: true,
				Data:     link,
			})
		}
	}

	return g.finish()
}

// CountLinks totals the links across sources.
func CountLinks(sources []LinkSource) int {
	total := 0
	for _, src := range sources {
		total += len(src.Links)
	}
	return total
}
