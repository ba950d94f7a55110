package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ctdportal/domain/core/entities"
)

func link(ft string, fv any, st string, sv any) entities.ContentLink {
	return entities.ContentLink{FirstType: ft, FirstValue: fv, SecondType: st, SecondValue: sv}
}

func TestLayoutLinkGraph(t *testing.T) {
	sources := []LinkSource{
		{
			DocumentID:    "d1",
			DocumentTitle: "Protocol",
			Links: []entities.ContentLink{
				link("StringContent", "Dose", "IntegerContent", float64(120)),
				link("StringContent", "Dose", "ImageContent", "chart.png"),
			},
		},
		{
			DocumentID:    "d2",
			DocumentTitle: "Amendment",
			Links: []entities.ContentLink{
				link("IntegerContent", float64(120), "TranscludedContent", "ref"),
			},
		},
	}

	g := LayoutLinkGraph(sources)

	require.Len(t, g.Nodes, 4)
	require.Len(t, g.Edges, 3)
	assert.Equal(t, 3, CountLinks(sources))

	first := g.Nodes[0]
	assert.Equal(t, `StringContent-"Dose"`, first.ID)
	assert.Equal(t, "string", first.Kind)
	assert.Equal(t, Position{0, 0}, first.Position)

	shared, ok := g.Node("IntegerContent-120")
	require.True(t, ok)
	assert.Equal(t, "d1", shared.Data.(ContentNodeData).DocumentID)

	last, _ := g.Node(`TranscludedContent-"ref"`)
	assert.Equal(t, "Amendment", last.Data.(ContentNodeData).DocumentTitle)
	assert.Equal(t, Position{750, 0}, last.Position)

	assert.Equal(t, "edge-0", g.Edges[0].ID)
	assert.Equal(t, "edge-2", g.Edges[2].ID)
	assert.Equal(t, "IntegerContent-120", g.Edges[2].Source)
	assert.Equal(t, sources[1].Links[0], g.Edges[2].Data)
}

func TestLayoutLinkGraph_GridWraps(t *testing.T) {
	var links []entities.ContentLink
	for i := 0; i < 6; i++ {
		links = append(links, link("IntegerContent", float64(2*i), "IntegerContent", float64(2*i+1)))
	}
	g := LayoutLinkGraph([]LinkSource{{DocumentID: "d", Links: links}})

	require.Len(t, g.Nodes, 12)
	assert.Equal(t, Position{0, 180}, g.Nodes[5].Position)
	assert.Equal(t, Position{250, 360}, g.Nodes[11].Position)
}

func TestLayoutLinkGraph_LongPreview(t *testing.T) {
	long := "0123456789012345678901234567890123456789012345678901234567890"
	g := LayoutLinkGraph([]LinkSource{{Links: []entities.ContentLink{link("StringContent", long, "StringContent", "b")}}})
	preview := g.Nodes[0].Data.(ContentNodeData).Preview
	assert.Equal(t, long[:50]+"...", preview)
}

func TestLayoutTransclusionGraph(t *testing.T) {
	docs := make([]entities.Document, 5)
	for i := range docs {
		docs[i] = entities.Document{ID: string(rune('a' + i)), Title: "Doc", CurrentVersionNumber: i + 1}
	}

	a, b := docs[0], docs[1]
	perDoc := map[string]DocumentTransclusions{
		"a": {Outgoing: []entities.Transclusion{
			{ID: "t1", SourceDocument: &a, TargetDocument: &b},
			{ID: "t-broken", SourceDocument: &a},
			{ID: "t-gone", SourceDocument: &a, TargetDocument: &entities.Document{ID: "z"}},
		}},
		"b": {Incoming: []entities.Transclusion{{ID: "t1", SourceDocument: &a, TargetDocument: &b}}},
	}

	g := LayoutTransclusionGraph(docs, perDoc)

	require.Len(t, g.Nodes, 5)
	assert.Equal(t, Position{900, 0}, g.Nodes[3].Position)
	assert.Equal(t, Position{0, 200}, g.Nodes[4].Position)

	assert.Equal(t, 3, g.Nodes[0].Data.(DocumentNodeData).TransclusionCount)
	assert.Equal(t, 1, g.Nodes[1].Data.(DocumentNodeData).TransclusionCount)
	assert.Equal(t, "document", g.Nodes[2].Kind)
	assert.Equal(t, "transcluding", g.Nodes[0].Kind)

	require.Len(t, g.Edges, 1)
	assert.Equal(t, GraphEdge{ID: "t1", Source: "a", Target: "b", Label: "transclude", Animated: true}, g.Edges[0])
}
