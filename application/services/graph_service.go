package services

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"ctdportal/application/ports"
	"ctdportal/domain/core/entities"
	"ctdportal/domain/layout"
	"ctdportal/infrastructure/cache"
	"ctdportal/infrastructure/session"
	apperrors "ctdportal/pkg/errors"
)

// AllDocuments selects every document in the link explorer.
const AllDocuments = "all"

// unknownTitle labels link nodes whose document is not in the list.
const unknownTitle = "Unknown"

// GraphService builds the transclusion graph and the link explorer.
type GraphService struct {
	gateway     ports.Gateway
	cache       *cache.QueryCache
	logger      *zap.Logger
	concurrency int
}

// NewGraphService creates a new graph service
func NewGraphService(gateway ports.Gateway, queryCache *cache.QueryCache, logger *zap.Logger, concurrency int) *GraphService {
	return &GraphService{gateway: gateway, cache: queryCache, logger: logger, concurrency: concurrency}
}

// TransclusionGraph lays out every document with its transclusions.
func (g *GraphService) TransclusionGraph(ctx context.Context, s *session.Session) (*TransclusionGraphView, error) {
	user, err := requireUser(s)
	if err != nil {
		return nil, err
	}
	backend := g.gateway.For(s)
	sc := scope(user.ID)

	docs, err := documents(ctx, g.cache, backend, sc)
	if err != nil {
		return nil, err
	}

	var mu sync.Mutex
	perDoc := make(map[string]layout.DocumentTransclusions, len(docs))

	group, gctx := newGroup(ctx, g.concurrency)
	for _, doc := range docs {
		id := doc.ID
		group.Go(func() error {
			incoming, err := cache.Fetch(gctx, g.cache, sc.key(keyTransclusionsIncoming, id), func(ctx context.Context) ([]entities.Transclusion, error) {
				return backend.IncomingTransclusions(ctx, id)
			})
			if err != nil {
				return err
			}
			outgoing, err := cache.Fetch(gctx, g.cache, sc.key(keyTransclusionsOutgoing, id), func(ctx context.Context) ([]entities.Transclusion, error) {
				return backend.OutgoingTransclusions(ctx, id)
			})
			if err != nil {
				return err
			}

			mu.Lock()
			perDoc[id] = layout.DocumentTransclusions{Incoming: incoming, Outgoing: outgoing}
			mu.Unlock()
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	graph := layout.LayoutTransclusionGraph(docs, perDoc)
	return &TransclusionGraphView{
		Graph:             graph,
		DocumentCount:     len(docs),
		TransclusionCount: len(graph.Edges),
	}, nil
}

// LinkExplorer collects content links of one document, or of every document
// when selection is AllDocuments or empty. In the all view a document whose
// links cannot be loaded contributes none; an expired session still fails.
func (g *GraphService) LinkExplorer(ctx context.Context, s *session.Session, selection string) (*LinkExplorerView, error) {
	user, err := requireUser(s)
	if err != nil {
		return nil, err
	}
	if selection == "" {
		selection = AllDocuments
	}
	backend := g.gateway.For(s)
	sc := scope(user.ID)

	docs, err := documents(ctx, g.cache, backend, sc)
	if err != nil {
		return nil, err
	}

	titles := make(map[string]string, len(docs))
	for _, d := range docs {
		titles[d.ID] = d.Title
	}
	titleOf := func(id string) string {
		if t, ok := titles[id]; ok {
			return t
		}
		return unknownTitle
	}

	links := func(ctx context.Context, id string) ([]entities.ContentLink, error) {
		dl, err := cache.Fetch(ctx, g.cache, sc.key(keyLinks, id), func(ctx context.Context) (*entities.DocumentLinks, error) {
			return backend.DocumentLinks(ctx, id)
		})
		if err != nil {
			return nil, err
		}
		return dl.Links, nil
	}

	var sources []layout.LinkSource
	if selection == AllDocuments {
		sources = make([]layout.LinkSource, len(docs))
		group, gctx := newGroup(ctx, g.concurrency)
		for i, doc := range docs {
			i, doc := i, doc
			group.Go(func() error {
				sources[i] = layout.LinkSource{DocumentID: doc.ID, DocumentTitle: doc.Title}
				found, err := links(gctx, doc.ID)
				switch {
				case err == nil:
					sources[i].Links = found
				case apperrors.IsUnauthorized(err):
					return err
				default:
					g.logger.Warn("Skipping document links",
						zap.String("document_id", doc.ID),
						zap.Error(err),
					)
					sources[i].Links = []entities.ContentLink{}
				}
				return nil
			})
		}
		if err := group.Wait(); err != nil {
			return nil, err
		}
	} else {
		found, err := links(ctx, selection)
		if err != nil {
			return nil, err
		}
		sources = []layout.LinkSource{{DocumentID: selection, DocumentTitle: titleOf(selection), Links: found}}
	}

	view := &LinkExplorerView{
		Selection:  selection,
		Documents:  cardsOf(docs),
		Sources:    make([]LinkSourceSummary, 0, len(sources)),
		TotalLinks: layout.CountLinks(sources),
		Graph:      layout.LayoutLinkGraph(sources),
	}
	for _, src := range sources {
		view.Sources = append(view.Sources, LinkSourceSummary{
			DocumentID:    src.DocumentID,
			DocumentTitle: src.DocumentTitle,
			LinkCount:     len(src.Links),
		})
	}
	return view, nil
}
