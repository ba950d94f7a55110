package services

import (
	"context"
	"strconv"

	"go.uber.org/zap"

	"ctdportal/application/ports"
	"ctdportal/domain/core/entities"
	"ctdportal/domain/core/valueobjects"
	"ctdportal/domain/layout"
	"ctdportal/infrastructure/cache"
	"ctdportal/infrastructure/session"
	apperrors "ctdportal/pkg/errors"
	"ctdportal/pkg/observability"
	"ctdportal/pkg/utils"
)

// StructurePreviewLen is the preview length of structure lines.
const StructurePreviewLen = 80

// DocumentService backs the dashboard and the document screen
type DocumentService struct {
	gateway     ports.Gateway
	cache       *cache.QueryCache
	metrics     *observability.Collector
	logger      *zap.Logger
	concurrency int
}

// NewDocumentService creates a new document service
func NewDocumentService(
	gateway ports.Gateway,
	queryCache *cache.QueryCache,
	metrics *observability.Collector,
	logger *zap.Logger,
	concurrency int,
) *DocumentService {
	return &DocumentService{
		gateway:     gateway,
		cache:       queryCache,
		metrics:     metrics,
		logger:      logger,
		concurrency: concurrency,
	}
}

// documents is the cached document list shared by several screens.
func documents(ctx context.Context, c *cache.QueryCache, backend ports.DocumentBackend, sc scope) ([]entities.Document, error) {
	return cache.Fetch(ctx, c, sc.key(keyDocuments), func(ctx context.Context) ([]entities.Document, error) {
		docs, err := backend.ListDocuments(ctx)
		if docs == nil && err == nil {
			docs = []entities.Document{}
		}
		return docs, err
	})
}

// Dashboard lists the user's documents
func (d *DocumentService) Dashboard(ctx context.Context, s *session.Session) (*DashboardView, error) {
	user, err := requireUser(s)
	if err != nil {
		return nil, err
	}

	docs, err := documents(ctx, d.cache, d.gateway.For(s), scope(user.ID))
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to load documents")
	}

	return &DashboardView{
		User:          user,
		Documents:     cardsOf(docs),
		DocumentTypes: valueobjects.DocumentTypes,
		CanCreate:     user.Role.CanAuthor(),
	}, nil
}

// CreateDocument validates and creates a document, then drops the cached
// document list so the next read refetches it.
func (d *DocumentService) CreateDocument(ctx context.Context, s *session.Session, req entities.CreateDocumentRequest) (*entities.Document, error) {
	user, err := requireUser(s)
	if err != nil {
		return nil, err
	}
	if err := utils.ValidateStruct(req); err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}

	doc, err := d.gateway.For(s).CreateDocument(ctx, req)
	if err != nil {
		return nil, err
	}

	sc := scope(user.ID)
	d.cache.Invalidate(sc.key(keyDocuments), sc.key(keyUserDocuments, user.ID), sc.key(keyUserStats, user.ID))
	d.metrics.DocumentCreated()

	d.logger.Info("Document created",
		zap.String("document_id", doc.ID),
		zap.String("doc_type", string(doc.DocType)),
		zap.String("user_id", user.ID),
	)
	return doc, nil
}

// Detail loads everything the document screen shows. The verification of the
// current version is best effort.
func (d *DocumentService) Detail(ctx context.Context, s *session.Session, id string) (*DocumentDetailView, error) {
	user, err := requireUser(s)
	if err != nil {
		return nil, err
	}
	backend := d.gateway.For(s)
	sc := scope(user.ID)

	var (
		doc      *entities.Document
		versions []entities.DocumentVersion
		incoming []entities.Transclusion
		outgoing []entities.Transclusion
		all      []entities.Document
	)

	g, gctx := newGroup(ctx, d.concurrency)
	g.Go(func() error {
		var err error
		doc, err = cache.Fetch(gctx, d.cache, sc.key(keyDocument, id), func(ctx context.Context) (*entities.Document, error) {
			return backend.GetDocument(ctx, id)
		})
		return err
	})
	g.Go(func() error {
		var err error
		versions, err = cache.Fetch(gctx, d.cache, sc.key(keyDocumentVersions, id), func(ctx context.Context) ([]entities.DocumentVersion, error) {
			return backend.ListVersions(ctx, id)
		})
		return err
	})
	g.Go(func() error {
		var err error
		incoming, err = cache.Fetch(gctx, d.cache, sc.key(keyTransclusionsIncoming, id), func(ctx context.Context) ([]entities.Transclusion, error) {
			return backend.IncomingTransclusions(ctx, id)
		})
		return err
	})
	g.Go(func() error {
		var err error
		outgoing, err = cache.Fetch(gctx, d.cache, sc.key(keyTransclusionsOutgoing, id), func(ctx context.Context) ([]entities.Transclusion, error) {
			return backend.OutgoingTransclusions(ctx, id)
		})
		return err
	})
	g.Go(func() error {
		var err error
		all, err = documents(gctx, d.cache, backend, sc)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	view := &DocumentDetailView{
		Document:           *doc,
		Versions:           nonNil(versions),
		Incoming:           nonNil(incoming),
		Outgoing:           nonNil(outgoing),
		VerificationStatus: VerificationNone,
		CanEdit:            doc.IsAuthoredBy(user.ID),
		CanDelete:          doc.IsAuthoredBy(user.ID),
	}
	if content, ok := entities.ContentOf(doc.ContentJSON); ok {
		view.Content = &content
	}

	view.TranscludeSources = make([]DocumentCard, 0, len(all))
	for _, other := range all {
		if other.ID != doc.ID {
			view.TranscludeSources = append(view.TranscludeSources, cardOf(other))
		}
	}

	if doc.CurrentVersionID != "" {
		versionID := doc.CurrentVersionID
		verification, err := cache.Fetch(ctx, d.cache, sc.key(keyVerification, versionID), func(ctx context.Context) (*entities.VerificationResponse, error) {
			return backend.VerifyVersion(ctx, versionID)
		})
		switch {
		case err == nil:
			view.Verification = verification
			view.VerificationStatus = VerificationUnverified
			if verification.Verified {
				view.VerificationStatus = VerificationVerified
			}
		case apperrors.IsUnauthorized(err):
			return nil, err
		default:
			d.logger.Warn("Verification unavailable",
				zap.String("document_id", id),
				zap.String("version_id", versionID),
				zap.Error(err),
			)
			view.VerificationStatus = VerificationUnverified
		}
	}

	return view, nil
}

// UpdateDocument stores new content as a new version
func (d *DocumentService) UpdateDocument(ctx context.Context, s *session.Session, id string, req entities.UpdateDocumentRequest) (*entities.Document, error) {
	user, err := requireUser(s)
	if err != nil {
		return nil, err
	}
	if err := utils.ValidateStruct(req); err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}

	doc, err := d.gateway.For(s).UpdateDocument(ctx, id, req)
	if err != nil {
		return nil, err
	}

	d.cache.Invalidate(scope(user.ID).documentKeys(id)...)
	return doc, nil
}

// DeleteDocument deletes a document and drops every cached view of it
func (d *DocumentService) DeleteDocument(ctx context.Context, s *session.Session, id string) error {
	user, err := requireUser(s)
	if err != nil {
		return err
	}

	if err := d.gateway.For(s).DeleteDocument(ctx, id); err != nil {
		return err
	}

	sc := scope(user.ID)
	d.cache.Invalidate(append(sc.documentKeys(id), sc.key(keyStructure, id))...)

	d.logger.Info("Document deleted", zap.String("document_id", id), zap.String("user_id", user.ID))
	return nil
}

// Transclude includes another document's content into document id
func (d *DocumentService) Transclude(ctx context.Context, s *session.Session, id string, req entities.TranscludeRequest) (*entities.Transclusion, error) {
	user, err := requireUser(s)
	if err != nil {
		return nil, err
	}
	if err := utils.ValidateStruct(req); err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}
	if req.SourceDocumentID == id {
		return nil, apperrors.NewValidationError("a document cannot transclude itself")
	}

	t, err := d.gateway.For(s).Transclude(ctx, id, req)
	if err != nil {
		return nil, err
	}

	sc := scope(user.ID)
	d.cache.Invalidate(
		sc.key(keyTransclusionsIncoming, id),
		sc.key(keyTransclusionsOutgoing, id),
		sc.key(keyTransclusionsIncoming, req.SourceDocumentID),
		sc.key(keyTransclusionsOutgoing, req.SourceDocumentID),
	)
	return t, nil
}

// AddSection appends a typed section. INTEGER values given as text are
// converted to numbers.
func (d *DocumentService) AddSection(ctx context.Context, s *session.Session, id string, req entities.AddSectionRequest) (*entities.Document, error) {
	user, err := requireUser(s)
	if err != nil {
		return nil, err
	}
	if err := utils.ValidateStruct(req); err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}
	if req.ContentType == valueobjects.SectionInteger {
		if text, ok := req.Value.(string); ok {
			n, err := strconv.ParseInt(text, 10, 64)
			if err != nil {
				return nil, apperrors.NewValidationError("value must be an integer")
			}
			req.Value = n
		}
	}

	doc, err := d.gateway.For(s).AddSection(ctx, id, req)
	if err != nil {
		return nil, err
	}

	d.cache.Invalidate(scope(user.ID).documentKeys(id)...)
	return doc, nil
}

// Structure returns the node tree of one version
func (d *DocumentService) Structure(ctx context.Context, s *session.Session, id, versionID string) (*StructureView, error) {
	user, err := requireUser(s)
	if err != nil {
		return nil, err
	}
	backend := d.gateway.For(s)

	root, err := cache.Fetch(ctx, d.cache, scope(user.ID).key(keyStructure, id, versionID), func(ctx context.Context) (*entities.NodeStructure, error) {
		return backend.NodeStructure(ctx, id, versionID)
	})
	if err != nil {
		return nil, err
	}

	view := &StructureView{DocumentID: id, VersionID: versionID, Root: *root}
	root.Walk(func(n *entities.NodeStructure, depth int) bool {
		view.Lines = append(view.Lines, StructureLine{
			Depth:           depth,
			Type:            n.Content.Type,
			Kind:            n.Content.Kind(),
			Preview:         valueobjects.Preview(n.Content.Value, StructurePreviewLen),
			AuthorName:      n.Content.AuthorName,
			ChildrenCount:   n.ChildrenCount,
			MaxDepthReached: n.MaxDepthReached,
		})
		return true
	})
	view.NodeCount = len(view.Lines)
	return view, nil
}

// VersionTree returns the version ancestry laid out as a graph
func (d *DocumentService) VersionTree(ctx context.Context, s *session.Session, id string) (*VersionTreeView, error) {
	user, err := requireUser(s)
	if err != nil {
		return nil, err
	}
	backend := d.gateway.For(s)

	tree, err := cache.Fetch(ctx, d.cache, scope(user.ID).key(keyVersionTree, id), func(ctx context.Context) (*entities.VersionTree, error) {
		return backend.VersionTree(ctx, id)
	})
	if err != nil {
		return nil, err
	}

	return &VersionTreeView{
		DocumentID: id,
		Trees:      nonNil(tree.Trees),
		Graph:      layout.LayoutVersionTree(tree.Trees),
	}, nil
}

// Compare puts version number `version` next to the version before it in the
// history. version 0 selects the newest version.
func (d *DocumentService) Compare(ctx context.Context, s *session.Session, id string, version int) (*ComparisonView, error) {
	user, err := requireUser(s)
	if err != nil {
		return nil, err
	}
	backend := d.gateway.For(s)

	versions, err := cache.Fetch(ctx, d.cache, scope(user.ID).key(keyDocumentVersions, id), func(ctx context.Context) ([]entities.DocumentVersion, error) {
		return backend.ListVersions(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	if len(versions) < 2 {
		return nil, apperrors.NewValidationError("document has a single version, nothing to compare")
	}

	// History is newest first.
	index := 0
	if version != 0 {
		index = -1
		for i, v := range versions {
			if v.VersionNumber == version {
				index = i
				break
			}
		}
		if index < 0 {
			return nil, apperrors.NewNotFoundError("version " + strconv.Itoa(version))
		}
	}
	if index == len(versions)-1 {
		return nil, apperrors.NewValidationError("the first version has no predecessor")
	}

	newer, older := sideOf(versions[index]), sideOf(versions[index+1])
	return &ComparisonView{
		DocumentID: id,
		Old:        older,
		New:        newer,
		Changed:    older.Text != newer.Text,
	}, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// Verify returns the ledger status of one version
func (d *DocumentService) Verify(ctx context.Context, s *session.Session, versionID string) (*entities.VerificationResponse, error) {
	user, err := requireUser(s)
	if err != nil {
		return nil, err
	}
	backend := d.gateway.For(s)

	return cache.Fetch(ctx, d.cache, scope(user.ID).key(keyVerification, versionID), func(ctx context.Context) (*entities.VerificationResponse, error) {
		return backend.VerifyVersion(ctx, versionID)
	})
}
