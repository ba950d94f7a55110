package services

import (
	"context"

	"golang.org/x/sync/errgroup"

	"ctdportal/domain/core/entities"
	"ctdportal/infrastructure/cache"
	"ctdportal/infrastructure/session"
	apperrors "ctdportal/pkg/errors"
)

// DefaultConcurrency bounds the fan-out of a single page load.
const DefaultConcurrency = 8

// Cache key roots. Keys are scoped per user with cache.Key.
const (
	keyDocuments             = "documents"
	keyDocument              = "document"
	keyDocumentVersions      = "document-versions"
	keyTransclusionsIncoming = "transclusions-incoming"
	keyTransclusionsOutgoing = "transclusions-outgoing"
	keyVerification          = "verification"
	keyLinks                 = "links"
	keyVersionTree           = "version-tree"
	keyStructure             = "structure"
	keyUserProfile           = "user-profile"
	keyUserStats             = "user-stats"
	keyUserDocuments         = "user-documents"
)

// requireUser returns the session subject or an UNAUTHORIZED error.
func requireUser(s *session.Session) (entities.SessionUser, error) {
	if s == nil {
		return entities.SessionUser{}, apperrors.NewUnauthorizedError("not logged in")
	}
	user, ok := s.User()
	if !ok {
		return entities.SessionUser{}, apperrors.NewUnauthorizedError("not logged in")
	}
	return user, nil
}

// newGroup starts a bounded errgroup.
func newGroup(ctx context.Context, limit int) (*errgroup.Group, context.Context) {
	g, gctx := errgroup.WithContext(ctx)
	if limit < 1 {
		limit = DefaultConcurrency
	}
	g.SetLimit(limit)
	return g, gctx
}

// scope builds cache keys for one user.
type scope string

func (s scope) key(parts ...string) string {
	return cache.Key(string(s), parts...)
}

// documentKeys lists the cached reads that go stale when document id changes:
// the document lists of its author, its own views, and every transclusion and
// link list, which embed document titles.
func (s scope) documentKeys(id string) []string {
	return []string{
		s.key(keyDocuments),
		s.key(keyDocument, id),
		s.key(keyDocumentVersions, id),
		s.key(keyVersionTree, id),
		s.key(keyTransclusionsIncoming),
		s.key(keyTransclusionsOutgoing),
		s.key(keyLinks),
		s.key(keyUserDocuments, string(s)),
		s.key(keyUserStats, string(s)),
	}
}
