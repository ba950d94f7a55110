package ports

import (
	"context"

	"ctdportal/domain/core/entities"
	"ctdportal/infrastructure/session"
)

// DocumentBackend is the document backend as seen by one authenticated user.
// This is a port in hexagonal architecture; the REST client is its adapter.
type DocumentBackend interface {
	// Auth
	Register(ctx context.Context, req entities.RegisterRequest) (*entities.RegisterResponse, error)
	Login(ctx context.Context, req entities.LoginRequest) (*entities.AuthResponse, error)

	// Documents
	ListDocuments(ctx context.Context) ([]entities.Document, error)
	GetDocument(ctx context.Context, id string) (*entities.Document, error)
	CreateDocument(ctx context.Context, req entities.CreateDocumentRequest) (*entities.Document, error)
	UpdateDocument(ctx context.Context, id string, req entities.UpdateDocumentRequest) (*entities.Document, error)
	DeleteDocument(ctx context.Context, id string) error
	ListVersions(ctx context.Context, id string) ([]entities.DocumentVersion, error)
	AddSection(ctx context.Context, id string, req entities.AddSectionRequest) (*entities.Document, error)
	NodeStructure(ctx context.Context, id, versionID string) (*entities.NodeStructure, error)
	VersionTree(ctx context.Context, id string) (*entities.VersionTree, error)

	// Transclusions and links
	Transclude(ctx context.Context, id string, req entities.TranscludeRequest) (*entities.Transclusion, error)
	IncomingTransclusions(ctx context.Context, id string) ([]entities.Transclusion, error)
	OutgoingTransclusions(ctx context.Context, id string) ([]entities.Transclusion, error)
	DocumentLinks(ctx context.Context, id string) (*entities.DocumentLinks, error)

	// Verification
	VerifyVersion(ctx context.Context, versionID string) (*entities.VerificationResponse, error)

	// Users
	GetUser(ctx context.Context, userID string) (*entities.UserProfile, error)
	UserDocuments(ctx context.Context, userID string) ([]entities.Document, error)
	UserStats(ctx context.Context, userID string) (*entities.UserStats, error)
}

// Gateway hands out a backend that authenticates as the given session and
// tears it down when the backend rejects its token.
type Gateway interface {
	For(s *session.Session) DocumentBackend
}

// GatewayFunc adapts a function to Gateway
type GatewayFunc func(s *session.Session) DocumentBackend

// For implements Gateway
func (f GatewayFunc) For(s *session.Session) DocumentBackend {
	return f(s)
}
