package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ctdportal/application/ports"
	"ctdportal/domain/core/entities"
	"ctdportal/domain/core/valueobjects"
	"ctdportal/infrastructure/apiclient"
	"ctdportal/infrastructure/apiclient/apiclienttest"
	"ctdportal/infrastructure/cache"
	"ctdportal/infrastructure/session"
	"ctdportal/pkg/auth"
	apperrors "ctdportal/pkg/errors"
	"ctdportal/pkg/observability"
)

type fixture struct {
	backend  *apiclienttest.Backend
	cache    *cache.QueryCache
	metrics  *observability.Collector
	auth     *AuthService
	docs     *DocumentService
	graphs   *GraphService
	profiles *ProfileService
	sponsor  entities.User
	auditor  entities.User
}

func setup(t *testing.T) *fixture {
	t.Helper()

	backend := apiclienttest.New()
	t.Cleanup(backend.Close)

	metrics := observability.NewCollector("test")
	client, err := apiclient.New(apiclient.Options{BaseURL: backend.URL(), Timeout: 5 * time.Second, Metrics: metrics})
	require.NoError(t, err)

	gateway := ports.GatewayFunc(func(s *session.Session) ports.DocumentBackend {
		return client.WithSession(s)
	})
	queryCache := cache.NewQueryCache(time.Minute, metrics)
	logger := zap.NewNop()

	return &fixture{
		backend:  backend,
		cache:    queryCache,
		metrics:  metrics,
		auth:     NewAuthService(gateway, queryCache, logger),
		docs:     NewDocumentService(gateway, queryCache, metrics, logger, 4),
		graphs:   NewGraphService(gateway, queryCache, logger, 4),
		profiles: NewProfileService(gateway, queryCache, 4),
		sponsor:  backend.AddUser("bianchi@pharma.example", "secret1", "Anna Bianchi", valueobjects.RoleSponsor),
		auditor:  backend.AddUser("audit@agency.example", "secret1", "Marco Verdi", valueobjects.RoleAuditor),
	}
}

func (f *fixture) sessionFor(t *testing.T, u entities.User) *session.Session {
	t.Helper()
	s := session.New(&session.MemoryStore{}, auth.NewTokenDecoder(""), nil)
	require.NoError(t, s.SetToken(f.backend.TokenFor(u)))
	return s
}

func anonymous() *session.Session {
	return session.New(&session.MemoryStore{}, auth.NewTokenDecoder(""), nil)
}

func TestAuthService_LoginLogout(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	s := anonymous()

	_, err := f.auth.Login(ctx, s, entities.LoginRequest{Email: "bianchi@pharma.example"})
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))

	_, err = f.auth.Login(ctx, s, entities.LoginRequest{Email: "bianchi@pharma.example", Password: "nope"})
	require.Error(t, err)
	assert.True(t, apperrors.IsUnauthorized(err))
	assert.False(t, s.IsAuthenticated())

	user, err := f.auth.Login(ctx, s, entities.LoginRequest{Email: "bianchi@pharma.example", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, f.sponsor.ID, user.ID)
	assert.Equal(t, "Anna Bianchi", user.Name)
	assert.Equal(t, valueobjects.RoleSponsor, user.Role)
	assert.True(t, s.IsAuthenticated())

	_, err = f.docs.Dashboard(ctx, s)
	require.NoError(t, err)
	assert.Positive(t, f.cache.Len())

	require.NoError(t, f.auth.Logout(s))
	assert.False(t, s.IsAuthenticated())
	assert.Zero(t, f.cache.Len())

	_, err = f.docs.Dashboard(ctx, s)
	assert.True(t, apperrors.IsUnauthorized(err))
}

func TestAuthService_Register(t *testing.T) {
	f := setup(t)

	_, err := f.auth.Register(context.Background(), anonymous(), entities.RegisterRequest{
		Email: "not-an-email", Password: "secret1", Name: "X", Role: valueobjects.RoleHospital,
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))

	resp, err := f.auth.Register(context.Background(), anonymous(), entities.RegisterRequest{
		Email: "new@hospital.example", Password: "secret1", Name: "New", Role: valueobjects.RoleHospital,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.UserID)
}

func TestDocumentService_CreateRefetchesList(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	s := f.sessionFor(t, f.sponsor)

	dash, err := f.docs.Dashboard(ctx, s)
	require.NoError(t, err)
	assert.Empty(t, dash.Documents)
	assert.True(t, dash.CanCreate)
	assert.Len(t, dash.DocumentTypes, 5)

	_, err = f.docs.Dashboard(ctx, s)
	require.NoError(t, err)
	assert.Equal(t, 1, f.backend.Calls("GET /api/documents"), "second dashboard load is served from cache")

	_, err = f.docs.CreateDocument(ctx, s, entities.CreateDocumentRequest{Title: "Protocol"})
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
	assert.Zero(t, f.backend.Calls("POST /api/documents"))

	created, err := f.docs.CreateDocument(ctx, s, entities.CreateDocumentRequest{
		Title: "Protocol CT-001", DocType: valueobjects.DocTypeProtocol, InitialContent: "Inclusion criteria",
	})
	require.NoError(t, err)

	dash, err = f.docs.Dashboard(ctx, s)
	require.NoError(t, err)
	assert.Equal(t, 2, f.backend.Calls("GET /api/documents"))
	require.Len(t, dash.Documents, 1)
	assert.Equal(t, created.ID, dash.Documents[0].ID)
	assert.Equal(t, 1, dash.Documents[0].VersionNumber)
	assert.True(t, dash.Documents[0].Notarized)
}

func TestDocumentService_CacheIsPerUser(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	f.backend.AddDocument(f.sponsor, "Protocol", valueobjects.DocTypeProtocol, "text")

	_, err := f.docs.Dashboard(ctx, f.sessionFor(t, f.sponsor))
	require.NoError(t, err)
	dash, err := f.docs.Dashboard(ctx, f.sessionFor(t, f.auditor))
	require.NoError(t, err)

	assert.Equal(t, 2, f.backend.Calls("GET /api/documents"))
	assert.False(t, dash.CanCreate)
	assert.Len(t, dash.Documents, 1)
}

func TestDocumentService_Detail(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	protocol := f.backend.AddDocument(f.sponsor, "Protocol", valueobjects.DocTypeProtocol, "Inclusion criteria")
	icf := f.backend.AddDocument(f.sponsor, "ICF", valueobjects.DocTypeICF, "Consent")
	f.backend.AddTransclusion(f.sponsor, protocol.ID, icf.ID)

	t.Run("author", func(t *testing.T) {
		view, err := f.docs.Detail(ctx, f.sessionFor(t, f.sponsor), icf.ID)
		require.NoError(t, err)

		assert.Equal(t, "ICF", view.Document.Title)
		require.NotNil(t, view.Content)
		assert.Equal(t, "Consent", view.Content.Display())
		assert.Len(t, view.Versions, 1)
		assert.Len(t, view.Incoming, 1)
		assert.Empty(t, view.Outgoing)
		require.Len(t, view.TranscludeSources, 1)
		assert.Equal(t, protocol.ID, view.TranscludeSources[0].ID)
		assert.Equal(t, VerificationVerified, view.VerificationStatus)
		require.NotNil(t, view.Verification)
		assert.Equal(t, view.Document.CurrentVersionID, view.Verification.VersionID)
		assert.True(t, view.CanEdit)
		assert.True(t, view.CanDelete)
	})

	t.Run("other user", func(t *testing.T) {
		view, err := f.docs.Detail(ctx, f.sessionFor(t, f.auditor), icf.ID)
		require.NoError(t, err)
		assert.False(t, view.CanEdit)
		assert.False(t, view.CanDelete)
	})

	t.Run("verification failure is not fatal", func(t *testing.T) {
		f.backend.Fail("GET /api/verification/version/{versionId}", 500, 1)
		view, err := f.docs.Detail(ctx, f.sessionFor(t, f.sponsor), protocol.ID)
		require.NoError(t, err)
		assert.Equal(t, VerificationUnverified, view.VerificationStatus)
		assert.Nil(t, view.Verification)
	})

	t.Run("missing document", func(t *testing.T) {
		_, err := f.docs.Detail(ctx, f.sessionFor(t, f.sponsor), "missing")
		require.Error(t, err)
		assert.True(t, apperrors.IsNotFound(err))
	})
}

func TestDocumentService_Mutations(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	s := f.sessionFor(t, f.sponsor)

	doc := f.backend.AddDocument(f.sponsor, "Protocol", valueobjects.DocTypeProtocol, "v1")
	source := f.backend.AddDocument(f.sponsor, "Amendment", valueobjects.DocTypeAmendment, "shared")

	view, err := f.docs.Detail(ctx, s, doc.ID)
	require.NoError(t, err)
	require.Len(t, view.Versions, 1)

	_, err = f.docs.UpdateDocument(ctx, s, doc.ID, entities.UpdateDocumentRequest{Title: "Protocol", Content: "v2"})
	require.NoError(t, err)

	view, err = f.docs.Detail(ctx, s, doc.ID)
	require.NoError(t, err)
	assert.Len(t, view.Versions, 2)
	assert.Equal(t, "v2", view.Content.Display())

	_, err = f.docs.AddSection(ctx, s, doc.ID, entities.AddSectionRequest{ContentType: valueobjects.SectionInteger, Value: "abc"})
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))

	_, err = f.docs.AddSection(ctx, s, doc.ID, entities.AddSectionRequest{ContentType: valueobjects.SectionInteger, Value: "120"})
	require.NoError(t, err)

	_, err = f.docs.Transclude(ctx, s, doc.ID, entities.TranscludeRequest{SourceDocumentID: doc.ID})
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))

	_, err = f.docs.Transclude(ctx, s, doc.ID, entities.TranscludeRequest{SourceDocumentID: source.ID})
	require.NoError(t, err)

	view, err = f.docs.Detail(ctx, s, doc.ID)
	require.NoError(t, err)
	assert.Len(t, view.Versions, 3)
	assert.Len(t, view.Incoming, 1)

	structure, err := f.docs.Structure(ctx, s, doc.ID, view.Document.CurrentVersionID)
	require.NoError(t, err)
	require.Len(t, structure.Lines, 2)
	assert.Equal(t, 0, structure.Lines[0].Depth)
	assert.Equal(t, "v2", structure.Lines[0].Preview)
	assert.Equal(t, 1, structure.Lines[1].Depth)
	assert.Equal(t, "integer", structure.Lines[1].Kind)
	assert.Equal(t, "120", structure.Lines[1].Preview)
	assert.Equal(t, 2, structure.NodeCount)

	tree, err := f.docs.VersionTree(ctx, s, doc.ID)
	require.NoError(t, err)
	assert.Len(t, tree.Graph.Nodes, 3)
	assert.Len(t, tree.Graph.Edges, 2)

	require.NoError(t, f.docs.DeleteDocument(ctx, s, doc.ID))
	dash, err := f.docs.Dashboard(ctx, s)
	require.NoError(t, err)
	require.Len(t, dash.Documents, 1)
	assert.Equal(t, source.ID, dash.Documents[0].ID)
}

func TestDocumentService_MutationsRefreshCachedViews(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	s := f.sessionFor(t, f.sponsor)

	doc := f.backend.AddDocument(f.sponsor, "Protocol", valueobjects.DocTypeProtocol, "v1")
	f.backend.SetLinks(doc.ID, []entities.ContentLink{
		{FirstType: "StringContent", FirstValue: "dose", SecondType: "IntegerContent", SecondValue: 120},
	})

	// Warm every view that shows the document.
	dash, err := f.docs.Dashboard(ctx, s)
	require.NoError(t, err)
	require.Len(t, dash.Documents, 1)
	assert.Equal(t, "Protocol", dash.Documents[0].Title)
	tree, err := f.docs.VersionTree(ctx, s, doc.ID)
	require.NoError(t, err)
	assert.Len(t, tree.Graph.Nodes, 1)
	links, err := f.graphs.LinkExplorer(ctx, s, doc.ID)
	require.NoError(t, err)
	require.Len(t, links.Sources, 1)
	assert.Equal(t, "Protocol", links.Sources[0].DocumentTitle)
	profile, err := f.profiles.Profile(ctx, s, f.sponsor.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), profile.Stats.VersionsAuthored)

	t.Run("update", func(t *testing.T) {
		_, err := f.docs.UpdateDocument(ctx, s, doc.ID, entities.UpdateDocumentRequest{Title: "Protocol v2", Content: "v2"})
		require.NoError(t, err)

		dash, err := f.docs.Dashboard(ctx, s)
		require.NoError(t, err)
		require.Len(t, dash.Documents, 1)
		assert.Equal(t, "Protocol v2", dash.Documents[0].Title)
		assert.Equal(t, 2, dash.Documents[0].VersionNumber)

		tree, err := f.docs.VersionTree(ctx, s, doc.ID)
		require.NoError(t, err)
		assert.Len(t, tree.Graph.Nodes, 2)

		links, err := f.graphs.LinkExplorer(ctx, s, doc.ID)
		require.NoError(t, err)
		require.Len(t, links.Sources, 1)
		assert.Equal(t, "Protocol v2", links.Sources[0].DocumentTitle)

		profile, err := f.profiles.Profile(ctx, s, f.sponsor.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(2), profile.Stats.VersionsAuthored)
		require.Len(t, profile.Documents, 1)
		assert.Equal(t, "Protocol v2", profile.Documents[0].Title)
	})

	t.Run("add section", func(t *testing.T) {
		_, err := f.docs.AddSection(ctx, s, doc.ID, entities.AddSectionRequest{ContentType: valueobjects.SectionInteger, Value: "120"})
		require.NoError(t, err)

		dash, err := f.docs.Dashboard(ctx, s)
		require.NoError(t, err)
		require.Len(t, dash.Documents, 1)
		assert.Equal(t, 3, dash.Documents[0].VersionNumber)

		tree, err := f.docs.VersionTree(ctx, s, doc.ID)
		require.NoError(t, err)
		assert.Len(t, tree.Graph.Nodes, 3)

		profile, err := f.profiles.Profile(ctx, s, f.sponsor.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(3), profile.Stats.VersionsAuthored)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, f.docs.DeleteDocument(ctx, s, doc.ID))

		_, err := f.docs.VersionTree(ctx, s, doc.ID)
		require.Error(t, err)
		assert.True(t, apperrors.IsNotFound(err))

		_, err = f.graphs.LinkExplorer(ctx, s, doc.ID)
		require.Error(t, err)
		assert.True(t, apperrors.IsNotFound(err))

		profile, err := f.profiles.Profile(ctx, s, f.sponsor.ID)
		require.NoError(t, err)
		assert.Zero(t, profile.Stats.DocumentsCreated)
		assert.Empty(t, profile.Documents)
	})
}

func TestDocumentService_Verify(t *testing.T) {
	f := setup(t)
	doc := f.backend.AddDocument(f.sponsor, "Protocol", valueobjects.DocTypeProtocol, "v1")

	v, err := f.docs.Verify(context.Background(), f.sessionFor(t, f.auditor), doc.CurrentVersionID)
	require.NoError(t, err)
	assert.True(t, v.Verified)
	assert.Equal(t, "Protocol", v.DocumentTitle)

	_, err = f.docs.Verify(context.Background(), f.sessionFor(t, f.auditor), "unknown")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestDocumentService_DeleteForbidden(t *testing.T) {
	f := setup(t)
	doc := f.backend.AddDocument(f.sponsor, "Protocol", valueobjects.DocTypeProtocol, "v1")

	err := f.docs.DeleteDocument(context.Background(), f.sessionFor(t, f.auditor), doc.ID)
	require.Error(t, err)
	assert.True(t, apperrors.IsForbidden(err))
	assert.Len(t, f.backend.Documents(), 1)
}

func TestDocumentService_Compare(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	s := f.sessionFor(t, f.sponsor)

	doc := f.backend.AddDocument(f.sponsor, "Protocol", valueobjects.DocTypeProtocol, "first")

	_, err := f.docs.Compare(ctx, s, doc.ID, 0)
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))

	_, err = f.docs.UpdateDocument(ctx, s, doc.ID, entities.UpdateDocumentRequest{Title: "Protocol", Content: "second"})
	require.NoError(t, err)
	_, err = f.docs.UpdateDocument(ctx, s, doc.ID, entities.UpdateDocumentRequest{Title: "Protocol", Content: "second"})
	require.NoError(t, err)

	cmp, err := f.docs.Compare(ctx, s, doc.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, cmp.New.VersionNumber)
	assert.Equal(t, 2, cmp.Old.VersionNumber)
	assert.False(t, cmp.Changed)

	cmp, err = f.docs.Compare(ctx, s, doc.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, "first", cmp.Old.Text)
	assert.Equal(t, "second", cmp.New.Text)
	assert.Equal(t, "Anna Bianchi", cmp.New.AuthorName)
	assert.True(t, cmp.Changed)

	_, err = f.docs.Compare(ctx, s, doc.ID, 1)
	assert.True(t, apperrors.IsValidation(err))

	_, err = f.docs.Compare(ctx, s, doc.ID, 9)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestDocumentService_UnauthorizedClearsSession(t *testing.T) {
	f := setup(t)
	s := f.sessionFor(t, f.sponsor)
	f.backend.Revoke()

	_, err := f.docs.Dashboard(context.Background(), s)
	require.Error(t, err)
	assert.True(t, apperrors.IsUnauthorized(err))
	assert.False(t, s.IsAuthenticated())
}

func TestGraphService_TransclusionGraph(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	a := f.backend.AddDocument(f.sponsor, "Protocol", valueobjects.DocTypeProtocol, "a")
	b := f.backend.AddDocument(f.sponsor, "ICF", valueobjects.DocTypeICF, "b")
	c := f.backend.AddDocument(f.sponsor, "Audit", valueobjects.DocTypeAuditReport, "c")
	tr := f.backend.AddTransclusion(f.sponsor, a.ID, b.ID)

	view, err := f.graphs.TransclusionGraph(ctx, f.sessionFor(t, f.auditor))
	require.NoError(t, err)
	assert.Equal(t, 3, view.DocumentCount)
	assert.Equal(t, 1, view.TransclusionCount)

	require.Len(t, view.Graph.Edges, 1)
	edge := view.Graph.Edges[0]
	assert.Equal(t, tr.ID, edge.ID)
	assert.Equal(t, a.ID, edge.Source)
	assert.Equal(t, b.ID, edge.Target)

	node, ok := view.Graph.Node(c.ID)
	require.True(t, ok)
	assert.Equal(t, "document", node.Kind)
	node, ok = view.Graph.Node(a.ID)
	require.True(t, ok)
	assert.Equal(t, "transcluding", node.Kind)
}

func TestGraphService_LinkExplorer(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	s := f.sessionFor(t, f.sponsor)

	a := f.backend.AddDocument(f.sponsor, "Protocol", valueobjects.DocTypeProtocol, "a")
	b := f.backend.AddDocument(f.sponsor, "ICF", valueobjects.DocTypeICF, "b")
	f.backend.SetLinks(a.ID, []entities.ContentLink{
		{FirstType: "StringContent", FirstValue: "dose", SecondType: "IntegerContent", SecondValue: 120},
	})
	f.backend.SetLinks(b.ID, []entities.ContentLink{
		{FirstType: "StringContent", FirstValue: "dose", SecondType: "StringContent", SecondValue: "risk"},
	})

	t.Run("all", func(t *testing.T) {
		view, err := f.graphs.LinkExplorer(ctx, s, "")
		require.NoError(t, err)
		assert.Equal(t, AllDocuments, view.Selection)
		assert.Equal(t, 2, view.TotalLinks)
		assert.Len(t, view.Graph.Nodes, 3)
		assert.Len(t, view.Graph.Edges, 2)
		assert.Len(t, view.Sources, 2)
	})

	t.Run("single", func(t *testing.T) {
		view, err := f.graphs.LinkExplorer(ctx, s, b.ID)
		require.NoError(t, err)
		require.Len(t, view.Sources, 1)
		assert.Equal(t, "ICF", view.Sources[0].DocumentTitle)
		assert.Equal(t, 1, view.TotalLinks)
	})

	t.Run("failures degrade in all mode", func(t *testing.T) {
		f.cache.Invalidate(cache.Key(f.sponsor.ID))
		f.backend.Fail("GET /api/documents/{id}/links", 500, 1)

		view, err := f.graphs.LinkExplorer(ctx, s, AllDocuments)
		require.NoError(t, err)
		assert.Equal(t, 1, view.TotalLinks)
	})

	t.Run("failures surface for a single document", func(t *testing.T) {
		_, err := f.graphs.LinkExplorer(ctx, s, "missing")
		require.Error(t, err)
		assert.True(t, apperrors.IsNotFound(err))
	})
}

func TestProfileService_Profile(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	f.backend.AddDocument(f.sponsor, "Protocol", valueobjects.DocTypeProtocol, "a")

	view, err := f.profiles.Profile(ctx, f.sessionFor(t, f.sponsor), f.sponsor.ID)
	require.NoError(t, err)
	assert.True(t, view.IsSelf)
	assert.Equal(t, "Anna Bianchi", view.Profile.Name)
	assert.Equal(t, int64(1), view.Stats.DocumentsCreated)
	assert.Equal(t, int64(1), view.Stats.VersionsAuthored)
	assert.Len(t, view.Documents, 1)
	assert.False(t, view.Profile.CreatedAt.IsZero())

	view, err = f.profiles.Profile(ctx, f.sessionFor(t, f.auditor), f.sponsor.ID)
	require.NoError(t, err)
	assert.False(t, view.IsSelf)

	_, err = f.profiles.Profile(ctx, f.sessionFor(t, f.auditor), "missing")
	assert.True(t, apperrors.IsNotFound(err))
}
