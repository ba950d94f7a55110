package apiclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"ctdportal/domain/core/entities"
	"ctdportal/domain/core/valueobjects"
	"ctdportal/infrastructure/apiclient/apiclienttest"
	"ctdportal/infrastructure/session"
	"ctdportal/pkg/auth"
	apperrors "ctdportal/pkg/errors"
	"ctdportal/pkg/observability"
)

type fixture struct {
	backend *apiclienttest.Backend
	client  *Client
	session *session.Session
	user    entities.User
}

func setup(t *testing.T) *fixture {
	t.Helper()

	backend := apiclienttest.New()
	t.Cleanup(backend.Close)

	client, err := New(Options{BaseURL: backend.URL(), Timeout: 5 * time.Second, Metrics: observability.NewCollector("test")})
	require.NoError(t, err)

	user := backend.AddUser("rossi@example.org", "secret1", "Dr. Rossi", valueobjects.RoleResearcher)
	s := session.New(&session.MemoryStore{}, auth.NewTokenDecoder(""), nil)
	require.NoError(t, s.SetToken(backend.TokenFor(user)))

	return &fixture{backend: backend, client: client.WithSession(s), session: s, user: user}
}

func TestNew_RejectsRelativeURL(t *testing.T) {
	_, err := New(Options{BaseURL: "/api"})
	assert.Error(t, err)
}

func TestLoginAndRegister(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	resp, err := f.client.Login(ctx, entities.LoginRequest{Email: "rossi@example.org", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "Bearer", resp.TokenType)
	assert.NotEmpty(t, resp.AccessToken)

	_, err = f.client.Login(ctx, entities.LoginRequest{Email: "rossi@example.org", Password: "wrong"})
	require.Error(t, err)
	assert.True(t, apperrors.IsUnauthorized(err))
	assert.Equal(t, "Invalid email or password", apperrors.GetAppError(err).Message)

	reg, err := f.client.Register(ctx, entities.RegisterRequest{
		Email: "new@example.org", Password: "secret1", Name: "New", Role: valueobjects.RoleHospital,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, reg.UserID)
	assert.Equal(t, "did:iota:"+reg.UserID, reg.IotaDID)
}

func TestDocumentLifecycle(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	created, err := f.client.CreateDocument(ctx, entities.CreateDocumentRequest{
		Title: "Protocol", DocType: valueobjects.DocTypeProtocol, InitialContent: "Inclusion criteria",
	})
	require.NoError(t, err)
	assert.Equal(t, f.user.ID, created.CreatedBy)
	assert.Equal(t, 1, created.CurrentVersionNumber)

	docs, err := f.client.ListDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 1)

	updated, err := f.client.UpdateDocument(ctx, created.ID, entities.UpdateDocumentRequest{Title: "Protocol v2", Content: "Exclusion criteria"})
	require.NoError(t, err)
	assert.Equal(t, 2, updated.CurrentVersionNumber)

	withSection, err := f.client.AddSection(ctx, created.ID, entities.AddSectionRequest{ContentType: valueobjects.SectionInteger, Value: 120})
	require.NoError(t, err)
	assert.Equal(t, 3, withSection.CurrentVersionNumber)

	versions, err := f.client.ListVersions(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, versions, 3)
	assert.Equal(t, "Dr. Rossi", versions[0].AuthorName())

	structure, err := f.client.NodeStructure(ctx, created.ID, withSection.CurrentVersionID)
	require.NoError(t, err)
	assert.Equal(t, 1, structure.ChildrenCount)
	assert.Equal(t, "IntegerContent", structure.Children[0].Content.Type)
	assert.Equal(t, "120", structure.Children[0].Content.Display())

	tree, err := f.client.VersionTree(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, tree.Trees, 1)
	assert.False(t, tree.Trees[0].IsCurrent)
	assert.True(t, tree.Trees[0].Children[0].Children[0].IsCurrent)

	verification, err := f.client.VerifyVersion(ctx, withSection.CurrentVersionID)
	require.NoError(t, err)
	assert.True(t, verification.Verified)
	assert.Equal(t, "Protocol v2", verification.DocumentTitle)

	require.NoError(t, f.client.DeleteDocument(ctx, created.ID))
	_, err = f.client.GetDocument(ctx, created.ID)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestTransclusionsAndLinks(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	a := f.backend.AddDocument(f.user, "Protocol", valueobjects.DocTypeProtocol, "a")
	b := f.backend.AddDocument(f.user, "ICF", valueobjects.DocTypeICF, "b")

	tr, err := f.client.Transclude(ctx, b.ID, entities.TranscludeRequest{SourceDocumentID: a.ID})
	require.NoError(t, err)
	assert.Equal(t, a.ID, tr.SourceID())
	assert.Equal(t, b.ID, tr.TargetID())

	in, err := f.client.IncomingTransclusions(ctx, b.ID)
	require.NoError(t, err)
	assert.Len(t, in, 1)

	out, err := f.client.OutgoingTransclusions(ctx, b.ID)
	require.NoError(t, err)
	assert.Empty(t, out)

	links, err := f.client.DocumentLinks(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, a.ID, links.DocumentID)
	assert.NotNil(t, links.Links)
}

func TestUsers(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	f.backend.AddDocument(f.user, "Protocol", valueobjects.DocTypeProtocol, "a")

	profile, err := f.client.GetUser(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Dr. Rossi", profile.Name)
	assert.Equal(t, f.user.CreatedAt.Unix(), profile.CreatedAt.Unix())

	docs, err := f.client.UserDocuments(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Len(t, docs, 1)

	stats, err := f.client.UserStats(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.DocumentsCreated)
	assert.Equal(t, int64(1), stats.VersionsAuthored)
}

func TestUnauthorizedClearsSession(t *testing.T) {
	f := setup(t)
	f.backend.Revoke()

	_, err := f.client.ListDocuments(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.IsUnauthorized(err))
	assert.False(t, f.session.IsAuthenticated())
	assert.Empty(t, f.session.Token())
}

func TestAnonymousRequestIsUnauthorized(t *testing.T) {
	f := setup(t)
	anon := f.client.WithSession(nil)

	_, err := anon.ListDocuments(context.Background())
	assert.True(t, apperrors.IsUnauthorized(err))
	assert.True(t, f.session.IsAuthenticated())
}

func TestStatusMapping(t *testing.T) {
	f := setup(t)
	doc := f.backend.AddDocument(f.user, "Protocol", valueobjects.DocTypeProtocol, "a")

	tests := []struct {
		status int
		check  func(error) bool
	}{
		{http.StatusForbidden, apperrors.IsForbidden},
		{http.StatusNotFound, apperrors.IsNotFound},
		{http.StatusBadRequest, apperrors.IsValidation},
		{http.StatusUnprocessableEntity, apperrors.IsValidation},
		{http.StatusConflict, func(err error) bool { return apperrors.IsType(err, apperrors.ErrorTypeConflict) }},
		{http.StatusInternalServerError, func(err error) bool { return apperrors.IsType(err, apperrors.ErrorTypeExternal) }},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			f.backend.Fail("GET /api/documents/{id}", tt.status, 1)
			_, err := f.client.GetDocument(context.Background(), doc.ID)
			require.Error(t, err)
			assert.True(t, tt.check(err), "got %v", err)
			assert.True(t, f.session.IsAuthenticated())
		})
	}
}

func TestBreakerOpensOnServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client, err := New(Options{
		BaseURL: srv.URL + "/api",
		Breaker: BreakerConfig{MaxRequests: 1, Interval: time.Minute, Timeout: time.Minute, FailureThreshold: 0.5, MinRequests: 2},
	})
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		_, err := client.ListDocuments(context.Background())
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeExternal))
	}

	_, err = client.ListDocuments(context.Background())
	assert.True(t, apperrors.IsUnavailable(err))
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestTransportFailureIsNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client, err := New(Options{BaseURL: url + "/api"})
	require.NoError(t, err)

	_, err = client.ListDocuments(context.Background())
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNetwork))
	assert.Error(t, client.Health(context.Background()))
}

func TestRequestHeaders(t *testing.T) {
	headers := make(chan http.Header, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		headers <- r.Header.Clone()
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode([]entities.Document{})
	}))
	defer srv.Close()

	client, err := New(Options{BaseURL: srv.URL})
	require.NoError(t, err)

	s := session.New(&session.MemoryStore{}, auth.NewTokenDecoder(""), nil)
	token, err := auth.SignToken("k", auth.Claims{UserID: "u-1"}, time.Hour)
	require.NoError(t, err)
	require.NoError(t, s.SetToken(token))

	_, err = client.WithSession(s).ListDocuments(context.Background())
	require.NoError(t, err)
	got := <-headers
	assert.Equal(t, "Bearer "+token, got.Get("Authorization"))
	assert.NotEmpty(t, got.Get("X-Request-ID"))
	assert.Equal(t, "application/json", got.Get("Accept"))
}

func TestTraceContextPropagation(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tracing, err := observability.InitTracing(context.Background(), observability.TracingConfig{SampleRatio: 1}, sdktrace.WithSpanProcessor(recorder))
	require.NoError(t, err)
	t.Cleanup(func() { _ = tracing.Shutdown(context.Background()) })

	f := setup(t)
	ctx, parent := observability.Tracer().Start(context.Background(), "GET /dashboard")
	_, err = f.client.ListDocuments(ctx)
	parent.End()
	require.NoError(t, err)

	traceparent := f.backend.LastHeader("GET /api/documents", "traceparent")
	assert.Contains(t, traceparent, parent.SpanContext().TraceID().String())
	assert.NotEmpty(t, f.backend.LastHeader("GET /api/documents", "X-Request-ID"))

	var client sdktrace.ReadOnlySpan
	for _, s := range recorder.Ended() {
		if s.SpanKind() == trace.SpanKindClient {
			client = s
		}
	}
	require.NotNil(t, client)
	assert.Equal(t, "GET /documents", client.Name())
	assert.Equal(t, parent.SpanContext().SpanID(), client.Parent().SpanID())
	assert.Contains(t, traceparent, client.SpanContext().SpanID().String())
}

func TestHealth(t *testing.T) {
	f := setup(t)
	assert.NoError(t, f.client.Health(context.Background()))
	assert.True(t, f.session.IsAuthenticated())
}

func TestErrorMessage(t *testing.T) {
	assert.Equal(t, "boom", errorMessage([]byte(`{"message":"boom"}`)))
	assert.Equal(t, "nope", errorMessage([]byte(`{"error":"nope"}`)))
	assert.Equal(t, "email: bad; title: blank", errorMessage([]byte(`{"errors":{"title":"blank","email":"bad"}}`)))
	assert.Equal(t, "plain text", errorMessage([]byte("plain text")))
	assert.Equal(t, "", errorMessage([]byte(`{}`)))
}
