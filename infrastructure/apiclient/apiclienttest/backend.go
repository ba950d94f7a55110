// Package apiclienttest provides an in-memory document backend speaking the
// portal's REST contract, for tests of the client and everything above it.
package apiclienttest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"ctdportal/domain/core/entities"
	"ctdportal/domain/core/valueobjects"
	"ctdportal/pkg/auth"
)

// Secret signs the tokens the fake backend issues.
const Secret = "apiclienttest-secret"

type account struct {
	user     entities.User
	password string
}

// Backend is a fake document backend. Its exported methods seed data and
// inspect traffic; all of them are safe for concurrent use.
type Backend struct {
	mu            sync.Mutex
	accounts      map[string]*account // by email
	docs          []*entities.Document
	versions      map[string][]entities.DocumentVersion
	transclusions []entities.Transclusion
	links         map[string][]entities.ContentLink
	failures      map[string]int
	calls         map[string]int
	headers       map[string]http.Header
	revoked       bool
	decoder       *auth.TokenDecoder

	Server *httptest.Server
}

// New starts a fake backend. Close it with b.Server.Close.
func New() *Backend {
	b := &Backend{
		accounts: make(map[string]*account),
		versions: make(map[string][]entities.DocumentVersion),
		links:    make(map[string][]entities.ContentLink),
		failures: make(map[string]int),
		calls:    make(map[string]int),
		headers:  make(map[string]http.Header),
		decoder:  auth.NewTokenDecoder(Secret),
	}
	b.Server = httptest.NewServer(b.routes())
	return b
}

// URL is the API base URL, ending in /api.
func (b *Backend) URL() string {
	return b.Server.URL + "/api"
}

// Close stops the server
func (b *Backend) Close() {
	b.Server.Close()
}

// AddUser seeds an account and returns it
func (b *Backend) AddUser(email, password, name string, role valueobjects.Role) entities.User {
	b.mu.Lock()
	defer b.mu.Unlock()

	u := entities.User{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         name,
		Role:         role,
		Organization: "Test Org",
		CreatedAt:    valueobjects.NewTimestamp(time.Now().Truncate(time.Second)),
	}
	b.accounts[email] = &account{user: u, password: password}
	return u
}

// TokenFor issues a token for a seeded user.
func (b *Backend) TokenFor(u entities.User) string {
	token, err := auth.SignToken(Secret, auth.Claims{
		UserID:           u.ID,
		Name:             u.Name,
		Role:             string(u.Role),
		Organization:     u.Organization,
		RegisteredClaims: jwt.RegisteredClaims{Subject: u.Email},
	}, time.Hour)
	if err != nil {
		panic(err)
	}
	return token
}

// AddDocument seeds a document with one version holding content.
func (b *Backend) AddDocument(owner entities.User, title string, docType valueobjects.DocumentType, content string) entities.Document {
	b.mu.Lock()
	defer b.mu.Unlock()
	return *b.createLocked(owner, title, docType, content)
}

// AddTransclusion seeds a transclusion from source into target.
func (b *Backend) AddTransclusion(by entities.User, sourceID, targetID string) entities.Transclusion {
	b.mu.Lock()
	defer b.mu.Unlock()
	t, _ := b.transcludeLocked(by, sourceID, targetID, "", "")
	return t
}

// SetLinks replaces the content links reported for a document.
func (b *Backend) SetLinks(docID string, links []entities.ContentLink) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.links[docID] = links
}

// Fail makes the next n requests matching "METHOD /api/pattern" answer status.
func (b *Backend) Fail(route string, status, n int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures[route+"|"+strconv.Itoa(status)] = n
}

// Revoke makes every authenticated request answer 401 from now on.
func (b *Backend) Revoke() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.revoked = true
}

// Calls returns how often a route such as "GET /api/documents" was served.
func (b *Backend) Calls(route string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[route]
}

// LastHeader returns header name of the latest request served on route.
func (b *Backend) LastHeader(route, name string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.headers[route].Get(name)
}

// Documents returns a snapshot of the stored documents
func (b *Backend) Documents() []entities.Document {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]entities.Document, 0, len(b.docs))
	for _, d := range b.docs {
		out = append(out, *d)
	}
	return out
}

func (b *Backend) routes() http.Handler {
	r := chi.NewRouter()

	r.Route("/api", func(r chi.Router) {
		b.handle(r, http.MethodPost, "/auth/register", b.register)
		b.handle(r, http.MethodPost, "/auth/login", b.login)

		r.Group(func(r chi.Router) {
			r.Use(b.authenticate)

			b.handle(r, http.MethodGet, "/documents", b.listDocuments)
			b.handle(r, http.MethodPost, "/documents", b.createDocument)
			b.handle(r, http.MethodGet, "/documents/{id}", b.getDocument)
			b.handle(r, http.MethodPut, "/documents/{id}", b.updateDocument)
			b.handle(r, http.MethodDelete, "/documents/{id}", b.deleteDocument)
			b.handle(r, http.MethodGet, "/documents/{id}/versions", b.listVersions)
			b.handle(r, http.MethodPost, "/documents/{id}/transclude", b.transclude)
			b.handle(r, http.MethodGet, "/documents/{id}/transclusions/incoming", b.incoming)
			b.handle(r, http.MethodGet, "/documents/{id}/transclusions/outgoing", b.outgoing)
			b.handle(r, http.MethodGet, "/documents/{id}/versions/{versionId}/structure", b.structure)
			b.handle(r, http.MethodGet, "/documents/{id}/links", b.documentLinks)
			b.handle(r, http.MethodPost, "/documents/{id}/sections", b.addSection)
			b.handle(r, http.MethodGet, "/documents/{id}/version-tree", b.versionTree)
			b.handle(r, http.MethodGet, "/verification/version/{versionId}", b.verify)
			b.handle(r, http.MethodGet, "/users/{userId}", b.userProfile)
			b.handle(r, http.MethodGet, "/users/{userId}/documents", b.userDocuments)
			b.handle(r, http.MethodGet, "/users/{userId}/stats", b.userStats)
		})
	})
	return r
}

// handle registers h and wraps it with call counting and failure injection
// keyed by "METHOD /api<pattern>".
func (b *Backend) handle(r chi.Router, method, pattern string, h http.HandlerFunc) {
	route := method + " /api" + pattern
	r.Method(method, pattern, http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		b.mu.Lock()
		b.calls[route]++
		b.headers[route] = req.Header.Clone()
		for key, n := range b.failures {
			prefix, status, _ := strings.Cut(key, "|")
			if prefix == route && n > 0 {
				b.failures[key] = n - 1
				b.mu.Unlock()
				code, _ := strconv.Atoi(status)
				writeJSON(w, code, map[string]string{"error": http.StatusText(code)})
				return
			}
		}
		b.mu.Unlock()

		h(w, req)
	}))
}

func (b *Backend) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		revoked := b.revoked
		b.mu.Unlock()

		claims, err := b.decoder.Decode(r.Header.Get("Authorization"))
		if revoked || err != nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Full authentication is required"})
			return
		}

		b.mu.Lock()
		var user *entities.User
		for _, a := range b.accounts {
			if a.user.ID == claims.UserID {
				u := a.user
				user = &u
			}
		}
		b.mu.Unlock()
		if user == nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "User not found"})
			return
		}

		next.ServeHTTP(w, r.WithContext(contextWithUser(r, user)))
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "malformed body"})
		return false
	}
	return true
}
