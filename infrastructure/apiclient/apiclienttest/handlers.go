package apiclienttest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"ctdportal/domain/core/entities"
	"ctdportal/domain/core/valueobjects"
)

type userKey struct{}

func contextWithUser(r *http.Request, u *entities.User) context.Context {
	return context.WithValue(r.Context(), userKey{}, u)
}

func userFrom(r *http.Request) entities.User {
	return *r.Context().Value(userKey{}).(*entities.User)
}

type node struct {
	Content  map[string]interface{} `json:"content"`
	Children []node                 `json:"children"`
}

func leaf(contentType valueobjects.ContentType, value interface{}) node {
	return node{
		Content:  map[string]interface{}{"type": string(contentType), "value": value},
		Children: []node{},
	}
}

func hash(raw []byte) string {
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

func now() valueobjects.Timestamp {
	return valueobjects.NewTimestamp(time.Now().Truncate(time.Second))
}

func (b *Backend) createLocked(owner entities.User, title string, docType valueobjects.DocumentType, content string) *entities.Document {
	raw, _ := json.Marshal(leaf(valueobjects.ContentString, content))
	doc := &entities.Document{
		ID:            uuid.NewString(),
		Title:         title,
		DocType:       docType,
		CreatedBy:     owner.ID,
		CreatedByName: owner.Name,
		CreatedAt:     now(),
	}
	b.docs = append(b.docs, doc)
	b.appendVersionLocked(doc, owner, raw)
	return doc
}

func (b *Backend) appendVersionLocked(doc *entities.Document, author entities.User, raw json.RawMessage) {
	v := entities.DocumentVersion{
		ID:            uuid.NewString(),
		VersionNumber: doc.CurrentVersionNumber + 1,
		ContentJSON:   raw,
		ContentHash:   hash(raw),
		Author:        &author,
		CreatedAt:     now(),
		IotaTxID:      "iota-" + uuid.NewString()[:8],
	}
	b.versions[doc.ID] = append(b.versions[doc.ID], v)

	doc.CurrentVersionID = v.ID
	doc.CurrentVersionNumber = v.VersionNumber
	doc.ContentJSON = raw
	doc.ContentHash = v.ContentHash
	doc.IotaTxID = v.IotaTxID
	doc.UpdatedAt = v.CreatedAt
}

func (b *Backend) findLocked(id string) *entities.Document {
	for _, d := range b.docs {
		if d.ID == id {
			return d
		}
	}
	return nil
}

func summary(d *entities.Document) *entities.Document {
	c := *d
	c.ContentJSON = nil
	return &c
}

func (b *Backend) transcludeLocked(by entities.User, sourceID, targetID, sourcePath, targetPath string) (entities.Transclusion, bool) {
	source, target := b.findLocked(sourceID), b.findLocked(targetID)
	if source == nil || target == nil {
		return entities.Transclusion{}, false
	}
	if sourcePath == "" {
		sourcePath = "/"
	}
	if targetPath == "" {
		targetPath = "/"
	}
	t := entities.Transclusion{
		ID:             uuid.NewString(),
		SourceDocument: summary(source),
		SourceNodePath: sourcePath,
		TargetDocument: summary(target),
		TargetNodePath: targetPath,
		CreatedBy:      &by,
		CreatedAt:      now(),
	}
	b.transclusions = append(b.transclusions, t)
	return t, true
}

func (b *Backend) register(w http.ResponseWriter, r *http.Request) {
	var req entities.RegisterRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Email == "" || req.Password == "" || req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"errors": map[string]string{"email": "must not be blank"},
		})
		return
	}

	b.mu.Lock()
	_, exists := b.accounts[req.Email]
	b.mu.Unlock()
	if exists {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Email already registered"})
		return
	}

	u := b.AddUser(req.Email, req.Password, req.Name, req.Role)
	writeJSON(w, http.StatusOK, entities.RegisterResponse{
		Message: "User registered successfully",
		UserID:  u.ID,
		IotaDID: "did:iota:" + u.ID,
	})
}

func (b *Backend) login(w http.ResponseWriter, r *http.Request) {
	var req entities.LoginRequest
	if !decodeBody(w, r, &req) {
		return
	}

	b.mu.Lock()
	a, ok := b.accounts[req.Email]
	b.mu.Unlock()
	if !ok || a.password != req.Password {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Invalid email or password"})
		return
	}

	writeJSON(w, http.StatusOK, entities.AuthResponse{AccessToken: b.TokenFor(a.user), TokenType: "Bearer"})
}

func (b *Backend) listDocuments(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	out := make([]*entities.Document, 0, len(b.docs))
	for _, d := range b.docs {
		out = append(out, summary(d))
	}
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (b *Backend) createDocument(w http.ResponseWriter, r *http.Request) {
	var req entities.CreateDocumentRequest
	if !decodeBody(w, r, &req) {
		return
	}
	user := userFrom(r)
	if !user.Role.CanAuthor() {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "Access denied"})
		return
	}
	if req.Title == "" || req.InitialContent == "" {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"errors": map[string]string{"title": "must not be blank"},
		})
		return
	}

	b.mu.Lock()
	doc := *b.createLocked(user, req.Title, req.DocType, req.InitialContent)
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, doc)
}

// withDocument resolves {id} or answers 404.
func (b *Backend) withDocument(w http.ResponseWriter, r *http.Request, fn func(doc *entities.Document)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	doc := b.findLocked(chi.URLParam(r, "id"))
	if doc == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Document not found"})
		return
	}
	fn(doc)
}

func (b *Backend) getDocument(w http.ResponseWriter, r *http.Request) {
	b.withDocument(w, r, func(doc *entities.Document) {
		writeJSON(w, http.StatusOK, doc)
	})
}

func (b *Backend) updateDocument(w http.ResponseWriter, r *http.Request) {
	var req entities.UpdateDocumentRequest
	if !decodeBody(w, r, &req) {
		return
	}
	user := userFrom(r)
	b.withDocument(w, r, func(doc *entities.Document) {
		if doc.CreatedBy != user.ID {
			writeJSON(w, http.StatusForbidden, map[string]string{"error": "Access denied"})
			return
		}
		raw, _ := json.Marshal(leaf(valueobjects.ContentString, req.Content))
		doc.Title = req.Title
		b.appendVersionLocked(doc, user, raw)
		writeJSON(w, http.StatusOK, doc)
	})
}

func (b *Backend) deleteDocument(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r)
	b.withDocument(w, r, func(doc *entities.Document) {
		if doc.CreatedBy != user.ID {
			writeJSON(w, http.StatusForbidden, map[string]string{"error": "Access denied"})
			return
		}
		kept := b.docs[:0]
		for _, d := range b.docs {
			if d.ID != doc.ID {
				kept = append(kept, d)
			}
		}
		b.docs = kept
		delete(b.versions, doc.ID)
		w.WriteHeader(http.StatusNoContent)
	})
}

func (b *Backend) listVersions(w http.ResponseWriter, r *http.Request) {
	b.withDocument(w, r, func(doc *entities.Document) {
		versions := b.versions[doc.ID]
		out := make([]entities.DocumentVersion, len(versions))
		for i := range versions {
			out[len(versions)-1-i] = versions[i]
		}
		writeJSON(w, http.StatusOK, out)
	})
}

func (b *Backend) transclude(w http.ResponseWriter, r *http.Request) {
	var req entities.TranscludeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	user := userFrom(r)
	b.withDocument(w, r, func(doc *entities.Document) {
		t, ok := b.transcludeLocked(user, req.SourceDocumentID, doc.ID, req.SourceNodePath, req.TargetNodePath)
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "Source document not found"})
			return
		}
		writeJSON(w, http.StatusOK, t)
	})
}

func (b *Backend) incoming(w http.ResponseWriter, r *http.Request) {
	b.withDocument(w, r, func(doc *entities.Document) {
		out := []entities.Transclusion{}
		for _, t := range b.transclusions {
			if t.TargetID() == doc.ID {
				out = append(out, t)
			}
		}
		writeJSON(w, http.StatusOK, out)
	})
}

func (b *Backend) outgoing(w http.ResponseWriter, r *http.Request) {
	b.withDocument(w, r, func(doc *entities.Document) {
		out := []entities.Transclusion{}
		for _, t := range b.transclusions {
			if t.SourceID() == doc.ID {
				out = append(out, t)
			}
		}
		writeJSON(w, http.StatusOK, out)
	})
}

func toStructure(n node, author string) entities.NodeStructure {
	s := entities.NodeStructure{
		Content: entities.NodeContent{
			Type:       asString(n.Content["type"]),
			Value:      n.Content["value"],
			AuthorName: author,
		},
		Children:      make([]entities.NodeStructure, 0, len(n.Children)),
		ChildrenCount: len(n.Children),
	}
	for _, c := range n.Children {
		s.Children = append(s.Children, toStructure(c, author))
	}
	return s
}

func asString(v interface{}) string {
	s, _ := v.(string)
	return s
}

func (b *Backend) structure(w http.ResponseWriter, r *http.Request) {
	versionID := chi.URLParam(r, "versionId")
	b.withDocument(w, r, func(doc *entities.Document) {
		for _, v := range b.versions[doc.ID] {
			if v.ID != versionID {
				continue
			}
			var root node
			if err := json.Unmarshal(v.ContentJSON, &root); err != nil {
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "An unexpected error occurred"})
				return
			}
			writeJSON(w, http.StatusOK, toStructure(root, v.AuthorName()))
			return
		}
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Version does not belong to document"})
	})
}

func (b *Backend) documentLinks(w http.ResponseWriter, r *http.Request) {
	b.withDocument(w, r, func(doc *entities.Document) {
		links := b.links[doc.ID]
		if links == nil {
			links = []entities.ContentLink{}
		}
		writeJSON(w, http.StatusOK, entities.DocumentLinks{
			DocumentID: doc.ID,
			VersionID:  doc.CurrentVersionID,
			Links:      links,
		})
	})
}

func (b *Backend) addSection(w http.ResponseWriter, r *http.Request) {
	var req entities.AddSectionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	user := userFrom(r)
	b.withDocument(w, r, func(doc *entities.Document) {
		var root node
		if err := json.Unmarshal(doc.ContentJSON, &root); err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "An unexpected error occurred"})
			return
		}
		root.Children = append(root.Children, leaf(req.ContentType.ContentType(), req.Value))
		raw, _ := json.Marshal(root)
		b.appendVersionLocked(doc, user, raw)
		writeJSON(w, http.StatusOK, doc)
	})
}

func (b *Backend) versionTree(w http.ResponseWriter, r *http.Request) {
	b.withDocument(w, r, func(doc *entities.Document) {
		versions := b.versions[doc.ID]
		tree := entities.VersionTree{DocumentID: doc.ID, Trees: []entities.VersionNode{}}

		// Versions form a chain; build it from the newest end.
		var child *entities.VersionNode
		for i := len(versions) - 1; i >= 0; i-- {
			v := versions[i]
			n := entities.VersionNode{
				ID:            v.ID,
				VersionNumber: v.VersionNumber,
				AuthorName:    v.AuthorName(),
				CreatedAt:     v.CreatedAt,
				ContentHash:   v.ContentHash,
				IotaTxID:      v.IotaTxID,
				IsCurrent:     v.ID == doc.CurrentVersionID,
				Children:      []entities.VersionNode{},
			}
			if v.Author != nil {
				n.AuthorID = v.Author.ID
			}
			if i > 0 {
				n.ParentVersionID = versions[i-1].ID
			}
			if child != nil {
				n.Children = append(n.Children, *child)
			}
			child = &n
		}
		if child != nil {
			tree.Trees = append(tree.Trees, *child)
		}
		writeJSON(w, http.StatusOK, tree)
	})
}

func (b *Backend) verify(w http.ResponseWriter, r *http.Request) {
	versionID := chi.URLParam(r, "versionId")

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, doc := range b.docs {
		for _, v := range b.versions[doc.ID] {
			if v.ID == versionID {
				writeJSON(w, http.StatusOK, entities.VerificationResponse{
					Verified:      v.IotaTxID != "",
					VersionID:     v.ID,
					ContentHash:   v.ContentHash,
					IotaTxID:      v.IotaTxID,
					DocumentTitle: doc.Title,
					VersionNumber: v.VersionNumber,
					CreatedAt:     v.CreatedAt,
				})
				return
			}
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"error": "Version not found"})
}

func (b *Backend) accountByID(id string) *account {
	for _, a := range b.accounts {
		if a.user.ID == id {
			return a
		}
	}
	return nil
}

func (b *Backend) userProfile(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	a := b.accountByID(chi.URLParam(r, "userId"))
	b.mu.Unlock()
	if a == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "User not found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"id":           a.user.ID,
		"name":         a.user.Name,
		"email":        a.user.Email,
		"role":         a.user.Role,
		"organization": a.user.Organization,
		"iotaDid":      "did:iota:" + a.user.ID,
		"createdAt":    a.user.CreatedAt.Unix(),
	})
}

func (b *Backend) userDocuments(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")
	b.mu.Lock()
	out := []*entities.Document{}
	for _, d := range b.docs {
		if d.CreatedBy == userID {
			out = append(out, summary(d))
		}
	}
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (b *Backend) userStats(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")
	b.mu.Lock()
	defer b.mu.Unlock()

	var stats entities.UserStats
	for _, d := range b.docs {
		if d.CreatedBy == userID {
			stats.DocumentsCreated++
		}
		for _, v := range b.versions[d.ID] {
			if v.Author != nil && v.Author.ID == userID {
				stats.VersionsAuthored++
			}
		}
	}
	for _, t := range b.transclusions {
		if t.CreatedBy != nil && t.CreatedBy.ID == userID {
			stats.TransclusionsCreated++
		}
	}
	writeJSON(w, http.StatusOK, stats)
}
