package apiclient

import (
	"context"
	"net/http"

	"ctdportal/domain/core/entities"
)

// ListDocuments returns the documents visible to the session user.
func (c *Client) ListDocuments(ctx context.Context) ([]entities.Document, error) {
	var docs []entities.Document
	err := c.do(ctx, call{method: http.MethodGet, path: "/documents", endpoint: "/documents", out: &docs})
	return docs, err
}

// GetDocument fetches one document
func (c *Client) GetDocument(ctx context.Context, id string) (*entities.Document, error) {
	var doc entities.Document
	err := c.do(ctx, call{method: http.MethodGet, path: "/documents/" + escape(id), endpoint: "/documents/{id}", out: &doc})
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// CreateDocument creates a document with its first version
func (c *Client) CreateDocument(ctx context.Context, req entities.CreateDocumentRequest) (*entities.Document, error) {
	var doc entities.Document
	err := c.do(ctx, call{method: http.MethodPost, path: "/documents", endpoint: "/documents", body: req, out: &doc})
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// UpdateDocument stores a new version of a document
func (c *Client) UpdateDocument(ctx context.Context, id string, req entities.UpdateDocumentRequest) (*entities.Document, error) {
	var doc entities.Document
	err := c.do(ctx, call{method: http.MethodPut, path: "/documents/" + escape(id), endpoint: "/documents/{id}", body: req, out: &doc})
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// DeleteDocument deletes a document
func (c *Client) DeleteDocument(ctx context.Context, id string) error {
	return c.do(ctx, call{method: http.MethodDelete, path: "/documents/" + escape(id), endpoint: "/documents/{id}"})
}

// ListVersions returns a document's version history
func (c *Client) ListVersions(ctx context.Context, id string) ([]entities.DocumentVersion, error) {
	var versions []entities.DocumentVersion
	err := c.do(ctx, call{
		method:   http.MethodGet,
		path:     "/documents/" + escape(id) + "/versions",
		endpoint: "/documents/{id}/versions",
		out:      &versions,
	})
	return versions, err
}

// Transclude includes content of req.SourceDocumentID in document id.
func (c *Client) Transclude(ctx context.Context, id string, req entities.TranscludeRequest) (*entities.Transclusion, error) {
	var t entities.Transclusion
	err := c.do(ctx, call{
		method:   http.MethodPost,
		path:     "/documents/" + escape(id) + "/transclude",
		endpoint: "/documents/{id}/transclude",
		body:     req,
		out:      &t,
	})
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// IncomingTransclusions lists transclusions whose target is document id.
func (c *Client) IncomingTransclusions(ctx context.Context, id string) ([]entities.Transclusion, error) {
	return c.transclusions(ctx, id, "incoming")
}

// OutgoingTransclusions lists transclusions whose source is document id.
func (c *Client) OutgoingTransclusions(ctx context.Context, id string) ([]entities.Transclusion, error) {
	return c.transclusions(ctx, id, "outgoing")
}

func (c *Client) transclusions(ctx context.Context, id, direction string) ([]entities.Transclusion, error) {
	var ts []entities.Transclusion
	err := c.do(ctx, call{
		method:   http.MethodGet,
		path:     "/documents/" + escape(id) + "/transclusions/" + direction,
		endpoint: "/documents/{id}/transclusions/" + direction,
		out:      &ts,
	})
	return ts, err
}

// NodeStructure returns the node tree of one version
func (c *Client) NodeStructure(ctx context.Context, id, versionID string) (*entities.NodeStructure, error) {
	var s entities.NodeStructure
	err := c.do(ctx, call{
		method:   http.MethodGet,
		path:     "/documents/" + escape(id) + "/versions/" + escape(versionID) + "/structure",
		endpoint: "/documents/{id}/versions/{versionId}/structure",
		out:      &s,
	})
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// DocumentLinks returns the content links of a document's current version
func (c *Client) DocumentLinks(ctx context.Context, id string) (*entities.DocumentLinks, error) {
	var links entities.DocumentLinks
	err := c.do(ctx, call{
		method:   http.MethodGet,
		path:     "/documents/" + escape(id) + "/links",
		endpoint: "/documents/{id}/links",
		out:      &links,
	})
	if err != nil {
		return nil, err
	}
	if links.Links == nil {
		links.Links = []entities.ContentLink{}
	}
	return &links, nil
}

// AddSection appends a typed section, creating a new version
func (c *Client) AddSection(ctx context.Context, id string, req entities.AddSectionRequest) (*entities.Document, error) {
	var doc entities.Document
	err := c.do(ctx, call{
		method:   http.MethodPost,
		path:     "/documents/" + escape(id) + "/sections",
		endpoint: "/documents/{id}/sections",
		body:     req,
		out:      &doc,
	})
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// VersionTree returns the version ancestry forest of a document
func (c *Client) VersionTree(ctx context.Context, id string) (*entities.VersionTree, error) {
	var tree entities.VersionTree
	err := c.do(ctx, call{
		method:   http.MethodGet,
		path:     "/documents/" + escape(id) + "/version-tree",
		endpoint: "/documents/{id}/version-tree",
		out:      &tree,
	})
	if err != nil {
		return nil, err
	}
	return &tree, nil
}
