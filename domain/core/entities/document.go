package entities

import (
	"encoding/json"

	"ctdportal/domain/core/valueobjects"
)

// Document is the backend's document summary. ContentJSON is the node tree of
// the current version.
type Document struct {
	ID                   string                    `json:"id"`
	Title                string                    `json:"title"`
	DocType              valueobjects.DocumentType `json:"docType"`
	CreatedBy            string                    `json:"createdBy"`
	CreatedByName        string                    `json:"createdByName"`
	CurrentVersionID     string                    `json:"currentVersionId,omitempty"`
	CurrentVersionNumber int                       `json:"currentVersionNumber,omitempty"`
	ContentJSON          json.RawMessage           `json:"contentJson,omitempty"`
	ContentHash          string                    `json:"contentHash,omitempty"`
	IotaTxID             string                    `json:"iotaTxId,omitempty"`
	CreatedAt            valueobjects.Timestamp    `json:"createdAt"`
	UpdatedAt            valueobjects.Timestamp    `json:"updatedAt"`
}

// IsAuthoredBy reports whether userID created the document.
func (d *Document) IsAuthoredBy(userID string) bool {
	return userID != "" && d.CreatedBy == userID
}

// DocumentVersion is one immutable snapshot in a document's history
type DocumentVersion struct {
	ID            string                 `json:"id"`
	VersionNumber int                    `json:"versionNumber"`
	ContentJSON   json.RawMessage        `json:"contentJson"`
	ContentHash   string                 `json:"contentHash"`
	Author        *User                  `json:"author,omitempty"`
	CreatedAt     valueobjects.Timestamp `json:"createdAt"`
	IotaTxID      string                 `json:"iotaTxId,omitempty"`
}

// AuthorName returns the version author's name, if the backend sent one.
func (v *DocumentVersion) AuthorName() string {
	if v.Author == nil {
		return ""
	}
	return v.Author.Name
}

// NodeContent is the {type, value} pair stored at a node of a content tree.
type NodeContent struct {
	Type       string          `json:"type"`
	Value      any             `json:"value"`
	AuthorName string          `json:"authorName,omitempty"`
	Version    json.RawMessage `json:"version,omitempty"`
}

// Kind maps the content type name to its rendering kind.
func (c NodeContent) Kind() string {
	return valueobjects.ContentType(c.Type).Kind()
}

// Display renders the value as text.
func (c NodeContent) Display() string {
	return valueobjects.Display(c.Value)
}

// ContentOf extracts the root node's content from a content tree. Documents
// without content, or with malformed content, yield ok == false.
func ContentOf(raw json.RawMessage) (NodeContent, bool) {
	if len(raw) == 0 {
		return NodeContent{}, false
	}

	var tree struct {
		Content *NodeContent `json:"content"`
	}
	if err := json.Unmarshal(raw, &tree); err != nil || tree.Content == nil {
		return NodeContent{}, false
	}
	return *tree.Content, true
}

// ContentText is the text shown for a content tree in version comparisons:
// the root value when it has one, the indented tree otherwise.
func ContentText(raw json.RawMessage) string {
	if content, ok := ContentOf(raw); ok && content.Value != nil && content.Value != "" {
		return content.Display()
	}
	var tree any
	if err := json.Unmarshal(raw, &tree); err != nil {
		return string(raw)
	}
	pretty, err := json.MarshalIndent(tree, "", "  ")
	if err != nil {
		return string(raw)
	}
	return string(pretty)
}
