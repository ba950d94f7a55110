package services

import (
	"time"

	"ctdportal/domain/core/entities"
	"ctdportal/domain/core/valueobjects"
	"ctdportal/domain/layout"
)

// DashboardView is the data behind the dashboard screen.
type DashboardView struct {
	User          entities.SessionUser        `json:"user"`
	Documents     []DocumentCard              `json:"documents"`
	DocumentTypes []valueobjects.DocumentType `json:"documentTypes"`
	CanCreate     bool                        `json:"canCreate"`
}

// DocumentCard summarises a document in lists.
type DocumentCard struct {
	ID            string                    `json:"id"`
	Title         string                    `json:"title"`
	DocType       valueobjects.DocumentType `json:"docType"`
	CreatedBy     string                    `json:"createdBy"`
	CreatedByName string                    `json:"createdByName"`
	VersionNumber int                       `json:"versionNumber"`
	Notarized     bool                      `json:"notarized"`
	UpdatedAt     time.Time                 `json:"updatedAt"`
}

func cardOf(d entities.Document) DocumentCard {
	return DocumentCard{
		ID:            d.ID,
		Title:         d.Title,
		DocType:       d.DocType,
		CreatedBy:     d.CreatedBy,
		CreatedByName: d.CreatedByName,
		VersionNumber: d.CurrentVersionNumber,
		Notarized:     d.IotaTxID != "",
		UpdatedAt:     d.UpdatedAt.Time,
	}
}

func cardsOf(docs []entities.Document) []DocumentCard {
	cards := make([]DocumentCard, 0, len(docs))
	for _, d := range docs {
		cards = append(cards, cardOf(d))
	}
	return cards
}

// Verification states shown next to the current version.
const (
	VerificationVerified   = "verified"
	VerificationUnverified = "unverified"
	VerificationNone       = "none"
)

// DocumentDetailView is the data behind the document screen.
type DocumentDetailView struct {
	Document           entities.Document              `json:"document"`
	Content            *entities.NodeContent          `json:"content,omitempty"`
	Versions           []entities.DocumentVersion     `json:"versions"`
	Incoming           []entities.Transclusion        `json:"incomingTransclusions"`
	Outgoing           []entities.Transclusion        `json:"outgoingTransclusions"`
	TranscludeSources  []DocumentCard                 `json:"transcludeSources"`
	Verification       *entities.VerificationResponse `json:"verification,omitempty"`
	VerificationStatus string                         `json:"verificationStatus"`
	CanEdit            bool                           `json:"canEdit"`
	CanDelete          bool                           `json:"canDelete"`
}

// StructureLine is one node of a flattened structure tree.
type StructureLine struct {
	Depth           int    `json:"depth"`
	Type            string `json:"type"`
	Kind            string `json:"kind"`
	Preview         string `json:"preview"`
	AuthorName      string `json:"authorName,omitempty"`
	ChildrenCount   int    `json:"childrenCount"`
	MaxDepthReached bool   `json:"maxDepthReached,omitempty"`
}

// StructureView is a version's node tree.
type StructureView struct {
	DocumentID string                 `json:"documentId"`
	VersionID  string                 `json:"versionId"`
	Root       entities.NodeStructure `json:"root"`
	Lines      []StructureLine        `json:"lines"`
	NodeCount  int                    `json:"nodeCount"`
}

// VersionTreeView is the version ancestry with its layout.
type VersionTreeView struct {
	DocumentID string                 `json:"documentId"`
	Trees      []entities.VersionNode `json:"trees"`
	Graph      layout.Graph           `json:"graph"`
}

// VersionSide is one side of a comparison.
type VersionSide struct {
	ID            string    `json:"id"`
	VersionNumber int       `json:"versionNumber"`
	AuthorName    string    `json:"authorName"`
	CreatedAt     time.Time `json:"createdAt"`
	ContentHash   string    `json:"contentHash"`
	IotaTxID      string    `json:"iotaTxId,omitempty"`
	Text          string    `json:"text"`
}

// ComparisonView puts a version next to its predecessor.
type ComparisonView struct {
	DocumentID string      `json:"documentId"`
	Old        VersionSide `json:"old"`
	New        VersionSide `json:"new"`
	Changed    bool        `json:"changed"`
}

func sideOf(v entities.DocumentVersion) VersionSide {
	return VersionSide{
		ID:            v.ID,
		VersionNumber: v.VersionNumber,
		AuthorName:    v.AuthorName(),
		CreatedAt:     v.CreatedAt.Time,
		ContentHash:   v.ContentHash,
		IotaTxID:      v.IotaTxID,
		Text:          entities.ContentText(v.ContentJSON),
	}
}

// TransclusionGraphView is the data behind the transclusion graph screen.
type TransclusionGraphView struct {
	Graph             layout.Graph `json:"graph"`
	DocumentCount     int          `json:"documentCount"`
	TransclusionCount int          `json:"transclusionCount"`
}

// LinkSourceSummary describes one document's contribution to the explorer.
type LinkSourceSummary struct {
	DocumentID    string `json:"documentId"`
	DocumentTitle string `json:"documentTitle"`
	LinkCount     int    `json:"linkCount"`
}

// LinkExplorerView is the data behind the link explorer screen.
type LinkExplorerView struct {
	Selection  string              `json:"selection"`
	Documents  []DocumentCard      `json:"documents"`
	Sources    []LinkSourceSummary `json:"sources"`
	TotalLinks int                 `json:"totalLinks"`
	Graph      layout.Graph        `json:"graph"`
}

// ProfileView is the data behind the author profile screen.
type ProfileView struct {
	Profile   entities.UserProfile `json:"profile"`
	Stats     entities.UserStats   `json:"stats"`
	Documents []DocumentCard       `json:"documents"`
	IsSelf    bool                 `json:"isSelf"`
}
