package entities

import (
	"ctdportal/domain/core/valueobjects"
)

// Transclusion records that content of SourceDocument is included in
// TargetDocument.
type Transclusion struct {
	ID             string                 `json:"id"`
	SourceDocument *Document              `json:"sourceDocument,omitempty"`
	SourceNodePath string                 `json:"sourceNodePath"`
	TargetDocument *Document              `json:"targetDocument,omitempty"`
	TargetNodePath string                 `json:"targetNodePath"`
	CreatedBy      *User                  `json:"createdBy,omitempty"`
	CreatedAt      valueobjects.Timestamp `json:"createdAt"`
	IotaTxID       string                 `json:"iotaTxId,omitempty"`
}

// SourceID returns the source document id or "".
func (t *Transclusion) SourceID() string {
	if t.SourceDocument == nil {
		return ""
	}
	return t.SourceDocument.ID
}

// TargetID returns the target document id or "".
func (t *Transclusion) TargetID() string {
	if t.TargetDocument == nil {
		return ""
	}
	return t.TargetDocument.ID
}

// VerificationResponse is the ledger status of a version
type VerificationResponse struct {
	Verified      bool                   `json:"verified"`
	VersionID     string                 `json:"versionId"`
	ContentHash   string                 `json:"contentHash"`
	IotaTxID      string                 `json:"iotaTxId,omitempty"`
	DocumentTitle string                 `json:"documentTitle"`
	VersionNumber int                    `json:"versionNumber"`
	CreatedAt     valueobjects.Timestamp `json:"createdAt"`
}
