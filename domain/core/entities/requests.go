package entities

import (
	"ctdportal/domain/core/valueobjects"
)

// RegisterRequest creates an account
type RegisterRequest struct {
	Email        string            `json:"email" validate:"required,email"`
	Password     string            `json:"password" validate:"required,min=6"`
	Name         string            `json:"name" validate:"required"`
	Role         valueobjects.Role `json:"role" validate:"required,oneof=SPONSOR RESEARCHER HOSPITAL ETHICS_COMMITTEE AUDITOR"`
	Organization string            `json:"organization,omitempty"`
}

// LoginRequest exchanges credentials for a bearer token
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse carries the issued token
type AuthResponse struct {
	AccessToken string `json:"accessToken"`
	TokenType   string `json:"tokenType"`
}

// RegisterResponse acknowledges a new account
type RegisterResponse struct {
	Message string `json:"message"`
	UserID  string `json:"userId"`
	IotaDID string `json:"iotaDid,omitempty"`
}

// CreateDocumentRequest creates a document with its first version
type CreateDocumentRequest struct {
	Title          string                    `json:"title" validate:"required"`
	DocType        valueobjects.DocumentType `json:"docType" validate:"required,oneof=PROTOCOL ICF AMENDMENT SAE_REPORT AUDIT_REPORT"`
	InitialContent string                    `json:"initialContent" validate:"required"`
}

// UpdateDocumentRequest appends a new version with replaced content
type UpdateDocumentRequest struct {
	Title             string `json:"title" validate:"required"`
	Content           string `json:"content" validate:"required"`
	ChangeDescription string `json:"changeDescription,omitempty"`
}

// TranscludeRequest includes content of another document in the target
type TranscludeRequest struct {
	SourceDocumentID string `json:"sourceDocumentId" validate:"required"`
	SourceNodePath   string `json:"sourceNodePath,omitempty"`
	TargetNodePath   string `json:"targetNodePath,omitempty"`
}

// AddSectionRequest appends a typed content section. Value is a string or a
// number depending on ContentType.
type AddSectionRequest struct {
	ContentType    valueobjects.SectionKind `json:"contentType" validate:"required,oneof=STRING INTEGER IMAGE TRANSCLUSION"`
	Value          any                      `json:"value" validate:"required"`
	ParentNodePath string                   `json:"parentNodePath,omitempty"`
}
