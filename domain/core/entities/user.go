package entities

import (
	"ctdportal/domain/core/valueobjects"
)

// User is an account as the backend returns it
type User struct {
	ID           string                 `json:"id"`
	Email        string                 `json:"email"`
	Name         string                 `json:"name"`
	Role         valueobjects.Role      `json:"role"`
	Organization string                 `json:"organization,omitempty"`
	IotaDID      string                 `json:"iotaDid,omitempty"`
	CreatedAt    valueobjects.Timestamp `json:"createdAt,omitempty"`
}

// UserProfile is the public profile served under /api/users/{id}.
type UserProfile struct {
	ID           string                 `json:"id"`
	Name         string                 `json:"name"`
	Email        string                 `json:"email"`
	Role         valueobjects.Role      `json:"role"`
	Organization string                 `json:"organization,omitempty"`
	IotaDID      string                 `json:"iotaDid,omitempty"`
	CreatedAt    valueobjects.Timestamp `json:"createdAt"`
}

// UserStats counts a user's authoring activity
type UserStats struct {
	DocumentsCreated     int64 `json:"documentsCreated"`
	VersionsAuthored     int64 `json:"versionsAuthored"`
	TransclusionsCreated int64 `json:"transclusionsCreated"`
}

// SessionUser is the subject decoded from the bearer token.
type SessionUser struct {
	ID           string            `json:"id"`
	Email        string            `json:"email"`
	Name         string            `json:"name"`
	Role         valueobjects.Role `json:"role"`
	Organization string            `json:"organization,omitempty"`
}
