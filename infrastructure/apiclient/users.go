package apiclient

import (
	"context"
	"net/http"

	"ctdportal/domain/core/entities"
)

// Register creates an account
func (c *Client) Register(ctx context.Context, req entities.RegisterRequest) (*entities.RegisterResponse, error) {
	var resp entities.RegisterResponse
	err := c.do(ctx, call{method: http.MethodPost, path: "/auth/register", endpoint: "/auth/register", body: req, out: &resp})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// Login exchanges credentials for a bearer token. The session is not touched.
func (c *Client) Login(ctx context.Context, req entities.LoginRequest) (*entities.AuthResponse, error) {
	var resp entities.AuthResponse
	err := c.do(ctx, call{method: http.MethodPost, path: "/auth/login", endpoint: "/auth/login", body: req, out: &resp})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// VerifyVersion asks the backend whether a version's hash is notarized
func (c *Client) VerifyVersion(ctx context.Context, versionID string) (*entities.VerificationResponse, error) {
	var resp entities.VerificationResponse
	err := c.do(ctx, call{
		method:   http.MethodGet,
		path:     "/verification/version/" + escape(versionID),
		endpoint: "/verification/version/{versionId}",
		out:      &resp,
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetUser fetches a public profile
func (c *Client) GetUser(ctx context.Context, userID string) (*entities.UserProfile, error) {
	var profile entities.UserProfile
	err := c.do(ctx, call{method: http.MethodGet, path: "/users/" + escape(userID), endpoint: "/users/{userId}", out: &profile})
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// UserDocuments lists the documents a user created
func (c *Client) UserDocuments(ctx context.Context, userID string) ([]entities.Document, error) {
	var docs []entities.Document
	err := c.do(ctx, call{
		method:   http.MethodGet,
		path:     "/users/" + escape(userID) + "/documents",
		endpoint: "/users/{userId}/documents",
		out:      &docs,
	})
	return docs, err
}

// UserStats returns a user's authoring counters
func (c *Client) UserStats(ctx context.Context, userID string) (*entities.UserStats, error) {
	var stats entities.UserStats
	err := c.do(ctx, call{
		method:   http.MethodGet,
		path:     "/users/" + escape(userID) + "/stats",
		endpoint: "/users/{userId}/stats",
		out:      &stats,
	})
	if err != nil {
		return nil, err
	}
	return &stats, nil
}
