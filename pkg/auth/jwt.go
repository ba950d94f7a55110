package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrInvalidSignature = errors.New("invalid token signature")
	ErrMissingToken     = errors.New("missing authentication token")
	ErrInvalidClaims    = errors.New("invalid token claims")
)

// Claims is the payload the document backend puts in its access tokens.
// Subject carries the user's email.
type Claims struct {
	UserID       string `json:"userId"`
	Name         string `json:"name,omitempty"`
	Role         string `json:"role,omitempty"`
	Organization string `json:"organization,omitempty"`
	jwt.RegisteredClaims
}

// Email returns the subject claim.
func (c *Claims) Email() string {
	return c.Subject
}

// DisplayName returns the name claim, or the email when the token has none.
func (c *Claims) DisplayName() string {
	if c.Name != "" {
		return c.Name
	}
	return c.Subject
}

// TokenDecoder turns bearer tokens into claims. With a secret configured the
// HS256 signature and expiry are verified; without one the payload is only
// decoded, and expiry is still honoured.
type TokenDecoder struct {
	secretKey []byte
	now       func() time.Time
}

// NewTokenDecoder creates a decoder. An empty secret selects unverified decoding.
func NewTokenDecoder(secret string) *TokenDecoder {
	d := &TokenDecoder{now: time.Now}
	if secret != "" {
		d.secretKey = []byte(secret)
	}
	return d
}

// Verifies reports whether signatures are checked.
func (d *TokenDecoder) Verifies() bool {
	return len(d.secretKey) > 0
}

// Decode parses a token and returns its claims
func (d *TokenDecoder) Decode(tokenString string) (*Claims, error) {
	tokenString = strings.TrimSpace(strings.TrimPrefix(tokenString, "Bearer "))
	if tokenString == "" {
		return nil, ErrMissingToken
	}

	claims := &Claims{}
	if d.Verifies() {
		_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return d.secretKey, nil
		}, jwt.WithTimeFunc(d.now))
		if err != nil {
			return nil, classify(err)
		}
	} else {
		parser := jwt.NewParser()
		if _, _, err := parser.ParseUnverified(tokenString, claims); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
		}
		if claims.ExpiresAt != nil && !d.now().Before(claims.ExpiresAt.Time) {
			return nil, ErrExpiredToken
		}
	}

	if claims.UserID == "" {
		return nil, fmt.Errorf("%w: missing user ID", ErrInvalidClaims)
	}

	return claims, nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpiredToken
	case errors.Is(err, jwt.ErrSignatureInvalid):
		return ErrInvalidSignature
	default:
		return fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
}

// SignToken issues an HS256 token carrying claims. The portal never mints
// tokens for the backend; this exists for fixtures and local fake backends.
func SignToken(secret string, claims Claims, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", errors.New("secret key required for HS256")
	}

	now := time.Now()
	if claims.IssuedAt == nil {
		claims.IssuedAt = jwt.NewNumericDate(now)
	}
	if ttl > 0 && claims.ExpiresAt == nil {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}
