package session

import (
	"net/http"
)

// CookieStore keeps the token in an HttpOnly cookie. It reads from the
// request and writes Set-Cookie headers to the response, so it lives for a
// single request.
type CookieStore struct {
	name   string
	secure bool
	r      *http.Request
	w      http.ResponseWriter
}

// NewCookieStore binds a store to one request/response pair.
func NewCookieStore(name string, secure bool, w http.ResponseWriter, r *http.Request) *CookieStore {
	return &CookieStore{name: name, secure: secure, r: r, w: w}
}

func (c *CookieStore) Load() (string, error) {
	cookie, err := c.r.Cookie(c.name)
	if err != nil {
		return "", nil
	}
	return cookie.Value, nil
}

func (c *CookieStore) Save(token string) error {
	http.SetCookie(c.w, c.cookie(token, 0))
	return nil
}

func (c *CookieStore) Delete() error {
	http.SetCookie(c.w, c.cookie("", -1))
	return nil
}

func (c *CookieStore) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     c.name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// MemoryStore keeps the token in memory. It suits tests and short-lived
// sessions built from an explicit token.
type MemoryStore struct {
	Token string
}

func (m *MemoryStore) Load() (string, error) { return m.Token, nil }

func (m *MemoryStore) Save(token string) error {
	m.Token = token
	return nil
}

func (m *MemoryStore) Delete() error {
	m.Token = ""
	return nil
}
