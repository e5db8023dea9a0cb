package auth

import (
	"errors"
	"strings"
	"time"
)

// SessionValidity is how long captured cookies are trusted before a
// fresh browser login is required
const SessionValidity = 7 * 24 * time.Hour

// sessionCookieName is the provider's primary auth cookie
const sessionCookieName = "li_at"

// csrfCookieName holds the CSRF token, wrapped in quotes on the wire
const csrfCookieName = "JSESSIONID"

// Session is one captured browser session: the cookie jar plus the
// metadata needed to decide whether it is still usable
type Session struct {
	Username  string            `json:"username"`
	Cookies   map[string]string `json:"cookies"`
	UserAgent string            `json:"user_agent,omitempty"`
	SavedAt   time.Time         `json:"saved_at"`
}

// NewSession builds a session from raw cookie values, stripping the
// quote wrapping some cookies carry
func NewSession(username string, cookies map[string]string, userAgent string) *Session {
	cleaned := make(map[string]string, len(cookies))
	for name, value := range cookies {
		cleaned[name] = strings.Trim(value, `"`)
	}
	return &Session{
		Username:  username,
		Cookies:   cleaned,
		UserAgent: userAgent,
		SavedAt:   time.Now(),
	}
}

// SessionCookie returns the primary auth cookie value
func (s *Session) SessionCookie() string {
	return s.Cookies[sessionCookieName]
}

// CSRFToken returns the csrf-token header value derived from the
// JSESSIONID cookie
func (s *Session) CSRFToken() string {
	return strings.Trim(s.Cookies[csrfCookieName], `"`)
}

// IsValid reports whether the session carries an auth cookie and has
// not aged past the validity window
func (s *Session) IsValid() bool {
	if s == nil || s.SessionCookie() == "" {
		return false
	}
	return time.Since(s.SavedAt) < SessionValidity
}

// ExpiresAt returns when the session ages out
func (s *Session) ExpiresAt() time.Time {
	return s.SavedAt.Add(SessionValidity)
}

// Validate returns an error describing why the session is unusable
func (s *Session) Validate() error {
	if s == nil {
		return ErrSessionNotFound
	}
	if s.SessionCookie() == "" {
		return ErrMissingSessionCookie
	}
	if time.Since(s.SavedAt) >= SessionValidity {
		return ErrSessionExpired
	}
	return nil
}

// Errors
var (
	ErrSessionNotFound      = errors.New("session not found")
	ErrSessionExpired       = errors.New("session expired, log in again")
	ErrMissingSessionCookie = errors.New("session has no auth cookie")
	ErrInvalidSession       = errors.New("invalid session")
	ErrStoreUnavailable     = errors.New("session store unavailable")
)
