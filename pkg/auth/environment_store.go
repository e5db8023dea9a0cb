package auth

import (
	"os"
	"time"
)

// EnvironmentStore implements SessionStore over environment variables.
// It is read-only and exists so that headless deployments can supply a
// session without a browser login.
type EnvironmentStore struct{}

// NewEnvironmentStore creates an environment-based session store
func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

// Store is not supported for environment variables
func (e *EnvironmentStore) Store(session *Session) error {
	return ErrStoreUnavailable
}

// Retrieve builds a session from environment variables
func (e *EnvironmentStore) Retrieve(username string) (*Session, error) {
	sessionCookie := os.Getenv("LINKFEED_SESSION_COOKIE")
	csrfToken := os.Getenv("LINKFEED_CSRF_TOKEN")
	userAgent := os.Getenv("LINKFEED_USER_AGENT")

	if sessionCookie == "" || csrfToken == "" {
		return nil, ErrSessionNotFound
	}

	if username == "" {
		username = "default"
	}

	return &Session{
		Username: username,
		Cookies: map[string]string{
			sessionCookieName: sessionCookie,
			csrfCookieName:    csrfToken,
		},
		UserAgent: userAgent,
		SavedAt:   time.Now(),
	}, nil
}

// List returns a single session if environment variables are set
func (e *EnvironmentStore) List() ([]*Session, error) {
	session, err := e.Retrieve("")
	if err != nil {
		return []*Session{}, nil
	}
	return []*Session{session}, nil
}

// Delete is not supported for environment variables
func (e *EnvironmentStore) Delete(username string) error {
	return ErrStoreUnavailable
}

// Exists checks if environment session variables are set
func (e *EnvironmentStore) Exists(username string) bool {
	return os.Getenv("LINKFEED_SESSION_COOKIE") != "" && os.Getenv("LINKFEED_CSRF_TOKEN") != ""
}
