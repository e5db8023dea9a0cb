package auth

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTempEncryptedStore(t *testing.T) *EncryptedFileStore {
	t.Helper()
	t.Setenv("LINKFEED_PASSPHRASE", "test-passphrase")

	store, err := NewEncryptedFileStore(filepath.Join(t.TempDir(), "sessions.enc"))
	require.NoError(t, err)
	return store
}

func testSession(username string) *Session {
	return NewSession(username, map[string]string{
		"li_at":      "cookie-" + username,
		"JSESSIONID": `"ajax:` + username + `"`,
	}, "test-agent")
}

func TestEncryptedStoreRoundTrip(t *testing.T) {
	store := newTempEncryptedStore(t)

	require.NoError(t, store.Store(testSession("alice")))
	require.True(t, store.Exists("alice"))

	got, err := store.Retrieve("alice")
	require.NoError(t, err)
	assert.Equal(t, "cookie-alice", got.SessionCookie())
	assert.Equal(t, "ajax:alice", got.CSRFToken())
}

func TestEncryptedStoreCiphertextOnDisk(t *testing.T) {
	t.Setenv("LINKFEED_PASSPHRASE", "test-passphrase")
	dir := t.TempDir()
	path := filepath.Join(dir, "sessions.enc")

	store, err := NewEncryptedFileStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Store(testSession("alice")))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(content), "cookie-alice")
}

func TestEncryptedStoreMissingSession(t *testing.T) {
	store := newTempEncryptedStore(t)

	_, err := store.Retrieve("nobody")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.False(t, store.Exists("nobody"))
}

func TestEncryptedStoreDelete(t *testing.T) {
	store := newTempEncryptedStore(t)

	require.NoError(t, store.Store(testSession("alice")))
	require.NoError(t, store.Store(testSession("bob")))

	require.NoError(t, store.Delete("alice"))
	assert.False(t, store.Exists("alice"))
	assert.True(t, store.Exists("bob"))

	assert.ErrorIs(t, store.Delete("alice"), ErrSessionNotFound)
}

func TestEncryptedStoreList(t *testing.T) {
	store := newTempEncryptedStore(t)

	sessions, err := store.List()
	require.NoError(t, err)
	assert.Empty(t, sessions)

	require.NoError(t, store.Store(testSession("alice")))
	require.NoError(t, store.Store(testSession("bob")))

	sessions, err = store.List()
	require.NoError(t, err)
	assert.Len(t, sessions, 2)
}

func TestManagerStoreAndRetrieve(t *testing.T) {
	m := NewManagerWithStores(newTempEncryptedStore(t))

	require.NoError(t, m.Store(testSession("alice")))

	got, err := m.Retrieve("alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)
}

func TestManagerRejectsInvalidSessions(t *testing.T) {
	m := NewManagerWithStores(newTempEncryptedStore(t))

	assert.ErrorIs(t, m.Store(nil), ErrInvalidSession)
	assert.ErrorIs(t, m.Store(&Session{Username: ""}), ErrInvalidSession)

	noCookie := NewSession("alice", map[string]string{"JSESSIONID": "ajax:1"}, "")
	assert.ErrorIs(t, m.Store(noCookie), ErrMissingSessionCookie)
}

func TestManagerRetrieveValid(t *testing.T) {
	store := newTempEncryptedStore(t)
	m := NewManagerWithStores(store)

	expired := testSession("alice")
	expired.SavedAt = time.Now().Add(-8 * 24 * time.Hour)
	require.NoError(t, store.Store(expired))

	_, err := m.RetrieveValid("alice")
	assert.ErrorIs(t, err, ErrSessionExpired)

	require.NoError(t, m.Store(testSession("alice")))
	got, err := m.RetrieveValid("alice")
	require.NoError(t, err)
	assert.True(t, got.IsValid())
}

func TestEnvironmentStore(t *testing.T) {
	store := NewEnvironmentStore()

	_, err := store.Retrieve("")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	t.Setenv("LINKFEED_SESSION_COOKIE", "env-cookie")
	t.Setenv("LINKFEED_CSRF_TOKEN", "ajax:env")

	got, err := store.Retrieve("")
	require.NoError(t, err)
	assert.Equal(t, "default", got.Username)
	assert.Equal(t, "env-cookie", got.SessionCookie())
	assert.True(t, store.Exists(""))

	assert.ErrorIs(t, store.Store(got), ErrStoreUnavailable)
	assert.ErrorIs(t, store.Delete("default"), ErrStoreUnavailable)
}
