package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGuard(t *testing.T, passphrase string) *Guard {
	t.Helper()
	hash := ""
	if passphrase != "" {
		var err error
		hash, err = HashPassphrase(passphrase)
		require.NoError(t, err)
	}
	return NewGuard(hash, NewJWTManager("test-secret-key-32-bytes-long!!", time.Hour))
}

func TestIssueToken(t *testing.T) {
	guard := newTestGuard(t, "hunter2")
	require.True(t, guard.Enabled())

	token, err := guard.IssueToken("hunter2")
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	_, err = guard.IssueToken("wrong")
	assert.ErrorIs(t, err, ErrInvalidPassphrase)
}

func TestIssueTokenDisabledGuard(t *testing.T) {
	guard := newTestGuard(t, "")
	require.False(t, guard.Enabled())
	_, err := guard.IssueToken("anything")
	assert.ErrorIs(t, err, ErrInvalidPassphrase)
}

func TestJWTValidate(t *testing.T) {
	m := NewJWTManager("secret-a", time.Hour)
	token, err := m.Generate()
	require.NoError(t, err)
	require.NoError(t, m.Validate(token))

	// wrong key
	other := NewJWTManager("secret-b", time.Hour)
	assert.Error(t, other.Validate(token))

	// expired
	expired := NewJWTManager("secret-a", -time.Minute)
	token, err = expired.Generate()
	require.NoError(t, err)
	assert.Error(t, m.Validate(token))

	assert.Error(t, m.Validate("not-a-token"))
}

func TestMiddleware(t *testing.T) {
	guard := newTestGuard(t, "hunter2")
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := guard.Middleware(next)

	t.Run("missing token", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("malformed header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Token abc")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("invalid token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer bogus")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("valid token", func(t *testing.T) {
		token, err := guard.IssueToken("hunter2")
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("disabled guard passes everything", func(t *testing.T) {
		open := newTestGuard(t, "")
		rec := httptest.NewRecorder()
		open.Middleware(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}
