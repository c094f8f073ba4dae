// internal/ops/server_test.go

package ops

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moodlyapp/moodly-backend/internal/profile"
)

type moderationRecorder struct {
	profile.Service
	banned map[int64]bool
	err    error
}

func (m *moderationRecorder) SetBanned(ctx context.Context, userID int64, banned bool) error {
	if m.err != nil {
		return m.err
	}
	m.banned[userID] = banned
	return nil
}

func TestHealth(t *testing.T) {
	router := NewRouter(Probes{}, nil, "")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestReady_NoBackendsConfigured(t *testing.T) {
	router := NewRouter(Probes{}, nil, "")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/ready", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMetricsExposed(t *testing.T) {
	router := NewRouter(Probes{}, nil, "")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestBan_TokenGuard(t *testing.T) {
	mod := &moderationRecorder{banned: make(map[int64]bool)}

	// No token configured: endpoints are off entirely
	router := NewRouter(Probes{}, mod, "")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("POST", "/internal/users/42/ban", nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	router = NewRouter(Probes{}, mod, "s3cret")

	rec = httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/internal/users/42/ban", nil)
	req.Header.Set("X-Internal-Token", "wrong")
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, mod.banned)

	rec = httptest.NewRecorder()
	req = httptest.NewRequest("POST", "/internal/users/42/ban", nil)
	req.Header.Set("X-Internal-Token", "s3cret")
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, mod.banned[42])

	rec = httptest.NewRecorder()
	req = httptest.NewRequest("DELETE", "/internal/users/42/ban", nil)
	req.Header.Set("X-Internal-Token", "s3cret")
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, mod.banned[42])
}

func TestBan_UnknownUser(t *testing.T) {
	mod := &moderationRecorder{banned: make(map[int64]bool), err: profile.ErrProfileNotFound}
	router := NewRouter(Probes{}, mod, "s3cret")

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/internal/users/42/ban", nil)
	req.Header.Set("X-Internal-Token", "s3cret")
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
