package identity

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vkarpenko/ops_awareness_system/internal/escalation"
)

func TestHTTPProvider_Current_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret-key", r.Header.Get("X-API-Key"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"op-1","full_name":"J. Doe","email":"j.doe@example.com"}`))
	}))
	defer srv.Close()

	provider := NewHTTPProvider(srv.URL, "secret-key", time.Second)

	identity, err := provider.Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, escalation.Identity{ID: "op-1", FullName: "J. Doe", Email: "j.doe@example.com"}, identity)
}

func TestHTTPProvider_Current_NoSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	provider := NewHTTPProvider(srv.URL, "", time.Second)

	_, err := provider.Current(context.Background())
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestHTTPProvider_Current_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	provider := NewHTTPProvider(srv.URL, "", time.Second)

	_, err := provider.Current(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoSession)
}

func TestHTTPProvider_Current_NoURL(t *testing.T) {
	provider := NewHTTPProvider("", "", time.Second)

	_, err := provider.Current(context.Background())
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestStaticProvider_Current(t *testing.T) {
	provider := &StaticProvider{Operator: escalation.Identity{FullName: "Desk Officer"}}

	identity, err := provider.Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Desk Officer", identity.FullName)
}

func TestStaticProvider_Current_Unconfigured(t *testing.T) {
	provider := &StaticProvider{}

	_, err := provider.Current(context.Background())
	assert.ErrorIs(t, err, ErrNoSession)
}
