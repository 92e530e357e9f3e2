package location

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vkarpenko/ops_awareness_system/internal/models"
)

func TestHTTPResolver_Resolve_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"latitude":40.0,"longitude":-75.0}`))
	}))
	defer srv.Close()

	resolver := NewHTTPResolver(srv.URL)

	coord, err := resolver.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.Coordinate{Latitude: 40.0, Longitude: -75.0}, coord)
}

func TestHTTPResolver_Resolve_PermissionDenied(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	resolver := NewHTTPResolver(srv.URL)

	_, err := resolver.Resolve(context.Background())
	assert.ErrorIs(t, err, ErrPermissionDenied)
}

func TestHTTPResolver_Resolve_NoEndpoint(t *testing.T) {
	resolver := NewHTTPResolver("")

	_, err := resolver.Resolve(context.Background())
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestHTTPResolver_Resolve_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	resolver := NewHTTPResolver(srv.URL)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := resolver.Resolve(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
