package location

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/vkarpenko/ops_awareness_system/internal/models"
)

var (
	// ErrUnsupported is returned when no geolocation endpoint is configured.
	ErrUnsupported = errors.New("location: geolocation not supported")
	// ErrPermissionDenied is returned when the geolocation provider refuses
	// the read.
	ErrPermissionDenied = errors.New("location: permission denied")
)

// HTTPResolver performs a single-shot location read against a geolocation
// endpoint. The caller bounds the read with a context deadline; a timeout
// surfaces as the context error.
type HTTPResolver struct {
	endpoint   string
	httpClient *http.Client
}

// NewHTTPResolver creates a resolver for the given endpoint. The timeout
// bound lives on the caller's context, not the client.
func NewHTTPResolver(endpoint string) *HTTPResolver {
	return &HTTPResolver{
		endpoint:   endpoint,
		httpClient: &http.Client{},
	}
}

type locationResponse struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Resolve reads the current position once.
func (r *HTTPResolver) Resolve(ctx context.Context) (models.Coordinate, error) {
	if r.endpoint == "" {
		return models.Coordinate{}, ErrUnsupported
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.endpoint, nil)
	if err != nil {
		return models.Coordinate{}, fmt.Errorf("location: failed to create request: %w", err)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return models.Coordinate{}, fmt.Errorf("location: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusUnauthorized {
		return models.Coordinate{}, ErrPermissionDenied
	}
	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return models.Coordinate{}, fmt.Errorf("location: endpoint returned %d: %s", resp.StatusCode, string(body))
	}

	var loc locationResponse
	if err := json.NewDecoder(resp.Body).Decode(&loc); err != nil {
		return models.Coordinate{}, fmt.Errorf("location: failed to decode response: %w", err)
	}

	return models.Coordinate{Latitude: loc.Latitude, Longitude: loc.Longitude}, nil
}
