package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/vkarpenko/ops_awareness_system/internal/escalation"
)

// ErrNoSession is returned when the session endpoint reports no
// authenticated operator.
var ErrNoSession = errors.New("identity: no active session")

// HTTPProvider resolves the current operator from the session endpoint of
// the auth service. The escalation pipeline treats any failure here as
// AuthUnavailable and proceeds with a generic identity.
type HTTPProvider struct {
	sessionURL string
	apiKey     string
	httpClient *http.Client
}

// NewHTTPProvider creates a provider for the given session endpoint.
func NewHTTPProvider(sessionURL, apiKey string, timeout time.Duration) *HTTPProvider {
	return &HTTPProvider{
		sessionURL: sessionURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type sessionResponse struct {
	ID       string `json:"id"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
}

// Current fetches the operator behind the active session.
func (p *HTTPProvider) Current(ctx context.Context) (escalation.Identity, error) {
	if p.sessionURL == "" {
		return escalation.Identity{}, ErrNoSession
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.sessionURL, nil)
	if err != nil {
		return escalation.Identity{}, fmt.Errorf("identity: failed to create session request: %w", err)
	}
	req.Header.Set("X-API-Key", p.apiKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return escalation.Identity{}, fmt.Errorf("identity: session request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusNotFound {
		return escalation.Identity{}, ErrNoSession
	}
	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return escalation.Identity{}, fmt.Errorf("identity: session endpoint returned %d: %s", resp.StatusCode, string(body))
	}

	var session sessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return escalation.Identity{}, fmt.Errorf("identity: failed to decode session response: %w", err)
	}

	return escalation.Identity{
		ID:       session.ID,
		FullName: session.FullName,
		Email:    session.Email,
	}, nil
}

// StaticProvider returns a fixed operator, used when the deployment runs
// without an auth service.
type StaticProvider struct {
	Operator escalation.Identity
}

// Current returns the configured operator.
func (p *StaticProvider) Current(_ context.Context) (escalation.Identity, error) {
	if p.Operator.FullName == "" {
		return escalation.Identity{}, ErrNoSession
	}
	return p.Operator, nil
}
