// Package backendhttp implements core.BackendClient against the
// Neural Broker REST API.
package backendhttp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/neuralbroker/tiergate/core"
)

// DefaultTimeout bounds every backend call so the dashboard never
// hangs on a dead backend.
const DefaultTimeout = 30 * time.Second

var (
	ErrBaseURLRequired = errors.New("backend base URL is required")
	ErrNotSuccessful   = errors.New("backend reported failure")
)

type Config struct {
	BaseURL string

	// Optional
	Timeout    time.Duration
	HTTPClient *http.Client
}

type Client struct {
	base string
	http *http.Client
}

var _ core.BackendClient = (*Client)(nil)

func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, ErrBaseURLRequired
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Client{base: cfg.BaseURL, http: httpClient}, nil
}

// Wire shapes. Timestamps arrive as RFC3339 strings; malformed or
// missing values decay to zero and are repaired downstream by
// normalization.
type tierPayload struct {
	Tier             string                       `json:"tier"`
	CreditsRemaining int                          `json:"credits_remaining"`
	TierExpiresAt    string                       `json:"tier_expires_at,omitempty"`
	TierFeatures     map[string]core.FeatureLimit `json:"tier_features"`
	LastUpdated      string                       `json:"last_updated,omitempty"`
}

type tierEnvelope struct {
	Success  bool        `json:"success"`
	TierData tierPayload `json:"tier_data"`
}

type statusEnvelope struct {
	Success bool   `json:"success"`
	Detail  string `json:"detail,omitempty"`
}

type validateEnvelope struct {
	Success       bool `json:"success"`
	AccessGranted bool `json:"access_granted"`
}

type loginEnvelope struct {
	AccessToken string `json:"access_token"`
	UserID      string `json:"user_id,omitempty"`
}

// FetchTier retrieves the current tier record for a user.
func (c *Client) FetchTier(ctx context.Context, userID string) (*core.TierData, error) {
	if userID == "" {
		return nil, core.ErrUserIDRequired
	}

	var envelope tierEnvelope
	path := "/api/tier/current?user_id=" + url.QueryEscape(userID)
	if err := c.do(ctx, http.MethodGet, path, nil, &envelope); err != nil {
		return nil, fmt.Errorf("tier fetch: %w", err)
	}
	if !envelope.Success {
		return nil, fmt.Errorf("tier fetch: %w", ErrNotSuccessful)
	}

	payload := envelope.TierData
	d := &core.TierData{
		Tier:             core.Tier(payload.Tier),
		CreditsRemaining: payload.CreditsRemaining,
		Features:         payload.TierFeatures,
	}
	if t, err := time.Parse(time.RFC3339, payload.TierExpiresAt); err == nil {
		d.TierExpiresAt = &t
	}
	if t, err := time.Parse(time.RFC3339, payload.LastUpdated); err == nil {
		d.LastUpdated = t
	}
	return d, nil
}

// UpdateTier overwrites the stored tier and reseeds credits.
func (c *Client) UpdateTier(ctx context.Context, userID string, newTier core.Tier, credits int) error {
	if userID == "" {
		return core.ErrUserIDRequired
	}

	body := map[string]any{
		"new_tier": string(newTier),
		"credits":  credits,
	}
	var envelope statusEnvelope
	path := "/api/tier/update-tier?user_id=" + url.QueryEscape(userID)
	if err := c.do(ctx, http.MethodPost, path, body, &envelope); err != nil {
		return fmt.Errorf("tier update: %w", err)
	}
	if !envelope.Success {
		if envelope.Detail != "" {
			return fmt.Errorf("tier update: %w: %s", ErrNotSuccessful, envelope.Detail)
		}
		return fmt.Errorf("tier update: %w", ErrNotSuccessful)
	}
	return nil
}

// ValidateFeature asks the backend whether the user may use a feature.
func (c *Client) ValidateFeature(ctx context.Context, userID, feature string) (bool, error) {
	if userID == "" {
		return false, core.ErrUserIDRequired
	}

	body := map[string]any{"feature_name": feature}
	var envelope validateEnvelope
	path := "/api/tier/validate-feature?user_id=" + url.QueryEscape(userID)
	if err := c.do(ctx, http.MethodPost, path, body, &envelope); err != nil {
		return false, fmt.Errorf("feature validation: %w", err)
	}
	if !envelope.Success {
		return false, fmt.Errorf("feature validation: %w", ErrNotSuccessful)
	}
	return envelope.AccessGranted, nil
}

// Login exchanges credentials for an access token. When the response
// omits the user id it is recovered from the token's JWT subject
// claim; the token is decoded without signature verification since the
// client holds no backend key.
func (c *Client) Login(ctx context.Context, email, password string) (*core.LoginResult, error) {
	if email == "" {
		return nil, core.ErrEmailRequired
	}
	if password == "" {
		return nil, core.ErrPasswordRequired
	}

	body := map[string]any{"email": email, "password": password}
	var envelope loginEnvelope
	if err := c.do(ctx, http.MethodPost, "/api/v1/user/login", body, &envelope); err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	if envelope.AccessToken == "" {
		return nil, fmt.Errorf("login: %w: no access token in response", ErrNotSuccessful)
	}

	userID := envelope.UserID
	if userID == "" {
		userID = subjectOf(envelope.AccessToken)
	}

	return &core.LoginResult{Token: envelope.AccessToken, UserID: userID}, nil
}

func subjectOf(accessToken string) string {
	token, _, err := jwt.NewParser().ParseUnverified(accessToken, jwt.MapClaims{})
	if err != nil {
		return ""
	}
	sub, err := token.Claims.GetSubject()
	if err != nil {
		return ""
	}
	return sub
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
