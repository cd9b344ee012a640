package upstox

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/saurabhpnd/tradeauth/internal/common"
)

// DefaultAPIBaseURL is the Upstox REST API root.
const DefaultAPIBaseURL = "https://api.upstox.com/v2"

// TokenSupplier yields a currently valid access token for one identity.
// The token store's Supplier method is the canonical implementation; every
// service wrapper takes one of these instead of holding raw tokens.
type TokenSupplier func(ctx context.Context) (string, error)

// APIClient is a thin authenticated client over the brokerage REST API.
// It fetches a fresh token from its supplier before every call, so callers
// never see an expired bearer token.
type APIClient struct {
	baseURL    string
	token      TokenSupplier
	httpClient *http.Client
}

type APIOption func(*APIClient)

// WithAPIBaseURL overrides the REST API root, used by tests.
func WithAPIBaseURL(u string) APIOption {
	return func(c *APIClient) { c.baseURL = u }
}

// WithAPIHTTPClient overrides the HTTP client.
func WithAPIHTTPClient(hc *http.Client) APIOption {
	return func(c *APIClient) { c.httpClient = hc }
}

func NewAPIClient(token TokenSupplier, opts ...APIOption) *APIClient {
	c := &APIClient{
		baseURL:    DefaultAPIBaseURL,
		token:      token,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Profile is the broker's view of the logged-in account.
type Profile struct {
	UserID    string   `json:"user_id"`
	UserName  string   `json:"user_name"`
	Email     string   `json:"email"`
	Broker    string   `json:"broker"`
	Exchanges []string `json:"exchanges"`
}

// Funds reports available margin for a segment.
type Funds struct {
	AvailableMargin float64 `json:"available_margin"`
	UsedMargin      float64 `json:"used_margin"`
}

// GetProfile fetches the account profile.
func (c *APIClient) GetProfile(ctx context.Context) (*Profile, error) {
	var p Profile
	if err := c.get(ctx, "/user/profile", &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// GetFunds fetches available equity margin.
func (c *APIClient) GetFunds(ctx context.Context) (*Funds, error) {
	var raw struct {
		Equity Funds `json:"equity"`
	}
	if err := c.get(ctx, "/user/get-funds-and-margin", &raw); err != nil {
		return nil, err
	}
	return &raw.Equity, nil
}

// envelope is the standard Upstox response wrapper.
type envelope struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
}

func (c *APIClient) get(ctx context.Context, path string, out any) error {
	token, err := c.token(ctx)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return common.ErrNotAuthenticated
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: status %d", common.ErrUpstreamUnavailable, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("upstox api: unexpected status %d", resp.StatusCode)
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decoding response data: %w", err)
	}
	return nil
}
