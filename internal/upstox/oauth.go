// Package upstox talks to the Upstox authorization server and REST API.
// OAuthClient covers the token endpoints (code exchange and refresh);
// APIClient is the thin authenticated wrapper the dashboard services build on.
package upstox

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/saurabhpnd/tradeauth/internal/common"
	"golang.org/x/oauth2"
)

const (
	DefaultAuthURL  = "https://api.upstox.com/v2/login/authorization/dialog"
	DefaultTokenURL = "https://api.upstox.com/v2/login/authorization/token"

	// DefaultTokenTTL is assumed when the server does not report expires_in.
	// Upstox access tokens are valid until the end of the trading day, so a
	// short assumption errs on the safe side.
	DefaultTokenTTL = 6 * time.Hour

	defaultTimeout = 10 * time.Second
)

// TokenSet is the plaintext result of a successful exchange or refresh.
// RefreshToken may be empty when the server chose not to rotate it.
type TokenSet struct {
	AccessToken  string
	RefreshToken string
	Expiry       time.Time
}

// OAuthClient wraps the authorization server's token endpoints. All outbound
// calls carry an explicit timeout; a timeout counts as a transient upstream
// failure, never as a rejected token.
type OAuthClient struct {
	conf       *oauth2.Config
	httpClient *http.Client
}

type Option func(*OAuthClient)

// WithEndpoints overrides the authorize/token URLs, used by tests to point
// the client at a stub server.
func WithEndpoints(authURL, tokenURL string) Option {
	return func(c *OAuthClient) {
		c.conf.Endpoint = oauth2.Endpoint{AuthURL: authURL, TokenURL: tokenURL}
	}
}

// WithTimeout overrides the outbound HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *OAuthClient) {
		c.httpClient = &http.Client{Timeout: d}
	}
}

// ClientOptions maps configuration overrides onto client options. A zero
// timeout keeps the default; when only one endpoint URL is overridden the
// other falls back to the production URL.
func ClientOptions(timeout time.Duration, authURL, tokenURL string) []Option {
	var opts []Option
	if timeout > 0 {
		opts = append(opts, WithTimeout(timeout))
	}
	if authURL != "" || tokenURL != "" {
		if authURL == "" {
			authURL = DefaultAuthURL
		}
		if tokenURL == "" {
			tokenURL = DefaultTokenURL
		}
		opts = append(opts, WithEndpoints(authURL, tokenURL))
	}
	return opts
}

func NewOAuthClient(clientID, clientSecret, redirectURI string, opts ...Option) *OAuthClient {
	c := &OAuthClient{
		conf: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURI,
			Endpoint:     oauth2.Endpoint{AuthURL: DefaultAuthURL, TokenURL: DefaultTokenURL},
		},
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// AuthCodeURL returns the URL the user's browser is sent to for interactive
// login. The state nonce is verified by the callback handler.
func (c *OAuthClient) AuthCodeURL(state string) string {
	return c.conf.AuthCodeURL(state)
}

// Exchange trades a one-time authorization code for a token pair.
func (c *OAuthClient) Exchange(ctx context.Context, code string) (*TokenSet, error) {
	tok, err := c.conf.Exchange(c.withHTTPClient(ctx), code)
	if err != nil {
		return nil, classify(err, common.ErrAuthExchange)
	}
	return fromToken(tok), nil
}

// Refresh mints a new access token from a refresh token.
func (c *OAuthClient) Refresh(ctx context.Context, refreshToken string) (*TokenSet, error) {
	src := c.conf.TokenSource(c.withHTTPClient(ctx), &oauth2.Token{RefreshToken: refreshToken})
	tok, err := src.Token()
	if err != nil {
		return nil, classify(err, common.ErrRefreshRejected)
	}
	return fromToken(tok), nil
}

func (c *OAuthClient) withHTTPClient(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
}

func fromToken(tok *oauth2.Token) *TokenSet {
	expiry := tok.Expiry
	if expiry.IsZero() {
		expiry = time.Now().Add(DefaultTokenTTL)
	}
	return &TokenSet{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		Expiry:       expiry,
	}
}

// classify maps a token-endpoint failure onto the error taxonomy: a 4xx from
// the server means the grant itself was rejected (permanent), everything else
// is transient. Only the server's OAuth error code is quoted, never token
// material.
func classify(err error, rejected error) error {
	var rerr *oauth2.RetrieveError
	if errors.As(err, &rerr) {
		status := 0
		if rerr.Response != nil {
			status = rerr.Response.StatusCode
		}
		if status >= 400 && status < 500 {
			if rerr.ErrorCode != "" {
				return fmt.Errorf("%w: %s", rejected, rerr.ErrorCode)
			}
			return fmt.Errorf("%w: status %d", rejected, status)
		}
		return fmt.Errorf("%w: status %d", common.ErrUpstreamUnavailable, status)
	}
	return fmt.Errorf("%w: %v", common.ErrUpstreamUnavailable, err)
}
