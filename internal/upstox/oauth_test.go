package upstox

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/saurabhpnd/tradeauth/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubTokenEndpoint fakes the authorization server's token endpoint.
func stubTokenEndpoint(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(srv *httptest.Server) *OAuthClient {
	return NewOAuthClient("client-id", "client-secret", "http://localhost/cb",
		WithEndpoints(srv.URL+"/dialog", srv.URL+"/token"),
		WithTimeout(2*time.Second),
	)
}

func writeTokenJSON(w http.ResponseWriter, access, refresh string, expiresIn int) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"access_token":"` + access + `","refresh_token":"` + refresh +
		`","token_type":"Bearer","expires_in":` + strconv.Itoa(expiresIn) + `}`))
}

func writeOAuthError(w http.ResponseWriter, status int, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`{"error":"` + code + `"}`))
}

func TestExchange_Success(t *testing.T) {
	srv := stubTokenEndpoint(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "authorization_code", r.FormValue("grant_type"))
		assert.Equal(t, "code123", r.FormValue("code"))
		writeTokenJSON(w, "A1", "R1", 3600)
	})

	c := newTestClient(srv)

	ts, err := c.Exchange(context.Background(), "code123")
	require.NoError(t, err)
	assert.Equal(t, "A1", ts.AccessToken)
	assert.Equal(t, "R1", ts.RefreshToken)
	assert.WithinDuration(t, time.Now().Add(time.Hour), ts.Expiry, time.Minute)
}

func TestExchange_RejectedCode(t *testing.T) {
	srv := stubTokenEndpoint(t, func(w http.ResponseWriter, r *http.Request) {
		writeOAuthError(w, http.StatusBadRequest, "invalid_grant")
	})

	c := newTestClient(srv)

	_, err := c.Exchange(context.Background(), "stale-code")
	require.ErrorIs(t, err, common.ErrAuthExchange)
	assert.NotContains(t, err.Error(), "stale-code")
}

func TestExchange_ServerError(t *testing.T) {
	srv := stubTokenEndpoint(t, func(w http.ResponseWriter, r *http.Request) {
		writeOAuthError(w, http.StatusServiceUnavailable, "temporarily_unavailable")
	})

	c := newTestClient(srv)

	_, err := c.Exchange(context.Background(), "code123")
	require.ErrorIs(t, err, common.ErrUpstreamUnavailable)
}

func TestExchange_NetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close() // connection refused from here on

	c := newTestClient(srv)

	_, err := c.Exchange(context.Background(), "code123")
	require.ErrorIs(t, err, common.ErrUpstreamUnavailable)
}

func TestRefresh_Success(t *testing.T) {
	srv := stubTokenEndpoint(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "refresh_token", r.FormValue("grant_type"))
		assert.Equal(t, "R1", r.FormValue("refresh_token"))
		writeTokenJSON(w, "A2", "R2", 3600)
	})

	c := newTestClient(srv)

	ts, err := c.Refresh(context.Background(), "R1")
	require.NoError(t, err)
	assert.Equal(t, "A2", ts.AccessToken)
	assert.Equal(t, "R2", ts.RefreshToken)
}

func TestRefresh_Rejected(t *testing.T) {
	srv := stubTokenEndpoint(t, func(w http.ResponseWriter, r *http.Request) {
		writeOAuthError(w, http.StatusBadRequest, "invalid_grant")
	})

	c := newTestClient(srv)

	_, err := c.Refresh(context.Background(), "dead-refresh-token")
	require.ErrorIs(t, err, common.ErrRefreshRejected)
	require.ErrorIs(t, err, common.ErrNotAuthenticated)
	assert.NotContains(t, err.Error(), "dead-refresh-token")
}

func TestRefresh_ServerError(t *testing.T) {
	srv := stubTokenEndpoint(t, func(w http.ResponseWriter, r *http.Request) {
		writeOAuthError(w, http.StatusInternalServerError, "server_error")
	})

	c := newTestClient(srv)

	_, err := c.Refresh(context.Background(), "R1")
	require.ErrorIs(t, err, common.ErrUpstreamUnavailable)
	assert.NotErrorIs(t, err, common.ErrNotAuthenticated)
}

func TestAuthCodeURL(t *testing.T) {
	c := NewOAuthClient("client-id", "client-secret", "http://localhost/cb")

	u := c.AuthCodeURL("state123")
	assert.Contains(t, u, DefaultAuthURL)
	assert.Contains(t, u, "state=state123")
	assert.Contains(t, u, "client_id=client-id")
}

func TestClientOptions(t *testing.T) {
	srv := stubTokenEndpoint(t, func(w http.ResponseWriter, r *http.Request) {
		writeTokenJSON(w, "A1", "R1", 3600)
	})

	t.Run("token URL override falls back to production auth URL", func(t *testing.T) {
		c := NewOAuthClient("client-id", "client-secret", "http://localhost/cb",
			ClientOptions(time.Second, "", srv.URL+"/token")...)

		assert.Contains(t, c.AuthCodeURL("s"), DefaultAuthURL)

		ts, err := c.Exchange(context.Background(), "code123")
		require.NoError(t, err)
		assert.Equal(t, "A1", ts.AccessToken)
	})

	t.Run("no overrides yields no options", func(t *testing.T) {
		assert.Empty(t, ClientOptions(0, "", ""))
	})
}
