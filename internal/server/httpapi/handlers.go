package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/saurabhpnd/tradeauth/internal/common"
	"github.com/saurabhpnd/tradeauth/internal/server/auth"
)

const defaultUserID = "default"

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// handleLogin starts the interactive login: it binds a one-time state nonce
// to the requested user id and redirects the browser to the Upstox dialog.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		userID = defaultUserID
	}

	state := s.states.Issue(userID)
	http.Redirect(w, r, s.oauth.AuthCodeURL(state), http.StatusFound)
}

// handleCallback is the redirect target registered with the brokerage. It
// validates the state nonce, exchanges the one-time code and issues the
// dashboard session cookie.
func (s *Server) handleCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	code, state := q.Get("code"), q.Get("state")
	if code == "" || state == "" {
		writeError(w, http.StatusBadRequest, "missing code or state")
		return
	}

	userID, ok := s.states.Consume(state)
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown or reused state")
		return
	}

	rec, err := s.store.ExchangeCode(r.Context(), code, userID)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrAuthExchange):
			writeError(w, http.StatusUnauthorized, "authorization code rejected, please re-authenticate")
		case errors.Is(err, common.ErrUpstreamUnavailable):
			writeError(w, http.StatusBadGateway, "authorization server unavailable, please retry")
		default:
			s.logger.Error(r.Context(), "code exchange failed", "user_id", userID, "error", err.Error())
			writeError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	session, err := auth.NewSessionToken(userID, s.sessionSecret, s.sessionTTL)
	if err != nil {
		s.logger.Error(r.Context(), "issuing session token", "user_id", userID, "error", err.Error())
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    session,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(s.sessionTTL.Seconds()),
	})

	writeJSON(w, http.StatusOK, map[string]any{
		"authenticated": true,
		"user_id":       userID,
		"expires_at":    rec.ExpiresAt.Unix(),
	})
}

// statusResponse mirrors the store's Status; expires_in is null when the
// identity is not authenticated.
type statusResponse struct {
	Authenticated bool   `json:"authenticated"`
	ExpiresIn     *int64 `json:"expires_in"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r.Context())

	st, err := s.store.GetStatus(r.Context(), userID)
	if err != nil {
		s.logger.Error(r.Context(), "status lookup failed", "user_id", userID, "error", err.Error())
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	resp := statusResponse{Authenticated: st.Authenticated}
	if st.Authenticated {
		secs := int64(st.ExpiresIn.Seconds())
		resp.ExpiresIn = &secs
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r.Context())

	revoked, err := s.store.Revoke(r.Context(), userID)
	if err != nil {
		s.logger.Error(r.Context(), "revoke failed", "user_id", userID, "error", err.Error())
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:   sessionCookieName,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})

	writeJSON(w, http.StatusOK, map[string]any{"revoked": revoked})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
