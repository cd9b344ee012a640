// Package tokenstore is the sole authority for minting, persisting and
// serving Upstox bearer tokens. Every collaborator that needs an access
// token goes through GetValidToken; nothing else reads or writes the
// encrypted credential table.
package tokenstore

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/saurabhpnd/tradeauth/internal/common"
	"github.com/saurabhpnd/tradeauth/internal/credentials"
	"github.com/saurabhpnd/tradeauth/internal/cryptox"
	"github.com/saurabhpnd/tradeauth/internal/logging"
	"github.com/saurabhpnd/tradeauth/internal/models"
	"github.com/saurabhpnd/tradeauth/internal/upstox"
	"golang.org/x/sync/singleflight"
)

// DefaultSafetyMargin is subtracted from a token's lifetime before handing it
// out, so a caller never receives a token that expires mid-request.
const DefaultSafetyMargin = 60 * time.Second

// OAuth is the slice of the authorization server the store depends on.
// *upstox.OAuthClient implements it; tests substitute a fake.
type OAuth interface {
	Exchange(ctx context.Context, code string) (*upstox.TokenSet, error)
	Refresh(ctx context.Context, refreshToken string) (*upstox.TokenSet, error)
}

// Status is the read-only diagnostic view of one identity.
type Status struct {
	Authenticated bool
	ExpiresIn     time.Duration
}

// Store implements the token lifecycle over an encrypted credential
// repository. It is safe for concurrent use; refreshes for the same user id
// are collapsed into a single upstream call.
type Store struct {
	repo   credentials.Repository
	cipher cryptox.Cipher
	oauth  OAuth
	logger logging.Logger
	safety time.Duration
	now    func() time.Time
	group  singleflight.Group
}

type Option func(*Store)

func WithLogger(l logging.Logger) Option {
	return func(s *Store) { s.logger = l.With("module", "tokenstore") }
}

func WithSafetyMargin(d time.Duration) Option {
	return func(s *Store) { s.safety = d }
}

// WithClock overrides the time source, used by expiry tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func New(repo credentials.Repository, cipher cryptox.Cipher, oauth OAuth, opts ...Option) *Store {
	s := &Store{
		repo:   repo,
		cipher: cipher,
		oauth:  oauth,
		logger: logging.NewDefault().With("module", "tokenstore"),
		safety: DefaultSafetyMargin,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ExchangeCode trades a one-time authorization code for a token pair and
// persists it for userID, overwriting any previous record. This is the only
// path that creates a record from scratch.
func (s *Store) ExchangeCode(ctx context.Context, code, userID string) (*models.CredentialRecord, error) {
	ts, err := s.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, err
	}

	access, err := s.seal(ts.AccessToken)
	if err != nil {
		return nil, err
	}
	refresh, err := s.seal(ts.RefreshToken)
	if err != nil {
		return nil, err
	}

	now := s.now()
	rec := &models.CredentialRecord{
		UserID:       userID,
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    ts.Expiry,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Upsert(ctx, rec); err != nil {
		return nil, fmt.Errorf("persisting credentials: %w", err)
	}

	// Re-read so the returned record matches the stored row: on a re-login
	// the upsert keeps the original created_at.
	stored, err := s.repo.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("reading back credentials: %w", err)
	}

	s.logger.Info(ctx, "authorization code exchanged", "user_id", userID, "expires_at", ts.Expiry)
	return stored, nil
}

// GetValidToken returns a plaintext access token guaranteed not to be
// expired at the instant of return. A token inside the safety margin of its
// expiry is refreshed first. An unknown or revoked identity yields
// common.ErrNotAuthenticated, the normal "please log in" state.
func (s *Store) GetValidToken(ctx context.Context, userID string) (string, error) {
	rec, err := s.repo.Get(ctx, userID)
	if errors.Is(err, common.ErrNotFound) {
		return "", common.ErrNotAuthenticated
	}
	if err != nil {
		return "", err
	}
	if !rec.IsActive {
		return "", common.ErrNotAuthenticated
	}

	if s.now().Add(s.safety).Before(rec.ExpiresAt) {
		return s.open(rec.AccessToken)
	}

	return s.Refresh(ctx, userID)
}

// Refresh mints a new access token from the stored refresh token. Concurrent
// callers for the same user id are collapsed: exactly one upstream call is
// made and every waiter receives its result. Different user ids refresh
// independently.
func (s *Store) Refresh(ctx context.Context, userID string) (string, error) {
	v, err, _ := s.group.Do(userID, func() (any, error) {
		return s.refresh(ctx, userID)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (s *Store) refresh(ctx context.Context, userID string) (string, error) {
	rec, err := s.repo.Get(ctx, userID)
	if errors.Is(err, common.ErrNotFound) {
		return "", common.ErrNotAuthenticated
	}
	if err != nil {
		return "", err
	}
	if !rec.IsActive {
		return "", common.ErrNotAuthenticated
	}

	// Another process may have refreshed the row while we were queued.
	if s.now().Add(s.safety).Before(rec.ExpiresAt) {
		return s.open(rec.AccessToken)
	}

	refreshToken, err := s.open(rec.RefreshToken)
	if err != nil {
		return "", err
	}

	ts, err := s.oauth.Refresh(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, common.ErrRefreshRejected) {
			// The refresh token is dead upstream; retrying is pointless.
			// Deactivate so the identity lands in a clean "log in again"
			// state instead of hammering the authorization server.
			if _, derr := s.repo.Deactivate(ctx, userID); derr != nil {
				s.logger.Error(ctx, "deactivating credentials after rejected refresh",
					"user_id", userID, "error", derr.Error())
			}
			s.logger.Warn(ctx, "refresh token rejected, re-authentication required", "user_id", userID)
			return "", err
		}
		// Transient: leave the record untouched so a later call can retry.
		return "", err
	}

	access, err := s.seal(ts.AccessToken)
	if err != nil {
		return "", err
	}
	// Persist the rotated refresh token; keep the old ciphertext when the
	// server did not send a replacement.
	sealedRefresh := rec.RefreshToken
	if ts.RefreshToken != "" {
		if sealedRefresh, err = s.seal(ts.RefreshToken); err != nil {
			return "", err
		}
	}

	updated, err := s.repo.UpdateTokens(ctx, userID, access, sealedRefresh, ts.Expiry)
	if err != nil {
		return "", fmt.Errorf("persisting refreshed tokens: %w", err)
	}
	if !updated {
		// Revoked between the read and the write.
		return "", common.ErrNotAuthenticated
	}

	s.logger.Info(ctx, "access token refreshed", "user_id", userID, "expires_at", ts.Expiry)
	return ts.AccessToken, nil
}

// Revoke soft-deletes the identity's credentials. Idempotent: the boolean
// reports whether anything changed.
func (s *Store) Revoke(ctx context.Context, userID string) (bool, error) {
	changed, err := s.repo.Deactivate(ctx, userID)
	if err != nil {
		return false, err
	}
	if changed {
		s.logger.Info(ctx, "credentials revoked", "user_id", userID)
	}
	return changed, nil
}

// GetStatus reports whether a currently valid record exists and how long it
// stays valid. It never triggers a refresh.
func (s *Store) GetStatus(ctx context.Context, userID string) (*Status, error) {
	rec, err := s.repo.Get(ctx, userID)
	if errors.Is(err, common.ErrNotFound) {
		return &Status{}, nil
	}
	if err != nil {
		return nil, err
	}
	if !rec.IsActive {
		return &Status{}, nil
	}

	remaining := rec.ExpiresAt.Sub(s.now())
	if remaining <= 0 {
		return &Status{}, nil
	}
	return &Status{Authenticated: true, ExpiresIn: remaining}, nil
}

// Supplier curries GetValidToken with a user id, in the shape the brokerage
// service wrappers take as a constructor dependency.
func (s *Store) Supplier(userID string) upstox.TokenSupplier {
	return func(ctx context.Context) (string, error) {
		return s.GetValidToken(ctx, userID)
	}
}

// seal encrypts a plaintext token and encodes it for a TEXT column.
func (s *Store) seal(token string) (string, error) {
	ct, err := s.cipher.Encrypt([]byte(token))
	if err != nil {
		return "", fmt.Errorf("encrypting token: %w", err)
	}
	return base64.StdEncoding.EncodeToString(ct), nil
}

// open decodes and decrypts a stored token into plaintext, in memory only.
func (s *Store) open(sealed string) (string, error) {
	ct, err := base64.StdEncoding.DecodeString(sealed)
	if err != nil {
		return "", fmt.Errorf("decoding token ciphertext: %w", err)
	}
	pt, err := s.cipher.Decrypt(ct)
	if err != nil {
		return "", fmt.Errorf("decrypting token: %w", err)
	}
	return string(pt), nil
}
