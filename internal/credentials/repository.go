// Package credentials persists encrypted credential records, one per trading
// identity. It is the only package that touches the credential_record table.
package credentials

import (
	"context"
	"time"

	"github.com/saurabhpnd/tradeauth/internal/models"
)

// Repository describes storage operations over credential records. Token
// fields are opaque to this layer: encryption happens above it, and a
// repository never sees plaintext.
type Repository interface {
	// Upsert inserts a record or fully overwrites the existing row with the
	// same UserID. This is the write path for a fresh code exchange; it also
	// reactivates a previously revoked identity.
	Upsert(ctx context.Context, rec *models.CredentialRecord) error

	// Get returns the record for userID, active or not, or
	// common.ErrNotFound when no row exists.
	Get(ctx context.Context, userID string) (*models.CredentialRecord, error)

	// UpdateTokens atomically overwrites both tokens, the expiry and
	// updated_at in a single statement, but only while the row is still
	// active. Returns false when no active row matched (absent or revoked in
	// the meantime).
	UpdateTokens(ctx context.Context, userID, accessToken, refreshToken string, expiresAt time.Time) (bool, error)

	// Deactivate flips is_active off and bumps updated_at. Returns false when
	// the row was absent or already inactive; that is not an error.
	Deactivate(ctx context.Context, userID string) (bool, error)
}
