package credentials

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/saurabhpnd/tradeauth/internal/common"
	"github.com/saurabhpnd/tradeauth/internal/dbx"
	"github.com/saurabhpnd/tradeauth/internal/models"
)

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

// NewSQLiteRepository returns a new SQLiteRepository bound to the given DBTX.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Upsert inserts or fully overwrites the record for rec.UserID.
func (r *SQLiteRepository) Upsert(ctx context.Context, rec *models.CredentialRecord) error {
	query := `INSERT INTO credential_record
			(user_id, access_token, refresh_token, expires_at, is_active, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(user_id) DO UPDATE SET access_token = excluded.access_token,
				refresh_token = excluded.refresh_token,
				expires_at = excluded.expires_at,
				is_active = excluded.is_active,
				updated_at = excluded.updated_at
	`
	_, err := r.db.ExecContext(ctx, query,
		rec.UserID, rec.AccessToken, rec.RefreshToken, toEpoch(rec.ExpiresAt),
		rec.IsActive, toEpoch(rec.CreatedAt), toEpoch(rec.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to upsert credential record: %w", err)
	}
	return nil
}

// Get returns the record for userID, revoked rows included.
func (r *SQLiteRepository) Get(ctx context.Context, userID string) (*models.CredentialRecord, error) {
	query := `SELECT user_id, access_token, refresh_token, expires_at, is_active, created_at, updated_at
			FROM credential_record WHERE user_id = ?`
	return scanRecord(r.db.QueryRowContext(ctx, query, userID))
}

// UpdateTokens overwrites the token pair and expiry in one statement, only
// while the row is still active.
func (r *SQLiteRepository) UpdateTokens(ctx context.Context, userID, accessToken, refreshToken string, expiresAt time.Time) (bool, error) {
	query := `UPDATE credential_record
			SET access_token = ?, refresh_token = ?, expires_at = ?, updated_at = ?
			WHERE user_id = ? AND is_active = 1`
	res, err := r.db.ExecContext(ctx, query,
		accessToken, refreshToken, toEpoch(expiresAt), toEpoch(time.Now()), userID)
	if err != nil {
		return false, fmt.Errorf("failed to update tokens: %w", err)
	}
	ra, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return ra > 0, nil
}

// Deactivate soft-revokes the record. The row is kept for audit.
func (r *SQLiteRepository) Deactivate(ctx context.Context, userID string) (bool, error) {
	query := `UPDATE credential_record SET is_active = 0, updated_at = ? WHERE user_id = ? AND is_active = 1`
	res, err := r.db.ExecContext(ctx, query, toEpoch(time.Now()), userID)
	if err != nil {
		return false, fmt.Errorf("failed to deactivate credential record: %w", err)
	}
	ra, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return ra > 0, nil
}

func scanRecord(row *sql.Row) (*models.CredentialRecord, error) {
	rec := &models.CredentialRecord{}
	var expiresAt float64
	var createdAt, updatedAt sql.NullFloat64
	err := row.Scan(&rec.UserID, &rec.AccessToken, &rec.RefreshToken,
		&expiresAt, &rec.IsActive, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query row scan failed: %w", err)
	}
	rec.ExpiresAt = fromEpoch(expiresAt)
	if createdAt.Valid {
		rec.CreatedAt = fromEpoch(createdAt.Float64)
	}
	if updatedAt.Valid {
		rec.UpdatedAt = fromEpoch(updatedAt.Float64)
	}
	return rec, nil
}
