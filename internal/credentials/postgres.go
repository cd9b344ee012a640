package credentials

import (
	"context"
	"fmt"
	"time"

	"github.com/saurabhpnd/tradeauth/internal/dbx"
	"github.com/saurabhpnd/tradeauth/internal/models"
)

// PostgresRepository implements Repository for the hosted deployment, where
// several dashboard processes share one Postgres instance.
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Upsert(ctx context.Context, rec *models.CredentialRecord) error {
	query := `INSERT INTO credential_record
			(user_id, access_token, refresh_token, expires_at, is_active, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
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

func (r *PostgresRepository) Get(ctx context.Context, userID string) (*models.CredentialRecord, error) {
	query := `SELECT user_id, access_token, refresh_token, expires_at, is_active, created_at, updated_at
			FROM credential_record WHERE user_id = $1`
	return scanRecord(r.db.QueryRowContext(ctx, query, userID))
}

func (r *PostgresRepository) UpdateTokens(ctx context.Context, userID, accessToken, refreshToken string, expiresAt time.Time) (bool, error) {
	query := `UPDATE credential_record
			SET access_token = $1, refresh_token = $2, expires_at = $3, updated_at = $4
			WHERE user_id = $5 AND is_active`
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

func (r *PostgresRepository) Deactivate(ctx context.Context, userID string) (bool, error) {
	query := `UPDATE credential_record SET is_active = FALSE, updated_at = $1 WHERE user_id = $2 AND is_active`
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
