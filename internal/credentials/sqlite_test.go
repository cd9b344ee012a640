package credentials

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/saurabhpnd/tradeauth/internal/common"
	"github.com/saurabhpnd/tradeauth/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
CREATE TABLE credential_record (
  user_id       TEXT PRIMARY KEY,
  access_token  TEXT NOT NULL,
  refresh_token TEXT NOT NULL,
  expires_at    REAL NOT NULL,
  is_active     INTEGER NOT NULL DEFAULT 1,
  created_at    REAL,
  updated_at    REAL
);
`)
	require.NoError(t, err)

	return db
}

func record(userID string, expiresAt time.Time) *models.CredentialRecord {
	now := time.Now().UTC()
	return &models.CredentialRecord{
		UserID:       userID,
		AccessToken:  "ct-access",
		RefreshToken: "ct-refresh",
		ExpiresAt:    expiresAt,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func TestUpsert_InsertAndOverwrite(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	expiry := time.Now().Add(time.Hour).UTC()
	require.NoError(t, r.Upsert(ctx, record("alice", expiry)))

	got, err := r.Get(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "ct-access", got.AccessToken)
	assert.True(t, got.IsActive)
	assert.WithinDuration(t, expiry, got.ExpiresAt, time.Second)

	// overwrite by the same user id
	rec2 := record("alice", expiry.Add(time.Hour))
	rec2.AccessToken = "ct-access-2"
	require.NoError(t, r.Upsert(ctx, rec2))

	got, err = r.Get(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "ct-access-2", got.AccessToken)

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM credential_record`).Scan(&n))
	assert.Equal(t, 1, n)
}

func TestUpsert_ReactivatesRevokedIdentity(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	require.NoError(t, r.Upsert(ctx, record("alice", time.Now().Add(time.Hour))))
	_, err := r.Deactivate(ctx, "alice")
	require.NoError(t, err)

	require.NoError(t, r.Upsert(ctx, record("alice", time.Now().Add(time.Hour))))

	got, err := r.Get(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, got.IsActive)
}

func TestGet_NotFound(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)

	_, err := r.Get(context.Background(), "ghost")
	require.ErrorIs(t, err, common.ErrNotFound)
}

func TestGet_ReturnsRevokedRows(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	require.NoError(t, r.Upsert(ctx, record("alice", time.Now().Add(time.Hour))))
	_, err := r.Deactivate(ctx, "alice")
	require.NoError(t, err)

	got, err := r.Get(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, got.IsActive)
}

func TestUpdateTokens_ActiveOnly(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	require.NoError(t, r.Upsert(ctx, record("alice", time.Now().Add(-time.Minute))))

	newExpiry := time.Now().Add(time.Hour).UTC()
	updated, err := r.UpdateTokens(ctx, "alice", "ct-access-2", "ct-refresh-2", newExpiry)
	require.NoError(t, err)
	assert.True(t, updated)

	got, err := r.Get(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "ct-access-2", got.AccessToken)
	assert.Equal(t, "ct-refresh-2", got.RefreshToken)
	assert.WithinDuration(t, newExpiry, got.ExpiresAt, time.Second)

	// a revoked row must not be touched
	_, err = r.Deactivate(ctx, "alice")
	require.NoError(t, err)

	updated, err = r.UpdateTokens(ctx, "alice", "ct-access-3", "ct-refresh-3", newExpiry)
	require.NoError(t, err)
	assert.False(t, updated)

	got, err = r.Get(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "ct-access-2", got.AccessToken)
}

func TestUpdateTokens_UnknownIdentity(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)

	updated, err := r.UpdateTokens(context.Background(), "ghost", "a", "b", time.Now())
	require.NoError(t, err)
	assert.False(t, updated)
}

func TestDeactivate_Idempotent(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	require.NoError(t, r.Upsert(ctx, record("alice", time.Now().Add(time.Hour))))

	changed, err := r.Deactivate(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = r.Deactivate(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, changed)

	changed, err = r.Deactivate(ctx, "ghost")
	require.NoError(t, err)
	assert.False(t, changed)
}
