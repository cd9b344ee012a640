// Package models holds the persisted shapes shared by repositories and
// services.
package models

import "time"

// CredentialRecord is one row of the credential_record table: the encrypted
// token pair for a single trading identity.
//
// AccessToken and RefreshToken hold base64-encoded ciphertext, never
// plaintext. A record with IsActive=false is logically revoked: it is kept
// for audit but excluded from every valid-token read.
type CredentialRecord struct {
	UserID       string
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
