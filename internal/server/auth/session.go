// Package auth issues and verifies the dashboard's own session tokens.
// These are unrelated to the brokerage tokens held by the token store: a
// session JWT only proves to the HTTP API which user id the browser belongs
// to.
package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/saurabhpnd/tradeauth/internal/common"
)

// Claims includes the registered claims plus the dashboard user id.
type Claims struct {
	jwt.RegisteredClaims
	UserID string
}

// NewSessionToken signs an HS256 session token for userID.
func NewSessionToken(userID string, secretKey []byte, validity time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(validity)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
		UserID: userID,
	})

	return token.SignedString(secretKey)
}

// UserIDFromToken verifies a session token and extracts the user id.
// Any parse, signature or expiry failure maps to common.ErrInvalidSession.
func UserIDFromToken(tokenString string, secretKey []byte) (string, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", common.ErrInvalidSession
	}
	if !token.Valid {
		return "", common.ErrInvalidSession
	}

	return claims.UserID, nil
}
