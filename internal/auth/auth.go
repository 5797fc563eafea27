// Package auth provides password hashing and the opaque signed token
// binding requests to a user id.
package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/Seungho-Jeong/accountbooks/internal/apperr"
)

// HashPassword returns a salted one-way hash of the plaintext password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether the plaintext password matches the stored
// hash. The comparison is constant-time inside bcrypt.
func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// Claims is the token payload. Only the user id is bound; no expiry is
// embedded, matching the tokens existing clients hold.
type Claims struct {
	UserID int64 `json:"user_id"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies tokens with a process-wide HS256 secret
// loaded once at startup.
type TokenIssuer struct {
	secret []byte
}

// NewTokenIssuer creates an issuer from the configured signing secret.
func NewTokenIssuer(secret string) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret)}
}

// Issue produces a signed token for the user id.
func (t *TokenIssuer) Issue(userID int64) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{UserID: userID})
	return token.SignedString(t.secret)
}

// Verify parses the token and returns the bound user id. Any malformed,
// forged or wrongly-signed token fails with an invalid-token error.
func (t *TokenIssuer) Verify(tokenString string) (int64, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, apperr.InvalidToken()
		}
		return t.secret, nil
	})
	if err != nil || !token.Valid {
		return 0, apperr.InvalidToken()
	}

	claims, ok := token.Claims.(*Claims)
	if !ok {
		return 0, apperr.InvalidToken()
	}
	return claims.UserID, nil
}
