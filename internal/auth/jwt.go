// ABOUTME: Access-token issuance and parsing for the Taskboard API.
// ABOUTME: Parsing pins HS256, requires expiry and checks the issuer; never call jwt.Parse directly.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Issuer is the "iss" claim on every token this package signs.
const Issuer = "taskboard"

// AccessClaims holds the claims embedded in an access token.
type AccessClaims struct {
	jwt.RegisteredClaims
	// UserID shadows RegisteredClaims.Subject (same json:"sub" tag) so that
	// "sub" decodes straight into a UUID; encoding/json prefers the outer field.
	UserID uuid.UUID `json:"sub"`
	// Username is informational; authorization always uses UserID.
	Username string `json:"name,omitempty"`
}

// IssueAccessToken creates a signed HS256 access token for userID valid for ttl.
func IssueAccessToken(secret []byte, userID uuid.UUID, username string, ttl time.Duration) (string, error) {
	if userID == uuid.Nil {
		return "", errors.New("sign access token: nil user id")
	}
	now := time.Now()
	claims := AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		UserID:   userID,
		Username: username,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}
	return signed, nil
}

// ParseAccessToken validates and parses an HS256 access token.
// Returns an error if the token is expired, uses a wrong algorithm, has the
// wrong issuer, or carries no user id.
func ParseAccessToken(tokenStr string, secret []byte) (*AccessClaims, error) {
	claims := &AccessClaims{}
	_, err := jwt.ParseWithClaims(tokenStr, claims, func(_ *jwt.Token) (any, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(Issuer),
	)
	if err != nil {
		return nil, fmt.Errorf("parse access token: %w", err)
	}
	if claims.UserID == uuid.Nil {
		return nil, errors.New("parse access token: missing subject")
	}
	return claims, nil
}
