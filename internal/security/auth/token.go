package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the signed contents of an auth token: the user id plus the
// registered expiry/issue timestamps.
type Claims struct {
	UserID int64 `json:"user_id"`
	jwt.RegisteredClaims
}

// TokenManager issues and verifies HMAC-signed auth tokens
type TokenManager struct {
	secret []byte
	issuer string
}

// NewTokenManager creates a token manager signing with the given secret
func NewTokenManager(secret, issuer string) *TokenManager {
	if issuer == "" {
		issuer = "todoapi"
	}
	return &TokenManager{secret: []byte(secret), issuer: issuer}
}

// Generate signs a token for the user id with an absolute expiry of
// now+expiresIn.
func (tm *TokenManager) Generate(userID int64, expiresIn time.Duration) (string, error) {
	if userID <= 0 {
		return "", fmt.Errorf("user id required")
	}
	now := time.Now()
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiresIn)),
			Issuer:    tm.issuer,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(tm.secret)
}

// Validate verifies the signature and expiry and returns the claims.
// Expired or tampered tokens fail with an error.
func (tm *TokenManager) Validate(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return tm.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token failed: %w", err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	return claims, nil
}
