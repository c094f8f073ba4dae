// internal/common/utils/jwt.go

package utils

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)

// TokenClaims is the identity carried by an access or refresh token.
type TokenClaims struct {
	UserID    int64
	Email     string
	Type      string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// GenerateToken signs a token of the given type for a user.
func GenerateToken(userID int64, email, tokenType, secret string, ttl time.Duration) (string, error) {
	now := time.Now()

	// The jti keeps two tokens minted in the same second distinct;
	// refresh tokens double as session keys and must never collide.
	claims := jwt.MapClaims{
		"user_id": strconv.FormatInt(userID, 10),
		"email":   email,
		"type":    tokenType,
		"jti":     uuid.NewString(),
		"iat":     now.Unix(),
		"exp":     now.Add(ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ValidateToken parses and verifies a token and returns its claims.
func ValidateToken(tokenString, secret string) (*TokenClaims, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	userID, err := strconv.ParseInt(getStringClaim(claims, "user_id"), 10, 64)
	if err != nil {
		return nil, ErrInvalidToken
	}

	out := &TokenClaims{
		UserID: userID,
		Email:  getStringClaim(claims, "email"),
		Type:   getStringClaim(claims, "type"),
	}
	if iat, ok := claims["iat"].(float64); ok {
		out.IssuedAt = time.Unix(int64(iat), 0)
	}
	if exp, ok := claims["exp"].(float64); ok {
		out.ExpiresAt = time.Unix(int64(exp), 0)
	}

	return out, nil
}

func getStringClaim(claims jwt.MapClaims, key string) string {
	if v, ok := claims[key].(string); ok {
		return v
	}
	return ""
}
