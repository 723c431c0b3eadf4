// Package middleware provides HTTP middleware and token helpers shared by the API server.
package middleware

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"petconnect/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	TokenIssuer   = "petconnect-api"
	TokenAudience = "petconnect-client"
	TokenTTL      = 7 * 24 * time.Hour
)

// ErrInvalidToken is returned for any token that fails verification.
var ErrInvalidToken = errors.New("invalid or expired token")

// TokenClaims is the verified content of an access token.
type TokenClaims struct {
	UserID    uint
	Role      models.Role
	JTI       string
	ExpiresAt time.Time
}

// IssueToken signs an HS256 access token for the user.
func IssueToken(secret string, userID uint, role models.Role, now time.Time) (string, TokenClaims, error) {
	jti := fmt.Sprintf("%d-%s", now.Unix(), uuid.New().String()[:8])
	exp := now.Add(TokenTTL)

	claims := jwt.MapClaims{
		"sub":  strconv.FormatUint(uint64(userID), 10),
		"role": string(role),
		"iss":  TokenIssuer,
		"aud":  TokenAudience,
		"exp":  exp.Unix(),
		"iat":  now.Unix(),
		"nbf":  now.Unix(),
		"jti":  jti,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", TokenClaims{}, err
	}
	return signed, TokenClaims{UserID: userID, Role: role, JTI: jti, ExpiresAt: exp}, nil
}

// ParseToken verifies signature, issuer, audience and expiry, and extracts the subject.
func ParseToken(secret, tokenString string) (*TokenClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(secret), nil
	},
		jwt.WithIssuer(TokenIssuer),
		jwt.WithAudience(TokenAudience),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	sub, ok := claims["sub"].(string)
	if !ok {
		return nil, ErrInvalidToken
	}
	userID, err := strconv.ParseUint(sub, 10, 32)
	if err != nil || userID == 0 {
		return nil, ErrInvalidToken
	}

	out := &TokenClaims{UserID: uint(userID)}
	if role, ok := claims["role"].(string); ok {
		out.Role = models.Role(role)
	}
	if jti, ok := claims["jti"].(string); ok {
		out.JTI = jti
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		out.ExpiresAt = exp.Time
	}
	return out, nil
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header.
func BearerToken(c *fiber.Ctx) (string, bool) {
	parts := strings.SplitN(c.Get(fiber.HeaderAuthorization), " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || strings.TrimSpace(parts[1]) == "" {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}
