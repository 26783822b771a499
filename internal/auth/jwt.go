package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid or expired token")

type JWTMaker struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewJWTMaker(secret string, accessTTL, refreshTTL time.Duration) *JWTMaker {
	return &JWTMaker{secret: []byte(secret), accessTTL: accessTTL, refreshTTL: refreshTTL}
}

// CreateToken signs a token of the given type. Refresh tokens reuse the
// session id of the access token they were issued with.
func (m *JWTMaker) CreateToken(username, tokenType, sessionID string) (string, *AdminClaims, error) {
	ttl := m.accessTTL
	if tokenType == RefreshToken {
		ttl = m.refreshTTL
	}
	claims, err := NewAdminClaims(username, tokenType, ttl, sessionID)
	if err != nil {
		return "", nil, err
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", nil, fmt.Errorf("sign token: %w", err)
	}
	return signed, claims, nil
}

// VerifyToken parses tokenStr and checks that it is of the expected type.
func (m *JWTMaker) VerifyToken(tokenStr, tokenType string) (*AdminClaims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &AdminClaims{}, func(token *jwt.Token) (any, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	claims, ok := token.Claims.(*AdminClaims)
	if !ok || !token.Valid || claims.TokenType != tokenType {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
