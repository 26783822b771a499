package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	AccessToken  = "access"
	RefreshToken = "refresh"
)

type AdminClaims struct {
	Username  string `json:"username"`
	TokenType string `json:"token_type"`
	SessionID string `json:"session_id"`
	jwt.RegisteredClaims
}

func NewAdminClaims(username, tokenType string, duration time.Duration, sessionID string) (*AdminClaims, error) {
	tokenID, err := uuid.NewRandom()
	if err != nil {
		return nil, fmt.Errorf("error generating token iD: %w", err)
	}

	finalSessionID := sessionID
	if finalSessionID == "" {
		finalSessionID = tokenID.String()
	}

	now := time.Now()
	return &AdminClaims{
		Username:  username,
		TokenType: tokenType,
		SessionID: finalSessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        tokenID.String(),
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(duration)),
		},
	}, nil
}
