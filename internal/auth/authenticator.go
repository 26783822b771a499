package auth

import (
	"crypto/subtle"
	"errors"

	"github.com/ddiaz-itx/ai-interviewer/pkg"
	"github.com/ddiaz-itx/ai-interviewer/pkg/model"
)

var ErrInvalidCredentials = errors.New("invalid username or password")

// Authenticator checks the configured admin credentials and issues tokens.
type Authenticator struct {
	username     string
	passwordHash string
	maker        *JWTMaker
}

func NewAuthenticator(username, passwordHash string, maker *JWTMaker) *Authenticator {
	return &Authenticator{username: username, passwordHash: passwordHash, maker: maker}
}

func (a *Authenticator) Login(username, password string) (*model.LoginRes, error) {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(a.username)) == 1
	// always run bcrypt so a wrong username costs the same as a wrong password
	pwErr := pkg.ComparePassword(a.passwordHash, password)
	if !userOK || pwErr != nil {
		return nil, ErrInvalidCredentials
	}
	return a.issue(username, "")
}

// Refresh exchanges a valid refresh token for a new token pair in the same session.
func (a *Authenticator) Refresh(refreshToken string) (*model.LoginRes, error) {
	claims, err := a.maker.VerifyToken(refreshToken, RefreshToken)
	if err != nil {
		return nil, err
	}
	if claims.Username != a.username {
		return nil, ErrInvalidToken
	}
	return a.issue(claims.Username, claims.SessionID)
}

func (a *Authenticator) Verify(accessToken string) (*AdminClaims, error) {
	return a.maker.VerifyToken(accessToken, AccessToken)
}

func (a *Authenticator) issue(username, sessionID string) (*model.LoginRes, error) {
	access, accessClaims, err := a.maker.CreateToken(username, AccessToken, sessionID)
	if err != nil {
		return nil, err
	}
	refresh, refreshClaims, err := a.maker.CreateToken(username, RefreshToken, accessClaims.SessionID)
	if err != nil {
		return nil, err
	}
	return &model.LoginRes{
		AccessToken:           access,
		RefreshToken:          refresh,
		TokenType:             "Bearer",
		AccessTokenExpiresAt:  accessClaims.ExpiresAt.Time,
		RefreshTokenExpiresAt: refreshClaims.ExpiresAt.Time,
	}, nil
}
