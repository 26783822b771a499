package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/ddiaz-itx/ai-interviewer/internal/auth"
	"github.com/ddiaz-itx/ai-interviewer/pkg/model"
	"github.com/ddiaz-itx/ai-interviewer/pkg/response"
)

// Login verifies the admin credentials and returns a token pair
func (h *Handler) Login(c *gin.Context) {
	var req model.LoginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Logger.Sugar().Warnw("login bad request", "err", err)
		response.BadRequest(c, err.Error())
		return
	}

	res, err := h.Auth.Login(req.Username, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			h.Logger.Sugar().Warnw("login rejected", "username", req.Username)
			response.Unauthorized(c, "invalid credentials")
			return
		}
		h.Logger.Sugar().Errorw("error creating token", "err", err)
		response.InternalError(c, "could not generate token")
		return
	}
	response.OK(c, res)
}

func (h *Handler) RefreshToken(c *gin.Context) {
	var req model.RefreshReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	res, err := h.Auth.Refresh(req.RefreshToken)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidToken) {
			response.Unauthorized(c, err.Error())
			return
		}
		h.Logger.Sugar().Errorw("error refreshing token", "err", err)
		response.InternalError(c, "could not generate token")
		return
	}
	response.OK(c, res)
}

// Me returns the authenticated admin
func (h *Handler) Me(c *gin.Context) {
	claims := h.GetClaimsFromContext(c)
	if claims == nil {
		response.Unauthorized(c, "")
		return
	}
	response.OK(c, gin.H{
		"username":   claims.Username,
		"session_id": claims.SessionID,
		"expires_at": claims.ExpiresAt.Time,
	})
}
