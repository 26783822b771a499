package handler

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ddiaz-itx/ai-interviewer/internal/auth"
	"github.com/ddiaz-itx/ai-interviewer/internal/documents"
	"github.com/ddiaz-itx/ai-interviewer/internal/interview"
)

const ClaimsKey = "claims"

type Handler struct {
	Logger    *zap.Logger
	Service   *interview.Service
	Auth      *auth.Authenticator
	Documents *documents.Extractor
}

// GetClaimsFromContext retrieves the admin claims set by the auth middleware
func (h *Handler) GetClaimsFromContext(c *gin.Context) *auth.AdminClaims {
	v, exists := c.Get(ClaimsKey)
	if !exists {
		return nil
	}
	claims, ok := v.(*auth.AdminClaims)
	if !ok {
		return nil
	}
	return claims
}

func parseID(c *gin.Context) (int64, error) {
	idStr := c.Param("id")
	if idStr == "" {
		return 0, fmt.Errorf("missing id")
	}
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id format")
	}
	return id, nil
}
