package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ddiaz-itx/ai-interviewer/internal/agents"
	"github.com/ddiaz-itx/ai-interviewer/internal/documents"
	"github.com/ddiaz-itx/ai-interviewer/internal/interview"
	"github.com/ddiaz-itx/ai-interviewer/pkg/response"
)

// handleError maps domain errors to HTTP responses. Anything unrecognised is
// logged and reported as a 500 without internal details.
func (h *Handler) handleError(c *gin.Context, op string, err error) {
	var ste *interview.StateTransitionError
	switch {
	case errors.As(err, &ste):
		if ste.Kind == interview.PreconditionNotMet {
			response.Error(c, http.StatusUnprocessableEntity, "PRECONDITION_NOT_MET", ste.Error())
			return
		}
		response.Error(c, http.StatusConflict, "INVALID_STATE_TRANSITION", ste.Error())
	case errors.Is(err, interview.ErrExpiredToken):
		response.Gone(c, interview.ErrExpiredToken.Error())
	case errors.Is(err, interview.ErrInvalidToken):
		response.NotFound(c, interview.ErrInvalidToken.Error())
	case errors.Is(err, interview.ErrNotFound):
		response.NotFound(c, interview.ErrNotFound.Error())
	case errors.Is(err, interview.ErrInvalidSessionState):
		response.Error(c, http.StatusConflict, "INVALID_SESSION_STATE", err.Error())
	case errors.Is(err, interview.ErrNoActiveQuestion):
		response.Error(c, http.StatusConflict, "NO_ACTIVE_QUESTION", err.Error())
	case errors.Is(err, interview.ErrConflict):
		response.Conflict(c, interview.ErrConflict.Error())
	case errors.Is(err, interview.ErrInterviewIncomplete):
		response.Error(c, http.StatusUnprocessableEntity, "INTERVIEW_INCOMPLETE", err.Error())
	case errors.Is(err, interview.ErrInvalidInput), errors.Is(err, agents.ErrInvalidInput):
		response.ValidationError(c, err.Error())
	case errors.Is(err, documents.ErrUnsupportedFormat):
		response.Error(c, http.StatusUnsupportedMediaType, "UNSUPPORTED_FORMAT", err.Error())
	case errors.Is(err, documents.ErrEmptyDocument),
		errors.Is(err, documents.ErrTooLarge),
		errors.Is(err, documents.ErrInvalidURL):
		response.BadRequest(c, err.Error())
	case errors.Is(err, context.Canceled):
		h.Logger.Sugar().Infow(op+" canceled by client", "err", err)
		c.Status(499)
	case errors.Is(err, interview.ErrRemoteCallTimeout):
		h.Logger.Sugar().Warnw(op+" timed out", "err", err)
		response.GatewayTimeout(c, "the AI service took too long to respond, please try again")
	case errors.Is(err, interview.ErrRemoteCall):
		h.Logger.Sugar().Errorw(op+" remote call failed", "err", err)
		response.BadGateway(c, "the AI service is unavailable, please try again")
	default:
		h.Logger.Sugar().Errorw(op+" failed", "err", err)
		response.InternalError(c, "")
	}
}
