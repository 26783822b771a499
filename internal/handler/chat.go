package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/ddiaz-itx/ai-interviewer/pkg/model"
	"github.com/ddiaz-itx/ai-interviewer/pkg/response"
)

// Candidate endpoints are addressed by link token only.

func (h *Handler) StartInterview(c *gin.Context) {
	res, err := h.Service.Start(c.Request.Context(), c.Param("token"))
	if err != nil {
		h.handleError(c, "start interview", err)
		return
	}
	response.OK(c, res)
}

func (h *Handler) SendMessage(c *gin.Context) {
	var req model.CandidateMessageReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err.Error())
		return
	}

	res, err := h.Service.SendMessage(c.Request.Context(), c.Param("token"), req)
	if err != nil {
		h.handleError(c, "send message", err)
		return
	}
	response.OK(c, res)
}

func (h *Handler) GetCandidateMessages(c *gin.Context) {
	msgs, err := h.Service.CandidateMessages(c.Request.Context(), c.Param("token"))
	if err != nil {
		h.handleError(c, "list candidate messages", err)
		return
	}
	response.OK(c, msgs)
}
