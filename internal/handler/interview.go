package handler

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ddiaz-itx/ai-interviewer/internal/documents"
	"github.com/ddiaz-itx/ai-interviewer/pkg/model"
	"github.com/ddiaz-itx/ai-interviewer/pkg/response"
)

func (h *Handler) CreateInterview(c *gin.Context) {
	var req model.CreateInterviewReq
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, err.Error())
			return
		}
	}

	iv, err := h.Service.Create(c.Request.Context(), req)
	if err != nil {
		h.handleError(c, "create interview", err)
		return
	}
	response.Created(c, iv)
}

func (h *Handler) ListInterviews(c *gin.Context) {
	var q model.ListInterviewQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	items, total, err := h.Service.List(c.Request.Context(), q)
	if err != nil {
		h.handleError(c, "list interviews", err)
		return
	}
	q.Normalize()
	response.OKWithMeta(c, items, response.NewMeta(q.Page, q.PageSize, total))
}

func (h *Handler) GetInterview(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	iv, err := h.Service.Get(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, "get interview", err)
		return
	}
	response.OK(c, iv)
}

func (h *Handler) DeleteInterview(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	if err := h.Service.Delete(c.Request.Context(), id); err != nil {
		h.handleError(c, "delete interview", err)
		return
	}
	response.Message(c, "interview deleted successfully")
}

// AnalyzeDocuments accepts either a JSON body with inline text or URLs, or a
// multipart upload with resume, role_description and job_offering files.
func (h *Handler) AnalyzeDocuments(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	var docs *model.Documents
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		docs, err = h.documentsFromUpload(c)
	} else {
		var req model.AnalyzeDocumentsReq
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, err.Error())
			return
		}
		docs, err = h.Documents.Resolve(c.Request.Context(), req)
	}
	if err != nil {
		h.Logger.Sugar().Warnw("document extraction failed", "interview_id", id, "err", err)
		if isDocumentError(err) {
			h.handleError(c, "extract documents", err)
			return
		}
		response.ValidationError(c, err.Error())
		return
	}
	if docs.Resume == "" || docs.Role == "" || docs.JobOffering == "" {
		response.ValidationError(c, "resume, role description and job offering are all required")
		return
	}

	iv, err := h.Service.AnalyzeDocuments(c.Request.Context(), id, *docs)
	if err != nil {
		h.handleError(c, "analyze documents", err)
		return
	}
	response.OK(c, iv)
}

var uploadFields = []struct {
	file, text string
}{
	{"resume", "resume_text"},
	{"role_description", "role_text"},
	{"job_offering", "job_offering_text"},
}

func (h *Handler) documentsFromUpload(c *gin.Context) (*model.Documents, error) {
	texts := make([]string, len(uploadFields))
	for i, f := range uploadFields {
		fh, err := c.FormFile(f.file)
		if err != nil {
			texts[i] = strings.TrimSpace(c.PostForm(f.text))
			continue
		}
		text, err := h.readUpload(fh)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", f.file, err)
		}
		texts[i] = text
	}
	return &model.Documents{Resume: texts[0], Role: texts[1], JobOffering: texts[2]}, nil
}

func (h *Handler) readUpload(fh *multipart.FileHeader) (string, error) {
	f, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return "", err
	}
	return h.Documents.FromBytes(fh.Filename, fh.Header.Get("Content-Type"), data)
}

// AssignInterview generates the candidate link
func (h *Handler) AssignInterview(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	iv, err := h.Service.Assign(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, "assign interview", err)
		return
	}
	response.OK(c, gin.H{
		"interview":            iv,
		"candidate_link_token": iv.CandidateLinkToken,
		"expires_at":           iv.TokenExpiresAt,
	})
}

// CompleteInterview synthesizes the final report
func (h *Handler) CompleteInterview(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	iv, err := h.Service.Complete(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, "complete interview", err)
		return
	}
	response.OK(c, iv)
}

func (h *Handler) GetReport(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	iv, err := h.Service.Get(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, "get report", err)
		return
	}
	if iv.Report == nil {
		response.NotFound(c, "report not generated yet")
		return
	}
	response.OK(c, iv.Report)
}

func (h *Handler) GetMessages(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	msgs, err := h.Service.Messages(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, "list messages", err)
		return
	}
	response.OK(c, msgs)
}

func (h *Handler) GetCosts(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	costs, err := h.Service.Costs(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, "get costs", err)
		return
	}
	response.OK(c, costs)
}

func (h *Handler) GetCostStats(c *gin.Context) {
	stats, err := h.Service.CostStats(c.Request.Context())
	if err != nil {
		h.handleError(c, "get cost stats", err)
		return
	}
	response.OK(c, stats)
}

func (h *Handler) GetCacheStats(c *gin.Context) {
	stats, err := h.Service.CacheStats(c.Request.Context())
	if err != nil {
		h.handleError(c, "get cache stats", err)
		return
	}
	response.OK(c, stats)
}

func isDocumentError(err error) bool {
	return errors.Is(err, documents.ErrUnsupportedFormat) ||
		errors.Is(err, documents.ErrEmptyDocument) ||
		errors.Is(err, documents.ErrTooLarge) ||
		errors.Is(err, documents.ErrInvalidURL)
}
