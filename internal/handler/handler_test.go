package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ddiaz-itx/ai-interviewer/internal/documents"
	"github.com/ddiaz-itx/ai-interviewer/internal/interview"
	"github.com/ddiaz-itx/ai-interviewer/internal/repository"
	"github.com/ddiaz-itx/ai-interviewer/pkg/model"
)

type stubCollab struct {
	kind      model.MessageKind
	remoteErr error
	questions int
}

func (s *stubCollab) Classify(context.Context, string, string) (*model.MessageClassification, error) {
	return &model.MessageClassification{Type: s.kind, Confidence: 0.9}, nil
}

func (s *stubCollab) Evaluate(context.Context, string, string) (*model.AnswerEvaluation, error) {
	return &model.AnswerEvaluation{Score: 6, Rationale: "fine"}, nil
}

func (s *stubCollab) Assess(context.Context, model.IntegrityInput) (*model.IntegrityAssessment, error) {
	return &model.IntegrityAssessment{CheatCertainty: 10}, nil
}

func (s *stubCollab) Generate(context.Context, model.QuestionRequest) (string, error) {
	s.questions++
	return fmt.Sprintf("Question %d?", s.questions), nil
}

func (s *stubCollab) Synthesize(context.Context, model.ReportInput) (*model.FinalReport, error) {
	return &model.FinalReport{InterviewScore: 6, Summary: "ok"}, nil
}

func (s *stubCollab) Analyze(context.Context, string, string, string) (*model.MatchAnalysis, error) {
	if s.remoteErr != nil {
		return nil, s.remoteErr
	}
	return &model.MatchAnalysis{MatchScore: 7, FocusAreas: []string{"Go"}}, nil
}

func (s *stubCollab) Introduce(context.Context, string, int) (string, error) {
	return "Hello", nil
}

type testServer struct {
	router *gin.Engine
	collab *stubCollab
	now    time.Time
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	ts := &testServer{
		collab: &stubCollab{kind: model.KindAnswer},
		now:    time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	store := repository.NewMemoryStore()
	c := ts.collab
	svc := interview.NewService(store, store, interview.NewLocalLocker(), interview.Collaborators{
		Classifier: c, Evaluator: c, Integrity: c, Questions: c, Reports: c, Documents: c, Introduction: c,
	}, interview.Options{
		Now:      func() time.Time { return ts.now },
		NewToken: func() (string, error) { return "link-token", nil },
	})
	h := &Handler{
		Logger:    zap.NewNop(),
		Service:   svc,
		Documents: documents.NewExtractor(nil, "", 0),
	}

	r := gin.New()
	chat := r.Group("/chat/:token")
	chat.POST("/start", h.StartInterview)
	chat.POST("/messages", h.SendMessage)
	chat.GET("/messages", h.GetCandidateMessages)

	ivs := r.Group("/interviews")
	ivs.POST("", h.CreateInterview)
	ivs.GET("", h.ListInterviews)
	ivs.GET("/:id", h.GetInterview)
	ivs.DELETE("/:id", h.DeleteInterview)
	ivs.POST("/:id/documents", h.AnalyzeDocuments)
	ivs.POST("/:id/assign", h.AssignInterview)
	ivs.POST("/:id/complete", h.CompleteInterview)
	ivs.GET("/:id/report", h.GetReport)
	ivs.GET("/:id/messages", h.GetMessages)
	ivs.GET("/:id/costs", h.GetCosts)
	r.GET("/stats/cache", h.GetCacheStats)

	ts.router = r
	return ts
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Meta *struct {
		Total   int  `json:"total"`
		HasNext bool `json:"has_next"`
	} `json:"meta"`
}

func (ts *testServer) do(t *testing.T, method, path, body string) (int, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w.Code, env
}

const analyzeBody = `{"resume_text":"Go developer","role_text":"Backend engineer","job_offering_text":"Remote"}`

func (ts *testServer) readyInterview(t *testing.T, target int) int64 {
	t.Helper()
	code, env := ts.do(t, http.MethodPost, "/interviews", fmt.Sprintf(`{"target_questions":%d}`, target))
	require.Equal(t, http.StatusCreated, code)
	var iv model.Interview
	require.NoError(t, json.Unmarshal(env.Data, &iv))

	code, _ = ts.do(t, http.MethodPost, fmt.Sprintf("/interviews/%d/documents", iv.InterviewID), analyzeBody)
	require.Equal(t, http.StatusOK, code)
	return iv.InterviewID
}

func TestInterviewLifecycleOverHTTP(t *testing.T) {
	ts := newTestServer(t)
	id := ts.readyInterview(t, 1)
	base := fmt.Sprintf("/interviews/%d", id)

	code, env := ts.do(t, http.MethodPost, base+"/assign", "")
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), `"candidate_link_token":"link-token"`)

	code, env = ts.do(t, http.MethodPost, "/chat/link-token/start", "")
	require.Equal(t, http.StatusOK, code)
	var start model.StartInterviewRes
	require.NoError(t, json.Unmarshal(env.Data, &start))
	assert.Equal(t, "Question 1?", start.FirstQuestion)

	code, env = ts.do(t, http.MethodPost, base+"/complete", "")
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Equal(t, "INTERVIEW_INCOMPLETE", env.Error.Code)

	code, env = ts.do(t, http.MethodPost, "/chat/link-token/messages", `{"content":"an answer","telemetry":{"response_time_ms":12000}}`)
	require.Equal(t, http.StatusOK, code)
	var turn model.TurnResult
	require.NoError(t, json.Unmarshal(env.Data, &turn))
	assert.True(t, turn.InterviewComplete)

	code, env = ts.do(t, http.MethodGet, "/chat/link-token/messages", "")
	require.Equal(t, http.StatusOK, code)
	assert.NotContains(t, string(env.Data), "answer_quality_score")
	assert.NotContains(t, string(env.Data), "cheat_certainty")
	assert.Contains(t, string(env.Data), "an answer")

	code, _ = ts.do(t, http.MethodGet, base+"/report", "")
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = ts.do(t, http.MethodPost, base+"/complete", "")
	require.Equal(t, http.StatusOK, code)

	code, env = ts.do(t, http.MethodGet, base+"/report", "")
	require.Equal(t, http.StatusOK, code)
	var report model.FinalReport
	require.NoError(t, json.Unmarshal(env.Data, &report))
	assert.Equal(t, 6, report.InterviewScore)

	code, env = ts.do(t, http.MethodGet, base+"/messages", "")
	require.Equal(t, http.StatusOK, code)
	var msgs []model.Message
	require.NoError(t, json.Unmarshal(env.Data, &msgs))
	assert.Len(t, msgs, 4)
	assert.Contains(t, string(env.Data), "answer_quality_score")

	code, env = ts.do(t, http.MethodPost, "/chat/link-token/messages", `{"content":"more"}`)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "INVALID_SESSION_STATE", env.Error.Code)
}

func TestStateErrorsMapToStatus(t *testing.T) {
	ts := newTestServer(t)

	code, env := ts.do(t, http.MethodPost, "/interviews", "")
	require.Equal(t, http.StatusCreated, code)
	var iv model.Interview
	require.NoError(t, json.Unmarshal(env.Data, &iv))
	base := fmt.Sprintf("/interviews/%d", iv.InterviewID)

	code, env = ts.do(t, http.MethodPost, base+"/assign", "")
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "INVALID_STATE_TRANSITION", env.Error.Code)

	code, env = ts.do(t, http.MethodPost, base+"/documents", `{"resume_text":"only the resume"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)

	code, _ = ts.do(t, http.MethodGet, "/interviews/999", "")
	assert.Equal(t, http.StatusNotFound, code)
	code, _ = ts.do(t, http.MethodGet, "/interviews/abc", "")
	assert.Equal(t, http.StatusBadRequest, code)
	code, _ = ts.do(t, http.MethodPost, "/interviews", `{"target_questions":21}`)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestRemoteFailuresMapToGatewayErrors(t *testing.T) {
	ts := newTestServer(t)
	code, env := ts.do(t, http.MethodPost, "/interviews", "")
	require.Equal(t, http.StatusCreated, code)
	var iv model.Interview
	require.NoError(t, json.Unmarshal(env.Data, &iv))
	path := fmt.Sprintf("/interviews/%d/documents", iv.InterviewID)

	ts.collab.remoteErr = errors.New("provider unavailable")
	code, env = ts.do(t, http.MethodPost, path, analyzeBody)
	assert.Equal(t, http.StatusBadGateway, code)
	assert.Equal(t, "UPSTREAM_ERROR", env.Error.Code)

	ts.collab.remoteErr = context.DeadlineExceeded
	code, env = ts.do(t, http.MethodPost, path, analyzeBody)
	assert.Equal(t, http.StatusGatewayTimeout, code)
	assert.Equal(t, "UPSTREAM_TIMEOUT", env.Error.Code)

	// client went away while the analyzer was running
	ts.collab.remoteErr = context.Canceled
	code, _ = ts.do(t, http.MethodPost, path, analyzeBody)
	assert.Equal(t, 499, code)
}

func TestCandidateTokenErrors(t *testing.T) {
	ts := newTestServer(t)
	id := ts.readyInterview(t, 3)
	code, _ := ts.do(t, http.MethodPost, fmt.Sprintf("/interviews/%d/assign", id), "")
	require.Equal(t, http.StatusOK, code)

	code, _ = ts.do(t, http.MethodGet, "/chat/unknown/messages", "")
	assert.Equal(t, http.StatusNotFound, code)

	code, env := ts.do(t, http.MethodPost, "/chat/link-token/messages", `{"content":""}`)
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)

	ts.now = ts.now.Add(interview.DefaultLinkTTL)
	code, env = ts.do(t, http.MethodPost, "/chat/link-token/start", "")
	assert.Equal(t, http.StatusGone, code)
	assert.Equal(t, "GONE", env.Error.Code)
}

func TestListInterviewsPaging(t *testing.T) {
	ts := newTestServer(t)
	for i := 0; i < 3; i++ {
		code, _ := ts.do(t, http.MethodPost, "/interviews", "")
		require.Equal(t, http.StatusCreated, code)
	}

	code, env := ts.do(t, http.MethodGet, "/interviews?page=1&page_size=2", "")
	require.Equal(t, http.StatusOK, code)
	var items []model.InterviewListItem
	require.NoError(t, json.Unmarshal(env.Data, &items))
	assert.Len(t, items, 2)
	require.NotNil(t, env.Meta)
	assert.Equal(t, 3, env.Meta.Total)
	assert.True(t, env.Meta.HasNext)

	code, _ = ts.do(t, http.MethodDelete, "/interviews/1", "")
	require.Equal(t, http.StatusOK, code)
	code, _ = ts.do(t, http.MethodGet, "/interviews/1/costs", "")
	assert.Equal(t, http.StatusNotFound, code)

	code, env = ts.do(t, http.MethodGet, "/stats/cache", "")
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"size":0,"hits":0,"misses":0,"hit_rate":0}`, string(env.Data))
}

func multipartBody(t *testing.T, files map[string]string, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for name, content := range files {
		parts := strings.SplitN(content, "|", 2)
		fw, err := mw.CreateFormFile(name, parts[0])
		require.NoError(t, err)
		_, err = fw.Write([]byte(parts[1]))
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestAnalyzeDocumentsMultipart(t *testing.T) {
	ts := newTestServer(t)
	code, env := ts.do(t, http.MethodPost, "/interviews", "")
	require.Equal(t, http.StatusCreated, code)
	var iv model.Interview
	require.NoError(t, json.Unmarshal(env.Data, &iv))
	path := fmt.Sprintf("/interviews/%d/documents", iv.InterviewID)

	body, ct := multipartBody(t, map[string]string{
		"resume":           "cv.pdf|%PDF-1.4 binary",
		"role_description": "role.txt|Backend engineer",
	}, map[string]string{"job_offering_text": "Remote"})
	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", ct)
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)

	body, ct = multipartBody(t, map[string]string{
		"resume":           "cv.txt|Go developer with five years of experience",
		"role_description": "role.html|<html><body><h1>Backend engineer</h1><script>x()</script></body></html>",
	}, map[string]string{"job_offering_text": "Remote"})
	req = httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", ct)
	w = httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var out envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	var got model.Interview
	require.NoError(t, json.Unmarshal(out.Data, &got))
	assert.Equal(t, model.StatusReady, got.Status)
}
