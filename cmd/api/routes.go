package main

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ddiaz-itx/ai-interviewer/internal/metrics"
	"github.com/ddiaz-itx/ai-interviewer/pkg/response"
)

func (app *application) routes() http.Handler {
	if app.Config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestID())
	r.Use(app.requestLogger())
	r.Use(metrics.Middleware())
	r.Use(app.cors())

	r.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	v1 := r.Group("/api/v1")
	{
		v1.POST("/login", app.rateLimit(), app.Handler.Login)
		v1.POST("/tokens/renew", app.rateLimit(), app.Handler.RefreshToken)
	}

	// candidate routes, authorised by the link token
	chat := v1.Group("/chat/:token")
	chat.Use(app.rateLimit())
	{
		chat.POST("/start", app.Handler.StartInterview)
		chat.POST("/messages", app.Handler.SendMessage)
		chat.GET("/messages", app.Handler.GetCandidateMessages)
	}

	admin := v1.Group("/")
	admin.Use(app.AdminAuthMiddleware(), app.rateLimit())
	{
		admin.GET("/me", app.Handler.Me)

		admin.POST("/interviews", app.Handler.CreateInterview)
		admin.GET("/interviews", app.Handler.ListInterviews)
		admin.GET("/interviews/:id", app.Handler.GetInterview)
		admin.DELETE("/interviews/:id", app.Handler.DeleteInterview)
		admin.POST("/interviews/:id/documents", app.Handler.AnalyzeDocuments)
		admin.POST("/interviews/:id/assign", app.Handler.AssignInterview)
		admin.POST("/interviews/:id/complete", app.Handler.CompleteInterview)
		admin.GET("/interviews/:id/report", app.Handler.GetReport)
		admin.GET("/interviews/:id/messages", app.Handler.GetMessages)
		admin.GET("/interviews/:id/costs", app.Handler.GetCosts)

		admin.GET("/stats/costs", app.Handler.GetCostStats)
		admin.GET("/stats/cache", app.Handler.GetCacheStats)
	}

	return r
}
