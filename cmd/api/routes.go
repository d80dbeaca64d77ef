package main

import (
	"net/http"

	"github.com/SeptianSamdany/interview-prep-ai/internal/metrics"
	"github.com/SeptianSamdany/interview-prep-ai/internal/ratelimit"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (app *application) routes() http.Handler {
	if app.Config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(app.RequestID())
	r.Use(app.AccessLog())
	r.Use(app.CORS())
	r.Use(metrics.Middleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	h := app.Handler
	v1 := r.Group("/api/v1")
	protected := v1.Group("/")
	protected.Use(app.AuthMiddleware())
	{
		// every route that calls the model shares one per-user budget
		aiLimit := app.aiLimit()

		aiRoutes := protected.Group("/ai", aiLimit...)
		aiRoutes.POST("/generate-questions", h.GenerateQuestions)
		aiRoutes.POST("/generate-explanation", h.GenerateExplanation)

		// session routes
		protected.POST("/sessions", append(aiLimit, h.CreateSession)...)
		protected.GET("/sessions/my-sessions", h.MySessions)
		protected.GET("/sessions/:id", h.GetSession)
		protected.DELETE("/sessions/:id", h.DeleteSession)
		protected.POST("/sessions/:id/load-more", append(aiLimit, h.LoadMore)...)

		// question routes
		protected.POST("/questions/add", h.AddQuestions)
		protected.POST("/questions/:id/pin", h.TogglePin)
		protected.POST("/questions/:id/note", h.UpdateNote)
	}

	return r
}

// aiLimit returns the limiter middleware, or nothing when limiting is off.
func (app *application) aiLimit() []gin.HandlerFunc {
	if app.Limiter == nil {
		return nil
	}
	return []gin.HandlerFunc{ratelimit.Middleware(app.Limiter, "ai", app.Handler.UserID, app.Logger)}
}
