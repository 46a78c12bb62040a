package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/studykit/quiz-service/internal/services"
	"github.com/studykit/quiz-service/internal/utils"
)

type HandlerManager struct {
	sessionHandler  *SessionHandler
	artifactHandler *ArtifactHandler
	attemptHandler  *AttemptHandler
}

func NewHandlerManager(
	sessionService services.SessionService,
	artifactService services.ArtifactService,
	attemptService services.AttemptService,
	exportService services.ExportService,
	logger utils.Logger,
) *HandlerManager {
	return &HandlerManager{
		sessionHandler:  NewSessionHandler(sessionService, logger),
		artifactHandler: NewArtifactHandler(artifactService, logger),
		attemptHandler:  NewAttemptHandler(attemptService, exportService, logger),
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	// Health check endpoint
	router.GET("/health", HealthCheck)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Artifact routes
		artifacts := v1.Group("/artifacts")
		{
			artifacts.POST("", hm.artifactHandler.CreateArtifact)
			artifacts.GET("", hm.artifactHandler.ListArtifacts)
			artifacts.GET("/:id", hm.artifactHandler.GetArtifact)
			artifacts.DELETE("/:id", hm.artifactHandler.DeleteArtifact)
		}

		// Session routes
		sessions := v1.Group("/sessions")
		{
			sessions.POST("", hm.sessionHandler.CreateSession)
			sessions.POST("/review", hm.sessionHandler.CreateReviewSession)
			sessions.GET("/:id", hm.sessionHandler.GetSession)
			sessions.GET("/:id/results", hm.sessionHandler.GetResults)

			// Quiz-taking operations
			sessions.POST("/:id/start", hm.sessionHandler.StartSession)
			sessions.POST("/:id/answer", hm.sessionHandler.SubmitAnswer)
			sessions.POST("/:id/submit", hm.sessionHandler.SubmitSelection)
			sessions.POST("/:id/reveal", hm.sessionHandler.RevealAnswer)
			sessions.POST("/:id/assess", hm.sessionHandler.SetSelfAssessment)
			sessions.POST("/:id/advance", hm.sessionHandler.AdvanceSession)
			sessions.POST("/:id/retake", hm.sessionHandler.RetakeSession)
		}

		// Attempt history routes
		attempts := v1.Group("/attempts")
		{
			attempts.GET("", hm.attemptHandler.ListAttempts)
			attempts.GET("/export", hm.attemptHandler.ExportAttempts)
			attempts.GET("/:id", hm.attemptHandler.GetAttempt)
		}
	}
}
