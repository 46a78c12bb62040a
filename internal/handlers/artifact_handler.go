package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/studykit/quiz-service/internal/models"
	"github.com/studykit/quiz-service/internal/repositories"
	"github.com/studykit/quiz-service/internal/services"
	"github.com/studykit/quiz-service/internal/utils"
)

type ArtifactHandler struct {
	BaseHandler
	artifactService services.ArtifactService
}

func NewArtifactHandler(artifactService services.ArtifactService, logger utils.Logger) *ArtifactHandler {
	return &ArtifactHandler{
		BaseHandler:     NewBaseHandler(logger),
		artifactService: artifactService,
	}
}

// CreateArtifact saves a generated quiz so sessions over it can be recorded
func (h *ArtifactHandler) CreateArtifact(c *gin.Context) {
	var req services.CreateArtifactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	artifact, err := h.artifactService.Create(c.Request.Context(), &req, CurrentUserID(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, artifact)
}

// GetArtifact retrieves a saved quiz by ID
func (h *ArtifactHandler) GetArtifact(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	artifact, err := h.artifactService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, artifact)
}

// ListArtifacts lists saved quizzes for the caller
func (h *ArtifactHandler) ListArtifacts(c *gin.Context) {
	filters := repositories.ArtifactFilters{
		UserID:    CurrentUserID(c),
		Search:    c.Query("search"),
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
		Limit:     parseIntQuery(c, "limit", 20),
		Offset:    parseIntQuery(c, "offset", 0),
	}
	if difficulty := c.Query("difficulty"); difficulty != "" {
		d := models.DifficultyLevel(difficulty)
		if !d.Valid() {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Message: "Invalid difficulty",
				Details: "must be easy, medium, hard, or mixed",
			})
			return
		}
		filters.Difficulty = &d
	}

	artifacts, total, err := h.artifactService.List(c.Request.Context(), filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"artifacts": artifacts,
		"total":     total,
		"limit":     filters.Limit,
		"offset":    filters.Offset,
	})
}

// DeleteArtifact removes a saved quiz; recorded attempts stay
func (h *ArtifactHandler) DeleteArtifact(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	if err := h.artifactService.Delete(c.Request.Context(), id); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Artifact deleted",
	})
}

func parseIntQuery(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return fallback
	}
	return value
}
