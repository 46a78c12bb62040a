package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/studykit/quiz-service/internal/repositories"
	"github.com/studykit/quiz-service/internal/services"
	"github.com/studykit/quiz-service/internal/utils"
)

type AttemptHandler struct {
	BaseHandler
	attemptService services.AttemptService
	exportService  services.ExportService
}

func NewAttemptHandler(attemptService services.AttemptService, exportService services.ExportService, logger utils.Logger) *AttemptHandler {
	return &AttemptHandler{
		BaseHandler:    NewBaseHandler(logger),
		attemptService: attemptService,
		exportService:  exportService,
	}
}

// ListAttempts returns recorded attempt history, newest first
func (h *AttemptHandler) ListAttempts(c *gin.Context) {
	filters := h.filtersFromQuery(c)

	summaries, total, err := h.attemptService.List(c.Request.Context(), filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"attempts": summaries,
		"total":    total,
		"limit":    filters.Limit,
		"offset":   filters.Offset,
	})
}

// GetAttempt returns one recorded attempt with its question breakdown
func (h *AttemptHandler) GetAttempt(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	detail, err := h.attemptService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, detail)
}

// ExportAttempts streams attempt history as CSV or XLSX
func (h *AttemptHandler) ExportAttempts(c *gin.Context) {
	format := c.DefaultQuery("format", services.FormatXLSX)
	filters := h.filtersFromQuery(c)
	// Exports are unpaginated.
	filters.Limit = 0
	filters.Offset = 0

	result, err := h.exportService.ExportAttempts(c.Request.Context(), filters, format)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+result.FileName+`"`)
	c.Data(http.StatusOK, result.ContentType, result.Data)
}

func (h *AttemptHandler) filtersFromQuery(c *gin.Context) repositories.AttemptFilters {
	return repositories.AttemptFilters{
		ArtifactID: c.Query("artifact_id"),
		UserID:     CurrentUserID(c),
		Limit:      parseIntQuery(c, "limit", 20),
		Offset:     parseIntQuery(c, "offset", 0),
	}
}
