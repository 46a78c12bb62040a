package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/studykit/quiz-service/internal/services"
	"github.com/studykit/quiz-service/internal/session"
	"github.com/studykit/quiz-service/internal/utils"
)

type SessionHandler struct {
	BaseHandler
	sessionService services.SessionService
}

func NewSessionHandler(sessionService services.SessionService, logger utils.Logger) *SessionHandler {
	return &SessionHandler{
		BaseHandler:    NewBaseHandler(logger),
		sessionService: sessionService,
	}
}

// CreateSession creates a quiz session over a saved artifact or an inline quiz
func (h *SessionHandler) CreateSession(c *gin.Context) {
	var req services.CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	snap, err := h.sessionService.Create(c.Request.Context(), &req, CurrentUserID(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, snap)
}

// CreateReviewSession opens a read-only walkthrough of a recorded attempt
func (h *SessionHandler) CreateReviewSession(c *gin.Context) {
	var req services.CreateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	snap, err := h.sessionService.CreateReview(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, snap)
}

// GetSession returns the current session state
func (h *SessionHandler) GetSession(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	snap, err := h.sessionService.Get(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, snap)
}

// StartSession moves a session from the welcome screen to the first question
func (h *SessionHandler) StartSession(c *gin.Context) {
	h.applySessionOp(c, h.sessionService.Start)
}

// SubmitAnswer records an answer on the current question
func (h *SessionHandler) SubmitAnswer(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	var req services.AnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	snap, err := h.sessionService.Answer(c.Request.Context(), id, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, snap)
}

// SubmitSelection locks in a multi-select answer
func (h *SessionHandler) SubmitSelection(c *gin.Context) {
	h.applySessionOp(c, h.sessionService.SubmitSelection)
}

// RevealAnswer shows the reference answer for a free-text question
func (h *SessionHandler) RevealAnswer(c *gin.Context) {
	h.applySessionOp(c, h.sessionService.RevealAnswer)
}

// SetSelfAssessment records the learner's own grade for a free-text answer
func (h *SessionHandler) SetSelfAssessment(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	var req services.SelfAssessmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	snap, err := h.sessionService.SetSelfAssessment(c.Request.Context(), id, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, snap)
}

// AdvanceSession moves to the next question or to results
func (h *SessionHandler) AdvanceSession(c *gin.Context) {
	h.applySessionOp(c, h.sessionService.Advance)
}

// RetakeSession resets the session for a fresh run
func (h *SessionHandler) RetakeSession(c *gin.Context) {
	h.applySessionOp(c, h.sessionService.Retake)
}

// GetResults returns the final score and per-question breakdown
func (h *SessionHandler) GetResults(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	results, err := h.sessionService.Results(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, results)
}

func (h *SessionHandler) applySessionOp(c *gin.Context, op func(ctx context.Context, id string) (session.Snapshot, error)) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	snap, err := op(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, snap)
}
