package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/studykit/quiz-service/internal/cache"
	"github.com/studykit/quiz-service/internal/events"
	"github.com/studykit/quiz-service/internal/models"
	"github.com/studykit/quiz-service/internal/repositories"
	"github.com/studykit/quiz-service/internal/session"
)

const recordTimeout = 10 * time.Second

// AttemptRecorder persists completed quiz runs. Recording is best effort: a
// storage failure is logged and swallowed so the learner still sees their
// results, and each run is recorded at most once even if completion fires
// twice.
type AttemptRecorder interface {
	RecordCompletion(s *session.Session)
}

type attemptRecorder struct {
	repo      repositories.Repository
	cache     cache.CacheService
	publisher events.EventPublisher
	logger    *slog.Logger

	// done is signalled after each record attempt finishes. Tests use it to
	// wait for the async write without sleeping.
	done chan struct{}
}

func NewAttemptRecorder(repo repositories.Repository, cacheService cache.CacheService, publisher events.EventPublisher, logger *slog.Logger) AttemptRecorder {
	return &attemptRecorder{
		repo:      repo,
		cache:     cacheService,
		publisher: publisher,
		logger:    logger,
		done:      make(chan struct{}, 16),
	}
}

// RecordCompletion captures the finished session and writes the attempt in
// the background. Sessions without a saved artifact are skipped: there is no
// row to attach the attempt to.
func (r *attemptRecorder) RecordCompletion(s *session.Session) {
	if s.ArtifactID == "" {
		return
	}

	data, err := s.AttemptData()
	if err != nil {
		r.logger.Warn("Skipping attempt recording", "session_id", s.ID, "error", err)
		return
	}

	// Claim the guard before the write starts, not after it succeeds. A slow
	// insert must not let a second completion double-record.
	if !s.MarkPersisted() {
		r.logger.Debug("Attempt already recorded for this run", "session_id", s.ID)
		return
	}

	go func() {
		defer r.signal()

		ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
		defer cancel()

		if err := r.record(ctx, data); err != nil {
			r.logger.Error("Failed to record quiz attempt",
				"artifact_id", data.ArtifactID,
				"user_id", data.UserID,
				"error", err)
		}
	}()
}

func (r *attemptRecorder) record(ctx context.Context, data *session.AttemptData) error {
	attempt, err := buildAttempt(data)
	if err != nil {
		return err
	}

	if err := r.repo.Attempt().Create(ctx, attempt); err != nil {
		return fmt.Errorf("failed to insert attempt: %w", err)
	}

	r.logger.Info("Quiz attempt recorded",
		"attempt_id", attempt.ID,
		"artifact_id", attempt.ArtifactID,
		"score", attempt.Score,
		"total_questions", attempt.TotalQuestions)

	r.invalidate(ctx, attempt.ArtifactID)

	event := events.NewAttemptCompletedEvent(events.AttemptCompletedEvent{
		AttemptID:        attempt.ID,
		ArtifactID:       attempt.ArtifactID,
		UserID:           attempt.UserID,
		Score:            attempt.Score,
		TotalQuestions:   attempt.TotalQuestions,
		TimeTakenSeconds: attempt.TimeTakenSeconds,
	})
	if err := r.publisher.PublishAttemptEvent(ctx, event); err != nil {
		// Event delivery is not part of the persistence contract.
		r.logger.Warn("Failed to publish attempt event", "attempt_id", attempt.ID, "error", err)
	}
	return nil
}

func buildAttempt(data *session.AttemptData) (*models.QuizAttempt, error) {
	quizData, err := json.Marshal(data.Quiz)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize quiz snapshot: %w", err)
	}

	wireAnswers := make(map[string]any, len(data.Answers))
	for id, answer := range data.Answers {
		wireAnswers[id] = answer.Wire()
	}
	userAnswers, err := json.Marshal(wireAnswers)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize answers: %w", err)
	}

	assessments, err := json.Marshal(data.Assessments)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize self-assessments: %w", err)
	}

	return &models.QuizAttempt{
		ID:               uuid.NewString(),
		ArtifactID:       data.ArtifactID,
		UserID:           data.UserID,
		QuizData:         datatypes.JSON(quizData),
		UserAnswers:      datatypes.JSON(userAnswers),
		SelfAssessments:  datatypes.JSON(assessments),
		Score:            data.Score,
		TotalQuestions:   data.TotalQuestions,
		TimeTakenSeconds: data.TimeTakenSeconds,
		StartedAt:        data.StartedAt,
		CompletedAt:      data.CompletedAt,
	}, nil
}

// invalidate drops cache entries the new attempt makes stale: every attempt
// list (lists without an artifact filter exist, so the whole namespace goes)
// and the artifact itself, whose cached attempt count is now off by one.
func (r *attemptRecorder) invalidate(ctx context.Context, artifactID string) {
	if err := r.cache.DeletePattern(ctx, "attempts:*"); err != nil {
		r.logger.Warn("Failed to invalidate attempt list cache", "artifact_id", artifactID, "error", err)
	}
	if err := r.cache.Delete(ctx, artifactCacheKey(artifactID)); err != nil {
		r.logger.Warn("Failed to invalidate artifact cache", "artifact_id", artifactID, "error", err)
	}
}

func (r *attemptRecorder) signal() {
	select {
	case r.done <- struct{}{}:
	default:
	}
}

// waitForRecord blocks until a background record attempt finishes.
func (r *attemptRecorder) waitForRecord(timeout time.Duration) bool {
	select {
	case <-r.done:
		return true
	case <-time.After(timeout):
		return false
	}
}
