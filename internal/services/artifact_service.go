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
	"github.com/studykit/quiz-service/internal/models"
	"github.com/studykit/quiz-service/internal/repositories"
	"github.com/studykit/quiz-service/internal/utils"
)

const artifactCacheTTL = 15 * time.Minute

// ArtifactService manages saved quizzes. Saving a quiz is what makes attempt
// recording possible: sessions over unsaved quizzes are never persisted.
type ArtifactService interface {
	Create(ctx context.Context, req *CreateArtifactRequest, userID string) (*models.QuizArtifact, error)
	GetByID(ctx context.Context, id string) (*models.QuizArtifact, error)
	GetQuiz(ctx context.Context, id string) (*models.Quiz, error)
	List(ctx context.Context, filters repositories.ArtifactFilters) ([]*models.QuizArtifact, int64, error)
	Delete(ctx context.Context, id string) error
}

type CreateArtifactRequest struct {
	Quiz *models.Quiz `json:"quiz" validate:"required"`
}

type artifactService struct {
	repo      repositories.Repository
	cache     cache.CacheService
	logger    *slog.Logger
	validator *utils.Validator
}

func NewArtifactService(repo repositories.Repository, cacheService cache.CacheService, logger *slog.Logger, validator *utils.Validator) ArtifactService {
	return &artifactService{
		repo:      repo,
		cache:     cacheService,
		logger:    logger,
		validator: validator,
	}
}

func (s *artifactService) Create(ctx context.Context, req *CreateArtifactRequest, userID string) (*models.QuizArtifact, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	if err := utils.ValidateQuizStructure(req.Quiz); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	quizData, err := json.Marshal(req.Quiz)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize quiz: %w", err)
	}
	topics, err := json.Marshal(req.Quiz.Topics)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize topics: %w", err)
	}

	artifact := &models.QuizArtifact{
		ID:         uuid.NewString(),
		UserID:     userID,
		Title:      req.Quiz.Title,
		Difficulty: req.Quiz.Difficulty,
		Topics:     datatypes.JSON(topics),
		QuizData:   datatypes.JSON(quizData),
	}

	if err := s.repo.Artifact().Create(ctx, artifact); err != nil {
		return nil, fmt.Errorf("failed to create artifact: %w", err)
	}

	s.logger.Info("Quiz artifact saved",
		"artifact_id", artifact.ID,
		"user_id", userID,
		"questions", len(req.Quiz.Questions))

	return artifact, nil
}

func (s *artifactService) GetByID(ctx context.Context, id string) (*models.QuizArtifact, error) {
	cacheKey := artifactCacheKey(id)
	var cached models.QuizArtifact
	if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
		return &cached, nil
	}

	artifact, err := s.repo.Artifact().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrArtifactNotFound
		}
		return nil, fmt.Errorf("failed to get artifact: %w", err)
	}

	count, err := s.repo.Attempt().CountByArtifact(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to count attempts: %w", err)
	}
	artifact.AttemptCount = int(count)

	if err := s.cache.Set(ctx, cacheKey, artifact, artifactCacheTTL); err != nil {
		s.logger.Warn("Failed to cache artifact", "artifact_id", id, "error", err)
	}
	return artifact, nil
}

// GetQuiz loads and decodes the stored quiz definition.
func (s *artifactService) GetQuiz(ctx context.Context, id string) (*models.Quiz, error) {
	artifact, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	var quiz models.Quiz
	if err := json.Unmarshal(artifact.QuizData, &quiz); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrArtifactMalformed, err)
	}
	return &quiz, nil
}

func (s *artifactService) List(ctx context.Context, filters repositories.ArtifactFilters) ([]*models.QuizArtifact, int64, error) {
	artifacts, total, err := s.repo.Artifact().List(ctx, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list artifacts: %w", err)
	}
	return artifacts, total, nil
}

func (s *artifactService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Artifact().Delete(ctx, id); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrArtifactNotFound
		}
		return fmt.Errorf("failed to delete artifact: %w", err)
	}

	if err := s.cache.Delete(ctx, artifactCacheKey(id)); err != nil {
		s.logger.Warn("Failed to invalidate artifact cache", "artifact_id", id, "error", err)
	}

	s.logger.Info("Quiz artifact deleted", "artifact_id", id)
	return nil
}

func artifactCacheKey(id string) string {
	return "artifact:" + id
}
