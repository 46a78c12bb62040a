package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/studykit/quiz-service/internal/models"
)

// ErrNotFound is the storage-agnostic missing-row sentinel. Implementations
// translate their driver's not-found error into this one.
var ErrNotFound = errors.New("record not found")

func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// ===== SHARED FILTER STRUCTS =====

type ArtifactFilters struct {
	UserID     string                  `json:"user_id"`
	Difficulty *models.DifficultyLevel `json:"difficulty"`
	Search     string                  `json:"search"`
	Limit      int                     `json:"limit"`
	Offset     int                     `json:"offset"`
	SortBy     string                  `json:"sort_by"`    // "created_at", "title"
	SortOrder  string                  `json:"sort_order"` // "asc", "desc"
}

type AttemptFilters struct {
	ArtifactID string     `json:"artifact_id"`
	UserID     string     `json:"user_id"`
	DateFrom   *time.Time `json:"date_from"`
	DateTo     *time.Time `json:"date_to"`
	Limit      int        `json:"limit"`
	Offset     int        `json:"offset"`
}

// ===== REPOSITORY INTERFACES =====

type ArtifactRepository interface {
	Create(ctx context.Context, artifact *models.QuizArtifact) error
	GetByID(ctx context.Context, id string) (*models.QuizArtifact, error)
	List(ctx context.Context, filters ArtifactFilters) ([]*models.QuizArtifact, int64, error)
	Delete(ctx context.Context, id string) error
}

type AttemptRepository interface {
	Create(ctx context.Context, attempt *models.QuizAttempt) error
	GetByID(ctx context.Context, id string) (*models.QuizAttempt, error)
	List(ctx context.Context, filters AttemptFilters) ([]*models.QuizAttempt, int64, error)
	CountByArtifact(ctx context.Context, artifactID string) (int64, error)
}

// Repository aggregates all repositories for dependency wiring.
type Repository interface {
	Artifact() ArtifactRepository
	Attempt() AttemptRepository
}
