package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/studykit/quiz-service/internal/models"
	"github.com/studykit/quiz-service/internal/repositories"
)

type ArtifactPostgreSQL struct {
	db *gorm.DB
}

func NewArtifactPostgreSQL(db *gorm.DB) repositories.ArtifactRepository {
	return &ArtifactPostgreSQL{db: db}
}

func (r ArtifactPostgreSQL) Create(ctx context.Context, artifact *models.QuizArtifact) error {
	return r.db.WithContext(ctx).Create(artifact).Error
}

func (r ArtifactPostgreSQL) GetByID(ctx context.Context, id string) (*models.QuizArtifact, error) {
	var artifact models.QuizArtifact
	if err := r.db.WithContext(ctx).First(&artifact, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrNotFound
		}
		return nil, err
	}
	return &artifact, nil
}

func (r ArtifactPostgreSQL) List(ctx context.Context, filters repositories.ArtifactFilters) ([]*models.QuizArtifact, int64, error) {
	var artifacts []*models.QuizArtifact
	var total int64

	// apply filter first
	query := r.db.WithContext(ctx).Model(&models.QuizArtifact{})
	query = r.applyFilters(query, filters)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	// then apply pagination and sorting
	query = r.applyPaginationAndSort(query, filters)

	if err := query.Find(&artifacts).Error; err != nil {
		return nil, 0, err
	}

	return artifacts, total, nil
}

func (r ArtifactPostgreSQL) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Delete(&models.QuizArtifact{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

func (r ArtifactPostgreSQL) applyFilters(query *gorm.DB, filters repositories.ArtifactFilters) *gorm.DB {
	if filters.UserID != "" {
		query = query.Where("user_id = ?", filters.UserID)
	}
	if filters.Difficulty != nil {
		query = query.Where("difficulty = ?", *filters.Difficulty)
	}
	if filters.Search != "" {
		query = query.Where("title ILIKE ?", "%"+filters.Search+"%")
	}
	return query
}

func (r ArtifactPostgreSQL) applyPaginationAndSort(query *gorm.DB, filters repositories.ArtifactFilters) *gorm.DB {
	sortBy := filters.SortBy
	switch sortBy {
	case "title", "created_at":
	default:
		sortBy = "created_at"
	}
	sortOrder := "DESC"
	if filters.SortOrder == "asc" {
		sortOrder = "ASC"
	}
	query = query.Order(sortBy + " " + sortOrder)

	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}
	return query
}
