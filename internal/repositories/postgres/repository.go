package postgres

import (
	"gorm.io/gorm"

	"github.com/studykit/quiz-service/internal/repositories"
)

type repository struct {
	artifact repositories.ArtifactRepository
	attempt  repositories.AttemptRepository
}

// NewRepository wires all PostgreSQL repositories behind the aggregate
// interface services depend on.
func NewRepository(db *gorm.DB) repositories.Repository {
	return &repository{
		artifact: NewArtifactPostgreSQL(db),
		attempt:  NewAttemptPostgreSQL(db),
	}
}

func (r *repository) Artifact() repositories.ArtifactRepository {
	return r.artifact
}

func (r *repository) Attempt() repositories.AttemptRepository {
	return r.attempt
}
