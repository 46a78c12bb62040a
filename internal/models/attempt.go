package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// QuizArtifact is a persisted AI-generated quiz. Sessions may run over an
// unsaved quiz, but attempts are only recorded against a saved artifact.
type QuizArtifact struct {
	ID     string `json:"id" gorm:"primaryKey;size:36"`
	UserID string `json:"user_id" gorm:"not null;index;size:64"`
	Title  string `json:"title" gorm:"not null;size:200;index"`

	Difficulty DifficultyLevel `json:"difficulty" gorm:"size:20"`
	Topics     datatypes.JSON  `json:"topics" gorm:"type:jsonb"` // []string

	// Full quiz definition as supplied by the generator.
	QuizData datatypes.JSON `json:"quiz_data" gorm:"type:jsonb;not null"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Computed (not stored)
	AttemptCount int `json:"attempt_count" gorm:"-"`
}

func (QuizArtifact) TableName() string {
	return "quiz_artifacts"
}

// QuizAttempt is one completed quiz-taking session. Rows are append-only:
// retaking a quiz inserts a new attempt and never mutates an earlier one.
type QuizAttempt struct {
	ID         string `json:"id" gorm:"primaryKey;size:36"`
	ArtifactID string `json:"artifact_id" gorm:"not null;index;size:36"`
	UserID     string `json:"user_id" gorm:"not null;index;size:64"`

	// Snapshot of the quiz at attempt time, plus the learner's answers and
	// self-assessments keyed by question id.
	QuizData        datatypes.JSON `json:"quiz_data" gorm:"type:jsonb;not null"`
	UserAnswers     datatypes.JSON `json:"user_answers" gorm:"type:jsonb;not null"`
	SelfAssessments datatypes.JSON `json:"self_assessments" gorm:"type:jsonb"`

	Score            float64   `json:"score" gorm:"not null"`
	TotalQuestions   int       `json:"total_questions" gorm:"not null"`
	TimeTakenSeconds *int      `json:"time_taken_seconds"`
	StartedAt        time.Time `json:"started_at"`
	CompletedAt      time.Time `json:"completed_at" gorm:"index"`

	CreatedAt time.Time `json:"created_at"`

	// Relations
	Artifact QuizArtifact `json:"-" gorm:"foreignKey:ArtifactID"`
}

func (QuizAttempt) TableName() string {
	return "quiz_attempts"
}

// AttemptSummary is the listing projection used by attempt history.
type AttemptSummary struct {
	ID               string    `json:"id"`
	ArtifactID       string    `json:"artifact_id"`
	Score            float64   `json:"score"`
	TotalQuestions   int       `json:"total_questions"`
	TimeTakenSeconds *int      `json:"time_taken_seconds"`
	CompletedAt      time.Time `json:"completed_at"`
	CreatedAt        time.Time `json:"created_at"`
}

func (a *QuizAttempt) Summary() AttemptSummary {
	return AttemptSummary{
		ID:               a.ID,
		ArtifactID:       a.ArtifactID,
		Score:            a.Score,
		TotalQuestions:   a.TotalQuestions,
		TimeTakenSeconds: a.TimeTakenSeconds,
		CompletedAt:      a.CompletedAt,
		CreatedAt:        a.CreatedAt,
	}
}
