package events

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventAttemptCompleted EventType = "attempt.completed"
)

// AttemptEvent is the envelope published to the attempt topic.
type AttemptEvent struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Source    string    `json:"source"`
	Version   string    `json:"version"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

// AttemptCompletedEvent carries the outcome of a persisted attempt. Answers
// themselves stay in the database; consumers that need them fetch by id.
type AttemptCompletedEvent struct {
	AttemptID        string  `json:"attempt_id"`
	ArtifactID       string  `json:"artifact_id"`
	UserID           string  `json:"user_id"`
	Score            float64 `json:"score"`
	TotalQuestions   int     `json:"total_questions"`
	TimeTakenSeconds *int    `json:"time_taken_seconds,omitempty"`
}

// NewAttemptCompletedEvent wraps the payload in a fresh envelope.
func NewAttemptCompletedEvent(data AttemptCompletedEvent) *AttemptEvent {
	return &AttemptEvent{
		ID:        uuid.NewString(),
		Type:      EventAttemptCompleted,
		Source:    "quiz-service",
		Version:   "1.0",
		Timestamp: time.Now(),
		Data:      data,
	}
}
