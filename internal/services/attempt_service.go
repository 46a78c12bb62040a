package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/studykit/quiz-service/internal/cache"
	"github.com/studykit/quiz-service/internal/models"
	"github.com/studykit/quiz-service/internal/repositories"
	"github.com/studykit/quiz-service/internal/scoring"
)

const attemptListCacheTTL = 5 * time.Minute

// AttemptService reads recorded attempt history.
type AttemptService interface {
	List(ctx context.Context, filters repositories.AttemptFilters) ([]models.AttemptSummary, int64, error)
	GetByID(ctx context.Context, id string) (*AttemptDetail, error)
}

// AttemptDetail is a recorded attempt with its per-question breakdown
// recomputed from the stored snapshot.
type AttemptDetail struct {
	Attempt   *models.QuizAttempt `json:"attempt"`
	Quiz      *models.Quiz        `json:"quiz"`
	Questions []AttemptQuestion   `json:"questions"`
}

type AttemptQuestion struct {
	ID             string                `json:"id"`
	Question       string                `json:"question"`
	Type           models.QuestionType   `json:"type"`
	Options        []string              `json:"options,omitempty"`
	Answer         any                   `json:"answer,omitempty"`
	CorrectAnswer  string                `json:"correct_answer"`
	Explanation    string                `json:"explanation,omitempty"`
	Verdict        string                `json:"verdict"`
	SelfAssessment models.SelfAssessment `json:"self_assessment,omitempty"`
}

type attemptService struct {
	repo   repositories.Repository
	cache  cache.CacheService
	logger *slog.Logger
}

func NewAttemptService(repo repositories.Repository, cacheService cache.CacheService, logger *slog.Logger) AttemptService {
	return &attemptService{
		repo:   repo,
		cache:  cacheService,
		logger: logger,
	}
}

// cachedAttemptList is the cache payload for List. The recorder invalidates
// the whole attempts: namespace when a new attempt lands.
type cachedAttemptList struct {
	Summaries []models.AttemptSummary `json:"summaries"`
	Total     int64                   `json:"total"`
}

func (s *attemptService) List(ctx context.Context, filters repositories.AttemptFilters) ([]models.AttemptSummary, int64, error) {
	key, cacheable := attemptListCacheKey(filters)
	if cacheable {
		var cached cachedAttemptList
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			return cached.Summaries, cached.Total, nil
		}
	}

	attempts, total, err := s.repo.Attempt().List(ctx, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list attempts: %w", err)
	}

	summaries := make([]models.AttemptSummary, 0, len(attempts))
	for _, attempt := range attempts {
		summaries = append(summaries, attempt.Summary())
	}

	if cacheable {
		payload := cachedAttemptList{Summaries: summaries, Total: total}
		if err := s.cache.Set(ctx, key, payload, attemptListCacheTTL); err != nil {
			s.logger.Warn("Failed to cache attempt list", "key", key, "error", err)
		}
	}
	return summaries, total, nil
}

func (s *attemptService) GetByID(ctx context.Context, id string) (*AttemptDetail, error) {
	attempt, err := s.repo.Attempt().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAttemptNotFound
		}
		return nil, fmt.Errorf("failed to get attempt: %w", err)
	}

	quiz, answers, assessments, err := decodeAttempt(attempt)
	if err != nil {
		return nil, err
	}

	detail := &AttemptDetail{
		Attempt:   attempt,
		Quiz:      quiz,
		Questions: make([]AttemptQuestion, 0, len(quiz.Questions)),
	}
	for i := range quiz.Questions {
		q := &quiz.Questions[i]
		item := AttemptQuestion{
			ID:             q.ID,
			Question:       q.Question,
			Type:           q.Type,
			Options:        q.Options,
			CorrectAnswer:  scoring.CorrectAnswerDisplay(q),
			Explanation:    q.Explanation,
			Verdict:        scoring.IsCorrect(q, answers[q.ID], assessments[q.ID]).String(),
			SelfAssessment: assessments[q.ID],
		}
		if answer := answers[q.ID]; answer != nil {
			item.Answer = answer.Wire()
		}
		detail.Questions = append(detail.Questions, item)
	}
	return detail, nil
}

// attemptListCacheKey builds the cache key for a List call. Date-filtered
// lists are not cached; the filter space is unbounded.
func attemptListCacheKey(f repositories.AttemptFilters) (string, bool) {
	if f.DateFrom != nil || f.DateTo != nil {
		return "", false
	}
	return fmt.Sprintf("attempts:%s:%s:%d:%d", f.ArtifactID, f.UserID, f.Limit, f.Offset), true
}

// quizTitle extracts just the title from a stored quiz snapshot without
// decoding the full structure.
func quizTitle(data []byte) string {
	var head struct {
		Title string `json:"title"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return ""
	}
	return head.Title
}
