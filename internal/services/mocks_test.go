package services

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"gorm.io/datatypes"

	"github.com/studykit/quiz-service/internal/cache"
	"github.com/studykit/quiz-service/internal/models"
	"github.com/studykit/quiz-service/internal/repositories"
	"github.com/studykit/quiz-service/internal/session"
)

// MockArtifactRepository is a mock implementation of ArtifactRepository
type MockArtifactRepository struct {
	mock.Mock
}

func (m *MockArtifactRepository) Create(ctx context.Context, artifact *models.QuizArtifact) error {
	args := m.Called(ctx, artifact)
	return args.Error(0)
}

func (m *MockArtifactRepository) GetByID(ctx context.Context, id string) (*models.QuizArtifact, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.QuizArtifact), args.Error(1)
}

func (m *MockArtifactRepository) List(ctx context.Context, filters repositories.ArtifactFilters) ([]*models.QuizArtifact, int64, error) {
	args := m.Called(ctx, filters)
	return args.Get(0).([]*models.QuizArtifact), args.Get(1).(int64), args.Error(2)
}

func (m *MockArtifactRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockAttemptRepository is a mock implementation of AttemptRepository
type MockAttemptRepository struct {
	mock.Mock
}

func (m *MockAttemptRepository) Create(ctx context.Context, attempt *models.QuizAttempt) error {
	args := m.Called(ctx, attempt)
	return args.Error(0)
}

func (m *MockAttemptRepository) GetByID(ctx context.Context, id string) (*models.QuizAttempt, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.QuizAttempt), args.Error(1)
}

func (m *MockAttemptRepository) List(ctx context.Context, filters repositories.AttemptFilters) ([]*models.QuizAttempt, int64, error) {
	args := m.Called(ctx, filters)
	return args.Get(0).([]*models.QuizAttempt), args.Get(1).(int64), args.Error(2)
}

func (m *MockAttemptRepository) CountByArtifact(ctx context.Context, artifactID string) (int64, error) {
	args := m.Called(ctx, artifactID)
	return args.Get(0).(int64), args.Error(1)
}

type mockRepository struct {
	artifact *MockArtifactRepository
	attempt  *MockAttemptRepository
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		artifact: new(MockArtifactRepository),
		attempt:  new(MockAttemptRepository),
	}
}

func (r *mockRepository) Artifact() repositories.ArtifactRepository { return r.artifact }
func (r *mockRepository) Attempt() repositories.AttemptRepository   { return r.attempt }

// memoryCache is an in-process CacheService for tests.
type memoryCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemoryCache() *memoryCache {
	return &memoryCache{data: make(map[string][]byte)}
}

func (c *memoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = data
	return nil
}

func (c *memoryCache) Get(ctx context.Context, key string, dest interface{}) error {
	c.mu.Lock()
	data, ok := c.data[key]
	c.mu.Unlock()
	if !ok {
		return cache.ErrCacheMiss
	}
	return json.Unmarshal(data, dest)
}

func (c *memoryCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

func (c *memoryCache) DeletePattern(ctx context.Context, pattern string) error {
	prefix := strings.TrimSuffix(pattern, "*")
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.data {
		if strings.HasPrefix(key, prefix) {
			delete(c.data, key)
		}
	}
	return nil
}

// ===== FIXTURES =====

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func fixtureQuiz() *models.Quiz {
	return &models.Quiz{
		Title:          "Photosynthesis Check",
		TotalQuestions: 2,
		Questions: []models.Question{
			{
				ID:            "q1",
				Question:      "Where does photosynthesis happen?",
				Type:          models.MultipleChoice,
				Options:       []string{"Chloroplast", "Mitochondrion", "Nucleus"},
				CorrectAnswer: models.CorrectIndex(0),
			},
			{
				ID:            "q2",
				Question:      "Summarize the light reactions.",
				Type:          models.ShortAnswer,
				CorrectAnswer: models.CorrectText("Light energy splits water and produces ATP and NADPH."),
			},
		},
	}
}

func fixtureArtifact(quiz *models.Quiz) *models.QuizArtifact {
	quizData, _ := json.Marshal(quiz)
	return &models.QuizArtifact{
		ID:       "artifact-1",
		UserID:   "user-1",
		Title:    quiz.Title,
		QuizData: datatypes.JSON(quizData),
	}
}

func fixtureAttempt(quiz *models.Quiz) *models.QuizAttempt {
	quizData, _ := json.Marshal(quiz)
	answers, _ := json.Marshal(map[string]any{"q1": 0, "q2": "water in, ATP out"})
	assessments, _ := json.Marshal(map[string]models.SelfAssessment{"q2": models.AssessmentPartial})
	completed := time.Now().UTC()
	elapsed := 95
	return &models.QuizAttempt{
		ID:               "attempt-1",
		ArtifactID:       "artifact-1",
		UserID:           "user-1",
		QuizData:         datatypes.JSON(quizData),
		UserAnswers:      datatypes.JSON(answers),
		SelfAssessments:  datatypes.JSON(assessments),
		Score:            1.5,
		TotalQuestions:   2,
		TimeTakenSeconds: &elapsed,
		StartedAt:        completed.Add(-95 * time.Second),
		CompletedAt:      completed,
	}
}

// completedSession runs a session over the fixture quiz through to results.
func completedSession(t *testing.T, artifactID string) *session.Session {
	t.Helper()

	s := session.New(fixtureQuiz(), artifactID, "user-1")
	if err := s.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := s.SelectOption(0); err != nil {
		t.Fatalf("SelectOption() error = %v", err)
	}
	if err := s.Advance(); err != nil {
		t.Fatalf("Advance() error = %v", err)
	}
	if err := s.SetText("Water is split, ATP and NADPH come out."); err != nil {
		t.Fatalf("SetText() error = %v", err)
	}
	if err := s.RevealAnswer(); err != nil {
		t.Fatalf("RevealAnswer() error = %v", err)
	}
	if err := s.SetSelfAssessment(models.AssessmentCorrect); err != nil {
		t.Fatalf("SetSelfAssessment() error = %v", err)
	}
	if err := s.Advance(); err != nil {
		t.Fatalf("final Advance() error = %v", err)
	}
	return s
}
