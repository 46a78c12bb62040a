package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/studykit/quiz-service/internal/events"
	"github.com/studykit/quiz-service/internal/models"
	"github.com/studykit/quiz-service/internal/repositories"
	"github.com/studykit/quiz-service/internal/session"
	"github.com/studykit/quiz-service/internal/utils"
)

type sessionServiceFixture struct {
	service  SessionService
	repo     *mockRepository
	recorder *attemptRecorder
	manager  *session.Manager
}

func newSessionServiceFixture() *sessionServiceFixture {
	repo := newMockRepository()
	logger := testLogger()
	validator := utils.NewValidator()
	manager := session.NewManager()
	artifacts := NewArtifactService(repo, newMemoryCache(), logger, validator)
	recorder := NewAttemptRecorder(repo, newMemoryCache(), events.NewMockEventPublisher(logger), logger).(*attemptRecorder)
	return &sessionServiceFixture{
		service:  NewSessionService(manager, artifacts, repo, recorder, logger, validator),
		repo:     repo,
		recorder: recorder,
		manager:  manager,
	}
}

func TestSessionService_CreateInline(t *testing.T) {
	f := newSessionServiceFixture()

	snap, err := f.service.Create(context.Background(), &CreateSessionRequest{Quiz: fixtureQuiz()}, "user-1")
	assert.NoError(t, err)
	assert.Equal(t, session.ModeWelcome, snap.Mode)
	assert.Equal(t, 2, snap.TotalQuestions)
	assert.NotEmpty(t, snap.ID)
}

func TestSessionService_CreateRequiresQuizOrArtifact(t *testing.T) {
	f := newSessionServiceFixture()

	_, err := f.service.Create(context.Background(), &CreateSessionRequest{}, "user-1")
	assert.ErrorIs(t, err, ErrQuizRequired)
}

func TestSessionService_CreateRejectsMalformedQuiz(t *testing.T) {
	f := newSessionServiceFixture()

	quiz := fixtureQuiz()
	quiz.Questions[0].CorrectAnswer = models.CorrectIndex(9)
	_, err := f.service.Create(context.Background(), &CreateSessionRequest{Quiz: quiz}, "user-1")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestSessionService_CreateFromArtifact(t *testing.T) {
	f := newSessionServiceFixture()
	artifact := fixtureArtifact(fixtureQuiz())

	f.repo.artifact.On("GetByID", mock.Anything, "artifact-1").Return(artifact, nil).Once()
	f.repo.attempt.On("CountByArtifact", mock.Anything, "artifact-1").Return(int64(3), nil).Once()

	snap, err := f.service.Create(context.Background(), &CreateSessionRequest{ArtifactID: "artifact-1"}, "user-1")
	assert.NoError(t, err)
	assert.Equal(t, "artifact-1", snap.ArtifactID)
	assert.Equal(t, "Photosynthesis Check", snap.Title)
	f.repo.artifact.AssertExpectations(t)
}

func TestSessionService_CreateFromMissingArtifact(t *testing.T) {
	f := newSessionServiceFixture()

	f.repo.artifact.On("GetByID", mock.Anything, "nope").Return(nil, repositories.ErrNotFound).Once()

	_, err := f.service.Create(context.Background(), &CreateSessionRequest{ArtifactID: "nope"}, "user-1")
	assert.ErrorIs(t, err, ErrArtifactNotFound)
}

func TestSessionService_UnknownSession(t *testing.T) {
	f := newSessionServiceFixture()

	_, err := f.service.Start(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = f.service.Results(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSessionService_FullRun(t *testing.T) {
	f := newSessionServiceFixture()
	ctx := context.Background()

	var recorded *models.QuizAttempt
	f.repo.attempt.On("Create", mock.Anything, mock.AnythingOfType("*models.QuizAttempt")).
		Run(func(args mock.Arguments) {
			recorded = args.Get(1).(*models.QuizAttempt)
		}).
		Return(nil).Once()
	artifact := fixtureArtifact(fixtureQuiz())
	f.repo.artifact.On("GetByID", mock.Anything, "artifact-1").Return(artifact, nil).Once()
	f.repo.attempt.On("CountByArtifact", mock.Anything, "artifact-1").Return(int64(0), nil).Once()

	snap, err := f.service.Create(ctx, &CreateSessionRequest{ArtifactID: "artifact-1"}, "user-1")
	assert.NoError(t, err)
	id := snap.ID

	snap, err = f.service.Start(ctx, id)
	assert.NoError(t, err)
	assert.Equal(t, session.ModeInProgress, snap.Mode)

	// Single-select answer reveals immediately.
	index := 0
	snap, err = f.service.Answer(ctx, id, &AnswerRequest{OptionIndex: &index})
	assert.NoError(t, err)
	assert.True(t, snap.Question.Revealed)
	assert.Equal(t, "correct", snap.Question.Verdict)

	snap, err = f.service.Advance(ctx, id)
	assert.NoError(t, err)
	assert.Equal(t, 1, snap.CurrentIndex)

	// Free text: type, reveal, self-assess.
	text := "Light splits water; ATP and NADPH are produced."
	_, err = f.service.Answer(ctx, id, &AnswerRequest{Text: &text})
	assert.NoError(t, err)
	_, err = f.service.RevealAnswer(ctx, id)
	assert.NoError(t, err)
	_, err = f.service.SetSelfAssessment(ctx, id, &SelfAssessmentRequest{Assessment: models.AssessmentCorrect})
	assert.NoError(t, err)

	snap, err = f.service.Advance(ctx, id)
	assert.NoError(t, err)
	assert.Equal(t, session.ModeResults, snap.Mode)

	results, err := f.service.Results(ctx, id)
	assert.NoError(t, err)
	assert.Equal(t, 2.0, results.Score)
	assert.Equal(t, float64(100), results.Percentage)

	// Completion hands the run to the recorder exactly once.
	assert.True(t, f.recorder.waitForRecord(5*time.Second))
	assert.NotNil(t, recorded)
	assert.Equal(t, "artifact-1", recorded.ArtifactID)
}

// True/false questions arrive without options; the value field answers them.
func TestSessionService_AnswerTrueFalseByValue(t *testing.T) {
	f := newSessionServiceFixture()
	ctx := context.Background()

	quiz := &models.Quiz{
		Title:          "True or False",
		TotalQuestions: 1,
		Questions: []models.Question{{
			ID:            "q1",
			Question:      "Water boils at 100C at sea level.",
			Type:          models.TrueFalse,
			CorrectAnswer: models.CorrectBool(true),
		}},
	}

	snap, err := f.service.Create(ctx, &CreateSessionRequest{Quiz: quiz}, "user-1")
	assert.NoError(t, err)
	id := snap.ID

	_, err = f.service.Start(ctx, id)
	assert.NoError(t, err)

	value := true
	snap, err = f.service.Answer(ctx, id, &AnswerRequest{Value: &value})
	assert.NoError(t, err)
	assert.True(t, snap.Question.Revealed)
	assert.Equal(t, "correct", snap.Question.Verdict)
	assert.Equal(t, "True", snap.Question.CorrectAnswer)

	snap, err = f.service.Advance(ctx, id)
	assert.NoError(t, err)
	assert.Equal(t, session.ModeResults, snap.Mode)

	results, err := f.service.Results(ctx, id)
	assert.NoError(t, err)
	assert.Equal(t, 1.0, results.Score)
}

func TestSessionService_GuardViolations(t *testing.T) {
	f := newSessionServiceFixture()
	ctx := context.Background()

	snap, err := f.service.Create(ctx, &CreateSessionRequest{Quiz: fixtureQuiz()}, "user-1")
	assert.NoError(t, err)
	id := snap.ID

	// Everything but Start is rejected on the welcome screen.
	index := 0
	_, err = f.service.Answer(ctx, id, &AnswerRequest{OptionIndex: &index})
	assert.ErrorIs(t, err, session.ErrNotInProgress)
	assert.True(t, IsConflictError(err))

	_, err = f.service.Start(ctx, id)
	assert.NoError(t, err)

	_, err = f.service.Advance(ctx, id)
	assert.ErrorIs(t, err, session.ErrNotRevealed)

	_, err = f.service.Answer(ctx, id, &AnswerRequest{OptionIndex: &index})
	assert.NoError(t, err)
	_, err = f.service.Answer(ctx, id, &AnswerRequest{OptionIndex: &index})
	assert.ErrorIs(t, err, session.ErrAnswerLocked)

	_, err = f.service.Answer(ctx, id, &AnswerRequest{})
	assert.ErrorIs(t, err, ErrBadRequest)
	assert.True(t, IsBadRequestError(err))
}

func TestSessionService_Retake(t *testing.T) {
	f := newSessionServiceFixture()
	ctx := context.Background()

	repoErr := errors.New("db offline")
	f.repo.attempt.On("Create", mock.Anything, mock.Anything).Return(repoErr)

	snap, err := f.service.Create(ctx, &CreateSessionRequest{Quiz: fixtureQuiz()}, "user-1")
	assert.NoError(t, err)

	sess, ok := f.manager.Get(snap.ID)
	assert.True(t, ok)
	completeFixtureRun(t, f, sess.ID)

	snap, err = f.service.Retake(ctx, sess.ID)
	assert.NoError(t, err)
	assert.Equal(t, session.ModeInProgress, snap.Mode)
	assert.Equal(t, 0, snap.CurrentIndex)
	assert.False(t, snap.Question.Revealed)
}

func TestSessionService_Review(t *testing.T) {
	f := newSessionServiceFixture()
	ctx := context.Background()
	attempt := fixtureAttempt(fixtureQuiz())

	f.repo.attempt.On("GetByID", mock.Anything, "attempt-1").Return(attempt, nil).Once()

	snap, err := f.service.CreateReview(ctx, &CreateReviewRequest{AttemptID: "attempt-1"})
	assert.NoError(t, err)
	assert.Equal(t, session.ModeReview, snap.Mode)

	results, err := f.service.Results(ctx, snap.ID)
	assert.NoError(t, err)
	// q1 correct, q2 self-assessed partial.
	assert.Equal(t, 1.5, results.Score)
	assert.Len(t, results.Questions, 2)
	assert.Equal(t, "indeterminate", results.Questions[1].Verdict)

	// Review sessions reject mutation.
	index := 0
	_, err = f.service.Answer(ctx, snap.ID, &AnswerRequest{OptionIndex: &index})
	assert.ErrorIs(t, err, session.ErrReadOnly)
}

func TestSessionService_ReviewMissingAttempt(t *testing.T) {
	f := newSessionServiceFixture()

	f.repo.attempt.On("GetByID", mock.Anything, "gone").Return(nil, repositories.ErrNotFound).Once()

	_, err := f.service.CreateReview(context.Background(), &CreateReviewRequest{AttemptID: "gone"})
	assert.ErrorIs(t, err, ErrAttemptNotFound)
}

// completeFixtureRun plays the fixture quiz through to results via the service API.
func completeFixtureRun(t *testing.T, f *sessionServiceFixture, id string) {
	t.Helper()
	ctx := context.Background()

	if _, err := f.service.Start(ctx, id); err != nil && !errors.Is(err, session.ErrNotInProgress) {
		t.Fatalf("Start() error = %v", err)
	}
	index := 0
	if _, err := f.service.Answer(ctx, id, &AnswerRequest{OptionIndex: &index}); err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	if _, err := f.service.Advance(ctx, id); err != nil {
		t.Fatalf("Advance() error = %v", err)
	}
	text := "an answer"
	if _, err := f.service.Answer(ctx, id, &AnswerRequest{Text: &text}); err != nil {
		t.Fatalf("Answer(text) error = %v", err)
	}
	if _, err := f.service.RevealAnswer(ctx, id); err != nil {
		t.Fatalf("RevealAnswer() error = %v", err)
	}
	if _, err := f.service.SetSelfAssessment(ctx, id, &SelfAssessmentRequest{Assessment: models.AssessmentIncorrect}); err != nil {
		t.Fatalf("SetSelfAssessment() error = %v", err)
	}
	if _, err := f.service.Advance(ctx, id); err != nil {
		t.Fatalf("final Advance() error = %v", err)
	}
}
