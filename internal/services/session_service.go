package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/studykit/quiz-service/internal/models"
	"github.com/studykit/quiz-service/internal/repositories"
	"github.com/studykit/quiz-service/internal/session"
	"github.com/studykit/quiz-service/internal/utils"
)

// SessionService orchestrates live quiz sessions: creating them over saved
// or ad hoc quizzes, routing answer operations to the state machine, and
// handing completed runs to the recorder.
type SessionService interface {
	Create(ctx context.Context, req *CreateSessionRequest, userID string) (session.Snapshot, error)
	CreateReview(ctx context.Context, req *CreateReviewRequest) (session.Snapshot, error)
	Get(ctx context.Context, id string) (session.Snapshot, error)
	Start(ctx context.Context, id string) (session.Snapshot, error)
	Answer(ctx context.Context, id string, req *AnswerRequest) (session.Snapshot, error)
	SubmitSelection(ctx context.Context, id string) (session.Snapshot, error)
	RevealAnswer(ctx context.Context, id string) (session.Snapshot, error)
	SetSelfAssessment(ctx context.Context, id string, req *SelfAssessmentRequest) (session.Snapshot, error)
	Advance(ctx context.Context, id string) (session.Snapshot, error)
	Retake(ctx context.Context, id string) (session.Snapshot, error)
	Results(ctx context.Context, id string) (*session.Results, error)
}

// CreateSessionRequest starts a session over either a saved artifact or an
// inline quiz. Inline sessions run normally but their attempts are never
// recorded.
type CreateSessionRequest struct {
	ArtifactID string       `json:"artifact_id"`
	Quiz       *models.Quiz `json:"quiz"`
}

type CreateReviewRequest struct {
	AttemptID string `json:"attempt_id" validate:"required"`
}

// AnswerRequest carries one answer operation. Exactly one field is set:
// OptionIndex selects (single-select) or toggles (multi-select) an option;
// Value answers a true/false question; Text updates a free-text answer.
type AnswerRequest struct {
	OptionIndex *int    `json:"option_index"`
	Value       *bool   `json:"value"`
	Text        *string `json:"text"`
}

type SelfAssessmentRequest struct {
	Assessment models.SelfAssessment `json:"assessment" validate:"required,self_assessment"`
}

type sessionService struct {
	manager   *session.Manager
	artifacts ArtifactService
	repo      repositories.Repository
	recorder  AttemptRecorder
	logger    *slog.Logger
	validator *utils.Validator
}

func NewSessionService(
	manager *session.Manager,
	artifacts ArtifactService,
	repo repositories.Repository,
	recorder AttemptRecorder,
	logger *slog.Logger,
	validator *utils.Validator,
) SessionService {
	return &sessionService{
		manager:   manager,
		artifacts: artifacts,
		repo:      repo,
		recorder:  recorder,
		logger:    logger,
		validator: validator,
	}
}

func (s *sessionService) Create(ctx context.Context, req *CreateSessionRequest, userID string) (session.Snapshot, error) {
	var quiz *models.Quiz

	switch {
	case req.ArtifactID != "":
		loaded, err := s.artifacts.GetQuiz(ctx, req.ArtifactID)
		if err != nil {
			return session.Snapshot{}, err
		}
		quiz = loaded
	case req.Quiz != nil:
		if err := s.validator.Validate(req.Quiz); err != nil {
			return session.Snapshot{}, fmt.Errorf("validation failed: %w", err)
		}
		if err := utils.ValidateQuizStructure(req.Quiz); err != nil {
			return session.Snapshot{}, fmt.Errorf("validation failed: %w", err)
		}
		quiz = req.Quiz
	default:
		return session.Snapshot{}, ErrQuizRequired
	}

	sess := session.New(quiz, req.ArtifactID, userID)
	s.manager.Put(sess)

	s.logger.Info("Quiz session created",
		"session_id", sess.ID,
		"artifact_id", req.ArtifactID,
		"user_id", userID,
		"questions", len(quiz.Questions))

	return sess.Snapshot(), nil
}

// CreateReview builds a read-only walkthrough of a recorded attempt.
func (s *sessionService) CreateReview(ctx context.Context, req *CreateReviewRequest) (session.Snapshot, error) {
	if err := s.validator.Validate(req); err != nil {
		return session.Snapshot{}, fmt.Errorf("validation failed: %w", err)
	}

	attempt, err := s.repo.Attempt().GetByID(ctx, req.AttemptID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return session.Snapshot{}, ErrAttemptNotFound
		}
		return session.Snapshot{}, fmt.Errorf("failed to get attempt: %w", err)
	}

	quiz, answers, assessments, err := decodeAttempt(attempt)
	if err != nil {
		return session.Snapshot{}, err
	}

	sess := session.NewReview(quiz, answers, assessments)
	s.manager.Put(sess)

	s.logger.Info("Review session created",
		"session_id", sess.ID,
		"attempt_id", req.AttemptID)

	return sess.Snapshot(), nil
}

func (s *sessionService) Get(ctx context.Context, id string) (session.Snapshot, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return session.Snapshot{}, err
	}
	return sess.Snapshot(), nil
}

func (s *sessionService) Start(ctx context.Context, id string) (session.Snapshot, error) {
	return s.apply(id, func(sess *session.Session) error {
		return sess.Start()
	})
}

func (s *sessionService) Answer(ctx context.Context, id string, req *AnswerRequest) (session.Snapshot, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return session.Snapshot{}, err
	}

	snap := sess.Snapshot()
	switch {
	case req.Text != nil:
		err = sess.SetText(*req.Text)
	case req.Value != nil:
		err = sess.SelectBool(*req.Value)
	case req.OptionIndex != nil:
		if snap.Question != nil && snap.Question.Type == models.MultipleChoice && snap.Question.AllowMultiple {
			err = sess.ToggleOption(*req.OptionIndex)
		} else {
			err = sess.SelectOption(*req.OptionIndex)
		}
	default:
		err = fmt.Errorf("%w: option_index, value, or text is required", ErrBadRequest)
	}
	if err != nil {
		return session.Snapshot{}, err
	}
	return sess.Snapshot(), nil
}

func (s *sessionService) SubmitSelection(ctx context.Context, id string) (session.Snapshot, error) {
	return s.apply(id, func(sess *session.Session) error {
		return sess.SubmitSelection()
	})
}

func (s *sessionService) RevealAnswer(ctx context.Context, id string) (session.Snapshot, error) {
	return s.apply(id, func(sess *session.Session) error {
		return sess.RevealAnswer()
	})
}

func (s *sessionService) SetSelfAssessment(ctx context.Context, id string, req *SelfAssessmentRequest) (session.Snapshot, error) {
	if err := s.validator.Validate(req); err != nil {
		return session.Snapshot{}, fmt.Errorf("validation failed: %w", err)
	}
	return s.apply(id, func(sess *session.Session) error {
		return sess.SetSelfAssessment(req.Assessment)
	})
}

// Advance moves forward and, when the session reaches results, hands it to
// the recorder. Recording runs in the background and never blocks or fails
// the response.
func (s *sessionService) Advance(ctx context.Context, id string) (session.Snapshot, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return session.Snapshot{}, err
	}
	if err := sess.Advance(); err != nil {
		return session.Snapshot{}, err
	}
	if sess.Mode() == session.ModeResults {
		s.recorder.RecordCompletion(sess)
	}
	return sess.Snapshot(), nil
}

func (s *sessionService) Retake(ctx context.Context, id string) (session.Snapshot, error) {
	return s.apply(id, func(sess *session.Session) error {
		return sess.Retake()
	})
}

func (s *sessionService) Results(ctx context.Context, id string) (*session.Results, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	return sess.Results()
}

func (s *sessionService) lookup(id string) (*session.Session, error) {
	sess, ok := s.manager.Get(id)
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

func (s *sessionService) apply(id string, op func(*session.Session) error) (session.Snapshot, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return session.Snapshot{}, err
	}
	if err := op(sess); err != nil {
		return session.Snapshot{}, err
	}
	return sess.Snapshot(), nil
}

// decodeAttempt rehydrates the stored quiz snapshot, answers, and
// self-assessments from a persisted attempt row.
func decodeAttempt(attempt *models.QuizAttempt) (*models.Quiz, map[string]models.Answer, map[string]models.SelfAssessment, error) {
	var quiz models.Quiz
	if err := json.Unmarshal(attempt.QuizData, &quiz); err != nil {
		return nil, nil, nil, fmt.Errorf("%w: quiz snapshot: %v", ErrAttemptMalformed, err)
	}

	var wire map[string]any
	if err := json.Unmarshal(attempt.UserAnswers, &wire); err != nil {
		return nil, nil, nil, fmt.Errorf("%w: user answers: %v", ErrAttemptMalformed, err)
	}
	answers := make(map[string]models.Answer, len(wire))
	for id, raw := range wire {
		q := quiz.QuestionByID(id)
		if q == nil {
			continue
		}
		answer, err := models.ParseAnswer(q, raw)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("%w: %v", ErrAttemptMalformed, err)
		}
		answers[id] = answer
	}

	assessments := make(map[string]models.SelfAssessment)
	if len(attempt.SelfAssessments) > 0 {
		if err := json.Unmarshal(attempt.SelfAssessments, &assessments); err != nil {
			return nil, nil, nil, fmt.Errorf("%w: self-assessments: %v", ErrAttemptMalformed, err)
		}
	}

	return &quiz, answers, assessments, nil
}
