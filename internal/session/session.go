// Package session holds the in-memory quiz-taking state machine. A session
// moves welcome -> in_progress -> results; review sessions are constructed
// directly from a recorded attempt and are read only.
package session

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/studykit/quiz-service/internal/models"
	"github.com/studykit/quiz-service/internal/scoring"
)

type ViewMode string

const (
	ModeWelcome    ViewMode = "welcome"
	ModeInProgress ViewMode = "in_progress"
	ModeResults    ViewMode = "results"
	ModeReview     ViewMode = "review"
)

// State machine guard violations. Handlers map these to 409 Conflict.
var (
	ErrNotInProgress      = errors.New("session is not in progress")
	ErrAnswerLocked       = errors.New("answer is already revealed and locked")
	ErrNotRevealed        = errors.New("answer has not been revealed")
	ErrNoSelection        = errors.New("at least one option must be selected")
	ErrEmptyAnswer        = errors.New("answer text must not be empty")
	ErrAssessmentRequired = errors.New("self-assessment is required before advancing")
	ErrAssessmentInvalid  = errors.New("invalid self-assessment value")
	ErrNotMultiSelect     = errors.New("question is not multi-select")
	ErrNotSingleSelect    = errors.New("question is not single-select")
	ErrNotTrueFalse       = errors.New("question is not true/false")
	ErrNotTextQuestion    = errors.New("question does not take a text answer")
	ErrOptionOutOfRange   = errors.New("option index out of range")
	ErrNotFinished        = errors.New("session has not reached results")
	ErrReadOnly           = errors.New("review sessions are read only")
)

// Session is a single learner's pass through one quiz. All operations act on
// the current question; the index never moves backward while in progress.
type Session struct {
	mu sync.Mutex

	ID         string
	ArtifactID string
	UserID     string
	Quiz       *models.Quiz

	mode      ViewMode
	current   int
	startedAt time.Time
	endedAt   time.Time

	answers     map[string]models.Answer
	assessments map[string]models.SelfAssessment
	revealed    map[string]bool

	// attemptPersisted guards against recording the same attempt twice. It is
	// set before the asynchronous write begins, not after it succeeds.
	attemptPersisted bool
}

// New creates a session at the welcome screen. artifactID may be empty when
// the quiz was never saved; such sessions complete normally but are not
// recorded.
func New(quiz *models.Quiz, artifactID, userID string) *Session {
	return &Session{
		ID:          uuid.NewString(),
		ArtifactID:  artifactID,
		UserID:      userID,
		Quiz:        quiz,
		mode:        ModeWelcome,
		answers:     make(map[string]models.Answer),
		assessments: make(map[string]models.SelfAssessment),
		revealed:    make(map[string]bool),
	}
}

// NewReview builds a read-only session over a recorded attempt. Every
// question is treated as revealed so explanations and verdicts are visible.
func NewReview(quiz *models.Quiz, answers map[string]models.Answer, assessments map[string]models.SelfAssessment) *Session {
	s := &Session{
		ID:          uuid.NewString(),
		Quiz:        quiz,
		mode:        ModeReview,
		answers:     make(map[string]models.Answer, len(answers)),
		assessments: make(map[string]models.SelfAssessment, len(assessments)),
		revealed:    make(map[string]bool, len(quiz.Questions)),
	}
	for id, a := range answers {
		s.answers[id] = a
	}
	for id, a := range assessments {
		s.assessments[id] = a
	}
	for i := range quiz.Questions {
		s.revealed[quiz.Questions[i].ID] = true
	}
	return s
}

// Start moves the session from the welcome screen to the first question.
func (s *Session) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.mode == ModeReview {
		return ErrReadOnly
	}
	if s.mode != ModeWelcome {
		return ErrNotInProgress
	}
	s.mode = ModeInProgress
	s.current = 0
	s.startedAt = time.Now().UTC()
	return nil
}

// SelectOption records a single-select answer on the current question and
// reveals feedback immediately. Once revealed the answer is locked.
func (s *Session) SelectOption(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	q, err := s.activeQuestion()
	if err != nil {
		return err
	}
	if q.Type == models.MultipleChoice && q.AllowMultiple {
		return ErrNotSingleSelect
	}
	if q.Type == models.ShortAnswer {
		return ErrNotSingleSelect
	}
	if s.revealed[q.ID] {
		return ErrAnswerLocked
	}

	if q.Type == models.TrueFalse {
		// True/false questions carry no options; they render as a fixed
		// True/False pair, so index 0 means true.
		if index < 0 || index > 1 {
			return ErrOptionOutOfRange
		}
		s.answers[q.ID] = models.TrueFalseAnswer{Value: index == 0}
		s.revealed[q.ID] = true
		return nil
	}

	if index < 0 || index >= len(q.Options) {
		return ErrOptionOutOfRange
	}
	s.answers[q.ID] = models.ChoiceAnswer{Index: index}
	s.revealed[q.ID] = true
	return nil
}

// SelectBool records a true/false answer on the current question and reveals
// feedback immediately. This is the primary answer path for true_false
// questions, which the generator emits without options.
func (s *Session) SelectBool(value bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	q, err := s.activeQuestion()
	if err != nil {
		return err
	}
	if q.Type != models.TrueFalse {
		return ErrNotTrueFalse
	}
	if s.revealed[q.ID] {
		return ErrAnswerLocked
	}
	s.answers[q.ID] = models.TrueFalseAnswer{Value: value}
	s.revealed[q.ID] = true
	return nil
}

// ToggleOption adds or removes an option from the current multi-select
// question. Selections stay editable until SubmitSelection.
func (s *Session) ToggleOption(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	q, err := s.activeQuestion()
	if err != nil {
		return err
	}
	if q.Type != models.MultipleChoice || !q.AllowMultiple {
		return ErrNotMultiSelect
	}
	if s.revealed[q.ID] {
		return ErrAnswerLocked
	}
	if index < 0 || index >= len(q.Options) {
		return ErrOptionOutOfRange
	}

	current, _ := s.answers[q.ID].(models.MultiChoiceAnswer)
	s.answers[q.ID] = current.Toggled(index)
	return nil
}

// SubmitSelection locks in a multi-select answer and reveals feedback.
// At least one option must be selected.
func (s *Session) SubmitSelection() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	q, err := s.activeQuestion()
	if err != nil {
		return err
	}
	if q.Type != models.MultipleChoice || !q.AllowMultiple {
		return ErrNotMultiSelect
	}
	if s.revealed[q.ID] {
		return ErrAnswerLocked
	}
	answer, ok := s.answers[q.ID].(models.MultiChoiceAnswer)
	if !ok || answer.Empty() {
		return ErrNoSelection
	}
	s.revealed[q.ID] = true
	return nil
}

// SetText updates the free-text answer on the current question. The text
// stays editable until RevealAnswer locks it.
func (s *Session) SetText(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	q, err := s.activeQuestion()
	if err != nil {
		return err
	}
	if q.Type != models.ShortAnswer {
		return ErrNotTextQuestion
	}
	if s.revealed[q.ID] {
		return ErrAnswerLocked
	}
	s.answers[q.ID] = models.TextAnswer{Value: text}
	return nil
}

// RevealAnswer shows the reference answer for the current free-text question.
// The learner's text must be non-empty after trimming, and is locked from
// here on.
func (s *Session) RevealAnswer() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	q, err := s.activeQuestion()
	if err != nil {
		return err
	}
	if q.Type != models.ShortAnswer {
		return ErrNotTextQuestion
	}
	if s.revealed[q.ID] {
		return ErrAnswerLocked
	}
	answer, ok := s.answers[q.ID].(models.TextAnswer)
	if !ok || strings.TrimSpace(answer.Value) == "" {
		return ErrEmptyAnswer
	}
	s.revealed[q.ID] = true
	return nil
}

// SetSelfAssessment records the learner's own grade for the current free-text
// question. Only available once the reference answer is revealed; it can be
// changed until the learner advances.
func (s *Session) SetSelfAssessment(a models.SelfAssessment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	q, err := s.activeQuestion()
	if err != nil {
		return err
	}
	if q.Type != models.ShortAnswer {
		return ErrNotTextQuestion
	}
	if !s.revealed[q.ID] {
		return ErrNotRevealed
	}
	if !a.Valid() {
		return ErrAssessmentInvalid
	}
	s.assessments[q.ID] = a
	return nil
}

// Advance moves to the next question, or to results on the last one. The
// current answer must be revealed first; free-text questions additionally
// require a self-assessment.
func (s *Session) Advance() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	q, err := s.activeQuestion()
	if err != nil {
		return err
	}
	if !s.revealed[q.ID] {
		return ErrNotRevealed
	}
	if q.Type == models.ShortAnswer {
		if _, ok := s.assessments[q.ID]; !ok {
			return ErrAssessmentRequired
		}
	}

	if s.current == len(s.Quiz.Questions)-1 {
		s.mode = ModeResults
		s.endedAt = time.Now().UTC()
		return nil
	}
	s.current++
	return nil
}

// Retake discards all answers and restarts at the first question. The
// persistence guard resets too, so the new run records its own attempt.
func (s *Session) Retake() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.mode == ModeReview {
		return ErrReadOnly
	}
	s.mode = ModeInProgress
	s.current = 0
	s.startedAt = time.Now().UTC()
	s.endedAt = time.Time{}
	s.answers = make(map[string]models.Answer)
	s.assessments = make(map[string]models.SelfAssessment)
	s.revealed = make(map[string]bool)
	s.attemptPersisted = false
	return nil
}

// MarkPersisted flips the at-most-once recording guard. It returns false if
// the attempt for this run was already claimed.
func (s *Session) MarkPersisted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.attemptPersisted {
		return false
	}
	s.attemptPersisted = true
	return true
}

func (s *Session) activeQuestion() (*models.Question, error) {
	if s.mode == ModeReview {
		return nil, ErrReadOnly
	}
	if s.mode != ModeInProgress {
		return nil, ErrNotInProgress
	}
	return &s.Quiz.Questions[s.current], nil
}

// ===== SNAPSHOTS =====

// QuestionView is the per-question state exposed to clients. The correct
// answer and explanation stay hidden until the question is revealed.
type QuestionView struct {
	ID            string              `json:"id"`
	Index         int                 `json:"index"`
	Question      string              `json:"question"`
	Type          models.QuestionType `json:"type"`
	Options       []string            `json:"options,omitempty"`
	AllowMultiple bool                `json:"allow_multiple,omitempty"`
	Answer        any                 `json:"answer,omitempty"`
	Revealed      bool                `json:"revealed"`

	CorrectAnswer  string                `json:"correct_answer,omitempty"`
	Explanation    string                `json:"explanation,omitempty"`
	Verdict        string                `json:"verdict,omitempty"`
	SelfAssessment models.SelfAssessment `json:"self_assessment,omitempty"`
}

// Snapshot is the full client-facing session state.
type Snapshot struct {
	ID             string        `json:"id"`
	ArtifactID     string        `json:"artifact_id,omitempty"`
	Mode           ViewMode      `json:"mode"`
	Title          string        `json:"title"`
	TotalQuestions int           `json:"total_questions"`
	CurrentIndex   int           `json:"current_index"`
	Question       *QuestionView `json:"question,omitempty"`
}

// Snapshot returns the session state for the client. While in progress only
// the current question is included; review sessions include every question
// via Results.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		ID:             s.ID,
		ArtifactID:     s.ArtifactID,
		Mode:           s.mode,
		Title:          s.Quiz.Title,
		TotalQuestions: len(s.Quiz.Questions),
		CurrentIndex:   s.current,
	}
	if s.mode == ModeInProgress {
		view := s.questionView(s.current)
		snap.Question = &view
	}
	return snap
}

func (s *Session) questionView(index int) QuestionView {
	q := &s.Quiz.Questions[index]
	view := QuestionView{
		ID:            q.ID,
		Index:         index,
		Question:      q.Question,
		Type:          q.Type,
		Options:       q.Options,
		AllowMultiple: q.AllowMultiple,
		Revealed:      s.revealed[q.ID],
	}
	if answer := s.answers[q.ID]; answer != nil {
		view.Answer = answer.Wire()
	}
	if view.Revealed {
		view.CorrectAnswer = scoring.CorrectAnswerDisplay(q)
		view.Explanation = q.Explanation
		view.Verdict = scoring.IsCorrect(q, s.answers[q.ID], s.assessments[q.ID]).String()
		view.SelfAssessment = s.assessments[q.ID]
	}
	return view
}

// Results is the end-of-quiz summary.
type Results struct {
	Score            float64        `json:"score"`
	TotalQuestions   int            `json:"total_questions"`
	Percentage       float64        `json:"percentage"`
	Answered         int            `json:"answered"`
	TimeTakenSeconds *int           `json:"time_taken_seconds,omitempty"`
	StartedAt        time.Time      `json:"started_at,omitempty"`
	CompletedAt      time.Time      `json:"completed_at,omitempty"`
	Questions        []QuestionView `json:"questions"`
}

// Results computes the final score and per-question breakdown. Only valid
// once the session has reached results, or for review sessions.
func (s *Session) Results() (*Results, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.mode != ModeResults && s.mode != ModeReview {
		return nil, ErrNotFinished
	}

	out := &Results{
		TotalQuestions: len(s.Quiz.Questions),
		StartedAt:      s.startedAt,
		CompletedAt:    s.endedAt,
		Questions:      make([]QuestionView, 0, len(s.Quiz.Questions)),
	}
	out.Score = scoring.ComputeScore(s.Quiz.Questions, s.answers, s.assessments)
	if out.TotalQuestions > 0 {
		out.Percentage = out.Score / float64(out.TotalQuestions) * 100
	}
	for i := range s.Quiz.Questions {
		if s.answers[s.Quiz.Questions[i].ID] != nil {
			out.Answered++
		}
		out.Questions = append(out.Questions, s.questionView(i))
	}
	if !s.startedAt.IsZero() && !s.endedAt.IsZero() {
		elapsed := int(s.endedAt.Sub(s.startedAt).Seconds())
		out.TimeTakenSeconds = &elapsed
	}
	return out, nil
}

// AttemptData captures everything the recorder needs, taken under the lock so
// a concurrent retake cannot tear the snapshot.
type AttemptData struct {
	ArtifactID       string
	UserID           string
	Quiz             *models.Quiz
	Answers          map[string]models.Answer
	Assessments      map[string]models.SelfAssessment
	Score            float64
	TotalQuestions   int
	TimeTakenSeconds *int
	StartedAt        time.Time
	CompletedAt      time.Time
}

// AttemptData returns a copy of the completed run for recording.
func (s *Session) AttemptData() (*AttemptData, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.mode != ModeResults {
		return nil, ErrNotFinished
	}

	answers := make(map[string]models.Answer, len(s.answers))
	for id, a := range s.answers {
		answers[id] = a
	}
	assessments := make(map[string]models.SelfAssessment, len(s.assessments))
	for id, a := range s.assessments {
		assessments[id] = a
	}

	data := &AttemptData{
		ArtifactID:     s.ArtifactID,
		UserID:         s.UserID,
		Quiz:           s.Quiz,
		Answers:        answers,
		Assessments:    assessments,
		Score:          scoring.ComputeScore(s.Quiz.Questions, s.answers, s.assessments),
		TotalQuestions: len(s.Quiz.Questions),
		StartedAt:      s.startedAt,
		CompletedAt:    s.endedAt,
	}
	if !s.startedAt.IsZero() && !s.endedAt.IsZero() {
		elapsed := int(s.endedAt.Sub(s.startedAt).Seconds())
		data.TimeTakenSeconds = &elapsed
	}
	return data, nil
}

// Mode returns the current view mode.
func (s *Session) Mode() ViewMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}
