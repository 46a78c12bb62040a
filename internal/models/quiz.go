package models

import "time"

// ===== QUESTION TYPES =====

type QuestionType string

const (
	MultipleChoice QuestionType = "multiple_choice"
	TrueFalse      QuestionType = "true_false"
	ShortAnswer    QuestionType = "short_answer"
)

func (t QuestionType) Valid() bool {
	switch t {
	case MultipleChoice, TrueFalse, ShortAnswer:
		return true
	}
	return false
}

type DifficultyLevel string

const (
	DifficultyEasy   DifficultyLevel = "easy"
	DifficultyMedium DifficultyLevel = "medium"
	DifficultyHard   DifficultyLevel = "hard"
	DifficultyMixed  DifficultyLevel = "mixed"
)

func (d DifficultyLevel) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard, DifficultyMixed:
		return true
	}
	return false
}

// ===== QUIZ STRUCTURES =====

// SourceReference points at the course material a question was drawn from.
type SourceReference struct {
	FileName string `json:"file_name" validate:"required"`
	Page     *int   `json:"page,omitempty"`
	Section  string `json:"section,omitempty"`
}

type Question struct {
	ID       string       `json:"id" validate:"required"`
	Question string       `json:"question" validate:"required"`
	Type     QuestionType `json:"type" validate:"required,question_type"`
	// Options is empty for short_answer questions.
	Options []string `json:"options,omitempty"`
	// AllowMultiple marks a multiple_choice question as multi-select.
	AllowMultiple bool             `json:"allow_multiple,omitempty"`
	CorrectAnswer CorrectAnswer    `json:"correct_answer"`
	Explanation   string           `json:"explanation,omitempty"`
	Topic         string           `json:"topic,omitempty"`
	Difficulty    DifficultyLevel  `json:"difficulty,omitempty" validate:"omitempty,difficulty_level"`
	Source        *SourceReference `json:"source,omitempty"`
}

type QuizMetadata struct {
	GeneratedAt time.Time `json:"generated_at"`
	SourceFiles []string  `json:"source_files,omitempty"`
	Model       string    `json:"model,omitempty"`
}

type Quiz struct {
	Title          string          `json:"title" validate:"required"`
	Description    string          `json:"description,omitempty"`
	TotalQuestions int             `json:"total_questions"`
	Topics         []string        `json:"topics,omitempty"`
	Difficulty     DifficultyLevel `json:"difficulty,omitempty" validate:"omitempty,difficulty_level"`
	Questions      []Question      `json:"questions" validate:"required,min=1,dive"`
	Metadata       *QuizMetadata   `json:"metadata,omitempty"`
}

// QuestionByID returns the question with the given id, or nil.
func (q *Quiz) QuestionByID(id string) *Question {
	for i := range q.Questions {
		if q.Questions[i].ID == id {
			return &q.Questions[i]
		}
	}
	return nil
}
