package utils

import (
	"fmt"

	apperrors "github.com/studykit/quiz-service/internal/errors"
	"github.com/studykit/quiz-service/internal/models"
)

// ValidateQuizStructure checks the cross-field rules struct tags cannot
// express: option counts, correct-answer shape per question type, and index
// bounds. Quizzes arrive from an external generator, so a malformed one must
// be rejected before a session is built over it.
func ValidateQuizStructure(quiz *models.Quiz) error {
	var errs apperrors.ValidationErrors

	if len(quiz.Questions) == 0 {
		errs = append(errs, apperrors.ValidationError{Field: "questions", Message: "quiz must contain at least one question"})
	}

	seen := make(map[string]bool, len(quiz.Questions))
	for i := range quiz.Questions {
		q := &quiz.Questions[i]
		field := fmt.Sprintf("questions[%d]", i)

		if q.ID != "" && seen[q.ID] {
			errs = append(errs, apperrors.ValidationError{Field: field + ".id", Message: "duplicate question id", Value: q.ID})
		}
		seen[q.ID] = true

		switch q.Type {
		case models.MultipleChoice:
			errs = append(errs, validateChoiceQuestion(field, q)...)
		case models.TrueFalse:
			if _, ok := q.CorrectAnswer.Bool(); !ok {
				errs = append(errs, apperrors.ValidationError{Field: field + ".correct_answer", Message: "true_false requires a boolean correct answer"})
			}
		case models.ShortAnswer:
			if text, ok := q.CorrectAnswer.Text(); !ok || text == "" {
				errs = append(errs, apperrors.ValidationError{Field: field + ".correct_answer", Message: "short_answer requires a reference answer"})
			}
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func validateChoiceQuestion(field string, q *models.Question) apperrors.ValidationErrors {
	var errs apperrors.ValidationErrors

	if len(q.Options) < 2 {
		errs = append(errs, apperrors.ValidationError{Field: field + ".options", Message: "multiple_choice requires at least two options"})
		return errs
	}

	if q.AllowMultiple {
		indices, ok := q.CorrectAnswer.Indices()
		if !ok {
			errs = append(errs, apperrors.ValidationError{Field: field + ".correct_answer", Message: "multi-select requires an array of correct indices"})
			return errs
		}
		if len(indices) == 0 {
			errs = append(errs, apperrors.ValidationError{Field: field + ".correct_answer", Message: "multi-select requires at least one correct index"})
		}
		for _, index := range indices {
			if index < 0 || index >= len(q.Options) {
				errs = append(errs, apperrors.ValidationError{Field: field + ".correct_answer", Message: "correct index out of range", Value: index})
			}
		}
		return errs
	}

	index, ok := q.CorrectAnswer.Index()
	if !ok {
		errs = append(errs, apperrors.ValidationError{Field: field + ".correct_answer", Message: "multiple_choice requires a correct option index"})
		return errs
	}
	if index < 0 || index >= len(q.Options) {
		errs = append(errs, apperrors.ValidationError{Field: field + ".correct_answer", Message: "correct index out of range", Value: index})
	}
	return errs
}
