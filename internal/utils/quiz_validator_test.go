package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"

	apperrors "github.com/studykit/quiz-service/internal/errors"
	"github.com/studykit/quiz-service/internal/models"
)

func validQuiz() *models.Quiz {
	return &models.Quiz{
		Title: "Sample",
		Questions: []models.Question{
			{
				ID:            "q1",
				Question:      "Pick one",
				Type:          models.MultipleChoice,
				Options:       []string{"a", "b", "c"},
				CorrectAnswer: models.CorrectIndex(1),
			},
			{
				ID:            "q2",
				Question:      "Pick all",
				Type:          models.MultipleChoice,
				AllowMultiple: true,
				Options:       []string{"a", "b", "c"},
				CorrectAnswer: models.CorrectIndices(0, 2),
			},
			{
				ID:            "q3",
				Question:      "True or false",
				Type:          models.TrueFalse,
				CorrectAnswer: models.CorrectBool(false),
			},
			{
				ID:            "q4",
				Question:      "Explain",
				Type:          models.ShortAnswer,
				CorrectAnswer: models.CorrectText("reference"),
			},
		},
	}
}

func TestValidateQuizStructure_Valid(t *testing.T) {
	assert.NoError(t, ValidateQuizStructure(validQuiz()))
}

func TestValidateQuizStructure_NoQuestions(t *testing.T) {
	err := ValidateQuizStructure(&models.Quiz{Title: "Empty"})
	assert.Error(t, err)
}

func TestValidateQuizStructure_Malformed(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(q *models.Quiz)
		field  string
	}{
		{
			"too few options",
			func(q *models.Quiz) { q.Questions[0].Options = []string{"only"} },
			"questions[0].options",
		},
		{
			"correct index out of range",
			func(q *models.Quiz) { q.Questions[0].CorrectAnswer = models.CorrectIndex(9) },
			"questions[0].correct_answer",
		},
		{
			"single-select with array answer",
			func(q *models.Quiz) { q.Questions[0].CorrectAnswer = models.CorrectIndices(0, 1) },
			"questions[0].correct_answer",
		},
		{
			"multi-select with scalar answer",
			func(q *models.Quiz) { q.Questions[1].CorrectAnswer = models.CorrectIndex(0) },
			"questions[1].correct_answer",
		},
		{
			"multi-select index out of range",
			func(q *models.Quiz) { q.Questions[1].CorrectAnswer = models.CorrectIndices(0, 5) },
			"questions[1].correct_answer",
		},
		{
			"true_false without boolean",
			func(q *models.Quiz) { q.Questions[2].CorrectAnswer = models.CorrectIndex(0) },
			"questions[2].correct_answer",
		},
		{
			"short_answer without reference",
			func(q *models.Quiz) { q.Questions[3].CorrectAnswer = models.CorrectAnswer{} },
			"questions[3].correct_answer",
		},
		{
			"duplicate question ids",
			func(q *models.Quiz) { q.Questions[1].ID = "q1" },
			"questions[1].id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			quiz := validQuiz()
			tt.mutate(quiz)

			err := ValidateQuizStructure(quiz)
			assert.Error(t, err)

			ve, ok := err.(apperrors.ValidationErrors)
			assert.True(t, ok, "expected ValidationErrors, got %T", err)
			found := false
			for _, e := range ve {
				if e.Field == tt.field {
					found = true
				}
			}
			assert.True(t, found, "no error for field %s in %v", tt.field, ve)
		})
	}
}
