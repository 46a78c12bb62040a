// Package scoring grades quiz answers. All functions are pure: they take the
// question set, the learner's answers, and (for free text) the learner's
// self-assessments, and perform no I/O.
package scoring

import (
	"strings"

	"github.com/studykit/quiz-service/internal/models"
)

// Verdict is per-question correctness. Unanswered questions and free-text
// answers assessed "partial" (or not assessed) are Indeterminate: they are
// neither right nor wrong and contribute no full point.
type Verdict int

const (
	Indeterminate Verdict = iota
	Incorrect
	Correct
)

func (v Verdict) String() string {
	switch v {
	case Correct:
		return "correct"
	case Incorrect:
		return "incorrect"
	}
	return "indeterminate"
}

// IsCorrect grades a single question.
//
// Multi-select questions are graded all-or-nothing: the selected index set
// must equal the correct index set exactly, with no partial credit for a
// subset or superset. That mirrors how attempts have always been graded;
// changing it would silently alter recorded scores.
//
// Free-text questions are never compared against the reference answer; the
// learner's self-assessment is the only input.
func IsCorrect(q *models.Question, answer models.Answer, assessment models.SelfAssessment) Verdict {
	if answer == nil {
		return Indeterminate
	}

	switch q.Type {
	case models.MultipleChoice:
		if q.AllowMultiple {
			selected, ok := answer.(models.MultiChoiceAnswer)
			if !ok {
				return Incorrect
			}
			correct, ok := q.CorrectAnswer.Indices()
			if !ok {
				return Indeterminate
			}
			if equalIndexSets(selected.Indices, correct) {
				return Correct
			}
			return Incorrect
		}
		selected, ok := answer.(models.ChoiceAnswer)
		if !ok {
			return Incorrect
		}
		correct, ok := q.CorrectAnswer.Index()
		if !ok {
			return Indeterminate
		}
		if selected.Index == correct {
			return Correct
		}
		return Incorrect

	case models.TrueFalse:
		selected, ok := answer.(models.TrueFalseAnswer)
		if !ok {
			return Incorrect
		}
		correct, ok := q.CorrectAnswer.Bool()
		if !ok {
			return Indeterminate
		}
		if selected.Value == correct {
			return Correct
		}
		return Incorrect

	case models.ShortAnswer:
		switch assessment {
		case models.AssessmentCorrect:
			return Correct
		case models.AssessmentIncorrect:
			return Incorrect
		}
		return Indeterminate
	}

	return Indeterminate
}

// QuestionPoints returns the score contribution of a single question.
// Unanswered questions contribute nothing. Free-text answers earn 1.0 for
// "correct", 0.5 for "partial", and 0 for "incorrect" or unassessed.
func QuestionPoints(q *models.Question, answer models.Answer, assessment models.SelfAssessment) float64 {
	if answer == nil {
		return 0
	}

	if q.Type == models.ShortAnswer {
		switch assessment {
		case models.AssessmentCorrect:
			return 1.0
		case models.AssessmentPartial:
			return 0.5
		}
		return 0
	}

	if IsCorrect(q, answer, assessment) == Correct {
		return 1.0
	}
	return 0
}

// ComputeScore tallies the final score. Fractional totals are expected with
// self-assessed partial credit; the maximum is len(questions).
func ComputeScore(questions []models.Question, answers map[string]models.Answer, assessments map[string]models.SelfAssessment) float64 {
	var score float64
	for i := range questions {
		q := &questions[i]
		score += QuestionPoints(q, answers[q.ID], assessments[q.ID])
	}
	return score
}

// CorrectAnswerDisplay renders the canonical answer for display. Multi-select
// answers are comma-joined option texts; free-text questions display the
// reference string verbatim.
func CorrectAnswerDisplay(q *models.Question) string {
	switch q.Type {
	case models.MultipleChoice:
		if indices, ok := q.CorrectAnswer.Indices(); ok {
			texts := make([]string, 0, len(indices))
			for _, i := range indices {
				texts = append(texts, optionText(q, i))
			}
			return strings.Join(texts, ", ")
		}
		if index, ok := q.CorrectAnswer.Index(); ok {
			return optionText(q, index)
		}
	case models.TrueFalse:
		if v, ok := q.CorrectAnswer.Bool(); ok {
			if v {
				return "True"
			}
			return "False"
		}
	case models.ShortAnswer:
		if s, ok := q.CorrectAnswer.Text(); ok {
			return s
		}
	}
	return ""
}

func optionText(q *models.Question, index int) string {
	if index >= 0 && index < len(q.Options) {
		return q.Options[index]
	}
	return ""
}

func equalIndexSets(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	seen := make(map[int]struct{}, len(a))
	for _, i := range a {
		seen[i] = struct{}{}
	}
	if len(seen) != len(b) {
		return false
	}
	for _, i := range b {
		if _, ok := seen[i]; !ok {
			return false
		}
	}
	return true
}
