package models

import (
	"encoding/json"
	"fmt"
	"sort"
)

// SelfAssessment is the learner's own judgment of a short_answer response.
// It is the only input to scoring free-text questions.
type SelfAssessment string

const (
	AssessmentCorrect   SelfAssessment = "correct"
	AssessmentPartial   SelfAssessment = "partial"
	AssessmentIncorrect SelfAssessment = "incorrect"
)

func (a SelfAssessment) Valid() bool {
	switch a {
	case AssessmentCorrect, AssessmentPartial, AssessmentIncorrect:
		return true
	}
	return false
}

// ===== LEARNER ANSWERS =====

// Answer is the learner's recorded answer for one question. The concrete
// type is determined by the question type, so consumers switch on it instead
// of probing an untyped value for "is this an array or a scalar".
type Answer interface {
	// Wire returns the plain JSON-compatible value used in the persisted
	// user_answers object: an option index, a sorted index array, a bool,
	// or the free text.
	Wire() any
}

// ChoiceAnswer is a single-select multiple_choice answer.
type ChoiceAnswer struct {
	Index int
}

// MultiChoiceAnswer is a multi-select answer. Indices are kept sorted and
// unique; Has and Toggled give it set semantics.
type MultiChoiceAnswer struct {
	Indices []int
}

// TrueFalseAnswer is a true_false answer.
type TrueFalseAnswer struct {
	Value bool
}

// TextAnswer is a short_answer free-text response.
type TextAnswer struct {
	Value string
}

func (a ChoiceAnswer) Wire() any      { return a.Index }
func (a MultiChoiceAnswer) Wire() any { return append([]int(nil), a.Indices...) }
func (a TrueFalseAnswer) Wire() any   { return a.Value }
func (a TextAnswer) Wire() any        { return a.Value }

func (a MultiChoiceAnswer) Has(index int) bool {
	for _, i := range a.Indices {
		if i == index {
			return true
		}
	}
	return false
}

// Toggled returns a copy with index added if absent or removed if present.
func (a MultiChoiceAnswer) Toggled(index int) MultiChoiceAnswer {
	out := make([]int, 0, len(a.Indices)+1)
	removed := false
	for _, i := range a.Indices {
		if i == index {
			removed = true
			continue
		}
		out = append(out, i)
	}
	if !removed {
		out = append(out, index)
		sort.Ints(out)
	}
	return MultiChoiceAnswer{Indices: out}
}

func (a MultiChoiceAnswer) Empty() bool {
	return len(a.Indices) == 0
}

// ParseAnswer rehydrates a learner answer from its wire value, as stored in
// a persisted attempt's user_answers object. JSON numbers arrive as float64.
func ParseAnswer(q *Question, raw any) (Answer, error) {
	switch q.Type {
	case MultipleChoice:
		if q.AllowMultiple {
			arr, ok := raw.([]any)
			if !ok {
				return nil, fmt.Errorf("question %s: expected index array, got %T", q.ID, raw)
			}
			indices := make([]int, 0, len(arr))
			for _, v := range arr {
				f, ok := v.(float64)
				if !ok {
					return nil, fmt.Errorf("question %s: non-numeric option index %v", q.ID, v)
				}
				indices = append(indices, int(f))
			}
			sort.Ints(indices)
			return MultiChoiceAnswer{Indices: indices}, nil
		}
		f, ok := raw.(float64)
		if !ok {
			return nil, fmt.Errorf("question %s: expected option index, got %T", q.ID, raw)
		}
		return ChoiceAnswer{Index: int(f)}, nil
	case TrueFalse:
		b, ok := raw.(bool)
		if !ok {
			return nil, fmt.Errorf("question %s: expected boolean, got %T", q.ID, raw)
		}
		return TrueFalseAnswer{Value: b}, nil
	case ShortAnswer:
		s, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("question %s: expected text, got %T", q.ID, raw)
		}
		return TextAnswer{Value: s}, nil
	}
	return nil, fmt.Errorf("question %s: unknown type %q", q.ID, q.Type)
}

// ===== CORRECT ANSWER =====

type correctKind uint8

const (
	correctUnset correctKind = iota
	correctIndex
	correctIndexSet
	correctBool
	correctText
)

// CorrectAnswer is the canonical answer carried on a Question. Its wire shape
// depends on the question type, so it decodes the raw JSON value and exposes
// typed accessors.
type CorrectAnswer struct {
	kind    correctKind
	index   int
	indices []int
	truth   bool
	text    string
}

func CorrectIndex(i int) CorrectAnswer { return CorrectAnswer{kind: correctIndex, index: i} }

func CorrectIndices(indices ...int) CorrectAnswer {
	sorted := append([]int(nil), indices...)
	sort.Ints(sorted)
	return CorrectAnswer{kind: correctIndexSet, indices: sorted}
}

func CorrectBool(v bool) CorrectAnswer   { return CorrectAnswer{kind: correctBool, truth: v} }
func CorrectText(s string) CorrectAnswer { return CorrectAnswer{kind: correctText, text: s} }

func (c CorrectAnswer) IsSet() bool { return c.kind != correctUnset }

// Index returns the single correct option index.
func (c CorrectAnswer) Index() (int, bool) {
	return c.index, c.kind == correctIndex
}

// Indices returns the sorted correct option indices for multi-select.
func (c CorrectAnswer) Indices() ([]int, bool) {
	return c.indices, c.kind == correctIndexSet
}

func (c CorrectAnswer) Bool() (bool, bool) {
	return c.truth, c.kind == correctBool
}

func (c CorrectAnswer) Text() (string, bool) {
	return c.text, c.kind == correctText
}

func (c CorrectAnswer) MarshalJSON() ([]byte, error) {
	switch c.kind {
	case correctIndex:
		return json.Marshal(c.index)
	case correctIndexSet:
		return json.Marshal(c.indices)
	case correctBool:
		return json.Marshal(c.truth)
	case correctText:
		return json.Marshal(c.text)
	}
	return []byte("null"), nil
}

func (c *CorrectAnswer) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case nil:
		*c = CorrectAnswer{}
	case float64:
		*c = CorrectIndex(int(v))
	case bool:
		*c = CorrectBool(v)
	case string:
		*c = CorrectText(v)
	case []any:
		indices := make([]int, 0, len(v))
		for _, item := range v {
			f, ok := item.(float64)
			if !ok {
				return fmt.Errorf("correctAnswer: non-numeric index %v", item)
			}
			indices = append(indices, int(f))
		}
		*c = CorrectIndices(indices...)
	default:
		return fmt.Errorf("correctAnswer: unsupported value %v", raw)
	}
	return nil
}
