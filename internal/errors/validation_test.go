package errors

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidationError_Error(t *testing.T) {
	err := NewValidationError("title", "is required", nil)
	assert.Equal(t, "validation error on field 'title': is required", err.Error())
}

func TestValidationErrors_Error(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		var ve ValidationErrors
		assert.Equal(t, "validation failed", ve.Error())
	})

	t.Run("single", func(t *testing.T) {
		ve := ValidationErrors{{Field: "questions", Message: "is required"}}
		assert.Equal(t, "validation failed: questions is required", ve.Error())
	})

	t.Run("multiple", func(t *testing.T) {
		ve := ValidationErrors{
			{Field: "questions", Message: "is required"},
			{Field: "title", Message: "is required"},
		}
		assert.Equal(t, "validation failed: 2 field errors", ve.Error())
	})
}
