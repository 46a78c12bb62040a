package services

import (
	"errors"

	"github.com/studykit/quiz-service/internal/session"
)

// ===== COMMON SERVICE ERRORS =====

var (
	// Generic errors
	ErrNotFound         = errors.New("resource not found")
	ErrValidationFailed = errors.New("validation failed")
	ErrInternalError    = errors.New("internal server error")
	ErrBadRequest       = errors.New("bad request")

	// Artifact specific errors
	ErrArtifactNotFound  = errors.New("quiz artifact not found")
	ErrArtifactMalformed = errors.New("quiz artifact contains malformed quiz data")

	// Session specific errors
	ErrSessionNotFound = errors.New("session not found")
	ErrQuizRequired    = errors.New("either quiz data or an artifact id is required")

	// Attempt specific errors
	ErrAttemptNotFound  = errors.New("attempt not found")
	ErrAttemptMalformed = errors.New("recorded attempt contains malformed data")

	// Export specific errors
	ErrUnsupportedFormat = errors.New("unsupported export format")
)

// IsNotFoundError reports whether err maps to a 404.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrArtifactNotFound) ||
		errors.Is(err, ErrSessionNotFound) ||
		errors.Is(err, ErrAttemptNotFound)
}

// IsConflictError reports whether err is a state machine guard violation,
// which maps to a 409.
func IsConflictError(err error) bool {
	for _, guard := range []error{
		session.ErrNotInProgress,
		session.ErrAnswerLocked,
		session.ErrNotRevealed,
		session.ErrNoSelection,
		session.ErrEmptyAnswer,
		session.ErrAssessmentRequired,
		session.ErrNotMultiSelect,
		session.ErrNotSingleSelect,
		session.ErrNotTrueFalse,
		session.ErrNotTextQuestion,
		session.ErrNotFinished,
		session.ErrReadOnly,
	} {
		if errors.Is(err, guard) {
			return true
		}
	}
	return false
}

// IsBadRequestError reports whether err maps to a 400.
func IsBadRequestError(err error) bool {
	return errors.Is(err, ErrBadRequest) ||
		errors.Is(err, ErrQuizRequired) ||
		errors.Is(err, ErrUnsupportedFormat) ||
		errors.Is(err, session.ErrOptionOutOfRange) ||
		errors.Is(err, session.ErrAssessmentInvalid)
}
