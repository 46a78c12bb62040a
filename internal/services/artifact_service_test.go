package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/studykit/quiz-service/internal/models"
	"github.com/studykit/quiz-service/internal/repositories"
	"github.com/studykit/quiz-service/internal/utils"
)

func newArtifactService(repo *mockRepository) ArtifactService {
	return NewArtifactService(repo, newMemoryCache(), testLogger(), utils.NewValidator())
}

func TestArtifactService_Create(t *testing.T) {
	repo := newMockRepository()
	service := newArtifactService(repo)

	var created *models.QuizArtifact
	repo.artifact.On("Create", mock.Anything, mock.AnythingOfType("*models.QuizArtifact")).
		Run(func(args mock.Arguments) {
			created = args.Get(1).(*models.QuizArtifact)
		}).
		Return(nil).Once()

	artifact, err := service.Create(context.Background(), &CreateArtifactRequest{Quiz: fixtureQuiz()}, "user-1")
	assert.NoError(t, err)
	assert.NotEmpty(t, artifact.ID)
	assert.Equal(t, "user-1", artifact.UserID)
	assert.Equal(t, "Photosynthesis Check", artifact.Title)
	assert.Equal(t, created, artifact)
	repo.artifact.AssertExpectations(t)
}

func TestArtifactService_CreateRejectsInvalidQuiz(t *testing.T) {
	repo := newMockRepository()
	service := newArtifactService(repo)

	quiz := fixtureQuiz()
	quiz.Questions[0].Options = []string{"only one"}

	_, err := service.Create(context.Background(), &CreateArtifactRequest{Quiz: quiz}, "user-1")
	assert.Error(t, err)
	repo.artifact.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestArtifactService_GetByIDCaches(t *testing.T) {
	repo := newMockRepository()
	service := newArtifactService(repo)
	artifact := fixtureArtifact(fixtureQuiz())

	repo.artifact.On("GetByID", mock.Anything, "artifact-1").Return(artifact, nil).Once()
	repo.attempt.On("CountByArtifact", mock.Anything, "artifact-1").Return(int64(2), nil).Once()

	got, err := service.GetByID(context.Background(), "artifact-1")
	assert.NoError(t, err)
	assert.Equal(t, 2, got.AttemptCount)

	// Second read comes from cache; the mocks allow only one call each.
	got, err = service.GetByID(context.Background(), "artifact-1")
	assert.NoError(t, err)
	assert.Equal(t, "artifact-1", got.ID)
	repo.artifact.AssertExpectations(t)
	repo.attempt.AssertExpectations(t)
}

func TestArtifactService_GetByIDNotFound(t *testing.T) {
	repo := newMockRepository()
	service := newArtifactService(repo)

	repo.artifact.On("GetByID", mock.Anything, "missing").Return(nil, repositories.ErrNotFound).Once()

	_, err := service.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrArtifactNotFound)
}

func TestArtifactService_GetQuiz(t *testing.T) {
	repo := newMockRepository()
	service := newArtifactService(repo)
	artifact := fixtureArtifact(fixtureQuiz())

	repo.artifact.On("GetByID", mock.Anything, "artifact-1").Return(artifact, nil).Once()
	repo.attempt.On("CountByArtifact", mock.Anything, "artifact-1").Return(int64(0), nil).Once()

	quiz, err := service.GetQuiz(context.Background(), "artifact-1")
	assert.NoError(t, err)
	assert.Equal(t, "Photosynthesis Check", quiz.Title)
	assert.Len(t, quiz.Questions, 2)
}

func TestArtifactService_Delete(t *testing.T) {
	repo := newMockRepository()
	service := newArtifactService(repo)

	repo.artifact.On("Delete", mock.Anything, "artifact-1").Return(nil).Once()
	assert.NoError(t, service.Delete(context.Background(), "artifact-1"))

	repo.artifact.On("Delete", mock.Anything, "missing").Return(repositories.ErrNotFound).Once()
	assert.ErrorIs(t, service.Delete(context.Background(), "missing"), ErrArtifactNotFound)
}
