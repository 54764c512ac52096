package service

import (
	"context"
	"fmt"

	"github.com/avvvet/trivia-services/internal/gamesvc/models"
)

type QuestionService struct {
	questions QuestionStore
}

func NewQuestionService(questions QuestionStore) *QuestionService {
	return &QuestionService{questions: questions}
}

func (s *QuestionService) GetByID(ctx context.Context, questionID int64) (*models.Question, error) {
	q, err := s.questions.GetByID(ctx, questionID)
	if err != nil {
		return nil, err
	}
	if q == nil {
		return nil, fmt.Errorf("question %d: %w", questionID, ErrNotFound)
	}
	return q, nil
}

func (s *QuestionService) List(ctx context.Context) ([]*models.Question, error) {
	return s.questions.ListOrdered(ctx)
}
