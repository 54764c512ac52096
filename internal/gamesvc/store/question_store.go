package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/avvvet/trivia-services/internal/gamesvc/models"
)

// QuestionStore reads the globally-owned, immutable question bank.
type QuestionStore struct {
	db *pgxpool.Pool
}

func NewQuestionStore(db *pgxpool.Pool) *QuestionStore {
	return &QuestionStore{db: db}
}

func (s *QuestionStore) GetByID(ctx context.Context, questionID int64) (*models.Question, error) {
	query := `
		SELECT id, text, options, correct_answer_index, category, time_limit_seconds, created_at
		FROM questions
		WHERE id = $1
	`

	q := &models.Question{}
	err := s.db.QueryRow(ctx, query, questionID).Scan(
		&q.ID,
		&q.Text,
		&q.Options,
		&q.CorrectAnswerIndex,
		&q.Category,
		&q.TimeLimitSec,
		&q.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // question not found
		}
		return nil, fmt.Errorf("failed to get question by ID: %w", err)
	}

	return q, nil
}

// ListOrdered returns the whole bank grouped by category in insertion
// order. Session creation takes this as the fixed play order.
func (s *QuestionStore) ListOrdered(ctx context.Context) ([]*models.Question, error) {
	query := `
		SELECT id, text, options, correct_answer_index, category, time_limit_seconds, created_at
		FROM questions
		ORDER BY category, id
	`

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list questions: %w", err)
	}
	defer rows.Close()

	var questions []*models.Question
	for rows.Next() {
		q := &models.Question{}
		err := rows.Scan(
			&q.ID,
			&q.Text,
			&q.Options,
			&q.CorrectAnswerIndex,
			&q.Category,
			&q.TimeLimitSec,
			&q.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}

	return questions, rows.Err()
}
