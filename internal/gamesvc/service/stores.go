package service

import (
	"context"

	"github.com/avvvet/trivia-services/internal/comm"
	"github.com/avvvet/trivia-services/internal/gamesvc/models"
	"github.com/avvvet/trivia-services/internal/gamesvc/store"
)

// Store interfaces consumed by the services. The mongo/pg stores satisfy
// them in production; tests drive the same semantics through in-memory
// fakes.

type SessionStore interface {
	Create(ctx context.Context, sess *models.Session) error
	Get(ctx context.Context, code string) (*models.Session, error)
	Transition(ctx context.Context, code string, w store.TransitionWrite) (*models.Session, error)
	ListPendingTransitions(ctx context.Context) ([]*models.Session, error)
}

type TeamStore interface {
	GetOrCreate(ctx context.Context, gameCode, name, id string, mascotID int) (*models.Team, error)
	Get(ctx context.Context, teamID string) (*models.Team, error)
	ListActive(ctx context.Context, gameCode string) ([]*models.Team, error)
	SetMascot(ctx context.Context, teamID string, mascotID int) error
	SetActive(ctx context.Context, teamID string, active bool) error
	SetTotalScore(ctx context.Context, teamID string, total int) error
}

type AnswerStore interface {
	SubmitOnce(ctx context.Context, gameCode string, questionID int64, teamID string, answerIndex int) (*models.Answer, error)
	SaveResult(ctx context.Context, a *models.Answer) error
	GetForQuestion(ctx context.Context, gameCode string, questionID int64) ([]*models.Answer, error)
	CountForQuestion(ctx context.Context, gameCode string, questionID int64) (int, error)
	TotalsByTeam(ctx context.Context, gameCode string) (map[string]int, error)
}

type QuestionStore interface {
	GetByID(ctx context.Context, questionID int64) (*models.Question, error)
	ListOrdered(ctx context.Context) ([]*models.Question, error)
}

// Publisher fans a fresh snapshot out to every watching client after a
// successful mutation.
type Publisher interface {
	SessionChanged(snapshot *comm.SessionSnapshot)
}
