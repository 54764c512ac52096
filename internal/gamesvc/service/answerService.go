package service

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/avvvet/trivia-services/internal/gamesvc/models"
	"github.com/avvvet/trivia-services/internal/gamesvc/scoring"
	"github.com/avvvet/trivia-services/internal/gamesvc/session"
)

type AnswerService struct {
	answers   AnswerStore
	teams     TeamStore
	questions QuestionStore
	sessions  *SessionService
}

func NewAnswerService(answers AnswerStore, teams TeamStore, questions QuestionStore, sessions *SessionService) *AnswerService {
	return &AnswerService{
		answers:   answers,
		teams:     teams,
		questions: questions,
		sessions:  sessions,
	}
}

// Submit records a team's answer for the current question. At most one
// answer exists per (session, question, team); a repeat returns the first
// stored record. Correctness is never computed here: the submitting client
// is untrusted and speed-bonus ordering can only be resolved at batch
// close. When the last active team answers, the question closes itself.
func (s *AnswerService) Submit(ctx context.Context, gameCode string, questionID int64, teamID string, answerIndex int) (*models.Answer, error) {
	sess, err := s.sessions.Get(ctx, gameCode)
	if err != nil {
		return nil, err
	}
	if !sess.Status.AcceptsAnswers() {
		return nil, fmt.Errorf("answers closed in %s: %w", sess.Status, ErrInvalidState)
	}

	current, ok := sess.CurrentQuestionID()
	if !ok || current != questionID {
		return nil, fmt.Errorf("question %d is not current: %w", questionID, ErrInvalidState)
	}

	team, err := s.teams.Get(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if team == nil || !team.IsActive || team.GameCode != gameCode {
		return nil, fmt.Errorf("team %s not in game %s: %w", teamID, gameCode, ErrNotFound)
	}

	q, err := s.sessions.question(ctx, questionID)
	if err != nil {
		return nil, err
	}
	if answerIndex < 0 || answerIndex >= len(q.Options) {
		return nil, fmt.Errorf("answer index %d out of range: %w", answerIndex, ErrInvalidState)
	}

	ans, err := s.answers.SubmitOnce(ctx, gameCode, questionID, teamID, answerIndex)
	if err != nil {
		return nil, err
	}

	s.sessions.PublishChanged(ctx, gameCode)

	allAnswered, err := s.allActiveTeamsAnswered(ctx, gameCode, questionID)
	if err != nil {
		log.Errorf("unable to check answer completeness for %s: %v", gameCode, err)
		return ans, nil
	}
	if allAnswered {
		if _, err := s.CloseOutQuestion(ctx, gameCode); err != nil && !droppable(err) {
			log.Errorf("auto close of question %d in %s failed: %v", questionID, gameCode, err)
		}
	}

	return ans, nil
}

// CloseOutQuestion is the batch "close out this question" operation: move
// to answer collection if needed, score every active team's answer (or its
// synthesized absence), recompute totals, and only then flip results_ready
// together with the transition into the reveal. Safe to invoke repeatedly;
// a second closer loses the CAS race and drops out.
func (s *AnswerService) CloseOutQuestion(ctx context.Context, gameCode string) (*models.Session, error) {
	sess, err := s.sessions.Get(ctx, gameCode)
	if err != nil {
		return nil, err
	}

	questionID, ok := sess.CurrentQuestionID()
	if !ok {
		return nil, fmt.Errorf("session %s has no current question: %w", gameCode, ErrInvalidState)
	}

	if sess.Status == models.StatusQuestionDisplay {
		sess, err = s.sessions.Advance(ctx, gameCode, session.TriggerHostForce)
		if err != nil {
			return nil, err
		}
	}
	if sess.Status != models.StatusAnswerCollection {
		return nil, fmt.Errorf("cannot close question in %s: %w", sess.Status, ErrInvalidState)
	}

	if err := s.ProcessQuestionResults(ctx, gameCode, questionID); err != nil {
		return nil, err
	}

	return s.sessions.Advance(ctx, gameCode, session.TriggerProcessed)
}

// ProcessQuestionResults scores one question for every active team. It is
// idempotent: answers are re-scored to identical values and team totals are
// recomputed from scratch, so a retried batch never double-counts. The
// store only guarantees per-document atomicity, so a crash mid-batch leaves
// partially scored answers; re-running repairs them, and results_ready is
// only ever set by the transition that follows a fully completed batch.
func (s *AnswerService) ProcessQuestionResults(ctx context.Context, gameCode string, questionID int64) error {
	if _, err := s.sessions.Get(ctx, gameCode); err != nil {
		return err
	}
	q, err := s.sessions.question(ctx, questionID)
	if err != nil {
		return err
	}

	teams, err := s.teams.ListActive(ctx, gameCode)
	if err != nil {
		return err
	}

	existing, err := s.answers.GetForQuestion(ctx, gameCode, questionID)
	if err != nil {
		return err
	}
	byTeam := make(map[string]*models.Answer, len(existing))
	for _, a := range existing {
		byTeam[a.TeamID] = a
	}

	// Every active team gets a record: a missing answer becomes an explicit
	// unanswered result, never a silent omission.
	batch := make([]*models.Answer, 0, len(teams))
	for _, t := range teams {
		if a, ok := byTeam[t.ID]; ok {
			batch = append(batch, a)
			continue
		}
		batch = append(batch, &models.Answer{
			ID:          models.AnswerID(gameCode, questionID, t.ID),
			GameCode:    gameCode,
			QuestionID:  questionID,
			TeamID:      t.ID,
			AnswerIndex: models.UnansweredIndex,
		})
	}

	for _, a := range scoring.ScoreBatch(q, batch) {
		if err := s.answers.SaveResult(ctx, a); err != nil {
			return err
		}
	}

	totals, err := s.answers.TotalsByTeam(ctx, gameCode)
	if err != nil {
		return err
	}
	for _, t := range teams {
		if err := s.teams.SetTotalScore(ctx, t.ID, totals[t.ID]); err != nil {
			return err
		}
	}

	return nil
}

func (s *AnswerService) allActiveTeamsAnswered(ctx context.Context, gameCode string, questionID int64) (bool, error) {
	teams, err := s.teams.ListActive(ctx, gameCode)
	if err != nil {
		return false, err
	}
	if len(teams) == 0 {
		return false, nil
	}

	answers, err := s.answers.GetForQuestion(ctx, gameCode, questionID)
	if err != nil {
		return false, err
	}
	answered := make(map[string]bool, len(answers))
	for _, a := range answers {
		answered[a.TeamID] = true
	}

	for _, t := range teams {
		if !answered[t.ID] {
			return false, nil
		}
	}
	return true, nil
}

// droppable errors are lost races or already-moved states: some other
// client completed the same step first, which is fine.
func droppable(err error) bool {
	return errors.Is(err, ErrConflict) || errors.Is(err, ErrInvalidState)
}
