package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/avvvet/trivia-services/internal/comm"
	"github.com/avvvet/trivia-services/internal/gamesvc/models"
	"github.com/avvvet/trivia-services/internal/gamesvc/scoring"
	"github.com/avvvet/trivia-services/internal/gamesvc/session"
	"github.com/avvvet/trivia-services/internal/gamesvc/store"
)

const (
	codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	codeLength   = 6

	createRetries = 5
)

type SessionService struct {
	sessions  SessionStore
	teams     TeamStore
	questions QuestionStore
	answers   AnswerStore
	pub       Publisher
}

func NewSessionService(sessions SessionStore, teams TeamStore, questions QuestionStore, answers AnswerStore, pub Publisher) *SessionService {
	return &SessionService{
		sessions:  sessions,
		teams:     teams,
		questions: questions,
		answers:   answers,
		pub:       pub,
	}
}

// Create opens a fresh session in waiting state under a new code. The
// question order is fixed here, grouped by category, and never changes for
// the session's lifetime. A reset is always a new code, never an in-place
// mutation, so players on the old code cannot land mid-transition.
func (s *SessionService) Create(ctx context.Context) (*models.Session, error) {
	questions, err := s.questions.ListOrdered(ctx)
	if err != nil {
		return nil, err
	}
	if len(questions) == 0 {
		return nil, fmt.Errorf("question bank is empty: %w", ErrNotFound)
	}

	order := make([]int64, 0, len(questions))
	for _, q := range questions {
		order = append(order, q.ID)
	}

	for attempt := 0; attempt < createRetries; attempt++ {
		code, err := generateCode()
		if err != nil {
			return nil, err
		}

		now := time.Now().UTC()
		sess := &models.Session{
			Code:                 code,
			Status:               models.StatusWaiting,
			CurrentQuestionIndex: 0,
			QuestionOrder:        order,
			CurrentCategory:      questions[0].Category,
			TotalRounds:          len(questions),
			IsActive:             true,
			CreatedAt:            now,
			UpdatedAt:            now,
		}

		if err := s.sessions.Create(ctx, sess); err != nil {
			if errors.Is(err, ErrConflict) {
				log.Warnf("session code collision on %s, retrying", code)
				continue
			}
			return nil, err
		}
		return sess, nil
	}
	return nil, fmt.Errorf("unable to allocate a unique session code after %d attempts", createRetries)
}

func (s *SessionService) Get(ctx context.Context, code string) (*models.Session, error) {
	sess, err := s.sessions.Get(ctx, code)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, fmt.Errorf("session %s: %w", code, ErrNotFound)
	}
	return sess, nil
}

// Start is the host kicking the game off out of the waiting room.
func (s *SessionService) Start(ctx context.Context, code string) (*models.Session, error) {
	return s.Advance(ctx, code, session.TriggerHostStart)
}

// Advance runs one state-machine step: read the record, derive the legal
// transition, and persist it behind a conditional write fenced on the state
// the decision was computed from. Concurrent callers racing on the same
// step resolve to exactly one winner; the losers get ErrConflict and drop
// it. All transition logic lives here and in the machine, never in clients.
func (s *SessionService) Advance(ctx context.Context, code string, trigger session.Trigger) (*models.Session, error) {
	sess, err := s.Get(ctx, code)
	if err != nil {
		return nil, err
	}

	in := session.Input{Trigger: trigger}
	if sess.Status == models.StatusLeaderboard && sess.HasMoreQuestions() {
		changed, err := s.categoryChanges(ctx, sess)
		if err != nil {
			return nil, err
		}
		in.CategoryChanged = changed
	}

	tr, err := session.Next(sess, in)
	if err != nil {
		var inv *session.ErrInvalidTransition
		if errors.As(err, &inv) {
			return nil, fmt.Errorf("%s on %s: %w", trigger, sess.Status, ErrInvalidState)
		}
		return nil, err
	}

	w := store.TransitionWrite{
		From:         sess.Status,
		Fence:        sess.TransitionScheduledAt,
		To:           tr.To,
		AdvanceIndex: tr.AdvanceIndex,
		ScheduleMs:   tr.Schedule.Milliseconds(),
		MarkStarted:  trigger == session.TriggerHostStart,
	}
	if trigger == session.TriggerProcessed {
		ready := true
		w.ResultsReady = &ready
	}
	if tr.AdvanceIndex {
		next := sess.CurrentQuestionIndex + 1
		if next < len(sess.QuestionOrder) {
			q, err := s.question(ctx, sess.QuestionOrder[next])
			if err != nil {
				return nil, err
			}
			w.Category = &q.Category
		}
	}

	updated, err := s.sessions.Transition(ctx, code, w)
	if err != nil {
		if errors.Is(err, ErrConflict) {
			log.Debugf("transition %s on session %s lost the race, dropping", trigger, code)
		}
		return nil, err
	}

	s.publish(ctx, updated)
	return updated, nil
}

// ListDueTransitions returns active sessions whose scheduled auto-transition
// deadline has passed at instant now.
func (s *SessionService) ListDueTransitions(ctx context.Context, now time.Time) ([]*models.Session, error) {
	pending, err := s.sessions.ListPendingTransitions(ctx)
	if err != nil {
		return nil, err
	}

	var due []*models.Session
	for _, sess := range pending {
		if deadline, ok := sess.TransitionDeadline(); ok && !now.Before(deadline) {
			due = append(due, sess)
		}
	}
	return due, nil
}

// Leaderboard computes dense-ranked standings over the active teams. Totals
// come from the team records, which are themselves recomputed from scored
// answers on every question close.
func (s *SessionService) Leaderboard(ctx context.Context, code string) ([]*models.TeamScore, error) {
	if _, err := s.Get(ctx, code); err != nil {
		return nil, err
	}

	teams, err := s.teams.ListActive(ctx, code)
	if err != nil {
		return nil, err
	}

	scores := make([]*models.TeamScore, 0, len(teams))
	for _, t := range teams {
		scores = append(scores, &models.TeamScore{
			TeamID:     t.ID,
			TeamName:   t.Name,
			MascotID:   t.MascotID,
			TotalScore: t.TotalScore,
		})
	}
	return scoring.DenseRanks(scores), nil
}

// Snapshot assembles the shared record a client projects its entire view
// from: session, active teams, the current question (without its correct
// index), standings once results are ready, and who has answered so far.
func (s *SessionService) Snapshot(ctx context.Context, code string) (*comm.SessionSnapshot, error) {
	sess, err := s.Get(ctx, code)
	if err != nil {
		return nil, err
	}
	return s.snapshot(ctx, sess)
}

func (s *SessionService) snapshot(ctx context.Context, sess *models.Session) (*comm.SessionSnapshot, error) {
	teams, err := s.teams.ListActive(ctx, sess.Code)
	if err != nil {
		return nil, err
	}

	snap := &comm.SessionSnapshot{Session: sess, Teams: teams}

	qid, ok := sess.CurrentQuestionID()
	if ok && sess.Status != models.StatusWaiting {
		q, err := s.question(ctx, qid)
		if err != nil {
			return nil, err
		}
		snap.Question = &comm.QuestionView{
			ID:           q.ID,
			Text:         q.Text,
			Options:      q.Options,
			Category:     q.Category,
			TimeLimitSec: q.TimeLimitSec,
		}
	}

	if ok && sess.Status.AcceptsAnswers() {
		answers, err := s.answers.GetForQuestion(ctx, sess.Code, qid)
		if err != nil {
			return nil, err
		}
		for _, a := range answers {
			snap.AnsweredTeamIDs = append(snap.AnsweredTeamIDs, a.TeamID)
		}
	}

	switch sess.Status {
	case models.StatusAnswerReveal, models.StatusLeaderboard, models.StatusGameEnd:
		if sess.ResultsReady || sess.Status == models.StatusGameEnd {
			scores, err := s.Leaderboard(ctx, sess.Code)
			if err != nil {
				return nil, err
			}
			snap.Scores = scores
		}
	}

	return snap, nil
}

func (s *SessionService) publish(ctx context.Context, sess *models.Session) {
	if s.pub == nil {
		return
	}
	snap, err := s.snapshot(ctx, sess)
	if err != nil {
		log.Errorf("unable to build snapshot for session %s: %v", sess.Code, err)
		return
	}
	s.pub.SessionChanged(snap)
}

// PublishChanged rebuilds and broadcasts the snapshot for mutations that do
// not go through a session transition (joins, mascot picks, submissions).
func (s *SessionService) PublishChanged(ctx context.Context, code string) {
	sess, err := s.Get(ctx, code)
	if err != nil {
		log.Errorf("unable to publish change for session %s: %v", code, err)
		return
	}
	s.publish(ctx, sess)
}

func (s *SessionService) categoryChanges(ctx context.Context, sess *models.Session) (bool, error) {
	cur, err := s.question(ctx, sess.QuestionOrder[sess.CurrentQuestionIndex])
	if err != nil {
		return false, err
	}
	next, err := s.question(ctx, sess.QuestionOrder[sess.CurrentQuestionIndex+1])
	if err != nil {
		return false, err
	}
	return cur.Category != next.Category, nil
}

func (s *SessionService) question(ctx context.Context, questionID int64) (*models.Question, error) {
	q, err := s.questions.GetByID(ctx, questionID)
	if err != nil {
		return nil, err
	}
	if q == nil {
		return nil, fmt.Errorf("question %d: %w", questionID, ErrNotFound)
	}
	return q, nil
}

func generateCode() (string, error) {
	buf := make([]byte, codeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate session code: %w", err)
	}
	for i, b := range buf {
		buf[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	return string(buf), nil
}
