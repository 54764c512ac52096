package session

import (
	"fmt"
	"time"

	"github.com/avvvet/trivia-services/internal/gamesvc/models"
)

// Trigger is the only allowed cause of a state transition.
type Trigger string

const (
	TriggerHostStart   Trigger = "host_start"
	TriggerTimer       Trigger = "timer"
	TriggerAllAnswered Trigger = "all_answered"
	TriggerHostForce   Trigger = "host_force"
	TriggerProcessed   Trigger = "processed"
	TriggerHostAdvance Trigger = "host_advance"
)

// How long each auto-transition waits before any observer may fire it.
const (
	CategoryCardDuration = 5 * time.Second
	RevealDuration       = 10 * time.Second
	LeaderboardDuration  = 8 * time.Second
)

// ErrInvalidTransition rejects a trigger the current state does not permit.
type ErrInvalidTransition struct {
	From    models.Status
	Trigger Trigger
}

func (e *ErrInvalidTransition) Error() string {
	return fmt.Sprintf("no transition from %s on %s", e.From, e.Trigger)
}

// Input carries the trigger plus the one piece of context the table cannot
// derive from the session record alone.
type Input struct {
	Trigger Trigger

	// CategoryChanged is whether the upcoming question opens a new category,
	// routing leaderboard exits through the category card.
	CategoryChanged bool
}

// Transition is the machine's decision: target state, whether the question
// index advances (always paired with a results_ready reset), and an optional
// auto-transition delay to stamp on the record.
type Transition struct {
	To           models.Status
	AdvanceIndex bool
	Schedule     time.Duration
}

// Next validates current-state + trigger and derives the transition. It is
// pure; persisting the result is the caller's job, behind a conditional
// write fenced on the state this decision was computed from.
func Next(sess *models.Session, in Input) (Transition, error) {
	invalid := func() (Transition, error) {
		return Transition{}, &ErrInvalidTransition{From: sess.Status, Trigger: in.Trigger}
	}

	switch sess.Status {
	case models.StatusWaiting:
		if in.Trigger == TriggerHostStart {
			return Transition{To: models.StatusCategory, Schedule: CategoryCardDuration}, nil
		}

	case models.StatusCategory:
		if in.Trigger == TriggerTimer || in.Trigger == TriggerHostAdvance {
			return Transition{To: models.StatusQuestionDisplay}, nil
		}

	case models.StatusQuestionDisplay:
		if in.Trigger == TriggerAllAnswered || in.Trigger == TriggerHostForce {
			return Transition{To: models.StatusAnswerCollection}, nil
		}

	case models.StatusAnswerCollection:
		if in.Trigger == TriggerProcessed {
			return Transition{To: models.StatusAnswerReveal, Schedule: RevealDuration}, nil
		}

	case models.StatusAnswerReveal:
		// Leaving the reveal requires completed scoring; this is what keeps
		// a question from being skipped.
		if !sess.ResultsReady {
			return invalid()
		}
		switch in.Trigger {
		case TriggerHostAdvance:
			if !sess.HasMoreQuestions() {
				return Transition{To: models.StatusGameEnd}, nil
			}
			return Transition{To: models.StatusQuestionDisplay, AdvanceIndex: true}, nil
		case TriggerTimer:
			return Transition{To: models.StatusLeaderboard, Schedule: LeaderboardDuration}, nil
		}

	case models.StatusLeaderboard:
		if !sess.ResultsReady {
			return invalid()
		}
		if in.Trigger == TriggerTimer || in.Trigger == TriggerHostAdvance {
			if !sess.HasMoreQuestions() {
				return Transition{To: models.StatusGameEnd}, nil
			}
			if in.CategoryChanged {
				return Transition{To: models.StatusCategory, AdvanceIndex: true, Schedule: CategoryCardDuration}, nil
			}
			return Transition{To: models.StatusQuestionDisplay, AdvanceIndex: true}, nil
		}

	case models.StatusGameEnd:
		// Terminal: a new game means a new session code.
		return invalid()
	}

	return invalid()
}
