package models

import (
	"fmt"
	"strconv"
	"time"
)

// UnansweredIndex marks a synthesized "did not answer" record.
const UnansweredIndex = -1

// Answer is append-only: one record per (game, question, team), first
// submission wins. Correctness and points are filled in by batch scoring,
// never by the submitting client.
type Answer struct {
	ID            string    `bson:"_id" json:"id"`
	GameCode      string    `bson:"game_code" json:"game_code"`
	QuestionID    int64     `bson:"question_id" json:"question_id"`
	TeamID        string    `bson:"team_id" json:"team_id"`
	AnswerIndex   int       `bson:"answer_index" json:"answer_index"`
	Scored        bool      `bson:"scored" json:"scored"`
	IsCorrect     bool      `bson:"is_correct" json:"is_correct"`
	PointsAwarded int       `bson:"points_awarded" json:"points_awarded"`
	AnsweredAt    time.Time `bson:"answered_at" json:"answered_at"`
}

// AnswerID builds the deterministic composite key enforcing
// at-most-one-answer-per-team-per-question.
func AnswerID(gameCode string, questionID int64, teamID string) string {
	return fmt.Sprintf("%s:%d:%s", gameCode, questionID, teamID)
}

// Unanswered reports whether this is a synthesized no-answer record.
func (a *Answer) Unanswered() bool {
	return a.AnswerIndex == UnansweredIndex
}

// SelectedAnswer renders the selection for clients.
func (a *Answer) SelectedAnswer() string {
	if a.Unanswered() {
		return "unanswered"
	}
	return strconv.Itoa(a.AnswerIndex)
}
