package models

import (
	"time"
)

// Status is the session lifecycle state shared by every client.
type Status string

const (
	StatusWaiting          Status = "waiting"
	StatusCategory         Status = "category"
	StatusQuestionDisplay  Status = "question_display"
	StatusAnswerCollection Status = "answer_collection"
	StatusAnswerReveal     Status = "answer_reveal"
	StatusLeaderboard      Status = "leaderboard"
	StatusGameEnd          Status = "game_end"
)

// AcceptsAnswers reports whether answer submissions are legal in this state.
func (s Status) AcceptsAnswers() bool {
	return s == StatusQuestionDisplay || s == StatusAnswerCollection
}

type Session struct {
	Code                 string  `bson:"_id" json:"code"`
	Status               Status  `bson:"status" json:"status"`
	CurrentQuestionIndex int     `bson:"current_question_index" json:"current_question_index"`
	QuestionOrder        []int64 `bson:"question_order" json:"question_order"`
	CurrentCategory      string  `bson:"current_category" json:"current_category"`

	// ResultsReady flips true only after batch scoring for the current
	// question has fully completed; reset false whenever the index advances.
	ResultsReady bool `bson:"results_ready" json:"results_ready"`

	// Pending auto-transition; both unset means none scheduled.
	TransitionScheduledAt *time.Time `bson:"transition_scheduled_at,omitempty" json:"transition_scheduled_at,omitempty"`
	TransitionDurationMs  int64      `bson:"transition_duration_ms,omitempty" json:"transition_duration_ms,omitempty"`

	StartedAt   *time.Time `bson:"started_at,omitempty" json:"started_at,omitempty"`
	TotalRounds int        `bson:"total_rounds" json:"total_rounds"`
	IsActive    bool       `bson:"is_active" json:"is_active"`
	CreatedAt   time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `bson:"updated_at" json:"updated_at"`
}

// CurrentQuestionID returns the question id the session is currently on.
func (s *Session) CurrentQuestionID() (int64, bool) {
	if s.CurrentQuestionIndex < 0 || s.CurrentQuestionIndex >= len(s.QuestionOrder) {
		return 0, false
	}
	return s.QuestionOrder[s.CurrentQuestionIndex], true
}

// HasMoreQuestions reports whether a question remains after the current one.
func (s *Session) HasMoreQuestions() bool {
	return s.CurrentQuestionIndex+1 < len(s.QuestionOrder)
}

// TransitionDeadline returns the instant the pending auto-transition is due.
func (s *Session) TransitionDeadline() (time.Time, bool) {
	if s.TransitionScheduledAt == nil || s.TransitionDurationMs <= 0 {
		return time.Time{}, false
	}
	return s.TransitionScheduledAt.Add(time.Duration(s.TransitionDurationMs) * time.Millisecond), true
}
