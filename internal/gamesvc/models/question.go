package models

import "time"

// Question lives in the globally-owned question bank and is immutable once
// created. Sessions reference it by id through their question order.
type Question struct {
	ID                 int64     `json:"id"`
	Text               string    `json:"text"`
	Options            []string  `json:"options"`
	CorrectAnswerIndex int       `json:"correct_answer_index"`
	Category           string    `json:"category"`
	TimeLimitSec       int       `json:"time_limit_sec"`
	CreatedAt          time.Time `json:"created_at"`
}
