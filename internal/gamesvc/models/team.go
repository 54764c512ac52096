package models

import "time"

type Team struct {
	ID       string `bson:"_id" json:"id"`
	Name     string `bson:"name" json:"name"`
	MascotID int    `bson:"mascot_id" json:"mascot_id"`
	GameCode string `bson:"game_code" json:"game_code"`

	// IsActive is a soft-delete flag; teams are never removed once a game
	// has started so historical scoring stays consistent.
	IsActive bool `bson:"is_active" json:"is_active"`

	// TotalScore is a derived cache, recomputed from scored answers on every
	// question close. It is never incremented in place.
	TotalScore int `bson:"total_score" json:"total_score"`

	JoinedAt  time.Time `bson:"joined_at" json:"joined_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
