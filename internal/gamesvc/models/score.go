package models

// TeamScore is a derived aggregate, always recomputable from the team's
// scored answers. Rank is dense: ties share a rank.
type TeamScore struct {
	TeamID     string `json:"team_id"`
	TeamName   string `json:"team_name"`
	MascotID   int    `json:"mascot_id"`
	TotalScore int    `json:"total_score"`
	Rank       int    `json:"rank"`
}
