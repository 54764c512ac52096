package comm

import (
	"encoding/json"

	"github.com/avvvet/trivia-services/internal/gamesvc/models"
)

// WSMessage is the envelope every hop shares: browser <-> socket service
// <-> NATS <-> game service. GameCode routes broadcasts to the sockets
// watching that session.
type WSMessage struct {
	Type     string          `json:"type"` // e.g. "join-session", "submit-answer"
	Data     json.RawMessage `json:"data"`
	SocketId string          `json:"socketid"`
	GameCode string          `json:"game_code,omitempty"`
}

// NATS topics.
const (
	TopicSocketService  = "socket.service"  // client commands, socket -> game
	TopicGameService    = "game.service"    // direct responses, game -> socket
	TopicSessionChanged = "session.changed" // snapshot broadcasts to watchers
)

type JoinSessionRequest struct {
	GameCode string `json:"game_code"`
	Name     string `json:"name"`
	MascotID int    `json:"mascot_id"`
}

type SelectMascotRequest struct {
	TeamID   string `json:"team_id"`
	MascotID int    `json:"mascot_id"`
}

type LeaveSessionRequest struct {
	TeamID string `json:"team_id"`
}

type SubmitAnswerRequest struct {
	GameCode    string `json:"game_code"`
	QuestionID  int64  `json:"question_id"`
	TeamID      string `json:"team_id"`
	AnswerIndex int    `json:"answer_index"`
}

type GetSessionRequest struct {
	GameCode string `json:"game_code"`
}

type WatchSessionRequest struct {
	GameCode string `json:"game_code"`
}

// QuestionView is the client-facing projection of a question. The correct
// answer index never leaves the game service.
type QuestionView struct {
	ID           int64    `json:"id"`
	Text         string   `json:"text"`
	Options      []string `json:"options"`
	Category     string   `json:"category"`
	TimeLimitSec int      `json:"time_limit_sec"`
}

// SessionSnapshot is the full shared record every client re-derives its
// view from on each change notification. No client holds authoritative
// state of its own.
type SessionSnapshot struct {
	Session  *models.Session     `json:"session"`
	Teams    []*models.Team      `json:"teams"`
	Question *QuestionView       `json:"question,omitempty"`
	Scores   []*models.TeamScore `json:"scores,omitempty"`

	// Teams that have answered the current question, present only while
	// answers are being accepted.
	AnsweredTeamIDs []string `json:"answered_team_ids,omitempty"`
}

type TeamData struct {
	Team     *models.Team     `json:"team"`
	Snapshot *SessionSnapshot `json:"snapshot,omitempty"`
}

type AnswerData struct {
	TeamID         string `json:"team_id"`
	QuestionID     int64  `json:"question_id"`
	SelectedAnswer string `json:"selected_answer"`
	Accepted       bool   `json:"accepted"`
}

// ErrorData mirrors server-side failures to clients. A lost transition
// race never appears here: it is dropped before reaching the socket.
type ErrorData struct {
	Code    string `json:"code"` // "not_found", "invalid_state", "store_unavailable"
	Message string `json:"message"`
}
