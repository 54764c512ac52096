// cmd/robosvc/main.go
package main

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"strings"
	"sync"
	"time"

	config "github.com/avvvet/trivia-services/configs"
	"github.com/avvvet/trivia-services/internal/comm"
	"github.com/avvvet/trivia-services/internal/gamesvc/models"
	natscli "github.com/avvvet/trivia-services/internal/nats"
	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"
)

const SERVICE_NAME = "robot"

var instanceId string

func init() {
	instanceId = "001"
	config.Logging(SERVICE_NAME + "_service_" + instanceId)
	config.LoadEnv(SERVICE_NAME)
	rand.Seed(time.Now().UnixNano())
}

// Robot team names, picked in order as a session fills up
var robotNames = []string{
	"Quizbot Abelo", "Quizbot Meron", "Quizbot Dawit", "Quizbot Liya",
	"Quizbot Yonas", "Quizbot Eden", "Quizbot Samuel", "Quizbot Rahel",
}

// minTeams is how many teams a session should have before the host starts;
// robots top the room up to this count.
const minTeams = 3

// robots tracks the bot teams this instance has put into each session.
type robots struct {
	mu sync.Mutex

	// gameCode -> socketId -> team id (empty until the join response lands)
	crews map[string]map[string]string

	// joins in flight per game, so a burst of snapshots does not over-join
	pendingJoins map[string]int

	// answered (gameCode, questionID, teamID) triples
	answered map[string]bool
}

func newRobots() *robots {
	return &robots{
		crews:        make(map[string]map[string]string),
		pendingJoins: make(map[string]int),
		answered:     make(map[string]bool),
	}
}

func main() {
	// connect to NATS
	n, err := natscli.Connect()
	if err != nil {
		log.Fatalf("unable to connect to NATS: %v", err)
	}
	defer n.Conn.Close()
	log.Infof("NATS connected at %s", n.Url)

	r := newRobots()

	// watch snapshot broadcasts to decide when to join and when to answer
	subChanges, err := n.Conn.Subscribe(comm.TopicSessionChanged, func(msg *nats.Msg) {
		r.handleSnapshot(n, msg)
	})
	if err != nil {
		log.Fatalf("subscribe error: %v", err)
	}
	defer subChanges.Unsubscribe()

	// collect join responses to learn our robots' team ids
	subResponses, err := n.Conn.Subscribe(comm.TopicGameService, func(msg *nats.Msg) {
		r.handleResponse(msg)
	})
	if err != nil {
		log.Fatalf("subscribe error: %v", err)
	}
	defer subResponses.Unsubscribe()

	log.Infof("%s service running, topping sessions up to %d teams", SERVICE_NAME, minTeams)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	<-stop
	log.Infof("%s service gracefully stopped", SERVICE_NAME)
}

func (r *robots) handleSnapshot(n *natscli.Nats, msgNats *nats.Msg) {
	ws := comm.WSMessage{}
	if err := json.Unmarshal(msgNats.Data, &ws); err != nil {
		log.Errorf("invalid WSMessage: %v", err)
		return
	}
	if ws.Type != "session-changed" {
		return
	}

	snap := comm.SessionSnapshot{}
	if err := json.Unmarshal(ws.Data, &snap); err != nil {
		log.Errorf("invalid snapshot payload: %v", err)
		return
	}
	if snap.Session == nil {
		return
	}

	switch {
	case snap.Session.Status == models.StatusWaiting:
		r.topUp(n, &snap)
	case snap.Session.Status.AcceptsAnswers() && snap.Question != nil:
		r.answerRound(n, &snap)
	}
}

// topUp joins robot teams until the waiting room holds minTeams.
func (r *robots) topUp(n *natscli.Nats, snap *comm.SessionSnapshot) {
	code := snap.Session.Code

	r.mu.Lock()
	missing := minTeams - len(snap.Teams) - r.pendingJoins[code]
	crew := r.crews[code]
	if crew == nil {
		crew = make(map[string]string)
		r.crews[code] = crew
	}
	var joins []string
	for i := 0; i < missing && len(crew)+len(joins) < len(robotNames); i++ {
		socketId := fmt.Sprintf("robot-%s-%d", code, len(crew)+len(joins))
		joins = append(joins, socketId)
	}
	r.pendingJoins[code] += len(joins)
	nameOffset := len(crew)
	r.mu.Unlock()

	for i, socketId := range joins {
		req := comm.JoinSessionRequest{
			GameCode: code,
			Name:     robotNames[(nameOffset+i)%len(robotNames)],
			MascotID: rand.Intn(12),
		}
		publish(n, "join-session", socketId, req)
		log.Infof("robot %s joining session %s", req.Name, code)
	}
}

func (r *robots) handleResponse(msgNats *nats.Msg) {
	ws := comm.WSMessage{}
	if err := json.Unmarshal(msgNats.Data, &ws); err != nil {
		return
	}
	if ws.Type != "join-session-response" || !strings.HasPrefix(ws.SocketId, "robot-") {
		return
	}

	teamData := comm.TeamData{}
	if err := json.Unmarshal(ws.Data, &teamData); err != nil || teamData.Team == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	code := teamData.Team.GameCode
	if r.crews[code] == nil {
		r.crews[code] = make(map[string]string)
	}
	r.crews[code][ws.SocketId] = teamData.Team.ID
	if r.pendingJoins[code] > 0 {
		r.pendingJoins[code]--
	}
}

// answerRound submits a random answer for every robot team in the session
// that has not answered the current question, each after a human-ish delay.
func (r *robots) answerRound(n *natscli.Nats, snap *comm.SessionSnapshot) {
	code := snap.Session.Code
	question := snap.Question

	answeredNow := make(map[string]bool, len(snap.AnsweredTeamIDs))
	for _, id := range snap.AnsweredTeamIDs {
		answeredNow[id] = true
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for socketId, teamID := range r.crews[code] {
		if teamID == "" || answeredNow[teamID] {
			continue
		}
		key := fmt.Sprintf("%s:%d:%s", code, question.ID, teamID)
		if r.answered[key] {
			continue
		}
		r.answered[key] = true

		req := comm.SubmitAnswerRequest{
			GameCode:    code,
			QuestionID:  question.ID,
			TeamID:      teamID,
			AnswerIndex: rand.Intn(len(question.Options)),
		}
		sid := socketId
		delay := time.Duration(1+rand.Intn(4)) * time.Second
		go func() {
			time.Sleep(delay)
			publish(n, "submit-answer", sid, req)
		}()
	}
}

func publish(n *natscli.Nats, msgType, socketId string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Errorf("error marshaling %s payload: %v", msgType, err)
		return
	}

	msg := &comm.WSMessage{
		Type:     msgType,
		Data:     data,
		SocketId: socketId,
	}

	bytes, err := json.Marshal(msg)
	if err != nil {
		log.Errorf("error marshaling WSMessage: %v", err)
		return
	}

	if err := n.Conn.Publish(comm.TopicSocketService, bytes); err != nil {
		log.Errorf("error publishing %s for session: %v", msgType, err)
	}
}
