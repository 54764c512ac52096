package broker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"

	"github.com/avvvet/trivia-services/internal/comm"
	"github.com/avvvet/trivia-services/internal/gamesvc/service"
)

// Publisher broadcasts session snapshots over NATS. It is split from the
// Broker so the services can publish changes without holding the whole
// dispatch loop.
type Publisher struct {
	Conn *nats.Conn
}

func NewPublisher(nc *nats.Conn) *Publisher {
	return &Publisher{Conn: nc}
}

func (p *Publisher) SessionChanged(snap *comm.SessionSnapshot) {
	data, err := json.Marshal(snap)
	if err != nil {
		log.Errorf("unable to marshal snapshot for session %s: %s", snap.Session.Code, err)
		return
	}

	msg := &comm.WSMessage{
		Type:     "session-changed",
		Data:     data,
		GameCode: snap.Session.Code,
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		log.Errorf("Error %s", err)
		return
	}

	if err := p.Conn.Publish(comm.TopicSessionChanged, payload); err != nil {
		log.Errorf("Error publishing to topic %s: %s", comm.TopicSessionChanged, err)
	}
}

type Broker struct {
	Conn           *nats.Conn
	SessionService *service.SessionService
	TeamService    *service.TeamService
	AnswerService  *service.AnswerService
}

func NewBroker(nc *nats.Conn, sessionService *service.SessionService,
	teamService *service.TeamService, answerService *service.AnswerService) *Broker {
	return &Broker{
		Conn:           nc,
		SessionService: sessionService,
		TeamService:    teamService,
		AnswerService:  answerService,
	}
}

// handles message coming from socket
func (b *Broker) handleMessage(msgNat *nats.Msg) {
	msg := &comm.WSMessage{}
	err := json.Unmarshal(msgNat.Data, &msg)
	if err != nil {
		log.Errorf("Error nats message %s", err)
		return
	}

	switch msg.Type {
	case "join-session":
		request := comm.JoinSessionRequest{}
		err := json.Unmarshal(msg.Data, &request)
		if err != nil {
			log.Errorf("Error %s", err)
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		team, err := b.TeamService.Join(ctx, request.GameCode, request.Name, request.MascotID)
		if err != nil {
			log.Errorf("Error [TeamService.Join] %s", err)
			b.PublishError(err, msg.SocketId)
			return
		}

		snap, err := b.SessionService.Snapshot(ctx, request.GameCode)
		if err != nil {
			log.Errorf("Error [SessionService.Snapshot] %s", err)
		}

		teamData := comm.TeamData{
			Team:     team,
			Snapshot: snap,
		}
		b.PublishJoinResponse(teamData, msg.SocketId)

	case "select-mascot":
		request := comm.SelectMascotRequest{}
		err := json.Unmarshal(msg.Data, &request)
		if err != nil {
			log.Errorf("Error %s", err)
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		team, err := b.TeamService.SelectMascot(ctx, request.TeamID, request.MascotID)
		if err != nil {
			log.Errorf("Error [TeamService.SelectMascot] %s", err)
			b.PublishError(err, msg.SocketId)
			return
		}

		b.PublishMascotResponse(comm.TeamData{Team: team}, msg.SocketId)

	case "leave-session":
		request := comm.LeaveSessionRequest{}
		err := json.Unmarshal(msg.Data, &request)
		if err != nil {
			log.Errorf("Error %s", err)
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := b.TeamService.Leave(ctx, request.TeamID); err != nil {
			log.Errorf("Error [TeamService.Leave] %s", err)
			b.PublishError(err, msg.SocketId)
			return
		}

	case "submit-answer":
		request := comm.SubmitAnswerRequest{}
		err := json.Unmarshal(msg.Data, &request)
		if err != nil {
			log.Errorf("Error %s", err)
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		ans, err := b.AnswerService.Submit(ctx, request.GameCode, request.QuestionID, request.TeamID, request.AnswerIndex)
		if err != nil {
			log.Errorf("Error [AnswerService.Submit] %s", err)
			b.PublishError(err, msg.SocketId)
			return
		}

		answerData := comm.AnswerData{
			TeamID:         ans.TeamID,
			QuestionID:     ans.QuestionID,
			SelectedAnswer: ans.SelectedAnswer(),
			Accepted:       true,
		}
		b.PublishAnswerResponse(answerData, msg.SocketId)

	case "get-session":
		request := comm.GetSessionRequest{}
		err := json.Unmarshal(msg.Data, &request)
		if err != nil {
			log.Errorf("Error %s", err)
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		snap, err := b.SessionService.Snapshot(ctx, request.GameCode)
		if err != nil {
			log.Errorf("Error [SessionService.Snapshot] %s", err)
			b.PublishError(err, msg.SocketId)
			return
		}

		b.PublishSnapshotResponse(snap, msg.SocketId)

	default:
		log.Errorf("Unknown message %s", msg.Type)
		return
	}
}

func (b *Broker) PublishJoinResponse(t comm.TeamData, socketId string) {
	data, err := json.Marshal(t)
	if err != nil {
		log.Errorf("[PublishJoinResponse] unable to marshal team data")
	}

	msg := &comm.WSMessage{
		Type:     "join-session-response",
		Data:     data,
		SocketId: socketId,
	}

	b.publishMsg(msg)
}

func (b *Broker) PublishMascotResponse(t comm.TeamData, socketId string) {
	data, err := json.Marshal(t)
	if err != nil {
		log.Errorf("[PublishMascotResponse] unable to marshal team data")
	}

	msg := &comm.WSMessage{
		Type:     "select-mascot-response",
		Data:     data,
		SocketId: socketId,
	}

	b.publishMsg(msg)
}

func (b *Broker) PublishAnswerResponse(a comm.AnswerData, socketId string) {
	data, err := json.Marshal(a)
	if err != nil {
		log.Errorf("[PublishAnswerResponse] unable to marshal answer data")
	}

	msg := &comm.WSMessage{
		Type:     "submit-answer-response",
		Data:     data,
		SocketId: socketId,
	}

	b.publishMsg(msg)
}

func (b *Broker) PublishSnapshotResponse(snap *comm.SessionSnapshot, socketId string) {
	data, err := json.Marshal(snap)
	if err != nil {
		log.Errorf("[PublishSnapshotResponse] unable to marshal snapshot %s", snap.Session.Code)
	}

	msg := &comm.WSMessage{
		Type:     "get-session-response",
		Data:     data,
		SocketId: socketId,
	}

	b.publishMsg(msg)
}

// PublishError maps a service failure onto the wire taxonomy and sends it
// back to the originating socket. Lost races are not errors to clients and
// never get this far.
func (b *Broker) PublishError(cause error, socketId string) {
	e := comm.ErrorData{Message: cause.Error()}
	switch {
	case errors.Is(cause, service.ErrNotFound):
		e.Code = "not_found"
	case errors.Is(cause, service.ErrInvalidState):
		e.Code = "invalid_state"
	default:
		e.Code = "store_unavailable"
	}

	data, err := json.Marshal(e)
	if err != nil {
		log.Errorf("[PublishError] unable to marshal error data")
	}

	msg := &comm.WSMessage{
		Type:     "error-response",
		Data:     data,
		SocketId: socketId,
	}

	b.publishMsg(msg)
}

func (b *Broker) publishMsg(msg *comm.WSMessage) {
	payload, err := json.Marshal(msg)
	if err != nil {
		log.Errorf("Error %s", err)
		return
	}
	b.Publish(comm.TopicGameService, payload)
}

// consume message from socket service
func (b *Broker) SubscribSocketService(topic string) (*nats.Subscription, error) {
	sub, err := b.Conn.Subscribe(topic, b.handleMessage)
	if err != nil {
		return nil, err
	}

	return sub, nil
}

func (b *Broker) Publish(topic string, payload []byte) error {
	err := b.Conn.Publish(topic, payload)
	if err != nil {
		log.Errorf("Error publishing to topic %s: %s", topic, err)
		return err
	}

	return nil
}
