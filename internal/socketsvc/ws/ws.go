package ws

import (
	"encoding/json"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/avvvet/trivia-services/internal/comm"
	"github.com/avvvet/trivia-services/internal/socketsvc/broker"
	"github.com/gorilla/websocket"
)

type Ws struct {
	connMap sync.Map // to keep track of socket connection with socketId
	roomMap sync.Map // to keep track of gameCode with socketId
	Broker  *broker.Broker
}

func NewWs() *Ws {
	return &Ws{}
}

// handle socket message from web clients
func (s *Ws) SocketMessage(socketId string, message *comm.WSMessage) {
	switch message.Type {
	case "join-session":
		s.handleJoin(socketId, message)
	case "watch-session":
		s.handleWatch(socketId, message)
	case "select-mascot", "leave-session", "submit-answer", "get-session":
		s.forward(socketId, message)
	default:
		log.Warnf("unknown event received: %s", message.Type)
	}
}

// handleJoin registers the socket in the session's room before forwarding,
// so the join's own snapshot broadcast already reaches this client.
func (s *Ws) handleJoin(socketId string, msg *comm.WSMessage) {
	payload := comm.JoinSessionRequest{}
	if err := json.Unmarshal(msg.Data, &payload); err != nil {
		log.Errorf("Error: invalid_join_data Malformed join payload %s", err)
		return
	}

	if payload.GameCode == "" || payload.Name == "" {
		log.Error("Invalid join payload: missing game code or team name")
		return
	}

	s.StoreRoom(socketId, payload.GameCode)
	s.forward(socketId, msg)
}

// handleWatch subscribes a view-only client (host screen, projector) to a
// session's broadcasts and requests an initial snapshot.
func (s *Ws) handleWatch(socketId string, msg *comm.WSMessage) {
	payload := comm.WatchSessionRequest{}
	if err := json.Unmarshal(msg.Data, &payload); err != nil {
		log.Errorf("Error: invalid_watch_data Malformed watch payload %s", err)
		return
	}

	if payload.GameCode == "" {
		log.Error("Invalid watch payload: missing game code")
		return
	}

	s.StoreRoom(socketId, payload.GameCode)

	get := &comm.WSMessage{Type: "get-session", Data: msg.Data}
	s.forward(socketId, get)
}

// forward relays the client message to the game service over NATS.
func (s *Ws) forward(socketId string, msg *comm.WSMessage) {
	msg.SocketId = socketId

	bytes, err := json.Marshal(msg)
	if err != nil {
		log.Errorf("Failed to marshal WSMessage for NATS: %v", err)
		return
	}

	topic := comm.TopicSocketService
	if err := s.Broker.Publish(topic, bytes); err != nil {
		log.Errorf("Failed to publish to NATS topic %s: %v", topic, err)
		return
	}

	log.Debugf("Published %s message for socket %s to topic %s", msg.Type, socketId, topic)
}

func (s *Ws) StoreConnection(socketId string, conn *websocket.Conn) {
	s.connMap.Store(socketId, conn)
}

func (s *Ws) GetConnection(socketId string) (*websocket.Conn, bool) {
	conn, ok := s.connMap.Load(socketId)
	if !ok {
		return nil, false
	}
	return conn.(*websocket.Conn), true
}

func (s *Ws) StoreRoom(socketId string, gameCode string) {
	s.roomMap.Store(socketId, gameCode)
}

func (s *Ws) GetRoom(socketId string) (string, bool) {
	room, ok := s.roomMap.Load(socketId)
	if !ok {
		return "", false
	}
	return room.(string), true
}

func (s *Ws) GetRoomSockets(gameCode string) ([]string, bool) {
	var sockets []string
	found := false

	s.roomMap.Range(func(key, value interface{}) bool {
		if value.(string) == gameCode {
			sockets = append(sockets, key.(string))
			found = true
		}
		return true // continue iterating
	})

	return sockets, found
}

// HandleDisconnect drops the socket from the connection and room maps. The
// team record itself stays: the same name can rejoin and pick up where it
// left off.
func (s *Ws) HandleDisconnect(socketId string) {
	s.connMap.Delete(socketId)
	s.roomMap.Delete(socketId)
}
