package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"time"

	log "github.com/sirupsen/logrus"

	config "github.com/avvvet/trivia-services/configs"
	mongodb "github.com/avvvet/trivia-services/internal/db"
	"github.com/avvvet/trivia-services/internal/gamesvc/broker"
	"github.com/avvvet/trivia-services/internal/gamesvc/db"
	"github.com/avvvet/trivia-services/internal/gamesvc/service"
	"github.com/avvvet/trivia-services/internal/gamesvc/session"
	"github.com/avvvet/trivia-services/internal/gamesvc/store"
	natscli "github.com/avvvet/trivia-services/internal/nats"
)

const SERVICE_NAME = "timer"

// tickInterval bounds how late an expired auto-transition can fire.
const tickInterval = 1 * time.Second

var instanceId string

func init() {
	instanceId = "001"
	config.Logging(SERVICE_NAME + "_service_" + instanceId)
	config.LoadEnv(SERVICE_NAME)
}

func main() {
	// pg connection, question bank
	dbpool, err := db.Connect()
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}
	defer db.ClosePool()
	log.Printf("pg connection established successfully")

	// mongo connection, live session state
	mdb, cancelMongo, err := mongodb.ConnectToDB()
	if err != nil {
		log.Fatalf("Failed to connect to mongo: %v", err)
	}
	defer cancelMongo()
	log.Printf("mongo connection established successfully")

	// connect to NATS
	n, err := natscli.Connect()
	if err != nil {
		log.Fatalf("unable to connect to NATS: %v", err)
	}
	defer n.Conn.Close()
	log.Infof("NATS connected at %s", n.Url)

	pub := broker.NewPublisher(n.Conn)

	sessionStore := store.NewSessionStore(mdb)
	teamStore := store.NewTeamStore(mdb)
	answerStore := store.NewAnswerStore(mdb)
	questionStore := store.NewQuestionStore(dbpool)

	sessionService := service.NewSessionService(sessionStore, teamStore, questionStore, answerStore, pub)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)

	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	log.Infof("%s service running, firing due transitions every %s", SERVICE_NAME, tickInterval)

	for {
		select {
		case <-ticker.C:
			fireDueTransitions(sessionService)
		case <-stop:
			log.Infof("%s service gracefully stopped", SERVICE_NAME)
			return
		}
	}
}

// fireDueTransitions advances every session whose scheduled transition has
// expired. Any observer may fire these; a concurrent instance or an eager
// client racing the same step simply loses the conditional write, so a
// lost race is noise, not an error.
func fireDueTransitions(sessionService *service.SessionService) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	due, err := sessionService.ListDueTransitions(ctx, time.Now().UTC())
	if err != nil {
		log.Errorf("unable to list due transitions: %v", err)
		return
	}

	for _, sess := range due {
		updated, err := sessionService.Advance(ctx, sess.Code, session.TriggerTimer)
		if err != nil {
			if errors.Is(err, service.ErrConflict) || errors.Is(err, service.ErrInvalidState) {
				log.Debugf("transition for session %s already taken", sess.Code)
				continue
			}
			log.Errorf("unable to advance session %s: %v", sess.Code, err)
			continue
		}
		log.Infof("session %s advanced to %s", sess.Code, updated.Status)
	}
}
