package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/avvvet/trivia-services/internal/gamesvc/models"
)

type SessionStore struct {
	col *mongo.Collection
}

func NewSessionStore(db *mongo.Database) *SessionStore {
	return &SessionStore{col: db.Collection("sessions")}
}

// TransitionWrite describes one fenced state-machine write. From and Fence
// are the prior status and scheduled-transition token the decision was
// computed from; the write no-ops if either has moved on.
type TransitionWrite struct {
	From  models.Status
	Fence *time.Time

	To           models.Status
	AdvanceIndex bool
	ScheduleMs   int64
	MarkStarted  bool
	ResultsReady *bool
	Category     *string
}

func (s *SessionStore) Create(ctx context.Context, sess *models.Session) error {
	if _, err := s.col.InsertOne(ctx, sess); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrConflict
		}
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

func (s *SessionStore) Get(ctx context.Context, code string) (*models.Session, error) {
	sess := &models.Session{}
	err := s.col.FindOne(ctx, bson.M{"_id": code}).Decode(sess)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil // session not found
		}
		return nil, fmt.Errorf("failed to get session %s: %w", code, err)
	}
	return sess, nil
}

// Transition applies a state-machine decision as a single conditional
// update. The filter doubles as the fencing token: status plus the scheduled
// transition timestamp must still match what the caller read, so redundant
// fires from racing clients resolve to exactly one winner. Timestamps are
// assigned by the database ($$NOW), never by a client clock.
func (s *SessionStore) Transition(ctx context.Context, code string, w TransitionWrite) (*models.Session, error) {
	filter := bson.M{"_id": code, "status": string(w.From)}
	if w.Fence != nil {
		filter["transition_scheduled_at"] = *w.Fence
	} else {
		filter["transition_scheduled_at"] = nil
	}

	set := bson.M{
		"status":     string(w.To),
		"updated_at": "$$NOW",
	}
	if w.AdvanceIndex {
		set["current_question_index"] = bson.M{"$add": bson.A{"$current_question_index", 1}}
		set["results_ready"] = false
	}
	if w.ResultsReady != nil {
		set["results_ready"] = *w.ResultsReady
	}
	if w.MarkStarted {
		set["started_at"] = "$$NOW"
	}
	if w.Category != nil {
		set["current_category"] = bson.M{"$literal": *w.Category}
	}
	if w.ScheduleMs > 0 {
		set["transition_scheduled_at"] = "$$NOW"
		set["transition_duration_ms"] = w.ScheduleMs
	} else {
		set["transition_scheduled_at"] = nil
		set["transition_duration_ms"] = 0
	}
	if w.To == models.StatusGameEnd {
		set["is_active"] = false
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	updated := &models.Session{}
	err := s.col.FindOneAndUpdate(ctx, filter, bson.A{bson.M{"$set": set}}, opts).Decode(updated)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("failed to transition session %s: %w", code, err)
	}
	return updated, nil
}

// ListPendingTransitions returns active sessions carrying a scheduled
// auto-transition, due or not. Callers compare the deadline themselves.
func (s *SessionStore) ListPendingTransitions(ctx context.Context) ([]*models.Session, error) {
	cur, err := s.col.Find(ctx, bson.M{
		"is_active":               true,
		"transition_scheduled_at": bson.M{"$ne": nil},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list pending transitions: %w", err)
	}
	defer cur.Close(ctx)

	var sessions []*models.Session
	for cur.Next(ctx) {
		sess := &models.Session{}
		if err := cur.Decode(sess); err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}
	return sessions, cur.Err()
}
