package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/avvvet/trivia-services/internal/gamesvc/models"
)

type TeamStore struct {
	col *mongo.Collection
}

func NewTeamStore(db *mongo.Database) *TeamStore {
	return &TeamStore{col: db.Collection("teams")}
}

// GetOrCreate joins a team into a session, or returns the existing record
// when the same name rejoins the same game. The upsert pipeline keeps every
// already-set field ($ifNull), so a reconnect never clobbers score or
// mascot, and joined_at is assigned by the database.
func (s *TeamStore) GetOrCreate(ctx context.Context, gameCode, name string, id string, mascotID int) (*models.Team, error) {
	filter := bson.M{"game_code": gameCode, "name": name}
	set := bson.M{
		"_id":         bson.M{"$ifNull": bson.A{"$_id", id}},
		"mascot_id":   bson.M{"$ifNull": bson.A{"$mascot_id", mascotID}},
		"is_active":   bson.M{"$ifNull": bson.A{"$is_active", true}},
		"total_score": bson.M{"$ifNull": bson.A{"$total_score", 0}},
		"joined_at":   bson.M{"$ifNull": bson.A{"$joined_at", "$$NOW"}},
		"updated_at":  "$$NOW",
	}

	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	team := &models.Team{}
	err := s.col.FindOneAndUpdate(ctx, filter, bson.A{bson.M{"$set": set}}, opts).Decode(team)
	if err != nil {
		return nil, fmt.Errorf("failed to join team %s to game %s: %w", name, gameCode, err)
	}
	return team, nil
}

func (s *TeamStore) Get(ctx context.Context, teamID string) (*models.Team, error) {
	team := &models.Team{}
	err := s.col.FindOne(ctx, bson.M{"_id": teamID}).Decode(team)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil // team not found
		}
		return nil, fmt.Errorf("failed to get team %s: %w", teamID, err)
	}
	return team, nil
}

func (s *TeamStore) ListActive(ctx context.Context, gameCode string) ([]*models.Team, error) {
	cur, err := s.col.Find(ctx, bson.M{"game_code": gameCode, "is_active": true})
	if err != nil {
		return nil, fmt.Errorf("failed to list teams for game %s: %w", gameCode, err)
	}
	defer cur.Close(ctx)

	var teams []*models.Team
	for cur.Next(ctx) {
		team := &models.Team{}
		if err := cur.Decode(team); err != nil {
			return nil, err
		}
		teams = append(teams, team)
	}
	return teams, cur.Err()
}

func (s *TeamStore) SetMascot(ctx context.Context, teamID string, mascotID int) error {
	return s.setField(ctx, teamID, bson.M{"mascot_id": mascotID})
}

// SetActive soft-deletes or restores a team. Teams are never hard-deleted
// once a game has started, so historical scoring stays consistent.
func (s *TeamStore) SetActive(ctx context.Context, teamID string, active bool) error {
	return s.setField(ctx, teamID, bson.M{"is_active": active})
}

// SetTotalScore overwrites the derived total. Totals are recomputed from
// scored answers and set, never incremented, so re-running a batch close
// cannot double-count.
func (s *TeamStore) SetTotalScore(ctx context.Context, teamID string, total int) error {
	return s.setField(ctx, teamID, bson.M{"total_score": total})
}

func (s *TeamStore) setField(ctx context.Context, teamID string, fields bson.M) error {
	set := bson.M{"updated_at": "$$NOW"}
	for k, v := range fields {
		set[k] = v
	}

	res, err := s.col.UpdateOne(ctx, bson.M{"_id": teamID}, bson.A{bson.M{"$set": set}})
	if err != nil {
		return fmt.Errorf("failed to update team %s: %w", teamID, err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
