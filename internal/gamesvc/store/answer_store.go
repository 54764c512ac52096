package store

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/avvvet/trivia-services/internal/gamesvc/models"
)

type AnswerStore struct {
	col *mongo.Collection
}

func NewAnswerStore(db *mongo.Database) *AnswerStore {
	return &AnswerStore{col: db.Collection("answers")}
}

// SubmitOnce records a team's answer at most once per question. The
// deterministic composite _id plus an $ifNull upsert pipeline makes the
// first write win: a repeated submission returns the stored record
// untouched. answered_at is the database's clock ($$NOW), so speed-bonus
// ordering never depends on skewed client clocks.
func (s *AnswerStore) SubmitOnce(ctx context.Context, gameCode string, questionID int64, teamID string, answerIndex int) (*models.Answer, error) {
	filter := bson.M{"_id": models.AnswerID(gameCode, questionID, teamID)}
	set := bson.M{
		"game_code":      bson.M{"$ifNull": bson.A{"$game_code", gameCode}},
		"question_id":    bson.M{"$ifNull": bson.A{"$question_id", questionID}},
		"team_id":        bson.M{"$ifNull": bson.A{"$team_id", teamID}},
		"answer_index":   bson.M{"$ifNull": bson.A{"$answer_index", answerIndex}},
		"scored":         bson.M{"$ifNull": bson.A{"$scored", false}},
		"is_correct":     bson.M{"$ifNull": bson.A{"$is_correct", false}},
		"points_awarded": bson.M{"$ifNull": bson.A{"$points_awarded", 0}},
		"answered_at":    bson.M{"$ifNull": bson.A{"$answered_at", "$$NOW"}},
	}

	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	ans := &models.Answer{}
	err := s.col.FindOneAndUpdate(ctx, filter, bson.A{bson.M{"$set": set}}, opts).Decode(ans)
	if err != nil {
		return nil, fmt.Errorf("failed to submit answer for team %s question %d: %w", teamID, questionID, err)
	}
	return ans, nil
}

// SaveResult persists one batch-scored result. Scoring fields are
// overwritten (recomputation yields the same values), while identity fields
// and answered_at stay first-write-wins so a real submission racing a
// synthesized unanswered record is preserved.
func (s *AnswerStore) SaveResult(ctx context.Context, a *models.Answer) error {
	filter := bson.M{"_id": a.ID}
	set := bson.M{
		"game_code":      bson.M{"$ifNull": bson.A{"$game_code", a.GameCode}},
		"question_id":    bson.M{"$ifNull": bson.A{"$question_id", a.QuestionID}},
		"team_id":        bson.M{"$ifNull": bson.A{"$team_id", a.TeamID}},
		"answer_index":   bson.M{"$ifNull": bson.A{"$answer_index", a.AnswerIndex}},
		"scored":         true,
		"is_correct":     a.IsCorrect,
		"points_awarded": a.PointsAwarded,
		"answered_at":    bson.M{"$ifNull": bson.A{"$answered_at", "$$NOW"}},
	}

	opts := options.Update().SetUpsert(true)
	_, err := s.col.UpdateOne(ctx, filter, bson.A{bson.M{"$set": set}}, opts)
	if err != nil {
		return fmt.Errorf("failed to save result %s: %w", a.ID, err)
	}
	return nil
}

func (s *AnswerStore) GetForQuestion(ctx context.Context, gameCode string, questionID int64) ([]*models.Answer, error) {
	cur, err := s.col.Find(ctx, bson.M{"game_code": gameCode, "question_id": questionID})
	if err != nil {
		return nil, fmt.Errorf("failed to list answers for game %s question %d: %w", gameCode, questionID, err)
	}
	defer cur.Close(ctx)

	var answers []*models.Answer
	for cur.Next(ctx) {
		a := &models.Answer{}
		if err := cur.Decode(a); err != nil {
			return nil, err
		}
		answers = append(answers, a)
	}
	return answers, cur.Err()
}

func (s *AnswerStore) CountForQuestion(ctx context.Context, gameCode string, questionID int64) (int, error) {
	n, err := s.col.CountDocuments(ctx, bson.M{"game_code": gameCode, "question_id": questionID})
	if err != nil {
		return 0, fmt.Errorf("failed to count answers for game %s question %d: %w", gameCode, questionID, err)
	}
	return int(n), nil
}

// TotalsByTeam recomputes every team's cumulative score for a session from
// its scored answers. This is the authoritative total; the cached value on
// the team record is only ever set from it.
func (s *AnswerStore) TotalsByTeam(ctx context.Context, gameCode string) (map[string]int, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"game_code": gameCode, "scored": true}}},
		{{Key: "$group", Value: bson.M{
			"_id":   "$team_id",
			"total": bson.M{"$sum": "$points_awarded"},
		}}},
	}

	cur, err := s.col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate totals for game %s: %w", gameCode, err)
	}
	defer cur.Close(ctx)

	totals := map[string]int{}
	for cur.Next(ctx) {
		var row struct {
			TeamID string `bson:"_id"`
			Total  int    `bson:"total"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		totals[row.TeamID] = row.Total
	}
	return totals, cur.Err()
}
