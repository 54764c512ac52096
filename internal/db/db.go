package db

import (
	"context"
	"log"
	"net/url"
	"os"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func ConnectToDB() (*mongo.Database, context.CancelFunc, error) {
	mongoURI := os.Getenv("MONGODB_URI")

	uri, err := url.Parse(mongoURI)
	if err != nil {
		log.Fatalf("Error parsing MongoDB URI: %v", err)
		return nil, nil, err
	}

	dbName := strings.TrimPrefix(uri.Path, "/")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI))
	if err != nil {
		log.Fatalf("Error connecting to MongoDB: %v", err)
		return nil, nil, err
	}

	if err := client.Ping(ctx, nil); err != nil {
		log.Fatalf("Error pinging MongoDB: %v", err)
		return nil, nil, err
	}

	db := client.Database(dbName)

	return db, cancel, nil
}

// EnsureIndexes creates the indexes the live game collections rely on:
// team lookup per game, the per-question answer scan, and the unique team
// name per game backing the join-or-rejoin upsert.
func EnsureIndexes(db *mongo.Database) {
	teamIdx := []mongo.IndexModel{
		{Keys: bson.D{{Key: "game_code", Value: 1}, {Key: "is_active", Value: 1}}},
		{
			Keys:    bson.D{{Key: "game_code", Value: 1}, {Key: "name", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}
	if _, err := db.Collection("teams").Indexes().CreateMany(context.TODO(), teamIdx); err != nil {
		log.Fatal(err)
	}

	answerIdx := mongo.IndexModel{
		Keys: bson.D{{Key: "game_code", Value: 1}, {Key: "question_id", Value: 1}},
	}
	if _, err := db.Collection("answers").Indexes().CreateOne(context.TODO(), answerIdx); err != nil {
		log.Fatal(err)
	}

	sessionIdx := mongo.IndexModel{
		Keys: bson.D{{Key: "is_active", Value: 1}, {Key: "transition_scheduled_at", Value: 1}},
	}
	if _, err := db.Collection("sessions").Indexes().CreateOne(context.TODO(), sessionIdx); err != nil {
		log.Fatal(err)
	}
}
