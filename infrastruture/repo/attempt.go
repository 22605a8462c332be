package repo

import (
	"context"
	"errors"
	"time"

	"github.com/beka-birhanu/maze-arcade/game"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	defaultHistoryLimit     = 20
	defaultLeaderboardLimit = 10
	maxListLimit            = 100
)

// AttemptRepo stores finished attempts and ranks players by their wins.
type AttemptRepo struct {
	collection        *mongo.Collection
	playersCollection string
}

// NewAttemptRepo creates an AttemptRepo. playersCollection names the
// collection PlayerRepo writes to; the leaderboard joins usernames from it.
func NewAttemptRepo(client *mongo.Client, dbName, collectionName, playersCollection string) *AttemptRepo {
	return &AttemptRepo{
		collection:        client.Database(dbName).Collection(collectionName),
		playersCollection: playersCollection,
	}
}

// EnsureIndexes creates the indexes used by history and leaderboard queries.
func (a *AttemptRepo) EnsureIndexes(ctx context.Context) error {
	_, err := a.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "playerId", Value: 1}, {Key: "finishedAt", Value: -1}}},
		{Keys: bson.D{{Key: "won", Value: 1}, {Key: "playerId", Value: 1}}},
	})
	return err
}

// Record stores a finished attempt. Recording the same attempt twice keeps
// the latest write.
func (a *AttemptRepo) Record(ctx context.Context, record game.AttemptRecord) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	opts := options.Replace().SetUpsert(true)
	if _, err := a.collection.ReplaceOne(ctx, bson.M{"_id": record.AttemptID}, record, opts); err != nil {
		return errors.New("unexpected error: " + err.Error())
	}
	return nil
}

// ByPlayer returns the latest attempts of a player, newest first.
func (a *AttemptRepo) ByPlayer(ctx context.Context, player uuid.UUID, limit int) ([]game.AttemptRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "finishedAt", Value: -1}}).
		SetLimit(int64(clampLimit(limit, defaultHistoryLimit)))

	cursor, err := a.collection.Find(ctx, bson.M{"playerId": player}, opts)
	if err != nil {
		return nil, errors.New("unexpected error: " + err.Error())
	}

	records := make([]game.AttemptRecord, 0)
	if err := cursor.All(ctx, &records); err != nil {
		return nil, errors.New("unexpected error: " + err.Error())
	}
	return records, nil
}

// Leaderboard returns players ordered by the number of won attempts.
func (a *AttemptRepo) Leaderboard(ctx context.Context, limit int) ([]game.Standing, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"won": true}}},
		{{Key: "$group", Value: bson.M{"_id": "$playerId", "wins": bson.M{"$sum": 1}}}},
		{{Key: "$sort", Value: bson.D{{Key: "wins", Value: -1}, {Key: "_id", Value: 1}}}},
		{{Key: "$limit", Value: clampLimit(limit, defaultLeaderboardLimit)}},
		{{Key: "$lookup", Value: bson.M{
			"from":         a.playersCollection,
			"localField":   "_id",
			"foreignField": "_id",
			"as":           "player",
		}}},
		{{Key: "$unwind", Value: "$player"}},
		{{Key: "$project", Value: bson.M{"wins": 1, "username": "$player.username"}}},
	}

	cursor, err := a.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, errors.New("unexpected error: " + err.Error())
	}

	standings := make([]game.Standing, 0)
	if err := cursor.All(ctx, &standings); err != nil {
		return nil, errors.New("unexpected error: " + err.Error())
	}
	return standings, nil
}

func clampLimit(limit, fallback int) int {
	if limit <= 0 {
		return fallback
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}
