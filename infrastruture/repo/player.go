package repo

import (
	"context"
	"errors"
	"time"

	"github.com/beka-birhanu/maze-arcade/identity"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrPlayerNotFound   = errors.New("player not found")
	ErrUsernameConflict = identity.ErrUsernameTaken
)

// PlayerRepo handles the persistence of player accounts.
type PlayerRepo struct {
	collection *mongo.Collection
}

// NewPlayerRepo creates a new PlayerRepo with the given MongoDB client, database name, and collection name.
func NewPlayerRepo(client *mongo.Client, dbName, collectionName string) *PlayerRepo {
	collection := client.Database(dbName).Collection(collectionName)
	return &PlayerRepo{
		collection: collection,
	}
}

// EnsureIndexes creates the unique username index.
func (p *PlayerRepo) EnsureIndexes(ctx context.Context) error {
	_, err := p.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "username", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

// Save inserts or updates a player in the repository.
// If the player already exists, it updates the existing record.
// If the player does not exist, it adds a new record.
func (p *PlayerRepo) Save(ctx context.Context, player *identity.Player) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	filter := bson.M{"_id": player.ID}
	update := bson.M{
		"$set": bson.M{
			"username":     player.Username,
			"passwordHash": player.PasswordHash,
			"updatedAt":    time.Now().UTC(),
		},
		"$setOnInsert": bson.M{
			"createdAt": player.CreatedAt,
		},
	}

	opts := options.Update().SetUpsert(true)
	_, err := p.collection.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrUsernameConflict
		}
		return errors.New("unexpected error: " + err.Error())
	}

	return nil
}

// ByID retrieves a player by their ID.
func (p *PlayerRepo) ByID(ctx context.Context, id uuid.UUID) (*identity.Player, error) {
	return p.findOne(ctx, bson.M{"_id": id})
}

// ByUsername retrieves a player by their username.
func (p *PlayerRepo) ByUsername(ctx context.Context, username string) (*identity.Player, error) {
	return p.findOne(ctx, bson.M{"username": username})
}

func (p *PlayerRepo) findOne(ctx context.Context, filter bson.M) (*identity.Player, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	var player identity.Player
	if err := p.collection.FindOne(ctx, filter).Decode(&player); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrPlayerNotFound
		}
		return nil, errors.New("unexpected error: " + err.Error())
	}
	return &player, nil
}
