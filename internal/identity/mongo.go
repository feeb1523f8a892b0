package identity

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CollectionName is the MongoDB collection users live in.
const CollectionName = "users"

// mongoDirectory is the MongoDB-backed Directory.
type mongoDirectory struct {
	coll *mongo.Collection
}

// NewMongoDirectory creates a MongoDB-backed Directory and ensures the
// unique username index.
func NewMongoDirectory(ctx context.Context, coll *mongo.Collection) (Directory, error) {
	index := mongo.IndexModel{
		Keys:    bson.D{{Key: "username", Value: 1}},
		Options: options.Index().SetUnique(true),
	}

	if _, err := coll.Indexes().CreateOne(ctx, index); err != nil {
		return nil, fmt.Errorf("failed to create username index: %w", err)
	}

	return &mongoDirectory{coll: coll}, nil
}

func (d *mongoDirectory) GetUserByID(ctx context.Context, userID string) (Identity, error) {
	return d.findOne(ctx, bson.M{"_id": userID})
}

func (d *mongoDirectory) GetUserByUsername(ctx context.Context, username string) (Identity, error) {
	return d.findOne(ctx, bson.M{"username": username})
}

func (d *mongoDirectory) findOne(ctx context.Context, filter bson.M) (Identity, error) {
	var user Identity
	err := d.coll.FindOne(ctx, filter).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Identity{}, ErrUserNotFound
	}
	if err != nil {
		return Identity{}, fmt.Errorf("user lookup failed: %w", err)
	}
	return user, nil
}
