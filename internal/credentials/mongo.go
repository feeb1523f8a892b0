package credentials

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CollectionName is the MongoDB collection credential records live in.
const CollectionName = "credentials"

// credentialRecord is the persisted shape of a StoredCredential.
type credentialRecord struct {
	UserID           string    `bson:"userId"`
	Service          string    `bson:"service"`
	EncryptedPayload string    `bson:"encryptedPayload"`
	UpdatedAt        time.Time `bson:"updatedAt"`
}

// mongoStore is the MongoDB-backed credential store.
type mongoStore struct {
	coll *mongo.Collection
}

// NewMongoStore creates a MongoDB-backed credential store and ensures the
// unique (userId, service) index.
func NewMongoStore(ctx context.Context, coll *mongo.Collection) (Store, error) {
	_, err := coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "userId", Value: 1},
			{Key: "service", Value: 1},
		},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create credentials index: %w", err)
	}

	return &mongoStore{coll: coll}, nil
}

func (s *mongoStore) Upsert(ctx context.Context, userID, service, encryptedPayload string) error {
	filter := bson.M{"userId": userID, "service": service}
	update := bson.M{"$set": bson.M{
		"encryptedPayload": encryptedPayload,
		"updatedAt":        time.Now().UTC(),
	}}

	_, err := s.coll.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to upsert credential: %w", err)
	}
	return nil
}

func (s *mongoStore) Find(ctx context.Context, userID, service string) (string, bool, error) {
	filter := bson.M{"userId": userID, "service": service}

	var record credentialRecord
	err := s.coll.FindOne(ctx, filter).Decode(&record)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to find credential: %w", err)
	}

	return record.EncryptedPayload, true, nil
}

func (s *mongoStore) Delete(ctx context.Context, userID, service string) error {
	filter := bson.M{"userId": userID, "service": service}

	if _, err := s.coll.DeleteOne(ctx, filter); err != nil {
		return fmt.Errorf("failed to delete credential: %w", err)
	}
	return nil
}
