package audit

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CollectionName is the MongoDB collection audit entries live in.
const CollectionName = "auditlog"

// mongoRecorder is the MongoDB-backed audit recorder.
type mongoRecorder struct {
	coll    *mongo.Collection
	metrics *Metrics
}

// NewMongoRecorder creates a MongoDB-backed audit recorder and ensures
// the query and retention (TTL) indexes.
func NewMongoRecorder(ctx context.Context, coll *mongo.Collection, metrics *Metrics) (Recorder, error) {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "userId", Value: 1},
				{Key: "createdAt", Value: -1},
			},
		},
		{
			Keys: bson.D{
				{Key: "service", Value: 1},
				{Key: "createdAt", Value: -1},
			},
		},
		{
			Keys:    bson.D{{Key: "createdAt", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(int32(RetentionWindow / time.Second)),
		},
	}

	if _, err := coll.Indexes().CreateMany(ctx, indexes); err != nil {
		return nil, fmt.Errorf("failed to create audit indexes: %w", err)
	}

	return &mongoRecorder{coll: coll, metrics: metrics}, nil
}

func (r *mongoRecorder) Record(ctx context.Context, entry Entry) error {
	if _, err := r.coll.InsertOne(ctx, entry); err != nil {
		return fmt.Errorf("audit write failed: %w", err)
	}

	if r.metrics != nil {
		r.metrics.RecordEntry(entry.Service, entry.Status)
	}

	return nil
}

func (r *mongoRecorder) Query(ctx context.Context, filter Filter) ([]Entry, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultQueryLimit
	}

	query := bson.M{}
	if filter.UserID != "" {
		query["userId"] = filter.UserID
	}
	if filter.Service != "" {
		query["service"] = filter.Service
	}
	if filter.Status != "" {
		query["status"] = filter.Status
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := r.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("audit query failed: %w", err)
	}
	defer cursor.Close(ctx)

	var entries []Entry
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("audit decode failed: %w", err)
	}

	return entries, nil
}
