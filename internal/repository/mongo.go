package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const resultsCollection = "results"

// MongoStore archives every finished round as a document.
type MongoStore struct {
	db  *mongo.Database
	log *zap.SugaredLogger
}

func NewMongoStore(db *mongo.Database, log *zap.SugaredLogger) *MongoStore {
	return &MongoStore{db: db, log: log}
}

func (m *MongoStore) Record(ctx context.Context, r Result) error {
	if !validOutcome(r.Outcome) {
		return fmt.Errorf("%w: %q", ErrUnknownOutcome, r.Outcome)
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if _, err := m.db.Collection(resultsCollection).InsertOne(ctx, r); err != nil {
		return fmt.Errorf("mongo record: %w", err)
	}
	m.log.Debugf("result stored for game %s round %d", r.GameID, r.Round)
	return nil
}

func (m *MongoStore) Tally(ctx context.Context) (map[string]int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$outcome"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	}
	cursor, err := m.db.Collection(resultsCollection).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("mongo tally: %w", err)
	}
	defer cursor.Close(ctx)

	out := make(map[string]int64)
	for cursor.Next(ctx) {
		var row struct {
			Outcome string `bson:"_id"`
			Count   int64  `bson:"count"`
		}
		if err := cursor.Decode(&row); err != nil {
			return nil, fmt.Errorf("mongo tally: %w", err)
		}
		out[row.Outcome] = row.Count
	}
	return out, cursor.Err()
}

func (m *MongoStore) Recent(ctx context.Context, limit int) ([]Result, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	opts := options.Find().SetSort(bson.D{{Key: "finished", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cursor, err := m.db.Collection(resultsCollection).Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo recent: %w", err)
	}
	defer cursor.Close(ctx)

	var out []Result
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("mongo recent: %w", err)
	}
	return out, nil
}
