package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/FL-AZ-EIC/fezwd-backend/statusfeed/internal/model"
)

const (
	statusCollection = "statuses"
	logCollection    = "logs"
)

// MongoStatusStore persists status records keyed by their lowercase id.
type MongoStatusStore struct {
	coll *mongo.Collection
}

func NewMongoStatusStore(db *mongo.Database) *MongoStatusStore {
	return &MongoStatusStore{coll: db.Collection(statusCollection)}
}

func (s *MongoStatusStore) Get(ctx context.Context, id string) (model.StatusRecord, bool, error) {
	var rec model.StatusRecord
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return model.StatusRecord{}, false, nil
	}
	if err != nil {
		return model.StatusRecord{}, false, fmt.Errorf("find status %q: %w", id, err)
	}
	return rec, true, nil
}

func (s *MongoStatusStore) Upsert(ctx context.Context, rec model.StatusRecord) error {
	opts := options.Replace().SetUpsert(true)
	if _, err := s.coll.ReplaceOne(ctx, bson.M{"_id": rec.ID}, rec, opts); err != nil {
		return fmt.Errorf("upsert status %q: %w", rec.ID, err)
	}
	return nil
}

func (s *MongoStatusStore) List(ctx context.Context) ([]model.StatusRecord, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	cursor, err := s.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list statuses: %w", err)
	}
	out := []model.StatusRecord{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode statuses: %w", err)
	}
	return out, nil
}

// MongoLogStore persists log entries with a hard most-recent-N bound.
type MongoLogStore struct {
	coll     *mongo.Collection
	capacity int
}

func NewMongoLogStore(db *mongo.Database, capacity int) *MongoLogStore {
	return &MongoLogStore{coll: db.Collection(logCollection), capacity: capacity}
}

func (s *MongoLogStore) Append(ctx context.Context, entry model.LogEntry) error {
	if _, err := s.coll.InsertOne(ctx, entry); err != nil {
		return fmt.Errorf("insert log entry: %w", err)
	}
	return s.trim(ctx)
}

// trim deletes everything beyond the newest capacity entries.
func (s *MongoLogStore) trim(ctx context.Context) error {
	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(int64(s.capacity)).
		SetProjection(bson.M{"_id": 1})
	cursor, err := s.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return fmt.Errorf("scan excess log entries: %w", err)
	}
	var excess []struct {
		ID string `bson:"_id"`
	}
	if err := cursor.All(ctx, &excess); err != nil {
		return fmt.Errorf("decode excess log entries: %w", err)
	}
	if len(excess) == 0 {
		return nil
	}
	ids := make([]string, len(excess))
	for i, doc := range excess {
		ids[i] = doc.ID
	}
	if _, err := s.coll.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}}); err != nil {
		return fmt.Errorf("trim log entries: %w", err)
	}
	return nil
}

func (s *MongoLogStore) Recent(ctx context.Context, limit int) ([]model.LogEntry, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(int64(limit))
	cursor, err := s.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list log entries: %w", err)
	}
	out := []model.LogEntry{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode log entries: %w", err)
	}
	return out, nil
}

// Acknowledge uses a single conditional update so the found / unflipped /
// wrong-type checks and the flip happen atomically in the store.
func (s *MongoLogStore) Acknowledge(ctx context.Context, id string) (model.LogEntry, error) {
	filter := bson.M{
		"_id":          id,
		"acknowledged": false,
		"type":         bson.M{"$in": bson.A{model.LogTypeWarning, model.LogTypeAlarm}},
	}
	update := bson.M{"$set": bson.M{"acknowledged": true}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var entry model.LogEntry
	err := s.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&entry)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return model.LogEntry{}, ErrNotAckable
	}
	if err != nil {
		return model.LogEntry{}, fmt.Errorf("acknowledge log entry %q: %w", id, err)
	}
	return entry, nil
}
