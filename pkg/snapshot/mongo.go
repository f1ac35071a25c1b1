package snapshot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go-pantheon/pkg/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// SnapshotCollection holds one document per slot
const SnapshotCollection = "world_snapshots"

// MongoStore keeps snapshots in MongoDB, one document per slot
type MongoStore struct {
	collection *mongo.Collection
}

type snapshotDocument struct {
	Slot      string    `bson:"_id"`
	Data      bson.Raw  `bson:"data"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// NewMongoStore creates a store on the world_snapshots collection
func NewMongoStore(mongodb *database.MongoDB) *MongoStore {
	return &MongoStore{
		collection: mongodb.Collection(SnapshotCollection),
	}
}

// Load implements Store
func (s *MongoStore) Load(ctx context.Context, slot string, dest any) (bool, error) {
	if err := ValidateSlot(slot); err != nil {
		return false, err
	}

	var doc snapshotDocument
	err := s.collection.FindOne(ctx, bson.M{"_id": slot}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to load snapshot %q: %w", slot, err)
	}

	if err := bson.Unmarshal(doc.Data, dest); err != nil {
		return false, fmt.Errorf("failed to decode snapshot %q: %w", slot, err)
	}
	return true, nil
}

// Save implements Store
func (s *MongoStore) Save(ctx context.Context, slot string, value any) error {
	if err := ValidateSlot(slot); err != nil {
		return err
	}

	data, err := bson.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot %q: %w", slot, err)
	}

	doc := snapshotDocument{
		Slot:      slot,
		Data:      data,
		UpdatedAt: time.Now().UTC(),
	}
	_, err = s.collection.ReplaceOne(ctx, bson.M{"_id": slot}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to save snapshot %q: %w", slot, err)
	}
	return nil
}
