package migrations

import (
	"context"
	"time"

	"go-pantheon/pkg/snapshot"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func init() {
	Register(Migration{
		Version:     "001_create_world_snapshots_indexes",
		Description: "Create indexes for the world_snapshots collection",
		Up:          up001,
		Down:        down001,
	})
}

func up001(ctx context.Context, db *mongo.Database) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "updated_at", Value: -1}},
			Options: options.Index().SetName("updated_at_desc"),
		},
	}

	opts := options.CreateIndexes().SetMaxTime(30 * time.Second)
	_, err := db.Collection(snapshot.SnapshotCollection).Indexes().CreateMany(ctx, indexes, opts)
	if err != nil && !isIndexExistsError(err) {
		return err
	}
	return nil
}

func down001(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(snapshot.SnapshotCollection).Indexes().DropOne(ctx, "updated_at_desc")
	return err
}
