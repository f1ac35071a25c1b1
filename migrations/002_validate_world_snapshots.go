package migrations

import (
	"context"

	"go-pantheon/pkg/snapshot"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

func init() {
	Register(Migration{
		Version:     "002_validate_world_snapshots",
		Description: "Require a data document and update time on every world snapshot",
		Up:          up002,
		Down:        down002,
	})
}

var snapshotSchema = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": bson.A{"_id", "data", "updated_at"},
		"properties": bson.M{
			"_id":        bson.M{"bsonType": "string", "enum": bson.A{"religions", "civilizations", "diplomacy"}},
			"data":       bson.M{"bsonType": "object"},
			"updated_at": bson.M{"bsonType": "date"},
		},
	},
}

func up002(ctx context.Context, db *mongo.Database) error {
	if err := db.CreateCollection(ctx, snapshot.SnapshotCollection); err != nil && !isNamespaceExistsError(err) {
		return err
	}
	return db.RunCommand(ctx, bson.D{
		{Key: "collMod", Value: snapshot.SnapshotCollection},
		{Key: "validator", Value: snapshotSchema},
		{Key: "validationLevel", Value: "moderate"},
	}).Err()
}

func down002(ctx context.Context, db *mongo.Database) error {
	return db.RunCommand(ctx, bson.D{
		{Key: "collMod", Value: snapshot.SnapshotCollection},
		{Key: "validator", Value: bson.M{}},
	}).Err()
}
