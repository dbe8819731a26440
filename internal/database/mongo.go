package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/iliyamo/summer-camp-booking/internal/model"
	"github.com/iliyamo/summer-camp-booking/internal/repository"
)

// Open connects to MongoDB with the Stable API v1 and verifies the
// connection with a ping against the admin database.  The returned client
// is shared by every request and must be disconnected on shutdown.
func Open(ctx context.Context, uri string) (*mongo.Client, error) {
	opts := options.Client().
		ApplyURI(uri).
		SetServerAPIOptions(options.ServerAPI(options.ServerAPIVersion1).SetStrict(true).SetDeprecationErrors(true)).
		// nested documents decode as bson.M so they serialize as JSON objects
		SetBSONOptions(&options.BSONOptions{DefaultDocumentM: true}).
		SetMaxPoolSize(25).
		SetConnectTimeout(10 * time.Second)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}

	// Ping with timeout
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := Ping(pingCtx, client); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return client, nil
}

// Ping runs {ping: 1} against the admin database.
func Ping(ctx context.Context, client *mongo.Client) error {
	if err := client.Database("admin").RunCommand(ctx, bson.D{{Key: "ping", Value: 1}}).Err(); err != nil {
		return fmt.Errorf("mongo ping: %w", err)
	}
	return nil
}

// EnsureIndexes creates the indexes the repositories rely on.  The unique
// email index on users backs idempotent registration; the others serve the
// per-owner filters of /menu/:email and /carts.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	specs := []struct {
		coll  string
		model mongo.IndexModel
	}{
		{repository.UsersCollection, mongo.IndexModel{Keys: bson.D{{Key: model.FieldEmail, Value: 1}}, Options: options.Index().SetUnique(true).SetName("uniq_email")}},
		{repository.MenuCollection, mongo.IndexModel{Keys: bson.D{{Key: model.FieldInstructorEmail, Value: 1}}, Options: options.Index().SetName("idx_instructor_email")}},
		{repository.CartCollection, mongo.IndexModel{Keys: bson.D{{Key: model.FieldEmail, Value: 1}}, Options: options.Index().SetName("idx_email")}},
	}
	for _, s := range specs {
		if _, err := db.Collection(s.coll).Indexes().CreateOne(ctx, s.model); err != nil {
			return fmt.Errorf("create index on %s: %w", s.coll, err)
		}
	}
	return nil
}
