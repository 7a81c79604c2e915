package db

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func NewMongo(uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	serverAPI := options.ServerAPI(options.ServerAPIVersion1)
	opts := options.Client().ApplyURI(uri).SetServerAPIOptions(serverAPI)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, err
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	return client, nil
}

// EnsureIndexes creates the indexes the stores depend on. The unique email
// index is what turns a concurrent duplicate sign-in into a duplicate key
// error.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	indexes := map[string][]mongo.IndexModel{
		"users": {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true).SetName("users_email_uniq")},
		},
		"courseCart": {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetName("cart_email")},
		},
		"coursePayment": {
			{Keys: bson.D{{Key: "email", Value: 1}, {Key: "created_at", Value: -1}}, Options: options.Index().SetName("payments_email_created")},
			{Keys: bson.D{{Key: "cart_cleared", Value: 1}, {Key: "created_at", Value: 1}}, Options: options.Index().SetName("payments_uncleared")},
		},
	}

	for coll, models := range indexes {
		if _, err := db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create indexes on %s: %w", coll, err)
		}
	}
	return nil
}
