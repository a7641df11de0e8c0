package mongo

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/yamdb/yamdb-api/internal/core/ports"
)

const (
	defaultTimeout = 10 * time.Second
	indexTimeout   = 30 * time.Second
)

const (
	collectionUsers      = "users"
	collectionCategories = "categories"
	collectionGenres     = "genres"
	collectionTitles     = "titles"
	collectionReviews    = "reviews"
	collectionComments   = "comments"
)

// Index names are matched against duplicate-key errors to tell which
// constraint was violated.
const (
	indexUsername     = "users_username_unique"
	indexEmail        = "users_email_unique"
	indexReviewAuthor = "reviews_title_author_unique"
)

// Config captures the minimal settings required to establish a MongoDB connection.
type Config struct {
	URI      string
	Database string
	Timeout  time.Duration
}

// Connect establishes a MongoDB client, verifies connectivity with a ping, and
// returns both the client and the selected database. A default timeout is
// applied when none is provided.
func Connect(ctx context.Context, cfg Config) (*mongo.Client, *mongo.Database, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, nil, fmt.Errorf("mongo connect: %w", err)
	}

	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(connectCtx)
		return nil, nil, fmt.Errorf("mongo ping: %w", err)
	}

	db := client.Database(cfg.Database)
	return client, db, nil
}

// EnsureIndexes creates the indexes every repository relies on. The unique
// ones carry the application's uniqueness rules, so startup must fail if
// they cannot be built.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()

	unique := func(name string) *options.IndexOptions {
		return options.Index().SetName(name).SetUnique(true)
	}

	plan := map[string][]mongo.IndexModel{
		collectionUsers: {
			{Keys: bson.D{{Key: "username", Value: 1}}, Options: unique(indexUsername)},
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: unique(indexEmail)},
		},
		collectionCategories: {
			{Keys: bson.D{{Key: "slug", Value: 1}}, Options: unique("categories_slug_unique")},
		},
		collectionGenres: {
			{Keys: bson.D{{Key: "slug", Value: 1}}, Options: unique("genres_slug_unique")},
		},
		collectionTitles: {
			{Keys: bson.D{{Key: "category", Value: 1}}},
			{Keys: bson.D{{Key: "genres", Value: 1}}},
			{Keys: bson.D{{Key: "year", Value: 1}}},
		},
		collectionReviews: {
			{Keys: bson.D{{Key: "title_id", Value: 1}, {Key: "author_id", Value: 1}}, Options: unique(indexReviewAuthor)},
			{Keys: bson.D{{Key: "title_id", Value: 1}, {Key: "pub_date", Value: -1}}},
		},
		collectionComments: {
			{Keys: bson.D{{Key: "review_id", Value: 1}, {Key: "pub_date", Value: -1}}},
			{Keys: bson.D{{Key: "title_id", Value: 1}}},
		},
	}

	for coll, models := range plan {
		if _, err := db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("ensure indexes on %s: %w", coll, err)
		}
	}
	return nil
}

// findPage applies the skip/limit of a normalized page plus a sort.
func findPage(p ports.Page, sort bson.D) *options.FindOptions {
	return options.Find().
		SetSort(sort).
		SetSkip(p.Offset()).
		SetLimit(int64(p.Limit))
}

// containsFold builds a case-insensitive substring match.
func containsFold(s string) bson.M {
	return bson.M{"$regex": regexp.QuoteMeta(s), "$options": "i"}
}

// decodeAll drains a cursor into a slice of pointers.
func decodeAll[T any](ctx context.Context, cur *mongo.Cursor) ([]*T, error) {
	defer cur.Close(ctx)
	var out []*T
	for cur.Next(ctx) {
		var v T
		if err := cur.Decode(&v); err != nil {
			return nil, err
		}
		out = append(out, &v)
	}
	return out, cur.Err()
}
