package database

import (
	"context"
	"fmt"
	"time"

	"blogapi/config"
	"blogapi/store"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	PostsCollection    = "posts"
	CommentsCollection = "comments"
	UsersCollection    = "users"

	connectAttempts = 3
	retryDelay      = 2 * time.Second
)

// DB bundles the collections the services work on. Client is nil for the
// in-memory driver.
type DB struct {
	Client   *mongo.Client
	Database *mongo.Database

	Posts    store.Collection
	Comments store.Collection
	Users    store.Collection
}

// Open connects to the store selected by cfg.StoreDriver.
func Open(ctx context.Context, cfg *config.Config, log *logrus.Logger) (*DB, error) {
	if cfg.StoreDriver == config.DriverMemory {
		log.Warn("using in-memory store, data is lost on exit")
		return NewMemory(), nil
	}
	return Connect(ctx, cfg.MongoURI, cfg.Database, log)
}

// NewMemory returns a DB backed by process memory.
func NewMemory() *DB {
	return &DB{
		Posts:    store.NewMemoryCollection(PostsCollection),
		Comments: store.NewMemoryCollection(CommentsCollection),
		Users:    store.NewMemoryCollection(UsersCollection, "email"),
	}
}

// Connect dials MongoDB, retrying a few times, and pings it.
func Connect(ctx context.Context, uri, name string, log *logrus.Logger) (*DB, error) {
	var lastErr error
	for attempt := 1; attempt <= connectAttempts; attempt++ {
		client, err := dial(ctx, uri)
		if err == nil {
			log.WithField("database", name).Info("connected to MongoDB")
			return newMongoDB(client, name), nil
		}
		lastErr = err
		log.WithError(err).Warnf("MongoDB connection attempt %d failed", attempt)

		if attempt == connectAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(retryDelay):
		}
	}
	return nil, fmt.Errorf("connect to MongoDB: %w", lastErr)
}

func dial(ctx context.Context, uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return client, nil
}

func newMongoDB(client *mongo.Client, name string) *DB {
	db := client.Database(name)
	return &DB{
		Client:   client,
		Database: db,
		Posts:    store.NewMongoCollection(db.Collection(PostsCollection)),
		Comments: store.NewMongoCollection(db.Collection(CommentsCollection)),
		Users:    store.NewMongoCollection(db.Collection(UsersCollection)),
	}
}

// EnsureIndexes creates the indexes listings and lookups rely on. It is a
// no-op for the in-memory driver.
func (d *DB) EnsureIndexes(ctx context.Context) error {
	if d.Database == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	byCollection := map[string][]mongo.IndexModel{
		PostsCollection: {
			{Keys: bson.D{{Key: "title", Value: 1}}},
			{Keys: bson.D{{Key: "message", Value: 1}}},
			{Keys: bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}},
		},
		CommentsCollection: {
			{Keys: bson.D{{Key: "postId", Value: 1}, {Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "message", Value: 1}}},
		},
		UsersCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
	}

	for name, indexes := range byCollection {
		if _, err := d.Database.Collection(name).Indexes().CreateMany(ctx, indexes); err != nil {
			return fmt.Errorf("create indexes on %s: %w", name, err)
		}
	}
	return nil
}

// Ping checks the connection. The in-memory driver is always reachable.
func (d *DB) Ping(ctx context.Context) error {
	if d.Client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return d.Client.Ping(ctx, nil)
}

func (d *DB) Disconnect(ctx context.Context) error {
	if d.Client == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return d.Client.Disconnect(ctx)
}
