package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DefaultMongoCollection holds one document per key.
const DefaultMongoCollection = "village_entries"

// MongoStore implements Store on a MongoDB collection, for deployments where
// several game servers share NPC memory.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

type mongoEntry struct {
	Key       string    `bson:"_id"`
	Value     string    `bson:"value"`
	Version   int       `bson:"version"`
	UpdatedAt time.Time `bson:"updated_at"`
	Deleted   bool      `bson:"deleted"`
}

// NewMongoStore connects to uri and uses the given database.
func NewMongoStore(ctx context.Context, uri, database string) (*MongoStore, error) {
	if uri == "" {
		return nil, fmt.Errorf("mongo uri is required")
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	return &MongoStore{
		client: client,
		coll:   client.Database(database).Collection(DefaultMongoCollection),
	}, nil
}

func (s *MongoStore) Get(ctx context.Context, key string) (*Entry, error) {
	var doc mongoEntry
	err := s.coll.FindOne(ctx, bson.M{"_id": key, "deleted": bson.M{"$ne": true}}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	e := doc.entry()
	return &e, nil
}

func (s *MongoStore) Put(ctx context.Context, key, value string) (*Entry, error) {
	now := time.Now().UTC()
	update := bson.M{
		"$set": bson.M{"value": value, "updated_at": now, "deleted": false},
		"$inc": bson.M{"version": 1},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var doc mongoEntry
	if err := s.coll.FindOneAndUpdate(ctx, bson.M{"_id": key}, update, opts).Decode(&doc); err != nil {
		return nil, fmt.Errorf("upsert %s: %w", key, err)
	}
	e := doc.entry()
	return &e, nil
}

func (s *MongoStore) List(ctx context.Context, prefix string) ([]Entry, error) {
	filter := bson.M{"deleted": bson.M{"$ne": true}}
	if prefix != "" {
		filter["_id"] = bson.M{"$regex": "^" + regexp.QuoteMeta(prefix)}
	}
	cur, err := s.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	var docs []mongoEntry
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(docs))
	for _, d := range docs {
		entries = append(entries, d.entry())
	}
	return entries, nil
}

// Delete marks the document deleted so the version counter survives.
func (s *MongoStore) Delete(ctx context.Context, key string) error {
	_, err := s.coll.UpdateOne(ctx, bson.M{"_id": key}, bson.M{"$set": bson.M{"deleted": true}})
	return err
}

func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func (d mongoEntry) entry() Entry {
	return Entry{Key: d.Key, Value: d.Value, Version: d.Version, UpdatedAt: d.UpdatedAt}
}
