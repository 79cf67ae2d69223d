package store

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/schematiq/schematiq/pkg/errors"
)

// MongoStore persists diagrams in a MongoDB collection.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// MongoOptions configure the Mongo backend.
type MongoOptions struct {
	// URI is the MongoDB connection string.
	URI string

	// Database and Collection name the target collection. Empty values
	// use "schematiq" and "diagrams".
	Database   string
	Collection string
}

// NewMongoStore connects to MongoDB and verifies the connection.
func NewMongoStore(ctx context.Context, opts MongoOptions) (*MongoStore, error) {
	if opts.Database == "" {
		opts.Database = "schematiq"
	}
	if opts.Collection == "" {
		opts.Collection = "diagrams"
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(opts.URI))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "connect to mongodb")
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, errors.Wrap(errors.ErrCodeStore, err, "ping mongodb")
	}
	return &MongoStore{
		client: client,
		coll:   client.Database(opts.Database).Collection(opts.Collection),
	}, nil
}

// Save inserts or replaces a diagram by ID.
func (s *MongoStore) Save(ctx context.Context, d *Diagram) error {
	if d.ID == "" {
		return errors.New(errors.ErrCodeInvalidInput, "diagram ID is empty")
	}
	now := nowUTC()
	if d.CreatedAt.IsZero() {
		d.CreatedAt = now
	}
	d.UpdatedAt = now

	_, err := s.coll.ReplaceOne(ctx,
		bson.M{"_id": d.ID}, d, options.Replace().SetUpsert(true))
	if err != nil {
		return errors.Wrap(errors.ErrCodeStore, err, "save diagram %s", d.ID)
	}
	return nil
}

// Load retrieves a diagram by ID.
func (s *MongoStore) Load(ctx context.Context, id string) (*Diagram, error) {
	var d Diagram
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&d)
	if err == mongo.ErrNoDocuments {
		return nil, errors.New(errors.ErrCodeDiagramNotFound, "diagram %q not found", id)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "load diagram %s", id)
	}
	return &d, nil
}

// List returns all diagrams, newest first, without positions.
func (s *MongoStore) List(ctx context.Context) ([]*Diagram, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "updated_at", Value: -1}}).
		SetProjection(bson.M{"positions": 0})
	cur, err := s.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "list diagrams")
	}
	defer cur.Close(ctx)

	var out []*Diagram
	if err := cur.All(ctx, &out); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "decode diagrams")
	}
	return out, nil
}

// Delete removes a diagram by ID.
func (s *MongoStore) Delete(ctx context.Context, id string) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return errors.Wrap(errors.ErrCodeStore, err, "delete diagram %s", id)
	}
	if res.DeletedCount == 0 {
		return errors.New(errors.ErrCodeDiagramNotFound, "diagram %q not found", id)
	}
	return nil
}

// Close disconnects from MongoDB.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// Ensure MongoStore implements Store.
var _ Store = (*MongoStore)(nil)
