package store

import (
	"context"
	stderrors "errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/gardenflow/pkg/errors"
	"github.com/matzehuels/gardenflow/pkg/garden"
)

// DefaultMongoTimeout bounds connecting to MongoDB.
const DefaultMongoTimeout = 10 * time.Second

// Mongo stores gardens in a MongoDB collection, one document per garden,
// keyed by a unique index on name.
type Mongo struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// NewMongo connects to uri and ensures the name index on db.collection.
func NewMongo(ctx context.Context, uri, db, collection string) (*Mongo, error) {
	ctx, cancel := context.WithTimeout(ctx, DefaultMongoTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidOption, err, "connect mongodb")
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "ping mongodb")
	}

	m := &Mongo{client: client, coll: client.Database(db).Collection(collection)}
	_, err = m.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "name", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "create name index")
	}
	return m, nil
}

// Load reads every garden in the collection into a registry.
func (m *Mongo) Load(ctx context.Context) (*garden.MapRegistry, error) {
	cur, err := m.coll.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "query gardens")
	}
	defer cur.Close(ctx)

	var gardens []*garden.Garden
	if err := cur.All(ctx, &gardens); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "decode gardens")
	}
	return garden.NewRegistry(gardens...), nil
}

// Get returns the garden with the given name.
func (m *Mongo) Get(ctx context.Context, name string) (*garden.Garden, error) {
	var g garden.Garden
	err := m.coll.FindOne(ctx, bson.M{"name": name}).Decode(&g)
	if stderrors.Is(err, mongo.ErrNoDocuments) {
		return nil, errors.New(errors.ErrCodeGardenNotFound, "garden %q not found", name)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "get garden %q", name)
	}
	return &g, nil
}

// Save validates g and inserts or replaces the document with its name.
func (m *Mongo) Save(ctx context.Context, g *garden.Garden) error {
	if err := garden.ValidateGarden(g); err != nil {
		return err
	}
	_, err := m.coll.ReplaceOne(ctx, bson.M{"name": g.Name}, g, options.Replace().SetUpsert(true))
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "save garden %q", g.Name)
	}
	return nil
}

// Delete removes the garden with the given name. Deleting a missing garden
// is not an error.
func (m *Mongo) Delete(ctx context.Context, name string) error {
	if _, err := m.coll.DeleteOne(ctx, bson.M{"name": name}); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "delete garden %q", name)
	}
	return nil
}

// Close disconnects the client.
func (m *Mongo) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}
