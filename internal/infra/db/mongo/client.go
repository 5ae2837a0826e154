package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Client struct {
	DB *mongo.Database
}

// New connects to a replica set; multi-document transactions need one.
func New(ctx context.Context, uri, database string) (*Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	opts := options.Client().ApplyURI(uri).SetRetryWrites(true)
	m, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, err
	}
	if err := m.Ping(ctx, nil); err != nil {
		_ = m.Disconnect(context.Background())
		return nil, err
	}
	return &Client{DB: m.Database(database)}, nil
}

func (c *Client) Ping(ctx context.Context) error {
	return c.DB.Client().Ping(ctx, nil)
}

func (c *Client) Close(ctx context.Context) error {
	return c.DB.Client().Disconnect(ctx)
}

// EnsureIndexes creates the indexes the repositories rely on for uniqueness
// and lookups. It is safe to call on every start.
func (c *Client) EnsureIndexes(ctx context.Context) error {
	specs := map[string][]mongo.IndexModel{
		villasCollection: {
			{Keys: bson1("slug"), Options: options.Index().SetUnique(true)},
			{Keys: bson1("state")},
		},
		imagesCollection:    {{Keys: bson1("villa_id")}},
		rulesCollection:     {{Keys: bson1("villa_id")}},
		blackoutsCollection: {{Keys: bson2("villa_id", "date"), Options: options.Index().SetUnique(true)}},
		bookingsCollection: {
			{Keys: bson1("reference"), Options: options.Index().SetUnique(true)},
			{Keys: bson1("guest.email")},
			{Keys: bson2("villa_id", "status")},
		},
		usersCollection: {{Keys: bson1("email"), Options: options.Index().SetUnique(true)}},
	}
	for name, models := range specs {
		if _, err := c.DB.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return err
		}
	}
	return nil
}
