package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/getkayan/medgas/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStorage keeps one document per profile in the console_sessions
// collection.
type MongoStorage struct {
	client *mongo.Client
	coll   *mongo.Collection
	// profile is the document key.
	profile string
}

type mongoSession struct {
	Profile   string    `bson:"_id"`
	Token     string    `bson:"token"`
	User      string    `bson:"user"`
	UpdatedAt time.Time `bson:"updated_at"`
}

func init() {
	RegisterFactory("mongo", newMongoStorage)
}

// newMongoStorage connects with a mongodb:// URI. The database is "medgas".
func newMongoStorage(dsn, profile string) (domain.SessionStorage, error) {
	client, err := mongo.Connect(context.Background(), options.Client().ApplyURI(dsn))
	if err != nil {
		return nil, fmt.Errorf("persistence: mongo connect: %w", err)
	}
	return NewMongoStorage(client, client.Database("medgas"), profile), nil
}

func NewMongoStorage(client *mongo.Client, db *mongo.Database, profile string) *MongoStorage {
	return &MongoStorage{
		client:  client,
		coll:    db.Collection("console_sessions"),
		profile: profile,
	}
}

func (s *MongoStorage) Load(ctx context.Context) (*domain.SessionRecord, error) {
	var doc mongoSession
	err := s.coll.FindOne(ctx, bson.M{"_id": s.profile}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrNoSession
	}
	if err != nil {
		return nil, fmt.Errorf("mongo session: load failed: %w", err)
	}
	return &domain.SessionRecord{
		Profile:   doc.Profile,
		Token:     doc.Token,
		User:      domain.JSON(doc.User),
		UpdatedAt: doc.UpdatedAt,
	}, nil
}

// Save replaces the whole document, so token and user change together.
func (s *MongoStorage) Save(ctx context.Context, rec *domain.SessionRecord) error {
	doc := mongoSession{
		Profile:   s.profile,
		Token:     rec.Token,
		User:      string(rec.User),
		UpdatedAt: time.Now(),
	}
	_, err := s.coll.ReplaceOne(ctx, bson.M{"_id": s.profile}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("mongo session: save failed: %w", err)
	}
	return nil
}

func (s *MongoStorage) Delete(ctx context.Context) error {
	if _, err := s.coll.DeleteOne(ctx, bson.M{"_id": s.profile}); err != nil {
		return fmt.Errorf("mongo session: delete failed: %w", err)
	}
	return nil
}

func (s *MongoStorage) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}
