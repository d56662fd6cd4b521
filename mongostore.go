package quizbank

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Mongo defaults
const (
	DefaultMongoDatabase   = "quizbank"
	DefaultMongoCollection = "banks"
	DefaultBankName        = "default"
)

// MongoStore keeps the bank as a single document, replaced as a whole on save
type MongoStore struct {
	client     *mongo.Client
	collection *mongo.Collection
	name       string
}

type bankDocument struct {
	Name      string          `bson:"_id"`
	Questions []mongoQuestion `bson:"questions"`
}

type mongoQuestion struct {
	ID         string   `bson:"id"`
	Type       string   `bson:"type"`
	Content    string   `bson:"content"`
	Options    []Option `bson:"options"`
	Answer     string   `bson:"answer"`
	CorrectArr []string `bson:"correctArr"`
	ImportedAt int64    `bson:"importedAt"`
}

// OpenMongoStore connects to uri and selects the bank document name
func OpenMongoStore(ctx context.Context, uri, database, collection, name string) (*MongoStore, error) {
	if uri == "" {
		uri = "mongodb://localhost:27017"
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}
	return NewMongoStore(client, database, collection, name), nil
}

// NewMongoStore wraps an existing client
func NewMongoStore(client *mongo.Client, database, collection, name string) *MongoStore {
	if database == "" {
		database = DefaultMongoDatabase
	}
	if collection == "" {
		collection = DefaultMongoCollection
	}
	if name == "" {
		name = DefaultBankName
	}
	return &MongoStore{
		client:     client,
		collection: client.Database(database).Collection(collection),
		name:       name,
	}
}

// Load reads the bank document; a missing document is an empty bank
func (s *MongoStore) Load(ctx context.Context) (Bank, error) {
	var doc bankDocument
	err := s.collection.FindOne(ctx, bson.M{"_id": s.name}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Bank{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get bank %s: %w", s.name, err)
	}

	bank := make(Bank, 0, len(doc.Questions))
	for _, mq := range doc.Questions {
		bank = append(bank, mq.toQuestion())
	}
	return bank, nil
}

// Save replaces the bank document, creating it if needed
func (s *MongoStore) Save(ctx context.Context, bank Bank) error {
	doc := bankDocument{Name: s.name, Questions: make([]mongoQuestion, 0, len(bank))}
	for _, q := range bank {
		doc.Questions = append(doc.Questions, newMongoQuestion(q))
	}

	_, err := s.collection.ReplaceOne(ctx, bson.M{"_id": s.name}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to save bank %s: %w", s.name, err)
	}
	return nil
}

// Clear removes the bank document
func (s *MongoStore) Clear(ctx context.Context) error {
	if _, err := s.collection.DeleteOne(ctx, bson.M{"_id": s.name}); err != nil {
		return fmt.Errorf("failed to clear bank %s: %w", s.name, err)
	}
	return nil
}

// Close disconnects the client
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func newMongoQuestion(q Question) mongoQuestion {
	mq := mongoQuestion{
		ID:         q.ID,
		Type:       q.Type,
		Content:    q.Content,
		Options:    q.Options,
		Answer:     string(q.Answer),
		CorrectArr: q.CorrectArr,
	}
	if !q.ImportedAt.IsZero() {
		mq.ImportedAt = q.ImportedAt.UnixMilli()
	}
	return mq
}

func (mq mongoQuestion) toQuestion() Question {
	q := Question{
		ID:         mq.ID,
		Type:       mq.Type,
		Content:    mq.Content,
		Options:    mq.Options,
		Answer:     RawAnswer(mq.Answer),
		CorrectArr: mq.CorrectArr,
	}
	if mq.ImportedAt != 0 {
		q.ImportedAt = time.UnixMilli(mq.ImportedAt)
	}
	return q
}
