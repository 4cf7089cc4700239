package store

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/xswkr/chartpattern-backend/internal/models"
)

const chatCollection = "analysis_chat"

// ChatStore persists analysis chat turns in MongoDB, scoped per record.
type ChatStore struct {
	db *mongo.Database
}

func NewChatStore(db *mongo.Database) *ChatStore {
	return &ChatStore{db: db}
}

// EnsureIndexes configures the (record_id, timestamp) index used for
// history replay. Called once from main after Mongo has connected.
func (s *ChatStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.db.Collection(chatCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "record_id", Value: 1},
			{Key: "timestamp", Value: 1},
		},
		Options: options.Index().SetName("idx_record_timestamp"),
	})
	return err
}

func (s *ChatStore) Append(ctx context.Context, msg models.ChatMessage) error {
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}
	_, err := s.db.Collection(chatCollection).InsertOne(ctx, msg)
	return err
}

// History returns the chat for a record oldest-first, capped at limit.
func (s *ChatStore) History(ctx context.Context, recordID string, limit int64) ([]models.ChatMessage, error) {
	if limit <= 0 || limit > 200 {
		limit = 100
	}

	cur, err := s.db.Collection(chatCollection).Find(ctx,
		bson.M{"record_id": recordID},
		options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}}).SetLimit(limit),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var msgs []models.ChatMessage
	for cur.Next(ctx) {
		var m models.ChatMessage
		if err := cur.Decode(&m); err != nil {
			continue
		}
		msgs = append(msgs, m)
	}
	return msgs, cur.Err()
}
