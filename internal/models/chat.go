package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Chat message roles, matching what the vision service expects as history.
const (
	ChatRoleUser  = "user"
	ChatRoleModel = "model"
)

// ChatMessage is one turn of an analysis chat, persisted per record.
type ChatMessage struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	RecordID  string             `bson:"record_id" json:"record_id"`
	SenderID  string             `bson:"sender_id,omitempty" json:"sender_id,omitempty"`
	Role      string             `bson:"role" json:"role"`
	Text      string             `bson:"text" json:"text"`
	Timestamp time.Time          `bson:"timestamp" json:"timestamp"`
}
