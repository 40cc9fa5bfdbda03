package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Message represents a chat message in MongoDB. The document itself is
// created by the REST layer; this process only flips the delivery/read
// flags, which are monotonic (never unset once true).
type Message struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	MessageID   string             `json:"messageId" bson:"message_id"`
	SenderID    string             `json:"senderId" bson:"sender_id"`
	RecipientID string             `json:"recipientId,omitempty" bson:"recipient_id,omitempty"`
	GroupID     string             `json:"groupId,omitempty" bson:"group_id,omitempty"`
	ChatType    string             `json:"chatType" bson:"chat_type"`
	Type        string             `json:"type" bson:"type"`
	Body        string             `json:"body" bson:"body"`
	FileURL     *string            `json:"fileUrl" bson:"file_url"`
	IsDelivered bool               `json:"isDelivered" bson:"is_delivered"`
	DeliveredAt *time.Time         `json:"deliveredAt" bson:"delivered_at"`
	IsRead      bool               `json:"isRead" bson:"is_read"`
	ReadAt      *time.Time         `json:"readAt" bson:"read_at"`
	CreatedAt   time.Time          `json:"createdAt" bson:"created_at"`
}
