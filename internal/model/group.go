package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Group represents a group chat document in MongoDB
type Group struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	GroupID     string             `json:"groupId" bson:"group_id"`
	Name        string             `json:"name" bson:"name"`
	Avatar      string             `json:"avatar" bson:"avatar"`
	Members     []GroupMember      `json:"members" bson:"members"`
	MemberIDs   []string           `json:"memberIds" bson:"member_ids"`
	CreatedBy   string             `json:"createdBy" bson:"created_by"`
	CreatedAt   time.Time          `json:"createdAt" bson:"created_at"`
	UpdatedAt   time.Time          `json:"updatedAt" bson:"updated_at"`
	IsActive    bool               `json:"isActive" bson:"is_active"`
}

// GroupMember represents a user inside a group
type GroupMember struct {
	UserID   string    `json:"userId" bson:"user_id"`
	Username string    `json:"username" bson:"username"`
	Avatar   string    `json:"avatar" bson:"avatar"`
	Role     string    `json:"role" bson:"role"`
	JoinedAt time.Time `json:"joinedAt" bson:"joined_at"`
}

// HasMember reports whether userID is in the membership snapshot.
func (g *Group) HasMember(userID string) bool {
	for _, id := range g.MemberIDs {
		if id == userID {
			return true
		}
	}
	return false
}
