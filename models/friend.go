package models

import "time"

// RelationField names one of the three per-user relationship sets.
type RelationField string

const (
	FieldFriends        RelationField = "friends"
	FieldSentRequests   RelationField = "sentRequests"
	FieldPendingRequest RelationField = "pendingRequest"
)

var RelationFields = []RelationField{FieldFriends, FieldSentRequests, FieldPendingRequest}

func (f RelationField) Valid() bool {
	switch f {
	case FieldFriends, FieldSentRequests, FieldPendingRequest:
		return true
	}
	return false
}

// UserRelation is one member of one user's relationship set.
// The composite primary key makes every (user, field) pair a set.
type UserRelation struct {
	UserID    string        `gorm:"primaryKey;size:64" json:"user_id"`
	Field     RelationField `gorm:"primaryKey;size:32" json:"field"`
	TargetID  string        `gorm:"primaryKey;size:64;index" json:"target_id"`
	CreatedAt time.Time     `json:"created_at"`
}

func (UserRelation) TableName() string {
	return "user_relations"
}

// Friendship action tags reported to callers.
const (
	ActionSendRequest   = "Send friend request"
	ActionCancelRequest = "Cancel friend request"
	ActionAccept        = "Accept friend request"
	ActionUnfriend      = "Unfriend"
)

const StatusFailed = "Failed"

// FriendshipResult is returned when a friendship transition was applied.
type FriendshipResult struct {
	SenderID   string `json:"senderId"`
	ReceiverID string `json:"receiverId"`
	Action     string `json:"action"`
}

// FailedResult is returned when a transition's precondition does not hold. Nothing was mutated.
type FailedResult struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// UserRelations lists a user's three relationship sets.
type UserRelations struct {
	UserID         string   `json:"userId"`
	Friends        []string `json:"friends"`
	SentRequests   []string `json:"sentRequests"`
	PendingRequest []string `json:"pendingRequest"`
}
