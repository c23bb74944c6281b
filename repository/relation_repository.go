package repository

import (
	"context"

	"github.com/huyvu-developer/chat-app-BE/models"
)

// RelationRepository stores the three relationship sets of every user.
//
// Each call reads or mutates exactly one user's record. Keeping the two users
// of a pair consistent is the caller's job.
type RelationRepository interface {
	// AddToSet adds value to the user's field set. Adding an existing member is a no-op.
	AddToSet(ctx context.Context, userID string, field models.RelationField, value string) error
	// RemoveFromSet removes value from the user's field set. Removing a missing member is a no-op.
	RemoveFromSet(ctx context.Context, userID string, field models.RelationField, value string) error
	Contains(ctx context.Context, userID string, field models.RelationField, value string) (bool, error)
	// Fields returns which of the user's sets contain value, in one read.
	Fields(ctx context.Context, userID, value string) ([]models.RelationField, error)
	Members(ctx context.Context, userID string, field models.RelationField) ([]string, error)
}
