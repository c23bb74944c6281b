package services

import (
	"context"
	"fmt"

	"github.com/huyvu-developer/chat-app-BE/models"
	"github.com/huyvu-developer/chat-app-BE/repository"
)

type RelationState string

const (
	StateNone      RelationState = "NONE"
	StateRequested RelationState = "REQUESTED"
	StateFriends   RelationState = "FRIENDS"
	// StateAsymmetric means the two sides disagree, the window a partial mutation leaves.
	StateAsymmetric RelationState = "ASYMMETRIC"
)

type fieldSet map[models.RelationField]bool

func newFieldSet(fields []models.RelationField) fieldSet {
	s := make(fieldSet, len(fields))
	for _, f := range fields {
		s[f] = true
	}
	return s
}

func (s fieldSet) only(f models.RelationField) bool {
	return len(s) == 1 && s[f]
}

// Relationship is the pair state as seen from UserID, built from both users' sets.
type Relationship struct {
	UserID  string
	OtherID string
	user    fieldSet
	other   fieldSet
}

func loadRelationship(ctx context.Context, repo repository.RelationRepository, userID, otherID string) (*Relationship, error) {
	var userFields, otherFields []models.RelationField
	err := runPair(
		func() (err error) {
			userFields, err = repo.Fields(ctx, userID, otherID)
			return err
		},
		func() (err error) {
			otherFields, err = repo.Fields(ctx, otherID, userID)
			return err
		},
	)
	if err != nil {
		return nil, err
	}
	return &Relationship{
		UserID:  userID,
		OtherID: otherID,
		user:    newFieldSet(userFields),
		other:   newFieldSet(otherFields),
	}, nil
}

// HasSentRequest reports whether UserID's sentRequests holds OtherID.
func (r *Relationship) HasSentRequest() bool {
	return r.user[models.FieldSentRequests]
}

// HasPendingRequestFrom reports whether UserID's pendingRequest holds OtherID.
func (r *Relationship) HasPendingRequestFrom() bool {
	return r.user[models.FieldPendingRequest]
}

// AreFriends reports whether UserID's friends holds OtherID.
func (r *Relationship) AreFriends() bool {
	return r.user[models.FieldFriends]
}

func (r *Relationship) State() RelationState {
	switch {
	case len(r.user) == 0 && len(r.other) == 0:
		return StateNone
	case r.user.only(models.FieldFriends) && r.other.only(models.FieldFriends):
		return StateFriends
	case r.user.only(models.FieldSentRequests) && r.other.only(models.FieldPendingRequest):
		return StateRequested
	case r.user.only(models.FieldPendingRequest) && r.other.only(models.FieldSentRequests):
		return StateRequested
	default:
		return StateAsymmetric
	}
}

// RequestedBy returns who sent the open request, or "" when State is not REQUESTED.
func (r *Relationship) RequestedBy() string {
	if r.State() != StateRequested {
		return ""
	}
	if r.HasSentRequest() {
		return r.UserID
	}
	return r.OtherID
}

func (r *Relationship) String() string {
	if by := r.RequestedBy(); by != "" {
		return fmt.Sprintf("%s(%s)", StateRequested, by)
	}
	return string(r.State())
}

// RelationshipView is the JSON shape of a Relationship.
type RelationshipView struct {
	UserID      string        `json:"userId"`
	OtherID     string        `json:"otherId"`
	State       RelationState `json:"state"`
	RequestedBy string        `json:"requestedBy,omitempty"`
}

func (r *Relationship) View() RelationshipView {
	return RelationshipView{
		UserID:      r.UserID,
		OtherID:     r.OtherID,
		State:       r.State(),
		RequestedBy: r.RequestedBy(),
	}
}
