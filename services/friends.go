package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/huyvu-developer/chat-app-BE/logger"
	"github.com/huyvu-developer/chat-app-BE/metrics"
	"github.com/huyvu-developer/chat-app-BE/models"
	"github.com/huyvu-developer/chat-app-BE/repository"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	msgNoPendingRequest  = "No pending request found"
	msgNotFriends        = "Not friends yet"
	msgAlreadyFriends    = "Already friends"
	msgRequestReceived   = "Friend request already received"
	routingRequestSent   = RoutingFriendshipPrefix + "requested"
	routingRequestCancel = RoutingFriendshipPrefix + "cancelled"
	routingAccepted      = RoutingFriendshipPrefix + "accepted"
	routingUnfriended    = RoutingFriendshipPrefix + "unfriended"
)

// FriendOutcome holds exactly one of Result (transition applied) or Failed
// (precondition did not hold, nothing written).
type FriendOutcome struct {
	Result *models.FriendshipResult
	Failed *models.FailedResult
}

func (o *FriendOutcome) Applied() bool {
	return o.Result != nil
}

type FriendService struct {
	relations repository.RelationRepository
	events    EventPublisher
	repairs   Repairer
	log       *zap.Logger
	now       func() time.Time
}

// NewFriendService wires the state machine. events and repairs may be nil.
func NewFriendService(relations repository.RelationRepository, events EventPublisher, repairs Repairer, log *zap.Logger) *FriendService {
	return &FriendService{
		relations: relations,
		events:    orNopPublisher(events),
		repairs:   repairs,
		log:       logger.OrNop(log),
		now:       time.Now,
	}
}

func checkPair(senderID, receiverID string) error {
	if strings.TrimSpace(senderID) == "" || strings.TrimSpace(receiverID) == "" {
		return invalidOperation("sender and receiver are required")
	}
	if senderID == receiverID {
		return invalidOperation("user %s cannot target themselves", senderID)
	}
	return nil
}

// RequestFriend sends a request, or cancels it when sender already has one open to receiver.
func (fs *FriendService) RequestFriend(ctx context.Context, senderID, receiverID string) (*FriendOutcome, error) {
	if err := checkPair(senderID, receiverID); err != nil {
		return nil, err
	}
	start := fs.now()

	rel, err := loadRelationship(ctx, fs.relations, senderID, receiverID)
	if err != nil {
		return nil, err
	}

	switch {
	case rel.HasSentRequest():
		return fs.transition(ctx, start, "cancel", routingRequestCancel, models.ActionCancelRequest, senderID, receiverID,
			[]RelationMutation{removeFrom(senderID, models.FieldSentRequests, receiverID)},
			[]RelationMutation{removeFrom(receiverID, models.FieldPendingRequest, senderID)},
		)
	case rel.AreFriends():
		return fs.reject("request", start, msgAlreadyFriends), nil
	case rel.HasPendingRequestFrom():
		return fs.reject("request", start, msgRequestReceived), nil
	}

	return fs.transition(ctx, start, "request", routingRequestSent, models.ActionSendRequest, senderID, receiverID,
		[]RelationMutation{addTo(senderID, models.FieldSentRequests, receiverID)},
		[]RelationMutation{addTo(receiverID, models.FieldPendingRequest, senderID)},
	)
}

// AcceptFriend makes the pair friends if receiver holds a pending request from sender.
func (fs *FriendService) AcceptFriend(ctx context.Context, senderID, receiverID string) (*FriendOutcome, error) {
	if err := checkPair(senderID, receiverID); err != nil {
		return nil, err
	}
	start := fs.now()

	rel, err := loadRelationship(ctx, fs.relations, receiverID, senderID)
	if err != nil {
		return nil, err
	}
	if !rel.HasPendingRequestFrom() {
		return fs.reject("accept", start, msgNoPendingRequest), nil
	}

	return fs.transition(ctx, start, "accept", routingAccepted, models.ActionAccept, senderID, receiverID,
		[]RelationMutation{
			addTo(senderID, models.FieldFriends, receiverID),
			removeFrom(senderID, models.FieldSentRequests, receiverID),
		},
		[]RelationMutation{
			addTo(receiverID, models.FieldFriends, senderID),
			removeFrom(receiverID, models.FieldPendingRequest, senderID),
		},
	)
}

func (fs *FriendService) Unfriend(ctx context.Context, senderID, receiverID string) (*FriendOutcome, error) {
	if err := checkPair(senderID, receiverID); err != nil {
		return nil, err
	}
	start := fs.now()

	rel, err := loadRelationship(ctx, fs.relations, senderID, receiverID)
	if err != nil {
		return nil, err
	}
	if !rel.AreFriends() {
		return fs.reject("unfriend", start, msgNotFriends), nil
	}

	return fs.transition(ctx, start, "unfriend", routingUnfriended, models.ActionUnfriend, senderID, receiverID,
		[]RelationMutation{removeFrom(senderID, models.FieldFriends, receiverID)},
		[]RelationMutation{removeFrom(receiverID, models.FieldFriends, senderID)},
	)
}

// Relationship returns the pair state as seen from userID.
func (fs *FriendService) Relationship(ctx context.Context, userID, otherID string) (*Relationship, error) {
	if err := checkPair(userID, otherID); err != nil {
		return nil, err
	}
	return loadRelationship(ctx, fs.relations, userID, otherID)
}

// Relations lists the user's three relation sets.
func (fs *FriendService) Relations(ctx context.Context, userID string) (*models.UserRelations, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, invalidOperation("user is required")
	}

	out := &models.UserRelations{UserID: userID}
	g, gctx := errgroup.WithContext(ctx)
	for field, dst := range map[models.RelationField]*[]string{
		models.FieldFriends:        &out.Friends,
		models.FieldSentRequests:   &out.SentRequests,
		models.FieldPendingRequest: &out.PendingRequest,
	} {
		g.Go(func() error {
			members, err := fs.relations.Members(gctx, userID, field)
			if err != nil {
				return err
			}
			*dst = members
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (fs *FriendService) reject(operation string, start time.Time, message string) *FriendOutcome {
	metrics.RecordFriendshipOperation(operation, "rejected", fs.now().Sub(start))
	return &FriendOutcome{Failed: &models.FailedResult{Status: models.StatusFailed, Message: message}}
}

func (fs *FriendService) transition(
	ctx context.Context,
	start time.Time,
	operation, routingKey, action, senderID, receiverID string,
	senderSide, receiverSide []RelationMutation,
) (*FriendOutcome, error) {
	log := fs.log.With(
		zap.String("operation", operation),
		zap.String("sender_id", senderID),
		zap.String("receiver_id", receiverID),
	)

	res := applyPair(ctx, fs.relations, senderSide, receiverSide)
	if res.err != nil {
		if !res.partial() {
			metrics.RecordFriendshipOperation(operation, "error", fs.now().Sub(start))
			return nil, res.err
		}
		metrics.RecordFriendshipOperation(operation, "partial", fs.now().Sub(start))
		metrics.RecordPartialMutation(operation)
		perr := &PartialMutationError{
			Operation: action,
			Applied:   res.applied,
			Failed:    res.failed,
			Err:       res.err,
		}
		log.Error("friendship transition partially applied", zap.Error(perr))
		fs.enqueueRepairs(ctx, log, res.failed, res.applied)
		return nil, perr
	}

	metrics.RecordFriendshipOperation(operation, "applied", fs.now().Sub(start))
	log.Info("friendship transition applied", zap.String("action", action))
	publish(ctx, fs.events, log, routingKey, FriendshipEvent{
		SenderID:   senderID,
		ReceiverID: receiverID,
		Action:     action,
		OccurredAt: fs.now().UTC(),
	})
	return &FriendOutcome{Result: &models.FriendshipResult{
		SenderID:   senderID,
		ReceiverID: receiverID,
		Action:     action,
	}}, nil
}

func (fs *FriendService) enqueueRepairs(ctx context.Context, log *zap.Logger, failed, applied []RelationMutation) {
	if fs.repairs == nil {
		return
	}
	// The request context may already be cancelled.
	ctx = context.WithoutCancel(ctx)
	for _, m := range failed {
		err := fs.repairs.Enqueue(ctx, RepairTask{Kind: RepairKindRelation, Mutation: &m, Guards: applied})
		if err != nil {
			log.Error("failed to enqueue relation repair", zap.Stringer("mutation", m), zap.Error(err))
		}
	}
}

// IsPartialMutation extracts the PartialMutationError from err, if any.
func IsPartialMutation(err error) (*PartialMutationError, bool) {
	var perr *PartialMutationError
	if errors.As(err, &perr) {
		return perr, true
	}
	return nil, false
}
