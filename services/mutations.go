package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/huyvu-developer/chat-app-BE/models"
	"github.com/huyvu-developer/chat-app-BE/repository"

	"golang.org/x/sync/errgroup"
)

type MutationOp string

const (
	OpAdd    MutationOp = "add"
	OpRemove MutationOp = "remove"
)

// RelationMutation is a single field-scoped write to one user's relation set.
type RelationMutation struct {
	Op     MutationOp           `json:"op"`
	UserID string               `json:"user_id"`
	Field  models.RelationField `json:"field"`
	Value  string               `json:"value"`
}

func addTo(userID string, field models.RelationField, value string) RelationMutation {
	return RelationMutation{Op: OpAdd, UserID: userID, Field: field, Value: value}
}

func removeFrom(userID string, field models.RelationField, value string) RelationMutation {
	return RelationMutation{Op: OpRemove, UserID: userID, Field: field, Value: value}
}

func (m RelationMutation) String() string {
	if m.Op == OpAdd {
		return fmt.Sprintf("add %s to %s.%s", m.Value, m.UserID, m.Field)
	}
	return fmt.Sprintf("remove %s from %s.%s", m.Value, m.UserID, m.Field)
}

// Apply is idempotent, so replaying a mutation is always safe.
func (m RelationMutation) Apply(ctx context.Context, repo repository.RelationRepository) error {
	switch m.Op {
	case OpAdd:
		return repo.AddToSet(ctx, m.UserID, m.Field, m.Value)
	case OpRemove:
		return repo.RemoveFromSet(ctx, m.UserID, m.Field, m.Value)
	}
	return fmt.Errorf("unknown mutation op %q", m.Op)
}

// Holds reports whether the mutation's effect is currently visible in the store.
func (m RelationMutation) Holds(ctx context.Context, repo repository.RelationRepository) (bool, error) {
	ok, err := repo.Contains(ctx, m.UserID, m.Field, m.Value)
	if err != nil {
		return false, err
	}
	if m.Op == OpRemove {
		return !ok, nil
	}
	return ok, nil
}

type sideResult struct {
	applied []RelationMutation
	failed  []RelationMutation
	err     error
}

// applySide runs one user's writes in order and stops at the first failure;
// the failing write and everything after it are reported as failed.
func applySide(ctx context.Context, repo repository.RelationRepository, ms []RelationMutation) sideResult {
	for i, m := range ms {
		if err := m.Apply(ctx, repo); err != nil {
			return sideResult{applied: ms[:i:i], failed: ms[i:], err: err}
		}
	}
	return sideResult{applied: ms}
}

type pairResult struct {
	applied []RelationMutation
	failed  []RelationMutation
	err     error
}

func (r pairResult) partial() bool {
	return len(r.applied) > 0 && len(r.failed) > 0
}

// applyPair writes both users' sides concurrently. A failure on one side
// does not cancel the other.
func applyPair(ctx context.Context, repo repository.RelationRepository, first, second []RelationMutation) pairResult {
	var (
		g        errgroup.Group
		res1     sideResult
		res2     sideResult
		combined pairResult
	)
	g.Go(func() error {
		res1 = applySide(ctx, repo, first)
		return nil
	})
	g.Go(func() error {
		res2 = applySide(ctx, repo, second)
		return nil
	})
	_ = g.Wait()

	combined.applied = append(append([]RelationMutation{}, res1.applied...), res2.applied...)
	combined.failed = append(append([]RelationMutation{}, res1.failed...), res2.failed...)
	combined.err = errors.Join(res1.err, res2.err)
	return combined
}

// runPair runs two independent calls concurrently and returns the first error.
func runPair(first, second func() error) error {
	var g errgroup.Group
	g.Go(first)
	g.Go(second)
	return g.Wait()
}
