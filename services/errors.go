package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidOperation marks caller errors such as targeting oneself.
	ErrInvalidOperation = errors.New("invalid operation")
	// ErrPartialMutation marks a paired update where only some writes landed.
	ErrPartialMutation = errors.New("partial mutation")
)

func invalidOperation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidOperation, fmt.Sprintf(format, args...))
}

// PartialMutationError reports a friendship transition that left the pair
// asymmetric. Nothing is rolled back; Failed lists the writes still owed.
type PartialMutationError struct {
	Operation string
	Applied   []RelationMutation
	Failed    []RelationMutation
	Err       error
}

func (e *PartialMutationError) Error() string {
	return fmt.Sprintf("%s: %s: applied [%s], failed [%s]: %v",
		ErrPartialMutation, e.Operation, joinMutations(e.Applied), joinMutations(e.Failed), e.Err)
}

func (e *PartialMutationError) Unwrap() []error {
	return []error{ErrPartialMutation, e.Err}
}

func joinMutations(ms []RelationMutation) string {
	parts := make([]string, 0, len(ms))
	for _, m := range ms {
		parts = append(parts, m.String())
	}
	return strings.Join(parts, "; ")
}
