package domain

import (
	"errors"
	"fmt"
)

// ErrVersionConflict is returned when an optimistic concurrency check fails.
// Callers may retry with a fresh read; nothing retries automatically.
var ErrVersionConflict = errors.New("concurrent modification detected")

// NotFoundError indicates a referenced entity does not exist
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ValidationError indicates malformed or out-of-range input, rejected
// before any state change
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// AuthorizationError indicates the caller lacks the required capability
// over the relevant organization
type AuthorizationError struct {
	UserID         string
	OrganizationID string
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("user %s is not an admin of organization %s", e.UserID, e.OrganizationID)
}

// StateConflictError indicates an entity is not in the state the operation
// requires (invitation already answered, event started, tickets sold)
type StateConflictError struct {
	Reason string
}

func (e *StateConflictError) Error() string {
	return e.Reason
}

// CapExceededError indicates a proposed share batch would push the
// accepted-plus-proposed total past the cap
type CapExceededError struct {
	Attempted int
	Allowed   int
}

func (e *CapExceededError) Error() string {
	return fmt.Sprintf("revenue share total %d%% exceeds the %d%% cap", e.Attempted, e.Allowed)
}

// DuplicateTargetError indicates the same organization appears twice in one
// batch of proposed invitations
type DuplicateTargetError struct {
	OrganizationID string
}

func (e *DuplicateTargetError) Error() string {
	return fmt.Sprintf("organization %s appears more than once in the proposed shares", e.OrganizationID)
}

// InsufficientCreditsError indicates the account balance cannot cover the
// operation's cost
type InsufficientCreditsError struct {
	Required  int
	Available int
}

func (e *InsufficientCreditsError) Error() string {
	return fmt.Sprintf("insufficient credits: required %d, available %d", e.Required, e.Available)
}

// PlanInsufficientError indicates the account's plan does not include the
// requested operation
type PlanInsufficientError struct {
	Operation   string
	MinimumPlan Plan
}

func (e *PlanInsufficientError) Error() string {
	return fmt.Sprintf("operation %s requires the %s plan or above", e.Operation, e.MinimumPlan)
}

// GenerationFailedError wraps a generation provider failure. Credits are
// never deducted when this is returned.
type GenerationFailedError struct {
	Err error
}

func (e *GenerationFailedError) Error() string {
	return fmt.Sprintf("generation failed: %v", e.Err)
}

func (e *GenerationFailedError) Unwrap() error {
	return e.Err
}
