package domain

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrValidation        = errors.New("validation failed")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidTransition = errors.New("invalid order transition")
	ErrPartialCommit     = errors.New("partial commit")
	ErrInfrastructure    = errors.New("infrastructure failure")
)

type ValidationError struct {
	Field  string
	Reason string
}

func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

type InsufficientStockError struct {
	BookID    uuid.UUID
	Requested int
	// Available is nil when the shortage was detected by a failed conditional decrement.
	Available *int
}

func (e *InsufficientStockError) Error() string {
	if e.Available == nil {
		return fmt.Sprintf("insufficient stock for book[%s]: requested %d", e.BookID, e.Requested)
	}
	return fmt.Sprintf("insufficient stock for book[%s]: requested %d, available %d", e.BookID, e.Requested, *e.Available)
}

func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

type TransitionError struct {
	OrderID uuid.UUID
	From    OrderStatus
	Event   OrderEvent
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("order[%s]: event %s is not allowed in status %s", e.OrderID, e.Event, e.From)
}

func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

// PartialCommitError reports a checkout whose persisted state is unknown or inconsistent
// with reserved stock. It must be reconciled by an operator using OrderNumber.
type PartialCommitError struct {
	OrderNumber string
	Err         error
}

func (e *PartialCommitError) Error() string {
	return fmt.Sprintf("order[%s] partially committed: %v", e.OrderNumber, e.Err)
}

func (e *PartialCommitError) Is(target error) bool {
	return target == ErrPartialCommit
}

func (e *PartialCommitError) Unwrap() error {
	return e.Err
}

type InfrastructureError struct {
	Op  string
	Err error
}

func (e *InfrastructureError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *InfrastructureError) Is(target error) bool {
	return target == ErrInfrastructure
}

func (e *InfrastructureError) Unwrap() error {
	return e.Err
}

// IsBusinessError reports failures that are normal outcomes rather than infrastructure faults.
func IsBusinessError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrInsufficientStock) ||
		errors.Is(err, ErrInvalidTransition)
}
