package domain

import (
	"errors"
	"fmt"
)

// ErrInsufficientStock is returned by stock reservations that would drive
// quantity on hand below zero. The caller may retry with a smaller quantity
// or after a restock.
var ErrInsufficientStock = errors.New("insufficient stock")

// ValidationError reports malformed input (quantity, price, discount,
// percentage). No state is mutated when it is returned.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// StateTransitionError reports an operation attempted against an order whose
// status does not permit it.
type StateTransitionError struct {
	Status OrderStatus
	Op     string
}

func (e *StateTransitionError) Error() string {
	return fmt.Sprintf("cannot %s order in status %s", e.Op, e.Status)
}
