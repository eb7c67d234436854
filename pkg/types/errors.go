package types

import (
	"errors"
	"fmt"
)

// Backend lifecycle errors.
var (
	ErrStoreDetached   = errors.New("store is detached")
	ErrAlreadyAttached = errors.New("store is already attached")
)

// Entity errors.
var (
	ErrNotFound         = errors.New("entity not found")
	ErrInvalidID        = errors.New("invalid entity ID")
	ErrInvalidData      = errors.New("invalid entity data")
	ErrMalformedID      = errors.New("malformed identifier")
	ErrInvalidSlot      = errors.New("invalid time slot")
	ErrInvalidSchedule  = errors.New("invalid schedule string")
	ErrDuplicateSection = errors.New("section already belongs to the discipline")
	ErrInvalidCode      = errors.New("plan code must not be empty")
	ErrDuplicateCode    = errors.New("plan code already exists")
)

// Plan load errors.
var (
	ErrMalformedVersion = errors.New("invalid version")
	ErrVersionNotFound  = errors.New("version not found")
	ErrStaleReference   = errors.New("stale team reference")
	ErrLoadSuperseded   = errors.New("load superseded by a newer operation")
)

// StaleReferenceError reports a persisted team that no longer exists in the
// live catalog. One missing team invalidates the whole discipline.
type StaleReferenceError struct {
	Discipline     ID
	DisciplineName string
	Team           ID
}

func (e *StaleReferenceError) Error() string {
	name := e.DisciplineName
	if name == "" {
		name = e.Discipline.Raw
	}
	return fmt.Sprintf("found teams that no longer exist in discipline %s", name)
}

// Unwrap lets errors.Is match ErrStaleReference.
func (e *StaleReferenceError) Unwrap() error {
	return ErrStaleReference
}
