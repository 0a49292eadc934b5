package models

import (
	"errors"
	"fmt"
)

// Sentinel errors for validation.
var (
	ErrEmptyNode        = errors.New("node is required")
	ErrReservedByte     = errors.New("contains a NUL byte")
	ErrInvalidTriple    = errors.New("invalid triple")
	ErrMissingStart     = errors.New("seeds or term is required")
	ErrMissingPredicate = errors.New("predicate is required")
	ErrMissingLabel     = errors.New("label is required")
	ErrUnknownStep      = errors.New("unknown step")
)

// ErrInvalidRequest wraps validation failures of request payloads.
var ErrInvalidRequest = errors.New("invalid request")

// ErrInvalidExpression is returned when a path expression is malformed.
// It surfaces at build time, before any evaluation happens.
var ErrInvalidExpression = errors.New("invalid path expression")

// ErrStoreUnavailable matches every failure of the underlying graph store.
var ErrStoreUnavailable = errors.New("graph store unavailable")

// ErrNodeNotFound indicates a lookup by label matched no vertex.
var ErrNodeNotFound = errors.New("node not found")

// ErrFieldTooLong returns an error indicating a field exceeds its maximum length.
func ErrFieldTooLong(field string, maxLen int) error {
	return fmt.Errorf("%s exceeds maximum length of %d", field, maxLen)
}

// FieldError ties a validation failure to the field that caused it.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string { return e.Field + ": " + e.Err.Error() }

func (e *FieldError) Unwrap() error { return e.Err }

// StoreError wraps a failure of a store backend. It matches
// ErrStoreUnavailable under errors.Is.
type StoreError struct {
	Backend string
	Op      string
	Err     error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s store: %s: %v", e.Backend, e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// Is reports whether target is ErrStoreUnavailable.
func (e *StoreError) Is(target error) bool { return target == ErrStoreUnavailable }
