package service

import "errors"

// Common service errors
var (
	// ErrNotFound is returned when a resource is not found, or exists but is
	// not visible to the caller (deliberately merged to avoid leaking
	// existence of other users' records)
	ErrNotFound = errors.New("resource not found")

	// ErrPermissionDenied is returned when a user doesn't own the referenced
	// distributor or target
	ErrPermissionDenied = errors.New("permission denied")

	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")

	// ErrConflict is returned when a record with the same scope already exists
	ErrConflict = errors.New("resource conflict")

	// ErrInvalidField is returned when a completion update names an
	// unrecognized field key
	ErrInvalidField = errors.New("unknown completion field")

	// ErrInvalidWeight is returned when an allocation weight is zero,
	// negative or not finite
	ErrInvalidWeight = errors.New("invalid allocation weight")

	// ErrEmptyAllocationSet is returned when a batch allocation resolves to
	// zero eligible distributors
	ErrEmptyAllocationSet = errors.New("no eligible distributors to allocate to")
)
