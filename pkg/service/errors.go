package service

import "errors"

// Sentinel errors, matched with errors.Is.
var (
	ErrValidation   = errors.New("validation failed")
	ErrConflict     = errors.New("already exists")
	ErrNotFound     = errors.New("not found")
	ErrNotConfirmed = errors.New("removal not confirmed")
)

// ValidationError is a rejected request. Nothing was mutated.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// Is allows errors.Is() to match against ErrValidation
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// ConflictError reports an existing resource in the way of the request.
type ConflictError struct {
	Message      string
	ResourceType string
	ResourceID   string
}

func (e *ConflictError) Error() string {
	return e.Message
}

// Is allows errors.Is() to match against ErrConflict
func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

// NotFoundError reports a group, list or path that does not exist.
type NotFoundError struct {
	ResourceType string
	ResourceID   string
}

func (e *NotFoundError) Error() string {
	return e.ResourceType + " not found: " + e.ResourceID
}

// Is allows errors.Is() to match against ErrNotFound
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}
