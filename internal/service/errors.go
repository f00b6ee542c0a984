package service

import (
	"errors"
	"fmt"

	"github.com/learnnav/learning-navigator/internal/repository"
)

// Domain Errors
var (
	ErrNotFound           = errors.New("resource not found")
	ErrEnrollmentConflict = errors.New("enrollment conflict")
)

// NotFoundError reports a referenced id that does not exist. It matches ErrNotFound.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string { return e.Message }

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// EnrollmentError reports a duplicate enrollment or a missing prerequisite.
// It matches ErrEnrollmentConflict.
type EnrollmentError struct {
	Message string
}

func (e *EnrollmentError) Error() string { return e.Message }

func (e *EnrollmentError) Is(target error) bool { return target == ErrEnrollmentConflict }

func notFound(format string, args ...any) error {
	return &NotFoundError{Message: fmt.Sprintf(format, args...)}
}

func conflict(format string, args ...any) error {
	return &EnrollmentError{Message: fmt.Sprintf(format, args...)}
}

// lookupErr turns a repository miss into a NotFoundError and wraps anything else.
func lookupErr(err error, format string, args ...any) error {
	if errors.Is(err, repository.ErrNotFound) {
		return notFound(format, args...)
	}
	return fmt.Errorf("lookup: %w", err)
}
