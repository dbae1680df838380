package core

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrValidation         = errors.New("validation failed")
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrNotFound           = errors.New("not found")
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrCredential         = errors.New("invalid credentials")
	ErrAuthService        = errors.New("auth service error")
	ErrDuplicate          = errors.New("duplicate entry")
)

// ValidationError names the input field that failed validation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// PartialDeleteError reports a bulk delete that removed only part of the
// requested set. Remaining holds the IDs still present.
type PartialDeleteError struct {
	Deleted   int
	Remaining []string
	Err       error
}

func (e *PartialDeleteError) Error() string {
	return fmt.Sprintf("partial delete: %d deleted, %d remaining (%s): %v",
		e.Deleted, len(e.Remaining), strings.Join(e.Remaining, ","), e.Err)
}

func (e *PartialDeleteError) Unwrap() error {
	return e.Err
}

func (e *PartialDeleteError) Is(target error) bool {
	return target == ErrStorageUnavailable
}

// Unavailable wraps a transport or backend failure so that callers can
// match it with errors.Is(err, ErrStorageUnavailable).
func Unavailable(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrValidation) || errors.Is(err, ErrStorageUnavailable) {
		return err
	}
	return fmt.Errorf("%s: %w: %w", op, ErrStorageUnavailable, err)
}
