package core

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidAmount rejects non-positive or malformed amounts before they
	// reach storage.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrInvalidDate rejects dates that are not ISO yyyy-mm-dd.
	ErrInvalidDate = errors.New("invalid date")

	// ErrInvalidRole rejects loan roles other than you_lent / you_borrowed.
	ErrInvalidRole = errors.New("invalid loan role")

	// ErrEmptyName rejects blank account or contact names.
	ErrEmptyName = errors.New("empty name")

	// ErrContactExists signals a duplicate contact name; contact names are
	// unique so lookups by name stay unambiguous.
	ErrContactExists = errors.New("contact already exists")
)

// NotFoundError reports a missing contact or loan. It propagates to the
// caller unchanged; there is no silent recovery.
type NotFoundError struct {
	Entity string // "contact" or "loan"
	Key    string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Entity, e.Key)
}

// NotFound builds a NotFoundError for the given entity and lookup key.
func NotFound(entity, key string) *NotFoundError {
	return &NotFoundError{Entity: entity, Key: key}
}

// IsNotFound reports whether err is (or wraps) a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
