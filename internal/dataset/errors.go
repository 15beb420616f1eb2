package dataset

import (
	"errors"
	"fmt"
)

var (
	// ErrConfigDenied is returned when the configuration does not allow the operation.
	ErrConfigDenied = errors.New("configuration does not allow this operation")
	// ErrPurged is returned when a purged dataset would be brought back.
	ErrPurged = errors.New("dataset is purged")
	// ErrInvalidState is returned for an unknown dataset state.
	ErrInvalidState = errors.New("invalid dataset state")
	// ErrInvalidFilter is returned for a malformed list filter or order.
	ErrInvalidFilter = errors.New("invalid filter")
	// ErrUnknownView is returned for a view name the serializer does not declare.
	ErrUnknownView = errors.New("unknown view")
	// ErrUnknownKey is returned when a single unknown key is serialized directly.
	ErrUnknownKey = errors.New("unknown serialization key")
)

// SkipAttributeError signals that a key must be left out of the output for the caller.
// Batch serialization drops the key, direct serialization returns the error.
type SkipAttributeError struct {
	Key    string
	Reason string
}

func (e *SkipAttributeError) Error() string {
	return fmt.Sprintf("skip attribute %s: %s", e.Key, e.Reason)
}

func skip(key, reason string) error {
	return &SkipAttributeError{Key: key, Reason: reason}
}

// IsSkipAttribute reports whether err is or wraps a *SkipAttributeError.
func IsSkipAttribute(err error) bool {
	var skipErr *SkipAttributeError

	return errors.As(err, &skipErr)
}
