package app

import "errors"

var (
	// ErrUnknownFormat is returned for an unsupported --output value.
	ErrUnknownFormat = errors.New("unknown output format")
	// ErrMissingOwner is returned when a dataset is created without an owner.
	ErrMissingOwner = errors.New("--owner is required")
	// ErrPermissionDenied is returned when the --as user lacks the dataset permission.
	ErrPermissionDenied = errors.New("permission denied")
)
