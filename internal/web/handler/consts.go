package handler

import "errors"

const (
	// RootPath is the root of every route.
	RootPath = "/"

	// APIPath prefixes every json endpoint.
	APIPath = RootPath + "api"
)

// ErrNilAppOrServices is returned by Init when app or svc is nil.
var ErrNilAppOrServices = errors.New("app or services is nil")
