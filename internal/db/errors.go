package db

import "errors"

// ErrUnsupportedEngine is returned for an unknown DB.GormEngine.
var ErrUnsupportedEngine = errors.New("unsupported gorm engine")
