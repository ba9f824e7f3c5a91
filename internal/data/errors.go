package data

import "errors"

// Shared sentinel errors for data-layer repositories.
var (
	// ErrDatabaseRequired is returned when a repository is built without a connection.
	ErrDatabaseRequired = errors.New("database connection is required")
)
