package router

import "errors"

// Domain-specific errors for router construction.
var (
	// ErrNilTable is returned when a Router is created without a mapping table.
	ErrNilTable = errors.New("router: mapping table is required")

	// ErrNilPublisher is returned when a Router is created without a publisher.
	ErrNilPublisher = errors.New("router: publisher is required")
)
