package connection

import "errors"

// Domain-specific errors for connection lifecycle operations.
var (
	// ErrMissingCredentials is returned by Start when no username is configured.
	// Only the username is required; brokers that authenticate by username
	// alone, or by client certificate, accept an empty password.
	ErrMissingCredentials = errors.New("connection: broker credentials not supplied")

	// ErrMissingMappingTable is returned by Start when no mapping table is set.
	ErrMissingMappingTable = errors.New("connection: mapping table not supplied")

	// ErrInitialConnect wraps the broker error when the first connect fails.
	ErrInitialConnect = errors.New("connection: initial connect failed")

	// ErrAlreadyStarted is returned by Start unless the manager is Disconnected
	// and has never been stopped.
	ErrAlreadyStarted = errors.New("connection: manager already started")

	// ErrStopped is returned by Start when Stop ran while the connect was in flight.
	ErrStopped = errors.New("connection: manager stopped")

	// ErrNilClient is returned by New when no broker client is supplied.
	ErrNilClient = errors.New("connection: broker client is required")

	// ErrNilRouter is returned by New when no message router is supplied.
	ErrNilRouter = errors.New("connection: message router is required")
)
