package service

import "errors"

// Failure taxonomy shared across the workflow services. Handlers map these
// to HTTP statuses; raw store errors never reach clients.
var (
	// ErrUnauthenticated indicates the request carries no resolvable identity.
	ErrUnauthenticated = errors.New("authentication required")
	// ErrForbidden indicates the caller's role does not permit the operation.
	ErrForbidden = errors.New("insufficient permissions")
	// ErrUserNotFound indicates the referenced user does not exist.
	ErrUserNotFound = errors.New("user not found")
)
