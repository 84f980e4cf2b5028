package domain

import "errors"

// Sentinel errors shared across services and repositories. Handlers map
// these onto HTTP status codes in internal/http/response; everything else
// wraps them with fmt.Errorf("%w", ...) and more context.
var (
	// ErrInvalidInput is returned for malformed or missing request fields.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound is returned when a referenced entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned on uniqueness violations (duplicate email,
	// duplicate category name).
	ErrConflict = errors.New("already exists")

	// ErrCapacityExceeded is returned when a parking lot has no free slot.
	ErrCapacityExceeded = errors.New("no parking slot available")

	// ErrInvalidState is returned when an operation is not valid for the
	// entity's current state, e.g. settling a vehicle that never left.
	ErrInvalidState = errors.New("operation not valid for current state")

	// ErrTokenInvalid is returned when a payment token fails signature or
	// shape checks.
	ErrTokenInvalid = errors.New("payment token invalid")

	// ErrTokenExpired is returned when a payment token is past its expiry.
	ErrTokenExpired = errors.New("payment token expired")

	// ErrTokenAlreadyUsed is returned when a payment token was already
	// consumed by an earlier confirmation.
	ErrTokenAlreadyUsed = errors.New("payment token already used")

	// ErrUnauthorized is returned on credential failures.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrUpstream is returned when the payment provider or another
	// external dependency is unreachable. Safe to retry.
	ErrUpstream = errors.New("upstream service unavailable")
)
