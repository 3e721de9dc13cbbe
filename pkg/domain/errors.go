package domain

import "errors"

// Common domain errors
var (
	// ErrNotFound is returned when a requested resource is not found
	ErrNotFound = errors.New("resource not found")
	// ErrAlreadyExists is returned when trying to create a resource that already exists
	ErrAlreadyExists = errors.New("resource already exists")
	// ErrValidation is returned when input validation fails
	ErrValidation = errors.New("validation error")
	// ErrUnauthorized is returned when the caller identity is missing or invalid
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden is returned when a caller is not allowed to perform an action
	ErrForbidden = errors.New("forbidden")
	// ErrVersionConflict is returned when an account row changed underneath a save
	ErrVersionConflict = errors.New("account version conflict")
)

// Ledger error kinds. Every failure of a ledger operation is one of these,
// possibly wrapped with additional context.
var (
	// ErrAccountNotFound is returned when a single-account operation targets an unknown account.
	ErrAccountNotFound = errors.New("account not found")
	// ErrSenderNotFound is returned when the sending account of a transfer does not exist.
	ErrSenderNotFound = errors.New("sender account not found")
	// ErrReceiverNotFound is returned when no account matches the receiver number and routing code.
	ErrReceiverNotFound = errors.New("receiver account not found")

	// ErrInvalidAmount is returned for amounts that are not strictly positive
	// or carry more fractional digits than the ledger stores.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrAccountInactive is returned when a single-account operation targets an inactive account.
	ErrAccountInactive = errors.New("account is inactive")
	// ErrSenderInactive is returned when the sending account of a transfer is inactive.
	ErrSenderInactive = errors.New("sender account is inactive")
	// ErrReceiverInactive is returned when the receiving account of a transfer is inactive.
	ErrReceiverInactive = errors.New("receiver account is inactive")

	// ErrInsufficientBalance is returned when an operation would drive a balance negative.
	ErrInsufficientBalance = errors.New("insufficient balance")
	// ErrSelfTransferRejected is returned when sender and receiver are the same account.
	ErrSelfTransferRejected = errors.New("cannot transfer to the same account")

	// ErrLockTimeout is returned when the required account locks could not be acquired in time.
	ErrLockTimeout = errors.New("timed out acquiring account lock")
	// ErrPersistenceFailure is returned when the store could not durably commit an operation.
	ErrPersistenceFailure = errors.New("persistence failure")
	// ErrDuplicateTransactionID is an integrity violation: a generated transaction id already exists.
	// It is never retryable.
	ErrDuplicateTransactionID = errors.New("duplicate transaction id")

	// ErrIdempotencyKeyReused is returned when an idempotency key already
	// belongs to a different command.
	ErrIdempotencyKeyReused = errors.New("idempotency key reused with a different request")

	// ErrInvalidStatus is returned when an account status outside ACTIVE/INACTIVE is requested.
	ErrInvalidStatus = errors.New("invalid account status")
)
