package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound        = errors.New("entity not found")
	ErrAlreadyExists   = errors.New("entity already exists")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrInvalidFormat   = errors.New("invalid format")
	ErrForbidden       = errors.New("forbidden")
	ErrPrimaryAdmin    = errors.New("primary admin cannot be removed")

	// Purchase flow
	ErrAlreadyPurchased     = errors.New("course already purchased")
	ErrNoPendingCourse      = errors.New("no pending course for this action")
	ErrNotCapturing         = errors.New("not waiting for payment evidence")
	ErrMethodUnavailable    = errors.New("payment method not configured")
	ErrDuplicateTransaction = errors.New("transaction id already used")
	ErrTransactionInFlight  = errors.New("transaction id is being verified")

	// Payment gateway
	ErrGatewayAuth      = errors.New("payment gateway authorization failed")
	ErrGatewayTransport = errors.New("payment gateway request failed")
)
