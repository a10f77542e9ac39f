package broker

import "errors"

// Wire error codes carried on error/auth_error/validation_error frames.
const (
	ErrCodeInvalidFormat    = "invalid_format"
	ErrCodeValidationFailed = "validation_failed"
	ErrCodeAuthRequired     = "auth_required"
	ErrCodeAuthFailed       = "auth_failed"
)

// Wire error messages paired with the codes above.
const (
	MsgInvalidFormat = "Invalid message format"
	MsgAuthRequired  = "Authentication required"
)

var (
	// ErrClientNotFound is returned by lookups for unknown client ids.
	ErrClientNotFound = errors.New("client not found")
)
