package model

import "errors"

// Failure codes shared by all platform adapters so callers deal with a
// single vocabulary regardless of which platform (or transport layer)
// produced the error.
const (
	ErrCodeTokenExchangeFailed = "token_exchange_failed"
	ErrCodeMediaRequired       = "media_required"
	ErrCodeCredentialInvalid   = "credential_invalid"
	ErrCodePlatformRejected    = "platform_rejected"
	ErrCodeConnectionMissing   = "connection_missing"
	ErrCodeUnsupportedPlatform = "unsupported_platform"
)

// PlatformError is a typed publish/exchange failure.
type PlatformError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *PlatformError) Error() string {
	if e.Message == "" {
		return e.Code
	}
	return e.Code + ": " + e.Message
}

func NewPlatformError(code, message string) *PlatformError {
	return &PlatformError{Code: code, Message: message}
}

// AsPlatformError returns err as a PlatformError, converting transport
// and other unexpected errors into the platform_rejected shape.
func AsPlatformError(err error) *PlatformError {
	var pe *PlatformError
	if errors.As(err, &pe) {
		return pe
	}
	return &PlatformError{Code: ErrCodePlatformRejected, Message: err.Error()}
}
