package services

import "errors"

// Sentinel errors shared across the authentication and task services.
// Handlers translate these to HTTP status codes; nothing below the
// handler layer knows about HTTP.
var (
	// ErrInvalidCredentials covers both "no such user" and "wrong
	// password" so responses cannot be used to enumerate usernames.
	ErrInvalidCredentials = errors.New("invalid username or password")

	// ErrAccountInactive means the request reached a real account that
	// has been deactivated.
	ErrAccountInactive = errors.New("account is inactive")

	// ErrInvalidToken is the single condition reported for every token
	// validation failure: bad signature, expired, malformed.
	ErrInvalidToken = errors.New("invalid or expired token")

	ErrConflict           = errors.New("resource already exists")
	ErrNotFound           = errors.New("resource not found")
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// ValidationError reports malformed input caught before any storage
// access.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// IsValidationError reports whether err is (or wraps) a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
