package folio

import (
	"errors"
	"fmt"
)

// Application error codes. These map the failure taxonomy of the acquisition
// engine onto codes that callers can branch on without string matching.
const (
	EINVALID     = "invalid"     // validation failed (junk URL, undecodable image)
	ENOTFOUND    = "not_found"   // resource does not exist (HTTP 404, missing cache entry)
	ERATELIMITED = "rate_limited" // HTTP 429 after exhausting cooldown retries
	EBLOCKED     = "blocked"     // non-retryable status configured by the caller (401/403)
	EUNAVAILABLE = "unavailable" // transport failure or retry budget exhausted
	EINTERNAL    = "internal"    // unexpected condition
)

// Error represents an application-specific error. Application errors carry a
// machine-readable code and a human-readable message.
type Error struct {
	Code    string
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("folio error: code=%s message=%s", e.Code, e.Message)
}

// ErrorCode unwraps an application error and returns its code.
// Non-application errors always return EINTERNAL.
func ErrorCode(err error) string {
	var e *Error
	if err == nil {
		return ""
	} else if errors.As(err, &e) {
		return e.Code
	}
	return EINTERNAL
}

// ErrorMessage unwraps an application error and returns its message.
// Non-application errors always return "Internal error".
func ErrorMessage(err error) string {
	var e *Error
	if err == nil {
		return ""
	} else if errors.As(err, &e) {
		return e.Message
	}
	return "Internal error"
}

// Errorf is a helper function to return an Error with a given code and
// formatted message.
func Errorf(code string, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}
