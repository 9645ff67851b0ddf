package booking

import (
	"errors"
	"fmt"
)

// Error codes surfaced to callers. Stable machine-readable kinds; handlers map
// them to HTTP statuses.
const (
	CodeValidation   = "validationError"
	CodeConflict     = "conflictError"
	CodeNotFound     = "notFoundError"
	CodeVerification = "verificationError"
	CodeState        = "stateError"
)

// Error is the engine's typed failure: a stable code plus a human message.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func NewValidationError(format string, args ...any) error {
	return &Error{Code: CodeValidation, Message: fmt.Sprintf(format, args...)}
}

// NewConflictError signals that the requested interval is already booked.
// Callers must treat it as refund-eligible: any externally captured payment
// for the attempt has to be reversed.
func NewConflictError(format string, args ...any) error {
	return &Error{Code: CodeConflict, Message: fmt.Sprintf(format, args...)}
}

func NewNotFoundError(format string, args ...any) error {
	return &Error{Code: CodeNotFound, Message: fmt.Sprintf(format, args...)}
}

func NewVerificationError(format string, args ...any) error {
	return &Error{Code: CodeVerification, Message: fmt.Sprintf(format, args...)}
}

func NewStateError(format string, args ...any) error {
	return &Error{Code: CodeState, Message: fmt.Sprintf(format, args...)}
}

func hasCode(err error, code string) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == code
}

func IsValidation(err error) bool   { return hasCode(err, CodeValidation) }
func IsConflict(err error) bool     { return hasCode(err, CodeConflict) }
func IsNotFound(err error) bool     { return hasCode(err, CodeNotFound) }
func IsVerification(err error) bool { return hasCode(err, CodeVerification) }
func IsState(err error) bool        { return hasCode(err, CodeState) }

// ErrorCode extracts the machine-readable code, or empty for untyped errors.
func ErrorCode(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
