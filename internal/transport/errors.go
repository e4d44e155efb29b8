package transport

import (
	"errors"
	"fmt"
)

// GenericMessage is shown when neither the server nor the failure itself
// provides a usable message.
const GenericMessage = "Something went wrong, please try again."

// Error is a failed API call. Status is 0 when no response was received.
type Error struct {
	Status  int
	Message string
	Err     error
}

// Error prefers the server-supplied message, then the underlying error text,
// then GenericMessage.
func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		if text := e.Err.Error(); text != "" {
			return text
		}
	}
	return GenericMessage
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Message returns the human-readable text of err, or "" for nil.
// Errors that did not come from this package yield GenericMessage.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Error()
	}
	return GenericMessage
}

// IsStatus reports whether err is an API error with the given HTTP status.
func IsStatus(err error, status int) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Status == status
}

func requestError(op string, err error) *Error {
	return &Error{Err: fmt.Errorf("%s: %w", op, err)}
}
