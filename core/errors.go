package core

import (
	"errors"
	"fmt"
)

var ErrTimeout = errors.New("timed out waiting for result")

// BackendError is a backend failure that carries a message the upstream
// service meant for the user.
type BackendError struct {
	Message string
	Err     error
}

func (e *BackendError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

// UserMessage returns the upstream message of a BackendError in the chain,
// or fallback.
func UserMessage(err error, fallback string) string {
	var be *BackendError
	if errors.As(err, &be) && be.Message != "" {
		return be.Message
	}
	return fallback
}
