package checker

import (
	"errors"
	"fmt"
)

var (
	// ErrNotInitialized is reported by every query made before Init.
	ErrNotInitialized = errors.New("no hierarchy registered")

	// ErrInvalidBinding is reported when a binding names something other
	// than a generic, or binds it to a type that is not fully explicit.
	ErrInvalidBinding = errors.New("invalid binding")
)

// ConnectionCheckError annotates a failure with the connections that were
// being serviced when it happened.
type ConnectionCheckError struct {
	Conn  string
	Other string
	Err   error
}

func (e *ConnectionCheckError) Error() string {
	if e.Other == "" {
		return fmt.Sprintf("checking %s: %v", e.Conn, e.Err)
	}

	return fmt.Sprintf("checking %s against %s: %v", e.Conn, e.Other, e.Err)
}

func (e *ConnectionCheckError) Unwrap() error {
	return e.Err
}
