// Package permanent tags failures that redelivery cannot fix.
//
// The reducer marks contract violations — invalid events, malformed key
// templates — as permanent so transports drop them instead of retrying;
// unmarked errors stay retryable and go back to the broker.
package permanent

import "errors"

// Error wraps one non-retryable failure cause.
// Params: root cause of the rejected operation.
// Returns: error carrying the permanent tag through wrap chains.
type Error struct {
	Err error
}

// Error formats the rejection message.
// Params: none.
// Returns: the wrapped cause's message, or a fixed fallback.
func (e Error) Error() string {
	if e.Err == nil {
		return "permanent error"
	}
	return e.Err.Error()
}

// Unwrap exposes the cause to errors.Is and errors.As.
// Params: none.
// Returns: wrapped cause.
func (e Error) Unwrap() error {
	return e.Err
}

// Permanent tags the error as non-retryable for Is.
// Params: none.
// Returns: true always.
func (Error) Permanent() bool {
	return true
}

// permanence is the tag Is looks for anywhere in a wrap chain.
type permanence interface {
	Permanent() bool
}

// Mark flags an error as one redelivery cannot fix.
// Params: source error.
// Returns: tagged error, nil stays nil.
func Mark(err error) error {
	if err == nil {
		return nil
	}
	return Error{Err: err}
}

// Is reports whether the error chain carries the permanent tag.
// Params: candidate error, possibly wrapped.
// Returns: true when the event should be dropped rather than redelivered.
func Is(err error) bool {
	var tagged permanence
	return errors.As(err, &tagged) && tagged.Permanent()
}
