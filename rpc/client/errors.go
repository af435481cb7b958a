package client

import "errors"

// Error taxonomy of the executor. Errors returned by Execute wrap one of these and can be
// tested with errors.Is.
var (
	// ErrBusy means a member answered "retry" (transient, retried)
	ErrBusy = errors.New("server busy")

	// ErrConnection means connecting, sending or reading failed (transient, retried)
	ErrConnection = errors.New("connection error")

	// ErrMalformed means the command was rejected as a bad command or the answer could not be
	// decoded. It indicates a bug, not a transient condition, and is never retried.
	ErrMalformed = errors.New("malformed command or answer")

	// ErrRedirectLimit means the cluster kept redirecting the command beyond the redirect limit
	ErrRedirectLimit = errors.New("redirect limit exceeded")

	// ErrRetriesExhausted means the retry budget was used up by transient failures
	ErrRetriesExhausted = errors.New("retries exhausted")

	// ErrClosed is returned by Execute after Close was called
	ErrClosed = errors.New("client is closed")
)
