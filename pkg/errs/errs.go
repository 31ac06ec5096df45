// Package errs defines the server's error taxonomy as wrapped sentinel
// values, so callers can classify a failure with errors.Is instead of
// string-matching a message.
package errs

import "errors"

var (
	// BadRequest marks a malformed or out-of-range client message.
	BadRequest = errors.New("bad request")
	// Unauthorized marks a handshake or action the caller isn't permitted.
	Unauthorized = errors.New("unauthorized")
	// Unsupported marks a request the server understands but won't serve
	// (an unsupported protocol version, an unimplemented action).
	Unsupported = errors.New("unsupported")
	// Busy marks a transient capacity failure (server full, queue full).
	Busy = errors.New("busy")
	// Internal marks a failure that isn't the caller's fault.
	Internal = errors.New("internal")
)
