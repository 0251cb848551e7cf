package host

import "errors"

var (
	// ErrCallFailed is returned when the host reports a capability call failure.
	ErrCallFailed = errors.New("host: capability call failed")

	// ErrCallTimeout is returned when a blocking call's context expires
	// before the host answers.
	ErrCallTimeout = errors.New("host: capability call timed out")

	// ErrNotStarted is returned when the bridge is used before Start.
	ErrNotStarted = errors.New("host: bridge not started")
)
