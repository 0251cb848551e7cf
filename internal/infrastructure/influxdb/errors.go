package influxdb

import "errors"

// Sentinel errors, checked with errors.Is.
var (
	// ErrDisabled is returned by Connect when the integration is off
	// in the config. Callers should treat it as "skip history".
	ErrDisabled = errors.New("influxdb: disabled in configuration")

	// ErrConnectionFailed is returned when the initial ping fails.
	ErrConnectionFailed = errors.New("influxdb: connection failed")

	// ErrNotConnected is returned for checks on a closed or never
	// connected client.
	ErrNotConnected = errors.New("influxdb: not connected")
)
