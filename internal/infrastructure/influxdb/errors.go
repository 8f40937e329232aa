package influxdb

import "errors"

var (
	// ErrDisabled is returned when connecting with influxdb disabled in config.
	ErrDisabled = errors.New("influxdb is disabled in configuration")

	// ErrConnectionFailed is returned when the initial connection fails.
	ErrConnectionFailed = errors.New("influxdb connection failed")

	// ErrNotConnected is returned when an operation requires a live connection.
	ErrNotConnected = errors.New("influxdb client not connected")
)
