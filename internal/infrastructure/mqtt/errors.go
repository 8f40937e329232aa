package mqtt

import "errors"

var (
	// ErrConnectionFailed is returned when the initial broker connection fails.
	ErrConnectionFailed = errors.New("mqtt connection failed")

	// ErrNotConnected is returned when an operation requires a live connection.
	ErrNotConnected = errors.New("mqtt client not connected")

	// ErrSubscribeFailed is returned when a subscription cannot be established.
	ErrSubscribeFailed = errors.New("mqtt subscribe failed")

	// ErrPublishFailed is returned when a publish is not acknowledged in time.
	ErrPublishFailed = errors.New("mqtt publish failed")
)
