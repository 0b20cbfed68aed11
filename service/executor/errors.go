package executor

import "errors"

var (
	// ErrUnsupportedPlatform is returned when no poster is registered for a platform.
	ErrUnsupportedPlatform = errors.New("executor: unsupported platform")
	// ErrUnsupportedAction is returned by posters for action types they cannot perform.
	ErrUnsupportedAction = errors.New("executor: unsupported action type")
)
