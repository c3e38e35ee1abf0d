package domain

import "errors"

var (
	// ErrUnknownPlatform is returned for platform names outside the configured set.
	ErrUnknownPlatform = errors.New("unknown platform")

	// ErrUnknownWindow is returned for window kinds that are not supported.
	ErrUnknownWindow = errors.New("unknown window kind")
)
