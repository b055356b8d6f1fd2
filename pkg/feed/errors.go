package feed

import (
	"errors"
)

var (
	// ErrInvalidSubscription rejects a subscribe request with an empty
	// symbol before any connection is attempted.
	ErrInvalidSubscription = errors.New("invalid subscription: empty symbol")

	// ErrMaxReconnects is the standing error after the reconnect attempt
	// cap is exhausted. Recovery requires an explicit new subscribe.
	ErrMaxReconnects = errors.New("max reconnect attempts reached")
)
